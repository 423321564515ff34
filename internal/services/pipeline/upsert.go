package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/Houeta/buywise/internal/analysis"
	"github.com/Houeta/buywise/internal/extract"
	"github.com/Houeta/buywise/internal/models"
	"github.com/Houeta/buywise/internal/repository"
	"github.com/Houeta/buywise/internal/repository/sqlite"
)

type upsert struct {
	product *models.Product
	change  *models.PriceChange // set when a new price replaced a recorded one
}

// upsertProduct writes the product derived from details and appends its
// price when it differs from the latest recorded one.
func upsertProduct(
	ctx context.Context,
	tx sqlite.Store,
	id string,
	details models.Document,
	reviews []models.Document,
) (*upsert, error) {
	title := extract.String(firstOf(details, "title", "product_title"), analysis.UnknownProduct)
	price := extract.Price(firstOf(details, "price", "product_price"))

	specs := details.Clone()
	specs["reviews"] = reviews
	specs["total_reviews"] = len(reviews)

	product, err := tx.FindProductByExternalID(ctx, id)
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		product = &models.Product{ExternalID: id}
	case err != nil:
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	product.Name = title
	product.Brand = extract.Brand(title)
	product.ImageURL = extract.String(firstOf(details, "imageUrl", "product_photo"), analysis.NoImageURL)
	product.Link = extract.String(firstOf(details, "productUrl", "product_url"), "")
	product.Specification = specs
	if price > 0 {
		product.LastPrice = &price
	}

	if err = saveProduct(ctx, tx, product); err != nil {
		return nil, err
	}

	up := &upsert{product: product}
	if price > 0 {
		if up.change, err = recordPrice(ctx, tx, product, price); err != nil {
			return nil, err
		}
	}

	if err = tx.LinkCacheProduct(ctx, id, product.ID); err != nil {
		return nil, fmt.Errorf("failed to link cache entry: %w", err)
	}

	return up, nil
}

// saveProduct inserts a new product or updates a known one. An insert that
// loses the unique key race becomes an update once.
func saveProduct(ctx context.Context, tx sqlite.Store, product *models.Product) error {
	if product.ID != 0 {
		if err := tx.UpdateProduct(ctx, product); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		return nil
	}

	err := tx.InsertProduct(ctx, product)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrDuplicate) {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	existing, err := tx.FindProductByExternalID(ctx, product.ExternalID)
	if err != nil {
		return fmt.Errorf("failed to reload product after duplicate insert: %w", err)
	}
	product.ID = existing.ID
	product.CreatedAt = existing.CreatedAt
	if product.LastPrice == nil {
		product.LastPrice = existing.LastPrice
	}

	if err = tx.UpdateProduct(ctx, product); err != nil {
		return fmt.Errorf("failed to update product after duplicate insert: %w", err)
	}
	return nil
}

// recordPrice appends price unless it equals the latest entry exactly.
func recordPrice(
	ctx context.Context,
	tx sqlite.Store,
	product *models.Product,
	price float64,
) (*models.PriceChange, error) {
	latest, err := tx.LatestPrice(ctx, product.ID)
	if err != nil && !errors.Is(err, repository.ErrPriceNotFound) {
		return nil, fmt.Errorf("failed to read latest price: %w", err)
	}
	if latest != nil && latest.Price == price {
		return nil, nil
	}

	if _, err = tx.AppendPrice(ctx, product.ID, price); err != nil {
		return nil, fmt.Errorf("failed to append price: %w", err)
	}

	if latest == nil {
		return nil, nil
	}
	return &models.PriceChange{
		ExternalID: product.ExternalID,
		Name:       product.Name,
		Link:       product.Link,
		Old:        latest.Price,
		New:        price,
	}, nil
}

func firstOf(doc models.Document, keys ...string) any {
	v, _ := doc.First(keys...)
	return v
}
