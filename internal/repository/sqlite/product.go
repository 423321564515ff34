package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Houeta/buywise/internal/models"
	"github.com/Houeta/buywise/internal/repository"
)

const productColumns = "id, external_id, name, brand, image_url, link, last_price, specification, created_at, updated_at"

// FindProductByExternalID returns the product stored for externalID.
func (r *Repository) FindProductByExternalID(ctx context.Context, externalID string) (*models.Product, error) {
	const opn = "repository.sqlite.FindProductByExternalID"

	row := r.q.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE external_id = ?", externalID)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrProductNotFound
		}
		return nil, fmt.Errorf("%s: failed to scan product: %w", opn, err)
	}

	return product, nil
}

// FindProductByID returns the product with the given row id.
func (r *Repository) FindProductByID(ctx context.Context, id int64) (*models.Product, error) {
	const opn = "repository.sqlite.FindProductByID"

	row := r.q.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", id)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrProductNotFound
		}
		return nil, fmt.Errorf("%s: failed to scan product: %w", opn, err)
	}

	return product, nil
}

// InsertProduct creates a new product and fills in its ID and timestamps.
// A clash on external_id is reported as repository.ErrDuplicate.
func (r *Repository) InsertProduct(ctx context.Context, product *models.Product) error {
	const opn = "repository.sqlite.InsertProduct"

	ts := now()
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO products (external_id, name, brand, image_url, link, last_price, specification, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		product.ExternalID, product.Name, product.Brand, product.ImageURL, product.Link,
		nullFloat(product.LastPrice), product.Specification, ts, ts,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: product %s: %w", opn, product.ExternalID, repository.ErrDuplicate)
		}
		return fmt.Errorf("%s: failed to insert product: %w", opn, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("%s: failed to read inserted id: %w", opn, err)
	}

	product.ID = id
	product.CreatedAt = ts
	product.UpdatedAt = ts

	return nil
}

// UpdateProduct overwrites the mutable fields of the product with product.ExternalID.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) error {
	const opn = "repository.sqlite.UpdateProduct"

	ts := now()
	res, err := r.q.ExecContext(ctx, `
		UPDATE products
		SET name = ?, brand = ?, image_url = ?, link = ?, last_price = ?, specification = ?, updated_at = ?
		WHERE external_id = ?`,
		product.Name, product.Brand, product.ImageURL, product.Link,
		nullFloat(product.LastPrice), product.Specification, ts, product.ExternalID,
	)
	if err != nil {
		return fmt.Errorf("%s: failed to update product: %w", opn, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to read affected rows: %w", opn, err)
	}
	if affected == 0 {
		return repository.ErrProductNotFound
	}

	product.UpdatedAt = ts

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*models.Product, error) {
	var (
		p         models.Product
		lastPrice sql.NullFloat64
	)
	err := row.Scan(
		&p.ID, &p.ExternalID, &p.Name, &p.Brand, &p.ImageURL, &p.Link,
		&lastPrice, &p.Specification, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastPrice.Valid {
		p.LastPrice = &lastPrice.Float64
	}

	return &p, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
