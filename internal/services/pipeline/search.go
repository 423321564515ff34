package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/Houeta/buywise/internal/extract"
	"github.com/Houeta/buywise/internal/models"
	"github.com/Houeta/buywise/internal/repository"
	"golang.org/x/sync/errgroup"
)

const (
	maxCandidates    = 10
	candidateWorkers = 4
)

// Candidate is one entry of a search result list.
type Candidate struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"imageUrl"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"reviewCount"`
}

// Search lists up to ten candidates for query. Stored products are served
// from the database, others from the catalog. Nothing is cached or written.
func (p *Pipeline) Search(ctx context.Context, query string) ([]Candidate, error) {
	const opn = "pipeline.Search"
	log := p.log.With("op", opn, "query", query)

	ids := p.fetcher.SearchIDs(ctx, query)
	if len(ids) > maxCandidates {
		ids = ids[:maxCandidates]
	}

	candidates := make([]Candidate, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(candidateWorkers)

	for i, id := range ids {
		g.Go(func() error {
			c, err := p.candidate(gctx, id)
			if err != nil {
				return err
			}
			candidates[i] = c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	log.InfoContext(ctx, "Search completed", "count", len(candidates))

	return candidates, nil
}

func (p *Pipeline) candidate(ctx context.Context, id string) (Candidate, error) {
	product, err := p.store.FindProductByExternalID(ctx, id)
	if err == nil {
		return storedCandidate(product), nil
	}
	if !errors.Is(err, repository.ErrProductNotFound) {
		return Candidate{}, fmt.Errorf("failed to find product %s: %w", id, err)
	}

	details := p.fetcher.FetchDetails(ctx, id)
	if _, failed := details["error"]; failed {
		p.log.WarnContext(ctx, "Details unavailable, using stub entry", "op", "pipeline.candidate", "product_id", id)
		return Candidate{ID: id, Name: "Product " + id, Brand: "Unknown"}, nil
	}

	return Candidate{
		ID:          id,
		Name:        extract.String(details["title"], "Unknown Product"),
		Brand:       extract.String(details["brand"], extract.UnknownBrand),
		Price:       extract.Price(details["price"]),
		ImageURL:    extract.String(details["imageUrl"], ""),
		Rating:      extract.Rating(details["rating"]),
		ReviewCount: extract.ReviewCount(details["reviewCount"]),
	}, nil
}

func storedCandidate(product *models.Product) Candidate {
	c := Candidate{
		ID:          product.ExternalID,
		Name:        product.Name,
		Brand:       product.Brand,
		ImageURL:    product.ImageURL,
		Rating:      extract.Rating(specValue(product.Specification, "rating")),
		ReviewCount: extract.ReviewCount(specValue(product.Specification, "reviewCount")),
	}
	if product.LastPrice != nil {
		c.Price = *product.LastPrice
	}
	return c
}

// specValue reads key from the specification, then from its nested raw payload.
func specValue(spec models.Document, key string) any {
	if spec.Has(key) {
		return spec[key]
	}
	if raw, ok := spec.Object("raw"); ok {
		return raw[key]
	}
	return nil
}
