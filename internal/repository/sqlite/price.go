package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Houeta/buywise/internal/models"
	"github.com/Houeta/buywise/internal/repository"
)

// LatestPrice returns the most recent price entry of a product.
func (r *Repository) LatestPrice(ctx context.Context, productID int64) (*models.PriceHistory, error) {
	const opn = "repository.sqlite.LatestPrice"

	var entry models.PriceHistory
	err := r.q.QueryRowContext(ctx, `
		SELECT id, product_id, price, recorded_at FROM price_history
		WHERE product_id = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT 1`,
		productID,
	).Scan(&entry.ID, &entry.ProductID, &entry.Price, &entry.RecordedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrPriceNotFound
		}
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	return &entry, nil
}

// AppendPrice records price for a product unconditionally. Deciding whether a
// price is new is up to the caller.
func (r *Repository) AppendPrice(ctx context.Context, productID int64, price float64) (*models.PriceHistory, error) {
	const opn = "repository.sqlite.AppendPrice"

	entry := models.PriceHistory{ProductID: productID, Price: price, RecordedAt: now()}
	res, err := r.q.ExecContext(ctx,
		"INSERT INTO price_history (product_id, price, recorded_at) VALUES (?, ?, ?)",
		entry.ProductID, entry.Price, entry.RecordedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to insert price: %w", opn, err)
	}

	if entry.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("%s: failed to read inserted id: %w", opn, err)
	}

	return &entry, nil
}

// PriceHistory returns all price entries of a product, oldest first.
func (r *Repository) PriceHistory(ctx context.Context, productID int64) ([]models.PriceHistory, error) {
	const opn = "repository.sqlite.PriceHistory"

	rows, err := r.q.QueryContext(ctx, `
		SELECT id, product_id, price, recorded_at FROM price_history
		WHERE product_id = ?
		ORDER BY recorded_at, id`,
		productID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	defer rows.Close()

	var history []models.PriceHistory
	for rows.Next() {
		var entry models.PriceHistory
		if err = rows.Scan(&entry.ID, &entry.ProductID, &entry.Price, &entry.RecordedAt); err != nil {
			return nil, fmt.Errorf("%s: failed to scan price: %w", opn, err)
		}
		history = append(history, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration error: %w", opn, err)
	}

	return history, nil
}

// PriceRange returns the all-time low and high of a product.
func (r *Repository) PriceRange(ctx context.Context, productID int64) (float64, float64, error) {
	const opn = "repository.sqlite.PriceRange"

	var low, high sql.NullFloat64
	err := r.q.QueryRowContext(ctx,
		"SELECT MIN(price), MAX(price) FROM price_history WHERE product_id = ?",
		productID,
	).Scan(&low, &high)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", opn, err)
	}

	if !low.Valid || !high.Valid {
		return 0, 0, repository.ErrPriceNotFound
	}

	return low.Float64, high.Float64, nil
}
