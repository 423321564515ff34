package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Houeta/buywise/internal/models"
	"github.com/Houeta/buywise/internal/repository"
)

// GetCache returns the cache entry for externalID if it has not expired.
// An expired entry is deleted on the way out and reported as not found.
func (r *Repository) GetCache(ctx context.Context, externalID string) (*models.RawCache, error) {
	const opn = "repository.sqlite.GetCache"

	var (
		entry     models.RawCache
		productID sql.NullInt64
	)
	err := r.q.QueryRowContext(ctx,
		"SELECT id, external_id, payload, cached_at, expiry_at, product_id FROM raw_cache WHERE external_id = ?",
		externalID,
	).Scan(&entry.ID, &entry.ExternalID, &entry.Payload, &entry.CachedAt, &entry.ExpiryAt, &productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrCacheNotFound
		}
		return nil, fmt.Errorf("%s: failed to get cache entry: %w", opn, err)
	}

	current := now()
	if entry.Expired(current) {
		r.log.DebugContext(ctx, "Cache entry expired, deleting", "op", opn, "external_id", externalID)
		// A concurrent refresh moves expiry_at forward, and then the row must stay.
		_, err = r.q.ExecContext(ctx, "DELETE FROM raw_cache WHERE id = ? AND expiry_at <= ?", entry.ID, current)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to delete expired entry: %w", opn, err)
		}
		return nil, repository.ErrCacheNotFound
	}

	if productID.Valid {
		entry.ProductID = &productID.Int64
	}

	return &entry, nil
}

// PutCache stores payload for externalID, updating the existing row in place.
// An insert that loses a race on the unique key is retried once as an update.
func (r *Repository) PutCache(
	ctx context.Context,
	externalID string,
	payload models.Document,
	ttl time.Duration,
) error {
	const opn = "repository.sqlite.PutCache"

	cachedAt := now()
	expiryAt := cachedAt.Add(ttl)

	updated, err := r.updateCache(ctx, externalID, payload, cachedAt, expiryAt)
	if err != nil {
		return fmt.Errorf("%s: failed to update cache entry: %w", opn, err)
	}
	if updated {
		return nil
	}

	_, err = r.q.ExecContext(ctx, `
		INSERT INTO raw_cache (external_id, payload, cached_at, expiry_at, product_id)
		VALUES (?, ?, ?, ?, (SELECT id FROM products WHERE external_id = ?))`,
		externalID, payload, cachedAt, expiryAt, externalID,
	)
	if err == nil {
		return nil
	}
	if !isUniqueViolation(err) {
		return fmt.Errorf("%s: failed to insert cache entry: %w", opn, err)
	}

	r.log.WarnContext(ctx, "Concurrent cache insert detected, retrying as update", "op", opn, "external_id", externalID)

	updated, err = r.updateCache(ctx, externalID, payload, cachedAt, expiryAt)
	if err != nil {
		return fmt.Errorf("%s: failed to retry cache update: %w", opn, err)
	}
	if !updated {
		return fmt.Errorf("%s: cache entry %s vanished during retry: %w", opn, externalID, repository.ErrDuplicate)
	}

	return nil
}

func (r *Repository) updateCache(
	ctx context.Context,
	externalID string,
	payload models.Document,
	cachedAt, expiryAt time.Time,
) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE raw_cache
		SET payload = ?, cached_at = ?, expiry_at = ?,
			product_id = COALESCE(product_id, (SELECT id FROM products WHERE external_id = ?))
		WHERE external_id = ?`,
		payload, cachedAt, expiryAt, externalID, externalID,
	)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// CacheExists reports whether GetCache would return an entry.
func (r *Repository) CacheExists(ctx context.Context, externalID string) (bool, error) {
	_, err := r.GetCache(ctx, externalID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrCacheNotFound):
		return false, nil
	default:
		return false, err
	}
}

// PurgeExpiredCache deletes every expired entry and returns how many went.
func (r *Repository) PurgeExpiredCache(ctx context.Context) (int64, error) {
	const opn = "repository.sqlite.PurgeExpiredCache"

	res, err := r.q.ExecContext(ctx, "DELETE FROM raw_cache WHERE expiry_at <= ?", now())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", opn, err)
	}

	purged, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to read affected rows: %w", opn, err)
	}

	return purged, nil
}

// LinkCacheProduct sets the product reference of the cache row when it is still unset.
func (r *Repository) LinkCacheProduct(ctx context.Context, externalID string, productID int64) error {
	const opn = "repository.sqlite.LinkCacheProduct"

	_, err := r.q.ExecContext(ctx,
		"UPDATE raw_cache SET product_id = ? WHERE external_id = ? AND product_id IS NULL",
		productID, externalID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}

	return nil
}
