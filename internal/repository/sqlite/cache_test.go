package sqlite_test

import (
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Houeta/buywise/internal/models"
	"github.com/Houeta/buywise/internal/repository"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Integration Tests (using a real temporary database)
// =============================================================================

func TestCache_Integration_PutAndGet(t *testing.T) {
	repo := newTestDB(t)
	ctx := t.Context()

	t.Run("miss_on_empty_db", func(t *testing.T) {
		_, err := repo.GetCache(ctx, "B0MISSING")
		require.ErrorIs(t, err, repository.ErrCacheNotFound)

		exists, err := repo.CacheExists(ctx, "B0MISSING")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("hit_after_put", func(t *testing.T) {
		before := time.Now().UTC()
		payload := models.Document{"asin": "B0HIT", "title": "Phone", "price": 199.0}

		require.NoError(t, repo.PutCache(ctx, "B0HIT", payload, 12*time.Hour))

		entry, err := repo.GetCache(ctx, "B0HIT")
		require.NoError(t, err)
		assert.Equal(t, "B0HIT", entry.ExternalID)
		assert.Equal(t, payload, entry.Payload)
		assert.Nil(t, entry.ProductID)
		assert.WithinDuration(t, before.Add(12*time.Hour), entry.ExpiryAt, time.Minute)

		exists, err := repo.CacheExists(ctx, "B0HIT")
		require.NoError(t, err)
		assert.True(t, exists)
	})
}

func TestCache_Integration_Idempotence(t *testing.T) {
	repo := newTestDB(t)
	ctx := t.Context()

	for i := range 5 {
		payload := models.Document{"asin": "B0SAME", "version": float64(i)}
		require.NoError(t, repo.PutCache(ctx, "B0SAME", payload, time.Hour))
	}

	assert.Equal(t, 1, countRows(t, repo, "raw_cache", "external_id = ?", "B0SAME"))

	entry, err := repo.GetCache(ctx, "B0SAME")
	require.NoError(t, err)
	assert.InDelta(t, 4.0, entry.Payload["version"], 0)
}

func TestCache_Integration_ConcurrentPut(t *testing.T) {
	repo := newTestDB(t)
	ctx := t.Context()

	const writers = 8

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.PutCache(ctx, "B0RACE", models.Document{"writer": float64(i)}, time.Hour)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, countRows(t, repo, "raw_cache", "external_id = ?", "B0RACE"))
}

func TestCache_Integration_Expiry(t *testing.T) {
	repo := newTestDB(t)
	ctx := t.Context()

	require.NoError(t, repo.PutCache(ctx, "B0OLD", models.Document{"asin": "B0OLD"}, -time.Minute))
	assert.Equal(t, 1, countRows(t, repo, "raw_cache", "external_id = ?", "B0OLD"))

	_, err := repo.GetCache(ctx, "B0OLD")
	require.ErrorIs(t, err, repository.ErrCacheNotFound)

	// The lookup removed the expired row.
	assert.Equal(t, 0, countRows(t, repo, "raw_cache", "external_id = ?", "B0OLD"))

	exists, err := repo.CacheExists(ctx, "B0OLD")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCache_Integration_PurgeExpired(t *testing.T) {
	repo := newTestDB(t)
	ctx := t.Context()

	require.NoError(t, repo.PutCache(ctx, "B0EXP1", models.Document{}, -time.Hour))
	require.NoError(t, repo.PutCache(ctx, "B0EXP2", models.Document{}, -time.Second))
	require.NoError(t, repo.PutCache(ctx, "B0FRESH", models.Document{}, time.Hour))

	purged, err := repo.PurgeExpiredCache(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged)
	assert.Equal(t, 1, countRows(t, repo, "raw_cache", ""))

	_, err = repo.GetCache(ctx, "B0FRESH")
	require.NoError(t, err)
}

func TestCache_Integration_ProductLink(t *testing.T) {
	repo := newTestDB(t)
	ctx := t.Context()

	t.Run("link_is_backfilled_once", func(t *testing.T) {
		require.NoError(t, repo.PutCache(ctx, "B0LINK", models.Document{}, time.Hour))

		product := &models.Product{ExternalID: "B0LINK"}
		require.NoError(t, repo.InsertProduct(ctx, product))
		require.NoError(t, repo.LinkCacheProduct(ctx, "B0LINK", product.ID))

		entry, err := repo.GetCache(ctx, "B0LINK")
		require.NoError(t, err)
		require.NotNil(t, entry.ProductID)
		assert.Equal(t, product.ID, *entry.ProductID)

		// An already set reference is left alone.
		other := &models.Product{ExternalID: "B0OTHER"}
		require.NoError(t, repo.InsertProduct(ctx, other))
		require.NoError(t, repo.LinkCacheProduct(ctx, "B0LINK", other.ID))

		entry, err = repo.GetCache(ctx, "B0LINK")
		require.NoError(t, err)
		assert.Equal(t, product.ID, *entry.ProductID)
	})

	t.Run("put_links_existing_product", func(t *testing.T) {
		product := &models.Product{ExternalID: "B0EXISTING"}
		require.NoError(t, repo.InsertProduct(ctx, product))

		require.NoError(t, repo.PutCache(ctx, "B0EXISTING", models.Document{}, time.Hour))

		entry, err := repo.GetCache(ctx, "B0EXISTING")
		require.NoError(t, err)
		require.NotNil(t, entry.ProductID)
		assert.Equal(t, product.ID, *entry.ProductID)
	})
}

// =============================================================================
// Unit Tests (using sqlmock for failure scenarios)
// =============================================================================

func TestPutCache_Failures(t *testing.T) {
	ctx := t.Context()
	payload := models.Document{"asin": "B0MOCK"}
	uniqueErr := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}

	t.Run("insert_race_recovered_by_update", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		mock.ExpectExec("UPDATE raw_cache").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO raw_cache").WillReturnError(uniqueErr)
		mock.ExpectExec("UPDATE raw_cache").WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.PutCache(ctx, "B0MOCK", payload, time.Hour)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("retry_finds_no_row", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		mock.ExpectExec("UPDATE raw_cache").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO raw_cache").WillReturnError(uniqueErr)
		mock.ExpectExec("UPDATE raw_cache").WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.PutCache(ctx, "B0MOCK", payload, time.Hour)

		require.ErrorIs(t, err, repository.ErrDuplicate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("retry_fails", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		mock.ExpectExec("UPDATE raw_cache").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO raw_cache").WillReturnError(uniqueErr)
		mock.ExpectExec("UPDATE raw_cache").WillReturnError(assert.AnError)

		err := repo.PutCache(ctx, "B0MOCK", payload, time.Hour)

		require.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "failed to retry cache update")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert_fails_otherwise", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		mock.ExpectExec("UPDATE raw_cache").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO raw_cache").WillReturnError(assert.AnError)

		err := repo.PutCache(ctx, "B0MOCK", payload, time.Hour)

		require.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "failed to insert cache entry")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("update_fails", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		mock.ExpectExec("UPDATE raw_cache").WillReturnError(assert.AnError)

		err := repo.PutCache(ctx, "B0MOCK", payload, time.Hour)

		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetCache_Failures(t *testing.T) {
	ctx := t.Context()
	columns := []string{"id", "external_id", "payload", "cached_at", "expiry_at", "product_id"}

	t.Run("query_error", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		mock.ExpectQuery("SELECT id, external_id, payload").WillReturnError(assert.AnError)

		_, err := repo.GetCache(ctx, "B0MOCK")

		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, "repository.sqlite.GetCache")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("corrupt_payload", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		rows := sqlmock.NewRows(columns).
			AddRow(1, "B0MOCK", "not json", time.Now(), time.Now().Add(time.Hour), nil)
		mock.ExpectQuery("SELECT id, external_id, payload").WillReturnRows(rows)

		_, err := repo.GetCache(ctx, "B0MOCK")

		require.Error(t, err)
		require.NotErrorIs(t, err, repository.ErrCacheNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete_of_expired_fails", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		rows := sqlmock.NewRows(columns).
			AddRow(1, "B0MOCK", `{"asin":"B0MOCK"}`, time.Now().Add(-2*time.Hour), time.Now().Add(-time.Hour), nil)
		mock.ExpectQuery("SELECT id, external_id, payload").WillReturnRows(rows)
		mock.ExpectExec("DELETE FROM raw_cache WHERE id").WillReturnError(assert.AnError)

		_, err := repo.GetCache(ctx, "B0MOCK")

		require.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "failed to delete expired entry")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPurgeExpiredCache_Failure(t *testing.T) {
	repo, mock := newMockedRepo(t)
	mock.ExpectExec("DELETE FROM raw_cache WHERE expiry_at").WillReturnError(assert.AnError)

	_, err := repo.PurgeExpiredCache(t.Context())

	require.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}
