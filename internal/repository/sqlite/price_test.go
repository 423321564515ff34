package sqlite_test

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Houeta/buywise/internal/models"
	"github.com/Houeta/buywise/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrice_Integration(t *testing.T) {
	repo := newTestDB(t)
	ctx := t.Context()

	product := &models.Product{ExternalID: "B0PRICE"}
	require.NoError(t, repo.InsertProduct(ctx, product))

	t.Run("empty_history", func(t *testing.T) {
		_, err := repo.LatestPrice(ctx, product.ID)
		require.ErrorIs(t, err, repository.ErrPriceNotFound)

		_, _, err = repo.PriceRange(ctx, product.ID)
		require.ErrorIs(t, err, repository.ErrPriceNotFound)

		history, err := repo.PriceHistory(ctx, product.ID)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("append_and_read", func(t *testing.T) {
		for _, p := range []float64{300, 250, 400} {
			_, err := repo.AppendPrice(ctx, product.ID, p)
			require.NoError(t, err)
		}

		latest, err := repo.LatestPrice(ctx, product.ID)
		require.NoError(t, err)
		assert.InDelta(t, 400.0, latest.Price, 0)

		history, err := repo.PriceHistory(ctx, product.ID)
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.InDelta(t, 300.0, history[0].Price, 0)
		assert.InDelta(t, 250.0, history[1].Price, 0)
		assert.InDelta(t, 400.0, history[2].Price, 0)

		low, high, err := repo.PriceRange(ctx, product.ID)
		require.NoError(t, err)
		assert.InDelta(t, 250.0, low, 0)
		assert.InDelta(t, 400.0, high, 0)
	})

	t.Run("foreign_key_enforced", func(t *testing.T) {
		_, err := repo.AppendPrice(ctx, 987654, 1)
		require.Error(t, err)
	})
}

func TestPrice_Failures(t *testing.T) {
	ctx := t.Context()

	t.Run("history_scan_error", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		rows := sqlmock.NewRows([]string{"id", "product_id", "price", "recorded_at"}).
			AddRow(1, 1, "not-a-price", "not-a-time")
		mock.ExpectQuery("SELECT id, product_id, price, recorded_at FROM price_history").WillReturnRows(rows)

		_, err := repo.PriceHistory(ctx, 1)

		require.ErrorContains(t, err, "failed to scan price")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("append_error", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		mock.ExpectExec("INSERT INTO price_history").WillReturnError(assert.AnError)

		_, err := repo.AppendPrice(ctx, 1, 10)

		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("range_error", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		mock.ExpectQuery("SELECT MIN").WillReturnError(assert.AnError)

		_, _, err := repo.PriceRange(ctx, 1)

		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
