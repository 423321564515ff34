package sqlite_test

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Houeta/buywise/internal/models"
	"github.com/Houeta/buywise/internal/repository"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProduct_Integration_Lifecycle(t *testing.T) {
	repo := newTestDB(t)
	ctx := t.Context()
	price := 19999.0

	product := &models.Product{
		ExternalID:    "B0PROD1",
		Name:          "Test Phone",
		Brand:         "Unknown Brand",
		ImageURL:      "https://img.example.com/1.png",
		Link:          "https://shop.example.com/dp/B0PROD1",
		LastPrice:     &price,
		Specification: models.Document{"rating": 4.2, "tags": []any{"a", "b"}},
	}

	t.Run("find_missing", func(t *testing.T) {
		_, err := repo.FindProductByExternalID(ctx, "B0PROD1")
		require.ErrorIs(t, err, repository.ErrProductNotFound)
	})

	t.Run("insert", func(t *testing.T) {
		require.NoError(t, repo.InsertProduct(ctx, product))
		assert.NotZero(t, product.ID)
		assert.False(t, product.CreatedAt.IsZero())
	})

	t.Run("insert_duplicate", func(t *testing.T) {
		err := repo.InsertProduct(ctx, &models.Product{ExternalID: "B0PROD1"})
		require.ErrorIs(t, err, repository.ErrDuplicate)
		assert.Equal(t, 1, countRows(t, repo, "products", ""))
	})

	t.Run("find", func(t *testing.T) {
		got, err := repo.FindProductByExternalID(ctx, "B0PROD1")
		require.NoError(t, err)
		assert.Equal(t, product.ID, got.ID)
		assert.Equal(t, "Test Phone", got.Name)
		require.NotNil(t, got.LastPrice)
		assert.InDelta(t, 19999.0, *got.LastPrice, 0)
		assert.Equal(t, product.Specification, got.Specification)
	})

	t.Run("find_by_id", func(t *testing.T) {
		got, err := repo.FindProductByID(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, "B0PROD1", got.ExternalID)

		_, err = repo.FindProductByID(ctx, product.ID+100)
		require.ErrorIs(t, err, repository.ErrProductNotFound)
	})

	t.Run("update_in_place", func(t *testing.T) {
		product.Name = "Test Phone 2"
		product.LastPrice = nil
		require.NoError(t, repo.UpdateProduct(ctx, product))

		got, err := repo.FindProductByExternalID(ctx, "B0PROD1")
		require.NoError(t, err)
		assert.Equal(t, product.ID, got.ID)
		assert.Equal(t, "Test Phone 2", got.Name)
		assert.Nil(t, got.LastPrice)
		assert.Equal(t, 1, countRows(t, repo, "products", ""))
	})

	t.Run("update_missing", func(t *testing.T) {
		err := repo.UpdateProduct(ctx, &models.Product{ExternalID: "B0NOPE"})
		require.ErrorIs(t, err, repository.ErrProductNotFound)
	})
}

func TestProduct_Failures(t *testing.T) {
	ctx := t.Context()

	t.Run("find_query_error", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		mock.ExpectQuery("SELECT id, external_id, name").WillReturnError(assert.AnError)

		_, err := repo.FindProductByExternalID(ctx, "B0X")

		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, "repository.sqlite.FindProductByExternalID")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert_unique_violation", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		mock.ExpectExec("INSERT INTO products").
			WillReturnError(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique})

		err := repo.InsertProduct(ctx, &models.Product{ExternalID: "B0X"})

		require.ErrorIs(t, err, repository.ErrDuplicate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert_error", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		mock.ExpectExec("INSERT INTO products").WillReturnError(assert.AnError)

		err := repo.InsertProduct(ctx, &models.Product{ExternalID: "B0X"})

		require.ErrorIs(t, err, assert.AnError)
		require.NotErrorIs(t, err, repository.ErrDuplicate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("update_error", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		mock.ExpectExec("UPDATE products").WillReturnError(assert.AnError)

		err := repo.UpdateProduct(ctx, &models.Product{ExternalID: "B0X"})

		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("update_rows_affected_error", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		mock.ExpectExec("UPDATE products").WillReturnResult(sqlmock.NewErrorResult(assert.AnError))

		err := repo.UpdateProduct(ctx, &models.Product{ExternalID: "B0X"})

		require.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "failed to read affected rows")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
