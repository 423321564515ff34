package sqlite

import (
	"context"
	"time"

	"github.com/Houeta/buywise/internal/models"
)

// CacheRepository keeps at most one raw catalog payload per external id.
type CacheRepository interface {
	GetCache(ctx context.Context, externalID string) (*models.RawCache, error)
	PutCache(ctx context.Context, externalID string, payload models.Document, ttl time.Duration) error
	CacheExists(ctx context.Context, externalID string) (bool, error)
	PurgeExpiredCache(ctx context.Context) (int64, error)
	LinkCacheProduct(ctx context.Context, externalID string, productID int64) error
}

// ProductRepository stores products keyed by external id.
type ProductRepository interface {
	FindProductByExternalID(ctx context.Context, externalID string) (*models.Product, error)
	FindProductByID(ctx context.Context, id int64) (*models.Product, error)
	InsertProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
}

// PriceRepository is the append-only price log.
type PriceRepository interface {
	LatestPrice(ctx context.Context, productID int64) (*models.PriceHistory, error)
	AppendPrice(ctx context.Context, productID int64, price float64) (*models.PriceHistory, error)
	PriceHistory(ctx context.Context, productID int64) ([]models.PriceHistory, error)
	PriceRange(ctx context.Context, productID int64) (low, high float64, err error)
}

// AnalysisRepository is the append-only analysis log.
type AnalysisRepository interface {
	InsertAnalysis(ctx context.Context, result *models.AnalysisResult) error
	FindAnalysisByID(ctx context.Context, id int64) (*models.AnalysisResult, error)
	LatestAnalysis(ctx context.Context, productID int64) (*models.AnalysisResult, error)
	AnalysisHistory(ctx context.Context, productID int64, userID *int64) ([]models.AnalysisResult, error)
}

// UserRepository resolves identities provisioned by the auth system.
type UserRepository interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// SubscriptionRepository stores price-alert subscribers.
type SubscriptionRepository interface {
	SubscribeChat(ctx context.Context, chatID int64) (bool, error)
	UnsubscribeChat(ctx context.Context, chatID int64) (bool, error)
	GetSubscribedChats(ctx context.Context) ([]int64, error)
}

// Store is everything the upsert pipeline needs, including transactions.
type Store interface {
	CacheRepository
	ProductRepository
	PriceRepository
	AnalysisRepository
	WithTx(ctx context.Context, fn func(Store) error) error
}

var (
	_ Store                  = (*Repository)(nil)
	_ UserRepository         = (*Repository)(nil)
	_ SubscriptionRepository = (*Repository)(nil)
)
