package models

import "time"

// Product is the long-lived record for one external catalog item.
type Product struct {
	ID            int64
	ExternalID    string
	Name          string
	Brand         string
	ImageURL      string
	Link          string
	LastPrice     *float64
	Specification Document
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PriceHistory is one recorded price of a product. Rows are only appended.
type PriceHistory struct {
	ID         int64
	ProductID  int64
	Price      float64
	RecordedAt time.Time
}

// RawCache holds the latest raw catalog payload for an external id.
type RawCache struct {
	ID         int64
	ExternalID string
	Payload    Document
	CachedAt   time.Time
	ExpiryAt   time.Time
	ProductID  *int64 // set once the product exists
}

// Expired reports whether the entry is no longer valid at now.
func (c *RawCache) Expired(now time.Time) bool {
	return !now.Before(c.ExpiryAt)
}

// User is the minimal identity the analysis rows are linked to.
type User struct {
	ID    int64
	Email string
}
