package models

// PriceChange describes a price history append over a previously known price.
type PriceChange struct {
	ExternalID string
	Name       string
	Link       string
	Old        float64
	New        float64
}

// Dropped reports whether the new price is lower than the old one.
func (c PriceChange) Dropped() bool {
	return c.New < c.Old
}
