package repository

import "errors"

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCacheNotFound    = errors.New("no valid raw cache entry")
	ErrPriceNotFound    = errors.New("no price history")
	ErrAnalysisNotFound = errors.New("analysis not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrDuplicate        = errors.New("duplicate key")
)
