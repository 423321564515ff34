// Package httpapi exposes the pipeline and the stored records over HTTP.
package httpapi

import (
	"context"
	"log/slog"
	"time"

	"github.com/Houeta/buywise/internal/models"
	"github.com/Houeta/buywise/internal/repository/sqlite"
	"github.com/Houeta/buywise/internal/services/pipeline"
	"github.com/gin-gonic/gin"
)

// Store is the read side the handlers need.
type Store interface {
	sqlite.CacheRepository
	sqlite.ProductRepository
	sqlite.PriceRepository
	sqlite.AnalysisRepository
	Ping(ctx context.Context) error
}

// Resolver finds the user behind a request, nil meaning anonymous.
type Resolver interface {
	Resolve(c *gin.Context) *models.User
}

type Handler struct {
	log       *slog.Logger
	pipeline  pipeline.Interface
	store     Store
	users     Resolver
	directTTL time.Duration
}

// NewHandler creates a Handler. directTTL applies to payloads written
// through the cache endpoint.
func NewHandler(
	log *slog.Logger,
	pipe pipeline.Interface,
	store Store,
	users Resolver,
	directTTL time.Duration,
) *Handler {
	return &Handler{
		log:       log.With("component", "httpapi"),
		pipeline:  pipe,
		store:     store,
		users:     users,
		directTTL: directTTL,
	}
}

func (h *Handler) userID(c *gin.Context) *int64 {
	if user := h.users.Resolve(c); user != nil {
		return &user.ID
	}
	return nil
}
