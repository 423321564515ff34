package httpapi

import (
	"log/slog"

	"github.com/Houeta/buywise/internal/identity"
	"github.com/gin-gonic/gin"
)

// NewRouter wires the middleware chain and every route group.
func NewRouter(log *slog.Logger, h *Handler, tokens identity.TokenService) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(log), identity.Authenticate(tokens))

	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)

	api := r.Group("/api")
	{
		h.registerProducts(api.Group("/products"))
		h.registerCache(api.Group("/cache"))
		h.registerPrices(api.Group("/prices"))
		h.registerAnalysis(api.Group("/analysis"))
	}

	return r
}
