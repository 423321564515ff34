package httpapi

import (
	"net/http"

	"github.com/Houeta/buywise/internal/models"
	"github.com/gin-gonic/gin"
)

func (h *Handler) registerCache(rg *gin.RouterGroup) {
	rg.DELETE("/expired", h.purgeExpiredCache)
	rg.GET("/:productId", h.getCache)
	rg.GET("/:productId/exists", h.cacheExists)
	rg.PUT("/:productId", h.putCache)
}

func (h *Handler) getCache(c *gin.Context) {
	entry, err := h.store.GetCache(c.Request.Context(), c.Param("productId"))
	if err != nil {
		respondFailure(c, err)
		return
	}

	RespondOK(c, toCacheDTO(entry))
}

func (h *Handler) cacheExists(c *gin.Context) {
	productID := c.Param("productId")

	exists, err := h.store.CacheExists(c.Request.Context(), productID)
	if err != nil {
		respondFailure(c, err)
		return
	}

	RespondOK(c, gin.H{"productId": productID, "validCacheExists": exists})
}

// putCache stores the request body as the payload of productId.
func (h *Handler) putCache(c *gin.Context) {
	ctx := c.Request.Context()
	productID := c.Param("productId")

	body, err := c.GetRawData()
	if err != nil {
		RespondError(c, http.StatusBadRequest, CodeBadRequest, err)
		return
	}
	payload, err := models.ParseDocument(body)
	if err != nil {
		RespondError(c, http.StatusBadRequest, CodeBadRequest, err)
		return
	}

	if err = h.store.PutCache(ctx, productID, payload, h.directTTL); err != nil {
		respondFailure(c, err)
		return
	}

	entry, err := h.store.GetCache(ctx, productID)
	if err != nil {
		respondFailure(c, err)
		return
	}

	RespondOK(c, toCacheDTO(entry))
}

func (h *Handler) purgeExpiredCache(c *gin.Context) {
	purged, err := h.store.PurgeExpiredCache(c.Request.Context())
	if err != nil {
		respondFailure(c, err)
		return
	}

	h.log.InfoContext(c.Request.Context(), "Expired cache entries purged", "count", purged)
	RespondOK(c, gin.H{"status": "Expired cache entries removed", "purged": purged})
}
