package httpapi

import (
	"github.com/gin-gonic/gin"
)

func (h *Handler) registerPrices(rg *gin.RouterGroup) {
	rg.GET("/:productId/history", h.priceHistory)
	rg.GET("/:productId/low", h.priceLow)
	rg.GET("/:productId/high", h.priceHigh)
	rg.GET("/:productId/latest", h.priceLatest)
}

func (h *Handler) priceHistory(c *gin.Context) {
	ctx := c.Request.Context()

	product, err := h.store.FindProductByExternalID(ctx, c.Param("productId"))
	if err != nil {
		respondFailure(c, err)
		return
	}

	history, err := h.store.PriceHistory(ctx, product.ID)
	if err != nil {
		respondFailure(c, err)
		return
	}

	RespondOK(c, toPriceDTOs(history))
}

func (h *Handler) priceLow(c *gin.Context) {
	h.priceBound(c, func(low, _ float64) float64 { return low })
}

func (h *Handler) priceHigh(c *gin.Context) {
	h.priceBound(c, func(_, high float64) float64 { return high })
}

func (h *Handler) priceBound(c *gin.Context, pick func(low, high float64) float64) {
	ctx := c.Request.Context()
	productID := c.Param("productId")

	product, err := h.store.FindProductByExternalID(ctx, productID)
	if err != nil {
		respondFailure(c, err)
		return
	}

	low, high, err := h.store.PriceRange(ctx, product.ID)
	if err != nil {
		respondFailure(c, err)
		return
	}

	RespondOK(c, gin.H{"productId": productID, "price": pick(low, high)})
}

func (h *Handler) priceLatest(c *gin.Context) {
	ctx := c.Request.Context()

	product, err := h.store.FindProductByExternalID(ctx, c.Param("productId"))
	if err != nil {
		respondFailure(c, err)
		return
	}

	latest, err := h.store.LatestPrice(ctx, product.ID)
	if err != nil {
		respondFailure(c, err)
		return
	}

	RespondOK(c, PriceDTO{Price: latest.Price, RecordedAt: latest.RecordedAt})
}
