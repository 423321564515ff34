package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

var errInvalidAnalysisID = errors.New("analysis id must be a positive integer")

func (h *Handler) registerAnalysis(rg *gin.RouterGroup) {
	rg.GET("/latest/:productId", h.latestAnalysis)
	rg.GET("/history/:productId", h.analysisHistory) // ?mine=true limits to the caller
	rg.GET("/:id", h.getAnalysis)
}

func (h *Handler) getAnalysis(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, http.StatusBadRequest, CodeBadRequest, errInvalidAnalysisID)
		return
	}

	result, err := h.store.FindAnalysisByID(ctx, id)
	if err != nil {
		respondFailure(c, err)
		return
	}

	product, err := h.store.FindProductByID(ctx, result.ProductID)
	if err != nil {
		respondFailure(c, err)
		return
	}

	RespondOK(c, toDetailedDTO(result, product))
}

func (h *Handler) latestAnalysis(c *gin.Context) {
	ctx := c.Request.Context()

	product, err := h.store.FindProductByExternalID(ctx, c.Param("productId"))
	if err != nil {
		respondFailure(c, err)
		return
	}

	result, err := h.store.LatestAnalysis(ctx, product.ID)
	if err != nil {
		respondFailure(c, err)
		return
	}

	RespondOK(c, toAnalysisDTO(result, product.ExternalID))
}

// analysisHistory lists analyses newest first. With mine=true an anonymous
// caller gets an empty list.
func (h *Handler) analysisHistory(c *gin.Context) {
	ctx := c.Request.Context()

	product, err := h.store.FindProductByExternalID(ctx, c.Param("productId"))
	if err != nil {
		respondFailure(c, err)
		return
	}

	out := []AnalysisDTO{}

	mine, _ := strconv.ParseBool(c.Query("mine"))
	var userID *int64
	if mine {
		if userID = h.userID(c); userID == nil {
			RespondOK(c, out)
			return
		}
	}

	history, err := h.store.AnalysisHistory(ctx, product.ID, userID)
	if err != nil {
		respondFailure(c, err)
		return
	}

	for i := range history {
		out = append(out, toAnalysisDTO(&history[i], product.ExternalID))
	}

	RespondOK(c, out)
}
