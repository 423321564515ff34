package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Houeta/buywise/internal/repository"
	"github.com/Houeta/buywise/internal/services/pipeline"
	"github.com/gin-gonic/gin"
)

var (
	errQueryRequired     = errors.New("query is required")
	errProductIDRequired = errors.New("productId is required")
)

type searchRequest struct {
	Query string `json:"query"`
}

type analyzeRequest struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
}

func (h *Handler) registerProducts(rg *gin.RouterGroup) {
	rg.GET("/search", h.searchProducts)                // GET /api/products/search?query=
	rg.POST("/search-and-process", h.searchAndProcess) // POST /api/products/search-and-process
	rg.POST("/analyze", h.analyzeProduct)              // POST /api/products/analyze
	rg.POST("/analyze/:productId", h.previewAnalysis)  // POST /api/products/analyze/:productId
	rg.GET("/exists/:productId", h.productExists)      // GET /api/products/exists/:productId
	rg.GET("/:productId", h.getProduct)                // GET /api/products/:productId
}

func (h *Handler) searchProducts(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		RespondError(c, http.StatusBadRequest, CodeBadRequest, errQueryRequired)
		return
	}

	candidates, err := h.pipeline.Search(c.Request.Context(), query)
	if err != nil {
		respondFailure(c, err)
		return
	}
	if candidates == nil {
		candidates = []pipeline.Candidate{}
	}

	RespondOK(c, candidates)
}

func (h *Handler) searchAndProcess(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, CodeBadRequest, err)
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		RespondError(c, http.StatusBadRequest, CodeBadRequest, errQueryRequired)
		return
	}

	product, err := h.pipeline.SearchAndProcess(c.Request.Context(), query)
	if err != nil {
		respondFailure(c, err)
		return
	}

	RespondOK(c, toProductDTO(product))
}

func (h *Handler) analyzeProduct(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, CodeBadRequest, err)
		return
	}
	productID := strings.TrimSpace(req.ProductID)
	if productID == "" {
		RespondError(c, http.StatusBadRequest, CodeBadRequest, errProductIDRequired)
		return
	}

	resp, err := h.pipeline.Analyze(c.Request.Context(), pipeline.AnalyzeRequest{
		ProductID:   productID,
		ProductName: req.ProductName,
		UserID:      h.userID(c),
	})
	if err != nil {
		respondFailure(c, err)
		return
	}

	RespondOK(c, resp)
}

// previewAnalysis scores the cached payload without storing anything.
func (h *Handler) previewAnalysis(c *gin.Context) {
	result, err := h.pipeline.Preview(c.Request.Context(), c.Param("productId"))
	if err != nil {
		respondFailure(c, err)
		return
	}

	RespondOK(c, result)
}

func (h *Handler) productExists(c *gin.Context) {
	productID := c.Param("productId")

	_, err := h.store.FindProductByExternalID(c.Request.Context(), productID)
	if err != nil && !errors.Is(err, repository.ErrProductNotFound) {
		respondFailure(c, err)
		return
	}

	RespondOK(c, gin.H{"productId": productID, "exists": err == nil})
}

func (h *Handler) getProduct(c *gin.Context) {
	product, err := h.store.FindProductByExternalID(c.Request.Context(), c.Param("productId"))
	if err != nil {
		respondFailure(c, err)
		return
	}

	RespondOK(c, toProductDTO(product))
}
