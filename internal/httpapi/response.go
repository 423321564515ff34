package httpapi

import (
	"errors"
	"net/http"

	"github.com/Houeta/buywise/internal/repository"
	"github.com/Houeta/buywise/internal/services/pipeline"
	"github.com/gin-gonic/gin"
)

const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeNotFound         = "NOT_FOUND"
	CodeProductMismatch  = "PRODUCT_MISMATCH"
	CodeFetchFailed      = "FETCH_FAILED"
	CodeProcessingFailed = "PROCESSING_FAILED"
	CodeInternal         = "INTERNAL"
	CodeUnavailable      = "UNAVAILABLE"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

var errInternal = errors.New("internal server error")

// respondFailure maps domain errors onto status codes. Unknown errors are
// logged by the request logger and hidden from the client.
func respondFailure(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, pipeline.ErrProductMismatch):
		RespondError(c, http.StatusConflict, CodeProductMismatch, err)
	case errors.Is(err, pipeline.ErrFetchFailed):
		RespondError(c, http.StatusBadGateway, CodeFetchFailed, err)
	case errors.Is(err, pipeline.ErrProcessingFailed):
		RespondError(c, http.StatusInternalServerError, CodeProcessingFailed, err)
	case errors.Is(err, pipeline.ErrNoResults),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrCacheNotFound),
		errors.Is(err, repository.ErrPriceNotFound),
		errors.Is(err, repository.ErrAnalysisNotFound):
		RespondError(c, http.StatusNotFound, CodeNotFound, notFoundCause(err))
	default:
		RespondError(c, http.StatusInternalServerError, CodeInternal, errInternal)
	}
}

// notFoundCause drops the operation prefixes from a not-found error.
func notFoundCause(err error) error {
	for _, target := range []error{
		pipeline.ErrNoResults,
		repository.ErrProductNotFound,
		repository.ErrCacheNotFound,
		repository.ErrPriceNotFound,
		repository.ErrAnalysisNotFound,
	} {
		if errors.Is(err, target) {
			return target
		}
	}
	return err
}
