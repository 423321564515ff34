package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

var errStorageUnavailable = errors.New("storage is unavailable")

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports whether the database answers.
func (h *Handler) Ready(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		_ = c.Error(err)
		RespondError(c, http.StatusServiceUnavailable, CodeUnavailable, errStorageUnavailable)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
