package handlers

import (
	"strconv"

	stderrors "errors"

	"github.com/gin-gonic/gin"
	"github.com/primoscope/echotune/internal/engine"
	"github.com/primoscope/echotune/internal/errors"
	"github.com/primoscope/echotune/internal/history"
	"github.com/primoscope/echotune/internal/logger"
	"go.uber.org/zap"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	engine  *engine.Engine
	history *history.GormStore
}

// NewHandlers creates a new handlers instance
func NewHandlers(eng *engine.Engine, historyStore *history.GormStore) *Handlers {
	return &Handlers{
		engine:  eng,
		history: historyStore,
	}
}

// respondError maps an error to its JSON shape and status code.
// Typed APIErrors carry their own status; anything else is a 500.
func respondError(c *gin.Context, err error) {
	var apiErr *errors.APIError
	if stderrors.As(err, &apiErr) {
		c.JSON(apiErr.Status, gin.H{"error": apiErr})
		return
	}
	logger.Error("Unhandled error", zap.Error(err),
		zap.String("path", c.Request.URL.Path))
	internal := errors.InternalError("internal server error")
	c.JSON(internal.Status, gin.H{"error": internal})
}

// Helper functions for parsing query params
func parseInt(s string, defaultValue int) int {
	if val, err := strconv.Atoi(s); err == nil {
		return val
	}
	return defaultValue
}
