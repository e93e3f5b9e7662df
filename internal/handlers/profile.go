package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/primoscope/echotune/internal/database"
	"github.com/primoscope/echotune/internal/errors"
)

// GetUserProfile handles GET /api/v1/profile/:user_id
// Returns the full taste profile, rebuilding it if the cache expired.
func (h *Handlers) GetUserProfile(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		respondError(c, errors.BadRequest("user_id is required"))
		return
	}

	profile, err := h.engine.GetUserProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profile":    profile,
		"cold_start": profile.IsColdStart(),
	})
}

// GetSourceCTR handles GET /api/v1/analytics/ctr
// Per-source click-through rates over the requested window (default 7 days).
func (h *Handlers) GetSourceCTR(c *gin.Context) {
	days := parseInt(c.Query("days"), 7)
	if days < 1 || days > 90 {
		respondError(c, errors.ValidationError("days", "days must be between 1 and 90"))
		return
	}

	since := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
	stats, err := h.history.GetSourceCTR(c.Request.Context(), since)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"window_days": days,
		"sources":     stats,
	})
}

// Health handles GET /health
func (h *Handlers) Health(c *gin.Context) {
	if err := database.Health(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "echotune-engine",
	})
}
