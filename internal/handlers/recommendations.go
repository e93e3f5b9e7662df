package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/primoscope/echotune/internal/engine"
	"github.com/primoscope/echotune/internal/errors"
	"github.com/primoscope/echotune/internal/logger"
	"go.uber.org/zap"
)

// GetRecommendations handles GET /api/v1/recommendations/:user_id
// Query params: limit, mood, activity, time_of_day. Tags are passed through
// as-is; the engine maps unknown ones to its neutral target instead of
// rejecting the request.
func (h *Handlers) GetRecommendations(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		respondError(c, errors.BadRequest("user_id is required"))
		return
	}

	opts := engine.Options{
		Limit:     parseInt(c.Query("limit"), 0),
		Mood:      strings.ToLower(c.Query("mood")),
		Activity:  strings.ToLower(c.Query("activity")),
		TimeOfDay: strings.ToLower(c.Query("time_of_day")),
	}

	resp, err := h.engine.GetRecommendations(c.Request.Context(), userID, opts)
	if err != nil {
		logger.Error("Recommendation request failed",
			logger.WithUserID(userID), zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":         userID,
		"recommendations": resp.Recommendations,
		"profile_summary": resp.ProfileSummary,
		"context":         resp.Context,
		"meta": gin.H{
			"count": len(resp.Recommendations),
		},
	})
}
