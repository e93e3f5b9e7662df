package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/primoscope/echotune/internal/errors"
	"github.com/primoscope/echotune/internal/models"
)

// SubmitFeedback handles POST /api/v1/feedback/:user_id
func (h *Handlers) SubmitFeedback(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		respondError(c, errors.BadRequest("user_id is required"))
		return
	}

	var event models.FeedbackEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		respondError(c, errors.BadRequest("invalid feedback payload").WithDetails(err.Error()))
		return
	}

	if err := h.engine.SubmitFeedback(c.Request.Context(), userID, &event); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":   "accepted",
		"user_id":  userID,
		"track_id": event.TrackID,
		"action":   event.Action,
	})
}
