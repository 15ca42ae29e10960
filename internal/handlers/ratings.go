package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"photorank/internal/ratelimit"
	"photorank/internal/rating"
	"photorank/internal/repository"
	"photorank/internal/service"
)

const sessionHeader = "x-session-id"

type submitRequest struct {
	ImageID string `json:"imageId"`
	Rating  any    `json:"rating"`
}

type ratingResponse struct {
	ID        string    `json:"id"`
	ImageID   string    `json:"imageId"`
	Rating    float64   `json:"rating"`
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h HandlerSet) NewSession(c *gin.Context) {
	sessionID, err := rating.NewSessionID()
	if err != nil {
		h.log.Error().Err(err).Msg("session token generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": sessionID})
}

func (h HandlerSet) SubmitRating(c *gin.Context) {
	sessionID := c.GetHeader(sessionHeader)
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_session", "message": "x-session-id header is required"})
		return
	}

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed_body"})
		return
	}
	if req.ImageID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_image_id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.Engine.SubmitTimeout)
	defer cancel()

	result, err := h.submits.Submit(ctx, service.SubmitInput{
		ImageID:   req.ImageID,
		SessionID: sessionID,
		RawRating: req.Rating,
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		h.renderSubmitError(c, err)
		return
	}

	resp := gin.H{
		"success": true,
		"rating": ratingResponse{
			ID:        result.Rating.ID,
			ImageID:   result.Rating.ImageID,
			Rating:    result.Rating.Rating,
			SessionID: result.Rating.SessionID,
			CreatedAt: result.Rating.CreatedAt,
		},
	}
	if result.Stats != nil {
		resp["updatedStats"] = result.Stats
	}

	c.JSON(http.StatusOK, resp)
}

// renderSubmitError maps the engine's error taxonomy onto the HTTP contract.
// Duplicate and rate-limit refusals carry specific messages so the UI can
// explain exactly why the submission was refused.
func (h HandlerSet) renderSubmitError(c *gin.Context, err error) {
	var limitErr *ratelimit.Error

	switch {
	case errors.Is(err, rating.ErrInvalidRating):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_rating",
			"message": "rating must be a number between 0.00 and 10.00",
		})
	case errors.Is(err, rating.ErrInvalidSession):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_session",
			"message": "session token is malformed",
		})
	case errors.Is(err, repository.ErrImageNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "image_not_found",
			"message": "image does not exist or is not visible",
		})
	case errors.Is(err, repository.ErrDuplicateRating):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "already_rated",
			"message": "this session has already rated this image",
		})
	case errors.As(err, &limitErr):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":   "rate_limit_exceeded",
			"message": "daily rating limit reached",
			"resetAt": limitErr.ResetAt,
		})
	default:
		h.log.Error().Err(err).Msg("rating submission failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage_error"})
	}
}
