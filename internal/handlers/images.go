package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"photorank/internal/ranking"
	"photorank/internal/repository"
	"photorank/internal/service"
)

type registerImageRequest struct {
	OwnerUsername string `json:"ownerUsername"`
	ObjectKey     string `json:"objectKey"`
	LegacyTier    string `json:"legacyTier,omitempty"`
}

type imageResponse struct {
	ID            string       `json:"id"`
	OwnerUsername string       `json:"ownerUsername"`
	StorageURL    string       `json:"storageUrl"`
	MedianScore   *float64     `json:"median_score"`
	RatingCount   int          `json:"rating_count"`
	Tier          ranking.Tier `json:"tier,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
}

func (h HandlerSet) GetImage(c *gin.Context) {
	image, err := h.imageSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image_not_found"})
			return
		}
		h.log.Error().Err(err).Msg("image read failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage_error"})
		return
	}

	tier, err := h.leaderboard.TierOf(c.Request.Context(), image)
	if err != nil {
		h.log.Error().Err(err).Str("image_id", image.ID).Msg("tier classification failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"image": imageResponse{
			ID:            image.ID,
			OwnerUsername: image.OwnerUsername,
			StorageURL:    image.StorageURL,
			MedianScore:   image.MedianScore,
			RatingCount:   image.RatingCount,
			Tier:          tier,
			CreatedAt:     image.CreatedAt,
		},
	})
}

func (h HandlerSet) RegisterImage(c *gin.Context) {
	var req registerImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed_body"})
		return
	}

	result, err := h.imageSvc.Register(c.Request.Context(), service.RegisterInput{
		OwnerUsername: req.OwnerUsername,
		ObjectKey:     req.ObjectKey,
		LegacyTierTag: req.LegacyTier,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRegistration):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_registration", "message": err.Error()})
		case errors.Is(err, service.ErrUnknownLegacyTier):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_legacy_tier", "message": err.Error()})
		default:
			h.log.Error().Err(err).Msg("image registration failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage_error"})
		}
		return
	}

	resp := gin.H{
		"image": imageResponse{
			ID:            result.Image.ID,
			OwnerUsername: result.Image.OwnerUsername,
			StorageURL:    result.Image.StorageURL,
			MedianScore:   result.Image.MedianScore,
			RatingCount:   result.Image.RatingCount,
			CreatedAt:     result.Image.CreatedAt,
		},
	}
	if result.LegacyTier != "" {
		resp["legacyTier"] = result.LegacyTier
	}

	c.JSON(http.StatusCreated, resp)
}
