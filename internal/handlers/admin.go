package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"photorank/internal/repository"
	"photorank/internal/security"
)

type adminLoginRequest struct {
	Key string `json:"key"`
}

func (h HandlerSet) AdminLogin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed_body"})
		return
	}

	if h.cfg.Security.AdminKeyHash == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin_disabled"})
		return
	}

	ok, err := security.VerifyKey(req.Key, []byte(h.cfg.Security.AdminKeyHash))
	if err != nil {
		h.log.Error().Err(err).Msg("admin key verification failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_key"})
		return
	}

	token, err := security.GenerateAdminToken(h.cfg.Security.JWTSecret, h.cfg.Security.JWTTTL)
	if err != nil {
		h.log.Error().Err(err).Msg("admin token generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h HandlerSet) PurgeRatings(c *gin.Context) {
	imageID := c.Param("id")

	removed, err := h.maintenance.PurgeRatings(c.Request.Context(), imageID)
	if err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image_not_found"})
			return
		}
		h.log.Error().Err(err).Str("image_id", imageID).Msg("rating purge failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h HandlerSet) DedupeSessions(c *gin.Context) {
	touched, err := h.maintenance.DedupeSessions(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("duplicate sweep failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"imagesTouched": touched})
}

func (h HandlerSet) ReconcileStats(c *gin.Context) {
	fixed, err := h.maintenance.ReconcileStats(c.Request.Context(), intQuery(c, "limit", 500))
	if err != nil {
		h.log.Error().Err(err).Msg("stats reconciliation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"imagesFixed": fixed})
}
