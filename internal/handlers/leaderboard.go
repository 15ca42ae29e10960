package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"photorank/internal/ranking"
	"photorank/internal/service"
)

func (h HandlerSet) Leaderboard(c *gin.Context) {
	params := service.ListParams{
		Tier:      ranking.Tier(strings.ToLower(c.Query("tier"))),
		SortBy:    service.SortBy(c.DefaultQuery("sortBy", "score")),
		Ascending: strings.EqualFold(c.Query("sortOrder"), "asc"),
		Limit:     intQuery(c, "limit", 50),
		Offset:    intQuery(c, "offset", 0),
	}

	result, err := h.leaderboard.List(c.Request.Context(), params)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSort) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_query"})
			return
		}
		h.log.Error().Err(err).Msg("leaderboard read failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage_error"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h HandlerSet) LeaderboardAround(c *gin.Context) {
	imageID := c.Param("imageId")
	radius := intQuery(c, "radius", 5)

	result, err := h.leaderboard.Around(c.Request.Context(), imageID, radius)
	if err != nil {
		if errors.Is(err, service.ErrImageNotRanked) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "image_not_ranked",
				"message": "image is not in the ranked set yet",
			})
			return
		}
		h.log.Error().Err(err).Str("image_id", imageID).Msg("neighborhood read failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage_error"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
