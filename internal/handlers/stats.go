package handlers

import (
	"net/http"

	"affilink/internal/models"

	"github.com/gin-gonic/gin"
)

type countStat struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// LinkStats handles GET /api/v1/links/:code/stats: counters, recent clicks
// and the usual breakdowns.
func (h *Handler) LinkStats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	shortCode := c.Param("code")
	var link models.ShortLink
	if err := h.db.Where("short_code = ? AND user_id = ?", shortCode, userID).First(&link).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "link not found"})
		return
	}

	var recentClicks []models.ClickEvent
	h.db.Where("short_link_id = ?", link.ID).Order("timestamp desc").Limit(50).Find(&recentClicks)

	c.JSON(http.StatusOK, gin.H{
		"short_code":      link.ShortCode,
		"clicks":          link.Clicks,
		"last_clicked_at": link.LastClickedAt,
		"recent_clicks":   recentClicks,
		"countries":       h.clickBreakdown(link.ID, "country"),
		"devices":         h.clickBreakdown(link.ID, "device_type"),
		"browsers":        h.clickBreakdown(link.ID, "browser"),
		"os":              h.clickBreakdown(link.ID, "os"),
	})
}

func (h *Handler) clickBreakdown(linkID uint, column string) []countStat {
	var stats []countStat
	h.db.Model(&models.ClickEvent{}).
		Where("short_link_id = ?", linkID).
		Select(column + " as label, count(*) as count").
		Group(column).
		Order("count desc").
		Scan(&stats)
	return stats
}
