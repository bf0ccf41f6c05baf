package handlers

import (
	"errors"
	"net/http"
	"time"

	"affilink/internal/models"
	"affilink/internal/repository"
	"affilink/internal/services"

	"github.com/gin-gonic/gin"
)

// Redirect serves GET /:code. Everything up to the redirect response is
// synchronous; click recording is handed off and never awaited.
func (h *Handler) Redirect(c *gin.Context) {
	shortCode := c.Param("code")
	ctx := c.Request.Context()

	link, cached := h.cache.Get(ctx, shortCode)
	if !cached {
		var err error
		link, err = h.store.FindByShortCode(ctx, shortCode)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				h.logger.Error("short link lookup failed", "short_code", shortCode, "error", err)
				c.HTML(http.StatusInternalServerError, "500.html", gin.H{})
				return
			}
			link = nil
		} else {
			h.cache.Set(ctx, link)
		}
	}

	switch res := services.ResolveLifecycle(link, c.Query("password"), time.Now()); res.Outcome {
	case services.OutcomeNotFound:
		h.logger.Debug("redirect outcome", "short_code", shortCode, "outcome", res.Outcome.String())
		c.HTML(http.StatusNotFound, "404.html", gin.H{"error": "Link not found"})
		return
	case services.OutcomeInactive:
		h.logger.Debug("redirect outcome", "short_code", shortCode, "outcome", res.Outcome.String())
		c.HTML(http.StatusGone, "410.html", gin.H{"error": "This link has been deactivated"})
		return
	case services.OutcomeExpired:
		h.logger.Debug("redirect outcome", "short_code", shortCode, "outcome", res.Outcome.String())
		c.HTML(http.StatusGone, "410.html", gin.H{"error": "This link has expired"})
		return
	case services.OutcomePasswordRequired:
		h.logger.Debug("redirect outcome", "short_code", shortCode, "outcome", res.Outcome.String())
		c.HTML(http.StatusUnauthorized, "401.html", gin.H{"ShortCode": shortCode})
		return
	}

	// The link can still redirect; only now is the geo lookup worth its
	// round-trip.
	device := services.DetectDevice(c.Request.UserAgent())
	country := h.geo.Country(ctx, c.ClientIP())

	res := services.ResolveTarget(link, country, device)
	if res.Outcome == services.OutcomeGeoBlocked {
		h.logger.Debug("redirect outcome", "short_code", shortCode, "outcome", res.Outcome.String(), "country", country)
		c.HTML(http.StatusForbidden, "403.html", gin.H{"error": "This link is not available in your region"})
		return
	}

	destination := res.Destination
	if enabled, preserve, err := h.store.CloakingPreference(ctx, link.UserID); err == nil && enabled {
		destination = services.CloakURL(destination, preserve)
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		h.logger.Warn("cloaking preference lookup failed", "user_id", link.UserID, "error", err)
	}

	c.Header("Cache-Control", "no-store, no-cache, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("X-Robots-Tag", "noindex, nofollow")
	c.Redirect(http.StatusFound, destination)

	linkID := link.ID
	h.recorder.Record(models.ClickEvent{
		ShortLinkID: &linkID,
		UserID:      link.UserID,
		Timestamp:   time.Now(),
		IP:          c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
		DeviceType:  string(device),
		Country:     country,
		Referrer:    c.Request.Referer(),
	})
}
