package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"affilink/internal/repository"
	"affilink/internal/services"

	"github.com/gin-gonic/gin"
)

// QRCode handles GET /:code/qr.
func (h *Handler) QRCode(c *gin.Context) {
	shortCode := c.Param("code")
	ctx := c.Request.Context()

	if _, cached := h.cache.Get(ctx, shortCode); !cached {
		if _, err := h.store.FindByShortCode(ctx, shortCode); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				c.HTML(http.StatusNotFound, "404.html", gin.H{"error": "Link not found"})
				return
			}
			h.logger.Error("short link lookup failed", "short_code", shortCode, "error", err)
			c.HTML(http.StatusInternalServerError, "500.html", gin.H{})
			return
		}
	}

	size, _ := strconv.Atoi(c.DefaultQuery("size", "256"))
	opts := services.QROptions{
		Content: schemeFor(c) + "://" + c.Request.Host + "/" + shortCode,
		Size:    size,
		FgColor: c.Query("fg"),
		BgColor: c.Query("bg"),
	}

	if c.Query("format") == "svg" {
		svg, err := h.qr.SVG(opts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate QR code"})
			return
		}
		c.Data(http.StatusOK, "image/svg+xml", []byte(svg))
		return
	}

	png, err := h.qr.PNG(opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate QR code"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func schemeFor(c *gin.Context) string {
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}
