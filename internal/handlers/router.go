package handlers

import (
	"net/http"

	"affilink/internal/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) SetupRouter(rateLimiter *services.IPRateLimiter, templatePath string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	// Panics become a generic 500 page; internal error text stays out of
	// the response body.
	r.Use(gin.CustomRecovery(func(c *gin.Context, err interface{}) {
		h.logger.Error("panic in request handler", "path", c.Request.URL.Path, "error", err)
		c.HTML(http.StatusInternalServerError, "500.html", gin.H{})
	}))

	if templatePath != "" {
		r.LoadHTMLGlob(templatePath)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := r.Group("/api/v1")
	if rateLimiter != nil {
		api.Use(h.RateLimitMiddleware(rateLimiter))
	}
	api.Use(h.RequireAPIKey())
	{
		api.POST("/links", h.CreateLink)
		api.PATCH("/links/:code", h.UpdateLink)
		api.GET("/links/:code/stats", h.LinkStats)
		api.GET("/programs", h.ListPrograms)
		api.POST("/programs", h.CreateProgram)
		api.POST("/convert", h.ConvertURL)
	}

	// Catch-all redirects
	r.GET("/:code", h.Redirect)
	r.GET("/:code/qr", h.QRCode)

	return r
}
