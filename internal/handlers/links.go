package handlers

import (
	"errors"
	"net/http"
	"time"

	"affilink/internal/services"

	"github.com/gin-gonic/gin"
)

type CreateLinkRequest struct {
	OriginalURL      string   `json:"original_url" binding:"required,url"`
	CustomCode       string   `json:"custom_code,omitempty"`
	Title            string   `json:"title,omitempty"`
	Description      string   `json:"description,omitempty"`
	Password         string   `json:"password,omitempty"`
	ExpiryHours      *int     `json:"expiry_hours,omitempty"`
	GeoAllow         []string `json:"geo_allow,omitempty"`
	GeoBlock         []string `json:"geo_block,omitempty"`
	MobileTargetURL  string   `json:"mobile_target_url,omitempty"`
	TabletTargetURL  string   `json:"tablet_target_url,omitempty"`
	DesktopTargetURL string   `json:"desktop_target_url,omitempty"`
	Convert          bool     `json:"convert,omitempty"`
}

type UpdateLinkRequest struct {
	OriginalURL      *string    `json:"original_url,omitempty"`
	Title            *string    `json:"title,omitempty"`
	Description      *string    `json:"description,omitempty"`
	Password         *string    `json:"password,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	ClearExpiry      bool       `json:"clear_expiry,omitempty"`
	IsActive         *bool      `json:"is_active,omitempty"`
	GeoAllow         *[]string  `json:"geo_allow,omitempty"`
	GeoBlock         *[]string  `json:"geo_block,omitempty"`
	MobileTargetURL  *string    `json:"mobile_target_url,omitempty"`
	TabletTargetURL  *string    `json:"tablet_target_url,omitempty"`
	DesktopTargetURL *string    `json:"desktop_target_url,omitempty"`
}

// CreateLink handles POST /api/v1/links.
func (h *Handler) CreateLink(c *gin.Context) {
	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	link, conversion, err := h.links.Create(c.Request.Context(), services.CreateLinkInput{
		UserID:           userID,
		OriginalURL:      req.OriginalURL,
		CustomCode:       req.CustomCode,
		Title:            req.Title,
		Description:      req.Description,
		Password:         req.Password,
		ExpiryHours:      req.ExpiryHours,
		GeoAllow:         req.GeoAllow,
		GeoBlock:         req.GeoBlock,
		MobileTargetURL:  req.MobileTargetURL,
		TabletTargetURL:  req.TabletTargetURL,
		DesktopTargetURL: req.DesktopTargetURL,
		Convert:          req.Convert,
		IPAddress:        c.ClientIP(),
	})
	if err != nil {
		if errors.Is(err, services.ErrCodeTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("link creation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create link"})
		return
	}

	resp := gin.H{
		"short_code":   link.ShortCode,
		"short_url":    c.Request.Host + "/" + link.ShortCode,
		"original_url": link.OriginalURL,
	}
	if conversion != nil {
		resp["converted"] = conversion.Converted()
		if conversion.Program != nil {
			resp["program_type"] = conversion.Program.ProgramType
		}
	}
	c.JSON(http.StatusCreated, resp)
}

// UpdateLink handles PATCH /api/v1/links/:code. The short code is immutable.
func (h *Handler) UpdateLink(c *gin.Context) {
	var req UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	input := services.UpdateLinkInput{
		OriginalURL:      req.OriginalURL,
		Title:            req.Title,
		Description:      req.Description,
		Password:         req.Password,
		IsActive:         req.IsActive,
		GeoAllow:         req.GeoAllow,
		GeoBlock:         req.GeoBlock,
		MobileTargetURL:  req.MobileTargetURL,
		TabletTargetURL:  req.TabletTargetURL,
		DesktopTargetURL: req.DesktopTargetURL,
		IPAddress:        c.ClientIP(),
	}
	if req.ClearExpiry {
		var cleared *time.Time
		input.ExpiresAt = &cleared
	} else if req.ExpiresAt != nil {
		expires := req.ExpiresAt
		input.ExpiresAt = &expires
	}

	link, err := h.links.Update(c.Request.Context(), userID, c.Param("code"), input)
	if err != nil {
		if errors.Is(err, services.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "link not found"})
			return
		}
		h.logger.Error("link update failed", "short_code", c.Param("code"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update link"})
		return
	}

	c.JSON(http.StatusOK, link)
}
