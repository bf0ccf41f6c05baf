package handlers

import (
	"net/http"

	"affilink/internal/models"
	"affilink/internal/services"

	"github.com/gin-gonic/gin"
)

type CreateProgramRequest struct {
	ProgramType    models.ProgramType `json:"program_type" binding:"required"`
	AffiliateID    string             `json:"affiliate_id" binding:"required"`
	APIKey         string             `json:"api_key,omitempty"`
	APISecret      string             `json:"api_secret,omitempty"`
	TrackingParam  string             `json:"tracking_param,omitempty"`
	CommissionRate float64            `json:"commission_rate,omitempty"`
}

type ConvertRequest struct {
	URL string `json:"url" binding:"required"`
}

// ListPrograms handles GET /api/v1/programs.
func (h *Handler) ListPrograms(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	programs, err := h.programs.List(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("program list failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list programs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"programs": programs})
}

// CreateProgram handles POST /api/v1/programs.
func (h *Handler) CreateProgram(c *gin.Context) {
	var req CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	program, err := h.programs.Create(c.Request.Context(), services.CreateProgramInput{
		UserID:         userID,
		ProgramType:    req.ProgramType,
		AffiliateID:    req.AffiliateID,
		APIKey:         req.APIKey,
		APISecret:      req.APISecret,
		TrackingParam:  req.TrackingParam,
		CommissionRate: req.CommissionRate,
		IPAddress:      c.ClientIP(),
	})
	if err != nil {
		h.logger.Error("program creation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create program"})
		return
	}

	c.JSON(http.StatusCreated, program)
}

// ConvertURL handles POST /api/v1/convert: the synchronous affiliate
// conversion call used by dashboard and automation paths.
func (h *Handler) ConvertURL(c *gin.Context) {
	var req ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	programs, err := h.links.ActivePrograms(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("program load failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load programs"})
		return
	}

	result := services.ConvertURL(req.URL, programs)
	resp := gin.H{
		"affiliate_url": result.AffiliateURL,
		"converted":     result.Converted(),
	}
	if result.Program != nil {
		resp["program_type"] = result.Program.ProgramType
	}
	c.JSON(http.StatusOK, resp)
}
