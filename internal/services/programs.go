package services

import (
	"context"
	"errors"

	"affilink/internal/models"

	"gorm.io/gorm"
)

type CreateProgramInput struct {
	UserID         uint
	ProgramType    models.ProgramType
	AffiliateID    string
	APIKey         string
	APISecret      string
	TrackingParam  string
	CommissionRate float64
	IPAddress      string
}

type ProgramService struct {
	db    *gorm.DB
	audit *AuditService
}

func NewProgramService(db *gorm.DB, audit *AuditService) *ProgramService {
	return &ProgramService{db: db, audit: audit}
}

func (s *ProgramService) List(ctx context.Context, userID uint) ([]models.AffiliateProgram, error) {
	var programs []models.AffiliateProgram
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id asc").Find(&programs).Error
	if err != nil {
		return nil, err
	}
	return programs, nil
}

// Create stores a program and deactivates any previously active program of
// the same type, keeping one active program per (owner, type).
func (s *ProgramService) Create(ctx context.Context, input CreateProgramInput) (*models.AffiliateProgram, error) {
	if input.ProgramType == "" {
		return nil, errors.New("program type is required")
	}

	trackingParam := input.TrackingParam
	if trackingParam == "" {
		trackingParam = models.DefaultTrackingParam
	}

	program := models.AffiliateProgram{
		UserID:         input.UserID,
		ProgramType:    input.ProgramType,
		AffiliateID:    input.AffiliateID,
		APIKey:         input.APIKey,
		APISecret:      input.APISecret,
		TrackingParam:  trackingParam,
		CommissionRate: input.CommissionRate,
		IsActive:       true,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.AffiliateProgram{}).
			Where("user_id = ? AND program_type = ? AND is_active = ?", input.UserID, input.ProgramType, true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Create(&program).Error
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogAction(&input.UserID, "CREATE_PROGRAM", string(program.ProgramType), map[string]interface{}{
		"affiliate_id": program.AffiliateID,
	}, input.IPAddress)

	return &program, nil
}
