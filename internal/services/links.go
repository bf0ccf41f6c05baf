package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"affilink/internal/models"
	"affilink/internal/repository"
	"affilink/pkg/utils"

	"gorm.io/gorm"
)

var (
	ErrCodeTaken    = errors.New("short code already taken")
	ErrLinkNotFound = errors.New("short link not found")
)

type CreateLinkInput struct {
	UserID      uint
	OriginalURL string
	CustomCode  string
	Title       string
	Description string
	Password    string
	ExpiryHours *int

	GeoAllow []string
	GeoBlock []string

	MobileTargetURL  string
	TabletTargetURL  string
	DesktopTargetURL string

	// Convert runs the affiliate conversion over the owner's programs
	// before the URL is stored.
	Convert bool

	IPAddress string // audit trail
}

// UpdateLinkInput patches a link. Nil pointers leave the field untouched;
// the short code itself is immutable.
type UpdateLinkInput struct {
	OriginalURL *string
	Title       *string
	Description *string
	Password    *string
	ExpiresAt   **time.Time
	IsActive    *bool
	GeoAllow    *[]string
	GeoBlock    *[]string

	MobileTargetURL  *string
	TabletTargetURL  *string
	DesktopTargetURL *string

	IPAddress string
}

type LinkService struct {
	db            *gorm.DB
	cache         *repository.LinkCache
	audit         *AuditService
	codeGenerator func(int) string
}

func NewLinkService(db *gorm.DB, cache *repository.LinkCache, audit *AuditService) *LinkService {
	return &LinkService{
		db:            db,
		cache:         cache,
		audit:         audit,
		codeGenerator: utils.GenerateShortCode,
	}
}

// Create stores a new short link. When input.Convert is set the original URL
// is first run through the affiliate converter; the stored URL is whatever
// the conversion produced (possibly unchanged).
func (s *LinkService) Create(ctx context.Context, input CreateLinkInput) (*models.ShortLink, *ConversionResult, error) {
	originalURL := input.OriginalURL
	var conversion *ConversionResult
	if input.Convert {
		programs, err := s.ActivePrograms(ctx, input.UserID)
		if err != nil {
			return nil, nil, err
		}
		result := ConvertURL(originalURL, programs)
		conversion = &result
		originalURL = result.AffiliateURL
	}

	shortCode, err := s.pickShortCode(input.CustomCode)
	if err != nil {
		return nil, nil, err
	}

	var expiresAt *time.Time
	if input.ExpiryHours != nil && *input.ExpiryHours > 0 {
		t := time.Now().Add(time.Duration(*input.ExpiryHours) * time.Hour)
		expiresAt = &t
	}

	link := models.ShortLink{
		UserID:           input.UserID,
		ShortCode:        shortCode,
		OriginalURL:      originalURL,
		Title:            input.Title,
		Description:      input.Description,
		Password:         input.Password,
		ExpiresAt:        expiresAt,
		IsActive:         true,
		GeoAllow:         strings.Join(input.GeoAllow, ","),
		GeoBlock:         strings.Join(input.GeoBlock, ","),
		MobileTargetURL:  input.MobileTargetURL,
		TabletTargetURL:  input.TabletTargetURL,
		DesktopTargetURL: input.DesktopTargetURL,
		CreatedAt:        time.Now(),
	}

	if err := s.db.WithContext(ctx).Create(&link).Error; err != nil {
		return nil, nil, err
	}

	s.audit.LogAction(&input.UserID, "CREATE_LINK", link.ShortCode, map[string]interface{}{
		"original_url": originalURL,
		"converted":    conversion != nil && conversion.Converted(),
	}, input.IPAddress)

	return &link, conversion, nil
}

// Update patches an owner's link and drops the cached copy so the redirect
// path sees the change.
func (s *LinkService) Update(ctx context.Context, userID uint, shortCode string, input UpdateLinkInput) (*models.ShortLink, error) {
	var link models.ShortLink
	err := s.db.WithContext(ctx).Where("short_code = ? AND user_id = ?", shortCode, userID).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, err
	}

	if input.OriginalURL != nil {
		link.OriginalURL = *input.OriginalURL
	}
	if input.Title != nil {
		link.Title = *input.Title
	}
	if input.Description != nil {
		link.Description = *input.Description
	}
	if input.Password != nil {
		link.Password = *input.Password
	}
	if input.ExpiresAt != nil {
		link.ExpiresAt = *input.ExpiresAt
	}
	if input.IsActive != nil {
		link.IsActive = *input.IsActive
	}
	if input.GeoAllow != nil {
		link.GeoAllow = strings.Join(*input.GeoAllow, ",")
	}
	if input.GeoBlock != nil {
		link.GeoBlock = strings.Join(*input.GeoBlock, ",")
	}
	if input.MobileTargetURL != nil {
		link.MobileTargetURL = *input.MobileTargetURL
	}
	if input.TabletTargetURL != nil {
		link.TabletTargetURL = *input.TabletTargetURL
	}
	if input.DesktopTargetURL != nil {
		link.DesktopTargetURL = *input.DesktopTargetURL
	}

	if err := s.db.WithContext(ctx).Save(&link).Error; err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, link.ShortCode)

	s.audit.LogAction(&userID, "UPDATE_LINK", link.ShortCode, map[string]interface{}{
		"is_active": link.IsActive,
	}, input.IPAddress)

	return &link, nil
}

// ActivePrograms loads the owner's active affiliate programs, the input the
// converter expects.
func (s *LinkService) ActivePrograms(ctx context.Context, userID uint) ([]models.AffiliateProgram, error) {
	var programs []models.AffiliateProgram
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("id asc").
		Find(&programs).Error
	if err != nil {
		return nil, err
	}
	return programs, nil
}

func (s *LinkService) pickShortCode(customCode string) (string, error) {
	if customCode != "" {
		var existing models.ShortLink
		err := s.db.Where("short_code = ?", customCode).First(&existing).Error
		if err == nil {
			return "", ErrCodeTaken
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
		return customCode, nil
	}

	for {
		code := s.codeGenerator(6)
		var existing models.ShortLink
		err := s.db.Where("short_code = ?", code).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
}
