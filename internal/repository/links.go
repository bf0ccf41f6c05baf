package repository

import (
	"context"
	"errors"
	"time"

	"affilink/internal/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned by point lookups when no row matches.
var ErrNotFound = errors.New("not found")

// LinkStore is the row-store surface the redirect path depends on. The four
// operations are independently retryable; none implies another.
type LinkStore interface {
	FindByShortCode(ctx context.Context, code string) (*models.ShortLink, error)
	CloakingPreference(ctx context.Context, userID uint) (enabled bool, preserve []string, err error)
	InsertClick(ctx context.Context, event *models.ClickEvent) error
	IncrementClicks(ctx context.Context, linkID uint, at time.Time) error
}

type gormLinkStore struct {
	db *gorm.DB
}

func NewLinkStore(db *gorm.DB) LinkStore {
	return &gormLinkStore{db: db}
}

func (s *gormLinkStore) FindByShortCode(ctx context.Context, code string) (*models.ShortLink, error) {
	var link models.ShortLink
	err := s.db.WithContext(ctx).Where("short_code = ?", code).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (s *gormLinkStore) CloakingPreference(ctx context.Context, userID uint) (bool, []string, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil, ErrNotFound
	}
	if err != nil {
		return false, nil, err
	}
	return user.CloakingEnabled, user.PreserveParams(), nil
}

func (s *gormLinkStore) InsertClick(ctx context.Context, event *models.ClickEvent) error {
	return s.db.WithContext(ctx).Create(event).Error
}

func (s *gormLinkStore) IncrementClicks(ctx context.Context, linkID uint, at time.Time) error {
	// Racy increments across concurrent requests are accepted: the counter
	// is best-effort, not a ledger.
	return s.db.WithContext(ctx).Model(&models.ShortLink{}).
		Where("id = ?", linkID).
		UpdateColumns(map[string]interface{}{
			"clicks":          gorm.Expr("clicks + ?", 1),
			"last_clicked_at": at,
		}).Error
}
