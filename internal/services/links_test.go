package services

import (
	"context"
	"testing"
	"time"

	"affilink/internal/models"
	"affilink/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.ShortLink{},
		&models.AffiliateProgram{},
		&models.ClickEvent{},
		&models.AuditLog{},
	))
	return db
}

func newTestLinkService(db *gorm.DB) *LinkService {
	audit := NewAuditService(db, testLogger())
	return NewLinkService(db, repository.NewLinkCache(nil, 0), audit)
}

func TestLinkService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Generates Code", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newTestLinkService(db)

		link, conversion, err := svc.Create(ctx, CreateLinkInput{
			UserID:      1,
			OriginalURL: "https://example.com/page",
		})

		assert.NoError(t, err)
		assert.Nil(t, conversion)
		assert.Len(t, link.ShortCode, 6)
		assert.True(t, link.IsActive)

		var stored models.ShortLink
		assert.NoError(t, db.Where("short_code = ?", link.ShortCode).First(&stored).Error)
		assert.Equal(t, "https://example.com/page", stored.OriginalURL)
	})

	t.Run("Custom Code", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newTestLinkService(db)

		link, _, err := svc.Create(ctx, CreateLinkInput{
			UserID:      1,
			OriginalURL: "https://example.com",
			CustomCode:  "mydeal",
		})
		assert.NoError(t, err)
		assert.Equal(t, "mydeal", link.ShortCode)

		_, _, err = svc.Create(ctx, CreateLinkInput{
			UserID:      1,
			OriginalURL: "https://example.com/other",
			CustomCode:  "mydeal",
		})
		assert.ErrorIs(t, err, ErrCodeTaken)
	})

	t.Run("Expiry Hours", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newTestLinkService(db)

		hours := 24
		link, _, err := svc.Create(ctx, CreateLinkInput{
			UserID:      1,
			OriginalURL: "https://example.com",
			ExpiryHours: &hours,
		})
		assert.NoError(t, err)
		assert.NotNil(t, link.ExpiresAt)
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), *link.ExpiresAt, time.Minute)
	})

	t.Run("Convert On Create", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newTestLinkService(db)

		db.Create(&models.AffiliateProgram{
			UserID:      1,
			ProgramType: models.ProgramAmazon,
			AffiliateID: "mytag123",
			IsActive:    true,
		})

		link, conversion, err := svc.Create(ctx, CreateLinkInput{
			UserID:      1,
			OriginalURL: "https://www.amazon.in/dp/B0TEST123",
			Convert:     true,
		})

		assert.NoError(t, err)
		assert.NotNil(t, conversion)
		assert.True(t, conversion.Converted())
		assert.Contains(t, link.OriginalURL, "tag=mytag123")
	})

	t.Run("Convert Without Programs Stores Original", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newTestLinkService(db)

		link, conversion, err := svc.Create(ctx, CreateLinkInput{
			UserID:      1,
			OriginalURL: "https://www.amazon.in/dp/B0TEST123",
			Convert:     true,
		})

		assert.NoError(t, err)
		assert.False(t, conversion.Converted())
		assert.Equal(t, "https://www.amazon.in/dp/B0TEST123", link.OriginalURL)
	})

	t.Run("Geo Lists Stored As CSV", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newTestLinkService(db)

		link, _, err := svc.Create(ctx, CreateLinkInput{
			UserID:      1,
			OriginalURL: "https://example.com",
			GeoAllow:    []string{"IN", "US"},
			GeoBlock:    []string{"CN"},
		})
		assert.NoError(t, err)
		assert.Equal(t, []string{"IN", "US"}, link.AllowedCountries())
		assert.Equal(t, []string{"CN"}, link.BlockedCountries())
	})
}

func TestLinkService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("Patches Fields", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newTestLinkService(db)

		link, _, err := svc.Create(ctx, CreateLinkInput{UserID: 1, OriginalURL: "https://example.com"})
		assert.NoError(t, err)

		inactive := false
		title := "Changed"
		updated, err := svc.Update(ctx, 1, link.ShortCode, UpdateLinkInput{
			IsActive: &inactive,
			Title:    &title,
		})
		assert.NoError(t, err)
		assert.False(t, updated.IsActive)
		assert.Equal(t, "Changed", updated.Title)
		assert.Equal(t, link.ShortCode, updated.ShortCode)
	})

	t.Run("Wrong Owner Is Not Found", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newTestLinkService(db)

		link, _, err := svc.Create(ctx, CreateLinkInput{UserID: 1, OriginalURL: "https://example.com"})
		assert.NoError(t, err)

		active := false
		_, err = svc.Update(ctx, 2, link.ShortCode, UpdateLinkInput{IsActive: &active})
		assert.ErrorIs(t, err, ErrLinkNotFound)
	})

	t.Run("Clears Expiry", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newTestLinkService(db)

		hours := 1
		link, _, err := svc.Create(ctx, CreateLinkInput{UserID: 1, OriginalURL: "https://example.com", ExpiryHours: &hours})
		assert.NoError(t, err)
		assert.NotNil(t, link.ExpiresAt)

		var cleared *time.Time
		updated, err := svc.Update(ctx, 1, link.ShortCode, UpdateLinkInput{ExpiresAt: &cleared})
		assert.NoError(t, err)
		assert.Nil(t, updated.ExpiresAt)
	})
}

func TestLinkService_ActivePrograms(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestLinkService(db)

	db.Create(&models.AffiliateProgram{UserID: 1, ProgramType: models.ProgramAmazon, AffiliateID: "a", IsActive: true})
	db.Create(&models.AffiliateProgram{UserID: 1, ProgramType: models.ProgramFlipkart, AffiliateID: "f", IsActive: false})
	db.Create(&models.AffiliateProgram{UserID: 2, ProgramType: models.ProgramMyntra, AffiliateID: "m", IsActive: true})

	programs, err := svc.ActivePrograms(context.Background(), 1)
	assert.NoError(t, err)
	assert.Len(t, programs, 1)
	assert.Equal(t, models.ProgramAmazon, programs[0].ProgramType)
}

func TestProgramService(t *testing.T) {
	ctx := context.Background()

	t.Run("Create Deactivates Previous Of Same Type", func(t *testing.T) {
		db := setupTestDB(t)
		audit := NewAuditService(db, testLogger())
		svc := NewProgramService(db, audit)

		first, err := svc.Create(ctx, CreateProgramInput{
			UserID:      1,
			ProgramType: models.ProgramAmazon,
			AffiliateID: "old",
		})
		assert.NoError(t, err)
		assert.True(t, first.IsActive)

		second, err := svc.Create(ctx, CreateProgramInput{
			UserID:      1,
			ProgramType: models.ProgramAmazon,
			AffiliateID: "new",
		})
		assert.NoError(t, err)
		assert.True(t, second.IsActive)

		var old models.AffiliateProgram
		assert.NoError(t, db.First(&old, first.ID).Error)
		assert.False(t, old.IsActive)
	})

	t.Run("Default Tracking Param", func(t *testing.T) {
		db := setupTestDB(t)
		svc := NewProgramService(db, NewAuditService(db, testLogger()))

		program, err := svc.Create(ctx, CreateProgramInput{
			UserID:      1,
			ProgramType: models.ProgramAmazon,
			AffiliateID: "a",
		})
		assert.NoError(t, err)
		assert.Equal(t, "tag", program.TrackingParam)
	})

	t.Run("Missing Type Rejected", func(t *testing.T) {
		db := setupTestDB(t)
		svc := NewProgramService(db, NewAuditService(db, testLogger()))

		_, err := svc.Create(ctx, CreateProgramInput{UserID: 1, AffiliateID: "a"})
		assert.Error(t, err)
	})
}
