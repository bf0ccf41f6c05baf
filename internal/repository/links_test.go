package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"affilink/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.User{}, &models.ShortLink{}, &models.ClickEvent{}))
	return db
}

func TestFindByShortCode(t *testing.T) {
	db := setupTestDB(t)
	store := NewLinkStore(db)

	db.Create(&models.ShortLink{
		UserID:      1,
		ShortCode:   "abc123",
		OriginalURL: "https://example.com",
		IsActive:    true,
	})

	t.Run("Found", func(t *testing.T) {
		link, err := store.FindByShortCode(context.Background(), "abc123")
		assert.NoError(t, err)
		assert.Equal(t, "https://example.com", link.OriginalURL)
	})

	t.Run("Not Found", func(t *testing.T) {
		link, err := store.FindByShortCode(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Nil(t, link)
	})
}

func TestCloakingPreference(t *testing.T) {
	db := setupTestDB(t)
	store := NewLinkStore(db)

	user := models.User{
		Email:               "cloak@example.com",
		APIKey:              "key",
		CloakingEnabled:     true,
		CloakPreserveParams: "Ref, UTM_SOURCE",
	}
	db.Create(&user)

	t.Run("Returns Preference And Normalized Params", func(t *testing.T) {
		enabled, preserve, err := store.CloakingPreference(context.Background(), user.ID)
		assert.NoError(t, err)
		assert.True(t, enabled)
		assert.Equal(t, []string{"ref", "utm_source"}, preserve)
	})

	t.Run("Unknown User", func(t *testing.T) {
		_, _, err := store.CloakingPreference(context.Background(), 9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestInsertClick(t *testing.T) {
	db := setupTestDB(t)
	store := NewLinkStore(db)

	link := models.ShortLink{UserID: 1, ShortCode: "clicked", OriginalURL: "https://example.com", IsActive: true}
	db.Create(&link)

	err := store.InsertClick(context.Background(), &models.ClickEvent{
		ShortLinkID: &link.ID,
		UserID:      1,
		Timestamp:   time.Now(),
		Country:     "IN",
		DeviceType:  "mobile",
	})
	assert.NoError(t, err)

	var count int64
	db.Model(&models.ClickEvent{}).Where("short_link_id = ?", link.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestIncrementClicks(t *testing.T) {
	db := setupTestDB(t)
	store := NewLinkStore(db)

	link := models.ShortLink{UserID: 1, ShortCode: "counted", OriginalURL: "https://example.com", IsActive: true}
	db.Create(&link)

	at := time.Now()
	assert.NoError(t, store.IncrementClicks(context.Background(), link.ID, at))
	assert.NoError(t, store.IncrementClicks(context.Background(), link.ID, at))

	var stored models.ShortLink
	db.First(&stored, link.ID)
	assert.Equal(t, 2, stored.Clicks)
	assert.NotNil(t, stored.LastClickedAt)
}

func TestCachedLinkKeepsPassword(t *testing.T) {
	// The model hides the password from API JSON; the cache envelope has to
	// carry it anyway or cached links would skip the password gate.
	link := models.ShortLink{ShortCode: "secret", OriginalURL: "https://example.com", Password: "hunter2"}

	data, err := json.Marshal(cachedLink{ShortLink: link, Password: link.Password})
	assert.NoError(t, err)

	var entry cachedLink
	assert.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "hunter2", entry.Password)
	assert.Equal(t, "https://example.com", entry.ShortLink.OriginalURL)
}

func TestLinkCacheNilSafety(t *testing.T) {
	ctx := context.Background()

	t.Run("Nil Cache", func(t *testing.T) {
		var cache *LinkCache
		link, ok := cache.Get(ctx, "abc123")
		assert.False(t, ok)
		assert.Nil(t, link)
		cache.Set(ctx, &models.ShortLink{ShortCode: "abc123"})
		cache.Invalidate(ctx, "abc123")
	})

	t.Run("Nil Client", func(t *testing.T) {
		cache := NewLinkCache(nil, time.Minute)
		link, ok := cache.Get(ctx, "abc123")
		assert.False(t, ok)
		assert.Nil(t, link)
		cache.Set(ctx, &models.ShortLink{ShortCode: "abc123"})
		cache.Invalidate(ctx, "abc123")
	})
}
