package handlers

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"affilink/internal/config"
	"affilink/internal/models"
	"affilink/internal/repository"
	"affilink/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// stubGeo satisfies services.CountryResolver with a fixed answer; tests
// mutate country to simulate requesters from different places and inspect
// lookups to see whether a request consulted the resolver at all.
type stubGeo struct {
	country string
	lookups int
}

func (s *stubGeo) Country(ctx context.Context, ip string) string {
	s.lookups++
	return s.country
}

func setupTestHandler(t *testing.T) (*Handler, *gorm.DB, *stubGeo) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.ShortLink{},
		&models.AffiliateProgram{},
		&models.ClickEvent{},
		&models.AuditLog{},
	))

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	cfg := config.Config{GeoFallbackCountry: "IN"}

	store := repository.NewLinkStore(db)
	cache := repository.NewLinkCache(nil, 10*time.Minute)
	audit := services.NewAuditService(db, logger)
	recorder := services.NewClickRecorder(store, logger)
	links := services.NewLinkService(db, cache, audit)
	programs := services.NewProgramService(db, audit)
	geo := &stubGeo{country: "IN"}
	qr := services.NewQRService()

	workerCtx, workerCancel := context.WithCancel(context.Background())
	t.Cleanup(workerCancel)
	go audit.Start(workerCtx)
	go recorder.Start(workerCtx)

	h := NewHandler(cfg, logger, db, store, cache, links, programs, recorder, geo, qr)
	return h, db, geo
}

func setupTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return h.SetupRouter(nil, "../../web/templates/*.html")
}

func seedUser(db *gorm.DB, apiKey string) models.User {
	user := models.User{Email: apiKey + "@example.com", APIKey: apiKey}
	db.Create(&user)
	return user
}
