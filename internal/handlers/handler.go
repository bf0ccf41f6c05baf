package handlers

import (
	"log/slog"

	"affilink/internal/config"
	"affilink/internal/repository"
	"affilink/internal/services"

	"gorm.io/gorm"
)

type Handler struct {
	cfg      config.Config
	logger   *slog.Logger
	db       *gorm.DB
	store    repository.LinkStore
	cache    *repository.LinkCache
	links    *services.LinkService
	programs *services.ProgramService
	recorder *services.ClickRecorder
	geo      services.CountryResolver
	qr       *services.QRService
}

func NewHandler(
	cfg config.Config,
	logger *slog.Logger,
	db *gorm.DB,
	store repository.LinkStore,
	cache *repository.LinkCache,
	links *services.LinkService,
	programs *services.ProgramService,
	recorder *services.ClickRecorder,
	geo services.CountryResolver,
	qr *services.QRService,
) *Handler {
	return &Handler{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		store:    store,
		cache:    cache,
		links:    links,
		programs: programs,
		recorder: recorder,
		geo:      geo,
		qr:       qr,
	}
}
