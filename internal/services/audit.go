package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"affilink/internal/models"

	"gorm.io/gorm"
)

type AuditService struct {
	db     *gorm.DB
	logger *slog.Logger
	queue  chan models.AuditLog
	done   chan struct{}
}

func NewAuditService(db *gorm.DB, logger *slog.Logger) *AuditService {
	return &AuditService{
		db:     db,
		logger: logger,
		queue:  make(chan models.AuditLog, 100),
		done:   make(chan struct{}),
	}
}

// Start writes queued entries until ctx is cancelled, drains the remainder,
// then closes the done channel.
func (s *AuditService) Start(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case entry := <-s.queue:
			s.write(entry)
		case <-ctx.Done():
			for {
				select {
				case entry := <-s.queue:
					s.write(entry)
				default:
					return
				}
			}
		}
	}
}

func (s *AuditService) write(entry models.AuditLog) {
	if err := s.db.Create(&entry).Error; err != nil {
		s.logger.Error("failed to write audit log", "action", entry.Action, "error", err)
	}
}

// Done reports worker completion; it closes after Start has drained the
// queue and returned.
func (s *AuditService) Done() <-chan struct{} {
	return s.done
}

func (s *AuditService) LogAction(userID *uint, action, entityID string, details interface{}, ip string) {
	detailBytes, _ := json.Marshal(details)

	entry := models.AuditLog{
		UserID:    userID,
		Action:    action,
		EntityID:  entityID,
		Details:   string(detailBytes),
		IPAddress: ip,
		Timestamp: time.Now(),
	}

	select {
	case s.queue <- entry:
	default:
		s.logger.Warn("audit queue full, dropping entry", "action", action)
	}
}
