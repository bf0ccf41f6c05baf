package services

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"affilink/internal/models"
	"affilink/internal/repository"

	"github.com/mssola/user_agent"
)

// ClickRecorder persists click events off the request path. Record never
// blocks and never fails the caller; a full queue drops the event and write
// failures are logged and swallowed.
type ClickRecorder struct {
	store  repository.LinkStore
	logger *slog.Logger
	queue  chan models.ClickEvent
	done   chan struct{}
}

func NewClickRecorder(store repository.LinkStore, logger *slog.Logger) *ClickRecorder {
	return &ClickRecorder{
		store:  store,
		logger: logger,
		queue:  make(chan models.ClickEvent, 1000),
		done:   make(chan struct{}),
	}
}

// Start runs the worker loop until ctx is cancelled, then drains whatever is
// still queued so accepted clicks survive shutdown. The done channel closes
// once the drain finishes.
func (r *ClickRecorder) Start(ctx context.Context) {
	defer close(r.done)
	r.logger.Info("click recorder starting")
	for {
		select {
		case event := <-r.queue:
			r.persist(event)
		case <-ctx.Done():
			for {
				select {
				case event := <-r.queue:
					r.persist(event)
				default:
					r.logger.Info("click recorder stopping")
					return
				}
			}
		}
	}
}

// Done reports worker completion; it closes after Start has drained the
// queue and returned.
func (r *ClickRecorder) Done() <-chan struct{} {
	return r.done
}

// Record enqueues a click for background persistence.
func (r *ClickRecorder) Record(event models.ClickEvent) {
	select {
	case r.queue <- event:
	default:
		r.logger.Warn("click queue full, dropping click event", "short_link_id", event.ShortLinkID)
	}
}

// persist enriches the event and performs the two independent writes. The
// insert and the counter bump are deliberately not atomic; either may fail
// without affecting the other or any response already sent.
func (r *ClickRecorder) persist(event models.ClickEvent) {
	r.enrich(&event)

	// Worker context, not the request's: recording serves the link owner
	// and proceeds even when the requester has disconnected.
	ctx := context.Background()

	if err := r.store.InsertClick(ctx, &event); err != nil {
		r.logger.Error("failed to insert click event", "short_link_id", event.ShortLinkID, "error", err)
	}

	if event.ShortLinkID != nil {
		if err := r.store.IncrementClicks(ctx, *event.ShortLinkID, event.Timestamp); err != nil {
			r.logger.Error("failed to increment click counter", "short_link_id", *event.ShortLinkID, "error", err)
		}
	}
}

func (r *ClickRecorder) enrich(event *models.ClickEvent) {
	ua := user_agent.New(event.UserAgent)
	browserName, browserVersion := ua.Browser()
	event.Browser = strings.TrimSpace(browserName + " " + browserVersion)
	event.OS = ua.OS()

	if event.DeviceType == "" {
		event.DeviceType = string(DetectDevice(event.UserAgent))
	}

	if event.Referrer == "" {
		event.Referrer = "Direct"
	} else if parsed, err := url.Parse(event.Referrer); err == nil {
		event.ReferrerDomain = parsed.Hostname()
	}
}
