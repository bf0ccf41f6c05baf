package services

import (
	"strings"
	"time"

	"affilink/internal/models"
)

// Outcome is the closed set of results a redirect request can reach. The
// HTTP layer renders these; resolution logic never touches templates.
type Outcome int

const (
	OutcomeRedirect Outcome = iota
	OutcomeNotFound
	OutcomeInactive
	OutcomeExpired
	OutcomePasswordRequired
	OutcomeGeoBlocked
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRedirect:
		return "redirect"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeInactive:
		return "inactive"
	case OutcomeExpired:
		return "expired"
	case OutcomePasswordRequired:
		return "password_required"
	case OutcomeGeoBlocked:
		return "geo_blocked"
	}
	return "unknown"
}

// ResolveRequest carries the per-request inputs to the gates: the password
// query parameter (empty when absent) and the requester's derived country
// and device.
type ResolveRequest struct {
	Password string
	Country  string
	Device   models.DeviceType
}

type Resolution struct {
	Outcome     Outcome
	Destination string
}

// ResolveLifecycle runs the lifecycle gates in fixed order: existence,
// active flag, expiry, password. Dead links short-circuit here before any
// targeting input (country, device) is derived, so callers only pay for a
// geo lookup on links that can still redirect.
func ResolveLifecycle(link *models.ShortLink, password string, now time.Time) Resolution {
	if link == nil {
		return Resolution{Outcome: OutcomeNotFound}
	}
	if !link.IsActive {
		return Resolution{Outcome: OutcomeInactive}
	}
	if link.ExpiresAt != nil && now.After(*link.ExpiresAt) {
		return Resolution{Outcome: OutcomeExpired}
	}
	// Plaintext compare against the query parameter; a missing parameter is
	// a mismatch. Deliberately not hashed.
	if link.Password != "" && link.Password != password {
		return Resolution{Outcome: OutcomePasswordRequired}
	}
	return Resolution{Outcome: OutcomeRedirect, Destination: link.OriginalURL}
}

// ResolveTarget applies geo gating and the device override to a link that
// already passed the lifecycle gates.
func ResolveTarget(link *models.ShortLink, country string, device models.DeviceType) Resolution {
	if geoDenied(link, country) {
		return Resolution{Outcome: OutcomeGeoBlocked}
	}

	destination := link.OriginalURL
	if override := link.TargetFor(device); override != "" {
		destination = override
	}
	return Resolution{Outcome: OutcomeRedirect, Destination: destination}
}

// Resolve runs both phases: lifecycle gates first, then geo and device
// targeting.
func Resolve(link *models.ShortLink, req ResolveRequest, now time.Time) Resolution {
	if res := ResolveLifecycle(link, req.Password, now); res.Outcome != OutcomeRedirect {
		return res
	}
	return ResolveTarget(link, req.Country, req.Device)
}

// geoDenied checks the block list first; an empty allow list means no
// restriction, while a non-empty allow list excludes every country not on
// it.
func geoDenied(link *models.ShortLink, country string) bool {
	country = strings.ToUpper(strings.TrimSpace(country))

	for _, blocked := range link.BlockedCountries() {
		if blocked == country {
			return true
		}
	}

	allowed := link.AllowedCountries()
	if len(allowed) == 0 {
		return false
	}
	for _, a := range allowed {
		if a == country {
			return false
		}
	}
	return true
}

// Tablet markers are checked before mobile ones: tablet user agents usually
// also contain mobile substrings.
var (
	tabletMarkers = []string{"ipad", "tablet", "kindle", "silk", "playbook"}
	mobileMarkers = []string{"mobi", "iphone", "ipod", "android", "blackberry", "windows phone", "opera mini"}
)

// DetectDevice classifies a user agent into tablet, mobile or desktop.
func DetectDevice(userAgent string) models.DeviceType {
	ua := strings.ToLower(userAgent)
	for _, marker := range tabletMarkers {
		if strings.Contains(ua, marker) {
			return models.DeviceTablet
		}
	}
	for _, marker := range mobileMarkers {
		if strings.Contains(ua, marker) {
			return models.DeviceMobile
		}
	}
	return models.DeviceDesktop
}
