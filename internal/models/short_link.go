package models

import (
	"strings"
	"time"
)

// DeviceType is the coarse device classification stored on click events and
// used to pick per-device target URLs.
type DeviceType string

const (
	DeviceMobile  DeviceType = "mobile"
	DeviceDesktop DeviceType = "desktop"
	DeviceTablet  DeviceType = "tablet"
)

type ShortLink struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UserID      uint   `gorm:"not null;index" json:"user_id"`
	User        *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ShortCode   string `gorm:"unique;not null;size:20;index" json:"short_code"`
	OriginalURL string `gorm:"not null;type:text" json:"original_url"`
	Title       string `gorm:"size:255" json:"title,omitempty"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	// Password is compared verbatim against the "password" query parameter.
	// Plaintext on purpose: link passwords are a gating convenience, not a
	// security boundary.
	Password  string     `gorm:"size:255" json:"-"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	IsActive  bool       `gorm:"default:true;index" json:"is_active"`

	// Geo targeting. Comma separated ISO country codes. Block wins over
	// allow; an empty allow list means no restriction.
	GeoAllow string `gorm:"type:text" json:"geo_allow,omitempty"`
	GeoBlock string `gorm:"type:text" json:"geo_block,omitempty"`

	// Device targeting. A non-empty override replaces OriginalURL as the
	// redirect destination for that device class.
	MobileTargetURL  string `gorm:"type:text" json:"mobile_target_url,omitempty"`
	TabletTargetURL  string `gorm:"type:text" json:"tablet_target_url,omitempty"`
	DesktopTargetURL string `gorm:"type:text" json:"desktop_target_url,omitempty"`

	// Only the redirect path mutates these two, best-effort.
	Clicks        int        `gorm:"column:clicks;default:0" json:"clicks"`
	LastClickedAt *time.Time `json:"last_clicked_at,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ClickEvents []ClickEvent `gorm:"foreignKey:ShortLinkID" json:"click_events,omitempty"`
}

func (ShortLink) TableName() string {
	return "short_links"
}

// AllowedCountries returns the parsed geo allow list, upper-cased.
func (l *ShortLink) AllowedCountries() []string {
	return SplitList(l.GeoAllow)
}

// BlockedCountries returns the parsed geo block list, upper-cased.
func (l *ShortLink) BlockedCountries() []string {
	return SplitList(l.GeoBlock)
}

// TargetFor returns the device override URL for the given device type, or
// empty when none is configured.
func (l *ShortLink) TargetFor(device DeviceType) string {
	switch device {
	case DeviceMobile:
		return l.MobileTargetURL
	case DeviceTablet:
		return l.TabletTargetURL
	case DeviceDesktop:
		return l.DesktopTargetURL
	}
	return ""
}

// SplitList parses a comma separated list column into trimmed, upper-cased
// entries. Empty segments are dropped.
func SplitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
