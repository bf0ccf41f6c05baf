package models

import (
	"time"
)

// ClickEvent is append-only. One row per redirect that actually reached a
// destination; gated or blocked attempts never produce one.
type ClickEvent struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Nullable so the same table can hold clicks attributed to deals.
	ShortLinkID *uint `gorm:"index" json:"short_link_id,omitempty"`
	UserID      uint  `gorm:"index" json:"user_id"`

	Timestamp      time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"timestamp"`
	IP             string    `gorm:"size:45" json:"ip,omitempty"`
	UserAgent      string    `gorm:"size:512" json:"user_agent"`
	DeviceType     string    `gorm:"size:20" json:"device_type"`
	Browser        string    `gorm:"size:50" json:"browser"`
	OS             string    `gorm:"size:100" json:"os"`
	Country        string    `gorm:"size:8" json:"country"`
	Referrer       string    `gorm:"size:512;default:'Direct'" json:"referrer"`
	ReferrerDomain string    `gorm:"size:255" json:"referrer_domain"`
}
