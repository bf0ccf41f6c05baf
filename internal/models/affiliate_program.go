package models

import (
	"time"
)

// ProgramType identifies the merchant family an affiliate program attributes
// commission for.
type ProgramType string

const (
	ProgramAmazon   ProgramType = "amazon"
	ProgramFlipkart ProgramType = "flipkart"
	ProgramMyntra   ProgramType = "myntra"
	ProgramAjio     ProgramType = "ajio"
	ProgramMeesho   ProgramType = "meesho"
	ProgramNykaa    ProgramType = "nykaa"
	ProgramTataCliq ProgramType = "tatacliq"
	ProgramCuelinks ProgramType = "cuelinks"
	ProgramOther    ProgramType = "other"
)

// DefaultTrackingParam is the query parameter set to the affiliate id when a
// program does not specify its own.
const DefaultTrackingParam = "tag"

// AffiliateProgram is owned and edited through settings; the redirect path
// never writes it. By convention at most one program per (owner, type) is
// active at a time.
type AffiliateProgram struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	UserID         uint        `gorm:"not null;index" json:"user_id"`
	ProgramType    ProgramType `gorm:"size:20;not null;index" json:"program_type"`
	AffiliateID    string      `gorm:"size:100" json:"affiliate_id"`
	APIKey         string      `gorm:"size:255" json:"-"`
	APISecret      string      `gorm:"size:255" json:"-"`
	TrackingParam  string      `gorm:"size:50;default:'tag'" json:"tracking_param"`
	CommissionRate float64     `gorm:"default:0" json:"commission_rate"`
	IsActive       bool        `gorm:"default:true;index" json:"is_active"`
	CreatedAt      time.Time   `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func (AffiliateProgram) TableName() string {
	return "affiliate_programs"
}
