package models

import (
	"strings"
	"time"
)

// User carries the per-owner settings the engine reads. Account management
// and authentication live elsewhere; the API key column is the only
// credential this service consults.
type User struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Email  string `gorm:"unique;not null;size:120" json:"email"`
	APIKey string `gorm:"unique;index;size:36" json:"-"`

	// CloakingEnabled makes the redirect path strip known tracking
	// parameters from the final destination.
	CloakingEnabled bool `gorm:"default:false" json:"cloaking_enabled"`
	// CloakPreserveParams lists parameter names exempt from cloaking.
	// Comma separated, empty by default.
	CloakPreserveParams string `gorm:"type:text" json:"cloak_preserve_params,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`

	Links    []ShortLink        `gorm:"foreignKey:UserID" json:"links,omitempty"`
	Programs []AffiliateProgram `gorm:"foreignKey:UserID" json:"programs,omitempty"`
}

// PreserveParams returns the parsed cloaking preserve list, lower-cased.
func (u *User) PreserveParams() []string {
	if u.CloakPreserveParams == "" {
		return nil
	}
	parts := strings.Split(u.CloakPreserveParams, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
