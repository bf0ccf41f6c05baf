package models

import (
	"time"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	Action    string    `gorm:"size:50;not null" json:"action"` // e.g. "CREATE_LINK", "UPDATE_LINK", "CREATE_PROGRAM"
	EntityID  string    `gorm:"size:50" json:"entity_id"`       // short code or program id
	Details   string    `gorm:"type:text" json:"details"`       // JSON payload
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	Timestamp time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"timestamp"`
}
