package models

import (
	"time"
)

// AuditLog records an admin back-office mutation. Rows are append-only.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ActorID    uint      `gorm:"not null;index" json:"actor_id"`
	Actor      User      `gorm:"foreignKey:ActorID" json:"actor"`
	Action     string    `gorm:"type:varchar(64);not null;index" json:"action"`
	TargetType string    `gorm:"type:varchar(32)" json:"target_type"`
	TargetID   uint      `json:"target_id"`
	Detail     string    `gorm:"type:text" json:"detail,omitempty"`
	IP         string    `gorm:"type:varchar(64)" json:"ip,omitempty"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}
