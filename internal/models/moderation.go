package models

import (
	"time"
)

// ReportReason classifies a user report.
type ReportReason string

const (
	ReasonSpam          ReportReason = "SPAM"
	ReasonInappropriate ReportReason = "INAPPROPRIATE"
	ReasonMisleading    ReportReason = "MISLEADING"
	ReasonCopyright     ReportReason = "COPYRIGHT"
	ReasonHarassment    ReportReason = "HARASSMENT"
	ReasonOther         ReportReason = "OTHER"
)

// Valid reports whether r is a known report reason.
func (r ReportReason) Valid() bool {
	switch r {
	case ReasonSpam, ReasonInappropriate, ReasonMisleading, ReasonCopyright, ReasonHarassment, ReasonOther:
		return true
	}
	return false
}

// ReportStatus is the moderation queue state of a report.
type ReportStatus string

const (
	ReportOpen      ReportStatus = "OPEN"
	ReportResolved  ReportStatus = "RESOLVED"
	ReportDismissed ReportStatus = "DISMISSED"
)

// ReportTarget identifies the kind of content a report points at.
type ReportTarget string

const (
	TargetAccommodation ReportTarget = "accommodation"
	TargetReview        ReportTarget = "review"
	TargetReel          ReportTarget = "reel"
	TargetEvent         ReportTarget = "event"
	TargetUser          ReportTarget = "user"
)

// ModerationReport is a user-submitted trust and safety report.
type ModerationReport struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	ReporterID uint         `gorm:"not null;index" json:"reporter_id"`
	Reporter   User         `gorm:"foreignKey:ReporterID" json:"reporter"`
	TargetType ReportTarget `gorm:"type:varchar(16);not null;index" json:"target_type"`
	TargetID   uint         `gorm:"not null;index" json:"target_id"`
	Reason     ReportReason `gorm:"type:varchar(16);not null" json:"reason"`
	Details    string       `gorm:"type:text" json:"details"`
	Status     ReportStatus `gorm:"type:varchar(16);not null;default:'OPEN';index" json:"status"`
	ResolvedBy *uint        `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time   `json:"resolved_at,omitempty"`
	Resolution string       `json:"resolution,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}
