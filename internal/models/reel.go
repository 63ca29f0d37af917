package models

import (
	"time"

	"gorm.io/gorm"
)

// VisibilityScope controls who can see a reel.
type VisibilityScope string

const (
	VisibilityPublic  VisibilityScope = "PUBLIC"
	VisibilityPrivate VisibilityScope = "PRIVATE"
)

// EngagementType classifies one user interaction with a reel.
type EngagementType string

const (
	EngagementView     EngagementType = "VIEW"
	EngagementLike     EngagementType = "LIKE"
	EngagementShare    EngagementType = "SHARE"
	EngagementBookmark EngagementType = "BOOKMARK"
)

// Reel is short-form travel video content with engagement counters and the
// shared moderation workflow. Duration is in seconds, 1..90.
type Reel struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	CreatorID    uint   `gorm:"not null;index" json:"creator_id"`
	Creator      User   `gorm:"foreignKey:CreatorID" json:"creator"`
	VideoURL     string `gorm:"not null" json:"video_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Title        string `json:"title"`
	Description  string `gorm:"type:text" json:"description"`
	Duration     int    `gorm:"not null" json:"duration"`
	LocationName string `json:"location_name"`
	Promotional  bool   `json:"promotional"`

	Visibility VisibilityScope `gorm:"type:varchar(16);not null;default:'PUBLIC'" json:"visibility"`
	Status     ApprovalStatus  `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`
	ApprovedAt *time.Time      `json:"approved_at,omitempty"`
	ApprovedBy *uint           `json:"approved_by,omitempty"`

	ViewCount  int64 `gorm:"default:0" json:"view_count"`
	ShareCount int64 `gorm:"default:0" json:"share_count"`

	// Computed at query time, not persisted.
	LikeCount    int  `gorm:"->" json:"like_count"`
	CommentCount int  `gorm:"->" json:"comment_count"`
	Liked        bool `gorm:"->" json:"liked"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ReelComment is a comment on a reel.
type ReelComment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ReelID    uint           `gorm:"not null;index" json:"reel_id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"user"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ReelEngagement records one interaction of a user with a reel. A user has at
// most one row per (reel, type); repeated views bump the reel's ViewCount
// without adding rows.
type ReelEngagement struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ReelID    uint           `gorm:"not null;uniqueIndex:idx_reel_user_type" json:"reel_id"`
	UserID    uint           `gorm:"not null;uniqueIndex:idx_reel_user_type" json:"user_id"`
	Type      EngagementType `gorm:"type:varchar(16);not null;uniqueIndex:idx_reel_user_type" json:"type"`
	CreatedAt time.Time      `json:"created_at"`
}
