package models

import (
	"time"

	"gorm.io/gorm"
)

// Conversation is a direct or group chat between users.
type Conversation struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `json:"name"`
	IsGroup   bool           `gorm:"default:false" json:"is_group"`
	CreatedBy uint           `gorm:"not null" json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Participants []ConversationParticipant `gorm:"foreignKey:ConversationID" json:"participants,omitempty"`
	LastMessage  *Message                  `gorm:"-" json:"last_message,omitempty"`
}

// ConversationParticipant links a user to a conversation.
type ConversationParticipant struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	ConversationID uint       `gorm:"not null;uniqueIndex:idx_conv_user" json:"conversation_id"`
	UserID         uint       `gorm:"not null;uniqueIndex:idx_conv_user" json:"user_id"`
	User           User       `gorm:"foreignKey:UserID" json:"user"`
	JoinedAt       time.Time  `gorm:"autoCreateTime" json:"joined_at"`
	LastReadAt     *time.Time `json:"last_read_at,omitempty"`
}

// Message is a single chat message within a conversation.
type Message struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ConversationID uint           `gorm:"not null;index" json:"conversation_id"`
	SenderID       uint           `gorm:"not null;index" json:"sender_id"`
	Sender         User           `gorm:"foreignKey:SenderID" json:"sender"`
	Content        string         `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time      `json:"created_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}
