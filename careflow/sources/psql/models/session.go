package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatSession is one continuous health conversation for a user. ContextID
// is the issue-context id: empty until the intake engine opens a health
// issue, then bound for the life of the session and never rebound.
type ChatSession struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID    string    `json:"session_id" gorm:"type:varchar(255);not null;unique"`
	UserID       int       `json:"user_id" gorm:"not null;index"`
	User         User      `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	LastIntent   string    `json:"last_intent" gorm:"type:varchar(50)"`
	ContextID    *string   `json:"context_id,omitempty" gorm:"type:varchar(255)"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	LastActiveAt time.Time `json:"last_active_at" gorm:"autoUpdateTime"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}

func (s *ChatSession) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
