package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

func (r MessageRole) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// EngineTag marks which conversational engine produced an assistant turn.
type EngineTag string

const (
	EnginePrimary   EngineTag = "primary"
	EngineSecondary EngineTag = "secondary"
)

// ChatMessage is one turn of a session transcript. Rows are append-only;
// nothing in the codebase updates or deletes them individually.
type ChatMessage struct {
	ID           uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID    string      `json:"session_id" gorm:"type:varchar(255);not null;index"`
	UserID       int         `json:"user_id" gorm:"not null"`
	User         User        `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Role         MessageRole `json:"role" gorm:"type:varchar(50);not null"`
	Content      string      `json:"content" gorm:"type:text;not null"`
	Engine       *EngineTag  `json:"engine,omitempty" gorm:"type:varchar(20)"`
	Intent       *string     `json:"intent,omitempty" gorm:"type:varchar(50)"`
	Confidence   *float64    `json:"confidence,omitempty"`
	ProcessingMs *int64      `json:"processing_ms,omitempty"`
	Timestamp    time.Time   `json:"timestamp" gorm:"not null"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	return nil
}
