package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"careflow/careflow/apperrors"
)

type NotificationType string

const (
	TypeCareReminder        NotificationType = "care_reminder"
	TypeFollowUp            NotificationType = "follow_up"
	TypeMedicationReminder  NotificationType = "medication_reminder"
	TypeAppointmentReminder NotificationType = "appointment_reminder"
	TypeSystem              NotificationType = "system"
)

func (t NotificationType) Valid() bool {
	switch t {
	case TypeCareReminder, TypeFollowUp, TypeMedicationReminder, TypeAppointmentReminder, TypeSystem:
		return true
	}
	return false
}

type NotificationStatus string

const (
	StatusPending   NotificationStatus = "pending"
	StatusSent      NotificationStatus = "sent"
	StatusDelivered NotificationStatus = "delivered"
	StatusFailed    NotificationStatus = "failed"
)

type DeliveryMethod string

const (
	MethodEmail DeliveryMethod = "email"
	MethodPush  DeliveryMethod = "push"
	MethodSMS   DeliveryMethod = "sms"
)

func (m DeliveryMethod) Valid() bool {
	return m == MethodEmail || m == MethodPush || m == MethodSMS
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityNormal || p == PriorityHigh || p == PriorityUrgent
}

type InteractionKind string

const (
	InteractionOpened    InteractionKind = "opened"
	InteractionClicked   InteractionKind = "clicked"
	InteractionResponded InteractionKind = "responded"
)

// Notification is a scheduled outbound reminder. ContextID is a weak
// reference to a chat session's issue context: lookup only, deleting the
// session does not cascade here.
type Notification struct {
	ID     uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	UserID int              `json:"user_id" gorm:"not null;index"`
	User   User             `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Type   NotificationType `json:"type" gorm:"type:varchar(50);not null"`
	Status NotificationStatus `json:"status" gorm:"type:varchar(20);not null;index"`

	Title   string `json:"title" gorm:"type:varchar(255);not null"`
	Message string `json:"message" gorm:"type:text;not null"`

	// Delivery descriptor
	Method       DeliveryMethod `json:"method" gorm:"type:varchar(20);not null"`
	ScheduledFor time.Time      `json:"scheduled_for" gorm:"not null;index"`
	SentAt       *time.Time     `json:"sent_at,omitempty"`
	DeliveredAt  *time.Time     `json:"delivered_at,omitempty"`
	Attempts     int            `json:"attempts" gorm:"not null;default:0"`
	MaxAttempts  int            `json:"max_attempts" gorm:"not null;default:3"`
	LastError    string         `json:"last_error,omitempty" gorm:"type:text"`

	// Metadata
	ContextID      *string  `json:"context_id,omitempty" gorm:"type:varchar(255)"`
	CarePlanID     *string  `json:"care_plan_id,omitempty" gorm:"type:varchar(255)"`
	Priority       Priority `json:"priority" gorm:"type:varchar(20);not null;default:'normal'"`
	Category       string   `json:"category,omitempty" gorm:"type:varchar(100)"`
	ActionRequired bool     `json:"action_required" gorm:"not null;default:false"`

	// User interaction record, each flag settable once, never cleared.
	Opened      bool       `json:"opened" gorm:"not null;default:false"`
	OpenedAt    *time.Time `json:"opened_at,omitempty"`
	Clicked     bool       `json:"clicked" gorm:"not null;default:false"`
	ClickedAt   *time.Time `json:"clicked_at,omitempty"`
	Responded   bool       `json:"responded" gorm:"not null;default:false"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// NewNotification validates the closed enums up front so an invalid value
// can never reach the table.
func NewNotification(userID int, typ NotificationType, method DeliveryMethod, title, message string, scheduledFor time.Time) (*Notification, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id", apperrors.ErrValidation)
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: notification type %q", apperrors.ErrValidation, typ)
	}
	if !method.Valid() {
		return nil, fmt.Errorf("%w: delivery method %q", apperrors.ErrValidation, method)
	}
	if title == "" || message == "" {
		return nil, fmt.Errorf("%w: empty title or message", apperrors.ErrValidation)
	}
	return &Notification{
		ID:           uuid.New(),
		UserID:       userID,
		Type:         typ,
		Status:       StatusPending,
		Title:        title,
		Message:      message,
		Method:       method,
		ScheduledFor: scheduledFor,
		MaxAttempts:  3,
		Priority:     PriorityNormal,
	}, nil
}

// MarkSent moves pending → sent.
func (n *Notification) MarkSent(now time.Time) error {
	if n.Status != StatusPending {
		return fmt.Errorf("%w: cannot mark sent from %s", apperrors.ErrValidation, n.Status)
	}
	n.Status = StatusSent
	n.SentAt = &now
	return nil
}

// MarkDelivered moves sent → delivered. Calling it again is a no-op; once
// delivered the status and DeliveredAt never change.
func (n *Notification) MarkDelivered(now time.Time) error {
	if n.Status == StatusDelivered {
		return nil
	}
	if n.Status != StatusSent {
		return fmt.Errorf("%w: cannot mark delivered from %s", apperrors.ErrValidation, n.Status)
	}
	n.Status = StatusDelivered
	n.DeliveredAt = &now
	return nil
}

// MarkFailed records a failed delivery attempt. The notification only
// reaches failed once attempts hit MaxAttempts; before that it returns to
// pending with ScheduledFor pushed out by an exponential backoff
// (baseBackoff doubled per prior attempt).
func (n *Notification) MarkFailed(reason string, now time.Time, baseBackoff time.Duration) error {
	if n.Status == StatusDelivered {
		return fmt.Errorf("%w: cannot fail a delivered notification", apperrors.ErrValidation)
	}
	if n.Attempts >= n.MaxAttempts {
		return fmt.Errorf("%w: attempts exhausted", apperrors.ErrValidation)
	}
	n.Attempts++
	n.LastError = reason
	if n.Attempts >= n.MaxAttempts {
		n.Status = StatusFailed
		return nil
	}
	n.Status = StatusPending
	n.SentAt = nil
	n.ScheduledFor = now.Add(baseBackoff << (n.Attempts - 1))
	return nil
}

// IsOverdue is derived, never stored.
func (n *Notification) IsOverdue(now time.Time) bool {
	return n.Status == StatusPending && n.ScheduledFor.Before(now)
}

// RecordInteraction sets a one-way interaction flag. Flags only move
// forward; recording an already-set kind leaves its timestamp untouched.
func (n *Notification) RecordInteraction(kind InteractionKind, now time.Time) error {
	switch kind {
	case InteractionOpened:
		if !n.Opened {
			n.Opened = true
			n.OpenedAt = &now
		}
	case InteractionClicked:
		if !n.Clicked {
			n.Clicked = true
			n.ClickedAt = &now
		}
	case InteractionResponded:
		if !n.Responded {
			n.Responded = true
			n.RespondedAt = &now
		}
	default:
		return fmt.Errorf("%w: interaction kind %q", apperrors.ErrValidation, kind)
	}
	return nil
}
