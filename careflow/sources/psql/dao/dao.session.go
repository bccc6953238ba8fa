package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"careflow/careflow/apperrors"
	"careflow/careflow/sources/psql/models"
)

// SessionDAO is the session half of the context store: resolution,
// ownership checks, issue-context binding and scalar patches. Transcript
// turns live in ChatMessageDAO.
type SessionDAO struct {
	DB *gorm.DB
}

func NewSessionDAO(db *gorm.DB) *SessionDAO {
	return &SessionDAO{DB: db}
}

func (dao *SessionDAO) CreateSessionID() string {
	return uuid.New().String()
}

// GetOrCreateSession resolves the active session for a user. A supplied
// sessionID must resolve to a session owned by that user; anything else is
// unauthorized. An empty sessionID creates a fresh session.
func (dao *SessionDAO) GetOrCreateSession(ctx context.Context, userID int, sessionID string) (*models.ChatSession, error) {
	if sessionID == "" {
		session := models.ChatSession{
			SessionID:    dao.CreateSessionID(),
			UserID:       userID,
			LastActiveAt: time.Now(),
		}
		if err := dao.DB.WithContext(ctx).Create(&session).Error; err != nil {
			return nil, err
		}
		return &session, nil
	}

	var session models.ChatSession
	err := dao.DB.WithContext(ctx).Where("session_id = ?", sessionID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, apperrors.ErrUnauthorized
	}
	return &session, nil
}

// GetOwnedSession looks up an existing session and enforces ownership.
func (dao *SessionDAO) GetOwnedSession(ctx context.Context, userID int, sessionID string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := dao.DB.WithContext(ctx).Where("session_id = ?", sessionID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, apperrors.ErrUnauthorized
	}
	return &session, nil
}

// PatchSession merges scalar fields (last intent etc.) without touching the
// transcript. Every patch bumps last_active_at.
func (dao *SessionDAO) PatchSession(ctx context.Context, userID int, sessionID string, fields map[string]interface{}) error {
	if _, err := dao.GetOwnedSession(ctx, userID, sessionID); err != nil {
		return err
	}
	fields["last_active_at"] = time.Now()
	return dao.DB.WithContext(ctx).
		Model(&models.ChatSession{}).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Updates(fields).Error
}

// BindContext binds an issue-context id to a session that has none yet.
// Once bound the id is permanent; binding again is a no-op.
func (dao *SessionDAO) BindContext(ctx context.Context, userID int, sessionID string, contextID string) error {
	if contextID == "" {
		return nil
	}
	return dao.DB.WithContext(ctx).
		Model(&models.ChatSession{}).
		Where("session_id = ? AND user_id = ? AND context_id IS NULL", sessionID, userID).
		Updates(map[string]interface{}{"context_id": contextID, "last_active_at": time.Now()}).Error
}

// ListSessions returns session summaries, most recently active first.
func (dao *SessionDAO) ListSessions(ctx context.Context, userID int, limit int) ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	q := dao.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_active_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// DeleteSession removes one session and its transcript.
func (dao *SessionDAO) DeleteSession(ctx context.Context, userID int, sessionID string) error {
	if _, err := dao.GetOwnedSession(ctx, userID, sessionID); err != nil {
		return err
	}
	return dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		return tx.Where("session_id = ? AND user_id = ?", sessionID, userID).Delete(&models.ChatSession{}).Error
	})
}
