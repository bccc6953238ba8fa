package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"careflow/careflow/apperrors"
	"careflow/careflow/sources/psql/models"
)

// ChatMessageDAO owns the append-only transcript of each session.
type ChatMessageDAO struct {
	DB *gorm.DB
}

func NewChatMessageDAO(db *gorm.DB) *ChatMessageDAO {
	return &ChatMessageDAO{DB: db}
}

// AppendTurn appends one immutable turn to the session transcript. If
// issueContextID is non-empty and the session has no context yet it is
// bound permanently in the same transaction. The session's last_active_at
// is bumped on every append.
func (dao *ChatMessageDAO) AppendTurn(ctx context.Context, userID int, sessionID string, turn *models.ChatMessage, issueContextID string) error {
	if !turn.Role.Valid() {
		return apperrors.ErrValidation
	}
	return dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session models.ChatSession
		err := tx.Where("session_id = ?", sessionID).First(&session).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound
		}
		if err != nil {
			return err
		}
		if session.UserID != userID {
			return apperrors.ErrUnauthorized
		}

		turn.SessionID = sessionID
		turn.UserID = userID
		if err := tx.Create(turn).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{"last_active_at": time.Now()}
		if issueContextID != "" && session.ContextID == nil {
			updates["context_id"] = issueContextID
		}
		return tx.Model(&models.ChatSession{}).
			Where("session_id = ?", sessionID).
			Updates(updates).Error
	})
}

// GetHistory returns the most recent turns of a session, newest first,
// bounded by limit. Unknown sessions are NotFound; ownership is the
// caller's concern (see GetHistoryForUser).
func (dao *ChatMessageDAO) GetHistory(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error) {
	var count int64
	if err := dao.DB.WithContext(ctx).
		Model(&models.ChatSession{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, apperrors.ErrNotFound
	}

	var msgs []models.ChatMessage
	q := dao.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// GetHistoryForUser is GetHistory with the ownership check applied first.
func (dao *ChatMessageDAO) GetHistoryForUser(ctx context.Context, userID int, sessionID string, limit int) ([]models.ChatMessage, error) {
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
	return dao.GetHistory(ctx, sessionID, limit)
}

// GetTranscript returns the full transcript oldest-first, as fed to the
// engines and the archive exporter.
func (dao *ChatMessageDAO) GetTranscript(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := dao.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp ASC, id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}
