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

type NotificationDAO struct {
	DB *gorm.DB
}

func NewNotificationDAO(db *gorm.DB) *NotificationDAO {
	return &NotificationDAO{DB: db}
}

func (dao *NotificationDAO) Create(ctx context.Context, n *models.Notification) error {
	return dao.DB.WithContext(ctx).Create(n).Error
}

func (dao *NotificationDAO) GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	var n models.Notification
	err := dao.DB.WithContext(ctx).First(&n, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (dao *NotificationDAO) GetOwnedByID(ctx context.Context, userID int, id uuid.UUID) (*models.Notification, error) {
	n, err := dao.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, apperrors.ErrUnauthorized
	}
	return n, nil
}

func (dao *NotificationDAO) ListByUser(ctx context.Context, userID int, limit int) ([]models.Notification, error) {
	var ns []models.Notification
	q := dao.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("scheduled_for DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&ns).Error; err != nil {
		return nil, err
	}
	return ns, nil
}

// SelectDue returns deliverable notifications: pending, due, and with
// attempts left. Ordered oldest-due first so starved reminders go out
// before fresh ones.
func (dao *NotificationDAO) SelectDue(ctx context.Context, now time.Time) ([]models.Notification, error) {
	var ns []models.Notification
	err := dao.DB.WithContext(ctx).
		Where("status = ? AND scheduled_for <= ? AND attempts < max_attempts", models.StatusPending, now).
		Order("scheduled_for ASC").
		Find(&ns).Error
	if err != nil {
		return nil, err
	}
	return ns, nil
}

// ClaimForSend performs the pending → sent transition as an atomic
// conditional update. Overlapping sweeps race here and exactly one wins;
// the losers see zero rows affected and skip the id.
func (dao *NotificationDAO) ClaimForSend(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	res := dao.DB.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND status = ? AND attempts < max_attempts", id, models.StatusPending).
		Updates(map[string]interface{}{"status": models.StatusSent, "sent_at": now})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Save persists the full state of a notification after a state machine
// transition on the model.
func (dao *NotificationDAO) Save(ctx context.Context, n *models.Notification) error {
	return dao.DB.WithContext(ctx).Save(n).Error
}

// Cancel withdraws a pending notification (e.g. its care plan was removed).
// Once sent or later there is nothing to withdraw.
func (dao *NotificationDAO) Cancel(ctx context.Context, userID int, id uuid.UUID) error {
	if _, err := dao.GetOwnedByID(ctx, userID, id); err != nil {
		return err
	}
	res := dao.DB.WithContext(ctx).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, models.StatusPending).
		Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrValidation
	}
	return nil
}
