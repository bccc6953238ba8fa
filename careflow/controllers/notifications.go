package controllers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"careflow/careflow/services/notify"
	"careflow/careflow/sources/psql/dao"
	"careflow/careflow/sources/psql/models"
	"careflow/careflow/types"
)

type NotificationController struct {
	notifDAO  *dao.NotificationDAO
	templates notify.Templates
}

func NewNotificationController(notifDAO *dao.NotificationDAO, templates notify.Templates) *NotificationController {
	return &NotificationController{notifDAO: notifDAO, templates: templates}
}

func (c *NotificationController) List(ctx context.Context, userID int, limit int) ([]models.Notification, error) {
	return c.notifDAO.ListByUser(ctx, userID, limit)
}

func (c *NotificationController) Get(ctx context.Context, userID int, id uuid.UUID) (*models.Notification, error) {
	return c.notifDAO.GetOwnedByID(ctx, userID, id)
}

// Schedule creates a pending notification. Title/message fall back to the
// per-type template when the request leaves them empty.
func (c *NotificationController) Schedule(ctx context.Context, userID int, req types.ScheduleNotificationRequest) (*models.Notification, error) {
	title := req.Title
	message := req.Message
	if title == "" || message == "" {
		t, m := c.templates.Render(models.NotificationType(req.Type), req.TemplateArgs)
		if title == "" {
			title = t
		}
		if message == "" {
			message = m
		}
	}

	scheduledFor := time.Now()
	if req.ScheduledFor != "" {
		parsed, err := time.Parse(time.RFC3339, req.ScheduledFor)
		if err == nil {
			scheduledFor = parsed
		}
	}

	n, err := models.NewNotification(userID, models.NotificationType(req.Type), models.DeliveryMethod(req.Method), title, message, scheduledFor)
	if err != nil {
		return nil, err
	}
	if req.ContextID != "" {
		n.ContextID = &req.ContextID
	}
	if req.CarePlanID != "" {
		n.CarePlanID = &req.CarePlanID
	}
	if req.Priority != "" {
		p := models.Priority(req.Priority)
		if p.Valid() {
			n.Priority = p
		}
	}
	n.Category = req.Category
	n.ActionRequired = req.ActionRequired

	if err := c.notifDAO.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// RecordInteraction marks a one-way opened/clicked/responded flag.
func (c *NotificationController) RecordInteraction(ctx context.Context, userID int, id uuid.UUID, kind string) (*models.Notification, error) {
	n, err := c.notifDAO.GetOwnedByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := n.RecordInteraction(models.InteractionKind(kind), time.Now()); err != nil {
		return nil, err
	}
	if err := c.notifDAO.Save(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Cancel withdraws a still-pending notification.
func (c *NotificationController) Cancel(ctx context.Context, userID int, id uuid.UUID) error {
	return c.notifDAO.Cancel(ctx, userID, id)
}
