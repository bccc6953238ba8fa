package notify

import (
	"context"
	"fmt"

	"careflow/careflow/apperrors"
	"careflow/careflow/sources/psql/models"
	httputils "careflow/careflow/utils/http"
)

// Provider transmits one notification over a single channel. A returned
// error (including a deadline hit) counts as one failed delivery attempt.
type Provider interface {
	Send(ctx context.Context, n *models.Notification) error
}

type deliveryPayload struct {
	NotificationID string `json:"notification_id"`
	UserID         int    `json:"user_id"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	Priority       string `json:"priority"`
	Category       string `json:"category,omitempty"`
	ActionRequired bool   `json:"action_required"`
}

// WebhookProvider posts notifications to the delivery gateway, one route
// per channel (email/push/sms).
type WebhookProvider struct {
	endpoint string
}

func NewWebhookProvider(baseURL string, method models.DeliveryMethod) *WebhookProvider {
	return &WebhookProvider{endpoint: baseURL + "/deliver/" + string(method)}
}

func (p *WebhookProvider) Send(ctx context.Context, n *models.Notification) error {
	payload := deliveryPayload{
		NotificationID: n.ID.String(),
		UserID:         n.UserID,
		Title:          n.Title,
		Message:        n.Message,
		Priority:       string(n.Priority),
		Category:       n.Category,
		ActionRequired: n.ActionRequired,
	}
	if err := httputils.PostJSON(ctx, p.endpoint, payload, nil); err != nil {
		return fmt.Errorf("%w: %s: %v", apperrors.ErrDelivery, n.Method, err)
	}
	return nil
}

// NewProviderSet wires one webhook provider per supported channel.
func NewProviderSet(baseURL string) map[models.DeliveryMethod]Provider {
	return map[models.DeliveryMethod]Provider{
		models.MethodEmail: NewWebhookProvider(baseURL, models.MethodEmail),
		models.MethodPush:  NewWebhookProvider(baseURL, models.MethodPush),
		models.MethodSMS:   NewWebhookProvider(baseURL, models.MethodSMS),
	}
}
