package models

import (
	"errors"
	"testing"
	"time"

	"careflow/careflow/apperrors"
)

func pendingNotification(t *testing.T) *Notification {
	n, err := NewNotification(1, TypeFollowUp, MethodPush, "How are you feeling?", "Checking in.", time.Now())
	if err != nil {
		t.Fatalf("NewNotification failed: %v", err)
	}
	return n
}

func TestNewNotificationRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		userID int
		typ    NotificationType
		method DeliveryMethod
		title  string
	}{
		{"bad type", 1, NotificationType("newsletter"), MethodEmail, "t"},
		{"bad method", 1, TypeSystem, DeliveryMethod("fax"), "t"},
		{"no user", 0, TypeSystem, MethodEmail, "t"},
		{"empty title", 1, TypeSystem, MethodEmail, ""},
	}
	for _, c := range cases {
		_, err := NewNotification(c.userID, c.typ, c.method, c.title, "m", time.Now())
		if !errors.Is(err, apperrors.ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", c.name, err)
		}
	}
}

func TestMarkSentOnlyFromPending(t *testing.T) {
	n := pendingNotification(t)
	now := time.Now()
	if err := n.MarkSent(now); err != nil {
		t.Fatalf("MarkSent from pending failed: %v", err)
	}
	if n.Status != StatusSent || n.SentAt == nil {
		t.Errorf("expected sent status with SentAt, got %s %v", n.Status, n.SentAt)
	}
	if err := n.MarkSent(now); err == nil {
		t.Errorf("expected MarkSent from sent to fail")
	}
}

func TestMarkDeliveredIsIdempotent(t *testing.T) {
	n := pendingNotification(t)
	if err := n.MarkDelivered(time.Now()); err == nil {
		t.Fatalf("expected MarkDelivered from pending to fail")
	}
	if err := n.MarkSent(time.Now()); err != nil {
		t.Fatal(err)
	}
	first := time.Now()
	if err := n.MarkDelivered(first); err != nil {
		t.Fatalf("MarkDelivered failed: %v", err)
	}
	if err := n.MarkDelivered(first.Add(time.Hour)); err != nil {
		t.Fatalf("second MarkDelivered should be a no-op, got %v", err)
	}
	if n.Status != StatusDelivered {
		t.Errorf("expected delivered, got %s", n.Status)
	}
	if !n.DeliveredAt.Equal(first) {
		t.Errorf("DeliveredAt changed on second call: %v != %v", n.DeliveredAt, first)
	}
}

func TestMarkFailedRetriesThenExhausts(t *testing.T) {
	n := pendingNotification(t)
	base := 5 * time.Minute
	now := time.Now()

	if err := n.MarkFailed("smtp timeout", now, base); err != nil {
		t.Fatal(err)
	}
	if n.Status != StatusPending {
		t.Errorf("after 1 failure expected pending, got %s", n.Status)
	}
	if n.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", n.Attempts)
	}
	if got := n.ScheduledFor; !got.Equal(now.Add(base)) {
		t.Errorf("expected backoff %v, got %v", now.Add(base), got)
	}

	if err := n.MarkFailed("smtp timeout", now, base); err != nil {
		t.Fatal(err)
	}
	if n.Status != StatusPending || n.Attempts != 2 {
		t.Errorf("after 2 failures expected pending/2, got %s/%d", n.Status, n.Attempts)
	}
	if got := n.ScheduledFor; !got.Equal(now.Add(2 * base)) {
		t.Errorf("expected doubled backoff %v, got %v", now.Add(2*base), got)
	}

	if err := n.MarkFailed("smtp timeout", now, base); err != nil {
		t.Fatal(err)
	}
	if n.Status != StatusFailed || n.Attempts != 3 {
		t.Errorf("after 3 failures expected failed/3, got %s/%d", n.Status, n.Attempts)
	}

	// Attempts can never pass MaxAttempts.
	if err := n.MarkFailed("smtp timeout", now, base); err == nil {
		t.Errorf("expected failure past MaxAttempts to be rejected")
	}
	if n.Attempts != 3 {
		t.Errorf("attempts exceeded max: %d", n.Attempts)
	}
}

func TestIsOverdue(t *testing.T) {
	n := pendingNotification(t)
	n.ScheduledFor = time.Now().Add(-time.Minute)
	if !n.IsOverdue(time.Now()) {
		t.Errorf("expected overdue")
	}
	n.ScheduledFor = time.Now().Add(time.Minute)
	if n.IsOverdue(time.Now()) {
		t.Errorf("future notification should not be overdue")
	}
	n.ScheduledFor = time.Now().Add(-time.Minute)
	if err := n.MarkSent(time.Now()); err != nil {
		t.Fatal(err)
	}
	if n.IsOverdue(time.Now()) {
		t.Errorf("sent notification should not be overdue")
	}
}

func TestRecordInteractionIsMonotonic(t *testing.T) {
	n := pendingNotification(t)
	first := time.Now()
	if err := n.RecordInteraction(InteractionOpened, first); err != nil {
		t.Fatal(err)
	}
	if !n.Opened || n.OpenedAt == nil {
		t.Fatalf("expected opened flag set")
	}
	if err := n.RecordInteraction(InteractionOpened, first.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if !n.OpenedAt.Equal(first) {
		t.Errorf("OpenedAt moved on second record: %v != %v", n.OpenedAt, first)
	}
	if err := n.RecordInteraction(InteractionKind("forwarded"), first); err == nil {
		t.Errorf("expected unknown interaction kind to be rejected")
	}
}
