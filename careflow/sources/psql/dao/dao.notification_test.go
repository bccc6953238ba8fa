package dao

import (
	"context"
	"errors"
	"testing"
	"time"

	"careflow/careflow/apperrors"
	"careflow/careflow/sources/psql/models"
)

func scheduleTestNotification(t *testing.T, notifDAO *NotificationDAO, userID int, scheduledFor time.Time) *models.Notification {
	n, err := models.NewNotification(userID, models.TypeMedicationReminder, models.MethodEmail, "Medication reminder", "Time to take your medication.", scheduledFor)
	if err != nil {
		t.Fatal(err)
	}
	if err := notifDAO.Create(context.Background(), n); err != nil {
		t.Fatalf("create notification failed: %v", err)
	}
	return n
}

func TestSelectDueFilters(t *testing.T) {
	db := setupTestDB(t)
	alice, _ := createTestUsers(t, db)
	notifDAO := NewNotificationDAO(db)

	due := scheduleTestNotification(t, notifDAO, alice, time.Now().Add(-time.Minute))
	scheduleTestNotification(t, notifDAO, alice, time.Now().Add(time.Hour)) // future

	exhausted := scheduleTestNotification(t, notifDAO, alice, time.Now().Add(-time.Minute))
	exhausted.Attempts = exhausted.MaxAttempts
	exhausted.Status = models.StatusFailed
	if err := notifDAO.Save(context.Background(), exhausted); err != nil {
		t.Fatal(err)
	}

	got, err := notifDAO.SelectDue(context.Background(), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected exactly the due notification, got %d", len(got))
	}
	if got[0].ID != due.ID {
		t.Errorf("wrong notification selected")
	}
	for _, n := range got {
		if n.Attempts >= n.MaxAttempts {
			t.Errorf("SelectDue returned an exhausted notification")
		}
	}
}

func TestClaimForSendIsAtomic(t *testing.T) {
	db := setupTestDB(t)
	alice, _ := createTestUsers(t, db)
	notifDAO := NewNotificationDAO(db)

	n := scheduleTestNotification(t, notifDAO, alice, time.Now().Add(-time.Minute))

	claimed, err := notifDAO.ClaimForSend(context.Background(), n.ID, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !claimed {
		t.Fatalf("first claim should win")
	}

	claimed, err = notifDAO.ClaimForSend(context.Background(), n.ID, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if claimed {
		t.Errorf("second claim must lose: notification already sent")
	}

	got, err := notifDAO.GetByID(context.Background(), n.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusSent || got.SentAt == nil {
		t.Errorf("expected sent with SentAt, got %s %v", got.Status, got.SentAt)
	}
}

func TestCancelOnlyWhilePending(t *testing.T) {
	db := setupTestDB(t)
	alice, bob := createTestUsers(t, db)
	notifDAO := NewNotificationDAO(db)

	n := scheduleTestNotification(t, notifDAO, alice, time.Now().Add(time.Hour))

	if err := notifDAO.Cancel(context.Background(), bob, n.ID); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Errorf("expected unauthorized cancel by other user, got %v", err)
	}

	if err := notifDAO.Cancel(context.Background(), alice, n.ID); err != nil {
		t.Fatalf("cancel of pending notification failed: %v", err)
	}
	if _, err := notifDAO.GetByID(context.Background(), n.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected cancelled notification gone, got %v", err)
	}

	sent := scheduleTestNotification(t, notifDAO, alice, time.Now().Add(-time.Minute))
	if _, err := notifDAO.ClaimForSend(context.Background(), sent.ID, time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := notifDAO.Cancel(context.Background(), alice, sent.ID); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("expected cancel of sent notification to fail, got %v", err)
	}
}
