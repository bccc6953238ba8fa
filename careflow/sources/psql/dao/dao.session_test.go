package dao

import (
	"context"
	"errors"
	"testing"
	"time"

	"careflow/careflow/apperrors"
)

func TestGetOrCreateSessionCreatesFreshSession(t *testing.T) {
	db := setupTestDB(t)
	alice, _ := createTestUsers(t, db)
	sessionDAO := NewSessionDAO(db)

	session, err := sessionDAO.GetOrCreateSession(context.Background(), alice, "")
	if err != nil {
		t.Fatalf("GetOrCreateSession failed: %v", err)
	}
	if session.SessionID == "" {
		t.Errorf("expected a fresh session id")
	}
	if session.UserID != alice {
		t.Errorf("expected owner %d, got %d", alice, session.UserID)
	}

	again, err := sessionDAO.GetOrCreateSession(context.Background(), alice, session.SessionID)
	if err != nil {
		t.Fatalf("resolving existing session failed: %v", err)
	}
	if again.SessionID != session.SessionID {
		t.Errorf("expected same session back")
	}
}

func TestGetOrCreateSessionRejectsForeignSession(t *testing.T) {
	db := setupTestDB(t)
	alice, bob := createTestUsers(t, db)
	sessionDAO := NewSessionDAO(db)

	session, err := sessionDAO.GetOrCreateSession(context.Background(), alice, "")
	if err != nil {
		t.Fatal(err)
	}

	_, err = sessionDAO.GetOrCreateSession(context.Background(), bob, session.SessionID)
	if !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Errorf("expected unauthorized for foreign session, got %v", err)
	}

	_, err = sessionDAO.GetOrCreateSession(context.Background(), bob, "no-such-session")
	if !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Errorf("expected unauthorized for unknown supplied session, got %v", err)
	}
}

func TestPatchSessionUpdatesScalars(t *testing.T) {
	db := setupTestDB(t)
	alice, bob := createTestUsers(t, db)
	sessionDAO := NewSessionDAO(db)

	session, err := sessionDAO.GetOrCreateSession(context.Background(), alice, "")
	if err != nil {
		t.Fatal(err)
	}

	err = sessionDAO.PatchSession(context.Background(), alice, session.SessionID, map[string]interface{}{
		"last_intent": "new_issue",
	})
	if err != nil {
		t.Fatalf("PatchSession failed: %v", err)
	}

	got, err := sessionDAO.GetOwnedSession(context.Background(), alice, session.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if got.LastIntent != "new_issue" {
		t.Errorf("expected last intent new_issue, got %q", got.LastIntent)
	}

	err = sessionDAO.PatchSession(context.Background(), bob, session.SessionID, map[string]interface{}{
		"last_intent": "general",
	})
	if !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Errorf("expected unauthorized patch to fail, got %v", err)
	}
}

func TestBindContextIsPermanent(t *testing.T) {
	db := setupTestDB(t)
	alice, _ := createTestUsers(t, db)
	sessionDAO := NewSessionDAO(db)

	session, err := sessionDAO.GetOrCreateSession(context.Background(), alice, "")
	if err != nil {
		t.Fatal(err)
	}

	if err := sessionDAO.BindContext(context.Background(), alice, session.SessionID, "ctx-1"); err != nil {
		t.Fatalf("BindContext failed: %v", err)
	}
	if err := sessionDAO.BindContext(context.Background(), alice, session.SessionID, "ctx-2"); err != nil {
		t.Fatalf("second BindContext failed: %v", err)
	}

	got, err := sessionDAO.GetOwnedSession(context.Background(), alice, session.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ContextID == nil || *got.ContextID != "ctx-1" {
		t.Errorf("expected context id to stay ctx-1, got %v", got.ContextID)
	}
}

func TestListSessionsMostRecentFirst(t *testing.T) {
	db := setupTestDB(t)
	alice, _ := createTestUsers(t, db)
	sessionDAO := NewSessionDAO(db)

	first, err := sessionDAO.GetOrCreateSession(context.Background(), alice, "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := sessionDAO.GetOrCreateSession(context.Background(), alice, "")
	if err != nil {
		t.Fatal(err)
	}

	// Touch the first session so it becomes the most recent.
	time.Sleep(5 * time.Millisecond)
	err = sessionDAO.PatchSession(context.Background(), alice, first.SessionID, map[string]interface{}{
		"last_intent": "follow_up",
	})
	if err != nil {
		t.Fatal(err)
	}

	sessions, err := sessionDAO.ListSessions(context.Background(), alice, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].SessionID != first.SessionID {
		t.Errorf("expected most recently active session first, got %s", sessions[0].SessionID)
	}
	if sessions[1].SessionID != second.SessionID {
		t.Errorf("expected older session second")
	}
}
