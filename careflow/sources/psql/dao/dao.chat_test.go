package dao

import (
	"context"
	"errors"
	"testing"

	"careflow/careflow/apperrors"
	"careflow/careflow/sources/psql/models"
)

func TestAppendTurnPreservesOrderAndTimestamps(t *testing.T) {
	db := setupTestDB(t)
	alice, _ := createTestUsers(t, db)
	sessionDAO := NewSessionDAO(db)
	chatDAO := NewChatMessageDAO(db)

	session, err := sessionDAO.GetOrCreateSession(context.Background(), alice, "")
	if err != nil {
		t.Fatal(err)
	}

	userTurn := &models.ChatMessage{Role: models.RoleUser, Content: "my knee hurts"}
	if err := chatDAO.AppendTurn(context.Background(), alice, session.SessionID, userTurn, ""); err != nil {
		t.Fatalf("append user turn failed: %v", err)
	}
	assistantTurn := &models.ChatMessage{Role: models.RoleAssistant, Content: "how long has it hurt?"}
	if err := chatDAO.AppendTurn(context.Background(), alice, session.SessionID, assistantTurn, ""); err != nil {
		t.Fatalf("append assistant turn failed: %v", err)
	}

	if assistantTurn.Timestamp.Before(userTurn.Timestamp) {
		t.Errorf("assistant timestamp precedes user timestamp")
	}

	history, err := chatDAO.GetHistory(context.Background(), session.SessionID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(history))
	}
	// Most recent first.
	if history[0].Role != models.RoleAssistant || history[1].Role != models.RoleUser {
		t.Errorf("retrieval order wrong: %s then %s", history[0].Role, history[1].Role)
	}
}

func TestAppendTurnBindsContextOnce(t *testing.T) {
	db := setupTestDB(t)
	alice, _ := createTestUsers(t, db)
	sessionDAO := NewSessionDAO(db)
	chatDAO := NewChatMessageDAO(db)

	session, err := sessionDAO.GetOrCreateSession(context.Background(), alice, "")
	if err != nil {
		t.Fatal(err)
	}

	turn := &models.ChatMessage{Role: models.RoleAssistant, Content: "sounds like a new issue"}
	if err := chatDAO.AppendTurn(context.Background(), alice, session.SessionID, turn, "ctx-1"); err != nil {
		t.Fatal(err)
	}
	turn2 := &models.ChatMessage{Role: models.RoleAssistant, Content: "another answer"}
	if err := chatDAO.AppendTurn(context.Background(), alice, session.SessionID, turn2, "ctx-2"); err != nil {
		t.Fatal(err)
	}

	got, err := sessionDAO.GetOwnedSession(context.Background(), alice, session.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ContextID == nil || *got.ContextID != "ctx-1" {
		t.Errorf("expected context id ctx-1 to survive, got %v", got.ContextID)
	}
}

func TestAppendTurnChecksOwnershipAndRole(t *testing.T) {
	db := setupTestDB(t)
	alice, bob := createTestUsers(t, db)
	sessionDAO := NewSessionDAO(db)
	chatDAO := NewChatMessageDAO(db)

	session, err := sessionDAO.GetOrCreateSession(context.Background(), alice, "")
	if err != nil {
		t.Fatal(err)
	}

	turn := &models.ChatMessage{Role: models.RoleUser, Content: "hello"}
	err = chatDAO.AppendTurn(context.Background(), bob, session.SessionID, turn, "")
	if !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Errorf("expected unauthorized append, got %v", err)
	}

	bad := &models.ChatMessage{Role: models.MessageRole("system"), Content: "hello"}
	err = chatDAO.AppendTurn(context.Background(), alice, session.SessionID, bad, "")
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("expected validation error for bad role, got %v", err)
	}

	err = chatDAO.AppendTurn(context.Background(), alice, "no-such-session", turn, "")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected not found for unknown session, got %v", err)
	}
}

func TestGetHistoryForUserEnforcesOwnership(t *testing.T) {
	db := setupTestDB(t)
	alice, bob := createTestUsers(t, db)
	sessionDAO := NewSessionDAO(db)
	chatDAO := NewChatMessageDAO(db)

	session, err := sessionDAO.GetOrCreateSession(context.Background(), alice, "")
	if err != nil {
		t.Fatal(err)
	}
	turn := &models.ChatMessage{Role: models.RoleUser, Content: "private things"}
	if err := chatDAO.AppendTurn(context.Background(), alice, session.SessionID, turn, ""); err != nil {
		t.Fatal(err)
	}

	_, err = chatDAO.GetHistoryForUser(context.Background(), bob, session.SessionID, 10)
	if !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Errorf("expected unauthorized, got %v", err)
	}

	_, err = chatDAO.GetHistory(context.Background(), "no-such-session", 10)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestGetHistoryHonorsLimit(t *testing.T) {
	db := setupTestDB(t)
	alice, _ := createTestUsers(t, db)
	sessionDAO := NewSessionDAO(db)
	chatDAO := NewChatMessageDAO(db)

	session, err := sessionDAO.GetOrCreateSession(context.Background(), alice, "")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		turn := &models.ChatMessage{Role: models.RoleUser, Content: "turn"}
		if err := chatDAO.AppendTurn(context.Background(), alice, session.SessionID, turn, ""); err != nil {
			t.Fatal(err)
		}
	}

	history, err := chatDAO.GetHistory(context.Background(), session.SessionID, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 3 {
		t.Errorf("expected 3 turns, got %d", len(history))
	}
}
