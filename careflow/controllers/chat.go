package controllers

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"careflow/careflow/apperrors"
	"careflow/careflow/services/intent"
	"careflow/careflow/services/notify"
	"careflow/careflow/services/router"
	"careflow/careflow/sources/psql/dao"
	"careflow/careflow/sources/psql/models"
	"careflow/careflow/types"
	"careflow/careflow/utils/locks"
	"careflow/careflow/utils/logging"
)

// followUpDelay is how long after a new health issue opens before the
// follow-up reminder goes out.
const followUpDelay = 24 * time.Hour

// TranscriptArchiver exports closed-session transcripts to object storage.
type TranscriptArchiver interface {
	UploadTranscript(ctx context.Context, userID int, sessionID, contextID string, turns []models.ChatMessage) (string, error)
}

// ChatController runs the classify → route → append pipeline for inbound
// messages. The per-session lock keeps two in-flight messages for one
// session from interleaving their read-modify-write of session state.
type ChatController struct {
	sessionDAO   *dao.SessionDAO
	chatDAO      *dao.ChatMessageDAO
	notifDAO     *dao.NotificationDAO
	classifier   *intent.Classifier
	router       *router.Router
	templates    notify.Templates
	archiver     TranscriptArchiver
	sessionLocks *locks.KeyedMutex
}

func NewChatController(sessionDAO *dao.SessionDAO, chatDAO *dao.ChatMessageDAO, notifDAO *dao.NotificationDAO, classifier *intent.Classifier, rt *router.Router, templates notify.Templates, archiver TranscriptArchiver) *ChatController {
	return &ChatController{
		sessionDAO:   sessionDAO,
		chatDAO:      chatDAO,
		notifDAO:     notifDAO,
		classifier:   classifier,
		router:       rt,
		templates:    templates,
		archiver:     archiver,
		sessionLocks: locks.NewKeyedMutex(),
	}
}

func (c *ChatController) Chat(ctx context.Context, userID int, req types.ChatRequest) (*types.ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, apperrors.ErrValidation
	}

	session, err := c.sessionDAO.GetOrCreateSession(ctx, userID, req.SessionID)
	if err != nil {
		return nil, err
	}
	sessionID := session.SessionID

	unlock := c.sessionLocks.Lock(sessionID)
	defer unlock()

	// Re-read under the lock so the snapshot reflects any turn that
	// finished while we waited.
	session, err = c.sessionDAO.GetOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	transcript, err := c.chatDAO.GetTranscript(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	snap := snapshotOf(session, transcript)

	res := c.classifier.Classify(ctx, req.Message, snap)

	// The user turn is recorded before the engine runs; an engine failure
	// must not lose what the user said.
	intentStr := string(res.Label)
	userTurn := &models.ChatMessage{
		Role:       models.RoleUser,
		Content:    req.Message,
		Intent:     &intentStr,
		Confidence: &res.Confidence,
	}
	if err := c.chatDAO.AppendTurn(ctx, userID, sessionID, userTurn, ""); err != nil {
		return nil, err
	}

	routed, err := c.router.Route(ctx, res, req.Message, snap)
	if err != nil {
		return nil, err
	}

	processingMs := routed.TotalProcessing.Milliseconds()
	if !routed.IsEmergency {
		assistantTurn := &models.ChatMessage{
			Role:         models.RoleAssistant,
			Content:      routed.Response,
			Engine:       &routed.Engine,
			ProcessingMs: &processingMs,
		}
		if err := c.chatDAO.AppendTurn(ctx, userID, sessionID, assistantTurn, routed.NewContextID); err != nil {
			return nil, err
		}
	} else {
		assistantTurn := &models.ChatMessage{
			Role:    models.RoleAssistant,
			Content: routed.Response,
		}
		if err := c.chatDAO.AppendTurn(ctx, userID, sessionID, assistantTurn, ""); err != nil {
			return nil, err
		}
	}

	if err := c.sessionDAO.PatchSession(ctx, userID, sessionID, map[string]interface{}{
		"last_intent": intentStr,
	}); err != nil {
		return nil, err
	}

	if routed.NewContextID != "" {
		c.scheduleFollowUp(ctx, userID, sessionID, routed.NewContextID)
	}

	resp := &types.ChatResponse{
		Response:        routed.Response,
		SessionID:       sessionID,
		Intent:          intentStr,
		Confidence:      res.Confidence,
		ProcessingMs:    processingMs,
		PotentialCauses: routed.PotentialCauses,
		ImmediateSteps:  routed.ImmediateSteps,
		Emergency:       routed.Emergency,
	}
	if !routed.IsEmergency {
		if routed.NewContextID != "" {
			resp.ContextID = routed.NewContextID
		} else {
			resp.ContextID = snap.ContextID
		}
	}
	return resp, nil
}

// scheduleFollowUp queues the asynchronous "how are you feeling" reminder
// for a freshly opened health issue. Failures here never surface to the
// chat caller.
func (c *ChatController) scheduleFollowUp(ctx context.Context, userID int, sessionID, contextID string) {
	title, message := c.templates.Render(models.TypeFollowUp, nil)
	n, err := models.NewNotification(userID, models.TypeFollowUp, models.MethodPush, title, message, time.Now().Add(followUpDelay))
	if err != nil {
		logging.ErrorLogger.Error("follow-up notification build failed", zap.Error(err))
		return
	}
	n.ContextID = &contextID
	n.Category = "follow_up"
	if err := c.notifDAO.Create(ctx, n); err != nil {
		logging.ErrorLogger.Error("follow-up notification create failed",
			zap.String("session_id", sessionID), zap.Error(err))
	}
}

// GetMessagesForSession returns the most recent turns, owner-checked.
func (c *ChatController) GetMessagesForSession(ctx context.Context, userID int, sessionID string, limit int) ([]models.ChatMessage, error) {
	return c.chatDAO.GetHistoryForUser(ctx, userID, sessionID, limit)
}

// ListSessions returns session summaries, most recently active first.
func (c *ChatController) ListSessions(ctx context.Context, userID int) ([]types.ChatSessionSummary, error) {
	sessions, err := c.sessionDAO.ListSessions(ctx, userID, 50)
	if err != nil {
		return nil, err
	}
	summaries := make([]types.ChatSessionSummary, 0, len(sessions))
	for _, s := range sessions {
		summary := types.ChatSessionSummary{
			SessionID:    s.SessionID,
			LastIntent:   s.LastIntent,
			LastActivity: s.LastActiveAt.Format(time.RFC3339),
		}
		if s.ContextID != nil {
			summary.ContextID = *s.ContextID
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// ArchiveSession snapshots the full transcript into object storage and
// returns the archive key.
func (c *ChatController) ArchiveSession(ctx context.Context, userID int, sessionID string) (string, error) {
	if c.archiver == nil {
		return "", apperrors.ErrValidation
	}
	session, err := c.sessionDAO.GetOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return "", err
	}
	transcript, err := c.chatDAO.GetTranscript(ctx, sessionID)
	if err != nil {
		return "", err
	}
	contextID := ""
	if session.ContextID != nil {
		contextID = *session.ContextID
	}
	return c.archiver.UploadTranscript(ctx, userID, sessionID, contextID, transcript)
}

func (c *ChatController) DeleteSession(ctx context.Context, userID int, sessionID string) error {
	unlock := c.sessionLocks.Lock(sessionID)
	defer unlock()
	return c.sessionDAO.DeleteSession(ctx, userID, sessionID)
}

func snapshotOf(session *models.ChatSession, transcript []models.ChatMessage) types.SessionSnapshot {
	snap := types.SessionSnapshot{
		SessionID:  session.SessionID,
		UserID:     session.UserID,
		LastIntent: session.LastIntent,
	}
	if session.ContextID != nil {
		snap.ContextID = *session.ContextID
	}
	for _, m := range transcript {
		snap.History = append(snap.History, types.Turn{Role: string(m.Role), Content: m.Content})
	}
	return snap
}
