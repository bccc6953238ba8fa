package router

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"careflow/careflow/services/llm"
	"careflow/careflow/types"
	"careflow/careflow/utils/jsonutils"
)

// EngineResult is what a conversational engine hands back for one turn.
// NewContextID is only set by the intake engine, and only when it decides
// the user opened a new distinct health issue.
type EngineResult struct {
	Response     string
	NewContextID string
	Latency      time.Duration
}

// Engine is the conversational engine contract (primary = intake,
// secondary = continuation).
type Engine interface {
	Generate(ctx context.Context, message string, snap types.SessionSnapshot) (*EngineResult, error)
}

// IntakeEngine handles new and general messages. Its model reports whether
// the message opens a distinct health issue; if so and the session has no
// issue context yet, a fresh context id is minted here.
type IntakeEngine struct {
	client *llm.Client
	model  string
}

func NewIntakeEngine(client *llm.Client, model string) *IntakeEngine {
	return &IntakeEngine{client: client, model: model}
}

func (e *IntakeEngine) Generate(ctx context.Context, message string, snap types.SessionSnapshot) (*EngineResult, error) {
	start := time.Now()
	systemPrompt := fmt.Sprintf(
		`You are a careful health assistant doing intake.
Conversation so far:
%s
Answer the user's message. Also decide whether the message describes a new
distinct health issue of their own (not a general question).
Respond with JSON only: {"response": "<answer>", "new_issue": <true|false>}`,
		flattenHistory(snap),
	)

	raw, err := e.client.Run(ctx, llm.ChatRequest{
		Model: e.model,
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: message},
		},
		Stream: false,
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Response string `json:"response"`
		NewIssue bool   `json:"new_issue"`
	}
	if err := json.Unmarshal([]byte(jsonutils.ExtractJSON(raw)), &out); err != nil {
		return nil, fmt.Errorf("invalid intake engine output: %w", err)
	}

	result := &EngineResult{Response: out.Response, Latency: time.Since(start)}
	if out.NewIssue && snap.ContextID == "" {
		result.NewContextID = uuid.New().String()
	}
	return result, nil
}

// ContinuationEngine handles follow-up turns of an already-bound health
// issue. The issue context id travels in the prompt so prior findings stay
// available.
type ContinuationEngine struct {
	client *llm.Client
	model  string
}

func NewContinuationEngine(client *llm.Client, model string) *ContinuationEngine {
	return &ContinuationEngine{client: client, model: model}
}

func (e *ContinuationEngine) Generate(ctx context.Context, message string, snap types.SessionSnapshot) (*EngineResult, error) {
	start := time.Now()
	systemPrompt := fmt.Sprintf(
		`You are a careful health assistant continuing an ongoing health issue
(issue context %s). Conversation so far:
%s
Answer the user's follow-up in the context of that issue. Plain text only.`,
		snap.ContextID,
		flattenHistory(snap),
	)

	resp, err := e.client.Run(ctx, llm.ChatRequest{
		Model: e.model,
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: message},
		},
		Stream: false,
	})
	if err != nil {
		return nil, err
	}
	return &EngineResult{Response: resp, Latency: time.Since(start)}, nil
}

func flattenHistory(snap types.SessionSnapshot) string {
	if len(snap.History) == 0 {
		return "(empty)"
	}
	turns := snap.History
	if len(turns) > 10 {
		turns = turns[len(turns)-10:]
	}
	out := ""
	for _, t := range turns {
		out += t.Role + ": " + t.Content + "\n"
	}
	return out
}
