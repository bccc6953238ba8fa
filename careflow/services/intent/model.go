package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"careflow/careflow/services/llm"
	"careflow/careflow/utils/jsonutils"
)

// LLMModel implements Model on top of the shared chat-completion client.
type LLMModel struct {
	client *llm.Client
	model  string
	cfg    *ClassifierConfig
}

func NewLLMModel(client *llm.Client, model string, cfg *ClassifierConfig) *LLMModel {
	return &LLMModel{client: client, model: model, cfg: cfg}
}

func (m *LLMModel) Predict(ctx context.Context, message, contextSummary string) (string, float64, error) {
	labels := make([]string, 0, len(m.cfg.IntentClasses))
	for label := range m.cfg.IntentClasses {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var classes strings.Builder
	for _, label := range labels {
		fmt.Fprintf(&classes, "- %s: %s\n", label, m.cfg.IntentClasses[label])
	}

	systemPrompt := fmt.Sprintf(
		`You classify messages sent to a health assistant.
Conversation so far:
%s
Intent classes:
%s
Respond with JSON only: {"intent": "<class>", "confidence": <0.0-1.0>}`,
		contextSummary,
		classes.String(),
	)

	req := llm.ChatRequest{
		Model: m.model,
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: message},
		},
		Stream: false,
	}
	resp, err := m.client.Run(ctx, req)
	if err != nil {
		return "", 0, err
	}

	var out struct {
		Intent     string  `json:"intent"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(jsonutils.ExtractJSON(resp)), &out); err != nil {
		return "", 0, fmt.Errorf("invalid model output: %w", err)
	}
	return out.Intent, out.Confidence, nil
}
