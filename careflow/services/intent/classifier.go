package intent

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"careflow/careflow/types"
	"careflow/careflow/utils/logging"
)

// Result is one classification outcome. EmergencyCategory is only set when
// the deterministic lexicon fired.
type Result struct {
	Label             Label
	Confidence        float64
	EmergencyCategory string
	Latency           time.Duration
}

// Model is the external classification model contract: pure from our
// perspective, may be slow or unavailable, always called with a deadline.
type Model interface {
	Predict(ctx context.Context, message, contextSummary string) (label string, confidence float64, err error)
}

type Classifier struct {
	cfg       *ClassifierConfig
	model     Model
	threshold float64
	timeout   time.Duration
}

func NewClassifier(cfg *ClassifierConfig, model Model, threshold float64, timeout time.Duration) *Classifier {
	return &Classifier{
		cfg:       cfg,
		model:     model,
		threshold: threshold,
		timeout:   timeout,
	}
}

// Classify maps a message plus session snapshot to an intent.
//
// Order matters: the emergency lexicon runs before anything else so a
// recognized emergency phrase can never be suppressed by low model
// confidence. The follow-up bias and the model are only consulted after.
func (c *Classifier) Classify(ctx context.Context, message string, snap types.SessionSnapshot) Result {
	start := time.Now()

	if category, ok := c.matchEmergency(message); ok {
		return Result{
			Label:             LabelEmergency,
			Confidence:        1.0,
			EmergencyCategory: category,
			Latency:           time.Since(start),
		}
	}

	if c.isContinuation(message, snap) {
		return Result{
			Label:      LabelFollowUp,
			Confidence: 0.9,
			Latency:    time.Since(start),
		}
	}

	mctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	label, confidence, err := c.model.Predict(mctx, message, summarize(snap))
	if err != nil {
		// Degrade to clarification rather than aborting the turn.
		logging.ErrorLogger.Error("intent model unavailable",
			zap.String("session_id", snap.SessionID),
			zap.Error(err),
		)
		return Result{Label: LabelClarification, Confidence: 0, Latency: time.Since(start)}
	}

	parsed := Label(label)
	if !parsed.Valid() || parsed == LabelEmergency {
		// The model does not get to declare emergencies; only the lexicon does.
		parsed = LabelClarification
	}
	if confidence < c.threshold {
		parsed = LabelClarification
	}
	return Result{Label: parsed, Confidence: confidence, Latency: time.Since(start)}
}

// matchEmergency checks the message against the emergency lexicon and
// returns the matched category.
func (c *Classifier) matchEmergency(message string) (string, bool) {
	lower := strings.ToLower(message)
	for _, cat := range emergencyCategories {
		for _, phrase := range c.cfg.EmergencyLexicon[cat] {
			if strings.Contains(lower, phrase) {
				return cat, true
			}
		}
	}
	return "", false
}

// isContinuation biases short acknowledgements toward follow_up when the
// session is already inside a health issue.
func (c *Classifier) isContinuation(message string, snap types.SessionSnapshot) bool {
	if snap.ContextID == "" {
		return false
	}
	last := Label(snap.LastIntent)
	if last != LabelFollowUp && last != LabelNewIssue {
		return false
	}
	lower := strings.ToLower(strings.TrimSpace(message))
	if len(lower) > 60 || len(strings.Fields(lower)) > 6 {
		return false
	}
	for _, ack := range c.cfg.AckWords {
		if strings.Contains(lower, ack) {
			return true
		}
	}
	return false
}

// summarize flattens the recent transcript for the model prompt.
func summarize(snap types.SessionSnapshot) string {
	if len(snap.History) == 0 {
		return "no prior conversation"
	}
	turns := snap.History
	if len(turns) > 6 {
		turns = turns[len(turns)-6:]
	}
	var b strings.Builder
	for _, t := range turns {
		b.WriteString(t.Role)
		b.WriteString(": ")
		b.WriteString(t.Content)
		b.WriteString("\n")
	}
	return b.String()
}
