package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"careflow/careflow/apperrors"
	"careflow/careflow/services/intent"
	"careflow/careflow/sources/psql/models"
	"careflow/careflow/types"
	"careflow/careflow/utils/logging"
)

// --- Helpers ---

type fakeEngine struct {
	result *EngineResult
	err    error
	calls  int
}

func (e *fakeEngine) Generate(ctx context.Context, message string, snap types.SessionSnapshot) (*EngineResult, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

func newTestRouter(primary, secondary Engine) *Router {
	logging.InitLogger()
	return NewRouter(primary, secondary, time.Second)
}

func TestEmergencyBypassesEngines(t *testing.T) {
	primary := &fakeEngine{result: &EngineResult{Response: "primary"}}
	secondary := &fakeEngine{result: &EngineResult{Response: "secondary"}}
	r := newTestRouter(primary, secondary)

	res := intent.Result{Label: intent.LabelEmergency, Confidence: 1.0, EmergencyCategory: "cardiac"}
	out, err := r.Route(context.Background(), res, "chest pain", types.SessionSnapshot{SessionID: "s1"})
	if err != nil {
		t.Fatalf("emergency routing failed: %v", err)
	}
	if primary.calls != 0 || secondary.calls != 0 {
		t.Errorf("emergency must not touch the engines")
	}
	if !out.IsEmergency {
		t.Errorf("expected IsEmergency")
	}
	if out.Emergency == nil || out.Emergency.Type != "cardiac" {
		t.Fatalf("expected cardiac emergency payload, got %+v", out.Emergency)
	}
	if len(out.PotentialCauses) == 0 || len(out.ImmediateSteps) == 0 {
		t.Errorf("expected populated causes and steps")
	}
	if len(out.Emergency.Contacts) == 0 {
		t.Errorf("expected emergency contacts")
	}
	if out.NewContextID != "" {
		t.Errorf("emergency must not mint an issue context")
	}
}

func TestUnknownEmergencyCategoryGetsGenericPayload(t *testing.T) {
	r := newTestRouter(&fakeEngine{}, &fakeEngine{})
	res := intent.Result{Label: intent.LabelEmergency, Confidence: 1.0, EmergencyCategory: "unknown"}
	out, err := r.Route(context.Background(), res, "help", types.SessionSnapshot{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Emergency == nil || out.Emergency.Type != "general" {
		t.Errorf("expected generic emergency payload, got %+v", out.Emergency)
	}
}

func TestFollowUpWithContextUsesSecondaryEngine(t *testing.T) {
	primary := &fakeEngine{result: &EngineResult{Response: "primary"}}
	secondary := &fakeEngine{result: &EngineResult{Response: "continuing", Latency: 20 * time.Millisecond}}
	r := newTestRouter(primary, secondary)

	res := intent.Result{Label: intent.LabelFollowUp, Confidence: 0.9, Latency: 10 * time.Millisecond}
	snap := types.SessionSnapshot{SessionID: "s1", ContextID: "ctx-1"}
	out, err := r.Route(context.Background(), res, "still hurts", snap)
	if err != nil {
		t.Fatal(err)
	}
	if secondary.calls != 1 || primary.calls != 0 {
		t.Errorf("expected secondary engine, got primary=%d secondary=%d", primary.calls, secondary.calls)
	}
	if out.Engine != models.EngineSecondary {
		t.Errorf("expected secondary tag, got %s", out.Engine)
	}
	if out.TotalProcessing != 30*time.Millisecond {
		t.Errorf("expected summed latency, got %v", out.TotalProcessing)
	}
}

func TestFollowUpWithoutContextFallsToPrimary(t *testing.T) {
	primary := &fakeEngine{result: &EngineResult{Response: "intake"}}
	secondary := &fakeEngine{result: &EngineResult{Response: "continuing"}}
	r := newTestRouter(primary, secondary)

	res := intent.Result{Label: intent.LabelFollowUp, Confidence: 0.9}
	out, err := r.Route(context.Background(), res, "still hurts", types.SessionSnapshot{SessionID: "s1"})
	if err != nil {
		t.Fatal(err)
	}
	if primary.calls != 1 || secondary.calls != 0 {
		t.Errorf("unbound follow_up must go to intake")
	}
	if out.Engine != models.EnginePrimary {
		t.Errorf("expected primary tag, got %s", out.Engine)
	}
}

func TestNewIssueMintPassesThrough(t *testing.T) {
	primary := &fakeEngine{result: &EngineResult{Response: "noted", NewContextID: "ctx-9"}}
	r := newTestRouter(primary, &fakeEngine{})

	res := intent.Result{Label: intent.LabelNewIssue, Confidence: 0.8}
	out, err := r.Route(context.Background(), res, "my ear aches", types.SessionSnapshot{SessionID: "s1"})
	if err != nil {
		t.Fatal(err)
	}
	if out.NewContextID != "ctx-9" {
		t.Errorf("expected minted context id to pass through, got %q", out.NewContextID)
	}
}

func TestEngineFailureIsRetryable(t *testing.T) {
	primary := &fakeEngine{err: errors.New("upstream timeout")}
	r := newTestRouter(primary, &fakeEngine{})

	res := intent.Result{Label: intent.LabelNewIssue, Confidence: 0.8}
	_, err := r.Route(context.Background(), res, "my ear aches", types.SessionSnapshot{SessionID: "s1"})
	if !errors.Is(err, apperrors.ErrEngineFailure) {
		t.Errorf("expected ErrEngineFailure, got %v", err)
	}
}
