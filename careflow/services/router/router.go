package router

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"careflow/careflow/apperrors"
	"careflow/careflow/services/intent"
	"careflow/careflow/sources/psql/models"
	"careflow/careflow/types"
	"careflow/careflow/utils/logging"
)

// RoutedResponse is the outcome of routing one classified message.
// TotalProcessing covers classification plus engine latency.
type RoutedResponse struct {
	Response        string
	Engine          models.EngineTag // empty for emergency turns
	NewContextID    string
	IsEmergency     bool
	PotentialCauses []string
	ImmediateSteps  []string
	Emergency       *types.EmergencyInfo
	TotalProcessing time.Duration
}

// Router decides which engine answers a turn. Emergencies bypass both
// engines; bound follow-ups go to the continuation engine; everything else
// goes to intake.
type Router struct {
	primary   Engine
	secondary Engine
	timeout   time.Duration
}

func NewRouter(primary, secondary Engine, timeout time.Duration) *Router {
	return &Router{primary: primary, secondary: secondary, timeout: timeout}
}

func (r *Router) Route(ctx context.Context, res intent.Result, message string, snap types.SessionSnapshot) (*RoutedResponse, error) {
	if res.Label == intent.LabelEmergency {
		out := buildEmergencyResponse(res.EmergencyCategory)
		out.TotalProcessing = res.Latency
		logging.AppLogger.Warn("emergency turn routed",
			zap.String("session_id", snap.SessionID),
			zap.String("category", res.EmergencyCategory),
		)
		return out, nil
	}

	engine := r.primary
	tag := models.EnginePrimary
	if res.Label == intent.LabelFollowUp && snap.ContextID != "" {
		engine = r.secondary
		tag = models.EngineSecondary
	}

	ectx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	result, err := engine.Generate(ectx, message, snap)
	if err != nil {
		// Retryable for the caller; no assistant turn gets stored.
		logging.ErrorLogger.Error("engine failure",
			zap.String("session_id", snap.SessionID),
			zap.String("engine", string(tag)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %s engine: %v", apperrors.ErrEngineFailure, tag, err)
	}

	return &RoutedResponse{
		Response:        result.Response,
		Engine:          tag,
		NewContextID:    result.NewContextID,
		TotalProcessing: res.Latency + result.Latency,
	}, nil
}
