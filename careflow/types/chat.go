package types

type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// EmergencyInfo is only present on emergency-routed responses.
type EmergencyInfo struct {
	Type         string   `json:"type"`
	Instructions []string `json:"instructions"`
	Contacts     []string `json:"contacts"`
}

type ChatResponse struct {
	Response        string         `json:"response"`
	SessionID       string         `json:"session_id"`
	Intent          string         `json:"intent"`
	Confidence      float64        `json:"confidence"`
	ProcessingMs    int64          `json:"processing_time_ms"`
	ContextID       string         `json:"context_id,omitempty"`
	PotentialCauses []string       `json:"potential_causes,omitempty"`
	ImmediateSteps  []string       `json:"immediate_steps,omitempty"`
	Emergency       *EmergencyInfo `json:"emergency,omitempty"`
}

// Turn is a transcript entry as seen by the classifier and engines.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SessionSnapshot is the immutable view of session state handed to the
// classifier and router for one exchange.
type SessionSnapshot struct {
	SessionID  string
	UserID     int
	LastIntent string
	ContextID  string // empty until an issue context is bound
	History    []Turn // oldest first
}

// For session/thread summary in the sessions panel.
// LastActivity: RFC3339 string
type ChatSessionSummary struct {
	SessionID    string `json:"session_id"`
	LastIntent   string `json:"last_intent"`
	ContextID    string `json:"context_id,omitempty"`
	LastActivity string `json:"last_activity"`
}
