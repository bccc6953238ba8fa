package types

type ScheduleNotificationRequest struct {
	Type           string            `json:"type"`
	Method         string            `json:"method"`
	Title          string            `json:"title,omitempty"`
	Message        string            `json:"message,omitempty"`
	TemplateArgs   map[string]string `json:"template_args,omitempty"`
	ScheduledFor   string            `json:"scheduled_for,omitempty"` // RFC3339
	ContextID      string            `json:"context_id,omitempty"`
	CarePlanID     string            `json:"care_plan_id,omitempty"`
	Priority       string            `json:"priority,omitempty"`
	Category       string            `json:"category,omitempty"`
	ActionRequired bool              `json:"action_required,omitempty"`
}

type InteractionRequest struct {
	Kind string `json:"kind"` // opened | clicked | responded
}
