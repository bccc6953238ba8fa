package intent

import (
	"strings"

	"github.com/magiconair/properties"
	"go.uber.org/zap"

	"careflow/careflow/utils/logging"
)

// Label is the classified purpose of a message. The set is closed; model
// output outside it is downgraded to LabelClarification.
type Label string

const (
	LabelEmergency     Label = "emergency"
	LabelFollowUp      Label = "follow_up"
	LabelNewIssue      Label = "new_issue"
	LabelGeneral       Label = "general"
	LabelClarification Label = "clarification"
)

func (l Label) Valid() bool {
	switch l {
	case LabelEmergency, LabelFollowUp, LabelNewIssue, LabelGeneral, LabelClarification:
		return true
	}
	return false
}

// ClassifierConfig holds the emergency lexicon, intent class descriptions
// for the model prompt, and the acknowledgement words used for the
// follow-up bias.
type ClassifierConfig struct {
	IntentClasses    map[string]string
	EmergencyLexicon map[string][]string // category -> phrases
	AckWords         []string
}

var emergencyCategories = []string{
	"cardiac",
	"respiratory",
	"stroke",
	"bleeding",
	"allergic",
	"mental_health",
}

// LoadClassifierConfig reads the classifier .properties file. A missing or
// unreadable file falls back to the built-in defaults so classification
// never starts with an empty emergency lexicon.
func LoadClassifierConfig(path string) *ClassifierConfig {
	cfg := defaultClassifierConfig()

	props, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		logging.AppLogger.Warn("intent config load error, using defaults", zap.Error(err))
		return cfg
	}

	parseSlice := func(val string) []string {
		if val == "" {
			return []string{}
		}
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(strings.ToLower(p))
			if p != "" {
				out = append(out, p)
			}
		}
		return out
	}

	for _, label := range []Label{LabelEmergency, LabelFollowUp, LabelNewIssue, LabelGeneral, LabelClarification} {
		key := "intent_classes_" + string(label)
		if value := props.GetString(key, ""); value != "" {
			cfg.IntentClasses[string(label)] = value
		}
	}

	for _, cat := range emergencyCategories {
		key := "emergency_phrases_" + cat
		if phrases := parseSlice(props.GetString(key, "")); len(phrases) > 0 {
			cfg.EmergencyLexicon[cat] = phrases
		}
	}

	if ack := parseSlice(props.GetString("ack_words", "")); len(ack) > 0 {
		cfg.AckWords = ack
	}

	return cfg
}

func defaultClassifierConfig() *ClassifierConfig {
	return &ClassifierConfig{
		IntentClasses: map[string]string{
			string(LabelEmergency):     "life-threatening symptoms needing immediate care",
			string(LabelFollowUp):      "continuation of a health issue already being discussed",
			string(LabelNewIssue):      "a new distinct health complaint",
			string(LabelGeneral):       "general health question, no personal complaint",
			string(LabelClarification): "unclear message needing clarification",
		},
		EmergencyLexicon: map[string][]string{
			"cardiac":       {"chest pain", "heart attack", "crushing pain in my chest", "pain radiating down my arm"},
			"respiratory":   {"can't breathe", "cannot breathe", "difficulty breathing", "choking", "gasping for air"},
			"stroke":        {"face drooping", "slurred speech", "sudden numbness", "can't move my arm", "stroke"},
			"bleeding":      {"bleeding heavily", "won't stop bleeding", "coughing up blood", "vomiting blood"},
			"allergic":      {"throat is closing", "severe allergic reaction", "anaphylaxis", "tongue swelling"},
			"mental_health": {"want to kill myself", "suicidal", "end my life", "hurt myself"},
		},
		AckWords: []string{
			"yes", "no", "ok", "okay", "thanks", "thank you", "same", "still",
			"a bit better", "a bit worse", "it is", "it's not", "not really", "slightly",
		},
	}
}
