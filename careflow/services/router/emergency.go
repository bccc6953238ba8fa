package router

import "careflow/careflow/types"

// Static emergency content, keyed by the lexicon category that matched.
// This is deliberately not model-generated: emergency turns bypass both
// engines entirely.

type emergencyContent struct {
	causes       []string
	steps        []string
	instructions []string
}

var emergencyContacts = []string{
	"Emergency services: 911",
	"Poison control: 1-800-222-1222",
	"Suicide & crisis lifeline: 988",
}

var emergencyTable = map[string]emergencyContent{
	"cardiac": {
		causes: []string{"Heart attack", "Angina", "Aortic dissection", "Pulmonary embolism"},
		steps: []string{
			"Call 911 now",
			"Stop all activity and sit or lie down",
			"Chew one adult aspirin if not allergic",
			"Unlock the door so responders can reach you",
		},
		instructions: []string{"Do not drive yourself", "Stay on the line with the dispatcher"},
	},
	"respiratory": {
		causes: []string{"Severe asthma attack", "Anaphylaxis", "Pulmonary embolism", "Pneumothorax"},
		steps: []string{
			"Call 911 now",
			"Sit upright, lean slightly forward",
			"Use your rescue inhaler if prescribed",
			"Loosen tight clothing around chest and neck",
		},
		instructions: []string{"Do not lie flat", "Have someone stay with you"},
	},
	"stroke": {
		causes: []string{"Ischemic stroke", "Hemorrhagic stroke", "Transient ischemic attack"},
		steps: []string{
			"Call 911 now and note the time symptoms started",
			"Lie down with head slightly raised",
			"Do not eat or drink anything",
		},
		instructions: []string{"Time is critical for stroke treatment", "Do not take aspirin"},
	},
	"bleeding": {
		causes: []string{"Major trauma", "Gastrointestinal bleeding", "Ruptured vessel"},
		steps: []string{
			"Call 911 now",
			"Apply firm direct pressure with a clean cloth",
			"Keep the injured area elevated if possible",
		},
		instructions: []string{"Do not remove soaked dressings, add layers on top"},
	},
	"allergic": {
		causes: []string{"Anaphylaxis", "Severe food or drug allergy", "Insect sting reaction"},
		steps: []string{
			"Call 911 now",
			"Use your epinephrine auto-injector immediately if prescribed",
			"Lie flat with legs raised unless breathing is difficult",
		},
		instructions: []string{"A second dose may be needed after 5-15 minutes"},
	},
	"mental_health": {
		causes: []string{"Mental health crisis"},
		steps: []string{
			"Call or text 988 (suicide & crisis lifeline) now",
			"Stay with someone you trust, or ask someone to come to you",
			"Remove anything you could use to hurt yourself",
		},
		instructions: []string{"You are not alone; help is available right now"},
	},
}

var genericEmergency = emergencyContent{
	causes: []string{"Potentially life-threatening condition"},
	steps: []string{
		"Call 911 now",
		"Do not wait to see if symptoms improve",
	},
	instructions: []string{"Follow the dispatcher's instructions"},
}

// buildEmergencyResponse assembles the structured payload for an
// emergency-classified turn.
func buildEmergencyResponse(category string) *RoutedResponse {
	content, ok := emergencyTable[category]
	if !ok {
		content = genericEmergency
		category = "general"
	}
	return &RoutedResponse{
		Response: "Your message describes a possible medical emergency. " +
			"Please contact emergency services immediately - do not wait for an online response.",
		IsEmergency:     true,
		PotentialCauses: content.causes,
		ImmediateSteps:  content.steps,
		Emergency: &types.EmergencyInfo{
			Type:         category,
			Instructions: content.instructions,
			Contacts:     emergencyContacts,
		},
	}
}
