package notify

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"careflow/careflow/sources/psql/models"
	"careflow/careflow/utils/logging"
)

// Template is one notification message template. Placeholders use
// {name} syntax.
type Template struct {
	Title   string `yaml:"title"`
	Message string `yaml:"message"`
}

type Templates map[string]Template

// LoadTemplates reads the per-type message templates from a yaml file,
// falling back to built-in defaults when the file is missing.
func LoadTemplates(path string) Templates {
	t := defaultTemplates()
	data, err := os.ReadFile(path)
	if err != nil {
		logging.AppLogger.Warn("notification templates load error, using defaults", zap.Error(err))
		return t
	}
	var loaded Templates
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		logging.AppLogger.Warn("notification templates parse error, using defaults", zap.Error(err))
		return t
	}
	for k, v := range loaded {
		t[k] = v
	}
	return t
}

// Render fills a template for the given notification type. Unknown types
// fall back to the system template.
func (t Templates) Render(typ models.NotificationType, args map[string]string) (string, string) {
	tpl, ok := t[string(typ)]
	if !ok {
		tpl = t[string(models.TypeSystem)]
	}
	title := tpl.Title
	message := tpl.Message
	for k, v := range args {
		title = strings.ReplaceAll(title, "{"+k+"}", v)
		message = strings.ReplaceAll(message, "{"+k+"}", v)
	}
	return title, message
}

func defaultTemplates() Templates {
	return Templates{
		string(models.TypeCareReminder): {
			Title:   "Care reminder",
			Message: "A reminder from your care plan: {detail}",
		},
		string(models.TypeFollowUp): {
			Title:   "How are you feeling?",
			Message: "You recently discussed a health issue with us. Let us know how it is developing.",
		},
		string(models.TypeMedicationReminder): {
			Title:   "Medication reminder",
			Message: "Time to take {medication}.",
		},
		string(models.TypeAppointmentReminder): {
			Title:   "Upcoming appointment",
			Message: "You have an appointment {when}.",
		},
		string(models.TypeSystem): {
			Title:   "Careflow",
			Message: "{detail}",
		},
	}
}
