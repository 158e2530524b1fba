// Package assistant answers free-text messages and turns medication
// requests into reminders.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/notexe/med-reminder/internal/api"
	"github.com/notexe/med-reminder/internal/config"
	"github.com/notexe/med-reminder/internal/reminder"
)

// Navigation targets a reply can ask the front-end to show.
const (
	NavigateReminders = "reminders"
	NavigateHome      = "home"
)

// Responder produces a reply to one user message.
type Responder interface {
	Ask(ctx context.Context, text string) (*Reply, error)
}

// Reply is a responder's answer. Request is set when the message fully
// described a reminder; Navigate is set for navigation phrases.
type Reply struct {
	Text     string
	Request  *ReminderRequest
	Navigate string
}

// ReminderRequest is a reminder extracted from conversation.
type ReminderRequest struct {
	Medication string `json:"medication"`
	Dosage     string `json:"dosage"`
	Frequency  string `json:"frequency"`
	Duration   int    `json:"duration,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// Complete reports whether every required field is present.
func (r ReminderRequest) Complete() bool {
	return r.Medication != "" && r.Dosage != "" && r.Frequency != ""
}

// NewReminder converts the request into store input.
func (r ReminderRequest) NewReminder() reminder.NewReminder {
	return reminder.NewReminder{
		MedicationName: r.Medication,
		Dosage:         r.Dosage,
		Frequency:      r.Frequency,
		Duration:       r.Duration,
		Notes:          r.Notes,
	}
}

func (r ReminderRequest) describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s of %s %s", r.Dosage, r.Medication, strings.ToLower(r.Frequency))
	if r.Duration > 0 {
		fmt.Fprintf(&b, " for %d days", r.Duration)
	}
	return b.String()
}

// New picks the responder for the configured provider. A nil provider
// selects the offline keyword responder.
func New(cfg *config.Config, provider api.Provider) Responder {
	keyword := NewKeywordResponder()
	if provider == nil || cfg.Provider == config.ProviderLocal {
		return keyword
	}

	model := cfg.GetProviderConfig().Model
	return NewLLMResponder(provider, model, cfg.Assistant.MaxHistory, keyword)
}
