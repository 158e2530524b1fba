package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/go-deepseek/deepseek/request"

	"github.com/notexe/med-reminder/internal/reminder"
)

// ToolAddReminder is the tool the model calls to create a reminder.
const ToolAddReminder = "add_reminder"

// SystemPrompt returns the assistant's instructions.
func SystemPrompt() string {
	return `You are a friendly health and wellness assistant inside a medication reminder app.
Answer briefly and in plain language. You do not give diagnoses; suggest consulting a healthcare provider for medical advice.

When the user asks to be reminded about a medication and has given the medication name, the dosage and how often to take it, call the ` + ToolAddReminder + ` tool.
If any of those three is missing, ask for it instead of calling the tool.
Supported frequencies: ` + strings.Join(reminder.Frequencies, ", ") + "."
}

// ReminderTools returns the tools offered to the model. They share the MCP
// server's schema.
func ReminderTools() []request.Tool {
	return ToolsFromMCP(reminder.AddReminderTool())
}

// ReminderCall is a decoded add_reminder call.
type ReminderCall struct {
	MedicationName string
	Dosage         string
	Frequency      string
	Duration       int
	Notes          string
}

type reminderArgs struct {
	MedicationName string  `json:"medication_name"`
	Dosage         string  `json:"dosage"`
	Frequency      string  `json:"frequency"`
	Duration       float64 `json:"duration"`
	Notes          string  `json:"notes"`
}

var errIncompleteCall = errors.New("medication_name, dosage and frequency are required")

// DecodeReminderCall parses add_reminder arguments. The frequency is
// normalized to a supported label when possible.
func DecodeReminderCall(tc ToolCall) (*ReminderCall, error) {
	if tc.Name != ToolAddReminder {
		return nil, fmt.Errorf("unexpected tool %q", tc.Name)
	}

	var args reminderArgs
	if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
		return nil, fmt.Errorf("failed to parse %s arguments: %w", ToolAddReminder, err)
	}

	call := &ReminderCall{
		MedicationName: strings.TrimSpace(args.MedicationName),
		Dosage:         strings.TrimSpace(args.Dosage),
		Frequency:      strings.TrimSpace(args.Frequency),
		Duration:       int(args.Duration),
		Notes:          strings.TrimSpace(args.Notes),
	}
	if label, ok := reminder.NormalizeFrequency(call.Frequency); ok {
		call.Frequency = label
	}
	if call.Duration < 0 {
		call.Duration = 0
	}
	if call.MedicationName == "" || call.Dosage == "" || call.Frequency == "" {
		return nil, errIncompleteCall
	}
	return call, nil
}

// ReminderCall returns the first usable add_reminder call in the answer,
// or nil.
func (a *Answer) ReminderCall() *ReminderCall {
	for _, tc := range a.ToolCalls {
		if tc.Name != ToolAddReminder {
			log.Printf("[api] Ignoring unknown tool call %q", tc.Name)
			continue
		}
		call, err := DecodeReminderCall(tc)
		if err != nil {
			log.Printf("[api] Bad %s call: %v", ToolAddReminder, err)
			continue
		}
		return call
	}
	return nil
}
