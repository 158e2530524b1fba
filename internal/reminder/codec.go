package reminder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// record is the on-disk shape. Timestamps stay strings so one bad value
// does not fail the whole file.
type record struct {
	ID             string  `json:"id"`
	MedicationName string  `json:"medication_name"`
	Dosage         string  `json:"dosage"`
	Frequency      string  `json:"frequency"`
	Duration       *int    `json:"duration"`
	Notes          string  `json:"notes"`
	CreatedAt      *string `json:"created_at"`
	LastTaken      *string `json:"last_taken"`
	NextTime       *string `json:"next_time"`
	IsActive       *bool   `json:"is_active"`
	DosesTaken     int     `json:"doses_taken"`
}

// Layouts accepted when reading timestamps. The offset-less forms match
// files written by older versions of the app.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func parseTime(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, *s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339Nano)
	return &s
}

func decodeFile(data []byte) (map[string]*Reminder, error) {
	out := make(map[string]*Reminder)
	if len(bytes.TrimSpace(data)) == 0 {
		return out, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse reminders: %w", err)
	}

	for key, msg := range raw {
		var rec record
		if err := json.Unmarshal(msg, &rec); err != nil {
			log.Printf("[store] Skipping malformed reminder %s: %v", key, err)
			continue
		}
		r := fromRecord(rec)
		if r.ID == "" {
			r.ID = key
		}
		out[key] = r
	}
	return out, nil
}

func fromRecord(rec record) *Reminder {
	r := &Reminder{
		ID:             rec.ID,
		MedicationName: rec.MedicationName,
		Dosage:         rec.Dosage,
		Frequency:      rec.Frequency,
		Notes:          rec.Notes,
		LastTaken:      parseTime(rec.LastTaken),
		NextTime:       parseTime(rec.NextTime),
		IsActive:       true,
		DosesTaken:     rec.DosesTaken,
	}
	if rec.Duration != nil {
		r.Duration = *rec.Duration
	}
	if rec.IsActive != nil {
		r.IsActive = *rec.IsActive
	}
	if t := parseTime(rec.CreatedAt); t != nil {
		r.CreatedAt = *t
	}
	return r
}

func toRecord(r *Reminder) record {
	duration := r.Duration
	active := r.IsActive
	created := r.CreatedAt
	return record{
		ID:             r.ID,
		MedicationName: r.MedicationName,
		Dosage:         r.Dosage,
		Frequency:      r.Frequency,
		Duration:       &duration,
		Notes:          r.Notes,
		CreatedAt:      formatTime(&created),
		LastTaken:      formatTime(r.LastTaken),
		NextTime:       formatTime(r.NextTime),
		IsActive:       &active,
		DosesTaken:     r.DosesTaken,
	}
}

func encodeFile(reminders map[string]*Reminder) ([]byte, error) {
	out := make(map[string]record, len(reminders))
	for id, r := range reminders {
		out[id] = toRecord(r)
	}
	return json.MarshalIndent(out, "", "  ")
}
