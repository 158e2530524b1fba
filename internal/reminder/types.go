package reminder

import "time"

// Dosing frequency labels.
const (
	FrequencyOnceDaily   = "Once daily"
	FrequencyTwiceDaily  = "Twice daily"
	FrequencyThriceDaily = "Three times daily"
	FrequencyFourDaily   = "Four times daily"
	FrequencyEvery6Hours = "Every 6 hours"
	FrequencyEvery8Hours = "Every 8 hours"
	FrequencyEvery12Hour = "Every 12 hours"
)

// Frequencies lists the supported labels in display order.
var Frequencies = []string{
	FrequencyOnceDaily,
	FrequencyTwiceDaily,
	FrequencyThriceDaily,
	FrequencyFourDaily,
	FrequencyEvery6Hours,
	FrequencyEvery8Hours,
	FrequencyEvery12Hour,
}

// Reminder is one medication and its dosing state.
type Reminder struct {
	ID             string     `json:"id"`
	MedicationName string     `json:"medication_name"`
	Dosage         string     `json:"dosage"`
	Frequency      string     `json:"frequency"`
	Duration       int        `json:"duration"` // days, 0 when open-ended
	Notes          string     `json:"notes"`
	CreatedAt      time.Time  `json:"created_at"`
	LastTaken      *time.Time `json:"last_taken"`
	NextTime       *time.Time `json:"next_time"` // nil means ready now
	IsActive       bool       `json:"is_active"`
	DosesTaken     int        `json:"doses_taken"`
}

// NewReminder holds the user-supplied fields for Store.Add.
type NewReminder struct {
	MedicationName string
	Dosage         string
	Frequency      string
	Duration       int
	Notes          string
}

// UpdateFields holds optional fields for a partial update.
// Nil fields are left untouched.
type UpdateFields struct {
	MedicationName *string
	Dosage         *string
	Frequency      *string
	Duration       *int
	Notes          *string
	LastTaken      *time.Time
	IsActive       *bool
	DosesTaken     *int
}

func (r Reminder) clone() Reminder {
	if r.LastTaken != nil {
		t := *r.LastTaken
		r.LastTaken = &t
	}
	if r.NextTime != nil {
		t := *r.NextTime
		r.NextTime = &t
	}
	return r
}
