package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notexe/med-reminder/internal/intake"
	"github.com/notexe/med-reminder/internal/preferences"
	"github.com/notexe/med-reminder/internal/reminder"
)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func sample() reminder.Reminder {
	return reminder.Reminder{
		ID:             "1a2b3c4d-0000-4000-8000-000000000000",
		MedicationName: "Amoxicillin",
		Dosage:         "500 mg",
		Frequency:      reminder.FrequencyTwiceDaily,
		Duration:       7,
		Notes:          "after meals",
		IsActive:       true,
	}
}

func TestFormatReminderReady(t *testing.T) {
	f := NewFormatter(false, 80)
	out := f.FormatReminder(sample(), now)

	assert.Contains(t, out, "Amoxicillin  [READY]")
	assert.Contains(t, out, "500 mg · Twice daily · 7 days")
	assert.Contains(t, out, "after meals")
	assert.Contains(t, out, strings.Repeat("█", 20)+" 100%")
	assert.Contains(t, out, "Doses taken: 0  id: 1a2b3c4d")
}

func TestFormatReminderCountingDown(t *testing.T) {
	r := sample()
	taken := now.Add(-3 * time.Hour)
	next := reminder.DoseTaken(taken, r.Frequency)
	r.LastTaken, r.NextTime, r.DosesTaken = &taken, &next, 1

	f := NewFormatter(false, 80)
	out := f.FormatReminder(r, now)

	assert.Contains(t, out, "[Next dose in 9h 00m]")
	assert.Contains(t, out, strings.Repeat("█", 5)+strings.Repeat("░", 15)+"  25%")
	assert.Contains(t, out, "Doses taken: 1")
}

func TestFormatterFollowsPreferences(t *testing.T) {
	m := preferences.NewManager(preferences.Defaults())
	f := NewFormatter(false, 80)
	unbind := f.Bind(m)

	assert.Equal(t, LightPalette, f.Palette())

	m.SetDarkMode(true)
	assert.Equal(t, DarkPalette, f.Palette())

	require.NoError(t, m.SetLanguage("ro"))
	assert.Contains(t, f.FormatReminder(sample(), now), "[GATA]")
	assert.Contains(t, f.FormatReminder(sample(), now), "7 zile")

	unbind()
	m.SetDarkMode(false)
	assert.Equal(t, DarkPalette, f.Palette())
}

func TestFormatReminderListEmpty(t *testing.T) {
	f := NewFormatter(false, 80)
	assert.Equal(t, preferences.Translate("en", "no_reminders_yet"), f.FormatReminderList(nil, now))

	two := f.FormatReminderList([]reminder.Reminder{sample(), sample()}, now)
	assert.Equal(t, 2, strings.Count(two, "Amoxicillin"))
}

func TestFormatCountdown(t *testing.T) {
	f := NewFormatter(false, 80)
	assert.Equal(t, "Aspirin: Next dose in 1:02:03",
		f.FormatCountdown("Aspirin", reminder.Status{State: reminder.CountingDown, Remaining: time.Hour + 2*time.Minute + 3*time.Second + 400*time.Millisecond}))
	assert.Equal(t, "Aspirin: READY", f.FormatCountdown("Aspirin", reminder.Status{State: reminder.Ready}))
}

func TestFormatHistoryAndAdherence(t *testing.T) {
	f := NewFormatter(false, 80)
	assert.Equal(t, "No doses recorded yet.", f.FormatHistory(nil))

	out := f.FormatHistory([]intake.Event{
		{Medication: "Aspirin", Kind: intake.KindTaken, At: now},
		{Medication: "Aspirin", Kind: intake.KindSkipped, At: now.Add(-time.Hour)},
	})
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "TAKEN  Aspirin")
	assert.Contains(t, lines[1], "SKIPPED  Aspirin")

	adh := f.FormatAdherence([]intake.Adherence{{Medication: "Aspirin", Taken: 3, Skipped: 1}})
	assert.Contains(t, adh, "Aspirin")
	assert.Contains(t, adh, " 75%")
	assert.Contains(t, adh, "TAKEN: 3  SKIPPED: 1")
}

func TestFormatSettings(t *testing.T) {
	f := NewFormatter(false, 80)
	p := preferences.Defaults()
	p.Sound = false

	out := f.FormatSettings(p)
	assert.Contains(t, out, "Settings")
	assert.Regexp(t, `Sound\s+off`, out)
	assert.Regexp(t, `Notifications\s+on`, out)
	assert.Regexp(t, `Language\s+en`, out)
}

func TestPlainMessages(t *testing.T) {
	f := NewFormatter(false, 80)

	assert.Equal(t, "Error: boom", f.FormatError(errors.New("boom")))
	assert.Equal(t, "Assistant: hello", f.FormatAssistantMessage("hello"))
	assert.Equal(t, "✓ saved", f.FormatSuccess("saved"))
	assert.Equal(t, "ana > ", f.FormatPrompt("ana"))
	assert.Equal(t, "Password: ", f.FormatLabelPrompt("password"))
	assert.Equal(t, "⏰ Time to take Aspirin (1 tablet)", f.FormatDue("Time to take Aspirin", "1 tablet"))
	assert.Contains(t, f.FormatWelcome("ana", "deepseek"), "Welcome, ana")
	assert.Contains(t, f.FormatWelcome("ana", ""), "Assistant: offline")
	assert.Contains(t, f.FormatHelp(), "/take <id>")
}

func TestColoredAssistantMessageRendersMarkdown(t *testing.T) {
	f := NewFormatter(true, 60)
	out := f.FormatAssistantMessage("Take **Amoxicillin** with water")

	assert.Contains(t, out, "Amoxicillin")
	assert.NotContains(t, out, "**")
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "█████░░░░░", progressBar(0.5, 10))
	assert.Equal(t, "░░░░░░░░░░", progressBar(-1, 10))
	assert.Equal(t, "██████████", progressBar(2, 10))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "1a2b3c4d", ShortID("1a2b3c4d-0000"))
	assert.Equal(t, "abc", ShortID("abc"))
}

func TestSelectorSimple(t *testing.T) {
	f := NewFormatter(false, 80)
	options := []SelectorOption{{Label: "en"}, {Label: "ro"}, {Label: "ru"}}

	s := NewSelector("Language", options, f)
	var out bytes.Buffer
	s.In, s.Out = strings.NewReader("2\n"), &out
	idx, err := s.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Contains(t, out.String(), "[3] ru")

	s = NewSelector("Language", options, f)
	s.Preselect("ru")
	s.In, s.Out = strings.NewReader("\n"), &out
	idx, err = s.Run()
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	s = NewSelector("Language", options, f)
	s.In, s.Out = strings.NewReader("9\n"), &out
	_, err = s.Run()
	assert.Error(t, err)

	s = NewSelector("Language", options, f)
	s.In, s.Out = strings.NewReader(""), &out
	_, err = s.Run()
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestSpinnerStops(t *testing.T) {
	var out bytes.Buffer
	s := NewSpinner(&out, NewFormatter(false, 80))

	s.Start("Thinking...")
	s.Start("Still thinking...")
	s.Stop()
	s.Stop()

	assert.Contains(t, out.String(), "hinking...")
	assert.True(t, strings.HasSuffix(out.String(), "\r\033[K"))
}

func TestStatusLine(t *testing.T) {
	var out bytes.Buffer
	s := NewStatusLine(&out, true)
	s.Update("a")
	s.Update("b")
	s.Done()
	assert.Equal(t, "\r\033[Ka\r\033[Kb\n", out.String())

	out.Reset()
	s = NewStatusLine(&out, false)
	s.Update("a")
	s.Done()
	assert.Equal(t, "a\n", out.String())
}
