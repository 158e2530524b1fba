package repl

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/notexe/med-reminder/internal/assistant"
	"github.com/notexe/med-reminder/internal/intake"
	"github.com/notexe/med-reminder/internal/preferences"
	"github.com/notexe/med-reminder/internal/reminder"
	"github.com/notexe/med-reminder/internal/scheduler"
	"github.com/notexe/med-reminder/internal/ui"
)

const (
	historyLimit     = 20
	adherenceWindow  = 7 * 24 * time.Hour
	maxLiveCountdown = 10 * time.Minute
)

func (r *REPL) handleCommand(ctx context.Context, command, args string) error {
	switch command {
	case "/help", "/h":
		r.displayHelp()
		return nil

	case "/list", "/ls":
		r.displayReminders()
		return nil

	case "/add", "/a":
		return r.handleAdd(args)

	case "/take", "/t":
		return r.handleTake(ctx, args)

	case "/skip":
		return r.handleSkip(ctx, args)

	case "/edit", "/e":
		return r.handleEdit(args)

	case "/delete", "/del", "/rm":
		return r.handleDelete(ctx, args)

	case "/status", "/s":
		return r.handleStatus(ctx, args)

	case "/history":
		return r.handleHistory(ctx, args)

	case "/settings":
		r.println(r.formatter.FormatSettings(r.prefs.Current()))
		r.println()
		return nil

	case "/lang", "/language":
		return r.handleLang(args)

	case "/theme":
		return r.handleTheme(args)

	case "/toggle":
		return r.handleToggle(args)

	case "/clear", "/c":
		r.resetAssistant()
		r.displaySystem("Conversation history cleared.")
		return nil

	case "/logout":
		r.displaySystem(r.formatter.T("logout") + ": " + r.user)
		return errLogout

	case "/quit", "/exit", "/q":
		return errQuit

	default:
		return fmt.Errorf("unknown command: %s (type /help for available commands)", command)
	}
}

// handleMessage sends free text to the assistant and applies its reply.
func (r *REPL) handleMessage(ctx context.Context, message string) error {
	var spinner *ui.Spinner
	if _, offline := r.responder.(*assistant.KeywordResponder); !offline {
		r.pause()
		spinner = ui.NewSpinner(r.out, r.formatter)
		spinner.Start("Thinking...")
	}

	reply, err := r.responder.Ask(ctx, message)
	if spinner != nil {
		spinner.Stop()
		r.resume()
	}
	if err != nil {
		return fmt.Errorf("assistant failed: %w", err)
	}

	r.displayAssistant(reply.Text)

	if reply.Request != nil && reply.Request.Complete() {
		r.addReminder(reply.Request.NewReminder())
	}

	switch reply.Navigate {
	case assistant.NavigateReminders:
		r.displayReminders()
	case assistant.NavigateHome:
		r.displayWelcome()
	}
	return nil
}

// resolve maps a typed id prefix to a stored reminder.
func (r *REPL) resolve(args string) (reminder.Reminder, error) {
	arg := strings.TrimSpace(args)
	if arg == "" {
		return reminder.Reminder{}, errors.New("missing reminder id (see /list)")
	}
	if i := strings.IndexByte(arg, ' '); i >= 0 {
		arg = arg[:i]
	}

	id, err := r.reminders.Resolve(arg)
	if err != nil {
		return reminder.Reminder{}, err
	}
	rem, ok := r.reminders.Get(id)
	if !ok {
		return reminder.Reminder{}, fmt.Errorf("%w: %s", reminder.ErrNotFound, arg)
	}
	return rem, nil
}

// reportSave shows a failed write. The change itself is kept in memory.
func (r *REPL) reportSave(err error) {
	if err != nil {
		r.displayError(err)
	}
}

func (r *REPL) handleAdd(args string) error {
	if args == "" {
		return r.addWizard()
	}

	fields := splitFields(args)
	if len(fields) < 3 {
		return errors.New("usage: /add name | dosage | frequency [| days [| notes]]")
	}

	in := reminder.NewReminder{
		MedicationName: fields[0],
		Dosage:         fields[1],
	}
	if in.MedicationName == "" || in.Dosage == "" {
		return errors.New("medication name and dosage are required")
	}

	freq, err := parseFrequency(fields[2])
	if err != nil {
		return err
	}
	in.Frequency = freq

	if len(fields) > 3 {
		if in.Duration, err = parseDays(fields[3]); err != nil {
			return err
		}
	}
	if len(fields) > 4 {
		in.Notes = strings.Join(fields[4:], " | ")
	}

	r.addReminder(in)
	return nil
}

func (r *REPL) addReminder(in reminder.NewReminder) {
	id, err := r.reminders.Add(in)
	r.reportSave(err)

	rem, _ := r.reminders.Get(id)
	r.displaySuccess(r.formatter.T("reminder_added"))
	r.println(r.formatter.FormatReminder(rem, r.clk.Now()))
	r.println()
}

func parseFrequency(text string) (string, error) {
	if label, ok := reminder.NormalizeFrequency(text); ok {
		return label, nil
	}
	return "", fmt.Errorf("unknown frequency %q (use one of: %s)", text, strings.Join(reminder.Frequencies, ", "))
}

func parseDays(text string) (int, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return 0, nil
	}
	for _, suffix := range []string{"days", "day", "d"} {
		if strings.HasSuffix(text, suffix) {
			text = strings.TrimSpace(strings.TrimSuffix(text, suffix))
			break
		}
	}
	days, err := strconv.Atoi(text)
	if err != nil || days < 0 {
		return 0, fmt.Errorf("invalid number of days %q", text)
	}
	return days, nil
}

func (r *REPL) handleTake(ctx context.Context, args string) error {
	rem, err := r.resolve(args)
	if err != nil {
		return err
	}

	taken, err := r.reminders.TakeDueDose(rem.ID)
	if err != nil && !errors.Is(err, reminder.ErrSave) {
		return err
	}
	r.reportSave(err)
	r.record(ctx, taken, intake.KindTaken)

	r.displaySuccess(fmt.Sprintf("%s: %s %s", r.formatter.T("taken"), taken.MedicationName, taken.Dosage))
	r.println(r.formatter.FormatReminder(taken, r.clk.Now()))
	r.println()
	return nil
}

// handleSkip journals a skipped dose without touching the cooldown.
func (r *REPL) handleSkip(ctx context.Context, args string) error {
	rem, err := r.resolve(args)
	if err != nil {
		return err
	}

	r.record(ctx, rem, intake.KindSkipped)
	r.displaySystem(fmt.Sprintf("%s: %s %s", r.formatter.T("skipped"), rem.MedicationName, rem.Dosage))
	return nil
}

func (r *REPL) record(ctx context.Context, rem reminder.Reminder, kind string) {
	if r.journal == nil {
		return
	}
	_, err := r.journal.Record(ctx, intake.Event{
		ReminderID: rem.ID,
		Medication: rem.MedicationName,
		Kind:       kind,
		At:         r.clk.Now(),
	})
	if err != nil {
		log.Printf("[repl] Error: failed to journal dose: %v", err)
	}
}

var editKeys = map[string]bool{
	"name":      true,
	"dosage":    true,
	"frequency": true,
	"days":      true,
	"duration":  true,
	"notes":     true,
	"active":    true,
}

func (r *REPL) handleEdit(args string) error {
	idArg, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	rem, err := r.resolve(idArg)
	if err != nil {
		return err
	}

	changes, err := parseAssignments(rest, editKeys)
	if err != nil {
		return fmt.Errorf("usage: /edit <id> key=value... (keys: name, dosage, frequency, days, notes, active): %w", err)
	}

	fields, err := updateFields(changes)
	if err != nil {
		return err
	}

	ok, err := r.reminders.Update(rem.ID, fields)
	if !ok {
		return fmt.Errorf("%w: %s", reminder.ErrNotFound, ui.ShortID(rem.ID))
	}
	r.reportSave(err)

	updated, _ := r.reminders.Get(rem.ID)
	r.displaySuccess(r.formatter.T("reminder_updated"))
	r.println(r.formatter.FormatReminder(updated, r.clk.Now()))
	r.println()
	return nil
}

func updateFields(changes map[string]string) (reminder.UpdateFields, error) {
	var f reminder.UpdateFields
	for key, value := range changes {
		value := strings.TrimSpace(value)
		switch key {
		case "name":
			if value == "" {
				return f, errors.New("name must not be empty")
			}
			f.MedicationName = &value
		case "dosage":
			if value == "" {
				return f, errors.New("dosage must not be empty")
			}
			f.Dosage = &value
		case "frequency":
			label, err := parseFrequency(value)
			if err != nil {
				return f, err
			}
			f.Frequency = &label
		case "days", "duration":
			days, err := parseDays(value)
			if err != nil {
				return f, err
			}
			f.Duration = &days
		case "notes":
			f.Notes = &value
		case "active":
			on, err := parseOnOff(value)
			if err != nil {
				return f, err
			}
			f.IsActive = &on
		default:
			return f, fmt.Errorf("unknown key %q", key)
		}
	}
	return f, nil
}

func parseOnOff(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "yes", "y", "true", "on", "1":
		return true, nil
	case "no", "n", "false", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected yes or no, got %q", value)
}

func (r *REPL) handleDelete(ctx context.Context, args string) error {
	rem, err := r.resolve(args)
	if err != nil {
		return err
	}

	ok, err := r.reminders.Delete(rem.ID)
	if !ok {
		return fmt.Errorf("%w: %s", reminder.ErrNotFound, ui.ShortID(rem.ID))
	}
	r.reportSave(err)

	if r.journal != nil {
		if err := r.journal.DeleteReminder(ctx, rem.ID); err != nil {
			log.Printf("[repl] Error: failed to delete dose history: %v", err)
		}
	}

	r.displaySuccess(fmt.Sprintf("%s: %s", r.formatter.T("reminder_deleted"), rem.MedicationName))
	return nil
}

// handleStatus prints the reminder's countdown. With a number of seconds it
// keeps the line updating for that long or until the dose is ready.
func (r *REPL) handleStatus(ctx context.Context, args string) error {
	fields := strings.Fields(args)
	rem, err := r.resolve(args)
	if err != nil {
		return err
	}

	if len(fields) < 2 || rem.NextTime == nil {
		r.println(r.formatter.FormatCountdown(rem.MedicationName, reminder.StatusAt(r.clk.Now(), rem.NextTime)))
		r.println()
		return nil
	}

	secs, err := strconv.Atoi(fields[1])
	if err != nil || secs <= 0 {
		return fmt.Errorf("invalid number of seconds %q", fields[1])
	}
	live := time.Duration(secs) * time.Second
	if live > maxLiveCountdown {
		live = maxLiveCountdown
	}

	ctx, cancel := context.WithTimeout(ctx, live)
	defer cancel()

	line := ui.NewStatusLine(r.out, r.formatter.Colored())
	err = scheduler.Countdown(ctx, r.clk, *rem.NextTime, r.config.CountdownInterval(), func(st reminder.Status) {
		r.mu.Lock()
		line.Update(r.formatter.FormatCountdown(rem.MedicationName, st))
		r.mu.Unlock()
	})
	r.mu.Lock()
	line.Done()
	r.mu.Unlock()

	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

// handleHistory shows one reminder's journal, or adherence for the last
// week when no id is given.
func (r *REPL) handleHistory(ctx context.Context, args string) error {
	if r.journal == nil {
		return errors.New("dose journal is not available")
	}

	if strings.TrimSpace(args) == "" {
		rows, err := r.journal.Summary(ctx, r.clk.Now().Add(-adherenceWindow))
		if err != nil {
			return err
		}
		r.println(r.formatter.FormatAdherence(rows))
		r.println()
		return nil
	}

	rem, err := r.resolve(args)
	if err != nil {
		return err
	}
	events, err := r.journal.List(ctx, rem.ID, historyLimit)
	if err != nil {
		return err
	}
	r.println(r.formatter.FormatHistory(events))
	r.println()
	return nil
}

func (r *REPL) handleLang(args string) error {
	lang := strings.ToLower(strings.TrimSpace(args))
	if lang == "" {
		options := make([]ui.SelectorOption, len(preferences.Languages))
		for i, l := range preferences.Languages {
			options[i] = ui.SelectorOption{Label: l}
		}
		idx, err := r.choose(r.formatter.T("language"), options, r.prefs.Current().Language)
		if err != nil {
			return err
		}
		lang = options[idx].Label
	}

	if err := r.prefs.SetLanguage(lang); err != nil {
		return err
	}
	r.displaySystem(fmt.Sprintf("%s: %s", r.formatter.T("language"), lang))
	return nil
}

func (r *REPL) handleTheme(args string) error {
	switch strings.ToLower(strings.TrimSpace(args)) {
	case "dark":
		r.prefs.SetDarkMode(true)
	case "light":
		r.prefs.SetDarkMode(false)
	case "toggle", "":
		r.prefs.ToggleDarkMode()
	default:
		return errors.New("usage: /theme dark|light|toggle")
	}

	state := r.formatter.T("off")
	if r.prefs.Current().DarkMode {
		state = r.formatter.T("on")
	}
	r.displaySystem(fmt.Sprintf("%s: %s", r.formatter.T("dark_mode"), state))
	return nil
}

func (r *REPL) handleToggle(args string) error {
	key := strings.ToLower(strings.TrimSpace(args))
	switch key {
	case preferences.KeyNotifications, preferences.KeySound, preferences.KeyVibration:
	default:
		return errors.New("usage: /toggle notifications|sound|vibration")
	}

	on, err := r.prefs.Toggle(key)
	if err != nil {
		return err
	}

	state := r.formatter.T("off")
	if on {
		state = r.formatter.T("on")
	}
	r.displaySystem(fmt.Sprintf("%s: %s", r.formatter.T(key), state))
	return nil
}
