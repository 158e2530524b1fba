package repl

import (
	"errors"
	"fmt"
	"log"

	"github.com/notexe/med-reminder/internal/reminder"
	"github.com/notexe/med-reminder/internal/ui"
)

// chooser asks the user to pick one option and returns its index.
type chooser func(question string, options []ui.SelectorOption, current string) (int, error)

// chooseWithSelector runs the arrow-key selector. Readline is closed while
// the selector owns the terminal and background output is held back.
func (r *REPL) chooseWithSelector(question string, options []ui.SelectorOption, current string) (int, error) {
	r.pause()
	defer r.resume()

	r.rl.Close()
	defer func() {
		if err := r.reopen(); err != nil {
			log.Printf("[repl] Error: %v", err)
		}
	}()

	selector := ui.NewSelector(question, options, r.formatter)
	selector.Preselect(current)
	return selector.Run()
}

func frequencyOptions() []ui.SelectorOption {
	options := make([]ui.SelectorOption, len(reminder.Frequencies))
	for i, f := range reminder.Frequencies {
		options[i] = ui.SelectorOption{
			Label:       f,
			Description: fmt.Sprintf("every %dh", reminder.CooldownMinutes(f)/60),
		}
	}
	return options
}

// addWizard collects a new reminder field by field.
func (r *REPL) addWizard() error {
	name, err := r.prompt("medication")
	if err != nil {
		return err
	}
	if name == "" {
		return errors.New("medication name is required")
	}

	dosage, err := r.prompt("dosage")
	if err != nil {
		return err
	}
	if dosage == "" {
		return errors.New("dosage is required")
	}

	options := frequencyOptions()
	idx, err := r.choose(r.formatter.T("frequency"), options, reminder.FrequencyOnceDaily)
	if err != nil {
		return err
	}

	daysText, err := r.prompt("duration_days")
	if err != nil {
		return err
	}
	days, err := parseDays(daysText)
	if err != nil {
		return err
	}

	notes, err := r.prompt("notes")
	if err != nil {
		return err
	}

	r.addReminder(reminder.NewReminder{
		MedicationName: name,
		Dosage:         dosage,
		Frequency:      options[idx].Label,
		Duration:       days,
		Notes:          notes,
	})
	return nil
}
