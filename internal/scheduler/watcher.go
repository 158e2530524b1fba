package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jmhodges/clock"

	"github.com/notexe/med-reminder/internal/reminder"
)

// Lister is the part of the reminder store the scheduler reads.
type Lister interface {
	ListActive() []reminder.Reminder
}

// Watcher polls the store and notifies once per dose when a reminder's
// cooldown runs out.
type Watcher struct {
	store    Lister
	clk      clock.Clock
	notifier Notifier
	interval time.Duration

	// Translate localizes message text; nil means English.
	Translate func(key string) string
	// Enabled gates delivery; nil means always on.
	Enabled func() bool

	mu       sync.Mutex
	notified map[string]time.Time // reminder id -> NextTime already announced
}

func NewWatcher(store Lister, clk clock.Clock, notifier Notifier, interval time.Duration) *Watcher {
	if clk == nil {
		clk = clock.New()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Watcher{
		store:    store,
		clk:      clk,
		notifier: notifier,
		interval: interval,
		notified: make(map[string]time.Time),
	}
}

// Run checks immediately and then every interval until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	log.Printf("[scheduler] Watcher started. Interval: %s", w.interval)

	for {
		w.Check(ctx)

		select {
		case <-ctx.Done():
			log.Println("[scheduler] Watcher shutting down...")
			return nil
		case <-w.clk.After(w.interval):
		}
	}
}

// Check notifies about every dose that became due since the last check and
// returns how many notifications were attempted. Reminders that were never
// taken have no cooldown and are not announced.
func (w *Watcher) Check(ctx context.Context) int {
	now := w.clk.Now()
	active := w.store.ListActive()

	w.mu.Lock()
	seen := make(map[string]bool, len(active))
	var due []reminder.Reminder
	for _, r := range active {
		seen[r.ID] = true
		if r.NextTime == nil {
			continue
		}
		if reminder.StatusAt(now, r.NextTime).State != reminder.Ready {
			continue
		}
		if last, ok := w.notified[r.ID]; ok && last.Equal(*r.NextTime) {
			continue
		}
		w.notified[r.ID] = *r.NextTime
		due = append(due, r)
	}
	for id := range w.notified {
		if !seen[id] {
			delete(w.notified, id)
		}
	}
	w.mu.Unlock()

	if len(due) == 0 || (w.Enabled != nil && !w.Enabled()) {
		return 0
	}

	for _, r := range due {
		if err := w.notifier.Notify(ctx, w.dueMessage(r)); err != nil {
			log.Printf("[scheduler] Error: notify %s failed: %v", r.ID, err)
		}
	}
	return len(due)
}

func (w *Watcher) dueMessage(r reminder.Reminder) Message {
	t := w.Translate
	if t == nil {
		t = englishOnly
	}
	return Message{
		Title: fmt.Sprintf("%s %s", t("time_to_take"), r.MedicationName),
		Body:  fmt.Sprintf("%s, %s", r.Dosage, r.Frequency),
	}
}

func englishOnly(key string) string {
	switch key {
	case "time_to_take":
		return "Time to take"
	}
	return key
}

// Countdown calls fn with the reminder's status every tick until the dose is
// ready or ctx is cancelled. It returns nil once ready.
func Countdown(ctx context.Context, clk clock.Clock, next time.Time, tick time.Duration, fn func(reminder.Status)) error {
	if tick <= 0 {
		tick = time.Second
	}
	for {
		st := reminder.StatusAt(clk.Now(), &next)
		fn(st)
		if st.State == reminder.Ready {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clk.After(tick):
		}
	}
}
