package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jmhodges/clock"
	"github.com/robfig/cron/v3"

	"github.com/notexe/med-reminder/internal/intake"
	"github.com/notexe/med-reminder/internal/reminder"
)

// Summarizer is the part of the dose journal the digest reads.
type Summarizer interface {
	Summary(ctx context.Context, since time.Time) ([]intake.Adherence, error)
}

// Summary sends a daily digest of upcoming doses and the last day's
// adherence on a cron schedule.
type Summary struct {
	store    Lister
	journal  Summarizer
	notifier Notifier
	clk      clock.Clock
	cron     *cron.Cron
}

func NewSummary(store Lister, journal Summarizer, notifier Notifier, clk clock.Clock) *Summary {
	if clk == nil {
		clk = clock.New()
	}
	return &Summary{
		store:    store,
		journal:  journal,
		notifier: notifier,
		clk:      clk,
	}
}

// Start schedules the digest with a standard 5-field cron spec.
func (s *Summary) Start(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		log.Println("[scheduler] Sending daily summary...")
		if err := s.Send(context.Background()); err != nil {
			log.Printf("[scheduler] Error: daily summary failed: %v", err)
			return
		}
		log.Println("[scheduler] Daily summary sent.")
	}); err != nil {
		return fmt.Errorf("invalid summary schedule %q: %w", spec, err)
	}

	s.cron = c
	c.Start()
	log.Printf("[scheduler] Daily summary scheduled: %s", spec)
	return nil
}

// Stop halts the schedule and waits for a running digest to finish.
func (s *Summary) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// Send builds and delivers the digest now.
func (s *Summary) Send(ctx context.Context) error {
	msg, err := s.Build(ctx)
	if err != nil {
		return err
	}
	return s.notifier.Notify(ctx, msg)
}

// Build renders the digest.
func (s *Summary) Build(ctx context.Context) (Message, error) {
	now := s.clk.Now()
	msg := Message{Title: "Medication summary"}

	active := s.store.ListActive()
	if len(active) == 0 {
		msg.Body = "No active reminders."
		return msg, nil
	}

	var b strings.Builder
	b.WriteString("Upcoming:\n")
	for _, r := range active {
		st := reminder.StatusAt(now, r.NextTime)
		when := "ready now"
		if st.State == reminder.CountingDown {
			when = "in " + reminder.FormatRemaining(st.Remaining)
		}
		fmt.Fprintf(&b, "• %s %s (%s): %s\n", r.MedicationName, r.Dosage, r.Frequency, when)
	}

	if s.journal != nil {
		adherence, err := s.journal.Summary(ctx, now.Add(-24*time.Hour))
		if err != nil {
			return Message{}, fmt.Errorf("failed to read journal: %w", err)
		}
		if len(adherence) > 0 {
			b.WriteString("\nLast 24 hours:\n")
			for _, a := range adherence {
				fmt.Fprintf(&b, "• %s: taken %d, skipped %d (%.0f%%)\n",
					a.Medication, a.Taken, a.Skipped, a.Ratio()*100)
			}
		}
	}

	msg.Body = strings.TrimRight(b.String(), "\n")
	return msg, nil
}
