package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/notexe/med-reminder/internal/config"
	"github.com/notexe/med-reminder/internal/scheduler"
)

var summaryNow bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Announce due doses and send the daily summary without the interactive app",
	Long: `Watch reminders in the background. Due doses are written to the log and,
when scheduler.telegram.bot_token and scheduler.telegram.chat_id are set, sent
to Telegram. With scheduler.summary_enabled a digest is sent on
scheduler.summary_cron.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&summaryNow, "summary-now", false, "Send the summary once and exit")
}

func buildNotifier(cfg *config.Config) (scheduler.Notifier, error) {
	notifiers := scheduler.Multi{scheduler.LogNotifier{}}

	if cfg.Scheduler.Telegram.Enabled() {
		tg, err := scheduler.NewTelegramNotifier(cfg.Scheduler.Telegram.BotToken, cfg.Scheduler.Telegram.ChatID)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, tg)
	}
	return notifiers, nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc := openServices(cfg)
	defer svc.Close()

	notifier, err := buildNotifier(cfg)
	if err != nil {
		return err
	}

	var journal scheduler.Summarizer
	if svc.journal != nil {
		journal = svc.journal
	}
	summary := scheduler.NewSummary(svc.reminders, journal, notifier, svc.clk)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if summaryNow {
		if err := summary.Send(ctx); err != nil {
			return fmt.Errorf("failed to send summary: %w", err)
		}
		return nil
	}

	if cfg.Scheduler.SummaryEnabled {
		if err := summary.Start(cfg.Scheduler.SummaryCron); err != nil {
			return err
		}
		defer summary.Stop()
	}

	prefs := loadPreferences(cfg)
	watcher := scheduler.NewWatcher(svc.reminders, svc.clk, notifier, cfg.RefreshInterval())
	watcher.Translate = prefs.T
	watcher.Enabled = func() bool { return prefs.Current().Notifications }

	log.Printf("[medreminder] Watching %s", cfg.RemindersPath())
	return watcher.Run(ctx)
}
