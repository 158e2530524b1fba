package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmhodges/clock"
	"github.com/spf13/cobra"

	"github.com/notexe/med-reminder/internal/account"
	"github.com/notexe/med-reminder/internal/api"
	"github.com/notexe/med-reminder/internal/assistant"
	"github.com/notexe/med-reminder/internal/config"
	"github.com/notexe/med-reminder/internal/intake"
	"github.com/notexe/med-reminder/internal/preferences"
	"github.com/notexe/med-reminder/internal/reminder"
	"github.com/notexe/med-reminder/internal/repl"
)

var (
	configPath   string
	dataDir      string
	providerFlag string
	noColor      bool
)

var rootCmd = &cobra.Command{
	Use:          "medreminder",
	Short:        "Medication reminders with dose cooldowns and an assistant",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runInteractive,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.GetDefaultConfigPath(), "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.Flags().StringVar(&providerFlag, "provider", "", "Assistant provider (local, deepseek, ollama)")

	rootCmd.AddCommand(listCmd, watchCmd, mcpCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configuration and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}

	if providerFlag != "" {
		cfg.Provider = providerFlag
	}
	if dataDir != "" {
		cfg.Storage.DataDir = config.ExpandPath(dataDir)
	}
	if noColor {
		cfg.UI.ColoredOutput = false
	}

	if err := cfg.Validate(); err != nil {
		if cfg.Provider == config.ProviderDeepSeek && cfg.DeepSeek.APIKey == "" {
			fmt.Fprintf(os.Stderr, "Tip: Set DEEPSEEK_API_KEY environment variable or add it to config file\n")
		}
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return cfg, nil
}

// services are the stores shared by every command.
type services struct {
	clk       clock.Clock
	reminders *reminder.Store
	journal   *intake.Journal
}

func openServices(cfg *config.Config) *services {
	clk := clock.New()
	s := &services{
		clk:       clk,
		reminders: reminder.OpenStore(cfg.RemindersPath(), clk),
	}

	journal, err := intake.Open(cfg.JournalPath())
	if err != nil {
		log.Printf("[medreminder] Warning: dose journal disabled: %v", err)
	} else {
		s.journal = journal
	}
	return s
}

func (s *services) Close() {
	if s.journal != nil {
		s.journal.Close()
	}
}

func loadPreferences(cfg *config.Config) *preferences.Manager {
	prefs := preferences.NewManager(preferences.Preferences{
		DarkMode:      cfg.Preferences.DarkMode,
		Language:      cfg.Preferences.Language,
		Notifications: cfg.Preferences.Notifications,
		Sound:         cfg.Preferences.Sound,
		Vibration:     cfg.Preferences.Vibration,
	})
	if err := prefs.Load(cfg.PrefsPath()); err != nil {
		log.Printf("[medreminder] Warning: %v", err)
	}
	return prefs
}

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc := openServices(cfg)
	defer svc.Close()

	provider, err := api.NewProvider(cfg.GetProviderConfig())
	if err != nil {
		return fmt.Errorf("error creating provider: %w", err)
	}
	if provider != nil {
		defer provider.Close()
	}

	replInstance, err := repl.NewREPL(repl.Deps{
		Config:    cfg,
		Reminders: svc.reminders,
		Accounts:  account.OpenStore(cfg.UsersPath(), cfg.Auth.BcryptCost, svc.clk),
		Journal:   svc.journal,
		Prefs:     loadPreferences(cfg),
		Responder: assistant.New(cfg, provider),
		Clock:     svc.clk,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			replInstance.Stop()
		case <-done:
		}
	}()

	return replInstance.Start(ctx)
}
