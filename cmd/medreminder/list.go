package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/notexe/med-reminder/internal/ui"
)

var listAll bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print reminders with their status",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listAll, "all", false, "Include inactive reminders")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc := openServices(cfg)
	defer svc.Close()

	formatter := ui.NewFormatter(cfg.UI.ColoredOutput, cfg.UI.WordWrap)
	formatter.Apply(loadPreferences(cfg).Current())

	rs := svc.reminders.ListActive()
	if listAll {
		rs = svc.reminders.List()
	}

	fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatReminderList(rs, svc.clk.Now()))
	return nil
}
