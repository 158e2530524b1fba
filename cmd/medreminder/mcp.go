package main

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/notexe/med-reminder/internal/reminder"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the reminder tools over MCP (stdio)",
	Long: `Serve the reminder tools over the Model Context Protocol on stdin/stdout.

Tools:
    add_reminder      Add a reminder (medication_name, dosage, frequency, duration, notes)
    list_reminders    List active reminders with their countdowns
    get_reminder      Show one reminder
    take_dose         Record a dose and start the cooldown
    reminder_status   Ready now, or time until the next dose
    update_reminder   Change reminder fields
    delete_reminder   Delete a reminder permanently

Add to an MCP client configuration:
    {
      "mcpServers": {
        "medreminder": {
          "command": "/path/to/medreminder",
          "args": ["mcp"]
        }
      }
    }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc := openServices(cfg)
	defer svc.Close()

	s := reminder.NewServer(svc.reminders, svc.clk)
	if err := server.ServeStdio(s.MCPServer()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
