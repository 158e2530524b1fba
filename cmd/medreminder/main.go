// Command medreminder tracks medication reminders with per-frequency
// cooldowns.
//
// Usage:
//
//	medreminder              # Interactive app (login, reminders, assistant)
//	medreminder list         # Print reminders with their status
//	medreminder watch        # Headless due-dose watcher and daily summary
//	medreminder mcp          # Reminder tools over MCP (stdio)
//
// Configuration is read from ~/.medreminder/config.yaml, a .env file and
// MEDREMINDER_* environment variables.
package main

func main() {
	Execute()
}
