package repl

func (r *REPL) displayError(err error) {
	r.println(r.formatter.FormatError(err))
	r.println()
}

func (r *REPL) displayWelcome() {
	r.print(r.formatter.FormatWelcome(r.user, r.config.Provider))
	r.println()
}

func (r *REPL) displayHelp() {
	r.print(r.formatter.FormatHelp())
	r.println()
}

func (r *REPL) displayInfo(msg string) {
	r.println(r.formatter.FormatInfo(msg))
	r.println()
}

func (r *REPL) displaySystem(msg string) {
	r.println(r.formatter.FormatSystem(msg))
	r.println()
}

func (r *REPL) displaySuccess(msg string) {
	r.println(r.formatter.FormatSuccess(msg))
	r.println()
}

func (r *REPL) displayAssistant(msg string) {
	r.println()
	r.println(r.formatter.FormatAssistantMessage(msg))
	r.println()
}

func (r *REPL) displayReminders() {
	r.println(r.formatter.FormatReminderList(r.reminders.ListActive(), r.clk.Now()))
	r.println()
}
