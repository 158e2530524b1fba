package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/notexe/med-reminder/internal/intake"
	"github.com/notexe/med-reminder/internal/preferences"
	"github.com/notexe/med-reminder/internal/reminder"
)

// Palette is one color theme.
type Palette struct {
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Border  lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	// Markdown is the glamour standard style name.
	Markdown string
}

var (
	LightPalette = Palette{
		Primary:  lipgloss.Color("25"),  // Deep blue
		Accent:   lipgloss.Color("91"),  // Plum
		Text:     lipgloss.Color("235"), // Near black
		Muted:    lipgloss.Color("242"),
		Border:   lipgloss.Color("31"),
		Success:  lipgloss.Color("28"),
		Warning:  lipgloss.Color("130"),
		Error:    lipgloss.Color("160"),
		Markdown: "light",
	}

	DarkPalette = Palette{
		Primary:  lipgloss.Color("81"),  // Bright cyan
		Accent:   lipgloss.Color("147"), // Light purple
		Text:     lipgloss.Color("252"),
		Muted:    lipgloss.Color("245"),
		Border:   lipgloss.Color("62"),  // Soft blue border
		Success:  lipgloss.Color("114"), // Soft green
		Warning:  lipgloss.Color("222"), // Warm yellow
		Error:    lipgloss.Color("203"), // Coral red
		Markdown: "dark",
	}
)

type styles struct {
	header  lipgloss.Style
	accent  lipgloss.Style
	text    lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	err     lipgloss.Style
	box     lipgloss.Style
}

func newStyles(p Palette) styles {
	return styles{
		header:  lipgloss.NewStyle().Foreground(p.Primary).Bold(true),
		accent:  lipgloss.NewStyle().Foreground(p.Accent),
		text:    lipgloss.NewStyle().Foreground(p.Text),
		muted:   lipgloss.NewStyle().Foreground(p.Muted).Italic(true),
		success: lipgloss.NewStyle().Foreground(p.Success).Bold(true),
		warning: lipgloss.NewStyle().Foreground(p.Warning).Bold(true),
		err:     lipgloss.NewStyle().Foreground(p.Error).Bold(true),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),
	}
}

// theme is a snapshot of the formatter state used by one render call.
type theme struct {
	colored bool
	wrap    int
	lang    string
	palette Palette
	styles
}

func (th theme) paint(st lipgloss.Style, s string) string {
	if !th.colored {
		return s
	}
	return st.Render(s)
}

func (th theme) t(key string) string {
	return preferences.Translate(th.lang, key)
}

// Formatter renders everything the terminal front-end prints. Its palette
// and language follow the user's preferences.
type Formatter struct {
	mu      sync.RWMutex
	colored bool
	wrap    int
	lang    string
	palette Palette
	styles  styles
}

func NewFormatter(colored bool, wordWrap int) *Formatter {
	if wordWrap <= 0 {
		wordWrap = 100
	}
	return &Formatter{
		colored: colored,
		wrap:    wordWrap,
		lang:    "en",
		palette: LightPalette,
		styles:  newStyles(LightPalette),
	}
}

// Apply switches palette and language to match p.
func (f *Formatter) Apply(p preferences.Preferences) {
	palette := LightPalette
	if p.DarkMode {
		palette = DarkPalette
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.palette = palette
	f.styles = newStyles(palette)
	if preferences.Supported(p.Language) {
		f.lang = p.Language
	}
}

// Bind applies the manager's current preferences and follows later changes
// until the returned function is called.
func (f *Formatter) Bind(m *preferences.Manager) func() {
	f.Apply(m.Current())
	return m.Subscribe(func(c preferences.Change) {
		f.Apply(c.Prefs)
	})
}

func (f *Formatter) Palette() Palette {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.palette
}

func (f *Formatter) Colored() bool {
	return f.colored
}

func (f *Formatter) theme() theme {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return theme{
		colored: f.colored,
		wrap:    f.wrap,
		lang:    f.lang,
		palette: f.palette,
		styles:  f.styles,
	}
}

// T translates key into the current language.
func (f *Formatter) T(key string) string {
	return f.theme().t(key)
}

func (f *Formatter) FormatError(err error) string {
	th := f.theme()
	return th.paint(th.err, "Error: ") + err.Error()
}

func (f *Formatter) FormatInfo(info string) string {
	th := f.theme()
	return th.paint(th.accent, info)
}

func (f *Formatter) FormatSystem(msg string) string {
	th := f.theme()
	return th.paint(th.muted, msg)
}

func (f *Formatter) FormatStatus(msg string) string {
	th := f.theme()
	return th.paint(th.muted, msg)
}

func (f *Formatter) FormatSuccess(msg string) string {
	th := f.theme()
	return th.paint(th.success, "✓") + " " + msg
}

// FormatAssistantMessage renders a reply as terminal markdown.
func (f *Formatter) FormatAssistantMessage(msg string) string {
	th := f.theme()
	label := th.paint(th.header, "Assistant:")
	if !th.colored {
		return label + " " + msg
	}
	return label + "\n" + renderMarkdown(msg, th.palette.Markdown, th.wrap)
}

func renderMarkdown(content, style string, wrap int) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return content
	}

	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}

	return strings.TrimSpace(rendered)
}

// FormatDue renders a "time to take" notification.
func (f *Formatter) FormatDue(title, body string) string {
	th := f.theme()
	line := th.paint(th.warning, "⏰ "+title)
	if body != "" {
		line += th.paint(th.muted, " ("+body+")")
	}
	return line
}

// FormatReminder renders one reminder as a card.
func (f *Formatter) FormatReminder(r reminder.Reminder, now time.Time) string {
	th := f.theme()

	st := reminder.StatusAt(now, r.NextTime)
	badge := th.paint(th.success, "["+th.t("ready")+"]")
	if st.State == reminder.CountingDown {
		badge = th.paint(th.warning, "["+th.t("next_dose")+" "+reminder.FormatRemaining(st.Remaining)+"]")
	}

	details := r.Dosage + " · " + r.Frequency
	if r.Duration > 0 {
		details += fmt.Sprintf(" · %d %s", r.Duration, th.t("days"))
	}

	lines := []string{
		th.paint(th.header, r.MedicationName) + "  " + badge,
		th.paint(th.text, details),
	}
	if r.Notes != "" {
		lines = append(lines, th.paint(th.muted, r.Notes))
	}

	progress := reminder.Progress(now, r.NextTime, r.Frequency)
	lines = append(lines,
		th.paint(th.accent, progressBar(progress, 20))+fmt.Sprintf(" %3.0f%%", progress*100),
		th.paint(th.muted, fmt.Sprintf("%s: %d  id: %s", th.t("doses_taken"), r.DosesTaken, ShortID(r.ID))),
	)

	content := strings.Join(lines, "\n")
	if th.colored {
		return th.box.Render(content)
	}
	return content
}

// FormatReminderList renders every reminder, or the empty-state hint.
func (f *Formatter) FormatReminderList(rs []reminder.Reminder, now time.Time) string {
	if len(rs) == 0 {
		return f.FormatSystem(f.T("no_reminders_yet"))
	}
	cards := make([]string, 0, len(rs))
	for _, r := range rs {
		cards = append(cards, f.FormatReminder(r, now))
	}
	return strings.Join(cards, "\n\n")
}

// FormatCountdown renders a single status line for a live countdown.
func (f *Formatter) FormatCountdown(name string, st reminder.Status) string {
	th := f.theme()
	if st.State == reminder.Ready {
		return th.paint(th.header, name) + ": " + th.paint(th.success, th.t("ready"))
	}
	return th.paint(th.header, name) + ": " + th.t("next_dose") + " " + formatClock(st.Remaining)
}

// formatClock renders d as H:MM:SS for second-by-second updates.
func formatClock(d time.Duration) string {
	d = d.Truncate(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// FormatHistory renders journal events newest first.
func (f *Formatter) FormatHistory(events []intake.Event) string {
	th := f.theme()
	if len(events) == 0 {
		return th.paint(th.muted, th.t("no_history"))
	}

	var b strings.Builder
	for i, e := range events {
		if i > 0 {
			b.WriteString("\n")
		}
		kind := th.paint(th.success, th.t("taken"))
		if e.Kind == intake.KindSkipped {
			kind = th.paint(th.warning, th.t("skipped"))
		}
		fmt.Fprintf(&b, "%s  %s  %s", th.paint(th.muted, e.At.Local().Format("2006-01-02 15:04")), kind, e.Medication)
	}
	return b.String()
}

// FormatAdherence renders per-medication adherence since a cutoff.
func (f *Formatter) FormatAdherence(rows []intake.Adherence) string {
	th := f.theme()
	if len(rows) == 0 {
		return th.paint(th.muted, th.t("no_history"))
	}

	var b strings.Builder
	for i, a := range rows {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s  %s %s  %s: %d  %s: %d",
			th.paint(th.header, a.Medication),
			th.paint(th.accent, progressBar(a.Ratio(), 10)),
			fmt.Sprintf("%3.0f%%", a.Ratio()*100),
			th.t("taken"), a.Taken,
			th.t("skipped"), a.Skipped)
	}
	return b.String()
}

// FormatSettings renders the preferences screen.
func (f *Formatter) FormatSettings(p preferences.Preferences) string {
	th := f.theme()

	onOff := func(on bool) string {
		if on {
			return th.paint(th.success, th.t("on"))
		}
		return th.paint(th.muted, th.t("off"))
	}
	row := func(key, value string) string {
		return "  " + th.paint(th.text, fmt.Sprintf("%-16s", th.t(key))) + " " + value
	}

	lines := []string{
		th.paint(th.header, th.t("settings")),
		row("dark_mode", onOff(p.DarkMode)),
		row("language", th.paint(th.accent, p.Language)),
		row("notifications", onOff(p.Notifications)),
		row("sound", onOff(p.Sound)),
		row("vibration", onOff(p.Vibration)),
	}
	return strings.Join(lines, "\n")
}

// FormatWelcome renders the banner shown after login.
func (f *Formatter) FormatWelcome(username, provider string) string {
	th := f.theme()

	title := fmt.Sprintf("%s, %s", th.t("welcome"), username)
	assistantLine := "Assistant: " + providerName(provider)
	helpLine := "Type /help for commands"

	if !th.colored {
		return strings.Join([]string{"", title, assistantLine, helpLine, ""}, "\n")
	}

	content := strings.Join([]string{
		th.header.Render(title),
		th.muted.Render(assistantLine),
		"",
		th.accent.Render(helpLine),
	}, "\n")
	return "\n" + th.box.Render(content) + "\n"
}

func providerName(provider string) string {
	switch provider {
	case "deepseek":
		return "DeepSeek"
	case "ollama":
		return "Ollama"
	default:
		return "offline"
	}
}

type helpEntry struct {
	cmd  string
	desc string
}

var helpSections = []struct {
	title   string
	entries []helpEntry
}{
	{"Reminders", []helpEntry{
		{"/list", "Show active reminders"},
		{"/add [name|dosage|frequency[|days[|notes]]]", "Add a reminder"},
		{"/take <id>", "Record a dose and start the cooldown"},
		{"/skip <id>", "Record a skipped dose"},
		{"/edit <id> key=value...", "Change name, dosage, frequency, days, notes, active"},
		{"/delete <id>", "Delete a reminder"},
		{"/status <id> [seconds]", "Show the countdown, live for a while if seconds is set"},
		{"/history [id]", "Dose history, or adherence for the last 7 days"},
	}},
	{"Settings", []helpEntry{
		{"/settings", "Show preferences"},
		{"/lang [en|ro|ru]", "Change language"},
		{"/theme dark|light|toggle", "Change theme"},
		{"/toggle notifications|sound|vibration", "Switch a preference"},
	}},
	{"General", []helpEntry{
		{"/clear", "Clear the assistant conversation"},
		{"/logout", "Log out"},
		{"/help", "Show this help"},
		{"/quit", "Exit"},
	}},
}

func (f *Formatter) FormatHelp() string {
	th := f.theme()

	lines := []string{"", th.paint(th.header, "Commands")}
	for _, section := range helpSections {
		lines = append(lines, "", th.paint(th.accent, section.title))
		for _, e := range section.entries {
			if th.colored {
				lines = append(lines, "  "+th.success.UnsetBold().Render(e.cmd)+" "+th.text.Render(e.desc))
			} else {
				lines = append(lines, fmt.Sprintf("  %-45s - %s", e.cmd, e.desc))
			}
		}
	}
	lines = append(lines,
		"",
		th.paint(th.muted, "  Anything else is sent to the assistant, e.g. \"remind me to take 500mg amoxicillin twice daily\""),
		"",
	)
	return strings.Join(lines, "\n")
}

// FormatPrompt returns the input prompt for username.
func (f *Formatter) FormatPrompt(username string) string {
	th := f.theme()
	if th.colored {
		return lipgloss.NewStyle().Foreground(th.palette.Border).Render(username) + th.success.Render(" > ")
	}
	return username + " > "
}

// FormatLabelPrompt returns a prompt such as "Password: " in the current
// language.
func (f *Formatter) FormatLabelPrompt(key string) string {
	th := f.theme()
	return th.paint(th.accent, th.t(key)+": ")
}

// ShortID is the id prefix shown to users.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func progressBar(fraction float64, width int) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
