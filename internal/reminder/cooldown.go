package reminder

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DefaultCooldownMinutes applies to frequency labels outside the table.
const DefaultCooldownMinutes = 8 * 60

var cooldownTable = map[string]int{
	FrequencyOnceDaily:   24 * 60,
	FrequencyTwiceDaily:  12 * 60,
	FrequencyThriceDaily: 8 * 60,
	FrequencyFourDaily:   6 * 60,
	FrequencyEvery6Hours: 6 * 60,
	FrequencyEvery8Hours: 8 * 60,
	FrequencyEvery12Hour: 12 * 60,
}

// CooldownMinutes returns the minimum gap between two doses for a frequency label.
// Matching ignores case and surrounding whitespace.
func CooldownMinutes(frequency string) int {
	label := strings.TrimSpace(frequency)
	if m, ok := cooldownTable[label]; ok {
		return m
	}
	for k, m := range cooldownTable {
		if strings.EqualFold(k, label) {
			return m
		}
	}
	return DefaultCooldownMinutes
}

// Cooldown is CooldownMinutes as a duration.
func Cooldown(frequency string) time.Duration {
	return time.Duration(CooldownMinutes(frequency)) * time.Minute
}

// DoseTaken returns the time the next dose becomes allowed.
func DoseTaken(now time.Time, frequency string) time.Time {
	return now.Add(Cooldown(frequency))
}

// State is the display state of a reminder.
type State int

const (
	Ready State = iota
	CountingDown
)

func (s State) String() string {
	if s == CountingDown {
		return "counting down"
	}
	return "ready"
}

// Status is the result of evaluating a reminder at a point in time.
type Status struct {
	State     State
	Remaining time.Duration
}

// StatusAt reports Ready when next is nil or already reached.
func StatusAt(now time.Time, next *time.Time) Status {
	if next == nil || !now.Before(*next) {
		return Status{State: Ready}
	}
	return Status{State: CountingDown, Remaining: next.Sub(now)}
}

// Progress returns the elapsed fraction of the current cooldown in [0, 1].
func Progress(now time.Time, next *time.Time, frequency string) float64 {
	st := StatusAt(now, next)
	if st.State == Ready {
		return 1
	}
	total := Cooldown(frequency)
	p := float64(total-st.Remaining) / float64(total)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// FormatRemaining renders a countdown at minute precision.
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return "0 min"
	}
	d = d.Round(time.Minute)
	if d < time.Minute {
		d = time.Minute
	}
	days := int(d / (24 * time.Hour))
	hours := int(d % (24 * time.Hour) / time.Hour)
	minutes := int(d % time.Hour / time.Minute)
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %02dm", hours, minutes)
	default:
		return fmt.Sprintf("%d min", minutes)
	}
}

var frequencySynonyms = []struct {
	label   string
	phrases []string
}{
	{FrequencyTwiceDaily, []string{"twice daily", "twice a day", "two times a day", "2 times daily", "2 times a day", "bid"}},
	{FrequencyThriceDaily, []string{"three times daily", "three times a day", "3 times daily", "3 times a day", "tid"}},
	{FrequencyFourDaily, []string{"four times daily", "four times a day", "4 times daily", "4 times a day", "qid"}},
	{FrequencyEvery6Hours, []string{"every 6 hours", "every six hours", "q6h"}},
	{FrequencyEvery8Hours, []string{"every 8 hours", "every eight hours", "q8h"}},
	{FrequencyEvery12Hour, []string{"every 12 hours", "every twelve hours", "q12h"}},
	{FrequencyOnceDaily, []string{"once daily", "once a day", "every day", "each day", "daily"}},
}

var wordBoundary = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeFrequency maps free-form phrasing onto a supported label.
// It reports false when nothing matched.
func NormalizeFrequency(text string) (string, bool) {
	norm := " " + strings.TrimSpace(wordBoundary.ReplaceAllString(strings.ToLower(text), " ")) + " "
	for _, s := range frequencySynonyms {
		for _, p := range s.phrases {
			if strings.Contains(norm, " "+p+" ") {
				return s.label, true
			}
		}
	}
	return "", false
}
