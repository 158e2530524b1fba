package assistant

import (
	"context"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/notexe/med-reminder/internal/reminder"
)

type category string

const (
	categoryGreeting  category = "greeting"
	categoryVitamins  category = "vitamins"
	categoryExercise  category = "exercise"
	categoryNutrition category = "nutrition"
	categoryWellness  category = "wellness"
	categoryReminder  category = "reminder"
	categoryFallback  category = "fallback"
)

var responses = map[category][]string{
	categoryGreeting: {
		"Hello! I'm your health and wellness assistant. How can I help you today?",
		"Hi there! I can assist with medication management, nutrition, exercise, and overall wellness. What do you need help with?",
		"Welcome! I'm here to help you maintain a healthy lifestyle. What can I assist you with?",
	},
	categoryVitamins: {
		"Vitamins are essential nutrients that support many bodily functions. Common ones include Vitamin C for immune support, Vitamin D for bone health, and B vitamins for energy.",
		"It's best to get vitamins primarily from a balanced diet. Fruits, vegetables, whole grains, and lean proteins are great sources.",
		"If you're thinking about supplements, consult a healthcare provider first to make sure you're getting the right ones for your needs.",
	},
	categoryExercise: {
		"A balanced exercise routine mixes cardiovascular, strength, and flexibility training. Aim for at least 150 minutes of moderate activity per week.",
		"For beginners, start with low-impact activities like walking or swimming, then gradually increase intensity and duration.",
		"Warm up before exercise and cool down afterward to prevent injuries. Listen to your body and don't push too hard too soon.",
	},
	categoryNutrition: {
		"A balanced diet includes a variety of foods from all food groups. Focus on whole foods like fruits, vegetables, lean proteins, and whole grains.",
		"For weight management, pay attention to portion sizes while still getting all necessary nutrients.",
		"Hydration matters for overall health. Aim for about 8 glasses of water per day, more if you're active or in hot weather.",
	},
	categoryWellness: {
		"Stress management is key to overall wellness. Meditation, deep breathing, and regular exercise can help reduce stress levels.",
		"Most adults need 7-9 hours of sleep per night. A consistent sleep schedule and a relaxing bedtime routine help.",
		"Regular check-ups with healthcare providers are important for preventive care.",
	},
	categoryReminder: {
		"I can set up medication reminders for you. Tell me the medication, the dosage, and how often you take it, e.g. \"remind me to take amoxicillin 500mg twice a day for 7 days\".",
		"For medication reminders, the exact dosage and frequency help you take your medication consistently. What would you like to be reminded about?",
		"I can keep track of your doses and tell you when the next one is due. Which medication should I remind you about?",
	},
	categoryFallback: {
		"I'm here to help with health and wellness topics! I can assist with medication reminders, nutrition, exercise, and general wellness. What would you like to know about?",
		"I can set up reminders for medications and vitamins. Just tell me what to remind you about and how often.",
		"For specific medical advice, please consult your healthcare provider. I'm here to provide general health and wellness information.",
	},
}

// Categories are checked in order; the first match wins.
var categoryPatterns = []struct {
	category category
	pattern  *regexp.Regexp
}{
	{categoryGreeting, regexp.MustCompile(`\b(hello|hi|hey|greetings)\b`)},
	{categoryVitamins, regexp.MustCompile(`\b(vitamin|supplement|nutrition)`)},
	{categoryExercise, regexp.MustCompile(`\b(exercise|workout|fitness|training)`)},
	{categoryNutrition, regexp.MustCompile(`\b(diet|meal|food)`)},
	{categoryWellness, regexp.MustCompile(`\b(stress|sleep|wellness|health)`)},
	{categoryReminder, regexp.MustCompile(`\b(medicine|medication|pill)`)},
}

var reminderPhrases = []string{
	"create reminder", "set reminder", "add reminder", "create a reminder",
	"set a reminder", "add a reminder", "make reminder", "make a reminder",
	"remind me to take", "set an alarm", "create an alarm",
	"remind me about", "schedule", "set a timer",
}

var (
	reminderWords   = []string{"remind", "reminder", "schedule", "alarm", "timer"}
	medicationWords = []string{
		"medicine", "medication", "antibiotic", "pill", "drug", "dose", "prescription",
		"amoxicillin", "penicillin", "ciprofloxacin", "azithromycin", "doxycycline",
	}
)

// Specific names come before the generic words so they win.
var knownMedications = []string{
	"amoxicillin", "penicillin", "azithromycin", "ciprofloxacin", "doxycycline",
	"metronidazole", "clindamycin", "erythromycin", "cephalexin", "sulfamethoxazole",
	"tetracycline", "levofloxacin", "clarithromycin", "vancomycin", "minocycline",
	"ibuprofen", "paracetamol", "acetaminophen", "aspirin", "metformin", "lisinopril",
	"atorvastatin", "omeprazole", "levothyroxine", "amlodipine",
	"antibiotic", "medication", "medicine", "pill", "prescription",
}

var navigationPhrases = []struct {
	target  string
	phrases []string
}{
	{NavigateReminders, []string{
		"go to reminder", "show reminder", "open reminder", "view reminder",
		"take me to reminder", "navigate to reminder", "list reminder",
	}},
	{NavigateHome, []string{
		"go to home", "go home", "show home", "open home", "view home",
		"take me to home", "navigate to home", "return to home", "back to home",
	}},
}

var (
	dosagePattern   = regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*(mg|mcg|ml|g|iu|tablets?|pills?|capsules?|drops?)\b`)
	durationPattern = regexp.MustCompile(`\b(\d+)\s*(days?|weeks?)\b`)
	cancelPattern   = regexp.MustCompile(`^(cancel|never ?mind|stop|forget it)\b`)
)

// KeywordResponder answers from canned responses and extracts reminders
// with pattern matching. It remembers a partially described reminder so a
// follow-up message can fill in what was missing.
type KeywordResponder struct {
	// Pick chooses an index in [0, n) among a category's responses.
	Pick func(n int) int

	mu      sync.Mutex
	pending *ReminderRequest
}

// NewKeywordResponder creates a keyword responder with random picks.
func NewKeywordResponder() *KeywordResponder {
	return &KeywordResponder{Pick: rand.IntN}
}

// Ask implements Responder. It never returns an error.
func (k *KeywordResponder) Ask(_ context.Context, text string) (*Reply, error) {
	input := strings.ToLower(strings.TrimSpace(text))

	if target := DetectNavigation(input); target != "" {
		return navigationReply(target), nil
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.pending != nil {
		if cancelPattern.MatchString(input) {
			k.pending = nil
			return &Reply{Text: "Okay, I won't create that reminder."}, nil
		}
		return k.continueRequest(input, text), nil
	}

	if IsReminderRequest(input) {
		req := Extract(input)
		return k.handleRequest(req), nil
	}

	return &Reply{Text: k.pick(detectCategory(input))}, nil
}

// Reset drops any partially described reminder.
func (k *KeywordResponder) Reset() {
	k.mu.Lock()
	k.pending = nil
	k.mu.Unlock()
}

func (k *KeywordResponder) pick(c category) string {
	options := responses[c]
	i := 0
	if k.Pick != nil {
		i = k.Pick(len(options))
	}
	if i < 0 || i >= len(options) {
		i = 0
	}
	return options[i]
}

// continueRequest merges a follow-up answer into the pending request.
func (k *KeywordResponder) continueRequest(input, raw string) *Reply {
	req := *k.pending
	found := Extract(input)

	switch {
	case req.Medication == "":
		if found.Medication != "" {
			req.Medication = found.Medication
		} else if name := strings.TrimSpace(raw); plausibleName(name) {
			req.Medication = titleCase(name)
		}
	case req.Dosage == "":
		if found.Dosage == "" && utf8.ValidString(raw) && strings.ContainsAny(input, "0123456789") && len(input) <= 20 {
			found.Dosage = strings.TrimSpace(raw)
		}
	}

	if req.Dosage == "" {
		req.Dosage = found.Dosage
	}
	if req.Frequency == "" {
		req.Frequency = found.Frequency
	}
	if req.Duration == 0 {
		req.Duration = found.Duration
	}

	return k.handleRequest(req)
}

// plausibleName accepts short valid UTF-8 text with at least one letter and
// no control characters.
func plausibleName(s string) bool {
	if s == "" || !utf8.ValidString(s) || utf8.RuneCountInString(s) > 40 {
		return false
	}
	letter := false
	for _, r := range s {
		if unicode.IsControl(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letter = true
		}
	}
	return letter
}

func (k *KeywordResponder) handleRequest(req ReminderRequest) *Reply {
	switch {
	case req.Medication == "":
		k.pending = &req
		return &Reply{Text: "I'd be happy to create a reminder for you. What medication do you need to be reminded about?"}
	case req.Dosage == "":
		k.pending = &req
		return &Reply{Text: fmt.Sprintf("Sure, I'll create a reminder for %s. What's the dosage you need to take?", req.Medication)}
	case req.Frequency == "":
		k.pending = &req
		return &Reply{Text: fmt.Sprintf("I'll set up a reminder for %s %s. How often do you need to take it?", req.Medication, req.Dosage)}
	}

	k.pending = nil
	return &Reply{
		Text:    fmt.Sprintf("I've created a reminder for you to take %s. Say \"show reminders\" to see it.", req.describe()),
		Request: &req,
	}
}

// DetectNavigation returns the navigation target named by a phrase such
// as "show reminders" or "go home", or "".
func DetectNavigation(input string) string {
	input = strings.ToLower(input)
	for _, nav := range navigationPhrases {
		for _, phrase := range nav.phrases {
			if strings.Contains(input, phrase) {
				return nav.target
			}
		}
	}
	return ""
}

func navigationReply(target string) *Reply {
	return &Reply{
		Text:     fmt.Sprintf("Navigating to %s...", titleCase(target)),
		Navigate: target,
	}
}

// IsReminderRequest reports whether the text asks for a medication
// reminder: either an explicit phrase, or a reminder word together with a
// medication word.
func IsReminderRequest(input string) bool {
	input = strings.ToLower(input)
	if containsAny(input, reminderPhrases) {
		return true
	}
	return containsAny(input, reminderWords) && containsAny(input, medicationWords)
}

// Extract pulls medication, dosage, frequency and duration out of free
// text. Missing fields are left empty.
func Extract(input string) ReminderRequest {
	input = strings.ToLower(input)
	var req ReminderRequest

	for _, name := range knownMedications {
		if strings.Contains(input, name) {
			req.Medication = titleCase(name)
			break
		}
	}

	if m := dosagePattern.FindStringSubmatch(input); m != nil {
		req.Dosage = m[1] + " " + m[2]
	}

	if label, ok := reminder.NormalizeFrequency(input); ok {
		req.Frequency = label
	}

	if m := durationPattern.FindStringSubmatch(input); m != nil {
		n, _ := strconv.Atoi(m[1])
		if strings.HasPrefix(m[2], "week") {
			n *= 7
		}
		req.Duration = n
	}

	return req
}

func detectCategory(input string) category {
	for _, c := range categoryPatterns {
		if c.pattern.MatchString(input) {
			return c.category
		}
	}
	return categoryFallback
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
