// Package preferences holds the user's display and notification settings
// and notifies subscribers when they change.
package preferences

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var ErrUnsupportedLanguage = errors.New("unsupported language")

// Change keys.
const (
	KeyDarkMode      = "dark_mode"
	KeyLanguage      = "language"
	KeyNotifications = "notifications"
	KeySound         = "sound"
	KeyVibration     = "vibration"
)

type Preferences struct {
	DarkMode      bool   `koanf:"dark_mode"`
	Language      string `koanf:"language"`
	Notifications bool   `koanf:"notifications"`
	Sound         bool   `koanf:"sound"`
	Vibration     bool   `koanf:"vibration"`
}

func (p Preferences) toMap() map[string]interface{} {
	return map[string]interface{}{
		KeyDarkMode:      p.DarkMode,
		KeyLanguage:      p.Language,
		KeyNotifications: p.Notifications,
		KeySound:         p.Sound,
		KeyVibration:     p.Vibration,
	}
}

// Defaults are light mode, English and every alert enabled.
func Defaults() Preferences {
	return Preferences{
		Language:      "en",
		Notifications: true,
		Sound:         true,
		Vibration:     true,
	}
}

// Change is delivered to subscribers after a setting changes.
type Change struct {
	Key   string
	Prefs Preferences
}

type subscriber struct {
	id int
	fn func(Change)
}

// Manager owns the current preferences. It is safe for concurrent use.
type Manager struct {
	mu     sync.Mutex
	prefs  Preferences
	subs   []subscriber
	nextID int
}

func NewManager(initial Preferences) *Manager {
	if !Supported(initial.Language) {
		initial.Language = "en"
	}
	return &Manager{prefs: initial}
}

func (m *Manager) Current() Preferences {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prefs
}

// Subscribe registers fn for future changes and returns a function that
// removes it. Subscribers run in registration order on the caller's
// goroutine.
func (m *Manager) Subscribe(fn func(Change)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.subs = append(m.subs, subscriber{id: id, fn: fn})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, s := range m.subs {
			if s.id == id {
				m.subs = append(m.subs[:i:i], m.subs[i+1:]...)
				return
			}
		}
	}
}

// update applies mutate and notifies subscribers if anything changed.
func (m *Manager) update(key string, mutate func(p *Preferences)) {
	m.mu.Lock()
	before := m.prefs
	mutate(&m.prefs)
	after := m.prefs
	subs := make([]subscriber, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	if before == after {
		return
	}
	for _, s := range subs {
		s.fn(Change{Key: key, Prefs: after})
	}
}

func (m *Manager) SetDarkMode(on bool) {
	m.update(KeyDarkMode, func(p *Preferences) { p.DarkMode = on })
}

// ToggleDarkMode flips dark mode and returns the new value.
func (m *Manager) ToggleDarkMode() bool {
	var on bool
	m.update(KeyDarkMode, func(p *Preferences) {
		p.DarkMode = !p.DarkMode
		on = p.DarkMode
	})
	return on
}

func (m *Manager) SetLanguage(lang string) error {
	if !Supported(lang) {
		return fmt.Errorf("%w: %s (supported: en, ro, ru)", ErrUnsupportedLanguage, lang)
	}
	m.update(KeyLanguage, func(p *Preferences) { p.Language = lang })
	return nil
}

func (m *Manager) SetNotifications(on bool) {
	m.update(KeyNotifications, func(p *Preferences) { p.Notifications = on })
}

func (m *Manager) SetSound(on bool) {
	m.update(KeySound, func(p *Preferences) { p.Sound = on })
}

func (m *Manager) SetVibration(on bool) {
	m.update(KeyVibration, func(p *Preferences) { p.Vibration = on })
}

// Toggle flips one of the boolean settings by key.
func (m *Manager) Toggle(key string) (bool, error) {
	var on bool
	var flip func(p *Preferences)
	switch key {
	case KeyDarkMode:
		flip = func(p *Preferences) { p.DarkMode = !p.DarkMode; on = p.DarkMode }
	case KeyNotifications:
		flip = func(p *Preferences) { p.Notifications = !p.Notifications; on = p.Notifications }
	case KeySound:
		flip = func(p *Preferences) { p.Sound = !p.Sound; on = p.Sound }
	case KeyVibration:
		flip = func(p *Preferences) { p.Vibration = !p.Vibration; on = p.Vibration }
	default:
		return false, fmt.Errorf("unknown setting: %s", key)
	}
	m.update(key, flip)
	return on, nil
}

// T translates key into the current language.
func (m *Manager) T(key string) string {
	return Translate(m.Current().Language, key)
}

// Load reads preferences from a YAML file. Missing keys keep their current
// values; a missing file is not an error. Subscribers are not notified.
func (m *Manager) Load(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(m.Current().toMap(), "."), nil); err != nil {
		return fmt.Errorf("failed to load current preferences: %w", err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load preferences: %w", err)
	}

	var p Preferences
	if err := k.Unmarshal("", &p); err != nil {
		return fmt.Errorf("failed to unmarshal preferences: %w", err)
	}
	if !Supported(p.Language) {
		p.Language = "en"
	}

	m.mu.Lock()
	m.prefs = p
	m.mu.Unlock()
	return nil
}

// Save writes the current preferences to a YAML file.
func (m *Manager) Save(path string) error {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(m.Current().toMap(), "."), nil); err != nil {
		return fmt.Errorf("failed to collect preferences: %w", err)
	}

	data, err := k.Marshal(yaml.Parser())
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return nil
}
