package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
)

// Provider type constants (duplicated from api package to avoid import cycle)
const (
	ProviderLocal    = "local"
	ProviderDeepSeek = "deepseek"
	ProviderOllama   = "ollama"
)

const envPrefix = "MEDREMINDER_"

type Config struct {
	Provider    string            `koanf:"provider"`
	DeepSeek    DeepSeekConfig    `koanf:"deepseek"`
	Ollama      OllamaConfig      `koanf:"ollama"`
	Model       ModelConfig       `koanf:"model"`
	Storage     StorageConfig     `koanf:"storage"`
	Scheduler   SchedulerConfig   `koanf:"scheduler"`
	Preferences PreferencesConfig `koanf:"preferences"`
	UI          UIConfig          `koanf:"ui"`
	Auth        AuthConfig        `koanf:"auth"`
	Assistant   AssistantConfig   `koanf:"assistant"`
}

type DeepSeekConfig struct {
	APIKey  string `koanf:"api_key"`
	Timeout int    `koanf:"timeout"`
}

type OllamaConfig struct {
	BaseURL string `koanf:"base_url"`
	Timeout int    `koanf:"timeout"`
}

type ModelConfig struct {
	Name        string  `koanf:"name"`
	MaxTokens   int     `koanf:"max_tokens"`
	Temperature float64 `koanf:"temperature"`
}

// StorageConfig locates the data files. Relative file names are resolved
// against DataDir.
type StorageConfig struct {
	DataDir       string `koanf:"data_dir"`
	RemindersFile string `koanf:"reminders_file"`
	UsersFile     string `koanf:"users_file"`
	JournalFile   string `koanf:"journal_file"`
	PrefsFile     string `koanf:"prefs_file"`
}

type SchedulerConfig struct {
	RefreshInterval   int            `koanf:"refresh_interval"`   // seconds between due checks
	CountdownInterval int            `koanf:"countdown_interval"` // seconds between countdown ticks
	SummaryEnabled    bool           `koanf:"summary_enabled"`
	SummaryCron       string         `koanf:"summary_cron"`
	Telegram          TelegramConfig `koanf:"telegram"`
}

type TelegramConfig struct {
	BotToken string `koanf:"bot_token"`
	ChatID   int64  `koanf:"chat_id"`
}

// Enabled reports whether Telegram delivery is configured.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != 0
}

type PreferencesConfig struct {
	DarkMode      bool   `koanf:"dark_mode"`
	Language      string `koanf:"language"`
	Notifications bool   `koanf:"notifications"`
	Sound         bool   `koanf:"sound"`
	Vibration     bool   `koanf:"vibration"`
}

type UIConfig struct {
	ColoredOutput  bool `koanf:"colored_output"`
	ShowTimestamps bool `koanf:"show_timestamps"`
	WordWrap       int  `koanf:"word_wrap"`
}

type AuthConfig struct {
	BcryptCost int  `koanf:"bcrypt_cost"`
	Required   bool `koanf:"required"`
}

type AssistantConfig struct {
	MaxHistory int `koanf:"max_history"`
}

// Load builds the configuration from defaults, the optional YAML file at
// configPath, a .env file in the working directory and the environment.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		configPath = ExpandPath(configPath)

		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// MEDREMINDER_SCHEDULER__REFRESH_INTERVAL -> scheduler.refresh_interval
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if apiKey := os.Getenv("DEEPSEEK_API_KEY"); apiKey != "" {
		k.Set("deepseek.api_key", apiKey)
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		k.Set("scheduler.telegram.bot_token", token)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Storage.DataDir = ExpandPath(cfg.Storage.DataDir)

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderLocal:
	case ProviderDeepSeek:
		if c.DeepSeek.APIKey == "" {
			return fmt.Errorf("DeepSeek API key is required (set DEEPSEEK_API_KEY or add to config file)")
		}
	case ProviderOllama:
		if c.Ollama.BaseURL == "" {
			c.Ollama.BaseURL = "http://localhost:11434"
		}
	default:
		return fmt.Errorf("unknown provider: %s (supported: %s, %s, %s)",
			c.Provider, ProviderLocal, ProviderDeepSeek, ProviderOllama)
	}

	if c.Provider != ProviderLocal {
		if c.Model.Name == "" {
			return fmt.Errorf("model name is required")
		}
		if c.Model.MaxTokens <= 0 {
			return fmt.Errorf("max_tokens must be positive")
		}
		if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
			return fmt.Errorf("temperature must be between 0 and 2")
		}
	}

	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required")
	}

	if c.Scheduler.RefreshInterval <= 0 {
		return fmt.Errorf("scheduler.refresh_interval must be positive")
	}
	if c.Scheduler.CountdownInterval <= 0 {
		return fmt.Errorf("scheduler.countdown_interval must be positive")
	}
	if c.Scheduler.SummaryEnabled {
		if _, err := cron.ParseStandard(c.Scheduler.SummaryCron); err != nil {
			return fmt.Errorf("invalid scheduler.summary_cron %q: %w", c.Scheduler.SummaryCron, err)
		}
	}

	switch c.Preferences.Language {
	case "en", "ro", "ru":
	default:
		return fmt.Errorf("unsupported language: %s (supported: en, ro, ru)", c.Preferences.Language)
	}

	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost must be between 4 and 31")
	}

	if c.Assistant.MaxHistory <= 0 {
		return fmt.Errorf("assistant.max_history must be positive")
	}

	return nil
}

// ProviderConfig contains provider-specific configuration for the API package.
type ProviderConfig struct {
	Type     string
	DeepSeek DeepSeekConfig
	Ollama   OllamaConfig
	Model    ModelSettings
}

// ModelSettings contains model parameters used by all providers.
type ModelSettings struct {
	Name        string
	MaxTokens   int
	Temperature float64
}

// GetProviderConfig returns the provider configuration for the API package.
func (c *Config) GetProviderConfig() *ProviderConfig {
	return &ProviderConfig{
		Type:     c.Provider,
		DeepSeek: c.DeepSeek,
		Ollama:   c.Ollama,
		Model: ModelSettings{
			Name:        c.Model.Name,
			MaxTokens:   c.Model.MaxTokens,
			Temperature: c.Model.Temperature,
		},
	}
}

// RemindersPath returns the absolute path of the reminders JSON file.
func (c *Config) RemindersPath() string { return c.dataPath(c.Storage.RemindersFile) }

// UsersPath returns the absolute path of the users JSON file.
func (c *Config) UsersPath() string { return c.dataPath(c.Storage.UsersFile) }

// JournalPath returns the absolute path of the SQLite dose journal.
func (c *Config) JournalPath() string { return c.dataPath(c.Storage.JournalFile) }

// PrefsPath returns the absolute path of the preferences YAML file.
func (c *Config) PrefsPath() string { return c.dataPath(c.Storage.PrefsFile) }

func (c *Config) dataPath(name string) string {
	name = ExpandPath(name)
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Storage.DataDir, name)
}

// RefreshInterval returns the due-check interval.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Scheduler.RefreshInterval) * time.Second
}

// CountdownInterval returns the countdown tick interval.
func (c *Config) CountdownInterval() time.Duration {
	return time.Duration(c.Scheduler.CountdownInterval) * time.Second
}

// ExpandPath replaces a leading "~/" with the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}

	return path
}
