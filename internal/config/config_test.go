package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ProviderLocal, cfg.Provider)
	assert.Equal(t, 60*time.Second, cfg.RefreshInterval())
	assert.Equal(t, time.Second, cfg.CountdownInterval())
	assert.Equal(t, "0 8 * * *", cfg.Scheduler.SummaryCron)
	assert.Equal(t, "en", cfg.Preferences.Language)
	assert.Equal(t, "medication_reminders.json", filepath.Base(cfg.RemindersPath()))
	assert.True(t, filepath.IsAbs(cfg.Storage.DataDir) || cfg.Storage.DataDir == "~/.medreminder")
	require.NoError(t, cfg.Validate())
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
provider: deepseek
storage:
  data_dir: ` + dir + `
preferences:
  language: ro
scheduler:
  telegram:
    chat_id: 42
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("DEEPSEEK_API_KEY", "sk-test")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("MEDREMINDER_SCHEDULER__REFRESH_INTERVAL", "30")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderDeepSeek, cfg.Provider)
	assert.Equal(t, "sk-test", cfg.DeepSeek.APIKey)
	assert.Equal(t, "ro", cfg.Preferences.Language)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval())
	assert.True(t, cfg.Scheduler.Telegram.Enabled())
	assert.Equal(t, int64(42), cfg.Scheduler.Telegram.ChatID)
	assert.Equal(t, filepath.Join(dir, "users.json"), cfg.UsersPath())
	assert.Equal(t, filepath.Join(dir, "intake.db"), cfg.JournalPath())
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		cfg.Provider = ProviderLocal
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.Provider = "gpt" }},
		{"deepseek without key", func(c *Config) { c.Provider = ProviderDeepSeek; c.DeepSeek.APIKey = "" }},
		{"bad refresh interval", func(c *Config) { c.Scheduler.RefreshInterval = 0 }},
		{"bad cron", func(c *Config) { c.Scheduler.SummaryEnabled = true; c.Scheduler.SummaryCron = "every morning" }},
		{"bad language", func(c *Config) { c.Preferences.Language = "fr" }},
		{"bad bcrypt cost", func(c *Config) { c.Auth.BcryptCost = 2 }},
		{"bad history", func(c *Config) { c.Assistant.MaxHistory = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "x.json"), ExpandPath("~/x.json"))
	assert.Equal(t, "/abs/x.json", ExpandPath("/abs/x.json"))
	assert.Equal(t, "", ExpandPath(""))
}
