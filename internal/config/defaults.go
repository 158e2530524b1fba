package config

import (
	"github.com/knadh/koanf/providers/confmap"
)

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"provider": ProviderLocal,
		"deepseek": map[string]interface{}{
			"api_key": "",
			"timeout": 60,
		},
		"ollama": map[string]interface{}{
			"base_url": "http://localhost:11434",
			"timeout":  120,
		},
		"model": map[string]interface{}{
			"name":        "deepseek-chat",
			"max_tokens":  1024,
			"temperature": 0.7,
		},
		"storage": map[string]interface{}{
			"data_dir":       "~/.medreminder",
			"reminders_file": "medication_reminders.json",
			"users_file":     "users.json",
			"journal_file":   "intake.db",
			"prefs_file":     "preferences.yaml",
		},
		"scheduler": map[string]interface{}{
			"refresh_interval":   60,
			"countdown_interval": 1,
			"summary_enabled":    false,
			"summary_cron":       "0 8 * * *",
			"telegram": map[string]interface{}{
				"bot_token": "",
				"chat_id":   0,
			},
		},
		"preferences": map[string]interface{}{
			"dark_mode":     false,
			"language":      "en",
			"notifications": true,
			"sound":         true,
			"vibration":     true,
		},
		"ui": map[string]interface{}{
			"colored_output":  true,
			"show_timestamps": false,
			"word_wrap":       100,
		},
		"auth": map[string]interface{}{
			"bcrypt_cost": 10,
			"required":    true,
		},
		"assistant": map[string]interface{}{
			"max_history": 20,
		},
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}

func GetDefaultConfigPath() string {
	return "~/.medreminder/config.yaml"
}
