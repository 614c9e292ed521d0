package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	BotToken   string `env:"BOT_TOKEN,required,notEmpty"`
	GatewayURL string `env:"AGENT_GATEWAY_URL,required,notEmpty"`

	// Optional bearer credential. Public gateway endpoints work without it.
	GatewayToken string `env:"AGENT_GATEWAY_TOKEN"`

	// Roles
	AdminIDs  []int64 `env:"ADMIN_IDS" envSeparator:","`
	EditorIDs []int64 `env:"EDITOR_IDS" envSeparator:","`

	// Analysis exports
	ExportDir string `env:"EXPORT_DIR" envDefault:"exports"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsAdmin(telegramID int64) bool {
	for _, id := range c.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

// RoleFor maps a Telegram user to a gateway role.
func (c *Config) RoleFor(telegramID int64) string {
	if c.IsAdmin(telegramID) {
		return RoleAdmin
	}
	for _, id := range c.EditorIDs {
		if id == telegramID {
			return RoleEditor
		}
	}
	return RoleViewer
}
