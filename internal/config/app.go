package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/sandevgo/coinbot/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"COINBOT_RUNTIME_PATH" envDefault:".coinbot"`

	// Transport Flags
	EnableHTTP     bool   `env:"ENABLE_HTTP" envDefault:"true"`
	HTTPAddr       string `env:"HTTP_ADDR" envDefault:"127.0.0.1:5000"`
	EnableTelegram bool   `env:"ENABLE_TELEGRAM" envDefault:"false"`
	EnableCLI      bool   `env:"ENABLE_CLI" envDefault:"true"`

	// Conversation Memory
	MaxConversationTurns int `env:"MAX_CONVERSATION_TURNS" envDefault:"10"`

	// Cache freshness windows
	PriceTTLMinutes int `env:"FRESHNESS_TTL_MINUTES" envDefault:"5"`
	NewsTTLMinutes  int `env:"NEWS_TTL_MINUTES" envDefault:"60"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "coinbot.db")
}

func (c AppConfig) PriceTTL() time.Duration {
	return time.Duration(c.PriceTTLMinutes) * time.Minute
}

func (c AppConfig) NewsTTL() time.Duration {
	return time.Duration(c.NewsTTLMinutes) * time.Minute
}
