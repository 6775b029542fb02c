package config

import (
	"context"

	"github.com/caarlos0/env/v11"

	"github.com/sandevgo/coinbot/pkg/log"
)

// OpenAIConfig configures the response formatter backend. An empty
// APIKey is valid: the formatter then uses templates only.
type OpenAIConfig struct {
	APIKey  string `env:"OPENAI_API_KEY"`
	Model   string `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	BaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com"`
}

func NewOpenAIConfig(ctx context.Context) *OpenAIConfig {
	c := &OpenAIConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse OpenAI config")
	}
	return c
}

func (c OpenAIConfig) Enabled() bool {
	return c.APIKey != ""
}
