package config

import (
	"context"

	"github.com/caarlos0/env/v11"

	"github.com/sandevgo/coinbot/pkg/log"
)

type MarketConfig struct {
	FreeCryptoBaseURL string `env:"FREECRYPTO_BASE_URL" envDefault:"https://api.freecryptoapi.com/v1"`
	FreeCryptoAPIKey  string `env:"FREECRYPTO_API_KEY,required,notEmpty"`

	CoinGeckoBaseURL string `env:"COINGECKO_BASE_URL" envDefault:"https://api.coingecko.com"`

	CryptoNewsBaseURL string `env:"CRYPTONEWS_BASE_URL" envDefault:"https://cryptonewsapi.com/api/v1"`
	CryptoNewsAPIKey  string `env:"CRYPTONEWS_API_KEY,required,notEmpty"`
}

func NewMarketConfig(ctx context.Context) *MarketConfig {
	c := &MarketConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Market config")
	}
	return c
}
