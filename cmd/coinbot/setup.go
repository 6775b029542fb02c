package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/sandevgo/coinbot/internal/config"
	"github.com/sandevgo/coinbot/internal/core"
	"github.com/sandevgo/coinbot/internal/detector"
	"github.com/sandevgo/coinbot/internal/formatter"
	"github.com/sandevgo/coinbot/internal/memory"
	"github.com/sandevgo/coinbot/internal/pipeline"
	"github.com/sandevgo/coinbot/internal/providers/market"
	"github.com/sandevgo/coinbot/internal/retrieval"
	"github.com/sandevgo/coinbot/internal/storage/sqlite"
	"github.com/sandevgo/coinbot/internal/transport/cli"
	"github.com/sandevgo/coinbot/internal/transport/httpapi"
	"github.com/sandevgo/coinbot/internal/transport/telegram"
	"github.com/sandevgo/coinbot/pkg/log"
	"github.com/sandevgo/coinbot/pkg/srv"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// init env
	err := initEnv(ctx, config.GetRuntimePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	marketCfg := config.NewMarketConfig(ctx)
	openaiCfg := config.NewOpenAIConfig(ctx)

	// 2. Storage
	db, err := initStorage(ctx, appCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	services = append(services, srv.NewCleanup(db.Close))

	repo := sqlite.NewKnowledgeRepo(db)

	// 3. Coin registry
	coins, err := repo.Coins(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load coin registry")
	}
	logger.Info().Int("coins", len(coins)).Msg("knowledge base loaded")

	// 4. Market data providers (primary first)
	freeCrypto := market.NewFreeCrypto(marketCfg.FreeCryptoBaseURL, marketCfg.FreeCryptoAPIKey)
	coinGecko := market.NewCoinGecko(marketCfg.CoinGeckoBaseURL)
	cryptoNews := market.NewCryptoNews(marketCfg.CryptoNewsBaseURL, marketCfg.CryptoNewsAPIKey)

	// 5. Retrieval engine
	engine := retrieval.NewEngine(
		repo,
		[]core.PriceProvider{freeCrypto, coinGecko},
		cryptoNews,
		coinGecko,
		retrieval.Config{
			PriceTTL: appCfg.PriceTTL(),
			NewsTTL:  appCfg.NewsTTL(),
		},
	)

	// 6. Response formatter
	var backend formatter.ChatBackend
	if openaiCfg.Enabled() {
		backend = formatter.NewOpenAIBackend(formatter.OpenAIConfig{
			BaseURL: openaiCfg.BaseURL,
			APIKey:  openaiCfg.APIKey,
			Model:   openaiCfg.Model,
		})
	} else {
		logger.Warn().Msg("OPENAI_API_KEY not set, responses use template rendering")
	}

	// 7. Pipeline
	pipe := pipeline.New(
		detector.New(coins),
		repo,
		engine,
		formatter.New(backend),
		memory.NewSessionStore(appCfg.MaxConversationTurns),
	)

	// 8. Transports
	transports, err := initTransports(ctx, appCfg, pipe, len(coins))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize transports")
	}
	services = append(services, transports...)

	return services
}

func initStorage(ctx context.Context, cfg *config.AppConfig) (*sql.DB, error) {
	return sqlite.NewDB(ctx, cfg.GetDatabasePath())
}

func initTransports(ctx context.Context, cfg *config.AppConfig, pipe *pipeline.Pipeline, coinsInKB int) ([]srv.Service, error) {
	var services []srv.Service

	if cfg.EnableHTTP {
		services = append(services, httpapi.NewServer(cfg.HTTPAddr, pipe, coinsInKB))
	}

	if cfg.EnableTelegram {
		tgCfg := config.NewTelegramConfig(ctx)
		bot, err := telegram.NewBot(ctx, tgCfg, pipe)
		if err != nil {
			return nil, err
		}
		services = append(services, bot)
	}

	if cfg.EnableCLI {
		rl, err := cli.NewReadLine(pipe, cfg)
		if err != nil {
			return nil, err
		}
		services = append(services, rl)
	}

	return services, nil
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
