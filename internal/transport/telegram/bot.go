package telegram

import (
	"context"
	"fmt"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/sandevgo/coinbot/internal/config"
	"github.com/sandevgo/coinbot/internal/core"
	"github.com/sandevgo/coinbot/pkg/log"
)

const baseContextKey = "base_context"

// QueryPipeline is the part of the pipeline the bot needs.
type QueryPipeline interface {
	ProcessQuery(ctx context.Context, sessionID, query string) core.PipelineResult
	Reset(sessionID string)
}

type Bot struct {
	bot      *tele.Bot
	cfg      *config.TelegramConfig
	pipeline QueryPipeline
	sender   *sender
	ownerID  int64
}

func NewBot(
	ctx context.Context,
	cfg *config.TelegramConfig,
	pipeline QueryPipeline,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		bot:      b,
		cfg:      cfg,
		pipeline: pipeline,
		sender:   newSender(b),
		ownerID:  cfg.OwnerID,
	}

	// Carry the base context with its logger into every handler
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	// Middleware: Only allow the owner
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Sender().ID != bot.ownerID {
				return nil // Ignore unauthorized users
			}
			return next(c)
		}
	})

	b.Handle("/reset", bot.handleReset)
	b.Handle(tele.OnText, bot.handleMessage)

	return bot, nil
}

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("starting telegram bot")
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	return nil
}

func sessionID(c tele.Context) string {
	return fmt.Sprintf("telegram-%d", c.Chat().ID)
}

func (b *Bot) handleMessage(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	logger := log.FromCtx(ctx)

	// Notify user we are working
	_ = c.Notify(tele.Typing)

	result := b.pipeline.ProcessQuery(ctx, sessionID(c), c.Text())

	if err := b.sender.sendMarkdown(ctx, c.Chat(), result.Response, false); err != nil {
		logger.Error().Err(err).Msg("failed to deliver response")
		return c.Send(fmt.Sprintf("error: %v", err))
	}

	return nil
}

func (b *Bot) handleReset(c tele.Context) error {
	b.pipeline.Reset(sessionID(c))
	return c.Send("Conversation reset successfully")
}
