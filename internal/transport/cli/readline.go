package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/sandevgo/coinbot/internal/config"
	"github.com/sandevgo/coinbot/internal/core"
	"github.com/sandevgo/coinbot/internal/ui"
	"github.com/sandevgo/coinbot/pkg/log"
)

const defaultSessionID = "cli-local"

// QueryPipeline is the part of the pipeline the CLI needs.
type QueryPipeline interface {
	ProcessQuery(ctx context.Context, sessionID, query string) core.PipelineResult
	Reset(sessionID string)
}

type ReadLine struct {
	cfg      *config.AppConfig
	pipeline QueryPipeline
	rl       *readline.Instance
}

func NewReadLine(pipeline QueryPipeline, cfg *config.AppConfig) (*ReadLine, error) {
	// Ensure runtime directory exists
	if err := os.MkdirAll(cfg.RuntimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     filepath.Join(cfg.RuntimePath, "input_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &ReadLine{
		cfg:      cfg,
		pipeline: pipeline,
		rl:       rl,
	}, nil
}

func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Msg("ReadLine chat started. Type 'exit' to quit, 'reset' to clear the conversation.")

	for {
		// Check context before blocking read
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if len(line) == 0 {
					return nil // Exit on Ctrl+C
				}
				continue
			} else if err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "exit":
			return nil
		case "reset":
			r.pipeline.Reset(defaultSessionID)
			fmt.Fprintln(r.rl.Stdout(), ui.DescStyle.Render("Conversation reset."))
			continue
		}

		result := r.pipeline.ProcessQuery(ctx, defaultSessionID, line)
		r.render(result)
	}
}

func (r *ReadLine) render(result core.PipelineResult) {
	out := r.rl.Stdout()

	// The footer is the last two lines when a source is attached;
	// dim it so the answer stands out.
	body, footer, found := strings.Cut(result.Response, "\n\n📊 ")
	fmt.Fprintf(out, "%s\n", body)
	if found {
		fmt.Fprintln(out, ui.DescStyle.Render("📊 "+footer))
	}
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}
