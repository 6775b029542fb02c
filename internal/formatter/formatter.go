package formatter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/coinbot/internal/core"
	"github.com/sandevgo/coinbot/pkg/log"
	"github.com/sandevgo/coinbot/pkg/retry"
)

const systemPrompt = `You are a crypto assistant orchestrator with STRICT RULES:

CRITICAL CONSTRAINTS:
1. NEVER answer from your own knowledge or training data
2. NEVER guess, estimate, or approximate
3. NEVER make predictions about future prices
4. NEVER give investment advice
5. NEVER answer hypothetical questions

YOU CAN ONLY:
- Format data from tools into natural responses
- Ask clarifying questions
- Return "INSUFFICIENT DATA – Not found in Knowledge Base or API" when data is missing

REMEMBER: You are a DATA FORMATTER, not a knowledge source.`

var errNoBackend = errors.New("no chat backend configured")

// Formatter renders resolved facts into prose through a chat backend,
// degrading to deterministic templates whenever the backend is absent
// or fails. It satisfies core.Formatter.
type Formatter struct {
	backend ChatBackend
	retrier *retry.Retrier
}

// New builds a Formatter. A nil backend is valid and yields
// template-only rendering.
func New(backend ChatBackend) *Formatter {
	return &Formatter{
		backend: backend,
		retrier: retry.NewRetrier(&retry.Config{
			MaxRetries:    2,
			BackoffFactor: 2.0,
			InitialDelay:  200 * time.Millisecond,
			MaxDelay:      2 * time.Second,
			Jitter:        50 * time.Millisecond,
		}),
	}
}

func (f *Formatter) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	if f.backend == nil {
		return "", errNoBackend
	}

	var out string
	err := f.retrier.Do(ctx, func() error {
		result, err := f.backend.Complete(ctx, system, user, maxTokens)
		if err != nil {
			return err
		}
		result = strings.TrimSpace(result)
		if result == "" {
			return errors.New("empty completion")
		}
		out = result
		return nil
	})
	return out, err
}

func (f *Formatter) FormatMetadata(ctx context.Context, meta core.CoinMetadata) string {
	prompt := fmt.Sprintf(`Format this cryptocurrency metadata into a natural, friendly response:

Coin: %s
Symbol: %s
Description: %s
Launch Year: %d
Consensus: %s
Chain Type: %s
Creator: %s

Format it as a brief, informative paragraph. Do NOT add any information beyond what's provided.`,
		meta.Name, meta.Symbol, meta.Description, meta.LaunchYear, meta.Consensus, meta.ChainType, meta.Creator)

	out, err := f.complete(ctx, systemPrompt, prompt, 200)
	if err != nil {
		f.logFallback(ctx, "metadata", err)
		return templateMetadata(meta)
	}
	return out
}

func (f *Formatter) FormatPrice(ctx context.Context, data core.PriceData, intent core.Intent) string {
	var prompt string
	if intent == core.IntentMarketCap {
		prompt = fmt.Sprintf(`Format this market cap data into a natural response:

Coin: %s
Market Cap: $%s
Current Price: $%s

Keep it brief and friendly. Do NOT add any information beyond what's provided.`,
			data.Symbol, commas(data.MarketCap, 0), commas(data.Price, 2))
	} else {
		prompt = fmt.Sprintf(`Format this price data into a natural response:

Coin: %s
Price: $%s
24h Change: %+.2f%%

Keep it brief and friendly. Do NOT add any information beyond what's provided.`,
			data.Symbol, commas(data.Price, 2), data.Change24h)
	}

	out, err := f.complete(ctx, systemPrompt, prompt, 150)
	if err != nil {
		f.logFallback(ctx, "price", err)
		return templatePrice(data, intent)
	}
	return out
}

func (f *Formatter) FormatNews(ctx context.Context, items []core.NewsItem, symbol string) string {
	var lines []string
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("- %s (%s)", item.Title, item.Source))
	}
	prompt := fmt.Sprintf(`Format these news headlines for %s into a concise list.
Do NOT summarize opinions. Just list the facts/headlines.

News:
%s

Format as a bulleted list.`, symbol, strings.Join(lines, "\n"))

	out, err := f.complete(ctx, systemPrompt, prompt, 200)
	if err != nil {
		f.logFallback(ctx, "news", err)
		return templateNews(items)
	}
	return out
}

func (f *Formatter) FormatHistory(ctx context.Context, point core.HistoryPoint) string {
	prompt := fmt.Sprintf(`Format this historical price data into a natural response for %s:

Date: %s
Price: $%s
Market Cap: $%s

Keep it brief and factual. Mention the date clearly.`,
		point.Symbol, point.Date, commas(point.Price, 2), commas(point.MarketCap, 0))

	out, err := f.complete(ctx, systemPrompt, prompt, 100)
	if err != nil {
		f.logFallback(ctx, "history", err)
		return templateHistory(point)
	}
	return out
}

func (f *Formatter) FormatComparison(ctx context.Context, rows []core.PriceData) string {
	var b strings.Builder
	for _, row := range rows {
		fmt.Fprintf(&b, "- %s: Price=$%s, Rank=%d, MCap=$%s, Change24h=%+.2f%%\n",
			row.Symbol, commas(row.Price, 2), row.Rank, commas(row.MarketCap, 0), row.Change24h)
	}
	prompt := fmt.Sprintf(`Compare these cryptocurrencies based on the following data:
%s
Format the response as:
1. A brief comparison sentence highlighting key differences (e.g., which is larger/more expensive).
2. A Markdown table with columns: Coin, Price, Market Cap, 24h Change, Rank.
3. Keep it factual and concise.`, b.String())

	out, err := f.complete(ctx, systemPrompt, prompt, 300)
	if err != nil {
		f.logFallback(ctx, "comparison", err)
		return templateComparison(rows)
	}
	return out
}

func (f *Formatter) ExtractDate(ctx context.Context, query string, ref time.Time) (string, bool) {
	if f.backend != nil {
		system := fmt.Sprintf("You are a date extractor. Today is %s. Extract the target date from the user query in YYYY-MM-DD format. If date is relative (yesterday, last week, 3 days ago), calculate it. Return ONLY the date string (YYYY-MM-DD) with no other text. If no specific date found, return 'None'.", ref.Format("2006-01-02"))

		out, err := f.complete(ctx, system, query, 20)
		if err == nil {
			out = strings.Trim(out, "'\" ")
			if out != "None" {
				if _, perr := time.Parse("2006-01-02", out); perr == nil {
					return out, true
				}
			}
			// Backend answered but named no usable date; the local
			// parser gets a chance before giving up.
		} else {
			f.logFallback(ctx, "date", err)
		}
	}
	return parseRelativeDate(query, ref)
}

func (f *Formatter) logFallback(ctx context.Context, kind string, err error) {
	if errors.Is(err, errNoBackend) {
		return
	}
	log.FromCtx(ctx).Warn().
		Err(err).
		Str("kind", kind).
		Msg("chat backend failed, using template rendering")
}
