// Package pipeline is the knowledge-first query resolver: every answer
// is traceable to the knowledge base or a named provider, and queries
// that would require guessing are refused outright.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sandevgo/coinbot/internal/core"
	"github.com/sandevgo/coinbot/internal/detector"
	"github.com/sandevgo/coinbot/internal/memory"
	"github.com/sandevgo/coinbot/pkg/log"
)

const (
	// InsufficientDataMessage is the refusal sentinel: returned verbatim
	// whenever no grounded fact can answer the query.
	InsufficientDataMessage = "INSUFFICIENT DATA – Not found in Knowledge Base or API"

	ClarificationMessage = "I can help with cryptocurrency information, prices, and market data. Could you please clarify what you'd like to know?"

	ComparisonGuidanceMessage = "Please specify at least two cryptocurrencies to compare (e.g., 'Compare Bitcoin and Ethereum')."

	// Queries below this overall confidence get a clarification request
	// instead of an answer.
	minConfidence = 0.5
)

// EntityIntentDetector classifies one query against the coin registry,
// using the session memory for pronoun resolution.
type EntityIntentDetector interface {
	Detect(query string, mem detector.ConversationMemory) core.Detection
}

// MetadataStore serves the static coin records.
type MetadataStore interface {
	Metadata(ctx context.Context, symbol string) (core.CoinMetadata, error)
}

// Retriever resolves dynamic facts cache-first.
type Retriever interface {
	Price(ctx context.Context, symbol string, forceRefresh bool) core.Result[core.PriceData]
	News(ctx context.Context, symbol string) core.Result[[]core.NewsItem]
	History(ctx context.Context, symbol, date string) core.Result[core.HistoryPoint]
}

type Pipeline struct {
	detector  EntityIntentDetector
	store     MetadataStore
	retriever Retriever
	formatter core.Formatter
	sessions  *memory.SessionStore

	now func() time.Time
}

func New(det EntityIntentDetector, store MetadataStore, retriever Retriever, formatter core.Formatter, sessions *memory.SessionStore) *Pipeline {
	return &Pipeline{
		detector:  det,
		store:     store,
		retriever: retriever,
		formatter: formatter,
		sessions:  sessions,
		now:       time.Now,
	}
}

// ProcessQuery runs one query through detect, guard, route and format.
// The returned Response already carries the source footer. Both sides
// of the exchange are recorded in the session memory.
func (p *Pipeline) ProcessQuery(ctx context.Context, sessionID, query string) core.PipelineResult {
	logger := log.FromCtx(ctx)

	mem := p.sessions.Get(sessionID)
	det := p.detector.Detect(query, mem)

	var primary string
	if e, ok := det.Primary(); ok {
		primary = e.Symbol
	}

	logger.Info().
		Str("session", sessionID).
		Str("intent", string(det.Intent)).
		Str("entity", primary).
		Float64("confidence", det.OverallConfidence).
		Msg("query detected")

	mem.AddTurn(core.RoleUser, query, primary)

	result := p.resolve(ctx, query, det, primary)
	result.Response = formatFinal(result)

	mem.AddTurn(core.RoleAssistant, result.Response, primary)

	return result
}

// Reset clears the conversation memory of one session.
func (p *Pipeline) Reset(sessionID string) {
	p.sessions.Reset(sessionID)
}

// ActiveSessions lists session IDs with conversation state.
func (p *Pipeline) ActiveSessions() []string {
	return p.sessions.Active()
}

func (p *Pipeline) resolve(ctx context.Context, query string, det core.Detection, primary string) core.PipelineResult {
	if det.ShouldReject {
		return core.PipelineResult{
			Response: InsufficientDataMessage,
			Entity:   primary,
			Intent:   det.Intent,
		}
	}

	if det.OverallConfidence < minConfidence {
		return p.clarify(det, primary)
	}

	switch det.Intent {
	case core.IntentMetadata:
		return p.handleMetadata(ctx, primary)
	case core.IntentPrice, core.IntentMarketCap:
		return p.handlePrice(ctx, primary, det.Intent)
	case core.IntentNews:
		return p.handleNews(ctx, primary)
	case core.IntentHistory:
		return p.handleHistory(ctx, query, primary)
	case core.IntentComparison:
		return p.handleComparison(ctx, det.Symbols())
	default:
		return p.clarify(det, primary)
	}
}

func (p *Pipeline) clarify(det core.Detection, primary string) core.PipelineResult {
	return core.PipelineResult{
		Response:   ClarificationMessage,
		Confidence: det.OverallConfidence,
		Entity:     primary,
		Intent:     det.Intent,
	}
}

func (p *Pipeline) handleMetadata(ctx context.Context, symbol string) core.PipelineResult {
	meta, err := p.store.Metadata(ctx, symbol)
	if err != nil {
		return core.PipelineResult{
			Response: InsufficientDataMessage,
			Entity:   symbol,
			Intent:   core.IntentMetadata,
		}
	}

	return core.PipelineResult{
		Response:   p.formatter.FormatMetadata(ctx, meta),
		Source:     core.SourceKnowledgeBase,
		Confidence: 1.0,
		Entity:     symbol,
		Intent:     core.IntentMetadata,
	}
}

func (p *Pipeline) handlePrice(ctx context.Context, symbol string, intent core.Intent) core.PipelineResult {
	res := p.retriever.Price(ctx, symbol, false)
	if !res.Success {
		return core.PipelineResult{
			Response: InsufficientDataMessage,
			Entity:   symbol,
			Intent:   intent,
		}
	}

	return core.PipelineResult{
		Response:   p.formatter.FormatPrice(ctx, res.Data, intent),
		Source:     res.Source,
		Confidence: res.Confidence,
		Entity:     symbol,
		Intent:     intent,
	}
}

func (p *Pipeline) handleNews(ctx context.Context, symbol string) core.PipelineResult {
	res := p.retriever.News(ctx, symbol)
	if !res.Success {
		return core.PipelineResult{
			Response: InsufficientDataMessage,
			Entity:   symbol,
			Intent:   core.IntentNews,
		}
	}

	return core.PipelineResult{
		Response:   p.formatter.FormatNews(ctx, res.Data, symbol),
		Source:     res.Source,
		Confidence: res.Confidence,
		Entity:     symbol,
		Intent:     core.IntentNews,
	}
}

func (p *Pipeline) handleHistory(ctx context.Context, query, symbol string) core.PipelineResult {
	date, ok := p.formatter.ExtractDate(ctx, query, p.now())
	if !ok {
		return core.PipelineResult{
			Response: InsufficientDataMessage,
			Entity:   symbol,
			Intent:   core.IntentHistory,
		}
	}

	res := p.retriever.History(ctx, symbol, date)
	if !res.Success {
		return core.PipelineResult{
			Response: fmt.Sprintf("INSUFFICIENT DATA – I don't have price data for %s on %s.", symbol, date),
			Entity:   symbol,
			Intent:   core.IntentHistory,
		}
	}

	return core.PipelineResult{
		Response:   p.formatter.FormatHistory(ctx, res.Data),
		Source:     res.Source,
		Confidence: res.Confidence,
		Entity:     symbol,
		Intent:     core.IntentHistory,
	}
}

func (p *Pipeline) handleComparison(ctx context.Context, symbols []string) core.PipelineResult {
	if len(symbols) < 2 {
		return core.PipelineResult{
			Response: ComparisonGuidanceMessage,
			Intent:   core.IntentComparison,
		}
	}

	entity := strings.Join(symbols, ", ")

	// Fetch all legs concurrently, keeping request order.
	fetched := make([]core.Result[core.PriceData], len(symbols))
	var wg sync.WaitGroup
	for i, symbol := range symbols {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fetched[i] = p.retriever.Price(ctx, symbol, false)
		}()
	}
	wg.Wait()

	var (
		rows    []core.PriceData
		sources []string
		seen    = make(map[string]bool)
		total   float64
	)
	for _, res := range fetched {
		if !res.Success {
			continue
		}
		rows = append(rows, res.Data)
		total += res.Confidence
		if res.Source != "" && !seen[res.Source] {
			seen[res.Source] = true
			sources = append(sources, res.Source)
		}
	}

	if len(rows) == 0 {
		return core.PipelineResult{
			Response: InsufficientDataMessage,
			Entity:   entity,
			Intent:   core.IntentComparison,
		}
	}

	source := core.SourceKnowledgeBase
	if len(sources) > 0 {
		source = strings.Join(sources, ", ")
	}

	return core.PipelineResult{
		Response:   p.formatter.FormatComparison(ctx, rows),
		Source:     source,
		Confidence: total / float64(len(rows)),
		Entity:     entity,
		Intent:     core.IntentComparison,
	}
}

// formatFinal appends the provenance footer when a source is known.
func formatFinal(result core.PipelineResult) string {
	if result.Source == "" {
		return result.Response
	}
	return fmt.Sprintf("%s\n\n📊 Source: %s\n🎯 Confidence: %.1f", result.Response, result.Source, result.Confidence)
}
