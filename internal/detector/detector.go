package detector

import (
	"strings"

	"github.com/sandevgo/coinbot/internal/core"
)

// Confidence levels per entity extraction stage.
const (
	tickerConfidence  = 1.0
	nameConfidence    = 0.95
	pronounConfidence = 0.85
)

// ConversationMemory is the slice of session memory the detector needs
// for pronoun resolution.
type ConversationMemory interface {
	ResolvePronoun(query string) (string, bool)
}

// Detector extracts coin entities and classifies intent for one query.
// It holds the immutable coin registry and the ordered rule tables;
// a single instance serves all sessions.
type Detector struct {
	registry []core.Coin
}

func New(registry []core.Coin) *Detector {
	return &Detector{registry: registry}
}

// Detect runs entity extraction and intent classification and combines
// them into one Detection. The two run independently; the overall
// confidence is the min of primary entity and intent confidence when
// an entity was found, otherwise the intent confidence alone.
func (d *Detector) Detect(query string, mem ConversationMemory) core.Detection {
	entities := d.detectEntities(query, mem)
	intent, intentConf := classifyIntent(query, len(entities) > 0)

	overall := intentConf
	if len(entities) > 0 && entities[0].Confidence < overall {
		overall = entities[0].Confidence
	}

	return core.Detection{
		Entities:          entities,
		Intent:            intent,
		IntentConfidence:  intentConf,
		OverallConfidence: overall,
		ShouldReject:      intent == core.IntentRejected,
	}
}

// detectEntities walks the extraction stages in order: exact ticker,
// display name, then pronoun resolution. Later stages only add symbols
// not already found; pronoun resolution fires only when the first two
// stages found nothing.
func (d *Detector) detectEntities(query string, mem ConversationMemory) []core.EntityMatch {
	var entities []core.EntityMatch
	found := make(map[string]bool)

	upper := strings.ToUpper(query)
	for _, coin := range d.registry {
		if strings.Contains(upper, coin.Symbol) && !found[coin.Symbol] {
			entities = append(entities, core.EntityMatch{Symbol: coin.Symbol, Confidence: tickerConfidence})
			found[coin.Symbol] = true
		}
	}

	lower := strings.ToLower(query)
	for _, coin := range d.registry {
		if strings.Contains(lower, strings.ToLower(coin.Name)) && !found[coin.Symbol] {
			entities = append(entities, core.EntityMatch{Symbol: coin.Symbol, Confidence: nameConfidence})
			found[coin.Symbol] = true
		}
	}

	if len(entities) == 0 && mem != nil {
		if symbol, ok := mem.ResolvePronoun(query); ok {
			entities = append(entities, core.EntityMatch{Symbol: symbol, Confidence: pronounConfidence})
		}
	}

	return entities
}
