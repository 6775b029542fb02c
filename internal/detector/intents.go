package detector

import (
	"regexp"
	"strings"

	"github.com/sandevgo/coinbot/internal/core"
)

// rejectionPatterns are evaluated before any intent family; the first
// match short-circuits classification to IntentRejected at full
// confidence, no matter what other keywords the query contains.
var rejectionPatterns = []*regexp.Regexp{
	// future / prediction language
	regexp.MustCompile(`\b(will|gonna|going to|predict|forecast|future|tomorrow|next week|next month|next year)\b`),
	// investment advice
	regexp.MustCompile(`\b(should i|recommend|advice|advise|invest|buy|sell|hold|worth buying|good investment)\b`),
	// hypothetical framing
	regexp.MustCompile(`\b(if|what if|suppose|imagine|hypothetical)\b`),
	// price targets with a dollar amount
	regexp.MustCompile(`\b(reach|hit|get to|moon|crash|dump|pump)\b.*\$\d+`),
}

// intentRule is one keyword family. Families are mutually exclusive by
// precedence, not by keyword disjointness — the table order below is a
// load-bearing artifact and must not be reordered.
type intentRule struct {
	intent     core.Intent
	confidence float64
	keywords   []string
}

var intentRules = []intentRule{
	{core.IntentComparison, 0.95, []string{"compare", "vs", "versus", "difference", "better", "against", "or"}},
	{core.IntentHistory, 0.95, []string{"yesterday", "last week", "last month", "ago", "history", "historical", "was the price", "price was", "price on"}},
	{core.IntentPrice, 0.95, []string{"price", "cost", "how much", "worth", "value", "trading at"}},
	{core.IntentMarketCap, 0.95, []string{"market cap", "marketcap", "market capitalization", "mcap", "market value"}},
	{core.IntentNews, 0.95, []string{"news", "headline", "headlines", "latest", "recent", "update", "happening"}},
	{core.IntentMetadata, 0.90, []string{"what is", "what's", "tell me about", "explain", "describe", "info", "information", "consensus", "launch", "creator", "created"}},
}

// followUpIndicators mark a continuation of the previous topic; the
// follow_up intent only applies when an entity is in play.
var followUpIndicators = []string{"it", "its", "this", "that", "what about", "how about", "and"}

const followUpConfidence = 0.80

// classifyIntent picks the intent for a lower-cased query,
// first-match-wins over the ordered tables above.
func classifyIntent(query string, hasEntity bool) (core.Intent, float64) {
	lower := strings.ToLower(query)

	for _, p := range rejectionPatterns {
		if p.MatchString(lower) {
			return core.IntentRejected, 1.0
		}
	}

	for _, rule := range intentRules {
		if containsAny(lower, rule.keywords) {
			return rule.intent, rule.confidence
		}
	}

	if hasEntity && containsAny(lower, followUpIndicators) {
		return core.IntentFollowUp, followUpConfidence
	}

	return core.IntentUnknown, 0.0
}

func containsAny(query string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(query, kw) {
			return true
		}
	}
	return false
}
