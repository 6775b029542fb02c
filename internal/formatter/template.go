package formatter

import (
	"fmt"
	"strings"

	"github.com/sandevgo/coinbot/internal/core"
)

// The templated renderings below are the deterministic floor: they use
// only fields present in the input and read acceptably on every
// transport, so a backend outage degrades wording, never correctness.

func templateMetadata(meta core.CoinMetadata) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s (%s)", meta.Name, meta.Symbol))

	if meta.Description != "" {
		b.WriteString("\n")
		b.WriteString(meta.Description)
	}

	var details []string
	if meta.LaunchYear > 0 {
		details = append(details, fmt.Sprintf("Launch Year: %d", meta.LaunchYear))
	}
	if meta.Consensus != "" {
		details = append(details, "Consensus: "+meta.Consensus)
	}
	if meta.ChainType != "" {
		details = append(details, "Chain Type: "+meta.ChainType)
	}
	if meta.Creator != "" {
		details = append(details, "Creator: "+meta.Creator)
	}
	if len(details) > 0 {
		b.WriteString("\n\n• ")
		b.WriteString(strings.Join(details, "\n• "))
	}
	return b.String()
}

func templatePrice(data core.PriceData, intent core.Intent) string {
	if intent == core.IntentMarketCap {
		return fmt.Sprintf("Market cap of %s: $%s\n\n• Current Price: $%s",
			data.Symbol, commas(data.MarketCap, 0), commas(data.Price, 2))
	}
	return fmt.Sprintf("Current price of %s: $%s", data.Symbol, commas(data.Price, 2))
}

func templateNews(items []core.NewsItem) string {
	lines := []string{"Latest News:"}
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("• %s - %s", item.Title, item.Source))
	}
	return strings.Join(lines, "\n")
}

func templateHistory(point core.HistoryPoint) string {
	return fmt.Sprintf("On %s, the price of %s was $%s.",
		point.Date, point.Symbol, commas(point.Price, 2))
}

func templateComparison(rows []core.PriceData) string {
	var b strings.Builder
	b.WriteString("| Coin | Price | Market Cap | 24h Change | Rank |\n")
	b.WriteString("|------|-------|------------|------------|------|\n")
	for _, row := range rows {
		b.WriteString(fmt.Sprintf("| %s | $%s | $%s | %+.2f%% | %d |\n",
			row.Symbol, commas(row.Price, 2), commas(row.MarketCap, 0), row.Change24h, row.Rank))
	}
	return strings.TrimRight(b.String(), "\n")
}

// commas renders v with thousands separators and the given number of
// decimal places, e.g. commas(1234567.891, 2) == "1,234,567.89".
func commas(v float64, decimals int) string {
	s := fmt.Sprintf("%.*f", decimals, v)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}

	out := b.String()
	if hasFrac {
		out += "." + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}
