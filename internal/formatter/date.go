package formatter

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	isoDateRe     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	relativeAgoRe = regexp.MustCompile(`\b(\d+)\s+(day|days|week|weeks|month|months)\s+ago\b`)
)

// parseRelativeDate resolves common date phrases without a backend:
// explicit YYYY-MM-DD, "yesterday", "N days/weeks/months ago",
// "last week", "last month". Months count as 30 days.
func parseRelativeDate(query string, ref time.Time) (string, bool) {
	lower := strings.ToLower(query)

	if m := isoDateRe.FindString(lower); m != "" {
		if _, err := time.Parse("2006-01-02", m); err == nil {
			return m, true
		}
	}

	if m := relativeAgoRe.FindStringSubmatch(lower); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return "", false
		}
		switch {
		case strings.HasPrefix(m[2], "day"):
			// n days, handled below
		case strings.HasPrefix(m[2], "week"):
			n *= 7
		case strings.HasPrefix(m[2], "month"):
			n *= 30
		}
		return ref.AddDate(0, 0, -n).Format("2006-01-02"), true
	}

	switch {
	case strings.Contains(lower, "yesterday"):
		return ref.AddDate(0, 0, -1).Format("2006-01-02"), true
	case strings.Contains(lower, "last week"):
		return ref.AddDate(0, 0, -7).Format("2006-01-02"), true
	case strings.Contains(lower, "last month"):
		return ref.AddDate(0, 0, -30).Format("2006-01-02"), true
	}

	return "", false
}
