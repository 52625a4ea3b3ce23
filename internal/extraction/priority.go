package extraction

import (
	"math"
	"strings"
	"time"
)

// KeywordRule maps a keyword group to a priority. Keywords are matched as
// case-insensitive substrings.
type KeywordRule struct {
	Name     string
	Keywords []string
	Priority Priority
}

// PriorityKeywordRules are evaluated in order before any punctuation or
// deadline fallback.
var PriorityKeywordRules = []KeywordRule{
	{
		Name:     "high_keywords",
		Keywords: []string{"urgent", "important", "asap", "critical", "high priority", "highest priority"},
		Priority: PriorityHigh,
	},
	{
		Name:     "medium_keywords",
		Keywords: []string{"moderate", "medium priority", "normal"},
		Priority: PriorityMedium,
	},
	{
		Name:     "low_keywords",
		Keywords: []string{"low priority", "whenever", "no rush", "eventually"},
		Priority: PriorityLow,
	},
}

// Deadline escalation thresholds in days.
const (
	highDeadlineDays   = 1
	mediumDeadlineDays = 3
)

// classifyPriority applies the keyword rules, then "!", then deadline
// proximity. lower must already be lowercased.
func classifyPriority(rules []KeywordRule, lower string, dl Deadline, now time.Time) Priority {
	for _, rule := range rules {
		if containsAny(lower, rule.Keywords) {
			return rule.Priority
		}
	}

	if strings.Contains(lower, "!") {
		return PriorityHigh
	}

	if dl.HasDeadline && dl.Date != nil {
		days := DaysUntilDeadline(*dl.Date, now)
		switch {
		case days <= highDeadlineDays:
			return PriorityHigh
		case days <= mediumDeadlineDays:
			return PriorityMedium
		}
	}

	return PriorityMedium
}

// DaysUntilDeadline returns ceil(|date-now| / 24h). The difference is
// absolute, so a deadline two days in the past counts as two days away.
func DaysUntilDeadline(date, now time.Time) int {
	diff := date.Sub(now)
	if diff < 0 {
		diff = -diff
	}
	return int(math.Ceil(float64(diff) / float64(24*time.Hour)))
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
