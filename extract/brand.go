package extract

import (
	"strings"

	"github.com/use-agent/pricepivot/rules"
)

// Brand finds the first known brand alias anywhere in the candidate text and
// returns its canonical display name. Aliases are checked in table order so
// multi-word aliases ("royal canin") take priority over their substrings.
// Brand hits only enrich the assembled name; they never gate classification.
func Brand(text string, r *rules.CategoryRules) (string, bool) {
	if text == "" {
		return "", false
	}
	lower := strings.ToLower(text)
	for _, b := range r.Brands {
		if strings.Contains(lower, b.Alias) {
			return b.Name, true
		}
	}
	return "", false
}
