package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/use-agent/pricepivot/rules"
)

var (
	ratingRe = regexp.MustCompile(`\d+[.,]\d+|\d+`)
	intRe    = regexp.MustCompile(`\d+`)
)

// Rating pulls a 0.0-5.0 star rating from the candidate's rating selectors.
// Comma decimal separators are tolerated. Out-of-range values are skipped and
// the scan continues.
func Rating(c Candidate, r *rules.CategoryRules) (float64, bool) {
	var rating float64
	var found bool
	selectorTexts(c.HTML, r.RatingSelectors, func(text string) bool {
		m := ratingRe.FindString(text)
		if m == "" {
			return true
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64)
		if err != nil || v < 0 || v > 5 {
			return true
		}
		rating, found = v, true
		return false
	})
	return rating, found
}

// ReviewCount pulls a non-negative review count from the review selectors.
func ReviewCount(c Candidate, r *rules.CategoryRules) (int, bool) {
	var count int
	var found bool
	selectorTexts(c.HTML, r.ReviewSelectors, func(text string) bool {
		m := intRe.FindString(text)
		if m == "" {
			return true
		}
		v, err := strconv.Atoi(m)
		if err != nil {
			return true
		}
		count, found = v, true
		return false
	})
	return count, found
}
