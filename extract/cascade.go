// Package extract turns one raw candidate's markup and text block into typed
// field values. Every field is produced by a cascade of strategies tried in a
// fixed priority order; the first success wins and no confidence score is
// kept. A cascade that exhausts all strategies reports a miss, never an
// error.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Candidate is one page-rendered item under consideration. It lives only for
// the duration of a single extraction pass.
type Candidate struct {
	// HTML is the candidate's outer markup, used by structural selector
	// passes.
	HTML string

	// Text is the rendered plain-text block, used by classification and
	// free-text fallbacks.
	Text string

	// URL is the product link when the sampler could resolve one.
	URL string
}

// Strategy produces a value of type T, reporting whether it succeeded.
type Strategy[T any] func() (T, bool)

// first runs strategies in order and returns the first successful value.
func first[T any](strategies ...Strategy[T]) (T, bool) {
	for _, s := range strategies {
		if v, ok := s(); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// selectorTexts yields the trimmed text of every element matched by the
// selectors, in selector-priority order. Unparsable markup yields nothing;
// markup noise is an expected miss, not a fault.
func selectorTexts(html string, selectors []string, visit func(text string) bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return
	}
	for _, sel := range selectors {
		stop := false
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.TrimSpace(s.Text())
			if text == "" {
				return true
			}
			if !visit(text) {
				stop = true
				return false
			}
			return true
		})
		if stop {
			return
		}
	}
}
