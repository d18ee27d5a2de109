package extract

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/use-agent/pricepivot/rules"
)

// priceTailRe strips a trailing price and everything after it from a name.
var priceTailRe = regexp.MustCompile(`\d{1,3}[ \x{00A0}]?\d{3}[ \x{00A0}]?\d{0,3}[ \x{00A0}]?₽.*$`)

// serviceWordRes remove transactional vocabulary that marketplaces append to
// card titles.
var serviceWordRes = func() []*regexp.Regexp {
	words := []string{"купить", "цена", "доставка", "в корзину", "₽", "руб"}
	res := make([]*regexp.Regexp, 0, len(words))
	for _, w := range words {
		res = append(res, regexp.MustCompile(`(?i)(^|\s)`+regexp.QuoteMeta(w)+`($|\s)`))
	}
	return res
}()

var (
	spaceRe    = regexp.MustCompile(`\s+`)
	slashRe    = regexp.MustCompile(`\s*/\s*`)
	edgeTrimRe = regexp.MustCompile(`^[^\p{L}\p{N}/]+|[^\p{L}\p{N}/]+$`)
)

// Name runs the name cascade over one candidate:
//
//  1. structural pass over the configured selector priority list,
//  2. brand-line scan: a line carrying both a brand alias and an inclusion
//     token is the card title on layouts that merge brand and name,
//  3. free-text pass: the longest line that is name-eligible,
//  4. positional fallback: the longest line of any kind.
//
// The cascade never fails; when everything misses it returns the category's
// placeholder so the pipeline is not blocked by a markup change.
func Name(c Candidate, r *rules.CategoryRules) string {
	name, ok := first(
		func() (string, bool) { return nameFromSelectors(c.HTML, r) },
		func() (string, bool) { return nameFromBrandLine(c.Text, r) },
		func() (string, bool) { return nameFromEligibleLines(c.Text, r) },
		func() (string, bool) { return longestLine(c.Text) },
	)
	if !ok {
		return r.Placeholder
	}
	return CleanName(name, r)
}

func nameFromSelectors(htmlStr string, r *rules.CategoryRules) (string, bool) {
	var name string
	var found bool
	selectorTexts(htmlStr, r.NameSelectors, func(text string) bool {
		cleaned := CleanName(text, r)
		if len([]rune(cleaned)) >= r.MinNameLength {
			name, found = cleaned, true
			return false
		}
		return true
	})
	return name, found
}

// nameFromBrandLine looks for the single line that carries both a known brand
// alias and category vocabulary. Cards that render "Brand / Title price
// buttons" as one text run land here.
func nameFromBrandLine(text string, r *rules.CategoryRules) (string, bool) {
	for _, line := range splitLines(text) {
		if len([]rune(line)) < r.MinNameLength {
			continue
		}
		lower := strings.ToLower(line)
		if !containsAny(lower, r.Inclusion) {
			continue
		}
		for _, b := range r.Brands {
			if strings.Contains(lower, b.Alias) {
				return line, true
			}
		}
	}
	return "", false
}

func nameFromEligibleLines(text string, r *rules.CategoryRules) (string, bool) {
	var best string
	for _, line := range splitLines(text) {
		if nameEligible(line, r.MinNameLength) && len(line) > len(best) {
			best = line
		}
	}
	return best, best != ""
}

func longestLine(text string) (string, bool) {
	var best string
	for _, line := range splitLines(text) {
		if len(line) > len(best) {
			best = line
		}
	}
	return best, best != ""
}

// CleanName normalises a raw name: NFC form, collapsed whitespace, price
// tails and service words removed, stray edge separators trimmed, slash
// spacing canonicalised and immediate phrase duplication collapsed.
// Idempotent: CleanName(CleanName(x)) == CleanName(x).
func CleanName(name string, r *rules.CategoryRules) string {
	name = norm.NFC.String(name)
	name = priceTailRe.ReplaceAllString(name, "")
	for _, re := range serviceWordRes {
		name = re.ReplaceAllString(name, " ")
	}
	name = spaceRe.ReplaceAllString(name, " ")
	name = slashRe.ReplaceAllString(name, " / ")
	name = strings.TrimSpace(name)
	name = edgeTrimRe.ReplaceAllString(name, "")
	name = collapseDuplicatePhrase(name)
	return strings.TrimSpace(name)
}

// collapseDuplicatePhrase reduces "X X" to "X" when the leading run of words
// repeats immediately ("Корм для собак Корм для собак ..."). Runs until
// stable so the cleanup stays idempotent.
func collapseDuplicatePhrase(name string) string {
	for {
		words := strings.Fields(name)
		collapsed := false
		for size := len(words) / 2; size >= 2; size-- {
			if equalFoldWords(words[:size], words[size:2*size]) {
				words = append(words[:size], words[2*size:]...)
				name = strings.Join(words, " ")
				collapsed = true
				break
			}
		}
		if !collapsed {
			return name
		}
	}
}

func equalFoldWords(a, b []string) bool {
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

func containsAny(lower string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
