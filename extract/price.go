package extract

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/use-agent/pricepivot/rules"
)

// freeTextPriceRes are tried against the whole text block when structural and
// text-node passes find nothing. They tolerate a trailing currency glyph or
// unit word.
var freeTextPriceRes = []*regexp.Regexp{
	regexp.MustCompile(`\d{1,3}(?:[ \x{00A0}\x{202F}]?\d{3})*[ \x{00A0}\x{202F}]?₽`),
	regexp.MustCompile(`\d+[ \x{00A0}]?руб`),
	regexp.MustCompile(`\d{1,3}(?:[ \x{00A0}\x{202F}]\d{3})+`),
}

var nonDigitRe = regexp.MustCompile(`\D`)

// Price runs the price cascade over one candidate:
//
//  1. structural pass over the configured selector priority list,
//  2. text-node walk over the candidate markup,
//  3. free-text regex pass over the plain-text block.
//
// Numbers that parse but fall outside the plausibility band are discarded and
// the cascade continues; an implausible number is a miss, never a result.
func Price(c Candidate, r *rules.CategoryRules) (int, bool) {
	return first(
		func() (int, bool) { return priceFromSelectors(c.HTML, r) },
		func() (int, bool) { return priceFromTextNodes(c.HTML, r) },
		func() (int, bool) { return priceFromFreeText(c.Text, r) },
	)
}

// ParsePrice applies the numeric parsing rule to one matched span: strip
// every non-digit, reject digit runs shorter than the category minimum, then
// enforce the plausibility band.
func ParsePrice(span string, r *rules.CategoryRules) (int, bool) {
	digits := nonDigitRe.ReplaceAllString(span, "")
	if len(digits) < r.MinPriceDigits {
		return 0, false
	}
	price, err := strconv.Atoi(digits)
	if err != nil {
		// Digit runs longer than an int only occur on garbage input.
		return 0, false
	}
	if !r.PriceBand.Contains(price) {
		return 0, false
	}
	return price, true
}

func priceFromSelectors(htmlStr string, r *rules.CategoryRules) (int, bool) {
	var price int
	var found bool
	selectorTexts(htmlStr, r.PriceSelectors, func(text string) bool {
		if p, ok := ParsePrice(firstCurrencyRun(text), r); ok {
			price, found = p, true
			return false
		}
		return true
	})
	return price, found
}

// priceFromTextNodes walks every text node under the candidate and returns
// the first currency-looking run that parses and passes the band. This
// catches prices rendered outside any recognisable class.
func priceFromTextNodes(htmlStr string, r *rules.CategoryRules) (int, bool) {
	root, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return 0, false
	}

	var price int
	var found bool
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found {
			return
		}
		if n.Type == html.TextNode {
			for _, run := range currencyNumberRe.FindAllString(n.Data, -1) {
				if p, ok := ParsePrice(run, r); ok {
					price, found = p, true
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return price, found
}

func priceFromFreeText(text string, r *rules.CategoryRules) (int, bool) {
	for _, re := range freeTextPriceRes {
		for _, match := range re.FindAllString(text, -1) {
			if p, ok := ParsePrice(match, r); ok {
				return p, true
			}
		}
	}
	return 0, false
}

// firstCurrencyRun narrows a selector hit to its first number-looking run so
// that "1 299 ₽ 2 500 ₽" style old/new price pairs resolve to the first
// (current) price.
func firstCurrencyRun(text string) string {
	if run := currencyNumberRe.FindString(text); run != "" {
		return run
	}
	return text
}
