package extract

import (
	"regexp"
	"strings"
)

// currencyNumberRe matches grouped price-looking numbers: 1-3 digits followed
// by optional groups of 3. Group separators (regular, non-breaking or narrow
// space) are optional so contiguous renderings like "12990" match whole.
var currencyNumberRe = regexp.MustCompile(`\d{1,3}(?:[ \x{00A0}\x{202F}]?\d{3})*`)

// priceLineRe matches lines carrying a currency amount or currency vocabulary.
var priceLineRe = regexp.MustCompile(`(?i)(\d{1,3}[ \x{00A0}\x{202F}]?\d{3}[ \x{00A0}\x{202F}]?\d{0,3}[ \x{00A0}\x{202F}]?₽|\d+[ \x{00A0}]?руб|цена|₽|рубл)`)

var ratingWords = []string{"отзыв", "рейтинг", "⭐", "★", "оценк", "rating"}

var buttonWords = []string{
	"в корзину", "купить", "заказать", "доставка",
	"в избранное", "подробнее", "корзин", "add to cart", "buy",
}

// IsPriceLine reports whether the line looks like a price rather than a name.
func IsPriceLine(line string) bool {
	return line != "" && priceLineRe.MatchString(strings.ToLower(line))
}

// IsRatingLine reports whether the line carries rating/review vocabulary.
func IsRatingLine(line string) bool {
	if line == "" {
		return false
	}
	lower := strings.ToLower(line)
	for _, w := range ratingWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// IsButtonLine reports whether the line is transactional button text.
func IsButtonLine(line string) bool {
	if line == "" {
		return false
	}
	lower := strings.ToLower(line)
	for _, w := range buttonWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// nameEligible reports whether a line may serve as a product name: long
// enough and not a price, rating or button line.
func nameEligible(line string, minLen int) bool {
	if len([]rune(line)) < minLen {
		return false
	}
	return !IsPriceLine(line) && !IsRatingLine(line) && !IsButtonLine(line)
}

// splitLines breaks a text block into trimmed non-empty lines.
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
