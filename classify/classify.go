// Package classify decides whether candidate text belongs to the product
// class being collected. It runs before field extraction, so irrelevant cards
// are dropped without paying the selector-cascade cost, and again at assembly
// time on the final extracted name as a second gate.
package classify

import (
	"hash/fnv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/use-agent/pricepivot/rules"
)

// verdictCacheSize bounds the memo cache. Pages repeat the same card text
// across scroll samples, so most lookups hit.
const verdictCacheSize = 4096

// Classifier applies one category's keyword rules.
type Classifier struct {
	rules *rules.CategoryRules
	cache *lru.Cache[uint64, bool]
}

// New builds a Classifier for the given rules.
func New(r *rules.CategoryRules) *Classifier {
	cache, _ := lru.New[uint64, bool](verdictCacheSize)
	return &Classifier{rules: r, cache: cache}
}

// InClass reports whether the text names an in-class product.
//
// Policy: exclusion tokens always veto; otherwise the text must carry an
// inclusion token and either a variant token or a known brand alias. Text
// shorter than the category minimum is out of class.
func (c *Classifier) InClass(text string) bool {
	if len([]rune(text)) < c.rules.MinNameLength {
		return false
	}

	key := textKey(text)
	if v, ok := c.cache.Get(key); ok {
		return v
	}

	verdict := c.classify(strings.ToLower(text))
	c.cache.Add(key, verdict)
	return verdict
}

func (c *Classifier) classify(lower string) bool {
	if containsAny(lower, c.rules.Exclusion) {
		return false
	}
	if !containsAny(lower, c.rules.Inclusion) {
		return false
	}
	if containsAny(lower, c.rules.Variant) {
		return true
	}
	for _, b := range c.rules.Brands {
		if strings.Contains(lower, b.Alias) {
			return true
		}
	}
	return false
}

func containsAny(lower string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

func textKey(text string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(text))
	return h.Sum64()
}
