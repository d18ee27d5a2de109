package extract

import (
	"strings"
	"time"

	"github.com/use-agent/pricepivot/classify"
	"github.com/use-agent/pricepivot/models"
	"github.com/use-agent/pricepivot/rules"
)

// Assembler combines extractor outputs for one candidate into a
// ProductRecord, or signals rejection with a MissReason. Rejection is the
// common case on noisy pages and is never an error.
type Assembler struct {
	rules      *rules.CategoryRules
	classifier *classify.Classifier
	source     models.Source
}

// NewAssembler builds an Assembler for one collection run.
func NewAssembler(r *rules.CategoryRules, cl *classify.Classifier, source models.Source) *Assembler {
	return &Assembler{rules: r, classifier: cl, source: source}
}

// Assemble runs the full per-candidate pipeline: classification gate, field
// cascades, brand enrichment and final validation.
func (a *Assembler) Assemble(c Candidate) (*models.ProductRecord, models.MissReason) {
	if strings.TrimSpace(c.Text) == "" && strings.TrimSpace(c.HTML) == "" {
		return nil, models.MissEmptyText
	}

	// First gate: drop out-of-class candidates before paying for the
	// selector cascades.
	if !a.classifier.InClass(c.Text) {
		return nil, models.MissOutOfClass
	}

	price, ok := Price(c, a.rules)
	if !ok {
		return nil, models.MissNoPrice
	}

	name := Name(c, a.rules)
	if name == a.rules.Placeholder || len([]rune(name)) < a.rules.MinNameLength {
		return nil, models.MissNoName
	}

	if brand, ok := Brand(c.Text, a.rules); ok && !strings.Contains(strings.ToLower(name), strings.ToLower(brand)) {
		name = CleanName(brand+" / "+name, a.rules)
	}

	// Second gate: selector-extracted names can surface different text than
	// the raw block classified above.
	if !a.classifier.InClass(name) {
		return nil, models.MissNameRecheck
	}

	rec := &models.ProductRecord{
		Name:        name,
		Price:       price,
		Source:      a.source,
		Category:    a.rules.Category,
		URL:         c.URL,
		CollectedAt: time.Now(),
	}
	if rating, ok := Rating(c, a.rules); ok {
		rec.Rating = rating
	}
	if reviews, ok := ReviewCount(c, a.rules); ok {
		rec.ReviewCount = reviews
	}
	return rec, ""
}
