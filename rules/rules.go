// Package rules defines per-category extraction and classification rules.
//
// Everything marketplaces change between site redesigns lives here as data:
// selector priority lists, keyword sets, price plausibility bands and brand
// tables. One classifier and one extractor implementation serve all
// categories by consuming a CategoryRules value.
package rules

import (
	"fmt"
	"os"
	"regexp"

	"github.com/andybalholm/cascadia"
	"gopkg.in/yaml.v3"
)

// Band is the category-specific [Min,Max] range a parsed price must fall
// inside to be accepted. Values outside the band are extraction failures, not
// data.
type Band struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Contains reports whether p is inside the band.
func (b Band) Contains(p int) bool {
	return p >= b.Min && p <= b.Max
}

// Brand maps a lowercase alias (including localized-alphabet variants) to its
// canonical display name. Aliases are matched in declaration order; the first
// alias found anywhere in the text wins.
type Brand struct {
	Alias string `yaml:"alias"`
	Name  string `yaml:"name"`
}

// CategoryRules bundles every category-specific constant the pipeline needs.
type CategoryRules struct {
	// Category is the free-text label stamped onto every record.
	Category string `yaml:"category"`

	// Placeholder is emitted when name extraction exhausts every fallback.
	Placeholder string `yaml:"placeholder"`

	// PriceBand is the plausibility band for parsed prices.
	PriceBand Band `yaml:"price_band"`

	// MinPriceDigits rejects digit runs shorter than this before parsing,
	// so rating digits are not mistaken for prices. 2 for cheap categories,
	// 3 for appliances.
	MinPriceDigits int `yaml:"min_price_digits"`

	// MinNameLength is the minimum rune count for a name-eligible line.
	MinNameLength int `yaml:"min_name_length"`

	// Inclusion tokens name the product class (stove/food vocabulary).
	Inclusion []string `yaml:"inclusion"`

	// Variant tokens name the required variant (gas-specific, dry-food
	// specific). A brand hit may substitute for a variant hit.
	Variant []string `yaml:"variant"`

	// Exclusion tokens veto classification regardless of other matches.
	Exclusion []string `yaml:"exclusion"`

	// Brands is the ordered alias table used for name enrichment.
	Brands []Brand `yaml:"brands"`

	// Selector priority lists, tried in order; first parse-and-band success
	// wins. These reflect every site layout seen so far.
	CandidateSelectors []string `yaml:"candidate_selectors"`
	NameSelectors      []string `yaml:"name_selectors"`
	PriceSelectors     []string `yaml:"price_selectors"`
	RatingSelectors    []string `yaml:"rating_selectors"`
	ReviewSelectors    []string `yaml:"review_selectors"`

	// BucketBreakpoints are the ascending price histogram edges.
	BucketBreakpoints []int `yaml:"bucket_breakpoints"`

	// ModelCodePatterns are tried in order to pull a model code out of a
	// record name for pivoting. Empty when the category has no model codes.
	ModelCodePatterns []string `yaml:"model_code_patterns"`
}

// Validate checks selector syntax, regex syntax and band sanity. Called once
// at load time so the hot path never sees a malformed rule.
func (r *CategoryRules) Validate() error {
	if r.Category == "" {
		return fmt.Errorf("rules: category label is required")
	}
	if r.PriceBand.Min <= 0 || r.PriceBand.Max <= r.PriceBand.Min {
		return fmt.Errorf("rules: invalid price band [%d, %d]", r.PriceBand.Min, r.PriceBand.Max)
	}
	if r.MinPriceDigits < 1 {
		return fmt.Errorf("rules: min_price_digits must be at least 1")
	}
	if r.MinNameLength < 1 {
		return fmt.Errorf("rules: min_name_length must be at least 1")
	}
	if len(r.Inclusion) == 0 {
		return fmt.Errorf("rules: at least one inclusion token is required")
	}

	for _, group := range [][]string{
		r.CandidateSelectors, r.NameSelectors, r.PriceSelectors,
		r.RatingSelectors, r.ReviewSelectors,
	} {
		for _, sel := range group {
			if _, err := cascadia.Parse(sel); err != nil {
				return fmt.Errorf("rules: bad selector %q: %w", sel, err)
			}
		}
	}

	for _, pattern := range r.ModelCodePatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("rules: bad model code pattern %q: %w", pattern, err)
		}
	}

	for i := 1; i < len(r.BucketBreakpoints); i++ {
		if r.BucketBreakpoints[i] <= r.BucketBreakpoints[i-1] {
			return fmt.Errorf("rules: bucket breakpoints must be strictly ascending")
		}
	}

	return nil
}

// Load reads CategoryRules from a YAML file and validates them.
func Load(path string) (*CategoryRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read %s: %w", path, err)
	}

	var r CategoryRules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("rules: parse %s: %w", path, err)
	}
	applyDefaults(&r)
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func applyDefaults(r *CategoryRules) {
	if r.Placeholder == "" {
		r.Placeholder = "Unknown item"
	}
	if r.MinPriceDigits == 0 {
		r.MinPriceDigits = 3
	}
	if r.MinNameLength == 0 {
		r.MinNameLength = 10
	}
}
