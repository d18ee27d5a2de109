package models

// SourceStats holds per-group price statistics. Stddev is the sample standard
// deviation (n-1 denominator); it is nil when the group has fewer than two
// members, which serialises as null.
type SourceStats struct {
	Source Source   `json:"source"`
	Count  int      `json:"count"`
	Mean   float64  `json:"mean"`
	Median float64  `json:"median"`
	Min    int      `json:"min"`
	Max    int      `json:"max"`
	Stddev *float64 `json:"stddev"`

	// UniqueModels is the number of distinct model codes seen for this
	// source, 0 when model codes are not being extracted.
	UniqueModels int `json:"unique_models,omitempty"`
}

// BucketCount is one cell of the price-bucket histogram.
type BucketCount struct {
	Source Source `json:"source"`
	Bucket string `json:"bucket"`
	Count  int    `json:"count"`
}

// ModelPivot is one row of the model-code × source pivot: aggregate price
// statistics for one model code on one source.
type ModelPivot struct {
	ModelCode string  `json:"model_code"`
	Source    Source  `json:"source"`
	Count     int     `json:"count"`
	Mean      float64 `json:"mean"`
	Min       int     `json:"min"`
	Max       int     `json:"max"`
}

// Divergence ranks how far mean prices for one model code drift apart across
// sources. Only model codes present on at least two sources appear.
type Divergence struct {
	ModelCode string  `json:"model_code"`
	MinMean   float64 `json:"min_mean"`
	MaxMean   float64 `json:"max_mean"`
	AbsSpread float64 `json:"abs_spread"`
	PctSpread float64 `json:"pct_spread"`
}

// PricePoint is a name+price pair used in top-N listings.
type PricePoint struct {
	Name  string `json:"name"`
	Price int    `json:"price"`
}

// TopN holds the most and least expensive listings for one source.
type TopN struct {
	Source        Source       `json:"source"`
	MostExpensive []PricePoint `json:"most_expensive"`
	Cheapest      []PricePoint `json:"cheapest"`
}

// PivotSummary is the full derived view over a deduplicated record set.
// It is recomputed from scratch on each request and never mutated.
type PivotSummary struct {
	BySource    []SourceStats `json:"by_source"`
	Buckets     []BucketCount `json:"buckets"`
	ByModel     []ModelPivot  `json:"by_model,omitempty"`
	Divergences []Divergence  `json:"divergences,omitempty"`
	Tops        []TopN        `json:"tops"`
}
