// Package pivot computes cross-source comparison summaries over deduplicated
// record sets. Every function here is pure: summaries are rebuilt from
// scratch on each call and input records are never mutated.
package pivot

import (
	"fmt"
	"math"
	"regexp"
	"sort"

	"github.com/use-agent/pricepivot/models"
	"github.com/use-agent/pricepivot/rules"
)

// DefaultTopN is the number of most/least expensive listings reported per
// source when the caller does not override it.
const DefaultTopN = 5

// Options tunes summary computation.
type Options struct {
	// TopN is the size of the most/least expensive listings per source.
	// Zero means DefaultTopN.
	TopN int
}

// Summarize builds the full pivot summary for one category's deduplicated
// records.
func Summarize(records []*models.ProductRecord, r *rules.CategoryRules, opts Options) *models.PivotSummary {
	topN := opts.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}

	codes := modelCodes(records, r)

	return &models.PivotSummary{
		BySource:    bySource(records, codes),
		Buckets:     buckets(records, r.BucketBreakpoints),
		ByModel:     byModel(records, codes),
		Divergences: divergences(records, codes),
		Tops:        tops(records, topN),
	}
}

// modelCodes extracts the secondary pivot key for each record using the
// category's ordered pattern list. Records without a code map to "".
func modelCodes(records []*models.ProductRecord, r *rules.CategoryRules) map[*models.ProductRecord]string {
	if len(r.ModelCodePatterns) == 0 {
		return nil
	}
	patterns := make([]*regexp.Regexp, 0, len(r.ModelCodePatterns))
	for _, p := range r.ModelCodePatterns {
		patterns = append(patterns, regexp.MustCompile(p))
	}

	codes := make(map[*models.ProductRecord]string, len(records))
	for _, rec := range records {
		for _, re := range patterns {
			if m := re.FindString(rec.Name); m != "" {
				codes[rec] = m
				break
			}
		}
	}
	return codes
}

func bySource(records []*models.ProductRecord, codes map[*models.ProductRecord]string) []models.SourceStats {
	prices := make(map[models.Source][]int)
	uniqueModels := make(map[models.Source]map[string]struct{})
	for _, rec := range records {
		prices[rec.Source] = append(prices[rec.Source], rec.Price)
		if code, ok := codes[rec]; ok && code != "" {
			if uniqueModels[rec.Source] == nil {
				uniqueModels[rec.Source] = make(map[string]struct{})
			}
			uniqueModels[rec.Source][code] = struct{}{}
		}
	}

	out := make([]models.SourceStats, 0, len(prices))
	for source, ps := range prices {
		stats := models.SourceStats{
			Source:       source,
			Count:        len(ps),
			Mean:         mean(ps),
			Median:       median(ps),
			Min:          minOf(ps),
			Max:          maxOf(ps),
			UniqueModels: len(uniqueModels[source]),
		}
		if sd, ok := sampleStddev(ps); ok {
			stats.Stddev = &sd
		}
		out = append(out, stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// BucketLabel names the histogram bucket a price belongs to given ascending
// breakpoints, e.g. breakpoints [300,500,700] produce "<=300", "301-500",
// "501-700" and ">700".
func BucketLabel(price int, breakpoints []int) string {
	if len(breakpoints) == 0 {
		return "all"
	}
	if price <= breakpoints[0] {
		return fmt.Sprintf("<=%d", breakpoints[0])
	}
	for i := 1; i < len(breakpoints); i++ {
		if price <= breakpoints[i] {
			return fmt.Sprintf("%d-%d", breakpoints[i-1]+1, breakpoints[i])
		}
	}
	return fmt.Sprintf(">%d", breakpoints[len(breakpoints)-1])
}

func buckets(records []*models.ProductRecord, breakpoints []int) []models.BucketCount {
	type cell struct {
		source models.Source
		bucket string
	}
	counts := make(map[cell]int)
	for _, rec := range records {
		counts[cell{rec.Source, BucketLabel(rec.Price, breakpoints)}]++
	}

	out := make([]models.BucketCount, 0, len(counts))
	for c, n := range counts {
		out = append(out, models.BucketCount{Source: c.source, Bucket: c.bucket, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return bucketOrder(out[i].Bucket) < bucketOrder(out[j].Bucket)
	})
	return out
}

// bucketOrder sorts bucket labels by their lower bound.
func bucketOrder(label string) int {
	var n int
	switch {
	case len(label) > 2 && label[:2] == "<=":
		return 0
	case len(label) > 1 && label[0] == '>':
		fmt.Sscanf(label, ">%d", &n)
		return n + 1
	default:
		fmt.Sscanf(label, "%d-", &n)
		return n
	}
}

func byModel(records []*models.ProductRecord, codes map[*models.ProductRecord]string) []models.ModelPivot {
	if codes == nil {
		return nil
	}
	type cell struct {
		code   string
		source models.Source
	}
	groups := make(map[cell][]int)
	for _, rec := range records {
		code := codes[rec]
		if code == "" {
			continue
		}
		key := cell{code, rec.Source}
		groups[key] = append(groups[key], rec.Price)
	}

	out := make([]models.ModelPivot, 0, len(groups))
	for c, ps := range groups {
		out = append(out, models.ModelPivot{
			ModelCode: c.code,
			Source:    c.source,
			Count:     len(ps),
			Mean:      mean(ps),
			Min:       minOf(ps),
			Max:       maxOf(ps),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ModelCode != out[j].ModelCode {
			return out[i].ModelCode < out[j].ModelCode
		}
		return out[i].Source < out[j].Source
	})
	return out
}

func divergences(records []*models.ProductRecord, codes map[*models.ProductRecord]string) []models.Divergence {
	if codes == nil {
		return nil
	}
	perCode := make(map[string]map[models.Source][]int)
	for _, rec := range records {
		code := codes[rec]
		if code == "" {
			continue
		}
		if perCode[code] == nil {
			perCode[code] = make(map[models.Source][]int)
		}
		perCode[code][rec.Source] = append(perCode[code][rec.Source], rec.Price)
	}

	var out []models.Divergence
	for code, bySrc := range perCode {
		if len(bySrc) < 2 {
			continue
		}
		minMean := math.Inf(1)
		maxMean := math.Inf(-1)
		for _, ps := range bySrc {
			m := mean(ps)
			minMean = math.Min(minMean, m)
			maxMean = math.Max(maxMean, m)
		}
		d := models.Divergence{
			ModelCode: code,
			MinMean:   minMean,
			MaxMean:   maxMean,
			AbsSpread: maxMean - minMean,
		}
		if minMean > 0 {
			d.PctSpread = (maxMean - minMean) / minMean * 100
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PctSpread != out[j].PctSpread {
			return out[i].PctSpread > out[j].PctSpread
		}
		return out[i].ModelCode < out[j].ModelCode
	})
	return out
}

func tops(records []*models.ProductRecord, n int) []models.TopN {
	bySrc := make(map[models.Source][]*models.ProductRecord)
	for _, rec := range records {
		bySrc[rec.Source] = append(bySrc[rec.Source], rec)
	}

	out := make([]models.TopN, 0, len(bySrc))
	for source, recs := range bySrc {
		sorted := make([]*models.ProductRecord, len(recs))
		copy(sorted, recs)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Price > sorted[j].Price })

		top := models.TopN{Source: source}
		for i := 0; i < n && i < len(sorted); i++ {
			top.MostExpensive = append(top.MostExpensive, models.PricePoint{
				Name: sorted[i].Name, Price: sorted[i].Price,
			})
		}
		for i := 0; i < n && i < len(sorted); i++ {
			rec := sorted[len(sorted)-1-i]
			top.Cheapest = append(top.Cheapest, models.PricePoint{
				Name: rec.Name, Price: rec.Price,
			})
		}
		out = append(out, top)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

func mean(ps []int) float64 {
	if len(ps) == 0 {
		return 0
	}
	sum := 0
	for _, p := range ps {
		sum += p
	}
	return float64(sum) / float64(len(ps))
}

func median(ps []int) float64 {
	if len(ps) == 0 {
		return 0
	}
	sorted := make([]int, len(ps))
	copy(sorted, ps)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return float64(sorted[mid-1]+sorted[mid]) / 2
	}
	return float64(sorted[mid])
}

// sampleStddev returns the sample standard deviation (n-1 denominator).
// Groups with fewer than two members have no defined spread.
func sampleStddev(ps []int) (float64, bool) {
	if len(ps) < 2 {
		return 0, false
	}
	m := mean(ps)
	var sum float64
	for _, p := range ps {
		d := float64(p) - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(ps)-1)), true
}

func minOf(ps []int) int {
	m := ps[0]
	for _, p := range ps[1:] {
		if p < m {
			m = p
		}
	}
	return m
}

func maxOf(ps []int) int {
	m := ps[0]
	for _, p := range ps[1:] {
		if p > m {
			m = p
		}
	}
	return m
}
