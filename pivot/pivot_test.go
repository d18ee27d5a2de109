package pivot

import (
	"math"
	"testing"

	"github.com/use-agent/pricepivot/models"
	"github.com/use-agent/pricepivot/rules"
)

func stoveRules(t *testing.T) *rules.CategoryRules {
	t.Helper()
	r, err := rules.Preset("gas-stove")
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	return r
}

func foodRules(t *testing.T) *rules.CategoryRules {
	t.Helper()
	r, err := rules.Preset("dog-food")
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	return r
}

func rec(name string, price int, source models.Source) *models.ProductRecord {
	return &models.ProductRecord{Name: name, Price: price, Source: source}
}

func TestSummarize_BySource(t *testing.T) {
	r := foodRules(t)
	records := []*models.ProductRecord{
		rec("Корм для такс А", 100, models.SourceWildberries),
		rec("Корм для такс Б", 200, models.SourceWildberries),
		rec("Корм для такс В", 300, models.SourceOzon),
	}

	s := Summarize(records, r, Options{})
	if len(s.BySource) != 2 {
		t.Fatalf("BySource groups = %d, want 2", len(s.BySource))
	}

	// Sorted by source name: Ozon before Wildberries.
	oz, wb := s.BySource[0], s.BySource[1]
	if oz.Source != models.SourceOzon || wb.Source != models.SourceWildberries {
		t.Fatalf("sources out of order: %q, %q", oz.Source, wb.Source)
	}

	if wb.Count != 2 || wb.Mean != 150 || wb.Median != 150 || wb.Min != 100 || wb.Max != 200 {
		t.Errorf("wildberries stats = %+v", wb)
	}
	if wb.Stddev == nil {
		t.Fatal("two-member group must have a stddev")
	}
	// Sample stddev of {100, 200} with n-1 denominator.
	if want := math.Sqrt(5000); math.Abs(*wb.Stddev-want) > 1e-9 {
		t.Errorf("Stddev = %v, want %v", *wb.Stddev, want)
	}

	if oz.Count != 1 {
		t.Errorf("ozon count = %d, want 1", oz.Count)
	}
	if oz.Stddev != nil {
		t.Error("single-member group must have nil stddev")
	}
}

func TestMedian_EvenAndOdd(t *testing.T) {
	if got := median([]int{300, 100, 200}); got != 200 {
		t.Errorf("odd median = %v, want 200", got)
	}
	if got := median([]int{100, 200, 300, 400}); got != 250 {
		t.Errorf("even median = %v, want 250", got)
	}
}

func TestBucketLabel(t *testing.T) {
	bp := []int{300, 500, 700}
	tests := []struct {
		price int
		want  string
	}{
		{100, "<=300"},
		{300, "<=300"},
		{301, "301-500"},
		{500, "301-500"},
		{501, "501-700"},
		{700, "501-700"},
		{701, ">700"},
		{5000, ">700"},
	}
	for _, tt := range tests {
		if got := BucketLabel(tt.price, bp); got != tt.want {
			t.Errorf("BucketLabel(%d) = %q, want %q", tt.price, got, tt.want)
		}
	}

	if got := BucketLabel(100, nil); got != "all" {
		t.Errorf("BucketLabel with no breakpoints = %q, want \"all\"", got)
	}
}

func TestSummarize_BucketsSortedByLowerBound(t *testing.T) {
	r := foodRules(t)
	records := []*models.ProductRecord{
		rec("Корм для такс А", 800, models.SourceWildberries),
		rec("Корм для такс Б", 150, models.SourceWildberries),
		rec("Корм для такс В", 400, models.SourceWildberries),
	}

	s := Summarize(records, r, Options{})
	want := []string{"<=300", "301-500", ">700"}
	if len(s.Buckets) != len(want) {
		t.Fatalf("buckets = %d, want %d", len(s.Buckets), len(want))
	}
	for i, b := range s.Buckets {
		if b.Bucket != want[i] || b.Count != 1 {
			t.Errorf("bucket[%d] = %+v, want %s count 1", i, b, want[i])
		}
	}
}

func TestSummarize_ModelPivotAndDivergence(t *testing.T) {
	r := stoveRules(t)
	records := []*models.ProductRecord{
		rec("Плита газовая Gefest 3200-06", 10000, models.SourceWildberries),
		rec("Плита газовая Gefest 3200-06 белая", 12000, models.SourceWildberries),
		rec("Газовая плита Gefest 3200-06", 16500, models.SourceOzon),
		rec("Плита газовая Darina 1401-22", 20000, models.SourceWildberries),
		rec("Плита газовая Darina 1401-22", 22000, models.SourceOzon),
		rec("Плита газовая без кода", 15000, models.SourceOzon),
	}

	s := Summarize(records, r, Options{})

	// 3200-06 on two sources plus 1401-22 on two sources: 4 pivot rows,
	// code-less records excluded.
	if len(s.ByModel) != 4 {
		t.Fatalf("ByModel rows = %d, want 4", len(s.ByModel))
	}
	first := s.ByModel[0]
	if first.ModelCode != "1401-22" || first.Source != models.SourceOzon {
		t.Errorf("ByModel[0] = %+v, want 1401-22/Ozon", first)
	}

	if len(s.Divergences) != 2 {
		t.Fatalf("Divergences = %d, want 2", len(s.Divergences))
	}
	// 3200-06: WB mean 11000 vs Ozon 16500 → 50%. 1401-22: 20000 vs
	// 22000 → 10%. Larger spread ranks first.
	top := s.Divergences[0]
	if top.ModelCode != "3200-06" {
		t.Fatalf("top divergence = %q, want 3200-06", top.ModelCode)
	}
	if math.Abs(top.PctSpread-50) > 1e-9 {
		t.Errorf("PctSpread = %v, want 50", top.PctSpread)
	}
	if math.Abs(top.AbsSpread-5500) > 1e-9 {
		t.Errorf("AbsSpread = %v, want 5500", top.AbsSpread)
	}
}

func TestSummarize_Tops(t *testing.T) {
	r := foodRules(t)
	records := []*models.ProductRecord{
		rec("Корм для такс А", 100, models.SourceWildberries),
		rec("Корм для такс Б", 500, models.SourceWildberries),
		rec("Корм для такс В", 300, models.SourceWildberries),
	}

	s := Summarize(records, r, Options{TopN: 2})
	if len(s.Tops) != 1 {
		t.Fatalf("Tops groups = %d, want 1", len(s.Tops))
	}
	top := s.Tops[0]
	if len(top.MostExpensive) != 2 || top.MostExpensive[0].Price != 500 || top.MostExpensive[1].Price != 300 {
		t.Errorf("MostExpensive = %+v", top.MostExpensive)
	}
	if len(top.Cheapest) != 2 || top.Cheapest[0].Price != 100 || top.Cheapest[1].Price != 300 {
		t.Errorf("Cheapest = %+v", top.Cheapest)
	}
}

func TestSummarize_NoModelPatterns(t *testing.T) {
	r := foodRules(t)
	records := []*models.ProductRecord{
		rec("Корм для такс А", 100, models.SourceWildberries),
	}

	s := Summarize(records, r, Options{})
	if s.ByModel != nil {
		t.Error("ByModel must be nil without model code patterns")
	}
	if s.Divergences != nil {
		t.Error("Divergences must be nil without model code patterns")
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, foodRules(t), Options{})
	if len(s.BySource) != 0 || len(s.Buckets) != 0 || len(s.Tops) != 0 {
		t.Errorf("empty input produced non-empty groups: %+v", s)
	}
}
