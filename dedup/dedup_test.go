package dedup

import (
	"testing"

	"github.com/use-agent/pricepivot/models"
)

func rec(name string, price int) *models.ProductRecord {
	return &models.ProductRecord{Name: name, Price: price, Source: models.SourceWildberries}
}

func TestCollapse_ExactDuplicates(t *testing.T) {
	in := []*models.ProductRecord{
		rec("Корм для такс сухой", 450),
		rec("Корм для такс сухой", 450),
		rec("Корм для такс сухой", 500),
	}

	got := Collapse(in)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Price != 450 || got[1].Price != 500 {
		t.Errorf("order not preserved: %d, %d", got[0].Price, got[1].Price)
	}
}

func TestCollapse_NormalizedVariants(t *testing.T) {
	in := []*models.ProductRecord{
		rec("ABC Model X", 12990),
		rec("abc model x!!", 12990),
		rec("  ABC   Model X  ", 12990),
	}

	got := Collapse(in)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Name != "ABC Model X" {
		t.Errorf("first occurrence must win, got %q", got[0].Name)
	}
}

func TestCollapse_SamePriceDifferentProductsKept(t *testing.T) {
	in := []*models.ProductRecord{
		rec("Плита газовая Gefest 3200", 12990),
		rec("Плита газовая Darina S2", 12990),
	}

	if got := Collapse(in); len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
}

func TestCollapse_SameNameDifferentPricesKept(t *testing.T) {
	in := []*models.ProductRecord{
		rec("Плита газовая Gefest 3200", 12990),
		rec("Плита газовая Gefest 3200", 13990),
	}

	if got := Collapse(in); len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
}

func TestCollapse_Convergent(t *testing.T) {
	in := []*models.ProductRecord{
		rec("ABC Model X", 500),
		rec("abc model x", 500),
		rec("Другой товар совсем", 700),
	}

	once := Collapse(in)
	twice := Collapse(once)
	if len(once) != len(twice) {
		t.Fatalf("not convergent: %d then %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("record %d changed on second pass", i)
		}
	}
}

func TestCollapse_EmptyInput(t *testing.T) {
	if got := Collapse(nil); len(got) != 0 {
		t.Fatalf("len = %d, want 0", len(got))
	}
}

func TestNearDuplicates(t *testing.T) {
	a := rec("Плита газовая Gefest 3200-06 белая", 12990)
	b := rec("Плита газовая Gefest 3200-06 белая новинка", 13490)
	c := rec("Корм для такс сухой ягнёнок", 450)

	pairs := NearDuplicates([]*models.ProductRecord{a, b, c}, 10)
	found := false
	for _, p := range pairs {
		if (p.A == a && p.B == b) || (p.A == b && p.B == a) {
			found = true
		}
		if p.A == c || p.B == c {
			t.Errorf("unrelated record reported as near duplicate (distance %d)", p.Distance)
		}
	}
	if !found {
		t.Error("near-identical names not reported")
	}
}
