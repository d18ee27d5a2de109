package extract

import (
	"strings"
	"testing"
)

func TestName_SelectorPass(t *testing.T) {
	r := dogFood(t)
	c := Candidate{
		HTML: `<span class="product-card__name">Сухой корм для такс Royal Canin 12кг</span>`,
	}

	got := Name(c, r)
	if got != "Сухой корм для такс Royal Canin 12кг" {
		t.Errorf("Name = %q", got)
	}
}

func TestName_BrandLineFallback(t *testing.T) {
	r := dogFood(t)
	c := Candidate{
		Text: "Quattro / Корм для собак сухой 12кг\n450 ₽\nВ корзину",
	}

	got := Name(c, r)
	if got != "Quattro / Корм для собак сухой 12кг" {
		t.Errorf("Name = %q", got)
	}
}

func TestName_EligibleLineSkipsPriceAndButtons(t *testing.T) {
	r := gasStove(t)
	c := Candidate{
		Text: "12 990 ₽\nГазовая плита настольная белая\nВ корзину\nДоставка завтра",
	}

	got := Name(c, r)
	if got != "Газовая плита настольная белая" {
		t.Errorf("Name = %q", got)
	}
}

func TestName_PlaceholderWhenNothingUsable(t *testing.T) {
	r := dogFood(t)
	c := Candidate{Text: ""}

	if got := Name(c, r); got != r.Placeholder {
		t.Errorf("Name = %q, want placeholder %q", got, r.Placeholder)
	}
}

func TestCleanName_StripsPriceTailAndServiceWords(t *testing.T) {
	r := dogFood(t)

	got := CleanName("Корм для такс сухой 1 299 ₽ купить с доставкой", r)
	if got != "Корм для такс сухой" {
		t.Errorf("CleanName = %q", got)
	}
}

func TestCleanName_CollapsesDuplicatePhrase(t *testing.T) {
	r := dogFood(t)

	got := CleanName("Корм для собак Корм для собак сухой", r)
	if got != "Корм для собак сухой" {
		t.Errorf("CleanName = %q", got)
	}
}

func TestCleanName_SlashSpacing(t *testing.T) {
	r := dogFood(t)

	got := CleanName("Quattro/Корм для собак", r)
	if got != "Quattro / Корм для собак" {
		t.Errorf("CleanName = %q", got)
	}
}

func TestCleanName_Idempotent(t *testing.T) {
	r := dogFood(t)
	inputs := []string{
		"  Корм для такс   сухой 450 ₽ В корзину ",
		"Гефест 3200-06 Гефест 3200-06",
		"Quattro/Корм//для собак",
		"!!! Плита газовая ???",
	}

	for _, in := range inputs {
		once := CleanName(in, r)
		twice := CleanName(once, r)
		if once != twice {
			t.Errorf("CleanName not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestBrand_TableOrder(t *testing.T) {
	r := dogFood(t)

	name, ok := Brand("корм royal canin для такс", r)
	if !ok || name != "Royal Canin" {
		t.Errorf("Brand = (%q, %v), want (Royal Canin, true)", name, ok)
	}

	name, ok = Brand("корм РОЯЛ КАНИН сухой", r)
	if !ok || name != "Royal Canin" {
		t.Errorf("Brand cyrillic alias = (%q, %v), want (Royal Canin, true)", name, ok)
	}

	if _, ok := Brand("корм без бренда", r); ok {
		t.Error("Brand matched text with no alias")
	}
}

func TestName_LongestLineFallback(t *testing.T) {
	r := dogFood(t)
	// Every line is shorter than MinNameLength or transactional, so the
	// positional fallback returns the longest raw line, cleaned.
	c := Candidate{Text: "abc\nxyzxyzxyz"}

	got := Name(c, r)
	if !strings.Contains(got, "xyzxyzxyz") {
		t.Errorf("Name = %q, want longest line", got)
	}
}
