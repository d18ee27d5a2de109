package rules

import "fmt"

// Preset returns a built-in CategoryRules set by name. The presets cover the
// two product classes the pipeline was originally tuned for; custom categories
// load from YAML instead.
func Preset(name string) (*CategoryRules, error) {
	var r *CategoryRules
	switch name {
	case "dog-food":
		r = dogFoodRules()
	case "gas-stove":
		r = gasStoveRules()
	default:
		return nil, fmt.Errorf("rules: unknown preset %q (have: dog-food, gas-stove)", name)
	}
	applyDefaults(r)
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func dogFoodRules() *CategoryRules {
	return &CategoryRules{
		Category:       "Сухой корм для такс",
		Placeholder:    "Неизвестный корм для собак",
		PriceBand:      Band{Min: 100, Max: 100000},
		MinPriceDigits: 2,
		MinNameLength:  10,
		Inclusion:      []string{"корм", "питание", "еда", "food", "dog"},
		Variant: []string{
			"такса", "таксы", "dachshund", "для собак", "для взрослых собак",
			"для щенков", "сухой", "сухого", "dry", "гранулы",
		},
		Exclusion: []string{
			"кош", "кот", "cat", "птиц", "грызун", "кролик", "хомяк",
			"аквариум", "рыб", "рептилий", "наполнитель", "лоток", "игрушк",
			"поводок", "ошейник", "миска", "лежанка", "витамин", "лакомств",
			"амуниция", "переноск", "гигиена", "груминг", "влажн", "консерв", "пауч",
		},
		Brands: []Brand{
			{Alias: "royal canin", Name: "Royal Canin"},
			{Alias: "роял канин", Name: "Royal Canin"},
			{Alias: "pro plan", Name: "Pro Plan"},
			{Alias: "про план", Name: "Pro Plan"},
			{Alias: "taste of the wild", Name: "Taste of the Wild"},
			{Alias: "quattro", Name: "Quattro"},
			{Alias: "purina", Name: "Purina"},
			{Alias: "пурина", Name: "Purina"},
			{Alias: "hills", Name: "Hills"},
			{Alias: "хиллс", Name: "Hills"},
			{Alias: "acana", Name: "Acana"},
			{Alias: "акана", Name: "Acana"},
			{Alias: "orijen", Name: "Orijen"},
			{Alias: "ориджен", Name: "Orijen"},
			{Alias: "probalance", Name: "Probalance"},
			{Alias: "пробаланс", Name: "Probalance"},
			{Alias: "brit", Name: "Brit"},
			{Alias: "брит", Name: "Brit"},
			{Alias: "monge", Name: "Monge"},
			{Alias: "монж", Name: "Monge"},
			{Alias: "farmina", Name: "Farmina"},
			{Alias: "фармина", Name: "Farmina"},
			{Alias: "grandorf", Name: "Grandorf"},
			{Alias: "грандорф", Name: "Grandorf"},
			{Alias: "belcando", Name: "Belcando"},
			{Alias: "белькандо", Name: "Belcando"},
			{Alias: "bosch", Name: "Bosch"},
			{Alias: "бош", Name: "Bosch"},
			{Alias: "trainer", Name: "Trainer"},
			{Alias: "pedigree", Name: "Pedigree"},
			{Alias: "педигри", Name: "Pedigree"},
			{Alias: "chappi", Name: "Chappi"},
			{Alias: "чаппи", Name: "Chappi"},
		},
		CandidateSelectors: []string{
			"article.product-card",
			"div.product-card",
			"[data-nm-id]",
			".product-card__wrapper",
			".j-card-item",
			"div[class*='tile-root']",
			"article[class*='tile']",
		},
		NameSelectors: []string{
			".product-card__name span",
			".product-card__name",
			".card__name",
			".goods-name",
			".j-card-name",
			".product-card__brand-name",
			"a[class*='title']",
			"span[class*='name']",
			"h3", "h4",
		},
		PriceSelectors: []string{
			".price__lower-price",
			".price-block__final-price",
			".final-price",
			".lower-price",
			".j-final-price",
			"[class*='price__lower']",
			".product-card__price",
			"span[class*='price']",
			"div[class*='price']",
		},
		RatingSelectors: []string{
			".product-card__rating",
			".j-rating",
			"[data-rating]",
			".rating",
			".stars",
			".product-card__rate",
		},
		ReviewSelectors: []string{
			".product-card__count",
			".j-feedback-count",
			"[data-review-count]",
			".review-count",
			".product-card__feedback",
		},
		BucketBreakpoints: []int{300, 500, 700},
	}
}

func gasStoveRules() *CategoryRules {
	return &CategoryRules{
		Category:       "Газовая плита",
		Placeholder:    "Неизвестная газовая плита",
		PriceBand:      Band{Min: 1000, Max: 500000},
		MinPriceDigits: 3,
		MinNameLength:  10,
		Inclusion: []string{
			"плита", "плитка", "поверхность", "варочная", "панель", "духовка",
		},
		Variant: []string{
			"газов", "газовая", "газовой", "газова", "газо", "газ.", "газ ",
		},
		Exclusion: []string{
			"электрич", "электроплита", "индукцион", "комбинирован",
			"газоэлектрич", "походн", "туристич", "переносн", "мини",
			"аксессуар", "чехол", "крышка", "сопло", "горелка", "шланг",
			"баллон", "регулятор", "смеситель",
		},
		Brands: []Brand{
			{Alias: "de luxe", Name: "De Luxe"},
			{Alias: "hotpoint", Name: "Hotpoint"},
			{Alias: "gefest", Name: "Gefest"},
			{Alias: "гефест", Name: "Gefest"},
			{Alias: "darina", Name: "Darina"},
			{Alias: "дарина", Name: "Darina"},
			{Alias: "electrolux", Name: "Electrolux"},
			{Alias: "hansa", Name: "Hansa"},
			{Alias: "indesit", Name: "Indesit"},
			{Alias: "индезит", Name: "Indesit"},
			{Alias: "atlant", Name: "Atlant"},
			{Alias: "атлант", Name: "Atlant"},
			{Alias: "gorenje", Name: "Gorenje"},
			{Alias: "kaiser", Name: "Kaiser"},
			{Alias: "korting", Name: "Korting"},
			{Alias: "samsung", Name: "Samsung"},
			{Alias: "whirlpool", Name: "Whirlpool"},
			{Alias: "zanussi", Name: "Zanussi"},
			{Alias: "beko", Name: "Beko"},
			{Alias: "candy", Name: "Candy"},
			{Alias: "bosch", Name: "Bosch"},
			{Alias: "бош", Name: "Bosch"},
			{Alias: "lada", Name: "Lada"},
			{Alias: "лада", Name: "Lada"},
			{Alias: "flama", Name: "Flama"},
			{Alias: "lex", Name: "Lex"},
			{Alias: "teka", Name: "Teka"},
		},
		CandidateSelectors: []string{
			"article.product-card",
			"div.product-card",
			"[data-nm-id]",
			"div[class*='tile-root']",
			"article[class*='tile-root']",
			"div[class*='widget-search-result'] div[class*='tile']",
			"article[class*='tile']",
			"div[class*='card']",
		},
		NameSelectors: []string{
			".product-card__name span",
			".product-card__name",
			".goods-name",
			"a[class*='title']",
			"span[class*='title']",
			"div[class*='title']",
			"a[class*='name']",
			"span[class*='name']",
			"[class*='tile-title']",
			"[class*='card-title']",
			"h3", "h4", "h5",
		},
		PriceSelectors: []string{
			".price__lower-price",
			".price-block__final-price",
			".j-final-price",
			"span[class*='price']",
			"div[class*='price']",
			"span[class*='cost']",
			"b[class*='price']",
			"strong[class*='price']",
			"[class*='currency']",
		},
		RatingSelectors: []string{
			".product-card__rating",
			"[data-rating]",
			".rating",
			".stars",
		},
		ReviewSelectors: []string{
			".product-card__count",
			"[data-review-count]",
			".review-count",
		},
		BucketBreakpoints: []int{15000, 25000, 40000},
		ModelCodePatterns: []string{
			`\b\d{4}-\d{2}\b`,
			`\b\d{3}-\d{2}\b`,
			`\b\d{4}-\d{1}\b`,
			`\b\d{3}-\d{1}\b`,
		},
	}
}
