package browser

import (
	"fmt"
	"net/url"

	"github.com/use-agent/pricepivot/models"
)

// SearchURL builds the catalog search URL for a marketplace and query.
func SearchURL(source models.Source, query string) (string, error) {
	q := url.QueryEscape(query)
	switch source {
	case models.SourceWildberries:
		return "https://www.wildberries.ru/catalog/0/search.aspx?search=" + q, nil
	case models.SourceOzon:
		return "https://www.ozon.ru/search/?text=" + q + "&from_global=true", nil
	case models.SourceYandexMarket:
		return "https://market.yandex.ru/search?text=" + q + "&onstock=1", nil
	default:
		return "", fmt.Errorf("unknown source %q", source)
	}
}
