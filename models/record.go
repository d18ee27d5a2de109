package models

import (
	"strconv"
	"strings"
	"time"
)

// Source identifies the marketplace a record was collected from.
type Source string

const (
	SourceWildberries  Source = "Wildberries"
	SourceOzon         Source = "Ozon"
	SourceYandexMarket Source = "Yandex Market"
)

// KnownSources lists every marketplace the collector understands.
var KnownSources = []Source{SourceWildberries, SourceOzon, SourceYandexMarket}

// ParseSource maps a user-supplied identifier to a Source.
// Matching is case-insensitive and tolerates the space-free spelling
// ("yandexmarket").
func ParseSource(s string) (Source, bool) {
	normalized := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	for _, src := range KnownSources {
		if strings.EqualFold(strings.ReplaceAll(string(src), " ", ""), normalized) {
			return src, true
		}
	}
	return "", false
}

// ProductRecord is the canonical unit of output: one in-class listing with a
// successfully extracted name and plausible price. Candidates that fail either
// extraction never become records.
type ProductRecord struct {
	// Name is the listing title, optionally prefixed as "Brand / Title".
	Name string `json:"name"`

	// Price is the integer price in whole currency units. Always inside the
	// category's plausibility band.
	Price int `json:"price"`

	// Source is the marketplace the record came from.
	Source Source `json:"source"`

	// Category is the free-text label of the product class being collected.
	Category string `json:"category"`

	// Rating is the 0.0-5.0 star rating, 0 when not found.
	Rating float64 `json:"rating,omitempty"`

	// ReviewCount is the number of reviews, 0 when not found.
	ReviewCount int `json:"review_count,omitempty"`

	// URL is the product page URL when one could be resolved.
	URL string `json:"url,omitempty"`

	// CollectedAt is the time the record was assembled.
	CollectedAt time.Time `json:"collected_at"`
}

// identityKeyNameLen bounds the name part of the identity key so that
// marketplaces padding titles with long suffixes still collide.
const identityKeyNameLen = 100

// IdentityKey is the intra-run duplicate key: the name truncated to
// identityKeyNameLen runes joined with the price. Cheap to compute and stable
// across repeated samples of the same card.
func (r *ProductRecord) IdentityKey() string {
	name := r.Name
	if runes := []rune(name); len(runes) > identityKeyNameLen {
		name = string(runes[:identityKeyNameLen])
	}
	return name + "_" + strconv.Itoa(r.Price)
}

// RunStats summarises one collection run for the caller.
type RunStats struct {
	StartTime       time.Time      `json:"start_time"`
	EndTime         time.Time      `json:"end_time"`
	Stimuli         int            `json:"stimuli"`
	Candidates      int            `json:"candidates"`
	Records         int            `json:"records"`
	Duplicates      int            `json:"duplicates"`
	Rejected        int            `json:"rejected"`
	Misses          map[string]int `json:"misses,omitempty"`
	Stalled         bool           `json:"stalled"`
	SamplerFault    string         `json:"sampler_fault,omitempty"`
	PersistDegraded bool           `json:"persist_degraded,omitempty"`
}
