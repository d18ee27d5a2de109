// Package dedup collapses near-duplicate product records after a collection
// run. The collector's cheap intra-run hash check catches exact repeats of
// the same card; this package handles the heavier cross-sample and
// cross-resume cases.
package dedup

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/use-agent/pricepivot/models"
)

var punctRe = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// NormalizedKey is the fuzzy identity key: lowercased name with punctuation
// stripped and whitespace collapsed, joined with the price.
func NormalizedKey(r *models.ProductRecord) string {
	name := strings.ToLower(r.Name)
	name = punctRe.ReplaceAllString(name, "")
	name = strings.Join(strings.Fields(name), " ")
	return name + "_" + strconv.Itoa(r.Price)
}

// Collapse deduplicates a record sequence in two passes, first-occurrence
// wins in both:
//
//  1. exact (name, price) equality,
//  2. normalized-name + price equality, catching case, whitespace and
//     punctuation variants of the same listing.
//
// The input is never mutated; output preserves first-seen order. Collapse is
// convergent: Collapse(Collapse(s)) == Collapse(s).
func Collapse(records []*models.ProductRecord) []*models.ProductRecord {
	exactSeen := make(map[string]struct{}, len(records))
	out := make([]*models.ProductRecord, 0, len(records))
	for _, rec := range records {
		key := rec.Name + "\x00" + strconv.Itoa(rec.Price)
		if _, dup := exactSeen[key]; dup {
			continue
		}
		exactSeen[key] = struct{}{}
		out = append(out, rec)
	}

	normSeen := make(map[string]struct{}, len(out))
	final := out[:0:len(out)]
	for _, rec := range out {
		key := NormalizedKey(rec)
		if _, dup := normSeen[key]; dup {
			continue
		}
		normSeen[key] = struct{}{}
		final = append(final, rec)
	}
	return final
}

// NearDuplicatePair flags two surviving records whose names fingerprint
// within the similarity threshold despite differing identity keys. These are
// reported for review, never collapsed automatically: same model at two
// prices is a legitimate pair of listings.
type NearDuplicatePair struct {
	A, B     *models.ProductRecord
	Distance int
}

// NearDuplicates scans a deduplicated sequence for name-level near
// duplicates using SimHash fingerprints.
func NearDuplicates(records []*models.ProductRecord, threshold int) []NearDuplicatePair {
	type fpRec struct {
		fp  uint64
		rec *models.ProductRecord
	}
	fps := make([]fpRec, 0, len(records))
	for _, rec := range records {
		fps = append(fps, fpRec{fp: Fingerprint(rec.Name), rec: rec})
	}

	var pairs []NearDuplicatePair
	for i := 0; i < len(fps); i++ {
		for j := i + 1; j < len(fps); j++ {
			if d := Distance(fps[i].fp, fps[j].fp); d <= threshold {
				pairs = append(pairs, NearDuplicatePair{
					A:        fps[i].rec,
					B:        fps[j].rec,
					Distance: d,
				})
			}
		}
	}
	return pairs
}
