package dedup

import (
	"hash/fnv"
	"math/bits"
	"regexp"
	"strings"
)

var tokenSplitRe = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Fingerprint computes a 64-bit SimHash over a product name. Names are
// lowercased and split on non-alphanumeric runes first, so "ABC Model-X 12kg"
// and "abc model x 12кг-variant" tokenize comparably across marketplaces.
func Fingerprint(name string) uint64 {
	tokens := tokenSplitRe.Split(strings.ToLower(name), -1)

	var vector [64]int
	seen := 0
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		seen++
		h := fnv.New64a()
		h.Write([]byte(tok))
		hash := h.Sum64()

		for i := 0; i < 64; i++ {
			if hash&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}
	if seen == 0 {
		return 0
	}

	var fingerprint uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fingerprint |= 1 << uint(i)
		}
	}
	return fingerprint
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}
