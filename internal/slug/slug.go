// Package slug computes URL-safe unique identifiers for catalog entities.
//
// Uniqueness follows the prefix-scan scheme: existing values that start with
// the candidate are folded into one numbering sequence and the next free
// numeric suffix is taken. The match is a literal prefix match, so "foo bar"
// occupies a suffix slot for base "foo".
package slug

import (
	"regexp"
	"strconv"

	gosimple "github.com/gosimple/slug"
)

// suffix matches a literal hyphen followed by digits at the end of a value.
var suffix = regexp.MustCompile(`-(\d+)$`)

// Normalize converts a display name into a URL-safe slug: lowercased,
// whitespace to hyphens, punctuation stripped, and non-Latin scripts
// transliterated to a Latin phonetic form ("你好" becomes "ni-hao").
func Normalize(name string) string {
	return gosimple.Make(name)
}

// Next picks the slug for base given the stored values that textually start
// with base (exact match included). With no occupants the base itself is
// used. Otherwise every occupant's trailing numeric suffix is scanned — a
// value without one counts as zero — and base-(max+1) is returned.
func Next(base string, occupied []string) string {
	if len(occupied) == 0 {
		return base
	}
	max := 0
	for _, v := range occupied {
		n := suffixValue(v)
		if n > max {
			max = n
		}
	}
	return base + "-" + strconv.Itoa(max+1)
}

func suffixValue(v string) int {
	m := suffix.FindStringSubmatch(v)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
