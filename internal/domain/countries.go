package domain

import (
	"fmt"
	"sort"
)

// Normalizer maps raw country labels to canonical names. Labels it does not
// know pass through unchanged. The zero value maps nothing.
type Normalizer struct {
	aliases map[string]string
}

// NewNormalizer builds a Normalizer from raw->canonical pairs. It rejects
// tables where a canonical name is itself an alias for a different name,
// because applying such a table twice would not give the same result as
// applying it once.
func NewNormalizer(aliases map[string]string) (Normalizer, error) {
	m := make(map[string]string, len(aliases))
	for raw, canonical := range aliases {
		m[raw] = canonical
	}
	for _, raw := range sortedKeys(m) {
		canonical := m[raw]
		if next, ok := m[canonical]; ok && next != canonical {
			return Normalizer{}, fmt.Errorf("country alias %q -> %q chains to %q", raw, canonical, next)
		}
	}
	return Normalizer{aliases: m}, nil
}

// MustNormalizer is like NewNormalizer but panics on an invalid table.
func MustNormalizer(aliases map[string]string) Normalizer {
	n, err := NewNormalizer(aliases)
	if err != nil {
		panic(err)
	}
	return n
}

// Canonical returns the canonical name for raw.
func (n Normalizer) Canonical(raw string) string {
	if c, ok := n.aliases[raw]; ok {
		return c
	}
	return raw
}

// With returns a new Normalizer with extra merged over the receiver's table.
func (n Normalizer) With(extra map[string]string) (Normalizer, error) {
	merged := make(map[string]string, len(n.aliases)+len(extra))
	for k, v := range n.aliases {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return NewNormalizer(merged)
}

// Len returns the number of known aliases.
func (n Normalizer) Len() int { return len(n.aliases) }

// DefaultCountryAliases is the JHU label -> canonical name table.
// "Macedonia" maps forward to "North Macedonia"; the reverse entry would make
// the table cyclic.
func DefaultCountryAliases() map[string]string {
	return map[string]string{
		// America
		"US":  "United States",
		"USA": "United States",

		// Asia
		"Taiwan*":            "Taiwan",
		"Mainland China":     "China",
		"Burma":              "Myanmar",
		"East Timor":         "Timor-Leste",
		"Korea, South":       "South Korea",
		"Korea, North":       "North Korea",
		"West Bank and Gaza": "Palestine",
		" Azerbaijan":        "Azerbaijan",

		// Africa
		"Cape Verde":          "Cabo Verde",
		"Congo (Brazzaville)": "Republic of the Congo",
		"Congo (Kinshasa)":    "Democratic Republic of the Congo",
		"Swaziland":           "Eswatini",
		"Gambia, The":         "Gambia",
		"The Gambia":          "Gambia",

		// Europe
		"Czechia":   "Czech Republic",
		"Holy See":  "Vatican City",
		"Macedonia": "North Macedonia",
		"UK":        "United Kingdom",

		// Oceania / Caribbean
		"Bahamas, The": "Bahamas",
		"The Bahamas":  "Bahamas",
	}
}

// DefaultNormalizer returns a Normalizer over DefaultCountryAliases.
func DefaultNormalizer() Normalizer {
	return MustNormalizer(DefaultCountryAliases())
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
