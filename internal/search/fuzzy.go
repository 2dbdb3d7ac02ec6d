package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"mediabot/internal/domain"
)

// Matcher ranks catalog records by approximate similarity to a query.
// Used only when exact substring search comes back empty.
//
// Threshold is a distance on a 0..1 scale (0 = identical, lower threshold
// = stricter). The default 0.4 and the 1000-record working set are
// empirically chosen values carried over as configuration, not tuned here.
type Matcher struct {
	Threshold float64
}

func NewMatcher(threshold float64) *Matcher {
	return &Matcher{Threshold: threshold}
}

// Rank returns the records whose display name is within the threshold,
// closest first. Ties keep the input (recency) order.
func (m *Matcher) Rank(query string, records []domain.ContentRecord) []domain.ContentRecord {
	qTokens := tokenize(query)
	if len(qTokens) == 0 {
		return nil
	}

	type scored struct {
		rec  domain.ContentRecord
		dist float64
		pos  int
	}
	var matches []scored
	for i, rec := range records {
		d := m.distance(qTokens, tokenize(rec.Name))
		if d <= m.Threshold {
			matches = append(matches, scored{rec: rec, dist: d, pos: i})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].dist != matches[j].dist {
			return matches[i].dist < matches[j].dist
		}
		return matches[i].pos < matches[j].pos
	})

	out := make([]domain.ContentRecord, len(matches))
	for i, s := range matches {
		out[i] = s.rec
	}
	return out
}

// distance is the smaller of the whole-title distance and the best
// same-length token window distance. The window pass lets a partial title
// ("inception") sit close to a full release name
// ("Inception 2010 1080p BluRay") without the noise tokens counting
// against it.
func (m *Matcher) distance(query, candidate []string) float64 {
	if len(candidate) == 0 {
		return 1
	}
	best := normalizedDistance(strings.Join(query, " "), strings.Join(candidate, " "))
	if len(candidate) > len(query) {
		q := strings.Join(query, " ")
		for i := 0; i+len(query) <= len(candidate); i++ {
			w := strings.Join(candidate[i:i+len(query)], " ")
			if d := normalizedDistance(q, w); d < best {
				best = d
			}
		}
	}
	return best
}

// normalizedDistance is edit distance divided by the longer length.
func normalizedDistance(a, b string) float64 {
	if a == b {
		return 0
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(longest)
}

// tokenize lowercases and splits on anything that is not a letter or
// digit, so punctuation and separator styles in release names do not
// affect the distance.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
