// Package search implements query composition, paginated execution against
// the catalog store, and the approximate-match fallback path.
package search

import (
	"regexp"
	"strings"

	"mediabot/internal/domain"
	"mediabot/internal/filters"
)

// nameField is the record field every predicate matches against.
const nameField = "file_name"

// Composer turns free text plus optional filters into a store-level
// predicate. Pure: no I/O, no side effects.
type Composer struct {
	catalog *filters.Catalog
}

func NewComposer(catalog *filters.Catalog) *Composer {
	return &Composer{catalog: catalog}
}

// Compose builds the predicate. Every present part becomes one
// case-insensitive regex clause over the display name; parts are combined
// with logical AND. User input is always escaped first: the predicate
// engine must never interpret a query as a pattern language.
func (c *Composer) Compose(query string, f domain.SearchFilters) domain.Predicate {
	var clauses []domain.Predicate

	if term := strings.TrimSpace(query); term != "" {
		clauses = append(clauses, nameRegex(regexp.QuoteMeta(term)))
	}
	if f.Language.Set {
		clauses = append(clauses, nameRegex(c.languagePattern(f.Language.Value)))
	}
	if f.Year.Set {
		clauses = append(clauses, nameRegex(wholeWord(regexp.QuoteMeta(f.Year.Value))))
	}
	if f.Quality.Set {
		clauses = append(clauses, nameRegex(regexp.QuoteMeta(f.Quality.Value)))
	}

	switch len(clauses) {
	case 0:
		return domain.Predicate{}
	case 1:
		return clauses[0]
	default:
		parts := make([]any, len(clauses))
		for i, cl := range clauses {
			parts[i] = cl
		}
		return domain.Predicate{"$and": parts}
	}
}

// languagePattern matches either the enumerated language's full name or
// its 2-letter code as a whole word. The multi-audio sentinel expands to
// an alternation over the catalog's keyword variants instead.
func (c *Composer) languagePattern(code string) string {
	if strings.EqualFold(code, domain.LangMulti) {
		variants := make([]string, len(c.catalog.MultiAudio))
		for i, v := range c.catalog.MultiAudio {
			variants[i] = regexp.QuoteMeta(v)
		}
		return wholeWord(strings.Join(variants, "|"))
	}
	lang, ok := c.catalog.Language(code)
	if !ok {
		// Unknown code: keep it as a literal whole-word match rather than
		// silently matching everything.
		return wholeWord(regexp.QuoteMeta(code))
	}
	return wholeWord(regexp.QuoteMeta(lang.Name) + "|" + regexp.QuoteMeta(lang.Code))
}

func wholeWord(alternation string) string {
	return `\b(?:` + alternation + `)\b`
}

func nameRegex(pattern string) domain.Predicate {
	return domain.Predicate{
		nameField: map[string]any{"$regex": pattern, "$options": "i"},
	}
}
