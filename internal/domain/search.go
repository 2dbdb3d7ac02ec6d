package domain

// FilterField is an optional filter value with an explicit present/absent
// tag. The wire placeholder ("-") is a codec detail and never appears here.
type FilterField struct {
	Value string
	Set   bool
}

// Filter returns a present FilterField holding v.
func Filter(v string) FilterField {
	return FilterField{Value: v, Set: true}
}

// LangMulti is the language sentinel meaning "multi-audio release".
const LangMulti = "MULTI"

// SearchFilters refines a free-text search. Every field is optional.
type SearchFilters struct {
	Language FilterField // 2-letter code from the closed enumeration, or LangMulti
	Year     FilterField // 4-digit string
	Quality  FilterField // tag from the closed quality set
}

// Empty reports whether no filter is active.
func (f SearchFilters) Empty() bool {
	return !f.Language.Set && !f.Year.Set && !f.Quality.Set
}

// SearchState fully determines one result page. The query text travels
// out-of-band (attached to the triggering message), so it is not part of
// the compact encoding.
type SearchState struct {
	Page    int
	Filters SearchFilters
}

// Predicate is an opaque store-level filter produced by the composer and
// consumed by the catalog store. Shape follows the document-store query
// language (nested maps); an empty Predicate matches everything.
type Predicate map[string]any

// SearchResult is one page of matches.
type SearchResult struct {
	Records    []ContentRecord
	HasNext    bool
	HasPrev    bool
	IsFallback bool
}
