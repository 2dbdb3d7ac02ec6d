package token

import (
	"fmt"
	"strconv"
	"strings"

	"mediabot/internal/domain"
)

// EncodeCompact serializes a SearchState into the four-field colon token
// carried by pagination and filter buttons:
//
//	<page>:<lang|->:<year|->:<quality|->
func EncodeCompact(s domain.SearchState) string {
	return fmt.Sprintf("%d:%s:%s:%s",
		s.Page,
		fieldOrPlaceholder(s.Filters.Language),
		fieldOrPlaceholder(s.Filters.Year),
		fieldOrPlaceholder(s.Filters.Quality),
	)
}

// DecodeCompact parses a compact token. A token with the wrong field count
// is ErrDecode; an unparseable page number degrades to page 0 so a stale
// button still lands somewhere sensible.
func DecodeCompact(tok string) (domain.SearchState, error) {
	parts := strings.Split(tok, ":")
	if len(parts) != 4 {
		return domain.SearchState{}, fmt.Errorf("%w: %d fields", ErrDecode, len(parts))
	}
	page, err := strconv.Atoi(parts[0])
	if err != nil || page < 0 {
		page = 0
	}
	return domain.SearchState{
		Page: page,
		Filters: domain.SearchFilters{
			Language: parseField(parts[1]),
			Year:     parseField(parts[2]),
			Quality:  parseField(parts[3]),
		},
	}, nil
}

func fieldOrPlaceholder(f domain.FilterField) string {
	if !f.Set || f.Value == "" {
		return placeholder
	}
	return f.Value
}

func parseField(s string) domain.FilterField {
	if s == placeholder || s == "" {
		return domain.FilterField{}
	}
	return domain.Filter(s)
}
