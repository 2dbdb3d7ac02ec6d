package token

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"mediabot/internal/domain"
)

// SearchLink is the self-contained "repeat this exact filtered search"
// deep-link payload.
type SearchLink struct {
	Query string
	State domain.SearchState
}

// EncodeSearchLink serializes a search deep link. The query is
// percent-encoded to protect the pipe delimiter, then the whole payload is
// base64url-encoded so it is safe in a URL path segment:
//
//	base64url( <pct-query>|<page>|<lang|->|<year|->|<quality|-> )
func EncodeSearchLink(l SearchLink) string {
	raw := strings.Join([]string{
		url.QueryEscape(l.Query),
		fmt.Sprintf("%d", l.State.Page),
		fieldOrPlaceholder(l.State.Filters.Language),
		fieldOrPlaceholder(l.State.Filters.Year),
		fieldOrPlaceholder(l.State.Filters.Quality),
	}, "|")
	return KindSearch + base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeSearchLink reverses EncodeSearchLink. The payload must carry the
// KindSearch marker; any malformed layer is ErrDecode.
func DecodeSearchLink(payload string) (SearchLink, error) {
	body, ok := strings.CutPrefix(payload, KindSearch)
	if !ok {
		return SearchLink{}, fmt.Errorf("%w: not a search link", ErrDecode)
	}
	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return SearchLink{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	parts := strings.Split(string(raw), "|")
	if len(parts) != 5 {
		return SearchLink{}, fmt.Errorf("%w: %d fields", ErrDecode, len(parts))
	}
	query, err := url.QueryUnescape(parts[0])
	if err != nil {
		return SearchLink{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	state, err := DecodeCompact(strings.Join(parts[1:], ":"))
	if err != nil {
		return SearchLink{}, err
	}
	return SearchLink{Query: query, State: state}, nil
}
