package channel

import (
	"strings"
	"testing"

	"mediabot/internal/domain"
	"mediabot/internal/filters"
	"mediabot/internal/token"
)

func testBot() *Bot {
	return &Bot{
		username:   "mediabot_test",
		filtersCat: filters.Default(),
	}
}

func stateWith(page int, lang, year, qual string) domain.SearchState {
	s := domain.SearchState{Page: page}
	if lang != "" {
		s.Filters.Language = domain.Filter(lang)
	}
	if year != "" {
		s.Filters.Year = domain.Filter(year)
	}
	if qual != "" {
		s.Filters.Quality = domain.Filter(qual)
	}
	return s
}

func TestResultsKeyboardNavTokensRoundTrip(t *testing.T) {
	b := testBot()
	state := stateWith(2, "HI", "2021", "720p")
	res := domain.SearchResult{
		Records: []domain.ContentRecord{{Ref: "r1", Name: "Movie", Size: 1 << 30}},
		HasPrev: true,
		HasNext: true,
	}
	markup := b.resultsKeyboard("movie", state, res)

	var prevTok, nextTok string
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData == nil {
				continue
			}
			action, payload := parseCallback(*btn.CallbackData)
			if action != actNav {
				continue
			}
			dec, err := token.DecodeCompact(payload)
			if err != nil {
				t.Fatalf("nav token %q does not decode: %v", payload, err)
			}
			switch dec.Page {
			case 1:
				prevTok = payload
			case 3:
				nextTok = payload
			}
			if got := dec.Filters.Language.Value; got != "HI" {
				t.Errorf("nav token dropped language, got %q", got)
			}
		}
	}
	if prevTok == "" || nextTok == "" {
		t.Fatalf("expected both prev and next nav buttons, got prev=%q next=%q", prevTok, nextTok)
	}
}

func TestResultsKeyboardClearRowOnlyWithFilters(t *testing.T) {
	b := testBot()
	res := domain.SearchResult{}

	hasClear := func(s domain.SearchState) bool {
		for _, row := range b.resultsKeyboard("q", s, res).InlineKeyboard {
			for _, btn := range row {
				if btn.CallbackData != nil {
					if action, _ := parseCallback(*btn.CallbackData); action == actClear {
						return true
					}
				}
			}
		}
		return false
	}

	if hasClear(emptyState()) {
		t.Error("clear row present with no filters set")
	}
	if !hasClear(stateWith(0, "EN", "", "")) {
		t.Error("clear row missing with a filter set")
	}
}

func TestResultsKeyboardShareLink(t *testing.T) {
	b := testBot()
	state := stateWith(1, "EN", "", "1080p")
	markup := b.resultsKeyboard("dune part two", state, domain.SearchResult{})

	var shareURL string
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			if btn.URL != nil {
				shareURL = *btn.URL
			}
		}
	}
	if shareURL == "" {
		t.Fatal("no share button for a non-empty query")
	}
	payload, ok := strings.CutPrefix(shareURL, "https://t.me/mediabot_test?start=")
	if !ok {
		t.Fatalf("share URL %q has the wrong shape", shareURL)
	}
	link, err := token.DecodeSearchLink(payload)
	if err != nil {
		t.Fatalf("share payload does not decode: %v", err)
	}
	if link.Query != "dune part two" {
		t.Errorf("share link query = %q", link.Query)
	}
	if link.State.Page != 1 || link.State.Filters.Quality.Value != "1080p" {
		t.Errorf("share link state = %+v", link.State)
	}
}

func TestPickerKeyboardChoicesDecode(t *testing.T) {
	b := testBot()
	tok := token.EncodeCompact(emptyState())

	markup := b.pickerKeyboard(menuLang, tok)
	sawMulti := false
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData == nil {
				continue
			}
			action, payload := parseCallback(*btn.CallbackData)
			if action == actNav {
				continue // back button
			}
			if action != actLang {
				t.Fatalf("language picker emitted action %q", action)
			}
			code, rest, _ := strings.Cut(payload, ":")
			if _, ok := b.filtersCat.Language(code); !ok {
				t.Errorf("picker offers unknown language %q", code)
			}
			if code == domain.LangMulti {
				sawMulti = true
			}
			if _, err := token.DecodeCompact(rest); err != nil {
				t.Errorf("picker payload carries a broken token: %v", err)
			}
		}
	}
	if !sawMulti {
		t.Error("language picker is missing the multi-audio choice")
	}
}

func TestFilterSummary(t *testing.T) {
	if got := filterSummary(domain.SearchFilters{}); got != "" {
		t.Errorf("empty filters summary = %q", got)
	}
	s := stateWith(0, "HI", "2021", "720p")
	got := filterSummary(s.Filters)
	for _, want := range []string{"HI", "2021", "720p"} {
		if !strings.Contains(got, want) {
			t.Errorf("summary %q is missing %q", got, want)
		}
	}
}

func TestTruncateLabel(t *testing.T) {
	short := "Movie.2021.720p.mkv"
	if truncateLabel(short) != short {
		t.Errorf("short label was modified")
	}
	long := strings.Repeat("x", 200)
	got := truncateLabel(long)
	if r := []rune(got); len(r) != 60 {
		t.Errorf("truncated label is %d runes", len(r))
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncated label %q has no ellipsis", got)
	}
}

func TestSizeString(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 << 20, "3.0 MB"},
		{1536 << 20, "1.5 GB"},
	}
	for _, tc := range cases {
		if got := sizeString(tc.n); got != tc.want {
			t.Errorf("sizeString(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}
