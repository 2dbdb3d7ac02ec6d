package channel

import (
	"strings"
	"testing"
	"unicode/utf8"

	"mediabot/internal/domain"
	"mediabot/internal/filters"
	"mediabot/internal/token"
)

func TestCallbackDataRoundTrip(t *testing.T) {
	cases := []struct {
		action, payload string
	}{
		{actNav, "2:HI:2021:720p"},
		{actGet, "AgADBAAD"},
		{actMenu, menuLang + ":0:-:-:-"},
		{actClose, ""},
		{actNoop, ""},
	}
	for _, tc := range cases {
		data := callbackData(tc.action, tc.payload)
		action, payload := parseCallback(data)
		if action != tc.action {
			t.Errorf("callbackData(%q, %q): action = %q", tc.action, tc.payload, action)
		}
		if payload != tc.payload {
			t.Errorf("callbackData(%q, %q): payload = %q", tc.action, tc.payload, payload)
		}
	}
}

func TestCallbackDataStaysUnderTelegramLimit(t *testing.T) {
	// Worst realistic case: a quality selection carrying a fully
	// populated compact token.
	state := domain.SearchState{Page: 9999}
	state.Filters.Language = domain.Filter(domain.LangMulti)
	state.Filters.Year = domain.Filter("2021")
	state.Filters.Quality = domain.Filter("WEB-DL")
	data := callbackData(actQual, "1080p:"+token.EncodeCompact(state))
	if len(data) > 64 {
		t.Fatalf("callback data %q is %d bytes, over the 64-byte limit", data, len(data))
	}
}

func TestBuildRouterCoversEveryAction(t *testing.T) {
	b := &Bot{filtersCat: filters.Default()}
	router := b.buildRouter()
	for _, action := range []string{actNav, actGet, actMenu, actLang, actYear, actQual, actClear, actClose, actNoop} {
		if _, ok := router[action]; !ok {
			t.Errorf("router has no handler for %q", action)
		}
	}
	if _, ok := router["bogus"]; ok {
		t.Error("router resolves an action it never emits")
	}
}

func TestParseCallbackMalformed(t *testing.T) {
	action, payload := parseCallback("justanaction")
	if action != "justanaction" || payload != "" {
		t.Errorf("parseCallback without separator = %q, %q", action, payload)
	}
	action, payload = parseCallback("lang:EN:1:-:-:-")
	if action != actLang || payload != "EN:1:-:-:-" {
		t.Errorf("parseCallback splits on the first separator only, got %q, %q", action, payload)
	}
}

func TestSplitMessage(t *testing.T) {
	if got := splitMessage("short", 100); len(got) != 1 || got[0] != "short" {
		t.Errorf("short text was split: %q", got)
	}

	lines := strings.TrimSuffix(strings.Repeat("0123456789\n", 30), "\n")
	chunks := splitMessage(lines, 100)
	if len(chunks) < 3 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 100 {
			t.Errorf("chunk %d is %d bytes, over the limit", i, len(c))
		}
		if strings.HasPrefix(c, "\n") || strings.HasSuffix(c, "\n") {
			t.Errorf("chunk %d keeps a boundary newline: %q", i, c)
		}
	}
	if strings.Replace(strings.Join(chunks, "\n"), "\n", "", -1) != strings.Replace(lines, "\n", "", -1) {
		t.Error("chunks lost content")
	}

	unbroken := strings.Repeat("x", 250)
	for i, c := range splitMessage(unbroken, 100) {
		if len(c) > 100 {
			t.Errorf("unbroken chunk %d is %d bytes", i, len(c))
		}
	}
}

func TestSplitMessageKeepsRunesWhole(t *testing.T) {
	// Three-byte runes against a limit that is not a multiple of three:
	// a naive byte cut would land mid-rune.
	text := strings.Repeat("日本語", 40)
	chunks := splitMessage(text, 100)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	var rebuilt strings.Builder
	for i, c := range chunks {
		if len(c) > 100 {
			t.Errorf("chunk %d is %d bytes, over the limit", i, len(c))
		}
		if !utf8.ValidString(c) {
			t.Errorf("chunk %d is not valid UTF-8: %q", i, c)
		}
		rebuilt.WriteString(c)
	}
	if rebuilt.String() != text {
		t.Error("chunks lost content")
	}
}
