package token

import (
	"encoding/base64"
	"errors"
	"testing"
)

func rawURL(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func TestBatchRangeRoundTrip(t *testing.T) {
	cases := []BatchRange{
		{Source: -1001234567890, Start: 10, End: 110}, // span exactly 100
		{Source: -1001234567890, Start: 5, End: 5},    // single item
		{Source: 42, Start: 0, End: 3},
	}
	for _, b := range cases {
		payload, err := EncodeBatchRange(b)
		if err != nil {
			t.Fatalf("encode(%+v): %v", b, err)
		}
		got, err := DecodeBatchRange(payload)
		if err != nil {
			t.Fatalf("decode(%q): %v", payload, err)
		}
		if got != b {
			t.Fatalf("round trip: got %+v, want %+v", got, b)
		}
	}
}

func TestEncodeBatchRange_RejectsOversizedSpan(t *testing.T) {
	// Span of 150 exceeds the 100-item bound.
	_, err := EncodeBatchRange(BatchRange{Source: 42, Start: 100, End: 250})
	if !errors.Is(err, ErrRangeTooLarge) {
		t.Fatalf("err = %v, want ErrRangeTooLarge", err)
	}
}

func TestEncodeBatchRange_NormalizesReversedRange(t *testing.T) {
	payload, err := EncodeBatchRange(BatchRange{Source: 42, Start: 30, End: 10})
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeBatchRange(payload)
	if err != nil {
		t.Fatal(err)
	}
	if got.Start != 10 || got.End != 30 {
		t.Fatalf("got %+v, want start=10 end=30", got)
	}

	// Reversed and oversized is still oversized after normalization.
	if _, err := EncodeBatchRange(BatchRange{Source: 42, Start: 500, End: 1}); !errors.Is(err, ErrRangeTooLarge) {
		t.Fatalf("err = %v, want ErrRangeTooLarge", err)
	}
}

func TestDecodeBatchRange_Malformed(t *testing.T) {
	cases := []string{
		"",
		KindSearch + "abcd",                  // search payload fed to batch decoder
		KindBatch + "!!!",                    // not base64
		KindBatch + rawURL(`{}`),             // missing fields
		KindBatch + rawURL(`{"source":"x"}`), // non-numeric id
	}
	for _, payload := range cases {
		if _, err := DecodeBatchRange(payload); !errors.Is(err, ErrDecode) {
			t.Fatalf("decode(%q): err = %v, want ErrDecode", payload, err)
		}
	}
}

func TestDecodeBatchRange_OversizedPayloadRejected(t *testing.T) {
	// Hand-crafted payload bypassing encode-time validation.
	payload := KindBatch + rawURL(`{"source":42,"start":0,"end":5000}`)
	if _, err := DecodeBatchRange(payload); !errors.Is(err, ErrRangeTooLarge) {
		t.Fatalf("err = %v, want ErrRangeTooLarge", err)
	}
}
