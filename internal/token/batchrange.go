package token

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// BatchRange addresses a contiguous run of items in an external archive
// chat: messages Start..End (inclusive) of Source.
type BatchRange struct {
	Source int64 `json:"source"`
	Start  int64 `json:"start"`
	End    int64 `json:"end"`
}

// Span returns the number of steps between start and end.
func (b BatchRange) Span() int64 { return b.End - b.Start }

// EncodeBatchRange validates and serializes a batch range. Start and end
// are normalized (swapped if reversed), then the 0 <= end-start <= 100
// bound is enforced before any payload is produced.
func EncodeBatchRange(b BatchRange) (string, error) {
	if b.Start > b.End {
		b.Start, b.End = b.End, b.Start
	}
	if b.Start < 0 || b.Source == 0 {
		return "", fmt.Errorf("%w: invalid source or ids", ErrDecode)
	}
	if b.Span() > MaxBatchSpan {
		return "", fmt.Errorf("%w: span %d > %d", ErrRangeTooLarge, b.Span(), MaxBatchSpan)
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return "", err
	}
	return KindBatch + base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeBatchRange reverses EncodeBatchRange. Missing or non-numeric ids
// and any malformed layer are ErrDecode, never a partial result. The span
// bound is re-checked so a hand-crafted payload cannot request an
// unbounded delivery batch.
func DecodeBatchRange(payload string) (BatchRange, error) {
	body, ok := strings.CutPrefix(payload, KindBatch)
	if !ok {
		return BatchRange{}, fmt.Errorf("%w: not a batch link", ErrDecode)
	}
	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return BatchRange{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	var b BatchRange
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		return BatchRange{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if b.Source == 0 || b.Start < 0 || b.End < b.Start {
		return BatchRange{}, fmt.Errorf("%w: invalid range", ErrDecode)
	}
	if b.Span() > MaxBatchSpan {
		return BatchRange{}, fmt.Errorf("%w: span %d > %d", ErrRangeTooLarge, b.Span(), MaxBatchSpan)
	}
	return b, nil
}
