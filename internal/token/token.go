// Package token implements the stateless session encodings: the compact
// token embedded in inline-keyboard buttons, the shareable deep-link
// payload, and the batch-range payload for contiguous archive delivery.
//
// The service keeps no session table, so every navigational state must be
// reconstructible from the token alone. Button payloads are hard-capped by
// the transport (64 bytes of callback data), hence the fixed four-field
// colon form; deep links are base64url so they survive inside a URL.
package token

import "errors"

// ErrDecode is returned for any malformed or truncated token or payload.
// Callers surface it as "state lost, redo the action"; it never crashes.
var ErrDecode = errors.New("malformed state token")

// ErrRangeTooLarge rejects batch-range requests exceeding MaxBatchSpan
// before any payload is produced.
var ErrRangeTooLarge = errors.New("batch range exceeds limit")

// MaxBatchSpan bounds end-start for a batch range payload.
const MaxBatchSpan = 100

// placeholder encodes an absent filter field. A single character keeps the
// field count fixed so parsing never has to guess.
const placeholder = "-"

// Deep-link kind markers, prepended to the base64 body of a /start payload
// so the handler can route on a fixed prefix.
const (
	KindSearch = "s"
	KindBatch  = "r"
)
