package scanner

import "errors"

// ErrMalformedRecord is logged, never returned to a caller processing a
// stream: one bad record must not abort the rest of the batch.
var ErrMalformedRecord = errors.New("scanner: malformed record")

// ErrUnknownTag is returned by decodeRecord for a tag Process doesn't
// recognize; Process treats this the same as any other malformed record.
var ErrUnknownTag = errors.New("scanner: unknown event tag")
