package refine

import "errors"

// ErrMalformedReply indicates a generation reply could not be decoded into
// the structure its policy requires.
var ErrMalformedReply = errors.New("malformed generation reply")
