package snapshot

import "errors"

// Sentinel kinds for score parsing. Reduce swallows both: a malformed row is
// dropped, never surfaced.
var (
	ErrEmptyScore   = errors.New("empty score text")
	ErrInvalidScore = errors.New("invalid score text")
)
