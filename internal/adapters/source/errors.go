package source

import "errors"

// Sentinel kinds for source errors.
var (
	ErrHTTPStatus = errors.New("unexpected http status")
	ErrEmptyBody  = errors.New("empty response body")
	ErrParse      = errors.New("ranking page parse failed")
)
