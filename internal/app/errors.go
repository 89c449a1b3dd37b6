package service

import "errors"

// ErrNoData reports that no source produced a usable ranking row.
var ErrNoData = errors.New("no data extracted")
