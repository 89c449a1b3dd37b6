package repository

import "errors"

// Sentinel kinds for ledger storage errors.
var (
	ErrWriteLedger = errors.New("write ledger failed")
	ErrRenderChart = errors.New("render chart failed")
)
