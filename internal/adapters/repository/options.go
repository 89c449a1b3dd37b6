package repository

import (
	"time"

	"github.com/okian/fantaledger/internal/domain/model"
	"github.com/okian/fantaledger/pkg/logger"
)

// ChartRenderer draws the ledger as a PNG image.
type ChartRenderer func(model.Ledger) ([]byte, error)

// Option applies a configuration option to the WorkbookStore.
type Option func(*WorkbookStore)

// WithLogger sets the logger used for load warnings.
func WithLogger(l logger.Logger) Option {
	return func(s *WorkbookStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithChart embeds the rendered chart as its own sheet on Save.
func WithChart(render ChartRenderer) Option {
	return func(s *WorkbookStore) {
		s.chart = render
	}
}

// WithLocation sets the time zone timestamps are written and read in.
func WithLocation(loc *time.Location) Option {
	return func(s *WorkbookStore) {
		if loc != nil {
			s.loc = loc
		}
	}
}
