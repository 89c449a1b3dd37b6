package service

import (
	"time"

	repository "github.com/okian/fantaledger/internal/adapters/repository"
	"github.com/okian/fantaledger/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTargets restricts runs to the named teams.
func WithTargets(targets []string) Option {
	return func(s *Service) {
		s.targets = targets
	}
}

// WithDryRun reconciles without writing the ledger.
func WithDryRun(dryRun bool) Option {
	return func(s *Service) {
		s.dryRun = dryRun
	}
}

// WithChartPath writes the progression chart to path after each persisted run.
func WithChartPath(path string) Option {
	return func(s *Service) {
		s.chartPath = path
	}
}

// WithChartRenderer replaces the chart renderer.
func WithChartRenderer(render repository.ChartRenderer) Option {
	return func(s *Service) {
		if render != nil {
			s.render = render
		}
	}
}

// WithMetricsTextfile exports run metrics to path at the end of each run.
func WithMetricsTextfile(path string) Option {
	return func(s *Service) {
		s.metricsTextfile = path
	}
}

// WithClock sets the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}
