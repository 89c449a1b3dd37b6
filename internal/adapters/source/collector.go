package source

import (
	"context"
	"errors"

	"github.com/okian/fantaledger/internal/domain/model"
	"github.com/okian/fantaledger/pkg/logger"
	"github.com/okian/fantaledger/pkg/metrics"
)

// Fetcher retrieves the raw body of a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Collector gathers observations from every configured source.
type Collector struct {
	fetcher Fetcher
	sources []string
	logger  logger.Logger
}

// NewCollector creates a Collector over sources.
func NewCollector(f Fetcher, sources []string, l logger.Logger) *Collector {
	if l == nil {
		l = logger.Discard()
	}
	return &Collector{fetcher: f, sources: sources, logger: l}
}

// Collect fetches and parses every source in order. A source that fails is
// logged and skipped; only cancellation of ctx is returned as an error.
func (c *Collector) Collect(ctx context.Context) ([]model.Observation, error) {
	var all []model.Observation
	for _, src := range c.sources {
		body, err := c.fetcher.Fetch(ctx, src)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			metrics.RecordError("source", errorType(err))
			c.logger.Error(ctx, "source skipped", logger.String("url", src), logger.Error(err))
			continue
		}

		rows, err := ParseRankings(body, src)
		if err != nil {
			metrics.RecordError("source", "parse")
			c.logger.Error(ctx, "source skipped", logger.String("url", src), logger.Error(err))
			continue
		}
		if len(rows) == 0 {
			c.logger.Warn(ctx, "no ranking rows found", logger.String("url", src))
		}

		metrics.RecordObservations(src, len(rows))
		c.logger.Info(ctx, "source parsed", logger.String("url", src), logger.Int("rows", len(rows)))
		all = append(all, rows...)
	}
	return all, nil
}

func errorType(err error) string {
	switch {
	case errors.Is(err, ErrHTTPStatus):
		return "http_status"
	case errors.Is(err, ErrEmptyBody):
		return "empty_body"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "transport"
	}
}
