// Package service runs one reconciliation of the standings ledger:
// collect observations, reduce them to a snapshot, reconcile the snapshot
// with the stored ledger and persist the result.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/fantaledger/internal/adapters/chart"
	repository "github.com/okian/fantaledger/internal/adapters/repository"
	"github.com/okian/fantaledger/internal/domain/model"
	"github.com/okian/fantaledger/internal/domain/reconcile"
	"github.com/okian/fantaledger/internal/domain/snapshot"
	"github.com/okian/fantaledger/internal/domain/types"
	"github.com/okian/fantaledger/internal/domain/views"
	"github.com/okian/fantaledger/pkg/logger"
	"github.com/okian/fantaledger/pkg/metrics"
)

// Collector gathers the raw observations of a run.
type Collector interface {
	Collect(ctx context.Context) ([]model.Observation, error)
}

// Status is the outcome of a run.
type Status string

// Run statuses.
const (
	StatusPersisted Status = "persisted" // the ledger changed and was written
	StatusUnchanged Status = "unchanged" // nothing changed; nothing written
	StatusNoTeams   Status = "no_teams"  // the target filter left no team
	StatusDryRun    Status = "dry_run"   // the ledger changed but writing was disabled
)

const statusFailed = "failed"

// Outcome describes a completed run.
type Outcome struct {
	RunID          string
	Status         Status
	RunAt          time.Time
	Observations   int
	Reduce         snapshot.ReduceStats
	MissingTargets []string
	NewRound       int // 0 when no round was created
	Stats          reconcile.Stats
	Ledger         model.Ledger
	Leader         *types.StandingsRow // nil when the ledger is empty
}

// Report holds the views of the stored ledger.
type Report struct {
	Ledger    model.Ledger
	Deltas    []types.RoundDelta
	Standings []types.StandingsRow
}

// Service runs reconciliations. Runs are serialized.
type Service struct {
	mu sync.Mutex

	collector Collector
	store     repository.Store

	targets         []string
	dryRun          bool
	chartPath       string
	render          repository.ChartRenderer
	metricsTextfile string
	clock           func() time.Time

	logger logger.Logger
}

// New constructs a Service over collector and store.
func New(collector Collector, store repository.Store, opts ...Option) *Service {
	s := &Service{
		collector: collector,
		store:     store,
		render:    func(l model.Ledger) ([]byte, error) { return chart.RenderProgression(l) },
		clock:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Discard()
	}
	return s
}

// Run performs one reconciliation. It returns ErrNoData when no source
// produced a usable row.
func (s *Service) Run(ctx context.Context) (out *Outcome, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runID := uuid.NewString()
	log := s.logger.With(logger.String("run_id", runID))
	started := s.clock()

	defer func() {
		status := statusFailed
		if err == nil {
			status = string(out.Status)
		} else {
			metrics.RecordError("service", errorType(err))
		}
		metrics.RecordRun(status, s.clock().Sub(started), s.clock())
		s.writeMetrics(ctx, log)
	}()

	log.Info(ctx, "run started", logger.Bool("dry_run", s.dryRun), logger.Int("targets", len(s.targets)))

	observations, err := s.collector.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}

	snap, reduceStats := snapshot.Reduce(observations)
	metrics.RecordDropped(reduceStats.Dropped)
	if len(snap) == 0 {
		log.Error(ctx, "no data extracted; the pages may require login or block bots",
			logger.Int("observations", len(observations)),
		)
		return nil, ErrNoData
	}

	out = &Outcome{
		RunID:        runID,
		RunAt:        started.Truncate(time.Second),
		Observations: len(observations),
		Reduce:       reduceStats,
	}

	filtered, missing := snapshot.FilterTargets(snap, s.targets)
	out.MissingTargets = missing
	if len(missing) > 0 {
		log.Warn(ctx, "target teams not found", logger.Strings("missing", missing))
	}
	metrics.UpdateSnapshotTeams(len(filtered))
	if len(filtered) == 0 {
		out.Status = StatusNoTeams
		log.Info(ctx, "no team left after filtering, nothing to do")
		return out, nil
	}

	ledger, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	res := reconcile.Reconcile(ledger, filtered, out.RunAt)
	out.NewRound = res.NewRound
	out.Stats = res.Stats
	out.Ledger = res.Ledger
	if leader, ok := views.Leader(res.Ledger); ok {
		out.Leader = &leader
	}

	_, created := res.RoundCreated()
	metrics.UpdateReconcile(res.Stats.AddedChanged, res.Stats.AddedNew, res.Stats.SkippedUnchanged, created)
	metrics.UpdateLedger(len(res.Ledger), res.Ledger.TeamCount(), res.Ledger.MaxRound())

	fields := []logger.Field{
		logger.Int("new_round", res.NewRound),
		logger.Int("changed", res.Stats.AddedChanged),
		logger.Int("new_teams", res.Stats.AddedNew),
		logger.Int("unchanged", res.Stats.SkippedUnchanged),
	}
	if out.Leader != nil {
		fields = append(fields,
			logger.String("leader", out.Leader.DisplayName),
			logger.Float64("leader_score", out.Leader.CumulativeScore),
		)
	}
	if res.Stats.DuplicatesSkipped > 0 {
		fields = append(fields, logger.Int("duplicates_skipped", res.Stats.DuplicatesSkipped))
	}

	switch {
	case !res.NeedsPersist():
		out.Status = StatusUnchanged
		log.Info(ctx, "no changes since the last run and no new teams; ledger not updated", fields...)
		return out, nil
	case s.dryRun:
		out.Status = StatusDryRun
		log.Info(ctx, "dry run; ledger not written", fields...)
		return out, nil
	}

	if err := s.store.Save(ctx, res.Ledger); err != nil {
		return nil, fmt.Errorf("save ledger: %w", err)
	}
	out.Status = StatusPersisted
	log.Info(ctx, "ledger updated", fields...)

	s.writeChart(ctx, log, res.Ledger)
	return out, nil
}

// Report loads the stored ledger and derives its views.
func (s *Service) Report(ctx context.Context) (*Report, error) {
	ledger, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return &Report{
		Ledger:    ledger,
		Deltas:    views.Deltas(ledger),
		Standings: views.Standings(ledger),
	}, nil
}

// writeChart renders the progression chart next to the workbook. Failures
// are logged; the ledger is already safe.
func (s *Service) writeChart(ctx context.Context, log logger.Logger, ledger model.Ledger) {
	if s.chartPath == "" || s.render == nil {
		return
	}
	img, err := s.render(ledger)
	if err == nil {
		err = os.WriteFile(s.chartPath, img, 0o644)
	}
	if err != nil {
		metrics.RecordError("chart", "render")
		log.Warn(ctx, "chart not written", logger.String("path", s.chartPath), logger.Error(err))
		return
	}
	log.Info(ctx, "chart written", logger.String("path", s.chartPath))
}

func (s *Service) writeMetrics(ctx context.Context, log logger.Logger) {
	if s.metricsTextfile == "" {
		return
	}
	if err := metrics.WriteTextfile(s.metricsTextfile); err != nil {
		log.Warn(ctx, "metrics textfile not written", logger.String("path", s.metricsTextfile), logger.Error(err))
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, ErrNoData):
		return "no_data"
	case errors.Is(err, repository.ErrWriteLedger):
		return "write_ledger"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}
