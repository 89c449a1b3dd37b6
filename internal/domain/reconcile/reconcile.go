// Package reconcile merges a run's snapshot into the historical ledger.
//
// The ledger is append-only: Reconcile returns a new value holding every
// prior entry unchanged plus the rows the snapshot justifies. The decision
// depends on the ledger alone, so running twice with the same snapshot is a
// no-op the second time.
package reconcile

import (
	"math"
	"time"

	"github.com/okian/fantaledger/internal/domain/model"
)

// Epsilon is the tolerance below which two scores are considered equal.
// Scores are re-parsed from formatted text every run.
const Epsilon = 1e-6

// Stats summarizes a reconciliation.
type Stats struct {
	AddedChanged      int  // teams whose score moved (or every team on the first run)
	AddedNew          int  // teams seen for the first time, backfilled into the latest round
	SkippedUnchanged  int  // teams whose score is within Epsilon of their last entry
	DuplicatesSkipped int  // candidate rows dropped because (round, key) already existed
	NoChange          bool // nothing changed and nobody new
}

// Result is the outcome of Reconcile.
type Result struct {
	Ledger   model.Ledger
	NewRound int // 0 when no round was created
	Stats    Stats
}

// RoundCreated returns the round created by the reconciliation, if any.
func (r Result) RoundCreated() (int, bool) {
	return r.NewRound, r.NewRound > 0
}

// NeedsPersist reports whether the new ledger differs from the input one.
func (r Result) NeedsPersist() bool {
	return r.NewRound > 0 || r.Stats.AddedChanged > 0 || r.Stats.AddedNew > 0
}

// classification partitions snapshot keys against the ledger.
type classification struct {
	changed   []string
	fresh     []string
	unchanged []string
}

func classify(latest map[string]model.Entry, snap model.Snapshot) classification {
	var c classification
	for _, key := range snap.Keys() {
		last, ok := latest[key]
		switch {
		case !ok:
			c.fresh = append(c.fresh, key)
		case math.Abs(snap[key].Score-last.CumulativeScore) > Epsilon:
			c.changed = append(c.changed, key)
		default:
			c.unchanged = append(c.unchanged, key)
		}
	}
	return c
}

// Reconcile applies snap to ledger at runAt.
//
//   - empty ledger: every team becomes a round 1 entry;
//   - some team changed: a new round max+1 holds the changed teams, new teams
//     are backfilled into round max;
//   - nobody changed but some teams are new: they are backfilled into round
//     max and no round is created;
//   - otherwise the ledger is returned as is.
//
// Backfilled rows take the latest RecordedAt of round max, or runAt when that
// round has no entries. An empty snapshot leaves the ledger untouched with
// zero stats.
func Reconcile(ledger model.Ledger, snap model.Snapshot, runAt time.Time) Result {
	if len(snap) == 0 {
		return Result{Ledger: ledger.Clone()}
	}

	if len(ledger) == 0 {
		rows := make([]model.Entry, 0, len(snap))
		for _, key := range snap.Keys() {
			rows = append(rows, entry(1, runAt, key, snap[key]))
		}
		return Result{
			Ledger:   rows,
			NewRound: 1,
			Stats:    Stats{AddedChanged: len(rows)},
		}
	}

	c := classify(ledger.LatestByTeam(), snap)
	lastRound := ledger.MaxRound()
	stats := Stats{SkippedUnchanged: len(c.unchanged)}

	if len(c.changed) == 0 && len(c.fresh) == 0 {
		stats.NoChange = true
		return Result{Ledger: ledger.Clone(), Stats: stats}
	}

	backfillAt, ok := ledger.LatestRecordedAt(lastRound)
	if !ok {
		backfillAt = runAt
	}

	var (
		candidates []model.Entry
		newRound   int
	)
	if len(c.changed) > 0 {
		newRound = lastRound + 1
		for _, key := range c.changed {
			candidates = append(candidates, entry(newRound, runAt, key, snap[key]))
		}
	}
	for _, key := range c.fresh {
		candidates = append(candidates, entry(lastRound, backfillAt, key, snap[key]))
	}

	stats.AddedChanged = len(c.changed)
	stats.AddedNew = len(c.fresh)

	existing := ledger.Keys()
	out := ledger.Clone()
	for _, row := range candidates {
		if _, dup := existing[row.Key()]; dup {
			stats.DuplicatesSkipped++
			continue
		}
		existing[row.Key()] = struct{}{}
		out = append(out, row)
	}

	return Result{Ledger: out, NewRound: newRound, Stats: stats}
}

func entry(round int, at time.Time, key string, ts model.TeamScore) model.Entry {
	return model.Entry{
		Round:           round,
		RecordedAt:      at,
		DisplayName:     ts.DisplayName,
		TeamKey:         key,
		CumulativeScore: ts.Score,
	}
}
