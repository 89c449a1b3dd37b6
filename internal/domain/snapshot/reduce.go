package snapshot

import (
	"github.com/okian/fantaledger/internal/domain/model"
	"github.com/okian/fantaledger/internal/domain/teamkey"
)

// ReduceStats counts what happened to the observations of one run.
type ReduceStats struct {
	Observations int // rows received
	Dropped      int // rows with an unparseable score or blank name
	Duplicates   int // rows that hit an already seen team key
	Teams        int // distinct teams in the resulting snapshot
}

// Reduce keeps one score per normalized team key. When a team appears more
// than once (e.g. in several competitions) the larger score wins; on equal
// scores the first observed display name is kept.
func Reduce(observations []model.Observation) (model.Snapshot, ReduceStats) {
	snap := make(model.Snapshot, len(observations))
	stats := ReduceStats{Observations: len(observations)}

	for _, obs := range observations {
		score, err := ParseScore(obs.ScoreText)
		if err != nil {
			stats.Dropped++
			continue
		}
		key := teamkey.Normalize(obs.DisplayName)
		if key == "" {
			stats.Dropped++
			continue
		}

		cur, ok := snap[key]
		if ok {
			stats.Duplicates++
			if score <= cur.Score {
				continue
			}
		}
		snap[key] = model.TeamScore{DisplayName: obs.DisplayName, Score: score}
	}

	stats.Teams = len(snap)
	return snap, stats
}

// FilterTargets restricts the snapshot to the requested teams. Matching is
// done on normalized keys; notFound lists the requested names, in the
// caller's spelling and order, that had no match. An empty target list
// disables filtering.
func FilterTargets(snap model.Snapshot, targets []string) (model.Snapshot, []string) {
	if len(targets) == 0 {
		return snap, nil
	}

	wanted := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		wanted[teamkey.Normalize(t)] = struct{}{}
	}

	filtered := make(model.Snapshot, len(wanted))
	for key, ts := range snap {
		if _, ok := wanted[key]; ok {
			filtered[key] = ts
		}
	}

	var notFound []string
	for _, t := range targets {
		if _, ok := filtered[teamkey.Normalize(t)]; !ok {
			notFound = append(notFound, t)
		}
	}
	return filtered, notFound
}
