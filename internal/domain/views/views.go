// Package views projects the ledger into per-round deltas and standings.
// Both builders are pure and recomputed from the full ledger on every call.
package views

import (
	"sort"

	"github.com/okian/fantaledger/internal/domain/model"
	"github.com/okian/fantaledger/internal/domain/types"
)

// byTeam groups entries per team key, each group ordered by round.
func byTeam(ledger model.Ledger) map[string][]model.Entry {
	groups := make(map[string][]model.Entry)
	for _, e := range ledger {
		groups[e.TeamKey] = append(groups[e.TeamKey], e)
	}
	for _, entries := range groups {
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Round < entries[j].Round })
	}
	return groups
}

// Deltas returns the points each team gained per round. A team's first entry
// has no baseline and yields no row. Rows are ordered by round, then by round
// score descending, then by team key.
func Deltas(ledger model.Ledger) []types.RoundDelta {
	var out []types.RoundDelta
	for key, entries := range byTeam(ledger) {
		for i := 1; i < len(entries); i++ {
			cur, prev := entries[i], entries[i-1]
			out = append(out, types.RoundDelta{
				Round:       cur.Round,
				RecordedAt:  cur.RecordedAt,
				DisplayName: cur.DisplayName,
				TeamKey:     key,
				RoundScore:  cur.CumulativeScore - prev.CumulativeScore,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Round != b.Round {
			return a.Round < b.Round
		}
		if a.RoundScore != b.RoundScore {
			return a.RoundScore > b.RoundScore
		}
		return a.TeamKey < b.TeamKey
	})
	return out
}

// Standings ranks every team by its most recent cumulative score. Equal
// scores keep team key order.
func Standings(ledger model.Ledger) []types.StandingsRow {
	latest := ledger.LatestByTeam()
	keys := make([]string, 0, len(latest))
	for key := range latest {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([]types.StandingsRow, 0, len(keys))
	for _, key := range keys {
		e := latest[key]
		rows = append(rows, types.StandingsRow{
			DisplayName:     e.DisplayName,
			TeamKey:         key,
			CumulativeScore: e.CumulativeScore,
			Round:           e.Round,
			RecordedAt:      e.RecordedAt,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CumulativeScore > rows[j].CumulativeScore
	})
	for i := range rows {
		rows[i].Position = i + 1
	}
	return rows
}

// Leader returns the first standings row, if any.
func Leader(ledger model.Ledger) (types.StandingsRow, bool) {
	rows := Standings(ledger)
	if len(rows) == 0 {
		return types.StandingsRow{}, false
	}
	return rows[0], true
}
