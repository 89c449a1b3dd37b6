// Package model contains domain models passed between layers.
package model

import "sort"

// Observation is one raw standings row as extracted from a source page.
// Nothing is validated yet: ScoreText is the cell text exactly as rendered.
type Observation struct {
	DisplayName string // team name as shown on the page
	ScoreText   string // cumulative points, locale formatted ("1.234,56")
	Source      string // page the row came from
	Position    *int   // rank printed on the page, when present
}

// TeamScore is the canonical current score of one team within a run.
type TeamScore struct {
	DisplayName string
	Score       float64
}

// Snapshot maps a normalized team key to the team's current score.
// It is rebuilt on every run and never persisted.
type Snapshot map[string]TeamScore

// Keys returns the snapshot's team keys in ascending order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
