// Package types contains the presentational rows derived from the ledger.
package types

import "time"

// RoundDelta is the score a team gained in one round.
type RoundDelta struct {
	Round       int       `json:"round"`
	RecordedAt  time.Time `json:"recorded_at"`
	DisplayName string    `json:"display_name"`
	TeamKey     string    `json:"team_key"`
	RoundScore  float64   `json:"round_score"`
}

// StandingsRow is one line of the current standings.
type StandingsRow struct {
	Position        int       `json:"position"`
	DisplayName     string    `json:"display_name"`
	TeamKey         string    `json:"team_key"`
	CumulativeScore float64   `json:"cumulative_score"`
	Round           int       `json:"round"`
	RecordedAt      time.Time `json:"recorded_at"`
}
