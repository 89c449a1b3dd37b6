package model

import "time"

// Entry is one historical fact: a team's cumulative score as of a round.
type Entry struct {
	Round           int       // 1-based round number
	RecordedAt      time.Time // run time, or the backfilled time of the round
	DisplayName     string    // original casing, as last observed
	TeamKey         string    // normalized matching key, unique within a round
	CumulativeScore float64   // total points as of Round, not a delta
}

// RoundKey identifies an entry within the ledger.
type RoundKey struct {
	Round   int
	TeamKey string
}

// Key returns the (round, team key) pair of the entry.
func (e Entry) Key() RoundKey {
	return RoundKey{Round: e.Round, TeamKey: e.TeamKey}
}

// Ledger is the append-only history of entries in creation order.
// Values are treated as immutable: helpers never modify the receiver.
type Ledger []Entry

// MaxRound returns the highest round present, or 0 for an empty ledger.
func (l Ledger) MaxRound() int {
	maxRound := 0
	for _, e := range l {
		if e.Round > maxRound {
			maxRound = e.Round
		}
	}
	return maxRound
}

// LatestByTeam indexes each team key to its entry with the highest round.
func (l Ledger) LatestByTeam() map[string]Entry {
	latest := make(map[string]Entry, len(l))
	for _, e := range l {
		if cur, ok := latest[e.TeamKey]; !ok || e.Round >= cur.Round {
			latest[e.TeamKey] = e
		}
	}
	return latest
}

// LatestRecordedAt returns the most recent RecordedAt among entries of round.
// Zero timestamps are ignored; ok is false when the round has no entry with
// a known time.
func (l Ledger) LatestRecordedAt(round int) (time.Time, bool) {
	var (
		latest time.Time
		found  bool
	)
	for _, e := range l {
		if e.Round != round || e.RecordedAt.IsZero() {
			continue
		}
		if !found || e.RecordedAt.After(latest) {
			latest = e.RecordedAt
			found = true
		}
	}
	return latest, found
}

// Keys returns the set of (round, team key) pairs present in the ledger.
func (l Ledger) Keys() map[RoundKey]struct{} {
	keys := make(map[RoundKey]struct{}, len(l))
	for _, e := range l {
		keys[e.Key()] = struct{}{}
	}
	return keys
}

// TeamCount returns the number of distinct team keys ever recorded.
func (l Ledger) TeamCount() int {
	seen := make(map[string]struct{}, len(l))
	for _, e := range l {
		seen[e.TeamKey] = struct{}{}
	}
	return len(seen)
}

// Clone returns a copy that shares no backing array with l.
func (l Ledger) Clone() Ledger {
	if l == nil {
		return nil
	}
	out := make(Ledger, len(l))
	copy(out, l)
	return out
}
