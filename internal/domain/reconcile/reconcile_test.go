package reconcile_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/go-cmp/cmp"
	"github.com/okian/fantaledger/internal/domain/model"
	"github.com/okian/fantaledger/internal/domain/reconcile"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	day1 = time.Date(2025, 9, 14, 21, 0, 0, 0, time.UTC)
	day2 = day1.Add(7 * 24 * time.Hour)
	day3 = day2.Add(7 * 24 * time.Hour)
	day4 = day3.Add(7 * 24 * time.Hour)
)

func snap(scores map[string]float64) model.Snapshot {
	s := make(model.Snapshot, len(scores))
	for name, score := range scores {
		s[name] = model.TeamScore{DisplayName: name, Score: score}
	}
	return s
}

func entriesFor(l model.Ledger, key string) []model.Entry {
	var out []model.Entry
	for _, e := range l {
		if e.TeamKey == key {
			out = append(out, e)
		}
	}
	return out
}

func TestReconcileScenarios(t *testing.T) {
	Convey("Given an empty ledger", t, func() {
		res := reconcile.Reconcile(nil, snap(map[string]float64{"a": 10, "b": 20}), day1)

		Convey("Then round 1 should hold every team", func() {
			round, ok := res.RoundCreated()
			So(ok, ShouldBeTrue)
			So(round, ShouldEqual, 1)
			So(res.Ledger, ShouldHaveLength, 2)
			for _, e := range res.Ledger {
				So(e.Round, ShouldEqual, 1)
				So(e.RecordedAt, ShouldEqual, day1)
			}
			So(res.Stats, ShouldResemble, reconcile.Stats{AddedChanged: 2})
			So(res.NeedsPersist(), ShouldBeTrue)
		})

		Convey("When one team changes on the next run", func() {
			res2 := reconcile.Reconcile(res.Ledger, snap(map[string]float64{"a": 10, "b": 25}), day2)

			Convey("Then round 2 should contain only the changed team", func() {
				So(res2.NewRound, ShouldEqual, 2)
				So(res2.Ledger, ShouldHaveLength, 3)
				last := res2.Ledger[2]
				So(last.TeamKey, ShouldEqual, "b")
				So(last.Round, ShouldEqual, 2)
				So(last.CumulativeScore, ShouldEqual, 25)
				So(res2.Ledger.LatestByTeam()["a"].Round, ShouldEqual, 1)
				So(res2.Stats.AddedChanged, ShouldEqual, 1)
				So(res2.Stats.SkippedUnchanged, ShouldEqual, 1)
			})

			Convey("When a new team appears and nothing else changes", func() {
				res3 := reconcile.Reconcile(res2.Ledger, snap(map[string]float64{"a": 10, "b": 25, "c": 5}), day3)

				Convey("Then it should be backfilled into round 2 without a new round", func() {
					_, ok := res3.RoundCreated()
					So(ok, ShouldBeFalse)
					So(res3.Ledger, ShouldHaveLength, 4)
					c := res3.Ledger[3]
					So(c.TeamKey, ShouldEqual, "c")
					So(c.Round, ShouldEqual, 2)
					So(c.CumulativeScore, ShouldEqual, 5)
					So(c.RecordedAt, ShouldEqual, day2)
					So(res3.Stats.AddedNew, ShouldEqual, 1)
					So(res3.Stats.NoChange, ShouldBeFalse)
					So(res3.NeedsPersist(), ShouldBeTrue)
				})
			})

			Convey("When a new team appears together with a change", func() {
				res3 := reconcile.Reconcile(res2.Ledger, snap(map[string]float64{"a": 18, "b": 25, "d": 7}), day3)

				Convey("Then the change opens round 3 and the new team lands in round 2", func() {
					So(res3.NewRound, ShouldEqual, 3)
					a := entriesFor(res3.Ledger, "a")
					So(a, ShouldHaveLength, 2)
					So(a[1].Round, ShouldEqual, 3)
					So(a[1].RecordedAt, ShouldEqual, day3)
					d := entriesFor(res3.Ledger, "d")
					So(d, ShouldHaveLength, 1)
					So(d[0].Round, ShouldEqual, 2)
					So(d[0].RecordedAt, ShouldEqual, day2)
					So(res3.Stats, ShouldResemble, reconcile.Stats{AddedChanged: 1, AddedNew: 1, SkippedUnchanged: 1})
				})
			})
		})
	})

	Convey("Given a ledger and an identical snapshot", t, func() {
		first := reconcile.Reconcile(nil, snap(map[string]float64{"a": 10}), day1)
		second := reconcile.Reconcile(first.Ledger, snap(map[string]float64{"a": 10}), day2)

		Convey("Then nothing should change", func() {
			So(second.NewRound, ShouldEqual, 0)
			So(second.Stats.NoChange, ShouldBeTrue)
			So(second.Stats.SkippedUnchanged, ShouldEqual, 1)
			So(second.NeedsPersist(), ShouldBeFalse)
			So(cmp.Diff(first.Ledger, second.Ledger), ShouldBeEmpty)
		})
	})

	Convey("Given scores that differ only by float noise", t, func() {
		first := reconcile.Reconcile(nil, snap(map[string]float64{"a": 70.5}), day1)
		second := reconcile.Reconcile(first.Ledger, snap(map[string]float64{"a": 70.5 + 1e-9}), day2)

		Convey("Then the team should count as unchanged", func() {
			So(second.Stats.NoChange, ShouldBeTrue)
		})
	})

	Convey("Given a score that decreases", t, func() {
		first := reconcile.Reconcile(nil, snap(map[string]float64{"a": 70}), day1)
		second := reconcile.Reconcile(first.Ledger, snap(map[string]float64{"a": 68}), day2)

		Convey("Then it should still open a new round", func() {
			So(second.NewRound, ShouldEqual, 2)
		})
	})

	Convey("Given an empty snapshot", t, func() {
		first := reconcile.Reconcile(nil, snap(map[string]float64{"a": 10}), day1)
		res := reconcile.Reconcile(first.Ledger, model.Snapshot{}, day2)
		empty := reconcile.Reconcile(nil, model.Snapshot{}, day2)

		Convey("Then the ledger should be returned unchanged with zero stats", func() {
			So(cmp.Diff(first.Ledger, res.Ledger), ShouldBeEmpty)
			So(res.Stats, ShouldResemble, reconcile.Stats{})
			So(res.NeedsPersist(), ShouldBeFalse)
			So(empty.Ledger, ShouldBeEmpty)
			So(empty.NewRound, ShouldEqual, 0)
		})
	})

	Convey("Given a ledger whose latest round lost its timestamp", t, func() {
		ledger := model.Ledger{
			{Round: 1, RecordedAt: day1, DisplayName: "a", TeamKey: "a", CumulativeScore: 1},
			{Round: 2, DisplayName: "a", TeamKey: "a", CumulativeScore: 2},
		}
		res := reconcile.Reconcile(ledger, snap(map[string]float64{"a": 2, "n": 3}), day4)

		Convey("Then the new team should fall back to the run time", func() {
			n := entriesFor(res.Ledger, "n")
			So(n, ShouldHaveLength, 1)
			So(n[0].Round, ShouldEqual, 2)
			So(n[0].RecordedAt, ShouldEqual, day4)
		})
	})

	Convey("Given a single round whose timestamps are all missing", t, func() {
		ledger := model.Ledger{
			{Round: 1, DisplayName: "a", TeamKey: "a", CumulativeScore: 10},
		}
		res := reconcile.Reconcile(ledger, snap(map[string]float64{"a": 15, "n": 3}), day3)

		Convey("Then the backfilled team should take the run time", func() {
			n := entriesFor(res.Ledger, "n")
			So(n, ShouldHaveLength, 1)
			So(n[0].Round, ShouldEqual, 1)
			So(n[0].RecordedAt, ShouldEqual, day3)
			So(res.NewRound, ShouldEqual, 2)
		})
	})

	Convey("Given a ledger with teams on different latest rounds", t, func() {
		ledger := model.Ledger{
			{Round: 1, RecordedAt: day1, DisplayName: "a", TeamKey: "a", CumulativeScore: 1},
			{Round: 2, RecordedAt: day2, DisplayName: "b", TeamKey: "b", CumulativeScore: 4},
		}
		res := reconcile.Reconcile(ledger, snap(map[string]float64{"a": 5, "b": 4}), day3)

		Convey("Then no (round, key) pair should be duplicated", func() {
			So(res.NewRound, ShouldEqual, 3)
			seen := map[model.RoundKey]int{}
			for _, e := range res.Ledger {
				seen[e.Key()]++
			}
			for _, n := range seen {
				So(n, ShouldEqual, 1)
			}
		})
	})
}

func TestReconcileProperties(t *testing.T) {
	Convey("Given a random sequence of runs", t, func() {
		faker := gofakeit.New(2025)
		teams := make([]string, 12)
		for i := range teams {
			teams[i] = fmt.Sprintf("team-%02d", i)
		}
		scores := map[string]float64{}
		var ledger model.Ledger
		at := day1

		for run := 0; run < 40; run++ {
			at = at.Add(time.Hour)
			current := model.Snapshot{}
			for _, team := range teams {
				if _, known := scores[team]; !known && faker.Number(0, 3) > 0 {
					continue
				}
				if faker.Number(0, 2) == 0 {
					scores[team] += faker.Float64Range(0.5, 90)
				}
				current[team] = model.TeamScore{DisplayName: team, Score: scores[team]}
			}

			before := ledger.Clone()
			prevMax := before.MaxRound()
			res := reconcile.Reconcile(ledger, current, at)

			So(len(res.Ledger), ShouldBeGreaterThanOrEqualTo, len(before))
			So(cmp.Diff(before, res.Ledger[:len(before)]), ShouldBeEmpty)

			keys := map[model.RoundKey]struct{}{}
			for _, e := range res.Ledger {
				_, dup := keys[e.Key()]
				So(dup, ShouldBeFalse)
				keys[e.Key()] = struct{}{}
			}

			if round, ok := res.RoundCreated(); ok {
				if prevMax == 0 {
					So(round, ShouldEqual, 1)
				} else {
					So(round, ShouldEqual, prevMax+1)
					for _, e := range res.Ledger[len(before):] {
						if len(entriesFor(before, e.TeamKey)) == 0 {
							So(e.Round, ShouldEqual, prevMax)
						}
					}
				}
			}

			again := reconcile.Reconcile(res.Ledger, current, at.Add(time.Minute))
			So(again.NeedsPersist(), ShouldBeFalse)
			So(cmp.Diff(res.Ledger, again.Ledger), ShouldBeEmpty)

			ledger = res.Ledger
		}
	})
}
