package snapshot_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/go-cmp/cmp"
	"github.com/okian/fantaledger/internal/domain/model"
	"github.com/okian/fantaledger/internal/domain/snapshot"
	. "github.com/smartystreets/goconvey/convey"
)

func obs(name, score string) model.Observation {
	return model.Observation{DisplayName: name, ScoreText: score, Source: "test"}
}

func TestParseScore(t *testing.T) {
	Convey("Given locale formatted score strings", t, func() {
		Convey("When the text uses thousands and decimal separators", func() {
			v, err := snapshot.ParseScore("1.234,56")

			Convey("Then it should parse as a real number", func() {
				So(err, ShouldBeNil)
				So(v, ShouldAlmostEqual, 1234.56, 1e-9)
			})
		})

		Convey("When the text has spaces and non-breaking spaces", func() {
			v, err := snapshot.ParseScore(" 1\u00a0234,5 ")

			Convey("Then the spaces should be ignored", func() {
				So(err, ShouldBeNil)
				So(v, ShouldAlmostEqual, 1234.5, 1e-9)
			})
		})

		Convey("When the text is a plain integer or negative", func() {
			a, errA := snapshot.ParseScore("72")
			b, errB := snapshot.ParseScore("-3,5")

			Convey("Then it should parse", func() {
				So(errA, ShouldBeNil)
				So(a, ShouldEqual, 72)
				So(errB, ShouldBeNil)
				So(b, ShouldAlmostEqual, -3.5, 1e-9)
			})
		})

		Convey("When the text is empty", func() {
			_, err := snapshot.ParseScore("  ")

			Convey("Then it should report an empty score", func() {
				So(errors.Is(err, snapshot.ErrEmptyScore), ShouldBeTrue)
			})
		})

		Convey("When the text is not a number", func() {
			_, errWord := snapshot.ParseScore("n.d.")
			_, errNaN := snapshot.ParseScore("NaN")

			Convey("Then it should report an invalid score", func() {
				So(errors.Is(errWord, snapshot.ErrInvalidScore), ShouldBeTrue)
				So(errors.Is(errNaN, snapshot.ErrInvalidScore), ShouldBeTrue)
			})
		})
	})
}

func TestReduce(t *testing.T) {
	Convey("Given observations from several competitions", t, func() {
		observations := []model.Observation{
			obs("Real Forward", "1.010,5"),
			obs("Pisa pi curt", "980"),
			obs("real  forward", "1.020,5"),
			obs("Broken FC", "—"),
			obs("   ", "12"),
			obs("PISA PI CURT", "975"),
		}

		Convey("When reducing", func() {
			snap, stats := snapshot.Reduce(observations)

			Convey("Then duplicates should keep the maximum score", func() {
				So(snap, ShouldHaveLength, 2)
				So(snap["real forward"].Score, ShouldAlmostEqual, 1020.5, 1e-9)
				So(snap["real forward"].DisplayName, ShouldEqual, "real  forward")
				So(snap["pisa pi curt"].Score, ShouldEqual, 980)
				So(snap["pisa pi curt"].DisplayName, ShouldEqual, "Pisa pi curt")
			})

			Convey("And malformed rows should be dropped silently", func() {
				So(stats.Observations, ShouldEqual, 6)
				So(stats.Dropped, ShouldEqual, 2)
				So(stats.Duplicates, ShouldEqual, 2)
				So(stats.Teams, ShouldEqual, 2)
			})
		})

		Convey("When scores tie", func() {
			snap, _ := snapshot.Reduce([]model.Observation{obs("Alpha", "10"), obs("ALPHA", "10,0")})

			Convey("Then one of the observed names should be kept", func() {
				So(snap["alpha"].DisplayName, ShouldBeIn, []string{"Alpha", "ALPHA"})
				So(snap["alpha"].Score, ShouldEqual, 10)
			})
		})

		Convey("When nothing is parseable", func() {
			snap, stats := snapshot.Reduce([]model.Observation{obs("Alpha", "")})

			Convey("Then the snapshot should be empty", func() {
				So(snap, ShouldBeEmpty)
				So(stats.Dropped, ShouldEqual, 1)
			})
		})
	})
}

func TestReduceOrderIndependent(t *testing.T) {
	Convey("Given a random multiset of observations", t, func() {
		faker := gofakeit.New(7)
		teams := []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon"}
		var observations []model.Observation
		for i := 0; i < 60; i++ {
			name := teams[faker.Number(0, len(teams)-1)]
			// distinct scores keep the kept display name unambiguous
			observations = append(observations, obs(name, fmt.Sprintf("%d,%02d", i*7, i)))
		}
		want, _ := snapshot.Reduce(observations)

		Convey("Then any permutation should reduce to the same snapshot", func() {
			for i := 0; i < 20; i++ {
				shuffled := append([]model.Observation(nil), observations...)
				faker.ShuffleAnySlice(shuffled)
				got, _ := snapshot.Reduce(shuffled)
				So(cmp.Diff(want, got), ShouldBeEmpty)
			}
		})
	})
}

func TestFilterTargets(t *testing.T) {
	Convey("Given a reduced snapshot", t, func() {
		snap := model.Snapshot{
			"pisa pi curt": {DisplayName: "Pisa pi curt", Score: 980},
			"real forward": {DisplayName: "Real Forward", Score: 1020},
			"other":        {DisplayName: "Other", Score: 1},
		}

		Convey("When no targets are configured", func() {
			got, notFound := snapshot.FilterTargets(snap, nil)

			Convey("Then the snapshot should pass through", func() {
				So(got, ShouldHaveLength, 3)
				So(notFound, ShouldBeEmpty)
			})
		})

		Convey("When targets are configured with different spelling", func() {
			got, notFound := snapshot.FilterTargets(snap, []string{"PISA  pi curt", "Ghost Team", "real forward"})

			Convey("Then matching should use normalized keys", func() {
				So(got, ShouldHaveLength, 2)
				So(got, ShouldContainKey, "pisa pi curt")
				So(got, ShouldContainKey, "real forward")
			})

			Convey("And missing targets should be reported verbatim", func() {
				So(notFound, ShouldResemble, []string{"Ghost Team"})
			})
		})
	})
}
