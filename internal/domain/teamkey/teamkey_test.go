package teamkey_test

import (
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/okian/fantaledger/internal/domain/teamkey"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalize(t *testing.T) {
	Convey("Given team names with irregular spacing and casing", t, func() {
		Convey("When normalizing", func() {
			Convey("Then whitespace runs should collapse and case should fold", func() {
				So(teamkey.Normalize("  Pisa   pi\tcurt "), ShouldEqual, "pisa pi curt")
				So(teamkey.Normalize("REAL Forward"), ShouldEqual, "real forward")
				So(teamkey.Normalize("Real Forward"), ShouldEqual, "real forward")
			})

			Convey("And empty or blank names should normalize to empty", func() {
				So(teamkey.Normalize(""), ShouldEqual, "")
				So(teamkey.Normalize(" \t\n "), ShouldEqual, "")
			})
		})

		Convey("When comparing names", func() {
			Convey("Then case and spacing differences should not matter", func() {
				So(teamkey.Normalize("Real  Forward"), ShouldEqual, teamkey.Normalize("real forward"))
				So(teamkey.Normalize("Real Forward"), ShouldNotEqual, teamkey.Normalize("Real Forwards"))
			})
		})
	})
}

func TestNormalizeIdempotent(t *testing.T) {
	Convey("Given random names", t, func() {
		faker := gofakeit.New(42)

		Convey("Then normalizing twice should equal normalizing once", func() {
			for i := 0; i < 500; i++ {
				name := strings.Repeat(" ", faker.Number(0, 3)) + faker.Sentence(faker.Number(1, 5)) + "\t " + faker.Numerify("##")
				once := teamkey.Normalize(name)
				So(teamkey.Normalize(once), ShouldEqual, once)
			}
		})
	})
}
