package service_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/fantaledger/internal/adapters/repository"
	"github.com/okian/fantaledger/internal/adapters/source"
	service "github.com/okian/fantaledger/internal/app"
	"github.com/okian/fantaledger/internal/domain/views"
	"github.com/okian/fantaledger/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceIntegration(t *testing.T) {
	Convey("Given a ranking page served over HTTP and a workbook on disk", t, func() {
		page, err := os.ReadFile(filepath.Join("..", "adapters", "source", "testdata", "ranking.html"))
		So(err, ShouldBeNil)
		body := string(page)

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(body))
		}))
		defer srv.Close()

		client := source.NewClient(
			source.WithRetries(1),
			source.WithRequestInterval(0),
			source.WithTimeout(5*time.Second),
		)
		collector := source.NewCollector(client, []string{srv.URL}, logger.Discard())

		path := filepath.Join(t.TempDir(), "classifica.xlsx")
		store := repository.NewWorkbookStore(path, repository.WithLocation(time.UTC))

		now := time.Date(2025, 9, 14, 21, 0, 0, 0, time.UTC)
		clock := func() time.Time { return now }
		svc := service.New(collector, store, service.WithClock(clock), service.WithTargets(nil))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		Convey("When the first run completes", func() {
			out, err := svc.Run(ctx)
			So(err, ShouldBeNil)

			Convey("Then the workbook should hold round 1 for every parsed team", func() {
				So(out.Status, ShouldEqual, service.StatusPersisted)
				So(out.NewRound, ShouldEqual, 1)

				ledger, err := store.Load(ctx)
				So(err, ShouldBeNil)
				So(ledger, ShouldHaveLength, 3)
				So(ledger.MaxRound(), ShouldEqual, 1)

				leader, ok := views.Leader(ledger)
				So(ok, ShouldBeTrue)
				So(leader.DisplayName, ShouldEqual, "Real Forward")
				So(leader.CumulativeScore, ShouldEqual, 1020.5)
			})

			Convey("And the page changes for one team", func() {
				body = strings.Replace(body, "&nbsp;980 ", "1.041", 1)
				now = now.Add(7 * 24 * time.Hour)

				out, err := svc.Run(ctx)
				So(err, ShouldBeNil)

				Convey("Then round 2 should hold only that team", func() {
					So(out.NewRound, ShouldEqual, 2)
					So(out.Stats.AddedChanged, ShouldEqual, 1)
					So(out.Stats.SkippedUnchanged, ShouldEqual, 2)

					report, err := svc.Report(ctx)
					So(err, ShouldBeNil)
					So(report.Ledger, ShouldHaveLength, 4)
					So(report.Standings[0].DisplayName, ShouldEqual, "Pisa pi curt")
					So(report.Standings[0].CumulativeScore, ShouldEqual, 1041)
					So(report.Standings[0].RecordedAt, ShouldEqual, now)
				})
			})

			Convey("And the page is unchanged", func() {
				info, err := os.Stat(path)
				So(err, ShouldBeNil)

				again, err := svc.Run(ctx)
				So(err, ShouldBeNil)

				Convey("Then the workbook should not be rewritten", func() {
					So(again.Status, ShouldEqual, service.StatusUnchanged)
					after, err := os.Stat(path)
					So(err, ShouldBeNil)
					So(after.ModTime(), ShouldEqual, info.ModTime())
				})
			})
		})
	})
}
