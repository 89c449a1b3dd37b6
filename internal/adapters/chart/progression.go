// Package chart renders the ledger as a PNG line chart.
package chart

import (
	"bytes"
	"fmt"
	"math"
	"sort"

	"github.com/okian/fantaledger/internal/domain/model"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	defaultWidth  = 1024
	defaultHeight = 512
	noDataMessage = "Nessun dato in classifica"
)

type options struct {
	width, height int
	title         string
}

// Option configures RenderProgression.
type Option func(*options)

// WithSize sets the image size in pixels.
func WithSize(width, height int) Option {
	return func(o *options) {
		if width > 0 && height > 0 {
			o.width, o.height = width, height
		}
	}
}

// WithTitle sets the chart title.
func WithTitle(title string) Option {
	return func(o *options) { o.title = title }
}

// RenderProgression draws one line per team: cumulative score by round.
// An empty ledger renders a placeholder image.
func RenderProgression(ledger model.Ledger, opts ...Option) ([]byte, error) {
	o := options{width: defaultWidth, height: defaultHeight, title: "Andamento punteggi"}
	for _, opt := range opts {
		opt(&o)
	}

	if len(ledger) == 0 {
		return renderPlaceholder(o)
	}

	series, yMin, yMax := teamSeries(ledger)
	if yMin == yMax {
		yMin, yMax = yMin-1, yMax+1
	}

	graph := gochart.Chart{
		Title:  o.title,
		Width:  o.width,
		Height: o.height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: gochart.XAxis{
			Name:           "Giornata",
			Range:          &gochart.ContinuousRange{Min: 1, Max: math.Max(2, float64(ledger.MaxRound()))},
			ValueFormatter: func(v interface{}) string { return fmt.Sprintf("%.0f", v) },
		},
		YAxis: gochart.YAxis{
			Name:  "Punti",
			Range: &gochart.ContinuousRange{Min: yMin, Max: yMax},
		},
		Series: series,
	}
	graph.Elements = []gochart.Renderable{gochart.LegendLeft(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// teamSeries builds one series per team key ordered by key, and the score bounds.
func teamSeries(ledger model.Ledger) ([]gochart.Series, float64, float64) {
	type point struct {
		round int
		score float64
	}
	points := map[string][]point{}
	names := map[string]string{}
	yMin, yMax := math.Inf(1), math.Inf(-1)
	for _, e := range ledger {
		points[e.TeamKey] = append(points[e.TeamKey], point{e.Round, e.CumulativeScore})
		names[e.TeamKey] = e.DisplayName
		yMin = math.Min(yMin, e.CumulativeScore)
		yMax = math.Max(yMax, e.CumulativeScore)
	}

	keys := make([]string, 0, len(points))
	for k := range points {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	series := make([]gochart.Series, 0, len(keys))
	for i, k := range keys {
		pts := points[k]
		sort.Slice(pts, func(a, b int) bool { return pts[a].round < pts[b].round })
		xs := make([]float64, len(pts))
		ys := make([]float64, len(pts))
		for j, p := range pts {
			xs[j], ys[j] = float64(p.round), p.score
		}
		color := gochart.GetDefaultColor(i)
		series = append(series, gochart.ContinuousSeries{
			Name:    names[k],
			XValues: xs,
			YValues: ys,
			Style: gochart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				DotColor:    color,
				DotWidth:    3,
			},
		})
	}
	return series, yMin, yMax
}

func renderPlaceholder(o options) ([]byte, error) {
	hidden := gochart.Style{Hidden: true}
	graph := gochart.Chart{
		Width:  o.width / 2,
		Height: o.height / 2,
		XAxis:  gochart.XAxis{Style: hidden},
		YAxis:  gochart.YAxis{Style: hidden},
		// go-chart refuses to render without a series
		Series: []gochart.Series{gochart.ContinuousSeries{
			Style:   hidden,
			XValues: []float64{0, 1},
			YValues: []float64{0, 1},
		}},
		Elements: []gochart.Renderable{
			func(r gochart.Renderer, cb gochart.Box, defaults gochart.Style) {
				r.SetFont(defaults.Font)
				r.SetFontColor(drawing.ColorBlack)
				r.SetFontSize(14.0)
				tb := r.MeasureText(noDataMessage)
				x := (cb.Width() - tb.Width()) / 2
				y := (cb.Height() + tb.Height()) / 2
				r.Text(noDataMessage, x, y)
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
