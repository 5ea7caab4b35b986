// Package export renders computed dose-response results for download. It
// holds no computation responsibility: everything it draws comes from the
// dose package's result and curve samples.
package export

import (
	"bytes"
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/dosecurve/dosecurve/pkg/dose"
)

// pointStyle returns a style that renders points only (no connecting line)
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: 0,
		DotWidth:    4,
		DotColor:    col,
	}
}

func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: 2,
		StrokeColor: col,
	}
}

// PNG draws the dose-response chart: observed percent-of-control responses
// as points, the fitted curve as a line, and a dashed vertical marker at
// the IC50, all over a log10 concentration axis. go-chart has no native
// log scale, so everything is plotted in log10(x) with ticks labeled in
// the original concentration units.
func PNG(res *dose.Result, curve []dose.Point) ([]byte, error) {
	if len(curve) < 2 {
		return nil, fmt.Errorf("curve must have at least 2 samples, got %d", len(curve))
	}

	obsX := make([]float64, len(res.Responses))
	obsY := make([]float64, len(res.Responses))
	for i, pt := range res.Responses {
		obsX[i] = math.Log10(pt.X)
		obsY[i] = pt.Y
	}

	fitX := make([]float64, len(curve))
	fitY := make([]float64, len(curve))
	for i, pt := range curve {
		fitX[i] = math.Log10(pt.X)
		fitY[i] = pt.Y
	}

	yLo, yHi := yRange(obsY, fitY)

	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    "4PL fit",
			XValues: fitX,
			YValues: fitY,
			Style:   lineStyle(chart.ColorBlue),
		},
		chart.ContinuousSeries{
			Name:    "Data",
			XValues: obsX,
			YValues: obsY,
			Style:   pointStyle(chart.ColorAlternateGray),
		},
	}

	if res.InRange {
		icX := math.Log10(res.Params.IC50)
		series = append(series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("IC50 = %.4g %s", res.Params.IC50, res.Unit),
			XValues: []float64{icX, icX},
			YValues: []float64{yLo, yHi},
			Style: chart.Style{
				StrokeWidth:     1.5,
				StrokeColor:     chart.ColorRed,
				StrokeDashArray: []float64{4, 3},
			},
		})
	}

	title := "IC50 curve"
	if res.Compound != "" {
		title = fmt.Sprintf("IC50 curve - %s", res.Compound)
	}

	ch := chart.Chart{
		Title:      title,
		Width:      900,
		Height:     600,
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 12}},
		XAxis: chart.XAxis{
			Name:  axisName(res.Unit),
			Ticks: logTicks(fitX[0], fitX[len(fitX)-1]),
			Range: &chart.ContinuousRange{Min: fitX[0], Max: fitX[len(fitX)-1]},
		},
		YAxis: chart.YAxis{
			Name:  "Normalized response (%)",
			Range: &chart.ContinuousRange{Min: yLo, Max: yHi},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}

func axisName(unit string) string {
	if unit == "" {
		return "Concentration"
	}
	return fmt.Sprintf("Concentration (%s)", unit)
}

// logTicks labels whole decades between the sweep endpoints with their
// linear-scale concentrations.
func logTicks(lo, hi float64) []chart.Tick {
	ticks := []chart.Tick{{Value: lo, Label: fmt.Sprintf("%.3g", math.Pow(10, lo))}}
	for d := math.Ceil(lo); d <= math.Floor(hi); d++ {
		if d <= lo || d >= hi {
			continue
		}
		ticks = append(ticks, chart.Tick{Value: d, Label: fmt.Sprintf("%.3g", math.Pow(10, d))})
	}
	ticks = append(ticks, chart.Tick{Value: hi, Label: fmt.Sprintf("%.3g", math.Pow(10, hi))})
	return ticks
}

func yRange(obs, fit []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, vals := range [][]float64{obs, fit} {
		for _, v := range vals {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = 1
	}
	return lo - pad, hi + pad
}
