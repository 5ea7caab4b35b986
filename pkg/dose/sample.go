package dose

import (
	"iter"
	"math"
)

// SampleOptions controls curve sampling density and range.
type SampleOptions struct {
	// Points is the number of samples; fewer than 2 falls back to 300,
	// the density the reference rendering uses.
	Points int
	// ExtendDecades widens the sweep below the smallest and above the
	// largest tested concentration, in log10 decades, so renderings show
	// the asymptote approach. Negative values are treated as zero.
	ExtendDecades float64
}

// DefaultSampleOptions samples 300 points across the tested range extended
// half a decade on each side.
func DefaultSampleOptions() SampleOptions {
	return SampleOptions{Points: 300, ExtendDecades: 0.5}
}

// Curve returns a lazy, finite, restartable sweep of the fitted model:
// x log-uniformly spaced across the (optionally extended) tested range,
// y the modeled response at x. Deterministic given its inputs.
func Curve(p Params, minConc, maxConc float64, opts SampleOptions) iter.Seq2[float64, float64] {
	n := opts.Points
	if n < 2 {
		n = 300
	}
	ext := opts.ExtendDecades
	if ext < 0 {
		ext = 0
	}

	lo := math.Log10(minConc) - ext
	hi := math.Log10(maxConc) + ext
	step := (hi - lo) / float64(n-1)

	return func(yield func(float64, float64) bool) {
		for i := 0; i < n; i++ {
			x := math.Pow(10, lo+float64(i)*step)
			if !yield(x, p.Eval(x)) {
				return
			}
		}
	}
}

// CurvePoints eagerly collects Curve into a slice for collaborators that
// want indexable samples (chart rendering, JSON serialization).
func CurvePoints(p Params, minConc, maxConc float64, opts SampleOptions) []Point {
	n := opts.Points
	if n < 2 {
		n = 300
	}
	out := make([]Point, 0, n)
	for x, y := range Curve(p, minConc, maxConc, opts) {
		out = append(out, Point{X: x, Y: y})
	}
	return out
}
