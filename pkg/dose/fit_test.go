package dose

import (
	"math"
	"testing"
)

func TestFit4PL_RecoversKnownModel(t *testing.T) {
	truth := Params{Bottom: 5, Top: 100, IC50: 20, Hill: 1.2}

	concs := []float64{0.3, 1, 3, 10, 30, 100, 300, 1000}
	points := make([]Point, len(concs))
	for i, c := range concs {
		points[i] = Point{X: c, Y: truth.Eval(c)}
	}

	params, _, err := fit4PL(points, DefaultFitOptions())
	if err != nil {
		t.Fatalf("fit4PL() error = %v", err)
	}

	if rel := math.Abs(params.IC50-truth.IC50) / truth.IC50; rel > 0.10 {
		t.Errorf("IC50 = %.4g, want %.4g within 10%% (off by %.1f%%)", params.IC50, truth.IC50, rel*100)
	}
	if math.Abs(params.Top-truth.Top) > 5 {
		t.Errorf("Top = %.4g, want near %.4g", params.Top, truth.Top)
	}
	if math.Abs(params.Bottom-truth.Bottom) > 5 {
		t.Errorf("Bottom = %.4g, want near %.4g", params.Bottom, truth.Bottom)
	}
}

func TestFit4PL_NonFinitePoint(t *testing.T) {
	points := []Point{
		{X: 1, Y: 98},
		{X: 10, Y: math.NaN()},
		{X: 100, Y: 10},
		{X: 300, Y: 3},
		{X: 1000, Y: 1},
	}

	if _, _, err := fit4PL(points, DefaultFitOptions()); err == nil {
		t.Error("fit4PL() accepted a NaN response")
	}
}

func TestIntervalSquashRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		iv   interval
		p    float64
	}{
		{"interior", interval{0, 100}, 42},
		{"near low bound", interval{0, 100}, 0.01},
		{"near high bound", interval{50, 120}, 119.9},
		{"tiny interval", interval{0.1, 5}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.iv.squash(tt.iv.unsquash(tt.p))
			if math.Abs(got-tt.p) > 1e-9*math.Max(math.Abs(tt.p), 1) {
				t.Errorf("squash(unsquash(%g)) = %g", tt.p, got)
			}
		})
	}
}

func TestIntervalSquashStaysInside(t *testing.T) {
	iv := interval{50, 120}
	for _, u := range []float64{-1e9, -50, 0, 50, 1e9} {
		p := iv.squash(u)
		if p < iv.lo || p > iv.hi {
			t.Errorf("squash(%g) = %g outside [%g, %g]", u, p, iv.lo, iv.hi)
		}
	}
}

func TestGeoMean(t *testing.T) {
	// Log-spaced doses: the geometric mean is the middle of the ladder.
	got := geoMean([]float64{1, 10, 100})
	if math.Abs(got-10) > 1e-9 {
		t.Errorf("geoMean([1,10,100]) = %g, want 10", got)
	}
}

func TestFitOptionsWithDefaults(t *testing.T) {
	var zero FitOptions
	got := zero.withDefaults()
	if got != DefaultFitOptions() {
		t.Errorf("zero options did not fill to defaults: %+v", got)
	}

	custom := FitOptions{TopMin: 40, TopMax: 150}
	filled := custom.withDefaults()
	if filled.TopMin != 40 || filled.TopMax != 150 {
		t.Errorf("explicit bounds overwritten: %+v", filled)
	}
	if filled.MaxIterations != DefaultFitOptions().MaxIterations {
		t.Errorf("unset budget not defaulted: %+v", filled)
	}
}
