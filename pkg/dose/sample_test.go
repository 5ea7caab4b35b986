package dose

import (
	"math"
	"testing"
)

func TestCurve_MidpointIdentity(t *testing.T) {
	// Definitional property of the 4PL model: the curve crosses the
	// midpoint of its asymptotes exactly at the IC50.
	p := Params{Bottom: 3, Top: 98, IC50: 30, Hill: 1.1}

	got := p.Eval(p.IC50)
	want := (p.Bottom + p.Top) / 2
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Eval(IC50) = %g, want %g", got, want)
	}
}

func TestCurve_CountAndSpacing(t *testing.T) {
	p := Params{Bottom: 0, Top: 100, IC50: 30, Hill: 1}
	opts := SampleOptions{Points: 300, ExtendDecades: 0}

	var xs []float64
	for x, y := range Curve(p, 1, 300, opts) {
		if !isFinite(x) || !isFinite(y) {
			t.Fatalf("non-finite sample (%g, %g)", x, y)
		}
		xs = append(xs, x)
	}

	if len(xs) != 300 {
		t.Fatalf("sample count = %d, want 300", len(xs))
	}
	if math.Abs(xs[0]-1) > 1e-9 || math.Abs(xs[len(xs)-1]-300) > 1e-6 {
		t.Errorf("sweep spans [%g, %g], want [1, 300]", xs[0], xs[len(xs)-1])
	}

	// Log-uniform spacing: constant ratio between consecutive samples.
	ratio := xs[1] / xs[0]
	for i := 2; i < len(xs); i++ {
		if math.Abs(xs[i]/xs[i-1]-ratio) > 1e-6 {
			t.Fatalf("spacing not log-uniform at index %d", i)
		}
	}
}

func TestCurve_Restartable(t *testing.T) {
	p := Params{Bottom: 0, Top: 100, IC50: 10, Hill: 1}
	seq := Curve(p, 1, 100, SampleOptions{Points: 10})

	collect := func() []Point {
		var out []Point
		for x, y := range seq {
			out = append(out, Point{X: x, Y: y})
		}
		return out
	}

	first := collect()
	second := collect()
	if len(first) != len(second) {
		t.Fatalf("restart changed length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("restart changed sample %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestCurve_EarlyBreak(t *testing.T) {
	p := Params{Bottom: 0, Top: 100, IC50: 10, Hill: 1}

	n := 0
	for range Curve(p, 1, 100, SampleOptions{Points: 50}) {
		n++
		if n == 7 {
			break
		}
	}
	if n != 7 {
		t.Errorf("consumed %d samples, want 7", n)
	}
}

func TestCurvePoints_ExtendedRange(t *testing.T) {
	p := Params{Bottom: 0, Top: 100, IC50: 30, Hill: 1}
	pts := CurvePoints(p, 1, 300, DefaultSampleOptions())

	if len(pts) != 300 {
		t.Fatalf("len = %d, want 300", len(pts))
	}
	// Half a decade of extension on each side.
	wantLo := math.Pow(10, math.Log10(1)-0.5)
	wantHi := math.Pow(10, math.Log10(300)+0.5)
	if math.Abs(pts[0].X-wantLo) > 1e-9 {
		t.Errorf("first x = %g, want %g", pts[0].X, wantLo)
	}
	if math.Abs(pts[len(pts)-1].X-wantHi) > 1e-6*wantHi {
		t.Errorf("last x = %g, want %g", pts[len(pts)-1].X, wantHi)
	}
}
