package dose

import (
	"fmt"
	"math"

	"github.com/maorshutman/lm"
)

// FitOptions holds the box constraints and the solver budget. The bound
// values encode assay domain knowledge rather than hard invariants: the
// response is a percentage so Top sits near 100 but is allowed above it to
// tolerate noise, the IC50 search is capped at a multiple of the largest
// tested concentration to prevent divergence, and Hill is restricted to
// plausible sigmoid steepness. Adjust and re-invoke rather than expecting
// automatic retries; the fit is deterministic by contract.
type FitOptions struct {
	BottomMin float64
	BottomMax float64
	TopMin    float64
	TopMax    float64
	// IC50MaxFactor caps the IC50 search at IC50MaxFactor * max(conc).
	IC50MaxFactor float64
	HillMin       float64
	HillMax       float64

	// MaxIterations bounds the Levenberg-Marquardt iteration count.
	MaxIterations int
	// ObjectiveTol stops the solver once the summed squared residual
	// falls below it.
	ObjectiveTol float64
}

// DefaultFitOptions returns the standard inhibition-assay bounds:
// bottom in [0, 100], top in [50, 120], ic50 in (0, 10*max(conc)],
// hill in [0.1, 5], with a generous 30000-iteration budget.
func DefaultFitOptions() FitOptions {
	return FitOptions{
		BottomMin:     0,
		BottomMax:     100,
		TopMin:        50,
		TopMax:        120,
		IC50MaxFactor: 10,
		HillMin:       0.1,
		HillMax:       5,
		MaxIterations: 30000,
		ObjectiveTol:  1e-16,
	}
}

func (o FitOptions) withDefaults() FitOptions {
	def := DefaultFitOptions()
	if o.BottomMax == 0 && o.BottomMin == 0 {
		o.BottomMin, o.BottomMax = def.BottomMin, def.BottomMax
	}
	if o.TopMax == 0 && o.TopMin == 0 {
		o.TopMin, o.TopMax = def.TopMin, def.TopMax
	}
	if o.IC50MaxFactor == 0 {
		o.IC50MaxFactor = def.IC50MaxFactor
	}
	if o.HillMax == 0 && o.HillMin == 0 {
		o.HillMin, o.HillMax = def.HillMin, def.HillMax
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = def.MaxIterations
	}
	if o.ObjectiveTol == 0 {
		o.ObjectiveTol = def.ObjectiveTol
	}
	return o
}

// interval is one box constraint.
type interval struct {
	lo, hi float64
}

// squash maps an unconstrained internal coordinate onto (lo, hi) through a
// logistic curve. The solver runs unconstrained; the model only ever sees
// parameters inside their intervals.
func (iv interval) squash(u float64) float64 {
	return iv.lo + (iv.hi-iv.lo)/(1+math.Exp(-u))
}

// unsquash inverts squash for seeding. Seeds sitting on or outside a bound
// are pulled slightly inside so the internal coordinate stays finite.
func (iv interval) unsquash(p float64) float64 {
	const margin = 1e-6
	frac := (p - iv.lo) / (iv.hi - iv.lo)
	if frac < margin {
		frac = margin
	}
	if frac > 1-margin {
		frac = 1 - margin
	}
	return math.Log(frac / (1 - frac))
}

// fitBounds derives the four intervals from the options and the data. The
// IC50 interval is open at zero; a tiny positive floor keeps the log-domain
// transform finite without ever being a reachable estimate.
func fitBounds(opts FitOptions, minConc, maxConc float64) [4]interval {
	return [4]interval{
		{opts.BottomMin, opts.BottomMax},
		{opts.TopMin, opts.TopMax},
		{minConc * 1e-6, opts.IC50MaxFactor * maxConc},
		{opts.HillMin, opts.HillMax},
	}
}

// fit4PL runs the bounded nonlinear least-squares fit and returns the
// parameters with their 4x4 covariance. One deterministic seed, one bound
// set, no retries.
func fit4PL(points []Point, opts FitOptions) (Params, [4][4]float64, error) {
	var cov [4][4]float64

	n := len(points)
	concs := make([]float64, n)
	resp := make([]float64, n)
	for i, pt := range points {
		concs[i] = pt.X
		resp[i] = pt.Y
		if !isFinite(pt.X) || !isFinite(pt.Y) {
			return Params{}, cov, fmt.Errorf("point %d (%g, %g): %w", i, pt.X, pt.Y, ErrFitNonFinite)
		}
	}

	// With four parameters, fewer than five points leave no residual
	// degrees of freedom: the covariance the caller needs is not
	// estimable, so fail before burning solver iterations.
	if n <= 4 {
		return Params{}, cov, fmt.Errorf("%d points for 4 parameters: %w", n, ErrFitCovariance)
	}

	bounds := fitBounds(opts, minOf(concs), maxOf(concs))

	// Seeds: observed extremes for the asymptotes, the geometric mean of
	// the concentrations for IC50 (doses are laid out log-uniformly by
	// experimental design, so the geometric mean sits mid-curve where an
	// arithmetic mean would not), unit slope for Hill.
	seed := [4]float64{minOf(resp), maxOf(resp), geoMean(concs), 1.0}

	init := make([]float64, 4)
	for i, iv := range bounds {
		init[i] = iv.unsquash(seed[i])
	}

	residuals := func(dst, u []float64) {
		p := squashParams(bounds, u)
		for i := range concs {
			dst[i] = p.Eval(concs[i]) - resp[i]
		}
	}
	numJac := lm.NumJac{Func: residuals}

	problem := lm.LMProblem{
		Dim:        4,
		Size:       n,
		Func:       residuals,
		Jac:        numJac.Jac,
		InitParams: init,
		Tau:        1e-6,
		Eps1:       1e-8,
		Eps2:       1e-8,
	}

	results, err := lm.LM(problem, &lm.Settings{
		Iterations:   opts.MaxIterations,
		ObjectiveTol: opts.ObjectiveTol,
	})
	if err != nil {
		return Params{}, cov, fmt.Errorf("levenberg-marquardt: %v: %w", err, ErrFitNoConverge)
	}

	params := squashParams(bounds, results.X)
	for _, v := range []float64{params.Bottom, params.Top, params.IC50, params.Hill} {
		if !isFinite(v) {
			return Params{}, cov, fmt.Errorf("solver returned %g: %w", v, ErrFitNonFinite)
		}
	}

	// Covariance is reported in the original parameter space at the
	// solution, which is what callers interpret confidence intervals in.
	cov, err = covariance(concs, resp, params)
	if err != nil {
		return Params{}, cov, err
	}

	return params, cov, nil
}

func squashParams(bounds [4]interval, u []float64) Params {
	return Params{
		Bottom: bounds[0].squash(u[0]),
		Top:    bounds[1].squash(u[1]),
		IC50:   bounds[2].squash(u[2]),
		Hill:   bounds[3].squash(u[3]),
	}
}

// geoMean is exp(mean(log(x))); callers guarantee positive inputs.
func geoMean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += math.Log(v)
	}
	return math.Exp(sum / float64(len(vals)))
}

func minOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
