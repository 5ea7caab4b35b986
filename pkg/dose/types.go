// Package dose computes the half-maximal inhibitory concentration (IC50) of
// a compound from dose-response absorbance measurements. It normalizes raw
// absorbances to percent-of-control responses, fits a four-parameter
// logistic model under box constraints, and derives a Wald 95% confidence
// interval for the IC50 from the fit covariance.
//
// The package is pure: no logging, no I/O, no state between calls. It is
// safe to call concurrently as long as each call owns its input slices.
package dose

import (
	"errors"
	"fmt"
	"math"
)

// ErrValidation marks input data that is structurally or numerically
// unusable (too few rows, non-positive concentration, zero control mean).
// Recoverable by the caller re-prompting for corrected input.
var ErrValidation = errors.New("invalid input")

// ErrFit marks an optimization that did not produce a trustworthy result.
// No partial numbers are returned alongside it; a non-converged fit's
// parameters are not meaningful even when numerically present.
var ErrFit = errors.New("fit not trustworthy")

var (
	ErrTooFewRows      = fmt.Errorf("fewer than 2 valid rows: %w", ErrValidation)
	ErrNonPositiveConc = fmt.Errorf("concentration must be positive: %w", ErrValidation)
	ErrZeroControl     = fmt.Errorf("control mean is zero: %w", ErrValidation)
	ErrEmptyControl    = fmt.Errorf("no usable control values: %w", ErrValidation)

	ErrFitNoConverge = fmt.Errorf("solver did not converge: %w", ErrFit)
	ErrFitCovariance = fmt.Errorf("covariance not estimable: %w", ErrFit)
	ErrFitNonFinite  = fmt.Errorf("non-finite value in fit: %w", ErrFit)
)

// Input carries everything one computation consumes. Concentrations[i]
// pairs with Replicates[i]; Unit and Compound are passthrough labels for
// presentation layers and are never interpreted.
type Input struct {
	Concentrations []float64
	Replicates     [][]float64
	Control        []float64
	Unit           string
	Compound       string
}

// Params holds the fitted four-parameter logistic coefficients. Bottom and
// Top are response-percent asymptotes, IC50 the half-maximal concentration,
// Hill the slope of the sigmoid transition.
type Params struct {
	Bottom float64 `json:"bottom"`
	Top    float64 `json:"top"`
	IC50   float64 `json:"ic50"`
	Hill   float64 `json:"hill"`
}

// Eval returns the modeled response percent at concentration x:
//
//	response(x) = bottom + (top - bottom) / (1 + (x/ic50)^hill)
//
// Strictly decreasing in x for hill > 0, which is the standard assumption
// for inhibition curves.
func (p Params) Eval(x float64) float64 {
	return p.Bottom + (p.Top-p.Bottom)/(1+math.Pow(x/p.IC50, p.Hill))
}

// Point is one (concentration, response percent) sample.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Result is the immutable output artifact of one computation.
type Result struct {
	Params Params

	// IC50SE is the asymptotic standard error of the IC50 estimate.
	IC50SE float64
	// CILow and CIHigh bound the Wald 95% confidence interval,
	// IC50 ± 1.96·SE. An asymptotic normal approximation; known to be
	// optimistic for small replicate counts.
	CILow  float64
	CIHigh float64

	// InRange is false when the fitted IC50 exceeds the largest tested
	// concentration. Such a result is an extrapolated lower bound, not a
	// trustworthy point estimate, and presentation layers must say so.
	InRange bool

	// Responses are the observed percent-of-control points the model was
	// fitted to, one per surviving input row.
	Responses []Point

	// MinConc and MaxConc span the tested concentration range.
	MinConc float64
	MaxConc float64

	Unit     string
	Compound string
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
