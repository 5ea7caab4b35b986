package dose

import (
	"fmt"
	"math"
)

// waldZ is the two-sided 95% normal quantile.
const waldZ = 1.96

// infer derives the IC50 standard error, its Wald 95% confidence interval,
// and the in-range classification from the fit covariance. It performs no
// iterative computation; the only failure mode is a non-finite or negative
// IC50 variance propagated from the fit.
func infer(p Params, cov [4][4]float64, maxConc float64) (se, ciLow, ciHigh float64, inRange bool, err error) {
	v := cov[2][2]
	if !isFinite(v) || v < 0 {
		return 0, 0, 0, false, fmt.Errorf("ic50 variance %g: %w", v, ErrFitCovariance)
	}

	se = math.Sqrt(v)
	ciLow = p.IC50 - waldZ*se
	ciHigh = p.IC50 + waldZ*se

	// An IC50 beyond the tested range is an extrapolated lower bound, not
	// a trustworthy point estimate. The flag is surfaced rather than
	// folded into the numbers so presentation layers can say "IC50 > max".
	inRange = p.IC50 <= maxConc

	return se, ciLow, ciHigh, inRange, nil
}
