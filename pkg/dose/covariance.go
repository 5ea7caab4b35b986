package dose

import (
	"fmt"
	"math"
)

// covariance estimates the 4x4 parameter covariance at the solution:
//
//	cov = s^2 * (J^T J)^-1,  s^2 = RSS / (n - 4)
//
// with J the model Jacobian with respect to (bottom, top, ic50, hill),
// evaluated by central differences. Fewer than 5 points leave no residual
// degrees of freedom, and a singular normal matrix means an unidentifiable
// parameter combination (e.g. all responses nearly equal); both are
// reported as ErrFitCovariance.
func covariance(concs, resp []float64, p Params) ([4][4]float64, error) {
	var cov [4][4]float64

	n := len(concs)
	dof := n - 4
	if dof <= 0 {
		return cov, fmt.Errorf("%d points for 4 parameters: %w", n, ErrFitCovariance)
	}

	rss := 0.0
	for i, c := range concs {
		r := p.Eval(c) - resp[i]
		rss += r * r
	}
	s2 := rss / float64(dof)

	jac := jacobian(concs, p)

	// Normal matrix A = J^T J.
	var a [4][4]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			sum := 0.0
			for k := 0; k < n; k++ {
				sum += jac[k][i] * jac[k][j]
			}
			a[i][j] = sum
		}
	}

	inv, err := invert4x4(a)
	if err != nil {
		return cov, fmt.Errorf("invert normal matrix: %v: %w", err, ErrFitCovariance)
	}

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			cov[i][j] = s2 * inv[i][j]
			if !isFinite(cov[i][j]) {
				return cov, fmt.Errorf("covariance[%d][%d] = %g: %w", i, j, cov[i][j], ErrFitCovariance)
			}
		}
	}

	return cov, nil
}

// jacobian differentiates the model at each concentration with respect to
// each parameter, using central differences with a per-parameter step
// scaled to the parameter magnitude.
func jacobian(concs []float64, p Params) [][4]float64 {
	const rel = 1e-6

	out := make([][4]float64, len(concs))
	vec := [4]float64{p.Bottom, p.Top, p.IC50, p.Hill}

	for j := 0; j < 4; j++ {
		h := rel * math.Max(math.Abs(vec[j]), 1e-3)

		up, down := vec, vec
		up[j] += h
		down[j] -= h
		pu := paramsFromVec(up)
		pd := paramsFromVec(down)

		for i, c := range concs {
			out[i][j] = (pu.Eval(c) - pd.Eval(c)) / (2 * h)
		}
	}

	return out
}

func paramsFromVec(v [4]float64) Params {
	return Params{Bottom: v[0], Top: v[1], IC50: v[2], Hill: v[3]}
}

// invert4x4 inverts a 4x4 matrix by Gaussian elimination with partial
// pivoting on the augmented [A | I] system. Returns an error on a zero
// pivot (singular matrix).
func invert4x4(a [4][4]float64) ([4][4]float64, error) {
	var aug [4][8]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			aug[i][j] = a[i][j]
		}
		aug[i][4+i] = 1
	}

	// Forward elimination with partial pivoting.
	for col := 0; col < 4; col++ {
		pivot := col
		maxAbs := math.Abs(aug[col][col])
		for r := col + 1; r < 4; r++ {
			if math.Abs(aug[r][col]) > maxAbs {
				maxAbs = math.Abs(aug[r][col])
				pivot = r
			}
		}
		if maxAbs == 0 {
			return [4][4]float64{}, fmt.Errorf("singular matrix (zero pivot in column %d)", col)
		}
		if pivot != col {
			aug[col], aug[pivot] = aug[pivot], aug[col]
		}
		for r := col + 1; r < 4; r++ {
			factor := aug[r][col] / aug[col][col]
			for c := col; c < 8; c++ {
				aug[r][c] -= factor * aug[col][c]
			}
		}
	}

	// Back substitution, one identity column at a time.
	var inv [4][4]float64
	for col := 0; col < 4; col++ {
		for i := 3; i >= 0; i-- {
			if aug[i][i] == 0 {
				return [4][4]float64{}, fmt.Errorf("singular matrix during back substitution")
			}
			sum := aug[i][4+col]
			for j := i + 1; j < 4; j++ {
				sum -= aug[i][j] * inv[j][col]
			}
			inv[i][col] = sum / aug[i][i]
		}
	}

	return inv, nil
}
