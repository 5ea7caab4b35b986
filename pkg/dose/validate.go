package dose

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// row is one dose level after validation.
type row struct {
	conc float64
	reps []float64
}

// validate coerces the input into fit-ready rows. A row with a non-finite
// concentration or any non-finite replicate is dropped entirely, mirroring
// how blank or textual cells are dropped from pasted grids. After dropping,
// it fails when fewer than 2 rows remain, any concentration is <= 0, or the
// control mean is exactly zero.
func validate(in Input) ([]row, float64, error) {
	if len(in.Concentrations) != len(in.Replicates) {
		return nil, 0, fmt.Errorf("%d concentrations but %d replicate rows: %w",
			len(in.Concentrations), len(in.Replicates), ErrValidation)
	}

	rows := make([]row, 0, len(in.Concentrations))
	for i, c := range in.Concentrations {
		if !finiteRow(c, in.Replicates[i]) || len(in.Replicates[i]) == 0 {
			continue
		}
		rows = append(rows, row{conc: c, reps: in.Replicates[i]})
	}

	if len(rows) < 2 {
		return nil, 0, fmt.Errorf("%d rows after dropping invalid cells: %w", len(rows), ErrTooFewRows)
	}
	for _, r := range rows {
		// Zero or negative concentrations cannot be placed on the log
		// scale the fit and the sampler work on.
		if r.conc <= 0 {
			return nil, 0, fmt.Errorf("concentration %g: %w", r.conc, ErrNonPositiveConc)
		}
	}

	control := make([]float64, 0, len(in.Control))
	for _, v := range in.Control {
		if isFinite(v) {
			control = append(control, v)
		}
	}
	if len(control) == 0 {
		return nil, 0, ErrEmptyControl
	}
	controlMean := mean(control)
	if controlMean == 0 {
		return nil, 0, ErrZeroControl
	}

	return rows, controlMean, nil
}

func finiteRow(conc float64, reps []float64) bool {
	if !isFinite(conc) {
		return false
	}
	for _, v := range reps {
		if !isFinite(v) {
			return false
		}
	}
	return true
}

// ParseTable coerces a pasted grid of text cells into numeric input. The
// first column of each row is the concentration, the remaining columns are
// absorbance replicates. Any row containing a blank or non-numeric cell is
// dropped (not defaulted); control cells that fail coercion are dropped
// individually, since one bad control replicate must not discard the whole
// control set. Numeric checks (row count, positivity, control mean) are
// left to Compute so that both the pasted-grid path and the typed-struct
// path share them.
func ParseTable(cells [][]string, control []string) (concs []float64, reps [][]float64, ctrl []float64) {
	for _, r := range cells {
		if len(r) < 2 {
			continue
		}
		vals := make([]float64, 0, len(r))
		ok := true
		for _, cell := range r {
			v, err := parseCell(cell)
			if err != nil {
				ok = false
				break
			}
			vals = append(vals, v)
		}
		if !ok {
			continue
		}
		concs = append(concs, vals[0])
		reps = append(reps, vals[1:])
	}

	for _, cell := range control {
		v, err := parseCell(cell)
		if err != nil {
			continue
		}
		ctrl = append(ctrl, v)
	}

	return concs, reps, ctrl
}

// parseCell accepts both dot and comma decimal separators; plate-reader
// exports and manual entry in comma-decimal locales produce both.
func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty cell")
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse cell %q: %w", s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite cell %q", s)
	}
	return v, nil
}
