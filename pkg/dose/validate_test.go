package dose

import (
	"math"
	"testing"
)

func TestParseTable(t *testing.T) {
	tests := []struct {
		name      string
		cells     [][]string
		control   []string
		wantConcs []float64
		wantCtrl  []float64
	}{
		{
			name: "clean grid",
			cells: [][]string{
				{"1", "0.98", "0.97"},
				{"10", "0.50", "0.52"},
			},
			control:   []string{"1.0", "1.02"},
			wantConcs: []float64{1, 10},
			wantCtrl:  []float64{1.0, 1.02},
		},
		{
			name: "row with text cell is dropped",
			cells: [][]string{
				{"1", "0.98", "n/a"},
				{"10", "0.50", "0.52"},
				{"100", "0.10", "0.12"},
			},
			control:   []string{"1.0"},
			wantConcs: []float64{10, 100},
			wantCtrl:  []float64{1.0},
		},
		{
			name: "row with blank cell is dropped",
			cells: [][]string{
				{"1", "", "0.97"},
				{"10", "0.50", "0.52"},
			},
			control:   []string{"1.0"},
			wantConcs: []float64{10},
			wantCtrl:  []float64{1.0},
		},
		{
			name: "comma decimals accepted",
			cells: [][]string{
				{"1,5", "0,98"},
				{"15", "0,45"},
			},
			control:   []string{"1,02"},
			wantConcs: []float64{1.5, 15},
			wantCtrl:  []float64{1.02},
		},
		{
			name: "bad control cell dropped individually",
			cells: [][]string{
				{"1", "0.98"},
				{"10", "0.50"},
			},
			control:   []string{"1.0", "oops", "0.98"},
			wantConcs: []float64{1, 10},
			wantCtrl:  []float64{1.0, 0.98},
		},
		{
			name: "concentration-only row is dropped",
			cells: [][]string{
				{"1"},
				{"10", "0.50"},
			},
			control:   []string{"1.0"},
			wantConcs: []float64{10},
			wantCtrl:  []float64{1.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			concs, reps, ctrl := ParseTable(tt.cells, tt.control)

			if !floatsEqual(concs, tt.wantConcs) {
				t.Errorf("concs = %v, want %v", concs, tt.wantConcs)
			}
			if len(reps) != len(concs) {
				t.Errorf("len(reps) = %d, want %d", len(reps), len(concs))
			}
			if !floatsEqual(ctrl, tt.wantCtrl) {
				t.Errorf("ctrl = %v, want %v", ctrl, tt.wantCtrl)
			}
		})
	}
}

func TestParseTable_ThousandsStyleCommaNotMisread(t *testing.T) {
	// A cell with both separators keeps the dot as the decimal point and
	// fails on the comma rather than silently reinterpreting it.
	concs, _, _ := ParseTable([][]string{
		{"1,000.5", "0.9"},
		{"10", "0.5"},
	}, []string{"1.0"})

	if len(concs) != 1 || concs[0] != 10 {
		t.Errorf("concs = %v, want only the unambiguous row", concs)
	}
}

func TestValidate_DropsNonFiniteRows(t *testing.T) {
	rows, ctrlMean, err := validate(Input{
		Concentrations: []float64{1, 10, 100},
		Replicates: [][]float64{
			{0.9, 0.91},
			{math.Inf(1), 0.5},
			{0.1, 0.12},
		},
		Control: []float64{1.0, 1.0},
	})
	if err != nil {
		t.Fatalf("validate() error = %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("len(rows) = %d, want 2 after dropping the Inf row", len(rows))
	}
	if ctrlMean != 1.0 {
		t.Errorf("control mean = %g, want 1.0", ctrlMean)
	}
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-12 {
			return false
		}
	}
	return true
}
