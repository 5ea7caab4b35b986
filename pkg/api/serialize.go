package api

import "github.com/dosecurve/dosecurve/pkg/dose"

// ComputeRequest is the wire form of one compound's measurements. Numeric
// plausibility (positivity, control mean, row dropping) is the core's job;
// the API layer only enforces shape.
type ComputeRequest struct {
	Compound       string      `json:"compound"`
	Unit           string      `json:"unit"`
	Concentrations []float64   `json:"concentrations" validate:"required,min=2"`
	Replicates     [][]float64 `json:"replicates" validate:"required,min=2"`
	Control        []float64   `json:"control" validate:"required,min=1"`
	// Curve requests the sampled fitted curve alongside the numbers.
	Curve bool `json:"curve"`
}

type ComputeResponse struct {
	Compound   string      `json:"compound"`
	Unit       string      `json:"unit"`
	Parameters dose.Params `json:"parameters"`
	IC50SE     float64     `json:"ic50_se"`
	CILow      float64     `json:"ci_low"`
	CIHigh     float64     `json:"ci_high"`
	InRange    bool        `json:"in_range"`
	Responses  []PointDTO  `json:"responses"`
	Curve      []PointDTO  `json:"curve,omitempty"`
}

type PointDTO struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func deserializeInput(req ComputeRequest) dose.Input {
	return dose.Input{
		Concentrations: req.Concentrations,
		Replicates:     req.Replicates,
		Control:        req.Control,
		Unit:           req.Unit,
		Compound:       req.Compound,
	}
}

func serializeResult(res *dose.Result, curve []dose.Point) ComputeResponse {
	return ComputeResponse{
		Compound:   res.Compound,
		Unit:       res.Unit,
		Parameters: res.Params,
		IC50SE:     res.IC50SE,
		CILow:      res.CILow,
		CIHigh:     res.CIHigh,
		InRange:    res.InRange,
		Responses:  serializePoints(res.Responses),
		Curve:      serializePoints(curve),
	}
}

func serializePoints(in []dose.Point) []PointDTO {
	if in == nil {
		return nil
	}
	out := make([]PointDTO, len(in))
	for i, pt := range in {
		out[i] = PointDTO{X: pt.X, Y: pt.Y}
	}
	return out
}
