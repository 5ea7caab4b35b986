package dose

// Compute runs the full pipeline on one compound's measurements: validate,
// normalize to percent of control, fit the four-parameter logistic model,
// and derive the IC50 confidence interval. Zero-valued FitOptions fields
// fall back to DefaultFitOptions.
//
// Errors are either ErrValidation (fix the input and retry) or ErrFit (the
// optimization is not trustworthy); both abort immediately with no partial
// numeric result.
func Compute(in Input, opts FitOptions) (*Result, error) {
	opts = opts.withDefaults()

	rows, controlMean, err := validate(in)
	if err != nil {
		return nil, err
	}

	points := normalize(rows, controlMean)

	params, cov, err := fit4PL(points, opts)
	if err != nil {
		return nil, err
	}

	minConc := points[0].X
	maxConc := points[0].X
	for _, pt := range points[1:] {
		if pt.X < minConc {
			minConc = pt.X
		}
		if pt.X > maxConc {
			maxConc = pt.X
		}
	}

	se, ciLow, ciHigh, inRange, err := infer(params, cov, maxConc)
	if err != nil {
		return nil, err
	}

	return &Result{
		Params:    params,
		IC50SE:    se,
		CILow:     ciLow,
		CIHigh:    ciHigh,
		InRange:   inRange,
		Responses: points,
		MinConc:   minConc,
		MaxConc:   maxConc,
		Unit:      in.Unit,
		Compound:  in.Compound,
	}, nil
}
