package dose

// normalize converts each row's replicate absorbances into a
// percent-of-control response:
//
//	response[i] = 100 * mean(replicates[i]) / controlMean
//
// No bounds are applied to the output. Responses legitimately fall outside
// [0, 100] under experimental noise; the fit bounds constrain the model,
// not the raw data.
func normalize(rows []row, controlMean float64) []Point {
	out := make([]Point, len(rows))
	for i, r := range rows {
		out[i] = Point{
			X: r.conc,
			Y: 100 * mean(r.reps) / controlMean,
		}
	}
	return out
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
