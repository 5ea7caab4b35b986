package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dosecurve/dosecurve/pkg/dose"
	"github.com/dosecurve/dosecurve/pkg/export"
)

func main() {
	inPath := flag.String("in", "", "CSV file with rows 'concentration,rep1,rep2,...' (default stdin)")
	control := flag.String("control", "", "comma-separated control absorbances, e.g. '1.0,1.02,0.98'")
	unit := flag.String("unit", "nM", "concentration unit label (passthrough)")
	compound := flag.String("compound", "", "compound name (passthrough)")
	pngPath := flag.String("png", "", "write the dose-response chart to this PNG file")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cells, err := readTable(*inPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("read input table")
	}

	concs, reps, ctrl := dose.ParseTable(cells, strings.Split(*control, ","))

	res, err := dose.Compute(dose.Input{
		Concentrations: concs,
		Replicates:     reps,
		Control:        ctrl,
		Unit:           *unit,
		Compound:       *compound,
	}, dose.DefaultFitOptions())
	if err != nil {
		logger.Fatal().Err(err).Msg("compute IC50")
	}

	printResult(res)

	if *pngPath != "" {
		curve := dose.CurvePoints(res.Params, res.MinConc, res.MaxConc, dose.DefaultSampleOptions())
		img, err := export.PNG(res, curve)
		if err != nil {
			logger.Fatal().Err(err).Msg("render chart")
		}
		if err := os.WriteFile(*pngPath, img, 0o644); err != nil {
			logger.Fatal().Err(err).Msg("write chart file")
		}
		logger.Info().Str("path", *pngPath).Msg("chart written")
	}
}

// readTable reads the dose-response grid as raw text cells; coercion and
// row dropping are the core's job, so a header row or stray text is fine.
func readTable(path string) ([][]string, error) {
	var src io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		src = f
	}

	r := csv.NewReader(src)
	r.FieldsPerRecord = -1 // ragged rows are dropped downstream
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return records, nil
}

func printResult(res *dose.Result) {
	if res.Compound != "" {
		fmt.Printf("Compound: %s\n", res.Compound)
	}
	if !res.InRange {
		// Beyond the tested range the point estimate is an extrapolated
		// lower bound, so report it as such.
		fmt.Printf("IC50 > %.4g %s (extrapolated beyond tested range)\n", res.MaxConc, res.Unit)
		return
	}
	fmt.Printf("IC50 = %.4g %s\n", res.Params.IC50, res.Unit)
	fmt.Printf("95%% CI: %.4g - %.4g %s\n", res.CILow, res.CIHigh, res.Unit)
	fmt.Printf("Hill slope: %.3g, asymptotes: %.3g%% / %.3g%%\n", res.Params.Hill, res.Params.Bottom, res.Params.Top)
}
