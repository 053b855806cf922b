// Command cli runs the phase-locking estimator once, on synthetic data or
// a directory of CSV recordings, prints a summary table and optionally
// writes an .xlsx workbook.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"neurosync/adapters/csvfile"
	"neurosync/adapters/excel"
	"neurosync/adapters/plv"
	"neurosync/adapters/rng"
	"neurosync/app"
	"neurosync/domain/core"
	"neurosync/domain/run"
	"neurosync/domain/signal"
	"neurosync/internal/config"
	"neurosync/internal/testkit"
	"neurosync/ports"
)

func main() {
	var (
		csvDir      = flag.String("csv", "", "directory of CSV recordings; empty runs on synthetic data")
		recordingID = flag.String("recording", "demo", "recording id to analyze")
		sampleRate  = flag.Float64("rate", 500, "sample rate in Hz for CSV input")
		lowHz       = flag.Float64("low", 4, "band lower edge in Hz")
		highHz      = flag.Float64("high", 12, "band upper edge in Hz")
		order       = flag.Int("order", 64, "FIR filter order; 2*order+1 taps")
		startMs     = flag.Float64("start", 0, "window start in ms (0 with end=0 means full epoch)")
		endMs       = flag.Float64("end", 0, "window end in ms")
		seedChannel = flag.String("seed-channel", "", "seed channel label; empty analyzes all pairs")
		reps        = flag.Int("bootstrap", 0, "bootstrap repetitions; 0 disables intervals")
		seed        = flag.Int64("seed", 1, "bootstrap seed")
		xlsxPath    = flag.String("xlsx", "", "write results to this .xlsx file")
		summarize   = flag.Bool("behavior", false, "also print the behavioral model summary")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[CLI] failed to load configuration: %v", err)
	}

	var source ports.EpochSource
	if *csvDir != "" {
		source = csvfile.NewSource(*csvDir, *sampleRate)
	} else {
		source = testkit.NewSyntheticSource(testkit.DefaultSyntheticConfig())
	}

	repo := testkit.NewMemoryRepository()
	engine := plv.NewEngine(rng.New(), cfg.Analysis.Workers)
	analysis := app.NewAnalysisService(source, repo, engine)

	ctx := context.Background()
	ar, err := analysis.Execute(ctx, app.SubmitRequest{
		RecordingID:   core.RecordingID(*recordingID),
		Band:          signal.BandSpec{LowHz: *lowHz, HighHz: *highHz, Order: *order},
		Window:        signal.Window{StartMs: *startMs, EndMs: *endMs},
		SeedChannel:   core.ChannelLabel(*seedChannel),
		BootstrapReps: *reps,
		Seed:          *seed,
	})
	if err != nil {
		log.Fatalf("[CLI] analysis failed: %v", err)
	}

	result, err := analysis.GetResult(ctx, ar.ID)
	if err != nil {
		log.Fatalf("[CLI] failed to load result: %v", err)
	}

	printSummary(ar, result)

	if *summarize {
		modeling := app.NewModelingService(source)
		summary, err := modeling.Summarize(ctx, ar.RecordingID)
		if err != nil {
			log.Fatalf("[CLI] behavioral summary failed: %v", err)
		}
		printBehavior(summary)
	}

	if *xlsxPath != "" {
		f, err := os.Create(*xlsxPath)
		if err != nil {
			log.Fatalf("[CLI] failed to create %s: %v", *xlsxPath, err)
		}
		defer f.Close()
		if err := excel.NewWriter().WritePLV(f, ar, result); err != nil {
			log.Fatalf("[CLI] failed to write workbook: %v", err)
		}
		log.Printf("[CLI] wrote %s", *xlsxPath)
	}
}

func printSummary(ar *run.AnalysisRun, result *signal.PLVResult) {
	fmt.Printf("run %s  recording %s  band %g-%g Hz  order %d\n",
		ar.ID, ar.RecordingID, ar.Band.LowHz, ar.Band.HighHz, ar.Band.Order)
	fmt.Printf("window samples [%d, %d)  %d time points  %d degenerate warnings\n\n",
		result.StartSample, result.EndSample, len(result.TimeMs), len(result.Warnings))

	fmt.Printf("%-16s %10s %10s %10s\n", "pair", "mean PLV", "min", "max")
	for _, pair := range result.Pairs {
		mean, min, max := seriesStats(pair.Values)
		fmt.Printf("%-16s %10.4f %10.4f %10.4f\n",
			fmt.Sprintf("%s-%s", pair.Pair.A, pair.Pair.B), mean, min, max)
	}
}

func printBehavior(summary *app.SubjectSummary) {
	fmt.Printf("\nbehavior: %d trials, error rate %.3f\n", summary.Trials, summary.ErrorRate)
	if summary.ExGaussian != nil {
		fmt.Printf("ex-Gaussian RT: mu=%.1f ms  sigma=%.1f ms  tau=%.1f ms  (mean %.1f ms)\n",
			summary.ExGaussian.Mu, summary.ExGaussian.Sigma, summary.ExGaussian.Tau, summary.ExGaussian.Mean())
	}
	if summary.RTLogistic != nil && len(summary.RTLogistic.Coefficients) == 2 {
		fmt.Printf("error ~ RT logistic: intercept=%.3f  slope=%.3f (p=%.3g)\n",
			summary.RTLogistic.Coefficients[0], summary.RTLogistic.Coefficients[1], summary.RTLogistic.PValues[1])
	}
}

func seriesStats(values []float64) (mean, min, max float64) {
	min, max = values[0], values[0]
	for _, v := range values {
		mean += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return mean / float64(len(values)), min, max
}
