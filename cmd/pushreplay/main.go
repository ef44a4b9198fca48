// Command pushreplay analyzes a recorded landmark session offline and
// prints repetition counts and per-rep form scores.
//
// The input is JSON Lines: one pose observation per line, each with 17
// MoveNet keypoints and a capture timestamp in milliseconds.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/cheggaaa/pb/v3"

	"github.com/nevik/pushcoach/internal/analyzer"
	"github.com/nevik/pushcoach/internal/counter"
	"github.com/nevik/pushcoach/internal/filter"
	"github.com/nevik/pushcoach/internal/geometry"
	"github.com/nevik/pushcoach/internal/replay"
)

var (
	inputPath     string
	strict        bool
	skipParallel  bool
	minVisibility float64
)

func init() {
	flag.StringVar(&inputPath, "input", "", "recorded session file (JSON Lines)")
	flag.BoolVar(&strict, "strict", false, "use the strict thresholds profile")
	flag.BoolVar(&skipParallel, "skip-parallel", false, "waive the arm-torso parallelism check")
	flag.Float64Var(&minVisibility, "min-visibility", 0.3, "minimum keypoint confidence")
	flag.Parse()
}

func main() {
	if inputPath == "" {
		log.Println("input file must be provided")
		flag.Usage()
		os.Exit(1)
	}

	f, err := os.Open(inputPath)
	if err != nil {
		log.Fatalf("Failed to open session: %v", err)
	}
	defer f.Close()

	frames, err := replay.ReadFrames(f)
	if err != nil {
		log.Fatalf("Failed to read session: %v", err)
	}
	if len(frames) == 0 {
		log.Fatal("Session contains no frames")
	}

	cfg := analyzer.Config{
		Counter:      counter.LenientThresholds(),
		Posture:      geometry.DefaultPostureThresholds(),
		SkipParallel: skipParallel,
	}
	if strict {
		cfg.Counter = counter.DefaultThresholds()
		cfg.Posture = geometry.StrictPostureThresholds()
	}

	runner, err := replay.NewRunner(cfg, filter.DefaultParams(), minVisibility)
	if err != nil {
		log.Fatalf("Failed to set up analysis: %v", err)
	}

	bar := pb.StartNew(len(frames))
	summary := runner.Run(frames, func() { bar.Increment() })
	bar.Finish()

	for _, report := range summary.Reports {
		fmt.Printf("Rep %d: %.1f/100 (ROM %.0f, depth %.0f, body line %.0f, tempo %.0f, stability %.0f, symmetry %.0f)\n",
			report.Rep, report.Score.Total,
			report.Score.ROM, report.Score.Depth, report.Score.BodyLine,
			report.Score.Tempo, report.Score.Stability, report.Score.Symmetry)
	}

	fmt.Printf("\nFrames: %d total, %d low visibility, %d invalid posture\n",
		summary.TotalFrames, summary.SkippedFrames, summary.InvalidFrames)
	fmt.Printf("Reps: %d", summary.Reps)
	if len(summary.Reports) > 0 {
		fmt.Printf(" (average score %.1f/100)", summary.AverageScore())
	}
	fmt.Println()
}
