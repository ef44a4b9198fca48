// Package replay runs the push-up analysis over a recorded landmark
// session, for offline counting and scoring.
package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/nevik/pushcoach/internal/analyzer"
	"github.com/nevik/pushcoach/internal/filter"
	"github.com/nevik/pushcoach/internal/pose"
	"github.com/nevik/pushcoach/internal/scorer"
)

// recordedFrame is one line of a recorded session file: JSON Lines, one
// pose observation per line.
type recordedFrame struct {
	Keypoints   []pose.Landmark `json:"keypoints"`
	TimestampMs int64           `json:"timestamp_ms"`
}

// ReadFrames decodes a JSON Lines session recording. Blank lines are
// skipped; a malformed line or a wrong keypoint count fails with the line
// number.
func ReadFrames(r io.Reader) ([]pose.Frame, error) {
	var frames []pose.Frame

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec recordedFrame
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		frame, err := pose.FrameFromLandmarks(rec.Keypoints, rec.TimestampMs)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		frames = append(frames, frame)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	return frames, nil
}

// RepReport is the score of one completed repetition.
type RepReport struct {
	Rep   int
	Score scorer.Score
}

// Summary is the outcome of replaying a session.
type Summary struct {
	TotalFrames   int
	SkippedFrames int
	InvalidFrames int
	Reps          int
	Reports       []RepReport
}

// AverageScore returns the mean total score over all scored reps, or 0
// when none were scored.
func (s *Summary) AverageScore() float64 {
	if len(s.Reports) == 0 {
		return 0
	}
	var sum float64
	for _, r := range s.Reports {
		sum += r.Score.Total
	}
	return sum / float64(len(s.Reports))
}

// Runner replays frames through a smoother and an analyzer.
type Runner struct {
	analyzer      *analyzer.Analyzer
	smoother      *filter.Smoother
	minVisibility float64
}

// NewRunner creates a Runner. Frames with any required keypoint below
// minVisibility are skipped, matching the live ingestion path.
func NewRunner(cfg analyzer.Config, p filter.Params, minVisibility float64) (*Runner, error) {
	a, err := analyzer.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Runner{
		analyzer:      a,
		smoother:      filter.NewSmoother(p),
		minVisibility: minVisibility,
	}, nil
}

// Run processes the frames in order and returns the session summary.
// progress, if non-nil, is called once per frame.
func (r *Runner) Run(frames []pose.Frame, progress func()) Summary {
	summary := Summary{TotalFrames: len(frames)}

	for _, frame := range frames {
		if progress != nil {
			progress()
		}

		if !frame.AllVisible(r.minVisibility) {
			summary.SkippedFrames++
			continue
		}

		result := r.analyzer.ProcessFrame(r.smoother.Apply(frame))
		if !result.PostureValid {
			summary.InvalidFrames++
		}
		if result.RepCompleted && result.Score != nil {
			summary.Reports = append(summary.Reports, RepReport{
				Rep:   result.Reps,
				Score: *result.Score,
			})
		}
	}

	summary.Reps = r.analyzer.Reps()
	return summary
}
