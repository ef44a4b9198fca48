// Package analyzer drives the per-frame push-up analysis: landmark
// extraction, posture validation, metric computation and rep counting.
package analyzer

import (
	"fmt"

	"github.com/nevik/pushcoach/internal/counter"
	"github.com/nevik/pushcoach/internal/geometry"
	"github.com/nevik/pushcoach/internal/pose"
	"github.com/nevik/pushcoach/internal/scorer"
)

// repStartElbow is the elbow angle below which a repetition is considered
// to have started, opening the scoring window.
const repStartElbow = 160

// fpsWindow is the number of frame intervals averaged for the frame-rate
// estimate used in tempo scoring.
const fpsWindow = 30

// Config configures an Analyzer.
type Config struct {
	// Counter holds the rep state machine thresholds.
	Counter counter.Thresholds
	// Posture holds the position validation thresholds.
	Posture geometry.PostureThresholds
	// SkipParallel waives the arm-torso parallelism requirement on the
	// down-position test (lenient mode).
	SkipParallel bool
}

// Result is the consolidated output for one processed frame. It is
// ephemeral: the presentation layer consumes it once and discards it.
type Result struct {
	// RepCompleted is true only on the frame that finished a repetition.
	RepCompleted bool `json:"rep_completed"`
	// Reps is the total completed repetition count.
	Reps int `json:"reps"`
	// Phase is the counter's phase after this frame ("up" or "down").
	Phase string `json:"phase"`

	// ElbowAngle is the left/right averaged elbow angle in degrees.
	ElbowAngle float64 `json:"elbow_angle"`
	// ArmTorsoDiff is the averaged arm-to-torso parallelism angle.
	ArmTorsoDiff float64 `json:"arm_torso_diff"`
	// KneeAngle is the averaged knee angle in degrees.
	KneeAngle float64 `json:"knee_angle"`
	// BodyLine is the shoulder-hip-ankle deviation from straight, in
	// degrees; 0 is a perfect plank.
	BodyLine float64 `json:"body_line"`

	// PostureValid reports whether the frame qualified as a push-up
	// position. Counting is suppressed while it is false.
	PostureValid bool `json:"posture_valid"`
	// Reason is the posture diagnostic, meaningful when PostureValid is
	// false.
	Reason string `json:"reason"`

	// Score is the quality rating of the repetition that just completed.
	// Only set on frames where RepCompleted is true.
	Score *scorer.Score `json:"score,omitempty"`
}

// Analyzer processes pose frames strictly sequentially. It owns the rep
// counter and the per-rep scoring buffer; it holds no locks, so one
// goroutine must drive it.
type Analyzer struct {
	cfg     Config
	counter *counter.Counter
	scorer  *scorer.Scorer
	inRep   bool

	lastTimestampMs int64
	intervals       []float64
}

// New creates an Analyzer with the given configuration.
func New(cfg Config) (*Analyzer, error) {
	c, err := counter.New(cfg.Counter)
	if err != nil {
		return nil, fmt.Errorf("analyzer: %w", err)
	}
	return &Analyzer{
		cfg:     cfg,
		counter: c,
		scorer:  scorer.New(),
	}, nil
}

// ProcessFrame analyzes one pose observation and returns the frame result.
//
// Invalid posture gates counting: the counter is not updated at all on
// such frames, freezing its hysteresis state rather than decaying it.
// Metrics are still computed and reported for display.
func (a *Analyzer) ProcessFrame(f pose.Frame) Result {
	a.observeTimestamp(f.TimestampMs)

	nose := f.At(pose.Nose)
	ls, rs := f.At(pose.LeftShoulder), f.At(pose.RightShoulder)
	le, re := f.At(pose.LeftElbow), f.At(pose.RightElbow)
	lw, rw := f.At(pose.LeftWrist), f.At(pose.RightWrist)
	lh, rh := f.At(pose.LeftHip), f.At(pose.RightHip)
	lk, rk := f.At(pose.LeftKnee), f.At(pose.RightKnee)
	la, ra := f.At(pose.LeftAnkle), f.At(pose.RightAnkle)

	shoulder := pose.Midpoint(ls, rs)
	hip := pose.Midpoint(lh, rh)
	knee := pose.Midpoint(lk, rk)
	ankle := pose.Midpoint(la, ra)

	posture := geometry.ValidatePosture(shoulder, hip, knee, ankle, nose, a.cfg.Posture)

	elbowL := geometry.AngleAt(ls, le, lw)
	elbowR := geometry.AngleAt(rs, re, rw)
	elbowAvg := (elbowL + elbowR) / 2.0

	kneeL := geometry.AngleAt(lh, lk, la)
	kneeR := geometry.AngleAt(rh, rk, ra)
	kneeAvg := (kneeL + kneeR) / 2.0

	armTorsoL := geometry.AngularDifference(ls, le, lh)
	armTorsoR := geometry.AngularDifference(rs, re, rh)
	armTorsoAvg := (armTorsoL + armTorsoR) / 2.0

	lineDev := 180 - geometry.Collinearity(shoulder, hip, ankle)

	result := Result{
		ElbowAngle:   elbowAvg,
		ArmTorsoDiff: armTorsoAvg,
		KneeAngle:    kneeAvg,
		BodyLine:     lineDev,
		PostureValid: posture.Valid,
		Reason:       posture.Reason,
	}

	if posture.Valid {
		if !a.inRep && elbowAvg < repStartElbow {
			a.inRep = true
			a.scorer.Reset()
		}
		if a.inRep {
			a.scorer.Add(scorer.Sample{
				ElbowL:    elbowL,
				ElbowR:    elbowR,
				ShoulderY: shoulder.Y,
				HipY:      hip.Y,
				LineDev:   lineDev,
			})
		}

		armTorso := counter.SomeAngle(armTorsoAvg)
		if a.cfg.SkipParallel {
			armTorso = counter.NoAngle()
		}

		result.RepCompleted = a.counter.Update(elbowAvg, armTorso)

		if result.RepCompleted && a.inRep {
			a.inRep = false
			if score, err := a.scorer.Finalize(a.fps()); err == nil {
				result.Score = &score
			}
		}
	}

	result.Reps = a.counter.Reps()
	result.Phase = a.counter.Phase().String()
	return result
}

// Reset returns the analyzer to session start: zero reps, Up phase, empty
// scoring buffer. Thresholds are unchanged.
func (a *Analyzer) Reset() {
	a.counter.Reset()
	a.scorer.Reset()
	a.inRep = false
	a.lastTimestampMs = 0
	a.intervals = a.intervals[:0]
}

// Reps returns the completed repetition count.
func (a *Analyzer) Reps() int {
	return a.counter.Reps()
}

// Counter returns a snapshot of the rep counter state.
func (a *Analyzer) Counter() counter.Snapshot {
	return a.counter.Snapshot()
}

// observeTimestamp tracks frame intervals for the fps estimate.
func (a *Analyzer) observeTimestamp(ms int64) {
	if a.lastTimestampMs > 0 && ms > a.lastTimestampMs {
		interval := float64(ms-a.lastTimestampMs) / 1000.0
		if len(a.intervals) >= fpsWindow {
			copy(a.intervals, a.intervals[1:])
			a.intervals = a.intervals[:fpsWindow-1]
		}
		a.intervals = append(a.intervals, interval)
	}
	a.lastTimestampMs = ms
}

// fps estimates the observed frame rate, defaulting to 30 until enough
// timestamps have been seen.
func (a *Analyzer) fps() float64 {
	if len(a.intervals) == 0 {
		return 30
	}
	var sum float64
	for _, v := range a.intervals {
		sum += v
	}
	mean := sum / float64(len(a.intervals))
	if mean <= 0 {
		return 30
	}
	return 1.0 / mean
}
