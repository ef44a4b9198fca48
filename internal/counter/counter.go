// Package counter implements the push-up repetition state machine.
//
// The counter classifies each frame's elbow angle as down, up or
// transitional and applies hysteresis: a phase transition commits only
// after a configured number of consecutive qualifying frames, which
// suppresses false reps from single-frame pose jitter. One repetition is
// counted on each Down -> Up transition.
package counter

import "fmt"

// Phase is the counter's current position classification.
type Phase int

const (
	// PhaseUp is the extended-arm position. It is the initial phase.
	PhaseUp Phase = iota
	// PhaseDown is the bottom of the push-up.
	PhaseDown
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseUp:
		return "up"
	case PhaseDown:
		return "down"
	default:
		return "unknown"
	}
}

// OptAngle is an optional angle measurement in degrees. The zero value is
// "absent". Passing an absent arm-torso difference to Update waives the
// parallelism requirement for the down-position test.
type OptAngle struct {
	deg   float64
	valid bool
}

// SomeAngle returns a present OptAngle.
func SomeAngle(deg float64) OptAngle {
	return OptAngle{deg: deg, valid: true}
}

// NoAngle returns an absent OptAngle.
func NoAngle() OptAngle {
	return OptAngle{}
}

// Present reports whether the measurement is set.
func (o OptAngle) Present() bool {
	return o.valid
}

// Degrees returns the measurement and whether it is set.
func (o OptAngle) Degrees() (float64, bool) {
	return o.deg, o.valid
}

// Thresholds is the immutable configuration captured at counter
// construction. There is no hot-reload: build a new Counter to change them.
type Thresholds struct {
	// DownAngle is the target elbow angle for the down position.
	DownAngle float64
	// AngleTolerance is the accepted deviation around DownAngle.
	AngleTolerance float64
	// UpThreshold is the elbow angle above which the arm counts as extended.
	UpThreshold float64
	// ParallelThreshold is the maximum arm-torso angle difference for a
	// valid down position.
	ParallelThreshold float64
	// MinDownFrames is the number of consecutive down frames required to
	// commit the Down phase.
	MinDownFrames int
	// MinUpFrames is the number of consecutive up frames required to
	// commit the Up phase and count the rep.
	MinUpFrames int
}

// DefaultThresholds returns the strict profile: a 90° bottom position
// within 15°, extension past 140°, arm within 20° of the torso, and three
// consecutive frames to commit either phase.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DownAngle:         90,
		AngleTolerance:    15,
		UpThreshold:       140,
		ParallelThreshold: 20,
		MinDownFrames:     3,
		MinUpFrames:       3,
	}
}

// LenientThresholds returns the forgiving profile tuned for noisy webcam
// input: a wide 50-110° down range, extension past 120°, and single-frame
// phase commits.
func LenientThresholds() Thresholds {
	return Thresholds{
		DownAngle:         80,
		AngleTolerance:    30,
		UpThreshold:       120,
		ParallelThreshold: 40,
		MinDownFrames:     1,
		MinUpFrames:       1,
	}
}

// Validate checks that the thresholds describe a usable state machine.
func (t Thresholds) Validate() error {
	if t.DownAngle <= 0 || t.DownAngle >= 180 {
		return fmt.Errorf("down angle %v out of range (0, 180)", t.DownAngle)
	}
	if t.AngleTolerance <= 0 {
		return fmt.Errorf("angle tolerance %v must be positive", t.AngleTolerance)
	}
	if t.UpThreshold <= t.DownAngle+t.AngleTolerance {
		return fmt.Errorf("up threshold %v must exceed the down range upper bound %v",
			t.UpThreshold, t.DownAngle+t.AngleTolerance)
	}
	if t.ParallelThreshold <= 0 {
		return fmt.Errorf("parallel threshold %v must be positive", t.ParallelThreshold)
	}
	if t.MinDownFrames < 1 {
		return fmt.Errorf("min down frames %d must be at least 1", t.MinDownFrames)
	}
	if t.MinUpFrames < 1 {
		return fmt.Errorf("min up frames %d must be at least 1", t.MinUpFrames)
	}
	return nil
}

// Snapshot is a read-only copy of the counter's state.
type Snapshot struct {
	Phase      Phase
	Reps       int
	DownFrames int
	UpFrames   int
}

// Counter is the repetition state machine. It is not safe for concurrent
// use; the frame loop owns it and calls Update strictly sequentially.
type Counter struct {
	thresholds Thresholds
	phase      Phase
	reps       int
	downFrames int
	upFrames   int
}

// New creates a Counter with the given thresholds.
func New(th Thresholds) (*Counter, error) {
	if err := th.Validate(); err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}
	return &Counter{thresholds: th, phase: PhaseUp}, nil
}

// Update feeds one frame's measurements to the state machine and reports
// whether a repetition was completed by this call.
//
// The frame is classified in order: down position (elbow within tolerance
// of the down angle, and arm parallel to torso when armTorso is present),
// then up position (elbow past the up threshold), otherwise transitional.
// Transitional frames decay both hysteresis counters by one rather than
// resetting them, so a single-frame glitch inside a consistent motion is
// not punished.
func (c *Counter) Update(elbowAngle float64, armTorso OptAngle) bool {
	inDownRange := abs(elbowAngle-c.thresholds.DownAngle) <= c.thresholds.AngleTolerance

	inDownPosition := inDownRange
	if diff, ok := armTorso.Degrees(); ok {
		inDownPosition = inDownRange && diff <= c.thresholds.ParallelThreshold
	}

	switch {
	case inDownPosition:
		c.downFrames++
		c.upFrames = 0
		if c.phase == PhaseUp && c.downFrames >= c.thresholds.MinDownFrames {
			c.phase = PhaseDown
		}

	case elbowAngle > c.thresholds.UpThreshold:
		c.upFrames++
		c.downFrames = 0
		if c.phase == PhaseDown && c.upFrames >= c.thresholds.MinUpFrames {
			c.phase = PhaseUp
			c.reps++
			return true
		}

	default:
		// Transitional frame: decay, floored at zero.
		if c.downFrames > 0 {
			c.downFrames--
		}
		if c.upFrames > 0 {
			c.upFrames--
		}
	}

	return false
}

// Reset returns the counter to its initial state. Thresholds are unchanged.
// Safe to call between any two Update calls.
func (c *Counter) Reset() {
	c.phase = PhaseUp
	c.reps = 0
	c.downFrames = 0
	c.upFrames = 0
}

// Reps returns the number of completed repetitions.
func (c *Counter) Reps() int {
	return c.reps
}

// Phase returns the counter's current phase.
func (c *Counter) Phase() Phase {
	return c.phase
}

// Thresholds returns the configuration the counter was built with.
func (c *Counter) Thresholds() Thresholds {
	return c.thresholds
}

// Snapshot returns a copy of the counter's current state.
func (c *Counter) Snapshot() Snapshot {
	return Snapshot{
		Phase:      c.phase,
		Reps:       c.reps,
		DownFrames: c.downFrames,
		UpFrames:   c.upFrames,
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
