// Package filter implements One Euro filtering for noisy pose signals.
//
// The One Euro filter (Casiez et al., 2012) is a low-pass filter whose
// cutoff frequency adapts to signal speed: slow movement gets heavy
// smoothing to kill jitter, fast movement gets light smoothing to avoid
// lag.
package filter

import (
	"math"

	"github.com/nevik/pushcoach/internal/pose"
)

// Params configures a One Euro filter.
type Params struct {
	// Freq is the expected update frequency in Hz, used only for the very
	// first sample before timestamps establish the real rate.
	Freq float64
	// MinCutoff is the minimum cutoff frequency in Hz.
	MinCutoff float64
	// Beta is the speed coefficient; higher values reduce lag during fast
	// movement at the cost of more jitter.
	Beta float64
	// DCutoff is the cutoff frequency for the derivative estimate.
	DCutoff float64
}

// DefaultParams returns the parameters used for webcam keypoint streams.
func DefaultParams() Params {
	return Params{
		Freq:      60,
		MinCutoff: 1.0,
		Beta:      0.1,
		DCutoff:   1.0,
	}
}

// OneEuro filters a scalar signal.
type OneEuro struct {
	params      Params
	xPrev       float64
	dxPrev      float64
	tPrev       float64
	initialized bool
}

// NewOneEuro creates a scalar One Euro filter.
func NewOneEuro(p Params) *OneEuro {
	return &OneEuro{params: p}
}

// alpha converts a cutoff frequency into an exponential smoothing factor
// for the given sample rate.
func alpha(cutoff, freq float64) float64 {
	tau := 1.0 / (2.0 * math.Pi * cutoff)
	te := 1.0 / freq
	return 1.0 / (1.0 + tau/te)
}

func expSmooth(a, x, xPrev float64) float64 {
	return a*x + (1.0-a)*xPrev
}

// Filter smooths one sample taken at time t (seconds). The first sample
// passes through unchanged and seeds the filter state.
func (f *OneEuro) Filter(x, t float64) float64 {
	if !f.initialized {
		f.xPrev = x
		f.dxPrev = 0
		f.tPrev = t
		f.initialized = true
		return x
	}

	dt := t - f.tPrev
	if dt < 1e-6 {
		dt = 1e-6
	}
	freq := 1.0 / dt

	// Filter the derivative, then use its magnitude to adapt the cutoff.
	dx := (x - f.xPrev) * freq
	dxHat := expSmooth(alpha(f.params.DCutoff, freq), dx, f.dxPrev)

	cutoff := f.params.MinCutoff + f.params.Beta*math.Abs(dxHat)
	xHat := expSmooth(alpha(cutoff, freq), x, f.xPrev)

	f.xPrev = xHat
	f.dxPrev = dxHat
	f.tPrev = t

	return xHat
}

// Reset clears the filter state so the next sample reseeds it.
func (f *OneEuro) Reset() {
	f.initialized = false
	f.xPrev = 0
	f.dxPrev = 0
	f.tPrev = 0
}

// OneEuro2D filters a 2D point with independent x and y filters.
type OneEuro2D struct {
	fx *OneEuro
	fy *OneEuro
}

// NewOneEuro2D creates a 2D One Euro filter.
func NewOneEuro2D(p Params) *OneEuro2D {
	return &OneEuro2D{
		fx: NewOneEuro(p),
		fy: NewOneEuro(p),
	}
}

// Filter smooths one point taken at time t (seconds).
func (f *OneEuro2D) Filter(pt pose.Point, t float64) pose.Point {
	return pose.Point{
		X: f.fx.Filter(pt.X, t),
		Y: f.fy.Filter(pt.Y, t),
	}
}

// Reset clears both coordinate filters.
func (f *OneEuro2D) Reset() {
	f.fx.Reset()
	f.fy.Reset()
}

// Smoother applies One Euro filtering to every keypoint of a pose frame.
// It belongs to the ingestion layer: frames are smoothed before they reach
// the analysis core, which stays free of filter state.
type Smoother struct {
	filters [pose.NumKeypoints]*OneEuro2D
}

// NewSmoother creates a Smoother with one 2D filter per keypoint.
func NewSmoother(p Params) *Smoother {
	s := &Smoother{}
	for i := range s.filters {
		s.filters[i] = NewOneEuro2D(p)
	}
	return s
}

// Apply returns a copy of the frame with every keypoint position smoothed.
// Visibility scores and the timestamp pass through untouched.
func (s *Smoother) Apply(f pose.Frame) pose.Frame {
	t := float64(f.TimestampMs) / 1000.0
	out := f
	for i := range out.Keypoints {
		out.Keypoints[i].Point = s.filters[i].Filter(f.Keypoints[i].Point, t)
	}
	return out
}

// Reset clears all keypoint filters, for session reset or camera changes.
func (s *Smoother) Reset() {
	for _, f := range s.filters {
		f.Reset()
	}
}
