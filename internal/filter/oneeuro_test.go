package filter

import (
	"math"
	"testing"

	"github.com/nevik/pushcoach/internal/pose"
)

// fixedParams disables the adaptive cutoff so the tests are deterministic
// exponential smoothing.
func fixedParams() Params {
	return Params{Freq: 30, MinCutoff: 1.0, Beta: 0, DCutoff: 1.0}
}

func TestOneEuro_FirstSamplePassesThrough(t *testing.T) {
	f := NewOneEuro(fixedParams())

	if got := f.Filter(5.0, 0); got != 5.0 {
		t.Errorf("first sample = %f, want 5.0 unchanged", got)
	}
}

func TestOneEuro_ConstantSignalUnchanged(t *testing.T) {
	f := NewOneEuro(fixedParams())

	for i := 0; i < 50; i++ {
		got := f.Filter(3.0, float64(i)/30.0)
		if math.Abs(got-3.0) > 1e-9 {
			t.Fatalf("sample %d: constant signal drifted to %f", i, got)
		}
	}
}

func TestOneEuro_SuppressesJitter(t *testing.T) {
	// Alternating ±1 around zero at 30 fps: the filtered amplitude must
	// be well below the raw amplitude.
	f := NewOneEuro(fixedParams())

	var maxLate float64
	for i := 0; i < 60; i++ {
		x := 1.0
		if i%2 == 1 {
			x = -1.0
		}
		got := f.Filter(x, float64(i)/30.0)
		if i >= 30 {
			maxLate = math.Max(maxLate, math.Abs(got))
		}
	}

	if maxLate >= 0.5 {
		t.Errorf("filtered jitter amplitude = %f, want < 0.5", maxLate)
	}
}

func TestOneEuro_TracksRamp(t *testing.T) {
	// A steady ramp must be followed, with bounded lag.
	f := NewOneEuro(DefaultParams())

	var got float64
	for i := 0; i <= 120; i++ {
		x := float64(i) * 0.01
		got = f.Filter(x, float64(i)/30.0)
	}

	want := 1.2
	if math.Abs(got-want) > 0.3 {
		t.Errorf("ramp output = %f, want near %f", got, want)
	}
}

func TestOneEuro_Reset(t *testing.T) {
	f := NewOneEuro(fixedParams())

	f.Filter(100, 0)
	f.Filter(100, 1.0/30.0)
	f.Reset()

	// After reset, the next sample reseeds the state and passes through.
	if got := f.Filter(-7, 1); got != -7 {
		t.Errorf("post-reset sample = %f, want -7 unchanged", got)
	}
}

func TestSmoother_FirstFrameUnchanged(t *testing.T) {
	s := NewSmoother(fixedParams())

	var frame pose.Frame
	frame.TimestampMs = 1000
	for i := range frame.Keypoints {
		frame.Keypoints[i] = pose.Landmark{
			Point:      pose.Point{X: float64(i) * 0.05, Y: 0.5},
			Visibility: 0.9,
		}
	}

	got := s.Apply(frame)

	if got != frame {
		t.Error("first frame should pass through unchanged")
	}
}

func TestSmoother_PreservesVisibilityAndTimestamp(t *testing.T) {
	s := NewSmoother(fixedParams())

	var frame pose.Frame
	frame.TimestampMs = 1000
	for i := range frame.Keypoints {
		frame.Keypoints[i] = pose.Landmark{Point: pose.Point{X: 0.5, Y: 0.5}, Visibility: 0.7}
	}
	s.Apply(frame)

	// Second frame jumps; positions are smoothed but metadata is not
	// touched.
	frame.TimestampMs = 1033
	for i := range frame.Keypoints {
		frame.Keypoints[i].Point = pose.Point{X: 0.9, Y: 0.1}
		frame.Keypoints[i].Visibility = 0.4
	}

	got := s.Apply(frame)

	if got.TimestampMs != 1033 {
		t.Errorf("TimestampMs = %d, want 1033", got.TimestampMs)
	}
	kp := got.Keypoints[pose.Nose]
	if kp.Visibility != 0.4 {
		t.Errorf("Visibility = %f, want 0.4", kp.Visibility)
	}
	// Smoothed position lies strictly between the previous and new
	// positions.
	if kp.X <= 0.5 || kp.X >= 0.9 {
		t.Errorf("smoothed X = %f, want in (0.5, 0.9)", kp.X)
	}
	if kp.Y >= 0.5 || kp.Y <= 0.1 {
		t.Errorf("smoothed Y = %f, want in (0.1, 0.5)", kp.Y)
	}
}

func TestSmoother_Reset(t *testing.T) {
	s := NewSmoother(fixedParams())

	var frame pose.Frame
	frame.TimestampMs = 1000
	for i := range frame.Keypoints {
		frame.Keypoints[i] = pose.Landmark{Point: pose.Point{X: 0.2, Y: 0.2}, Visibility: 0.9}
	}
	s.Apply(frame)

	s.Reset()

	// A very different frame passes through untouched after reset.
	frame.TimestampMs = 2000
	for i := range frame.Keypoints {
		frame.Keypoints[i].Point = pose.Point{X: 0.8, Y: 0.8}
	}
	got := s.Apply(frame)

	if got.Keypoints[pose.Nose].Point != (pose.Point{X: 0.8, Y: 0.8}) {
		t.Errorf("post-reset frame altered: %+v", got.Keypoints[pose.Nose].Point)
	}
}
