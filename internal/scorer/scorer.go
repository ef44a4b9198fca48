// Package scorer rates the quality of a completed push-up repetition.
//
// Six metrics are evaluated over the frames of one rep and combined into a
// weighted 0-100 score: range of motion (35%), depth (15%), body line
// (20%), tempo (10%), stability (10%) and left/right symmetry (10%).
package scorer

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Metric weights.
const (
	weightROM       = 0.35
	weightDepth     = 0.15
	weightBodyLine  = 0.20
	weightTempo     = 0.10
	weightStability = 0.10
	weightSymmetry  = 0.10
)

// Sample holds the per-frame measurements recorded during a repetition.
type Sample struct {
	// ElbowL and ElbowR are the left and right elbow angles in degrees.
	ElbowL float64
	ElbowR float64
	// ShoulderY and HipY are normalized vertical positions in [0, 1].
	ShoulderY float64
	HipY      float64
	// LineDev is the shoulder-hip-ankle deviation from a straight line in
	// degrees; 0 is a perfect plank.
	LineDev float64
}

// Score is the result of rating one repetition. All component scores are
// in [0, 100].
type Score struct {
	Total       float64 `json:"total"`
	ROM         float64 `json:"rom"`
	Depth       float64 `json:"depth"`
	BodyLine    float64 `json:"body_line"`
	Tempo       float64 `json:"tempo"`
	Stability   float64 `json:"stability"`
	Symmetry    float64 `json:"symmetry"`
	DownSeconds float64 `json:"down_seconds"`
	UpSeconds   float64 `json:"up_seconds"`
}

// Scorer buffers frame samples for the repetition in progress.
type Scorer struct {
	// TargetDownSeconds and TargetUpSeconds are the tempo targets for the
	// descent and ascent phases.
	TargetDownSeconds float64
	TargetUpSeconds   float64

	samples []Sample
}

// New creates a Scorer with the standard tempo targets: a two second
// descent and a one second ascent.
func New() *Scorer {
	return &Scorer{
		TargetDownSeconds: 2.0,
		TargetUpSeconds:   1.0,
	}
}

// Add records one frame's measurements.
func (s *Scorer) Add(sample Sample) {
	s.samples = append(s.samples, sample)
}

// Len returns the number of buffered samples.
func (s *Scorer) Len() int {
	return len(s.samples)
}

// Reset clears the sample buffer for the next repetition.
func (s *Scorer) Reset() {
	s.samples = s.samples[:0]
}

// Finalize computes the score for the buffered repetition. The fps is the
// observed frame rate, used to convert frame indices into phase durations.
// Returns an error if no samples were recorded.
func (s *Scorer) Finalize(fps float64) (Score, error) {
	if len(s.samples) == 0 {
		return Score{}, fmt.Errorf("no samples recorded")
	}
	if fps <= 0 {
		fps = 30
	}

	n := len(s.samples)
	elbowL := make([]float64, n)
	elbowR := make([]float64, n)
	hipY := make([]float64, n)
	depth := make([]float64, n)
	lineDev := make([]float64, n)
	meanElbow := make([]float64, n)

	for i, m := range s.samples {
		elbowL[i] = m.ElbowL
		elbowR[i] = m.ElbowR
		hipY[i] = m.HipY
		depth[i] = m.ShoulderY - m.HipY
		lineDev[i] = m.LineDev
		meanElbow[i] = (m.ElbowL + m.ElbowR) / 2.0
	}

	// Range of motion: full flexion at the bottom, full extension at the
	// top.
	romBottom := linterp(min(floats.Min(elbowL), floats.Min(elbowR)), 110, 70, 0, 100)
	romTop := linterp(max(floats.Max(elbowL), floats.Max(elbowR)), 120, 160, 0, 100)
	rom := 0.6*romBottom + 0.4*romTop

	// Depth: how far the shoulders dropped relative to the hips.
	depthScore := linterp(floats.Max(depth), 0.00, 0.08, 0, 100)

	// Body line: 90th percentile of plank deviation, so a brief sag does
	// not dominate but a sustained one does.
	sortedDev := append([]float64(nil), lineDev...)
	sort.Float64s(sortedDev)
	devP90 := stat.Quantile(0.9, stat.Empirical, sortedDev, nil)
	bodyLine := linterp(100-devP90, 60, 100, 0, 100)

	// Tempo: locate the bottom of the rep and compare phase durations to
	// the targets.
	minIdx := floats.MinIdx(meanElbow)
	downS := float64(max(minIdx, 1)) / fps
	upS := float64(max(n-1-minIdx, 1)) / fps
	tempoDown := 100 - clamp01(abs(downS-s.TargetDownSeconds)/s.TargetDownSeconds)*100
	tempoUp := 100 - clamp01(abs(upS-s.TargetUpSeconds)/s.TargetUpSeconds)*100
	tempo := 0.6*tempoDown + 0.4*tempoUp

	// Stability: hip vertical variance during the rep.
	stability := 100 - linterp(stat.StdDev(hipY, nil), 0.00, 0.03, 0, 100)

	// Symmetry: left/right elbow agreement at the bottom and at the top.
	symBottom := abs(elbowL[minIdx] - elbowR[minIdx])
	symTop := abs(elbowL[n-1] - elbowR[n-1])
	symmetry := 100 - linterp((symBottom+symTop)/2.0, 0.0, 15.0, 0, 100)

	score := Score{
		ROM:         clamp100(rom),
		Depth:       clamp100(depthScore),
		BodyLine:    clamp100(bodyLine),
		Tempo:       clamp100(tempo),
		Stability:   clamp100(stability),
		Symmetry:    clamp100(symmetry),
		DownSeconds: downS,
		UpSeconds:   upS,
	}
	score.Total = weightROM*score.ROM +
		weightDepth*score.Depth +
		weightBodyLine*score.BodyLine +
		weightTempo*score.Tempo +
		weightStability*score.Stability +
		weightSymmetry*score.Symmetry

	return score, nil
}

// linterp maps x from the range [x0, x1] onto [y0, y1] linearly, clamping
// at the endpoints. x0 > x1 inverts the mapping.
func linterp(x, x0, x1, y0, y1 float64) float64 {
	if x0 == x1 {
		return y0
	}
	t := clamp01((x - x0) / (x1 - x0))
	return y0 + t*(y1-y0)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
