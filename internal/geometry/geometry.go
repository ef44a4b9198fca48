// Package geometry provides pure angle calculations for pose analysis.
package geometry

import (
	"math"

	"github.com/nevik/pushcoach/internal/pose"
)

// epsilon is the minimum segment length for a defined angle. Rays shorter
// than this are treated as degenerate geometry.
const epsilon = 1e-9

// AngleAt calculates the angle at vertex b formed by the rays to a and c.
// Returns the angle in degrees in [0, 180]. If either ray is shorter than
// epsilon the geometry is undefined and 0 is returned.
func AngleAt(a, b, c pose.Point) float64 {
	bax := a.X - b.X
	bay := a.Y - b.Y
	bcx := c.X - b.X
	bcy := c.Y - b.Y

	nba := math.Hypot(bax, bay)
	nbc := math.Hypot(bcx, bcy)

	if nba < epsilon || nbc < epsilon {
		return 0
	}

	cosv := (bax*bcx + bay*bcy) / (nba * nbc)

	// Clamp against floating-point overshoot before Acos.
	if cosv > 1 {
		cosv = 1
	} else if cosv < -1 {
		cosv = -1
	}

	return math.Acos(cosv) * 180 / math.Pi
}

// Collinearity measures how close three points are to a straight line.
// It returns the angle at b; 180 means perfectly collinear. Used as the
// body-line (plank straightness) metric.
func Collinearity(a, b, c pose.Point) float64 {
	return AngleAt(a, b, c)
}

// AngularDifference calculates the angle between the upper-arm vector
// (shoulder to elbow) and the torso vector (shoulder to hip), in degrees
// in [0, 180]. A small difference means the upper arm is parallel to the
// back, the form cue for a proper push-up.
func AngularDifference(shoulder, elbow, hip pose.Point) float64 {
	armHeading := math.Atan2(elbow.Y-shoulder.Y, elbow.X-shoulder.X) * 180 / math.Pi
	torsoHeading := math.Atan2(hip.Y-shoulder.Y, hip.X-shoulder.X) * 180 / math.Pi

	diff := math.Abs(armHeading - torsoHeading)

	// Fold back into [0, 180].
	if diff > 180 {
		diff = 360 - diff
	}

	return diff
}
