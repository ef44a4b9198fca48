package geometry

import (
	"fmt"
	"math"

	"github.com/nevik/pushcoach/internal/pose"
)

// PostureCheck is the classification of one frame's body geometry.
// Reason carries a human-readable diagnostic; it is only meaningful to
// display when Valid is false.
type PostureCheck struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

// PostureThresholds configures the push-up position validation.
type PostureThresholds struct {
	// MinKneeAngle is the minimum hip-knee-ankle angle for extended legs.
	MinKneeAngle float64
	// MaxTorsoTilt is the maximum torso angle from horizontal.
	MaxTorsoTilt float64
	// MinFaceDownRatio is the minimum nose-below-shoulder distance,
	// normalized by the shoulder-to-ankle vertical span.
	MinFaceDownRatio float64
}

// DefaultPostureThresholds returns the standard validation thresholds.
func DefaultPostureThresholds() PostureThresholds {
	return PostureThresholds{
		MinKneeAngle:     120,
		MaxTorsoTilt:     50,
		MinFaceDownRatio: 0.2,
	}
}

// StrictPostureThresholds returns the tighter plank validation used when
// coaching full form.
func StrictPostureThresholds() PostureThresholds {
	return PostureThresholds{
		MinKneeAngle:     160,
		MaxTorsoTilt:     30,
		MinFaceDownRatio: 0.2,
	}
}

// ValidatePosture checks whether the body is in a valid push-up plank
// position. The three checks run in order and short-circuit on the first
// failure:
//
//  1. Legs extended: hip-knee-ankle angle >= MinKneeAngle
//  2. Torso near-horizontal: hip-relative-to-shoulder tilt <= MaxTorsoTilt
//  3. Face toward the ground: nose-below-shoulder distance, normalized by
//     the shoulder-to-ankle vertical span, >= MinFaceDownRatio. Skipped
//     when the vertical span is zero.
//
// This is a classification, not an error: an invalid posture gates rep
// counting without halting frame processing.
func ValidatePosture(shoulder, hip, knee, ankle, nose pose.Point, th PostureThresholds) PostureCheck {
	kneeAngle := AngleAt(hip, knee, ankle)
	if kneeAngle < th.MinKneeAngle {
		return PostureCheck{
			Valid:  false,
			Reason: fmt.Sprintf("Legs bent (%d° < %d°)", int(kneeAngle), int(th.MinKneeAngle)),
		}
	}

	torsoTilt := math.Abs(math.Atan2(hip.Y-shoulder.Y, hip.X-shoulder.X) * 180 / math.Pi)
	if torsoTilt > 180-th.MaxTorsoTilt {
		// A torso heading near 180° is horizontal with the hips on the
		// other side of the shoulders; fold it back.
		torsoTilt = 180 - torsoTilt
	}
	if torsoTilt > th.MaxTorsoTilt {
		return PostureCheck{
			Valid:  false,
			Reason: fmt.Sprintf("Not horizontal (%d° > %d°)", int(torsoTilt), int(th.MaxTorsoTilt)),
		}
	}

	// Y increases downward, so a face pointing at the ground puts the nose
	// below the shoulders.
	bodySpan := math.Abs(shoulder.Y - ankle.Y)
	if bodySpan > 0 {
		faceRatio := (nose.Y - shoulder.Y) / bodySpan
		if faceRatio < th.MinFaceDownRatio {
			return PostureCheck{Valid: false, Reason: "Face not pointing down"}
		}
	}

	return PostureCheck{Valid: true, Reason: "Valid position"}
}
