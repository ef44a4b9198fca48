// Package pose provides the body landmark model consumed by the push-up
// analysis pipeline.
package pose

import "fmt"

// Body keypoint indices following the MoveNet SinglePose convention.
// See: https://www.tensorflow.org/hub/tutorials/movenet
const (
	Nose          = 0
	LeftEye       = 1
	RightEye      = 2
	LeftEar       = 3
	RightEar      = 4
	LeftShoulder  = 5
	RightShoulder = 6
	LeftElbow     = 7
	RightElbow    = 8
	LeftWrist     = 9
	RightWrist    = 10
	LeftHip       = 11
	RightHip      = 12
	LeftKnee      = 13
	RightKnee     = 14
	LeftAnkle     = 15
	RightAnkle    = 16
	NumKeypoints  = 17
)

// keypointNames maps keypoint indices to their MoveNet names.
var keypointNames = [NumKeypoints]string{
	"nose", "left_eye", "right_eye", "left_ear", "right_ear",
	"left_shoulder", "right_shoulder", "left_elbow", "right_elbow",
	"left_wrist", "right_wrist", "left_hip", "right_hip",
	"left_knee", "right_knee", "left_ankle", "right_ankle",
}

// KeypointName returns the MoveNet name for a keypoint index, or "unknown"
// for an index outside the layout.
func KeypointName(i int) string {
	if i < 0 || i >= NumKeypoints {
		return "unknown"
	}
	return keypointNames[i]
}

// Point represents a 2D point in normalized image coordinates.
// Y increases downward, matching image space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Landmark is a detected keypoint position with its confidence score.
type Landmark struct {
	Point
	Visibility float64 `json:"visibility"`
}

// Frame holds one full pose observation: all 17 keypoints plus the capture
// timestamp in milliseconds. The fixed-size array makes a short landmark
// sequence unrepresentable; callers decoding external input get an explicit
// error at the boundary instead.
type Frame struct {
	Keypoints   [NumKeypoints]Landmark `json:"keypoints"`
	TimestampMs int64                  `json:"timestamp_ms"`
}

// FrameFromLandmarks builds a Frame from a decoded landmark sequence.
// Supplying fewer or more than NumKeypoints landmarks is a caller contract
// violation and returns an error.
func FrameFromLandmarks(landmarks []Landmark, timestampMs int64) (Frame, error) {
	if len(landmarks) != NumKeypoints {
		return Frame{}, fmt.Errorf("expected %d keypoints, got %d", NumKeypoints, len(landmarks))
	}
	f := Frame{TimestampMs: timestampMs}
	copy(f.Keypoints[:], landmarks)
	return f, nil
}

// Midpoint returns the arithmetic mean of two points, used to collapse
// left/right keypoint pairs into a single body landmark.
func Midpoint(a, b Point) Point {
	return Point{
		X: (a.X + b.X) / 2.0,
		Y: (a.Y + b.Y) / 2.0,
	}
}

// analysisKeypoints are the keypoints the push-up analysis needs. The eyes
// and ears are not used.
var analysisKeypoints = []int{
	Nose,
	LeftShoulder, RightShoulder,
	LeftElbow, RightElbow,
	LeftWrist, RightWrist,
	LeftHip, RightHip,
	LeftKnee, RightKnee,
	LeftAnkle, RightAnkle,
}

// AllVisible reports whether every keypoint required for push-up analysis
// meets the given confidence threshold. The analysis core itself never
// rejects a frame for low visibility; this gate belongs to the ingestion
// layer feeding it.
func (f *Frame) AllVisible(minConf float64) bool {
	for _, i := range analysisKeypoints {
		if f.Keypoints[i].Visibility < minConf {
			return false
		}
	}
	return true
}

// At returns the position of the keypoint at index i.
func (f *Frame) At(i int) Point {
	return f.Keypoints[i].Point
}
