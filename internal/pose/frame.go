package pose

import "encoding/json"

// Joint names follow the MediaPipe Pose landmark model, in its index order.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose            = "nose"
	LeftEyeInner    = "left_eye_inner"
	LeftEye         = "left_eye"
	LeftEyeOuter    = "left_eye_outer"
	RightEyeInner   = "right_eye_inner"
	RightEye        = "right_eye"
	RightEyeOuter   = "right_eye_outer"
	LeftEar         = "left_ear"
	RightEar        = "right_ear"
	MouthLeft       = "mouth_left"
	MouthRight      = "mouth_right"
	LeftShoulder    = "left_shoulder"
	RightShoulder   = "right_shoulder"
	LeftElbow       = "left_elbow"
	RightElbow      = "right_elbow"
	LeftWrist       = "left_wrist"
	RightWrist      = "right_wrist"
	LeftPinky       = "left_pinky"
	RightPinky      = "right_pinky"
	LeftIndex       = "left_index"
	RightIndex      = "right_index"
	LeftThumb       = "left_thumb"
	RightThumb      = "right_thumb"
	LeftHip         = "left_hip"
	RightHip        = "right_hip"
	LeftKnee        = "left_knee"
	RightKnee       = "right_knee"
	LeftAnkle       = "left_ankle"
	RightAnkle      = "right_ankle"
	LeftHeel        = "left_heel"
	RightHeel       = "right_heel"
	LeftFootIndex   = "left_foot_index"
	RightFootIndex  = "right_foot_index"
	NumPoseLandmark = 33

	// Vertical is a virtual joint one unit straight up from the vertex of a triad.
	// Normalized image coordinates grow downwards, so "up" is -y.
	Vertical = "vertical"
)

// LandmarkOrder maps MediaPipe landmark indices to joint names.
var LandmarkOrder = [NumPoseLandmark]string{
	Nose, LeftEyeInner, LeftEye, LeftEyeOuter, RightEyeInner, RightEye, RightEyeOuter,
	LeftEar, RightEar, MouthLeft, MouthRight,
	LeftShoulder, RightShoulder, LeftElbow, RightElbow, LeftWrist, RightWrist,
	LeftPinky, RightPinky, LeftIndex, RightIndex, LeftThumb, RightThumb,
	LeftHip, RightHip, LeftKnee, RightKnee, LeftAnkle, RightAnkle,
	LeftHeel, RightHeel, LeftFootIndex, RightFootIndex,
}

// IsKnownJoint reports whether name is a MediaPipe joint or the virtual vertical joint.
func IsKnownJoint(name string) bool {
	if name == Vertical {
		return true
	}
	for _, j := range LandmarkOrder {
		if j == name {
			return true
		}
	}
	return false
}

// Point is a normalized landmark coordinate as produced by the pose estimator.
// Visibility is in [0, 1]; a zero value means the estimator did not report it.
type Point struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility,omitempty"`
}

// Frame is one decoded video frame's detected pose. A frame with landmarks
// has a person in it unless the estimator flagged it with NoPerson.
type Frame struct {
	TimestampMS int64
	NoPerson    bool
	Landmarks   map[string]Point
}

// HasPerson reports whether the estimator found somebody in this frame.
func (f Frame) HasPerson() bool {
	return !f.NoPerson && len(f.Landmarks) > 0
}

// MarshalJSON writes the frame as one line of the landmarks stream.
func (f Frame) MarshalJSON() ([]byte, error) {
	ts := f.TimestampMS
	w := wireFrame{
		TS:        &ts,
		Landmarks: f.Landmarks,
	}
	if f.NoPerson {
		detected := false
		w.Detected = &detected
	}
	return json.Marshal(w)
}

func (f *Frame) UnmarshalJSON(data []byte) error {
	var w wireFrame
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	frame, err := w.toFrame()
	if err != nil {
		return err
	}
	*f = frame
	return nil
}

// Landmark returns the named joint, skipping ones whose visibility is under minVisibility.
func (f Frame) Landmark(name string, minVisibility float64) (Point, bool) {
	p, ok := f.Landmarks[name]
	if !ok {
		return Point{}, false
	}
	if minVisibility > 0 && p.Visibility > 0 && p.Visibility < minVisibility {
		return Point{}, false
	}
	return p, true
}
