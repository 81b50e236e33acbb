package test

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"

	"github.com/2beens/formcheck/internal/pose"
)

// squatFrame places a side-on lifter with the given knee angle. The torso
// stays upright, so the back never leans.
func squatFrame(ts int64, kneeAngle float64) pose.Frame {
	knee := pose.Point{X: 0.5, Y: 0.7, Visibility: 0.9}
	ankle := pose.Point{X: 0.5, Y: 0.9, Visibility: 0.9}

	rad := kneeAngle * math.Pi / 180
	hip := pose.Point{
		X:          knee.X + 0.2*math.Sin(rad),
		Y:          knee.Y + 0.2*math.Cos(rad),
		Visibility: 0.9,
	}
	shoulder := pose.Point{X: hip.X, Y: hip.Y - 0.3, Visibility: 0.9}

	return pose.Frame{
		TimestampMS: ts,
		Landmarks: map[string]pose.Point{
			pose.RightShoulder: shoulder,
			pose.RightHip:      hip,
			pose.RightKnee:     knee,
			pose.RightAnkle:    ankle,
		},
	}
}

// squatSession returns frames of reps repetitions, each bottoming at
// bottomAngle, with a frame every 100ms.
func squatSession(reps int, bottomAngle float64) []pose.Frame {
	var frames []pose.Frame
	ts := int64(0)
	next := func(angle float64) {
		frames = append(frames, squatFrame(ts, angle))
		ts += 100
	}

	next(178)
	for range reps {
		next(150)
		next(bottomAngle)
		next(150)
		next(178)
	}
	// nobody in frame at the end
	frames = append(frames, pose.Frame{TimestampMS: ts})

	return frames
}

func writeLandmarks(dir, name string, frames []pose.Frame) (string, error) {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, frame := range frames {
		if err := enc.Encode(frame); err != nil {
			return "", err
		}
	}
	return "file://" + path, nil
}
