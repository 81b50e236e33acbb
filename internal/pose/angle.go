package pose

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// NoSignal is returned instead of an angle when the geometry is degenerate
// (coincident or missing landmarks). Callers skip the frame.
const NoSignal = -1.0

// HasSignal reports whether angle is a real measurement.
func HasSignal(angle float64) bool {
	return angle >= 0
}

// Angle returns the angle ABC at vertex b in degrees, in [0, 180].
func Angle(a, b, c Point) float64 {
	ba := r3.Sub(vec(a), vec(b))
	bc := r3.Sub(vec(c), vec(b))

	nba, nbc := r3.Norm(ba), r3.Norm(bc)
	if nba == 0 || nbc == 0 {
		return NoSignal
	}

	cos := r3.Dot(ba, bc) / (nba * nbc)
	// rounding can push the cosine slightly outside the acos domain
	cos = math.Max(-1, math.Min(1, cos))

	return math.Acos(cos) * 180 / math.Pi
}

func vec(p Point) r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

// Triad is an ordered triple of joint names; the angle is measured at B.
type Triad struct {
	A string `yaml:"a" json:"a"`
	B string `yaml:"b" json:"b"`
	C string `yaml:"c" json:"c"`
}

func (t Triad) String() string {
	return fmt.Sprintf("%s-%s-%s", t.A, t.B, t.C)
}

func (t Triad) Validate() error {
	for _, j := range []string{t.A, t.B, t.C} {
		if !IsKnownJoint(j) {
			return fmt.Errorf("unknown joint [%s] in triad %s", j, t)
		}
	}
	if t.B == Vertical {
		return fmt.Errorf("vertical cannot be the vertex of triad %s", t)
	}
	return nil
}

// AngleOptions control how a triad is measured on a frame.
type AngleOptions struct {
	// Depth includes the z coordinate; by default angles are measured in the image plane.
	Depth         bool
	MinVisibility float64
}

// Angle measures the triad on a frame, or returns NoSignal if a landmark is missing.
func (t Triad) Angle(f Frame, opts AngleOptions) float64 {
	b, ok := f.Landmark(t.B, opts.MinVisibility)
	if !ok {
		return NoSignal
	}
	a, ok := t.resolve(f, t.A, b, opts.MinVisibility)
	if !ok {
		return NoSignal
	}
	c, ok := t.resolve(f, t.C, b, opts.MinVisibility)
	if !ok {
		return NoSignal
	}

	if !opts.Depth {
		a.Z, b.Z, c.Z = 0, 0, 0
	}
	return Angle(a, b, c)
}

func (t Triad) resolve(f Frame, name string, vertex Point, minVisibility float64) (Point, bool) {
	if name == Vertical {
		return Point{X: vertex.X, Y: vertex.Y - 1, Z: vertex.Z}, true
	}
	return f.Landmark(name, minVisibility)
}
