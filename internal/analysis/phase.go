package analysis

import (
	"maps"

	"github.com/2beens/formcheck/internal/exercise"
	"github.com/2beens/formcheck/internal/pose"
)

// Phase is the coarse state of one repetition cycle.
type Phase string

const (
	PhaseUp   Phase = "UP"
	PhaseDown Phase = "DOWN"
)

// Stats counts what happened to the frames fed into a session.
type Stats struct {
	Frames     int `json:"frames"`
	Used       int `json:"used"`
	NoPerson   int `json:"noPerson"`
	NoSignal   int `json:"noSignal"`
	OutOfOrder int `json:"outOfOrder"`
}

func (s Stats) Skipped() int {
	return s.NoPerson + s.NoSignal + s.OutOfOrder
}

// Session is the state of one analysis over one video's frame stream.
// Frames must be fed in temporal order. A Session is not safe for concurrent
// use; run one per video.
type Session struct {
	profile *exercise.Profile
	tracked []exercise.TrackedAngle
	opts    pose.AngleOptions

	phase   Phase
	extrema map[string]float64

	reps    []Rep
	started bool
	lastTS  int64
	stats   Stats
	trace   *Trace
}

type SessionOption func(*Session)

// WithTrace records the primary angle of every used frame.
func WithTrace() SessionOption {
	return func(s *Session) {
		s.trace = &Trace{
			Angle: s.profile.Primary.Name,
		}
	}
}

func NewSession(profile *exercise.Profile, opts ...SessionOption) *Session {
	s := &Session{
		profile: profile,
		tracked: profile.Tracked(),
		opts:    profile.AngleOptions(),
		phase:   PhaseUp,
		extrema: make(map[string]float64, len(profile.Secondary)+1),
		reps:    make([]Rep, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Feed consumes one frame and returns the repetition it closed, if any.
// Frames without a person, without a primary angle, or going back in time
// are dropped without touching phase or extrema.
func (s *Session) Feed(f pose.Frame) *Rep {
	s.stats.Frames++

	if !f.HasPerson() {
		s.stats.NoPerson++
		return nil
	}

	primary := s.profile.Primary.Triad.Angle(f, s.opts)
	if !pose.HasSignal(primary) {
		s.stats.NoSignal++
		return nil
	}

	if s.started && f.TimestampMS < s.lastTS {
		s.stats.OutOfOrder++
		return nil
	}
	s.started = true
	s.lastTS = f.TimestampMS
	s.stats.Used++

	if s.phase == PhaseUp && primary < s.profile.EnterDown {
		s.phase = PhaseDown
		s.resetExtrema()
	}

	var closed *Rep
	if s.phase == PhaseDown {
		s.accumulate(f, primary)

		if primary > s.profile.ExitUp {
			rep := Evaluate(s.profile, len(s.reps)+1, f.TimestampMS, maps.Clone(s.extrema))
			s.reps = append(s.reps, rep)
			s.phase = PhaseUp
			closed = &rep
		}
	}

	if s.trace != nil {
		s.trace.add(f.TimestampMS, primary, s.phase, closed != nil)
	}

	return closed
}

func (s *Session) resetExtrema() {
	for _, ta := range s.tracked {
		s.extrema[ta.Name] = ta.Extremum.Sentinel()
	}
}

func (s *Session) accumulate(f pose.Frame, primary float64) {
	for i, ta := range s.tracked {
		angle := primary
		if i > 0 {
			angle = ta.Triad.Angle(f, s.opts)
			if !pose.HasSignal(angle) {
				continue
			}
		}
		s.extrema[ta.Name] = ta.Extremum.Update(s.extrema[ta.Name], angle)
	}
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	return s.phase
}

// Reps returns the closed repetitions so far. A repetition still in its
// down phase is not included.
func (s *Session) Reps() []Rep {
	return s.reps
}

func (s *Session) Stats() Stats {
	return s.stats
}

func (s *Session) Trace() *Trace {
	return s.trace
}

// Result aggregates the closed repetitions. It can be called at any point;
// the result is the one of a stream that ended at the last fed frame.
func (s *Session) Result() Result {
	return Aggregate(s.profile, s.reps)
}

// TracePoint is one primary-angle sample.
type TracePoint struct {
	TimestampMS int64   `json:"ts"`
	Angle       float64 `json:"angle"`
	Phase       Phase   `json:"phase"`
}

// Trace is the primary-angle signal of a session, used for reports.
type Trace struct {
	Angle  string       `json:"angle"`
	Points []TracePoint `json:"points"`
	// RepCloses holds the timestamps of the frames that closed a repetition.
	RepCloses []int64 `json:"repCloses"`
}

func (t *Trace) add(ts int64, angle float64, phase Phase, closed bool) {
	t.Points = append(t.Points, TracePoint{
		TimestampMS: ts,
		Angle:       angle,
		Phase:       phase,
	})
	if closed {
		t.RepCloses = append(t.RepCloses, ts)
	}
}
