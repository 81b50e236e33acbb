package exercise

import (
	"errors"
	"fmt"

	"github.com/2beens/formcheck/internal/pose"
)

// MaxScore is the score of a repetition with no faults.
const MaxScore = 10.0

// Extremum says which end of a tracked angle a repetition records.
type Extremum string

const (
	ExtremumMin Extremum = "min"
	ExtremumMax Extremum = "max"
)

func (e Extremum) IsValid() bool {
	switch e {
	case ExtremumMin, ExtremumMax:
		return true
	default:
		return false
	}
}

// Sentinel is the accumulator value at the start of a down phase.
func (e Extremum) Sentinel() float64 {
	if e == ExtremumMax {
		return 0
	}
	return 180
}

// Update folds angle into the accumulator.
func (e Extremum) Update(acc, angle float64) float64 {
	if e == ExtremumMax {
		return max(acc, angle)
	}
	return min(acc, angle)
}

// Comparator of a fault rule predicate.
type Comparator string

const (
	GreaterThan Comparator = "gt"
	LessThan    Comparator = "lt"
)

func (c Comparator) IsValid() bool {
	switch c {
	case GreaterThan, LessThan:
		return true
	default:
		return false
	}
}

func (c Comparator) Holds(value, threshold float64) bool {
	if c == GreaterThan {
		return value > threshold
	}
	return value < threshold
}

// TrackedAngle is a joint triad whose extremum is recorded during the down phase.
type TrackedAngle struct {
	Name     string     `yaml:"name" json:"name"`
	Triad    pose.Triad `yaml:"triad" json:"triad"`
	Extremum Extremum   `yaml:"extremum" json:"extremum"`
}

// FaultRule deducts Penalty when the recorded extremum of Angle compares
// (When) against Threshold. Focus is the phrase used in the video summary.
type FaultRule struct {
	Kind      string     `yaml:"kind" json:"kind"`
	Angle     string     `yaml:"angle" json:"angle"`
	When      Comparator `yaml:"when" json:"when"`
	Threshold float64    `yaml:"threshold" json:"threshold"`
	Penalty   float64    `yaml:"penalty" json:"penalty"`
	Message   string     `yaml:"message" json:"message"`
	Focus     string     `yaml:"focus" json:"focus"`
}

func (r FaultRule) Fires(extrema map[string]float64) bool {
	v, ok := extrema[r.Angle]
	if !ok {
		return false
	}
	return r.When.Holds(v, r.Threshold)
}

func (r FaultRule) String() string {
	return fmt.Sprintf("%s: %s %s %.1f -> -%.1f", r.Kind, r.Angle, r.When, r.Threshold, r.Penalty)
}

// Profile binds joints, phase thresholds and fault rules to one exercise.
// Profiles are loaded once and shared read-only between analyses.
type Profile struct {
	Key         string   `yaml:"key" json:"key"`
	DisplayName string   `yaml:"display_name" json:"displayName"`
	Synonyms    []string `yaml:"synonyms" json:"synonyms"`

	// Primary drives phase detection: the down phase starts when it drops
	// below EnterDown and the repetition closes when it rises above ExitUp.
	Primary   TrackedAngle   `yaml:"primary" json:"primary"`
	Secondary []TrackedAngle `yaml:"secondary" json:"secondary"`
	EnterDown float64        `yaml:"enter_down" json:"enterDown"`
	ExitUp    float64        `yaml:"exit_up" json:"exitUp"`

	Depth         bool    `yaml:"depth" json:"depth"`
	MinVisibility float64 `yaml:"min_visibility" json:"minVisibility"`

	SuccessMessage string      `yaml:"success_message" json:"successMessage"`
	Faults         []FaultRule `yaml:"faults" json:"faults"`

	MaxScore float64 `yaml:"-" json:"maxScore"`
}

// Tracked returns the primary angle followed by the secondary ones.
func (p *Profile) Tracked() []TrackedAngle {
	tracked := make([]TrackedAngle, 0, len(p.Secondary)+1)
	tracked = append(tracked, p.Primary)
	return append(tracked, p.Secondary...)
}

// FaultKinds returns the distinct fault kinds in declaration order.
func (p *Profile) FaultKinds() []string {
	seen := make(map[string]bool, len(p.Faults))
	var kinds []string
	for _, f := range p.Faults {
		if seen[f.Kind] {
			continue
		}
		seen[f.Kind] = true
		kinds = append(kinds, f.Kind)
	}
	return kinds
}

// Focus returns the summary phrase for a fault kind.
func (p *Profile) Focus(kind string) string {
	for _, f := range p.Faults {
		if f.Kind == kind && f.Focus != "" {
			return f.Focus
		}
	}
	return kind
}

func (p *Profile) AngleOptions() pose.AngleOptions {
	return pose.AngleOptions{
		Depth:         p.Depth,
		MinVisibility: p.MinVisibility,
	}
}

func (p *Profile) Validate() error {
	if p.Key == "" {
		return errors.New("profile key is empty")
	}
	if p.DisplayName == "" {
		return fmt.Errorf("profile %s: display name is empty", p.Key)
	}
	if p.EnterDown >= p.ExitUp {
		return fmt.Errorf(
			"profile %s: enter_down (%.1f) must be lower than exit_up (%.1f)",
			p.Key, p.EnterDown, p.ExitUp,
		)
	}
	if p.EnterDown <= 0 || p.ExitUp >= 180 {
		return fmt.Errorf("profile %s: thresholds must be within (0, 180)", p.Key)
	}
	if p.MinVisibility < 0 || p.MinVisibility > 1 {
		return fmt.Errorf("profile %s: min_visibility must be within [0, 1]", p.Key)
	}

	names := make(map[string]bool)
	secondary := make(map[string]Extremum, len(p.Secondary))
	for i, ta := range p.Tracked() {
		if ta.Name == "" {
			return fmt.Errorf("profile %s: tracked angle without name", p.Key)
		}
		if names[ta.Name] {
			return fmt.Errorf("profile %s: duplicate tracked angle [%s]", p.Key, ta.Name)
		}
		names[ta.Name] = true
		if i > 0 {
			secondary[ta.Name] = ta.Extremum
		}
		if !ta.Extremum.IsValid() {
			return fmt.Errorf("profile %s: angle %s: invalid extremum [%s]", p.Key, ta.Name, ta.Extremum)
		}
		if err := ta.Triad.Validate(); err != nil {
			return fmt.Errorf("profile %s: angle %s: %w", p.Key, ta.Name, err)
		}
	}

	for _, f := range p.Faults {
		if f.Kind == "" || f.Message == "" {
			return fmt.Errorf("profile %s: fault rule needs kind and message", p.Key)
		}
		if !names[f.Angle] {
			return fmt.Errorf("profile %s: fault %s references unknown angle [%s]", p.Key, f.Kind, f.Angle)
		}
		if !f.When.IsValid() {
			return fmt.Errorf("profile %s: fault %s: invalid comparator [%s]", p.Key, f.Kind, f.When)
		}
		if f.Penalty < 0 {
			return fmt.Errorf("profile %s: fault %s: negative penalty", p.Key, f.Kind)
		}
		// a secondary joint may stay hidden for a whole repetition
		if ext, ok := secondary[f.Angle]; ok && f.When.Holds(ext.Sentinel(), f.Threshold) {
			return fmt.Errorf(
				"profile %s: fault %s fires on %s (%s) even when the angle is never measured",
				p.Key, f.Kind, f.Angle, ext,
			)
		}
	}

	return nil
}
