package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/2beens/formcheck/internal/exercise"
)

type RepType string

const (
	RepTypeSuccess    RepType = "success"
	RepTypeCorrection RepType = "correction"
)

// Score is a score rendered with one decimal place.
type Score float64

func (s Score) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(s), 'f', 1, 64)), nil
}

// Rep is one closed repetition. Immutable once evaluated.
type Rep struct {
	Index       int                `json:"rep"`
	TimestampMS int64              `json:"ts"`
	Extrema     map[string]float64 `json:"extrema"`
	Faults      []string           `json:"faults"`
	Messages    []string           `json:"messages"`
	Score       Score              `json:"score"`
	Type        RepType            `json:"type"`
}

// Evaluate applies every fault rule of the profile to the extrema of a closed
// repetition. Rules are independent; each one that fires deducts its penalty.
func Evaluate(profile *exercise.Profile, index int, timestampMS int64, extrema map[string]float64) Rep {
	rep := Rep{
		Index:       index,
		TimestampMS: timestampMS,
		Extrema:     extrema,
		Faults:      make([]string, 0),
		Messages:    make([]string, 0),
		Type:        RepTypeSuccess,
	}

	score := profile.MaxScore
	for _, rule := range profile.Faults {
		if !rule.Fires(extrema) {
			continue
		}
		score -= rule.Penalty
		rep.Faults = append(rep.Faults, rule.Kind)
		rep.Messages = append(rep.Messages, rule.Message)
	}

	rep.Score = Score(max(0, score))
	if len(rep.Faults) > 0 {
		rep.Type = RepTypeCorrection
	}

	return rep
}

// Message is the feedback shown for the repetition.
func (r Rep) Message(successMessage string) string {
	if len(r.Messages) == 0 {
		return successMessage
	}
	return strings.Join(r.Messages, " ")
}

// FormatTime renders a millisecond timestamp as zero-padded MM:SS.
func FormatTime(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	seconds := ms / 1000
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
