package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/2beens/formcheck/internal/exercise"

	"gonum.org/v1/gonum/stat"
)

// Summary score bands, independent of the exercise.
const (
	SolidTechniqueScore = 8.5
	GoodEffortScore     = 6.0
)

const noRepsSummary = "No repetitions detected. Make sure your full body is visible."

// Result is the final output of one analysis.
type Result struct {
	Reps    int     `json:"reps"`
	Score   Score   `json:"score"`
	Details Details `json:"details"`
}

type Details struct {
	Summary      string          `json:"summary"`
	FeedbackList []FeedbackEntry `json:"feedback_list"`
	TotalErrors  map[string]int  `json:"total_errors"`
}

type FeedbackEntry struct {
	Rep     int     `json:"rep"`
	Time    string  `json:"time"`
	Type    RepType `json:"type"`
	Message string  `json:"message"`
	Score   Score   `json:"score"`
}

// Aggregate folds closed repetitions into the final result.
func Aggregate(profile *exercise.Profile, reps []Rep) Result {
	tally := make(map[string]int)
	for _, kind := range profile.FaultKinds() {
		tally[kind] = 0
	}

	res := Result{
		Reps: len(reps),
		Details: Details{
			FeedbackList: make([]FeedbackEntry, 0, len(reps)),
			TotalErrors:  tally,
		},
	}

	if len(reps) == 0 {
		res.Details.Summary = noRepsSummary
		return res
	}

	scores := make([]float64, 0, len(reps))
	for _, rep := range reps {
		scores = append(scores, float64(rep.Score))
		for _, kind := range rep.Faults {
			tally[kind]++
		}
		res.Details.FeedbackList = append(res.Details.FeedbackList, FeedbackEntry{
			Rep:     rep.Index,
			Time:    FormatTime(rep.TimestampMS),
			Type:    rep.Type,
			Message: rep.Message(profile.SuccessMessage),
			Score:   rep.Score,
		})
	}

	res.Score = Score(math.Round(stat.Mean(scores, nil)*10) / 10)
	res.Details.Summary = summarize(profile, len(reps), float64(res.Score), tally)

	return res
}

func summarize(profile *exercise.Profile, reps int, score float64, tally map[string]int) string {
	name := strings.ToLower(profile.DisplayName)

	var focus []string
	for _, kind := range profile.FaultKinds() {
		if tally[kind] > 0 {
			focus = append(focus, profile.Focus(kind))
		}
	}

	switch {
	case score >= SolidTechniqueScore:
		return fmt.Sprintf("Excellent! You did %d %s reps with solid technique.", reps, name)
	case score >= GoodEffortScore:
		if len(focus) == 0 {
			return fmt.Sprintf("Good effort (%d %s reps), mind the details.", reps, name)
		}
		return fmt.Sprintf(
			"Good effort (%d %s reps), mind the details. To reach a 10, focus on: %s.",
			reps, name, strings.Join(focus, ", "),
		)
	default:
		if len(focus) == 0 {
			return fmt.Sprintf("We detected %d %s reps, but the technique needs work.", reps, name)
		}
		return fmt.Sprintf(
			"We detected %d %s reps, but the technique needs work. Focus on: %s.",
			reps, name, strings.Join(focus, ", "),
		)
	}
}
