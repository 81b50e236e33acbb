package jobs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/formcheck/internal/analysis"

	"github.com/google/uuid"
)

var (
	ErrJobNotFound      = errors.New("job not found")
	ErrAnalysisNotFound = errors.New("analysis not found")
	ErrAnalysisExists   = errors.New("analysis already stored")
	ErrJobExists        = errors.New("job already exists")
	ErrMalformedTask    = errors.New("malformed task")
)

type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Done reports whether the job reached a terminal state.
func (s Status) Done() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// VideoID references the uploaded video row the analysis is copied into.
// Clients send it either as a string or as a number.
type VideoID string

func (v *VideoID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = VideoID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("video id must be a string or a number: %w", err)
	}
	*v = VideoID(n.String())
	return nil
}

type Job struct {
	ID         uuid.UUID `json:"job_id"`
	Status     Status    `json:"status"`
	Exercise   string    `json:"exercise"`
	VideoRoute string    `json:"video_route"`
	VideoID    VideoID   `json:"video_id,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Task is the queue message that asks a worker to run one job.
type Task struct {
	JobID      uuid.UUID `json:"job_id"`
	Exercise   string    `json:"exercise"`
	VideoRoute string    `json:"video_route"`
	VideoID    VideoID   `json:"video_id,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`

	// raw queue message, set on dequeue
	payload string
}

func (j *Job) Task() Task {
	return Task{
		JobID:      j.ID,
		Exercise:   j.Exercise,
		VideoRoute: j.VideoRoute,
		VideoID:    j.VideoID,
		EnqueuedAt: time.Now().UTC(),
	}
}

// StoredAnalysis is a persisted analysis result of a finished job.
type StoredAnalysis struct {
	ID        uuid.UUID        `json:"id"`
	JobID     uuid.UUID        `json:"job_id"`
	Exercise  string           `json:"exercise"`
	Reps      int              `json:"reps"`
	Score     analysis.Score   `json:"score"`
	Details   analysis.Details `json:"details"`
	Stats     analysis.Stats   `json:"stats"`
	CreatedAt time.Time        `json:"created_at"`
}

// VideoAnalysis is the document copied into the video row.
type VideoAnalysis struct {
	Exercise string           `json:"exercise"`
	Reps     int              `json:"reps"`
	Score    analysis.Score   `json:"score"`
	Details  analysis.Details `json:"details"`
}
