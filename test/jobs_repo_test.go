//go:build integration_test || all_tests

package test

import (
	"context"
	"time"

	"github.com/2beens/formcheck/internal/analysis"
	"github.com/2beens/formcheck/internal/exercise"
	"github.com/2beens/formcheck/internal/jobs"
	"github.com/2beens/formcheck/internal/pose"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestJobsRepo() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	t := s.T()

	repo := jobs.NewRepo(s.pgPool)

	job := &jobs.Job{
		ID:         uuid.New(),
		Status:     jobs.StatusQueued,
		Exercise:   "squat",
		VideoRoute: "file:///videos/landmarks.jsonl",
		VideoID:    "43",
	}
	require.NoError(t, repo.Create(ctx, job))

	stored, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusQueued, stored.Status)
	assert.Equal(t, "squat", stored.Exercise)
	assert.Equal(t, jobs.VideoID("43"), stored.VideoID)
	assert.False(t, stored.CreatedAt.IsZero())

	_, err = repo.GetAnalysis(ctx, job.ID)
	assert.ErrorIs(t, err, jobs.ErrAnalysisNotFound)

	require.NoError(t, repo.MarkRunning(ctx, job.ID))
	stored, err = repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusRunning, stored.Status)

	registry, err := exercise.DefaultRegistry()
	require.NoError(t, err)
	a, err := analysis.NewEngine(registry).Analyze(ctx, "squat", pose.NewSliceSource(squatSession(1, 90)))
	require.NoError(t, err)
	require.Equal(t, 1, a.Result.Reps)

	require.NoError(t, repo.SaveAnalysis(ctx, job.Task(), a))

	stored, err = repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusSucceeded, stored.Status)
	assert.Empty(t, stored.Error)

	sa, err := repo.GetAnalysis(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, sa.JobID)
	assert.Equal(t, 1, sa.Reps)
	assert.Equal(t, analysis.Score(10), sa.Score)
	assert.Equal(t, a.Result.Details.Summary, sa.Details.Summary)
	assert.Equal(t, a.Stats, sa.Stats)

	// redelivered task and duplicate job
	assert.ErrorIs(t, repo.SaveAnalysis(ctx, job.Task(), a), jobs.ErrAnalysisExists)
	assert.ErrorIs(t, repo.Create(ctx, job), jobs.ErrJobExists)

	orphan := jobs.Task{JobID: uuid.New(), Exercise: "squat"}
	assert.ErrorIs(t, repo.SaveAnalysis(ctx, orphan, a), jobs.ErrJobNotFound)

	var videoReps int
	require.NoError(t, s.DB.QueryRowContext(ctx,
		`SELECT (analysis->>'reps')::int FROM video WHERE id = '43'`,
	).Scan(&videoReps))
	assert.Equal(t, 1, videoReps)
}

func (s *IntegrationTestSuite) TestJobsRepo_NotFound() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	t := s.T()

	repo := jobs.NewRepo(s.pgPool)
	missing := uuid.New()

	_, err := repo.Get(ctx, missing)
	assert.ErrorIs(t, err, jobs.ErrJobNotFound)
	assert.ErrorIs(t, repo.MarkRunning(ctx, missing), jobs.ErrJobNotFound)
	assert.ErrorIs(t, repo.MarkFailed(ctx, missing, "boom"), jobs.ErrJobNotFound)
	assert.ErrorIs(t, repo.MarkSucceeded(ctx, missing), jobs.ErrJobNotFound)
}

func (s *IntegrationTestSuite) TestJobsRepo_MarkFailed() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	t := s.T()

	repo := jobs.NewRepo(s.pgPool)
	job := &jobs.Job{
		ID:         uuid.New(),
		Status:     jobs.StatusQueued,
		Exercise:   "pullup",
		VideoRoute: "https://cdn.example.com/v/1.jsonl",
	}
	require.NoError(t, repo.Create(ctx, job))
	require.NoError(t, repo.MarkFailed(ctx, job.ID, "frame source unavailable"))

	stored, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusFailed, stored.Status)
	assert.Equal(t, "frame source unavailable", stored.Error)
	assert.Empty(t, stored.VideoID)
}
