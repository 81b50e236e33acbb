//go:build integration_test || all_tests

package test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/2beens/formcheck/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type analysisResponse struct {
	JobID    string  `json:"job_id"`
	Exercise string  `json:"exercise"`
	Reps     int     `json:"reps"`
	Score    float64 `json:"score"`
	Details  struct {
		Summary      string `json:"summary"`
		FeedbackList []struct {
			Rep     int    `json:"rep"`
			Time    string `json:"time"`
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"feedback_list"`
		TotalErrors map[string]int `json:"total_errors"`
	} `json:"details"`
}

func (s *IntegrationTestSuite) postAnalyze(ctx context.Context, body map[string]any) (int, jobs.AnalyzeResponse) {
	t := s.T()

	reqBytes, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverEndpoint+"/analyze", bytes.NewReader(reqBytes))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var analyzeResp jobs.AnalyzeResponse
	if resp.StatusCode == http.StatusCreated {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&analyzeResp))
	}
	return resp.StatusCode, analyzeResp
}

// waitForAnalysis polls the analysis endpoint until it stops answering 202.
func (s *IntegrationTestSuite) waitForAnalysis(ctx context.Context, jobID string) (int, []byte) {
	t := s.T()

	var (
		status int
		body   []byte
	)
	require.Eventually(t, func() bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/jobs/%s/analysis", serverEndpoint, jobID), nil)
		require.NoError(t, err)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return false
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		body, err = io.ReadAll(resp.Body)
		require.NoError(t, err)
		return status != http.StatusAccepted
	}, 20*time.Second, 200*time.Millisecond)

	return status, body
}

func (s *IntegrationTestSuite) getJob(ctx context.Context, jobID string) jobs.Job {
	t := s.T()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/jobs/%s", serverEndpoint, jobID), nil)
	require.NoError(t, err)

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var job jobs.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))
	return job
}

func (s *IntegrationTestSuite) TestAnalyze_CleanSquats() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	t := s.T()

	route, err := writeLandmarks(s.tempDir, "clean-squats.jsonl", squatSession(3, 80))
	require.NoError(t, err)

	status, analyzeResp := s.postAnalyze(ctx, map[string]any{
		"video_route": route,
		"exercise":    "Sentadillas",
		"video_id":    42,
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, jobs.StatusQueued, analyzeResp.Status)

	status, body := s.waitForAnalysis(ctx, analyzeResp.JobID.String())
	require.Equal(t, http.StatusOK, status, string(body))

	var res analysisResponse
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, "squat", res.Exercise)
	assert.Equal(t, 3, res.Reps)
	assert.Equal(t, 10.0, res.Score)
	assert.Contains(t, res.Details.Summary, "Excellent!")
	require.Len(t, res.Details.FeedbackList, 3)
	for i, entry := range res.Details.FeedbackList {
		assert.Equal(t, i+1, entry.Rep)
		assert.Equal(t, "success", entry.Type)
		assert.Equal(t, "Good rep!", entry.Message)
	}
	assert.Equal(t, map[string]int{"depth": 0, "back": 0}, res.Details.TotalErrors)

	job := s.getJob(ctx, analyzeResp.JobID.String())
	assert.Equal(t, jobs.StatusSucceeded, job.Status)
	assert.Equal(t, jobs.VideoID("42"), job.VideoID)

	var videoAnalysis sql.NullString
	require.NoError(t, s.DB.QueryRowContext(ctx, `SELECT analysis FROM video WHERE id = '42'`).Scan(&videoAnalysis))
	require.True(t, videoAnalysis.Valid)

	var stored jobs.VideoAnalysis
	require.NoError(t, json.Unmarshal([]byte(videoAnalysis.String), &stored))
	assert.Equal(t, 3, stored.Reps)
	assert.Equal(t, "squat", stored.Exercise)
}

func (s *IntegrationTestSuite) TestAnalyze_ShallowSquats() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	t := s.T()

	route, err := writeLandmarks(s.tempDir, "shallow-squats.jsonl", squatSession(2, 120))
	require.NoError(t, err)

	status, analyzeResp := s.postAnalyze(ctx, map[string]any{
		"video_route": route,
		"exercise":    "squat",
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := s.waitForAnalysis(ctx, analyzeResp.JobID.String())
	require.Equal(t, http.StatusOK, status, string(body))

	var res analysisResponse
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, 2, res.Reps)
	assert.Equal(t, 7.0, res.Score)
	assert.Equal(t, 2, res.Details.TotalErrors["depth"])
	assert.Contains(t, res.Details.Summary, "improving your depth")
	for _, entry := range res.Details.FeedbackList {
		assert.Equal(t, "correction", entry.Type)
		assert.Equal(t, "Lower your hips more.", entry.Message)
	}
}

func (s *IntegrationTestSuite) TestAnalyze_MissingLandmarks() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	t := s.T()

	status, analyzeResp := s.postAnalyze(ctx, map[string]any{
		"video_route": "file:///does/not/exist.jsonl",
		"exercise":    "pushup",
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := s.waitForAnalysis(ctx, analyzeResp.JobID.String())
	require.Equal(t, http.StatusUnprocessableEntity, status, string(body))

	job := s.getJob(ctx, analyzeResp.JobID.String())
	assert.Equal(t, jobs.StatusFailed, job.Status)
	assert.NotEmpty(t, job.Error)
}

func (s *IntegrationTestSuite) TestAnalyze_UnsupportedExercise() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	status, _ := s.postAnalyze(ctx, map[string]any{
		"video_route": "file:///tmp/whatever.jsonl",
		"exercise":    "deadlift",
	})
	assert.Equal(s.T(), http.StatusBadRequest, status)
}
