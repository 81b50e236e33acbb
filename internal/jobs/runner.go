package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/formcheck/internal/analysis"
	"github.com/2beens/formcheck/internal/exercise"
	"github.com/2beens/formcheck/internal/pose"
	"github.com/2beens/formcheck/internal/telemetry/metrics"
	"github.com/2beens/formcheck/internal/telemetry/tracing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=jobs_test

type jobStore interface {
	MarkRunning(ctx context.Context, id uuid.UUID) error
	MarkSucceeded(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	SaveAnalysis(ctx context.Context, task Task, a *analysis.Analysis) error
}

type analyzer interface {
	Analyze(ctx context.Context, exerciseID string, src pose.Source, opts ...analysis.SessionOption) (*analysis.Analysis, error)
}

type sourceOpener interface {
	Open(ctx context.Context, location string) (pose.Source, error)
}

type RunnerParams struct {
	Store          jobStore
	Engine         analyzer
	Opener         sourceOpener
	Registry       *exercise.Registry
	MetricsManager *metrics.Manager
	// JobTimeout bounds a single analysis; zero means no bound.
	JobTimeout time.Duration
}

// Runner drives one job through running to succeeded or failed.
type Runner struct {
	store          jobStore
	engine         analyzer
	opener         sourceOpener
	registry       *exercise.Registry
	metricsManager *metrics.Manager
	jobTimeout     time.Duration
}

func NewRunner(params RunnerParams) *Runner {
	return &Runner{
		store:          params.Store,
		engine:         params.Engine,
		opener:         params.Opener,
		registry:       params.Registry,
		metricsManager: params.MetricsManager,
		jobTimeout:     params.JobTimeout,
	}
}

// Run executes the task. Any failure after the job is marked running marks
// it failed with the error text; no partial result is stored.
func (r *Runner) Run(ctx context.Context, task Task) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "jobs.runner.run")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("job_id", task.JobID.String()),
		attribute.String("exercise", task.Exercise),
	)

	log.Debugf("job %s: analyzing %s from [%s]", task.JobID, task.Exercise, task.VideoRoute)

	if err := r.store.MarkRunning(ctx, task.JobID); err != nil {
		return fmt.Errorf("mark running: %w", err)
	}

	start := time.Now()
	a, err := r.analyze(ctx, task)
	if err != nil {
		r.fail(ctx, task, err)
		return err
	}

	err = r.store.SaveAnalysis(ctx, task, a)
	if errors.Is(err, ErrAnalysisExists) {
		// redelivered task, an earlier run already stored the result
		log.Warnf("job %s: analysis already stored, keeping it", task.JobID)
		if err := r.store.MarkSucceeded(context.WithoutCancel(ctx), task.JobID); err != nil {
			return fmt.Errorf("mark succeeded: %w", err)
		}
		return nil
	}
	if err != nil {
		err = fmt.Errorf("save analysis: %w", err)
		r.fail(ctx, task, err)
		return err
	}

	r.observe(a, time.Since(start))
	log.Infof(
		"job %s: %s done in %s, %d reps, score %.1f",
		task.JobID, a.Exercise, time.Since(start).Round(time.Millisecond), a.Result.Reps, a.Result.Score,
	)

	return nil
}

func (r *Runner) analyze(ctx context.Context, task Task) (*analysis.Analysis, error) {
	// reject before touching the source
	if _, err := r.registry.Lookup(task.Exercise); err != nil {
		return nil, err
	}

	if r.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.jobTimeout)
		defer cancel()
	}

	src, err := r.opener.Open(ctx, task.VideoRoute)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := src.Close(); err != nil {
			log.Warnf("job %s: close source: %s", task.JobID, err)
		}
	}()

	return r.engine.Analyze(ctx, task.Exercise, src)
}

func (r *Runner) fail(ctx context.Context, task Task, cause error) {
	log.Errorf("job %s failed: %s", task.JobID, cause)

	// the job context may be the one that expired
	if err := r.store.MarkFailed(context.WithoutCancel(ctx), task.JobID, cause.Error()); err != nil {
		log.Errorf("job %s: mark failed: %s", task.JobID, err)
	}

	if r.metricsManager != nil {
		r.metricsManager.CounterJobs.WithLabelValues(r.exerciseLabel(task), string(StatusFailed)).Inc()
	}
}

func (r *Runner) observe(a *analysis.Analysis, took time.Duration) {
	stats := a.Stats
	log.Debugf(
		"frames: %d seen, %d used, %d without person, %d without signal, %d out of order",
		stats.Frames, stats.Used, stats.NoPerson, stats.NoSignal, stats.OutOfOrder,
	)

	if r.metricsManager == nil {
		return
	}

	m := r.metricsManager
	m.CounterJobs.WithLabelValues(a.Exercise, string(StatusSucceeded)).Inc()
	m.HistAnalysisDuration.WithLabelValues(a.Exercise).Observe(took.Seconds())
	for _, entry := range a.Result.Details.FeedbackList {
		m.CounterReps.WithLabelValues(a.Exercise, string(entry.Type)).Inc()
	}
	m.CounterFramesSkipped.WithLabelValues("no_person").Add(float64(stats.NoPerson))
	m.CounterFramesSkipped.WithLabelValues("no_signal").Add(float64(stats.NoSignal))
	m.CounterFramesSkipped.WithLabelValues("out_of_order").Add(float64(stats.OutOfOrder))
}

func (r *Runner) exerciseLabel(task Task) string {
	p, err := r.registry.Lookup(task.Exercise)
	if err != nil {
		return "unsupported"
	}
	return p.Key
}
