package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/formcheck/internal/analysis"
	"github.com/2beens/formcheck/internal/telemetry/tracing"
	"github.com/2beens/formcheck/pkg"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Schema creates the tables the repo works with. The video table is owned by
// the upload service; only its analysis column is written here.
const Schema = `
CREATE TABLE IF NOT EXISTS jobs
(
    id              UUID PRIMARY KEY,
    status          VARCHAR     NOT NULL,
    exercise        VARCHAR     NOT NULL,
    input_video_url TEXT        NOT NULL,
    video_id        VARCHAR,
    error           TEXT,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS ix_jobs_status ON jobs (status);

CREATE TABLE IF NOT EXISTS analyses
(
    id         UUID PRIMARY KEY,
    job_id     UUID             NOT NULL UNIQUE REFERENCES jobs (id) ON DELETE CASCADE,
    exercise   VARCHAR          NOT NULL,
    reps       INTEGER          NOT NULL,
    score      DOUBLE PRECISION NOT NULL,
    details    JSONB            NOT NULL,
    stats      JSONB            NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ      NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS video
(
    id       VARCHAR PRIMARY KEY,
    analysis JSONB
);
`

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Migrate applies Schema. Safe to run on every start.
func (r *Repo) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (r *Repo) Create(ctx context.Context, job *Job) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.jobs.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	err = r.db.QueryRow(ctx, `
		INSERT INTO jobs (id, status, exercise, input_video_url, video_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING created_at, updated_at
	`,
		job.ID,
		string(job.Status),
		job.Exercise,
		job.VideoRoute,
		string(job.VideoID),
	).Scan(&job.CreatedAt, &job.UpdatedAt)
	if pkg.IsUniqueViolationError(err) {
		return fmt.Errorf("%w: %s", ErrJobExists, job.ID)
	}
	return err
}

func (r *Repo) Get(ctx context.Context, id uuid.UUID) (_ *Job, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.jobs.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var (
		job     Job
		status  string
		videoID *string
		errText *string
	)
	err = r.db.QueryRow(ctx, `
		SELECT id, status, exercise, input_video_url, video_id, error, created_at, updated_at
		FROM jobs
		WHERE id = $1
	`, id).Scan(
		&job.ID,
		&status,
		&job.Exercise,
		&job.VideoRoute,
		&videoID,
		&errText,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}

	job.Status = Status(status)
	if videoID != nil {
		job.VideoID = VideoID(*videoID)
	}
	if errText != nil {
		job.Error = *errText
	}
	return &job, nil
}

func (r *Repo) MarkRunning(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.jobs.markrunning")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.setStatus(ctx, id, StatusRunning, "")
}

func (r *Repo) MarkSucceeded(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.jobs.marksucceeded")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.setStatus(ctx, id, StatusSucceeded, "")
}

func (r *Repo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.jobs.markfailed")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.setStatus(ctx, id, StatusFailed, reason)
}

func (r *Repo) setStatus(ctx context.Context, id uuid.UUID, status Status, reason string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE jobs
		SET status = $2, error = NULLIF($3, ''), updated_at = now()
		WHERE id = $1
	`, id, string(status), reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

// SaveAnalysis stores the result, copies it into the video row when the task
// references one, and marks the job succeeded, all in one transaction.
func (r *Repo) SaveAnalysis(ctx context.Context, task Task, a *analysis.Analysis) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.jobs.saveanalysis")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO analyses (id, job_id, exercise, reps, score, details, stats)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		uuid.New(),
		task.JobID,
		a.Exercise,
		a.Result.Reps,
		float64(a.Result.Score),
		a.Result.Details,
		a.Stats,
	)
	if pkg.IsUniqueViolationError(err) {
		return ErrAnalysisExists
	}
	if pkg.IsForeignKeyViolationError(err) {
		return ErrJobNotFound
	}
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}

	if task.VideoID != "" {
		tag, err := tx.Exec(ctx, `UPDATE video SET analysis = $1 WHERE id = $2`,
			VideoAnalysis{
				Exercise: a.Exercise,
				Reps:     a.Result.Reps,
				Score:    a.Result.Score,
				Details:  a.Result.Details,
			},
			string(task.VideoID),
		)
		if err != nil {
			return fmt.Errorf("update video: %w", err)
		}
		if tag.RowsAffected() == 0 {
			log.Warnf("job %s: video [%s] not found, analysis not copied", task.JobID, task.VideoID)
		}
	}

	tag, err := tx.Exec(ctx, `
		UPDATE jobs
		SET status = $2, error = NULL, updated_at = now()
		WHERE id = $1
	`, task.JobID, string(StatusSucceeded))
	if err != nil {
		return fmt.Errorf("mark succeeded: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}

	return nil
}

func (r *Repo) GetAnalysis(ctx context.Context, jobID uuid.UUID) (_ *StoredAnalysis, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.jobs.getanalysis")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var (
		sa    StoredAnalysis
		score float64
	)
	err = r.db.QueryRow(ctx, `
		SELECT id, job_id, exercise, reps, score, details, stats, created_at
		FROM analyses
		WHERE job_id = $1
	`, jobID).Scan(
		&sa.ID,
		&sa.JobID,
		&sa.Exercise,
		&sa.Reps,
		&score,
		&sa.Details,
		&sa.Stats,
		&sa.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAnalysisNotFound
	}
	if err != nil {
		return nil, err
	}

	sa.Score = analysis.Score(score)
	return &sa, nil
}
