package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/2beens/formcheck/internal/exercise"
	"github.com/2beens/formcheck/internal/middleware"
	"github.com/2beens/formcheck/internal/telemetry/metrics"
	"github.com/2beens/formcheck/internal/telemetry/tracing"
	"github.com/2beens/formcheck/pkg"

	"github.com/coocood/freecache"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=jobs_test

type jobsRepo interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, id uuid.UUID) (*Job, error)
	GetAnalysis(ctx context.Context, jobID uuid.UUID) (*StoredAnalysis, error)
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

type taskEnqueuer interface {
	Enqueue(ctx context.Context, task Task) error
}

const (
	megabyte                = 1024 * 1024
	defaultCacheSizeMB      = 16
	defaultCacheExpirySec   = 10 * 60
	analysisCacheKeyPattern = "analysis::%s"
)

type AnalyzeRequest struct {
	VideoRoute string  `json:"video_route"`
	Exercise   string  `json:"exercise"`
	VideoID    VideoID `json:"video_id"`
}

type AnalyzeResponse struct {
	JobID  uuid.UUID `json:"job_id"`
	Status Status    `json:"status"`
}

type AnalysisStatusResponse struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

type ExerciseInfo struct {
	Key         string   `json:"key"`
	DisplayName string   `json:"displayName"`
	Synonyms    []string `json:"synonyms"`
}

type HandlerParams struct {
	Repo     jobsRepo
	Queue    taskEnqueuer
	Registry *exercise.Registry
	// CacheSizeMB and CacheExpirySec size the cache of finished analyses.
	CacheSizeMB    int
	CacheExpirySec int
}

type Handler struct {
	repo           jobsRepo
	queue          taskEnqueuer
	registry       *exercise.Registry
	cache          *freecache.Cache
	cacheExpirySec int
}

func NewHandler(params HandlerParams) *Handler {
	cacheSizeMB := params.CacheSizeMB
	if cacheSizeMB <= 0 {
		cacheSizeMB = defaultCacheSizeMB
	}
	cacheExpirySec := params.CacheExpirySec
	if cacheExpirySec <= 0 {
		cacheExpirySec = defaultCacheExpirySec
	}

	return &Handler{
		repo:           params.Repo,
		queue:          params.Queue,
		registry:       params.Registry,
		cache:          freecache.NewCache(cacheSizeMB * megabyte),
		cacheExpirySec: cacheExpirySec,
	}
}

func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	metricsManager *metrics.Manager,
	analyzeAllowedPerMin int,
) {
	mainRouter.HandleFunc("/jobs/{id}", handler.HandleGetJob).Methods("GET").Name("get-job")
	mainRouter.HandleFunc("/jobs/{id}/analysis", handler.HandleGetAnalysis).Methods("GET").Name("get-analysis")
	mainRouter.HandleFunc("/exercises", handler.HandleListExercises).Methods("GET").Name("list-exercises")

	analyzeSubrouter := mainRouter.PathPrefix("/analyze").Subrouter()
	analyzeSubrouter.HandleFunc("", handler.HandleAnalyze).Methods("POST").Name("analyze")

	// every accepted request costs a full analysis on a worker
	analyzeSubrouter.Use(middleware.RateLimit(rateLimiter, "analyze", analyzeAllowedPerMin, metricsManager))
}

func (handler *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.jobs.analyze")
	defer span.End()

	if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mediaType != pkg.ContentType.JSON {
		pkg.WriteJSONError(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("analyze, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	req.VideoRoute = strings.TrimSpace(req.VideoRoute)
	if req.VideoRoute == "" {
		pkg.WriteJSONError(w, "video_route empty", http.StatusBadRequest)
		return
	}

	profile, err := handler.registry.Lookup(req.Exercise)
	if err != nil {
		pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := &Job{
		ID:         uuid.New(),
		Status:     StatusQueued,
		Exercise:   profile.Key,
		VideoRoute: req.VideoRoute,
		VideoID:    req.VideoID,
	}
	span.SetAttributes(
		attribute.String("job_id", job.ID.String()),
		attribute.String("exercise", job.Exercise),
	)

	if err := handler.repo.Create(ctx, job); err != nil {
		log.Errorf("create job for [%s]: %s", job.VideoRoute, err)
		pkg.WriteJSONError(w, "failed to create job", http.StatusInternalServerError)
		return
	}

	if err := handler.queue.Enqueue(ctx, job.Task()); err != nil {
		log.Errorf("enqueue job %s: %s", job.ID, err)
		if err := handler.repo.MarkFailed(context.WithoutCancel(ctx), job.ID, fmt.Sprintf("enqueue: %s", err)); err != nil {
			log.Errorf("mark job %s failed: %s", job.ID, err)
		}
		pkg.WriteJSONError(w, "job queue unavailable", http.StatusServiceUnavailable)
		return
	}

	log.Debugf("job %s queued: %s from [%s]", job.ID, job.Exercise, job.VideoRoute)
	pkg.WriteJSON(w, AnalyzeResponse{
		JobID:  job.ID,
		Status: StatusQueued,
	}, http.StatusCreated)
}

func (handler *Handler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.jobs.get")
	defer span.End()

	id, ok := jobIDFromPath(w, r)
	if !ok {
		return
	}

	job, err := handler.repo.Get(ctx, id)
	if errors.Is(err, ErrJobNotFound) {
		pkg.WriteJSONError(w, "job not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("get job %s: %s", id, err)
		pkg.WriteJSONError(w, "failed to get job", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, job, http.StatusOK)
}

// HandleGetAnalysis returns the stored analysis of a succeeded job, 202 while
// the job is queued or running, and 422 once it failed.
func (handler *Handler) HandleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.jobs.analysis")
	defer span.End()

	id, ok := jobIDFromPath(w, r)
	if !ok {
		return
	}

	cacheKey := []byte(fmt.Sprintf(analysisCacheKeyPattern, id))
	if cached, err := handler.cache.Get(cacheKey); err == nil {
		log.Tracef("analysis of job %s found in cache", id)
		span.SetAttributes(attribute.Bool("cache.hit", true))
		pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, cached)
		return
	}

	stored, err := handler.repo.GetAnalysis(ctx, id)
	if errors.Is(err, ErrAnalysisNotFound) {
		handler.writeJobStatus(ctx, w, id)
		return
	}
	if err != nil {
		log.Errorf("get analysis of job %s: %s", id, err)
		pkg.WriteJSONError(w, "failed to get analysis", http.StatusInternalServerError)
		return
	}

	body, err := json.Marshal(stored)
	if err != nil {
		log.Errorf("marshal analysis of job %s: %s", id, err)
		pkg.WriteJSONError(w, "failed to get analysis", http.StatusInternalServerError)
		return
	}

	// a stored analysis never changes
	if err := handler.cache.Set(cacheKey, body, handler.cacheExpirySec); err != nil {
		log.Warnf("cache analysis of job %s: %s", id, err)
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, body)
}

func (handler *Handler) writeJobStatus(ctx context.Context, w http.ResponseWriter, id uuid.UUID) {
	job, err := handler.repo.Get(ctx, id)
	if errors.Is(err, ErrJobNotFound) {
		pkg.WriteJSONError(w, "job not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("get job %s: %s", id, err)
		pkg.WriteJSONError(w, "failed to get job", http.StatusInternalServerError)
		return
	}

	switch job.Status {
	case StatusFailed:
		pkg.WriteJSON(w, AnalysisStatusResponse{
			Status: StatusFailed,
			Error:  job.Error,
		}, http.StatusUnprocessableEntity)
	case StatusSucceeded:
		// succeeded but the row is gone
		log.Errorf("job %s succeeded without a stored analysis", id)
		pkg.WriteJSONError(w, "analysis not found", http.StatusNotFound)
	default:
		pkg.WriteJSON(w, map[string]string{"status": "pending"}, http.StatusAccepted)
	}
}

func (handler *Handler) HandleListExercises(w http.ResponseWriter, _ *http.Request) {
	profiles := handler.registry.Profiles()
	exercises := make([]ExerciseInfo, 0, len(profiles))
	for _, p := range profiles {
		exercises = append(exercises, ExerciseInfo{
			Key:         p.Key,
			DisplayName: p.DisplayName,
			Synonyms:    p.Synonyms,
		})
	}
	pkg.WriteJSON(w, exercises, http.StatusOK)
}

func jobIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := mux.Vars(r)["id"]
	if idStr == "" {
		pkg.WriteJSONError(w, "job id empty", http.StatusBadRequest)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		pkg.WriteJSONError(w, "invalid job id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}
