package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/multierr"

	"github.com/2beens/formcheck/internal/analysis"
	"github.com/2beens/formcheck/internal/config"
	"github.com/2beens/formcheck/internal/db"
	"github.com/2beens/formcheck/internal/exercise"
	"github.com/2beens/formcheck/internal/jobs"
	"github.com/2beens/formcheck/internal/middleware"
	"github.com/2beens/formcheck/internal/misc"
	"github.com/2beens/formcheck/internal/pose"
	"github.com/2beens/formcheck/internal/telemetry/metrics"
	"github.com/2beens/formcheck/internal/telemetry/tracing"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config      *config.Config
	dbPool      *pgxpool.Pool
	redisClient *redis.Client

	registry *exercise.Registry
	jobsRepo *jobs.Repo
	queue    *jobs.Queue
	runner   *jobs.Runner

	// set while the embedded worker pool runs
	workersCancel context.CancelFunc
	workersDone   chan struct{}

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config      *config.Config
	Secrets     *config.Secrets
	VersionInfo string
	// ServiceName is reported to tracing and sentry.
	ServiceName string
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config
	secrets := params.Secrets
	if secrets == nil {
		secrets = &config.Secrets{}
	}
	serviceName := params.ServiceName
	if serviceName == "" {
		serviceName = "formcheck"
	}

	registry, err := loadRegistry(cfg.ProfilesPath)
	if err != nil {
		return nil, fmt.Errorf("load exercise profiles: %w", err)
	}
	log.Debugf("loaded %d exercise profiles", len(registry.Profiles()))

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDBName,
		DBUser:         cfg.PostgresUser,
		DBPassword:     secrets.PostgresPassword,
		MaxConns:       int32(cfg.Workers + 4),
		TracingEnabled: secrets.HoneycombEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	jobsRepo := jobs.NewRepo(dbPool)
	if err := jobsRepo.Migrate(ctx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": cfg.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("formcheck", "api", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: secrets.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(secrets.HoneycombEnabled, serviceName, rdb)
	if err != nil {
		dbPool.Close()
		return nil, err
	}

	// no client timeout: the body is streamed for as long as the job runs
	tracedHttpClient := &http.Client{
		Transport: otelhttp.NewTransport(newLandmarksTransport(cfg.LandmarksHTTPTimeout.Duration)),
	}

	s := &Server{
		config:      cfg,
		versionInfo: params.VersionInfo,
		dbPool:      dbPool,
		redisClient: rdb,

		registry: registry,
		jobsRepo: jobsRepo,
		queue:    jobs.NewQueue(rdb, cfg.QueueName),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}

	s.runner = jobs.NewRunner(jobs.RunnerParams{
		Store:          jobsRepo,
		Engine:         analysis.NewEngine(registry),
		Opener:         pose.NewOpener(tracedHttpClient),
		Registry:       registry,
		MetricsManager: metricsManager,
		JobTimeout:     cfg.JobTimeout.Duration,
	})

	return s, nil
}

// newLandmarksTransport bounds connecting and waiting for response headers
// by timeout. Reading the body is bounded by the job context.
func newLandmarksTransport(timeout time.Duration) *http.Transport {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if timeout <= 0 {
		return tr
	}
	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}
	tr.DialContext = dialer.DialContext
	tr.TLSHandshakeTimeout = timeout
	tr.ResponseHeaderTimeout = timeout
	return tr
}

func loadRegistry(profilesPath string) (*exercise.Registry, error) {
	if profilesPath == "" {
		return exercise.DefaultRegistry()
	}
	return exercise.LoadRegistryFile(profilesPath)
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("formcheck-router"))

	miscHandler := misc.NewHandler(s.versionInfo, s.healthChecks())
	miscHandler.SetupRoutes(r)

	jobsHandler := jobs.NewHandler(jobs.HandlerParams{
		Repo:           s.jobsRepo,
		Queue:          s.queue,
		Registry:       s.registry,
		CacheSizeMB:    s.config.ResultCacheSizeMB,
		CacheExpirySec: s.config.ResultCacheExpirySeconds,
	})
	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	jobsHandler.SetupRoutes(r, reqRateLimiter, s.metricsManager, s.config.AnalyzeRateLimitPerMin)

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

func (s *Server) healthChecks() map[string]misc.HealthCheck {
	checks := make(map[string]misc.HealthCheck)
	if s.dbPool != nil {
		checks["postgres"] = s.dbPool.Ping
	}
	if s.redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return s.redisClient.Ping(ctx).Err()
		}
	}
	return checks
}

// Serve starts the API and the metrics servers in the background.
func (s *Server) Serve(host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	s.ServeMetrics()
}

// ServeMetrics starts only the prometheus metrics server.
func (s *Server) ServeMetrics() {
	if s.metricsHttpServer != nil {
		return
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

// RunWorkers starts the analysis worker pool in the background. It stops on
// ctx cancellation or on GracefulShutdown, which waits for running jobs.
func (s *Server) RunWorkers(ctx context.Context, workers int) {
	if workers <= 0 {
		log.Infoln("no analysis workers configured")
		return
	}

	if moved, err := s.queue.Recover(ctx); err != nil {
		log.Errorf("recover unfinished tasks: %s", err)
	} else if moved > 0 {
		log.Warnf("requeued %d unfinished tasks", moved)
	}

	pool := jobs.NewWorkerPool(jobs.WorkerPoolParams{
		Queue:          s.queue,
		Runner:         s.runner,
		MetricsManager: s.metricsManager,
		Workers:        workers,
		DequeueTimeout: s.config.DequeueTimeout.Duration,
	})

	ctx, s.workersCancel = context.WithCancel(ctx)
	s.workersDone = make(chan struct{})
	go func() {
		defer close(s.workersDone)
		pool.Run(ctx)
	}()
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	var err error
	if s.httpServer != nil {
		if shutdownErr := s.httpServer.Shutdown(ctx); shutdownErr != nil {
			err = multierr.Append(err, fmt.Errorf("http server: %w", shutdownErr))
		}
		log.Warnln("server shut down")
	}

	if s.workersCancel != nil {
		s.workersCancel()
		// running jobs are bounded by the job timeout
		workersWait := time.NewTimer(s.config.JobTimeout.Duration + 5*time.Second)
		select {
		case <-s.workersDone:
			log.Debugln("analysis workers stopped")
		case <-workersWait.C:
			err = multierr.Append(err, errors.New("analysis workers did not stop in time"))
		}
		workersWait.Stop()
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if closeErr := s.redisClient.Close(); closeErr != nil {
			err = multierr.Append(err, fmt.Errorf("redis client: %w", closeErr))
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	if s.metricsHttpServer != nil {
		metricsCtx, metricsCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer metricsCancel()
		if shutdownErr := s.metricsHttpServer.Shutdown(metricsCtx); shutdownErr != nil {
			err = multierr.Append(err, fmt.Errorf("metrics http server: %w", shutdownErr))
		}
		log.Warnln("metrics server shut down")
	}

	for _, e := range multierr.Errors(err) {
		log.Errorf(" >>> graceful shutdown: %s", e)
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
