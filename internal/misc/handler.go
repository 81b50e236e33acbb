package misc

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/2beens/formcheck/internal/telemetry/tracing"
	"github.com/2beens/formcheck/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

const (
	healthOK       = "ok"
	healthDegraded = "degraded"
)

type Handler struct {
	versionInfo  string
	checks       map[string]HealthCheck
	checkTimeout time.Duration
}

func NewHandler(versionInfo string, checks map[string]HealthCheck) *Handler {
	return &Handler{
		versionInfo:  versionInfo,
		checks:       checks,
		checkTimeout: 2 * time.Second,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	mainRouter.HandleFunc("/", handler.handleRoot).Methods("GET").Name("root")
	mainRouter.HandleFunc("/version", handler.handleGetVersionInfo).Methods("GET").Name("version")
	mainRouter.HandleFunc("/health", handler.handleHealth).Methods("GET").Name("health")
}

func (handler *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, "I'm OK, thanks ;)")
}

func (handler *Handler) handleGetVersionInfo(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, handler.versionInfo)
}

// handleHealth runs all checks concurrently and answers 503 if any failed.
func (handler *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "miscHandler.health")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, handler.checkTimeout)
	defer cancel()

	names := make([]string, 0, len(handler.checks))
	for name := range handler.checks {
		names = append(names, name)
	}
	slices.Sort(names)

	results := make([]string, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := handler.checks[name](ctx); err != nil {
				log.Warnf("health check [%s]: %s", name, err)
				results[i] = err.Error()
				return
			}
			results[i] = healthOK
		}()
	}
	wg.Wait()

	resp := HealthResponse{
		Status: healthOK,
		Checks: make(map[string]string, len(names)),
	}
	for i, name := range names {
		resp.Checks[name] = results[i]
		if results[i] != healthOK {
			resp.Status = healthDegraded
		}
	}
	span.SetAttributes(attribute.String("health.status", resp.Status))

	status := http.StatusOK
	if resp.Status != healthOK {
		status = http.StatusServiceUnavailable
	}
	pkg.WriteJSON(w, resp, status)
}
