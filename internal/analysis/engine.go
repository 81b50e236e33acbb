package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/2beens/formcheck/internal/exercise"
	"github.com/2beens/formcheck/internal/pose"
	"github.com/2beens/formcheck/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Analysis is the outcome of one engine run.
type Analysis struct {
	Exercise string            `json:"exercise"`
	Result   Result            `json:"result"`
	Stats    Stats             `json:"stats"`
	Trace    *Trace            `json:"trace,omitempty"`
	Profile  *exercise.Profile `json:"-"`
}

// Engine runs repetition analyses. It holds only the read-only profile
// registry, so one Engine serves any number of concurrent analyses.
type Engine struct {
	registry *exercise.Registry
}

func NewEngine(registry *exercise.Registry) *Engine {
	return &Engine{
		registry: registry,
	}
}

func (e *Engine) Registry() *exercise.Registry {
	return e.registry
}

// Analyze pulls every frame from src and returns the aggregated result.
// An unknown exercise fails before any frame is read. The source is not closed.
func (e *Engine) Analyze(
	ctx context.Context,
	exerciseID string,
	src pose.Source,
	opts ...SessionOption,
) (_ *Analysis, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analysis.engine.analyze")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("exercise", exerciseID))

	profile, err := e.registry.Lookup(exerciseID)
	if err != nil {
		return nil, err
	}

	session := NewSession(profile, opts...)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frame, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("next frame: %w", err)
		}

		if rep := session.Feed(frame); rep != nil {
			log.Tracef("%s rep %d closed at %s, score %.1f", profile.Key, rep.Index, FormatTime(rep.TimestampMS), rep.Score)
		}
	}

	if session.Phase() == PhaseDown {
		log.Debugf("%s: stream ended mid repetition, discarding it", profile.Key)
	}

	result := session.Result()
	stats := session.Stats()
	span.SetAttributes(
		attribute.Int("reps", result.Reps),
		attribute.Int("frames", stats.Frames),
		attribute.Int("frames.skipped", stats.Skipped()),
	)
	log.Debugf(
		"%s analyzed: %d reps, score %.1f, frames %d (skipped %d)",
		profile.Key, result.Reps, result.Score, stats.Frames, stats.Skipped(),
	)

	return &Analysis{
		Exercise: profile.Key,
		Result:   result,
		Stats:    stats,
		Trace:    session.Trace(),
		Profile:  profile,
	}, nil
}
