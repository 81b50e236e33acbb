package pose

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/2beens/formcheck/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrSourceUnavailable = errors.New("frame source unavailable")
	ErrMalformedFrame    = errors.New("malformed frame")
)

// Source is a lazily produced, finite, non-restartable sequence of frames
// in increasing timestamp order. Next returns io.EOF once exhausted.
type Source interface {
	Next() (Frame, error)
	Close() error
}

// SliceSource serves frames from memory.
type SliceSource struct {
	frames []Frame
	pos    int
}

func NewSliceSource(frames []Frame) *SliceSource {
	return &SliceSource{frames: frames}
}

func (s *SliceSource) Next() (Frame, error) {
	if s.pos >= len(s.frames) {
		return Frame{}, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

func (s *SliceSource) Close() error {
	return nil
}

// wireFrame is one JSONL line written by the pose-estimation sidecar.
// Landmarks come either as a name-keyed object or as the 33-point MediaPipe array.
type wireFrame struct {
	TS        *int64           `json:"ts"`
	Detected  *bool            `json:"detected,omitempty"`
	Landmarks map[string]Point `json:"landmarks"`
	Pose      []Point          `json:"pose,omitempty"`
}

func (w wireFrame) toFrame() (Frame, error) {
	if w.TS == nil {
		return Frame{}, errors.New("missing timestamp")
	}
	if len(w.Pose) > 0 && len(w.Pose) != NumPoseLandmark {
		return Frame{}, fmt.Errorf("pose array has %d points, expected %d", len(w.Pose), NumPoseLandmark)
	}

	f := Frame{
		TimestampMS: *w.TS,
		NoPerson:    w.Detected != nil && !*w.Detected,
		Landmarks:   w.Landmarks,
	}
	if len(w.Pose) > 0 {
		f.Landmarks = make(map[string]Point, NumPoseLandmark)
		for i, p := range w.Pose {
			f.Landmarks[LandmarkOrder[i]] = p
		}
	}
	return f, nil
}

// JSONLSource decodes one frame per line.
type JSONLSource struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int

	// first frame, decoded ahead by Open
	peeked    *Frame
	peekedErr error
}

func NewJSONLSource(r io.ReadCloser) *JSONLSource {
	scanner := bufio.NewScanner(r)
	// a 33-landmark line with visibility is ~4KB, leave plenty of headroom
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &JSONLSource{
		scanner: scanner,
		closer:  r,
	}
}

func (s *JSONLSource) Next() (Frame, error) {
	if s.peeked != nil || s.peekedErr != nil {
		f, err := s.peeked, s.peekedErr
		s.peeked, s.peekedErr = nil, nil
		if err != nil {
			return Frame{}, err
		}
		return *f, nil
	}
	return s.next()
}

// peek decodes the first frame without consuming it. An empty stream is
// not an error: Next then reports io.EOF.
func (s *JSONLSource) peek() error {
	f, err := s.next()
	switch {
	case errors.Is(err, io.EOF):
		s.peekedErr = io.EOF
		return nil
	case err != nil:
		return err
	}
	s.peeked = &f
	return nil
}

func (s *JSONLSource) next() (Frame, error) {
	for s.scanner.Scan() {
		s.line++
		raw := strings.TrimSpace(s.scanner.Text())
		if raw == "" {
			continue
		}

		var w wireFrame
		if err := json.Unmarshal([]byte(raw), &w); err != nil {
			return Frame{}, fmt.Errorf("%w: line %d: %w", ErrMalformedFrame, s.line, err)
		}
		f, err := w.toFrame()
		if err != nil {
			return Frame{}, fmt.Errorf("%w: line %d: %w", ErrMalformedFrame, s.line, err)
		}
		return f, nil
	}

	if err := s.scanner.Err(); err != nil {
		return Frame{}, fmt.Errorf("read line %d: %w", s.line+1, err)
	}
	return Frame{}, io.EOF
}

func (s *JSONLSource) Close() error {
	return s.closer.Close()
}

// Opener opens landmark streams from local paths or http(s) URLs.
type Opener struct {
	httpClient *http.Client
}

func NewOpener(httpClient *http.Client) *Opener {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Opener{
		httpClient: httpClient,
	}
}

// Open returns a Source for location. Failures to reach the data, and data
// whose first line is not a frame, are reported as ErrSourceUnavailable
// before any frame is produced.
func (o *Opener) Open(ctx context.Context, location string) (_ Source, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "pose.source.open")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("location", location))

	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return o.openHTTP(ctx, location)
	}

	file, err := os.Open(strings.TrimPrefix(location, "file://"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	log.Debugf("opened landmarks file: %s", file.Name())
	return openJSONL(file)
}

func openJSONL(r io.ReadCloser) (Source, error) {
	src := NewJSONLSource(r)
	if err := src.peek(); err != nil {
		_ = src.Close()
		// not a landmarks stream at all, so not a malformed frame either
		return nil, fmt.Errorf("%w: not a landmarks stream: %v", ErrSourceUnavailable, err)
	}
	return src, nil
}

func (o *Opener) openHTTP(ctx context.Context, url string) (Source, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: get %s: status %d", ErrSourceUnavailable, url, resp.StatusCode)
	}

	log.Debugf("streaming landmarks from: %s", url)
	return openJSONL(resp.Body)
}
