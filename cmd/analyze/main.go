package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/2beens/formcheck/internal/analysis"
	"github.com/2beens/formcheck/internal/exercise"
	"github.com/2beens/formcheck/internal/logging"
	"github.com/2beens/formcheck/internal/pose"
	"github.com/2beens/formcheck/internal/report"
	"github.com/2beens/formcheck/pkg"

	log "github.com/sirupsen/logrus"
)

// analyze runs one repetition analysis offline, over a landmarks JSONL file
// or URL, and prints the result JSON to stdout.
func main() {
	exerciseID := flag.String("exercise", "", "exercise name or synonym (e.g. squat, push-up, dominadas)")
	landmarks := flag.String("landmarks", "", "landmarks JSONL file path or http(s) URL")
	reportPath := flag.String("report", "", "optional PDF report output path")
	profilesPath := flag.String("profiles", "", "exercise profiles YAML (empty for the built-in ones)")
	withStats := flag.Bool("stats", false, "print frame stats along with the result")
	logLevel := flag.String("log-level", "warn", "log level")
	logFile := flag.String("log-file", "", "log file path (empty logs to stderr)")
	timeout := flag.Duration("timeout", 2*time.Minute, "analysis timeout")
	flag.Parse()

	// stdout carries the result JSON
	log.SetOutput(os.Stderr)
	if *logFile != "" {
		log.SetOutput(logging.Output(*logFile, false))
	}
	log.SetLevel(logging.GetLevel(*logLevel))

	if *exerciseID == "" || *landmarks == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	if err := run(ctx, params{
		exerciseID:   *exerciseID,
		landmarks:    *landmarks,
		reportPath:   *reportPath,
		profilesPath: *profilesPath,
		withStats:    *withStats,
	}); err != nil {
		log.Errorf("analyze: %s", err)
		os.Exit(1)
	}
}

type params struct {
	exerciseID   string
	landmarks    string
	reportPath   string
	profilesPath string
	withStats    bool
}

func run(ctx context.Context, p params) error {
	if p.reportPath != "" {
		dir := filepath.Dir(p.reportPath)
		exists, err := pkg.PathExists(dir, true)
		if err != nil {
			return fmt.Errorf("check report dir: %w", err)
		}
		if !exists {
			return fmt.Errorf("report dir [%s] does not exist", dir)
		}
	}

	registry, err := loadRegistry(p.profilesPath)
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}

	opener := pose.NewOpener(&http.Client{Timeout: time.Minute})
	src, err := opener.Open(ctx, p.landmarks)
	if err != nil {
		return err
	}
	defer func() {
		if err := src.Close(); err != nil {
			log.Warnf("close landmarks source: %s", err)
		}
	}()

	var opts []analysis.SessionOption
	if p.reportPath != "" {
		opts = append(opts, analysis.WithTrace())
	}

	a, err := analysis.NewEngine(registry).Analyze(ctx, p.exerciseID, src, opts...)
	if err != nil {
		return err
	}

	var out any = a.Result
	if p.withStats {
		out = struct {
			analysis.Result
			Stats analysis.Stats `json:"stats"`
		}{a.Result, a.Stats}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	if p.reportPath != "" {
		if err := writeReport(p.reportPath, a); err != nil {
			return fmt.Errorf("report: %w", err)
		}
		log.Infof("report written to %s", p.reportPath)
	}
	return nil
}

func loadRegistry(profilesPath string) (*exercise.Registry, error) {
	if profilesPath == "" {
		return exercise.DefaultRegistry()
	}
	return exercise.LoadRegistryFile(profilesPath)
}

func writeReport(path string, a *analysis.Analysis) (err error) {
	var png []byte
	if a.Trace != nil && len(a.Trace.Points) > 0 {
		png, err = report.AngleTracePlot(a.Trace, a.Profile)
		if err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return report.WritePDF(f, a, png)
}
