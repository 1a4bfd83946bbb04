// Package monitor renders the pipeline-level verdict after all workers have
// finished, from the structured per-video results and the retained linker logs.
//
// The linker's exit status is not trusted as a fatal indicator: a JVM that ran
// out of heap can still exit zero after writing a partial result. The reliable
// symptom is the OutOfMemoryError signature in the captured log, so the run
// completes everything first and this package judges afterwards.
package monitor

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/trajlink/trajlink-go/internal/errors"
	"github.com/trajlink/trajlink-go/internal/logging"
)

// OOMSignature is the fatal marker scanned for in worker logs.
const OOMSignature = "java.lang.OutOfMemoryError"

// VideoStatus classifies one video's path through the pipeline.
type VideoStatus string

const (
	StatusLinked    VideoStatus = "linked"     // linker produced a trajectory segment
	StatusEmpty     VideoStatus = "empty"      // no particles detected, linking skipped
	StatusToolError VideoStatus = "tool-error" // linker failed or produced no output
)

// VideoResult is the structured outcome one worker records per video.
type VideoResult struct {
	Video      string
	Status     VideoStatus
	OutputFile string // trajectory segment path, empty unless linked
	LogFile    string // retained worker log, empty when linking was skipped
	ExitCode   int
	TimedOut   bool
	Note       string // human readable detail, e.g. the empty-input notice
}

// Verdict is the aggregated judgment over a whole run.
type Verdict struct {
	Linked      []string
	Empty       []string
	ToolErrors  []string
	OOMVideos   []string // videos whose logs carry the out-of-memory signature
	WorkerMemMB int      // per-worker budget, echoed into the failure message
}

// Fatal reports whether the run must be failed.
func (v *Verdict) Fatal() bool {
	return len(v.OOMVideos) > 0
}

// Err returns the run-aborting error for a fatal verdict, nil otherwise.
func (v *Verdict) Err() error {
	if !v.Fatal() {
		return nil
	}
	return errors.Newf(
		"linking failed for %d video(s) with %s; increase the per-worker memory (currently %d MB) and rerun: %s",
		len(v.OOMVideos), OOMSignature, v.WorkerMemMB, strings.Join(v.OOMVideos, ", ")).
		Category(errors.CategoryResourceExhaustion).
		Context("affected_videos", len(v.OOMVideos)).
		Build()
}

// Monitor scans worker logs and reduces per-video results to one verdict.
type Monitor struct {
	workerMemMB int
	logger      *slog.Logger
}

// New returns a Monitor that reports workerMemMB in its failure advice.
func New(workerMemMB int) *Monitor {
	return &Monitor{
		workerMemMB: workerMemMB,
		logger:      logging.ForService("monitor"),
	}
}

// Scan inspects every retained worker log line-by-line for the fatal
// signature and aggregates the per-video statuses. Logs are left in place;
// call CleanupLogs on a clean verdict.
func (m *Monitor) Scan(results []VideoResult) (*Verdict, error) {
	verdict := &Verdict{WorkerMemMB: m.workerMemMB}

	for i := range results {
		r := &results[i]
		switch r.Status {
		case StatusLinked:
			verdict.Linked = append(verdict.Linked, r.Video)
		case StatusEmpty:
			verdict.Empty = append(verdict.Empty, r.Video)
		case StatusToolError:
			verdict.ToolErrors = append(verdict.ToolErrors, r.Video)
		}

		if r.LogFile == "" {
			continue
		}
		found, err := logContainsSignature(r.LogFile)
		if err != nil {
			return nil, err
		}
		if found {
			verdict.OOMVideos = append(verdict.OOMVideos, r.Video)
			if m.logger != nil {
				m.logger.Warn("out-of-memory signature in worker log", "video", r.Video, "log", r.LogFile)
			}
		}
	}

	if m.logger != nil {
		m.logger.Info("verdict",
			"linked", len(verdict.Linked),
			"empty", len(verdict.Empty),
			"tool_errors", len(verdict.ToolErrors),
			"oom", len(verdict.OOMVideos))
	}

	return verdict, nil
}

// CleanupLogs removes all retained worker logs. Called only after a clean
// verdict; fatal runs keep the logs as diagnostic artifacts.
func (m *Monitor) CleanupLogs(results []VideoResult) error {
	var errs []error
	for i := range results {
		if results[i].LogFile == "" {
			continue
		}
		if err := os.Remove(results[i].LogFile); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("removing %s: %w", results[i].LogFile, err))
		}
	}
	return errors.Join(errs...)
}

// logContainsSignature scans one log file for the fatal marker. A log that was
// never written (linker crashed before output) is treated as clean; its video
// is already classified as a tool error.
func logContainsSignature(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.New(err).
			Category(errors.CategoryFileIO).
			Context("log_file", path).
			Build()
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), OOMSignature) {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, errors.New(err).
			Category(errors.CategoryFileIO).
			Context("log_file", path).
			Build()
	}
	return false, nil
}
