package linker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/trajlink/trajlink-go/internal/conf"
	"github.com/trajlink/trajlink-go/internal/errors"
	"github.com/trajlink/trajlink-go/internal/logging"
)

// Request identifies one linker invocation for one video.
type Request struct {
	Video      string
	FramesDir  string // workspace directory of frame files
	JarPath    string // jar to run, workspace-private when runtime copying is on
	OutputFile string // where the linker writes its trajectory segment
	LogFile    string // where combined stdout+stderr is captured
}

// Invocation is the recorded outcome of one linker run. A non-zero exit code
// or a timeout is not an error here; the failure monitor renders the final
// verdict after all workers complete.
type Invocation struct {
	Video      string
	ExitCode   int
	TimedOut   bool
	Duration   time.Duration
	OutputFile string
	LogFile    string
}

// Runner abstracts linker execution so the pipeline can be exercised without a
// JVM on the test machine.
type Runner interface {
	Run(ctx context.Context, req *Request) (*Invocation, error)
}

// Invoker runs the external linker with a bounded wall-clock timeout.
type Invoker struct {
	builder      CommandBuilder
	memoryMB     int
	linkRange    int
	displacement float64
	timeout      time.Duration
	javaPath     string
	logger       *slog.Logger
}

// NewInvoker builds an Invoker from settings, selecting the command builder
// for the current platform.
func NewInvoker(settings *conf.Settings) *Invoker {
	return &Invoker{
		builder:      NewCommandBuilder(runtime.GOOS),
		memoryMB:     settings.Pool.WorkerMemoryMB,
		linkRange:    settings.Linker.LinkRange,
		displacement: settings.Linker.Displacement,
		timeout:      settings.Linker.Timeout,
		javaPath:     settings.Linker.JavaPath,
		logger:       logging.ForService("linker"),
	}
}

// Run executes the linker for one video. Errors are returned only when the
// process cannot be started or its log cannot be captured; the linker's own
// failures are recorded in the Invocation.
func (inv *Invoker) Run(ctx context.Context, req *Request) (*Invocation, error) {
	logFile, err := os.Create(req.LogFile)
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to create worker log for %s: %w", req.Video, err)).
			Category(errors.CategoryFileIO).
			Context("log_file", req.LogFile).
			Build()
	}
	defer logFile.Close()

	runCtx, cancel := context.WithTimeout(ctx, inv.timeout)
	defer cancel()

	spec := &CommandSpec{
		JavaPath:     inv.javaPath,
		JarPath:      req.JarPath,
		MemoryMB:     inv.memoryMB,
		LinkRange:    inv.linkRange,
		Displacement: inv.displacement,
		FramesDir:    req.FramesDir,
		OutputFile:   req.OutputFile,
	}

	cmd := inv.builder.Build(runCtx, spec)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if inv.logger != nil {
		inv.logger.Debug("invoking linker", "video", req.Video, "args", cmd.Args)
	}

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	result := &Invocation{
		Video:      req.Video,
		Duration:   elapsed,
		OutputFile: req.OutputFile,
		LogFile:    req.LogFile,
	}

	switch {
	case runErr == nil:
		// Linker exited cleanly; the log may still carry a fatal signature
		// which the monitor judges later.
	case runCtx.Err() == context.DeadlineExceeded:
		result.TimedOut = true
		result.ExitCode = -1
		fmt.Fprintf(logFile, "\ntrajlink: linker timed out after %s\n", inv.timeout)
	default:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			// Process never started, e.g. java missing from PATH.
			return nil, errors.New(fmt.Errorf("failed to start linker for %s: %w", req.Video, runErr)).
				Category(errors.CategoryLinkerExecution).
				Context("java", inv.javaPath).
				Build()
		}
	}

	if inv.logger != nil {
		inv.logger.Info("linker finished",
			"video", req.Video,
			"exit_code", result.ExitCode,
			"timed_out", result.TimedOut,
			"duration", elapsed.Round(time.Millisecond))
	}

	return result, nil
}
