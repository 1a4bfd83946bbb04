// Package pipeline orchestrates a full linking run: load detection tables,
// partition videos across a bounded worker pool, drive the external linker
// per video inside isolated workspaces, merge outputs, derive kinematics and
// render the final verdict.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/trajlink/trajlink-go/internal/conf"
	"github.com/trajlink/trajlink-go/internal/datastore"
	"github.com/trajlink/trajlink-go/internal/detections"
	"github.com/trajlink/trajlink-go/internal/errors"
	"github.com/trajlink/trajlink-go/internal/frames"
	"github.com/trajlink/trajlink-go/internal/kinematics"
	"github.com/trajlink/trajlink-go/internal/linker"
	"github.com/trajlink/trajlink-go/internal/logging"
	"github.com/trajlink/trajlink-go/internal/merge"
	"github.com/trajlink/trajlink-go/internal/monitor"
	"github.com/trajlink/trajlink-go/internal/partition"
	"github.com/trajlink/trajlink-go/internal/trajectory"
	"github.com/trajlink/trajlink-go/internal/workspace"
)

// Result is everything one run produced.
type Result struct {
	RunID   string
	Plan    *partition.Plan
	Videos  []monitor.VideoResult
	Dataset *trajectory.Dataset
	Verdict *monitor.Verdict
	CSVPath string
}

// Pipeline runs the whole workload for one configuration.
type Pipeline struct {
	settings *conf.Settings
	runner   linker.Runner
	runID    string
	logger   *slog.Logger
}

// New builds a pipeline that invokes the real external linker.
func New(settings *conf.Settings) *Pipeline {
	return NewWithRunner(settings, linker.NewInvoker(settings))
}

// NewWithRunner builds a pipeline with a custom linker runner; tests use this
// to exercise the pool without a JVM.
func NewWithRunner(settings *conf.Settings, runner linker.Runner) *Pipeline {
	return &Pipeline{
		settings: settings,
		runner:   runner,
		runID:    uuid.NewString()[:8],
		logger:   logging.ForService("pipeline"),
	}
}

// RunID returns the identifier stamped into workspaces, logs and the datastore.
func (p *Pipeline) RunID() string {
	return p.runID
}

// Run executes the pipeline end to end. The merged dataset is written out
// before the verdict is evaluated, so a fatal resource-exhaustion verdict
// still leaves the healthy videos' results on disk.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	tables, err := detections.LoadDir(p.settings.Input.Dir, p.settings.Input.Pattern)
	if err != nil {
		return nil, err
	}

	result := &Result{RunID: p.runID}

	// Videos with zero detections are excluded before partitioning and only
	// ever appear in the notice list.
	var linkable []*detections.Table
	for _, table := range tables {
		if table.Empty() {
			p.info("no particles detected", "video", table.Video)
			result.Videos = append(result.Videos, monitor.VideoResult{
				Video:  table.Video,
				Status: monitor.StatusEmpty,
				Note:   "no particles detected",
			})
			continue
		}
		linkable = append(linkable, table)
	}

	outDir := conf.GetBasePath(p.settings.Output.Dir)
	segmentsDir := filepath.Join(outDir, "segments")
	logsDir := filepath.Join(outDir, "logs")
	for _, dir := range []string{segmentsDir, logsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.New(err).
				Category(errors.CategoryFileIO).
				Context("dir", dir).
				Build()
		}
	}

	if len(linkable) > 0 {
		plan, err := partition.Compute(&p.settings.Pool, len(linkable))
		if err != nil {
			return nil, err
		}
		result.Plan = plan
		p.info("starting worker pool", "run", p.runID, "plan", plan.Describe())

		batchResults, err := p.runPool(ctx, plan, linkable, segmentsDir, logsDir)
		if err != nil {
			return nil, err
		}
		for _, rs := range batchResults {
			result.Videos = append(result.Videos, rs...)
		}
	}

	// Full barrier reached: merge everything the workers produced.
	dataset, err := p.mergeResults(linkable, result.Videos)
	if err != nil {
		return nil, err
	}
	kinematics.ComputeDataset(dataset, p.settings.FramePeriod())
	result.Dataset = dataset

	if err := p.persist(dataset, outDir, result); err != nil {
		return nil, err
	}

	// Judgment comes last, after results are safely on disk.
	mon := monitor.New(p.settings.Pool.WorkerMemoryMB)
	verdict, err := mon.Scan(result.Videos)
	if err != nil {
		return nil, err
	}
	result.Verdict = verdict

	if fatalErr := verdict.Err(); fatalErr != nil {
		// Logs stay behind as diagnostic artifacts.
		return result, fatalErr
	}

	if err := mon.CleanupLogs(result.Videos); err != nil {
		p.warn("failed to remove worker logs", "error", err)
	}
	p.info("pipeline complete",
		"run", p.runID,
		"linked", len(verdict.Linked),
		"empty", len(verdict.Empty),
		"tool_errors", len(verdict.ToolErrors))

	return result, nil
}

// runPool executes the partition plan on a bounded pool, one goroutine per
// batch. Workers share nothing but the read-only tables; each writes its
// results into its own slot.
func (p *Pipeline) runPool(ctx context.Context, plan *partition.Plan, linkable []*detections.Table, segmentsDir, logsDir string) ([][]monitor.VideoResult, error) {
	mgr := workspace.NewManager(p.settings, p.runID)
	batchResults := make([][]monitor.VideoResult, len(plan.Batches))

	g, gctx := errgroup.WithContext(ctx)
	for _, batch := range plan.Batches {
		batch := batch
		g.Go(func() error {
			results, err := p.runWorker(gctx, mgr, batch, linkable, segmentsDir, logsDir)
			if err != nil {
				return err
			}
			batchResults[batch.ID] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return batchResults, nil
}

// runWorker processes one batch sequentially inside a private workspace. Only
// workspace and frame-export failures are returned as errors; linker failures
// are recorded per video and judged after the barrier.
func (p *Pipeline) runWorker(ctx context.Context, mgr *workspace.Manager, batch partition.Batch, linkable []*detections.Table, segmentsDir, logsDir string) (results []monitor.VideoResult, err error) {
	ws, err := mgr.Acquire(batch.ID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := ws.Release(); releaseErr != nil && err == nil {
			err = releaseErr
		}
	}()

	for i := batch.Start; i < batch.End; i++ {
		table := linkable[i]

		framesDir, err := ws.FramesDir(table.Video)
		if err != nil {
			return nil, err
		}
		if _, err := frames.Export(table, framesDir); err != nil {
			return nil, err
		}

		req := &linker.Request{
			Video:      table.Video,
			FramesDir:  framesDir,
			JarPath:    ws.JarPath(),
			OutputFile: filepath.Join(segmentsDir, table.Video+".txt"),
			LogFile:    filepath.Join(logsDir, table.Video+".log"),
		}

		invocation, runErr := p.runner.Run(ctx, req)
		if runErr != nil {
			// Could not even start the linker; the pool keeps going and the
			// verdict reports this video.
			p.warn("linker invocation failed", "video", table.Video, "error", runErr)
			results = append(results, monitor.VideoResult{
				Video:   table.Video,
				Status:  monitor.StatusToolError,
				LogFile: req.LogFile,
				Note:    runErr.Error(),
			})
			continue
		}

		results = append(results, p.classify(table.Video, req, invocation))
	}

	return results, nil
}

// classify renders one invocation into a structured per-video result. A
// missing output file for a video that had detections is a tool error, even
// when the linker exited zero.
func (p *Pipeline) classify(video string, req *linker.Request, invocation *linker.Invocation) monitor.VideoResult {
	result := monitor.VideoResult{
		Video:    video,
		LogFile:  req.LogFile,
		ExitCode: invocation.ExitCode,
		TimedOut: invocation.TimedOut,
	}

	if _, err := os.Stat(req.OutputFile); err == nil {
		result.Status = monitor.StatusLinked
		result.OutputFile = req.OutputFile
		return result
	}

	result.Status = monitor.StatusToolError
	switch {
	case invocation.TimedOut:
		result.Note = "linker timed out"
	case invocation.ExitCode != 0:
		result.Note = fmt.Sprintf("linker exited with code %d", invocation.ExitCode)
	default:
		result.Note = "linker produced no output file"
	}
	p.warn("linking failed", "video", video, "note", result.Note)
	return result
}

// mergeResults pairs every linkable table with the segment its worker
// produced, when one exists.
func (p *Pipeline) mergeResults(linkable []*detections.Table, videoResults []monitor.VideoResult) (*trajectory.Dataset, error) {
	outputs := make(map[string]string, len(videoResults))
	for i := range videoResults {
		if videoResults[i].Status == monitor.StatusLinked {
			outputs[videoResults[i].Video] = videoResults[i].OutputFile
		}
	}

	inputs := make([]merge.Input, 0, len(linkable))
	for _, table := range linkable {
		inputs = append(inputs, merge.Input{
			Table:       table,
			SegmentFile: outputs[table.Video],
		})
	}
	return merge.Merge(inputs)
}

// persist writes the merged dataset to the CSV artifact and, when enabled,
// the SQLite datastore.
func (p *Pipeline) persist(dataset *trajectory.Dataset, outDir string, result *Result) error {
	result.CSVPath = filepath.Join(outDir, "trajectories.csv")
	if err := datastore.WriteCSV(dataset, result.CSVPath); err != nil {
		return err
	}

	store := datastore.New(p.settings)
	if store == nil {
		return nil
	}
	if err := store.Open(); err != nil {
		return err
	}
	defer store.Close()
	return store.SaveDataset(p.runID, dataset)
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
