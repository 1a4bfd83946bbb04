package pipeline

import (
	"os"
	"path/filepath"

	"github.com/trajlink/trajlink-go/internal/conf"
	"github.com/trajlink/trajlink-go/internal/datastore"
	"github.com/trajlink/trajlink-go/internal/detections"
	"github.com/trajlink/trajlink-go/internal/kinematics"
	"github.com/trajlink/trajlink-go/internal/monitor"
)

// MergeExisting combines segment files a previous run left behind with the
// detection tables, skipping the worker pool entirely. Videos without a
// segment file are reported as tool errors in the verdict.
func (p *Pipeline) MergeExisting(segmentsDir string) (*Result, error) {
	tables, err := detections.LoadDir(p.settings.Input.Dir, p.settings.Input.Pattern)
	if err != nil {
		return nil, err
	}

	result := &Result{RunID: p.runID}
	var linkable []*detections.Table
	for _, table := range tables {
		if table.Empty() {
			result.Videos = append(result.Videos, monitor.VideoResult{
				Video:  table.Video,
				Status: monitor.StatusEmpty,
				Note:   "no particles detected",
			})
			continue
		}
		linkable = append(linkable, table)

		segment := filepath.Join(segmentsDir, table.Video+".txt")
		if _, err := os.Stat(segment); err == nil {
			result.Videos = append(result.Videos, monitor.VideoResult{
				Video:      table.Video,
				Status:     monitor.StatusLinked,
				OutputFile: segment,
			})
		} else {
			result.Videos = append(result.Videos, monitor.VideoResult{
				Video:  table.Video,
				Status: monitor.StatusToolError,
				Note:   "no segment file for video",
			})
		}
	}

	dataset, err := p.mergeResults(linkable, result.Videos)
	if err != nil {
		return nil, err
	}
	kinematics.ComputeDataset(dataset, p.settings.FramePeriod())
	result.Dataset = dataset

	outDir := conf.GetBasePath(p.settings.Output.Dir)
	if err := p.persist(dataset, outDir, result); err != nil {
		return nil, err
	}

	mon := monitor.New(p.settings.Pool.WorkerMemoryMB)
	verdict, err := mon.Scan(result.Videos)
	if err != nil {
		return nil, err
	}
	result.Verdict = verdict
	return result, nil
}

// Recompute reloads a merged CSV artifact and rewrites it with kinematics
// derived from the currently configured frame rate.
func Recompute(settings *conf.Settings, csvPath string) error {
	dataset, err := datastore.ReadCSV(csvPath)
	if err != nil {
		return err
	}
	kinematics.ComputeDataset(dataset, settings.FramePeriod())
	return datastore.WriteCSV(dataset, csvPath)
}
