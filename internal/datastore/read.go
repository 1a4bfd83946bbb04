package datastore

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/trajlink/trajlink-go/internal/errors"
	"github.com/trajlink/trajlink-go/internal/trajectory"
)

// kinematicColumns is the fixed tail of the CSV header, after the morphology
// columns.
var kinematicColumns = []string{
	"step_length", "step_duration", "step_speed",
	"gross_displacement", "net_displacement",
	"absolute_angle", "turning_angle",
}

const fixedLeadColumns = 6 // video, trajectory, trajectory_key, frame, x, y

// ReadCSV loads a previously written merged dataset back into memory, so
// kinematics can be recomputed without rerunning the linker. Kinematic columns
// in the file are ignored; only positions and morphology are carried.
func ReadCSV(path string) (*trajectory.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to parse CSV %s: %w", path, err)).
			Category(errors.CategoryFileParsing).
			Build()
	}
	if len(records) == 0 {
		return nil, errors.Newf("dataset CSV %s has no header row", path).
			Category(errors.CategoryFileParsing).
			Build()
	}

	header := records[0]
	morphCount := len(header) - fixedLeadColumns - len(kinematicColumns)
	if morphCount < 0 {
		return nil, errors.Newf("dataset CSV %s header has %d columns, expected at least %d",
			path, len(header), fixedLeadColumns+len(kinematicColumns)).
			Category(errors.CategoryFileParsing).
			Build()
	}

	dataset := &trajectory.Dataset{
		MorphColumns: append([]string(nil), header[fixedLeadColumns:fixedLeadColumns+morphCount]...),
	}

	// Rows for one trajectory are contiguous in the artifact, so a single
	// pass with a current-trajectory cursor reassembles the dataset.
	var current *trajectory.Trajectory
	for i, record := range records[1:] {
		fix, globalID, key, err := parseFixRow(record, morphCount)
		if err != nil {
			return nil, errors.New(fmt.Errorf("dataset CSV %s row %d: %w", path, i+2, err)).
				Category(errors.CategoryFileParsing).
				Build()
		}

		if current == nil || current.GlobalID != globalID {
			dataset.Trajectories = append(dataset.Trajectories, trajectory.Trajectory{
				Video:    fix.Video,
				LocalID:  fix.LocalID,
				GlobalID: globalID,
				Key:      key,
			})
			current = &dataset.Trajectories[len(dataset.Trajectories)-1]
		}
		current.Fixes = append(current.Fixes, fix)
	}

	dataset.Sort()
	return dataset, nil
}

func parseFixRow(record []string, morphCount int) (trajectory.Fix, int, string, error) {
	if len(record) < fixedLeadColumns+morphCount {
		return trajectory.Fix{}, 0, "", fmt.Errorf("expected at least %d fields, got %d",
			fixedLeadColumns+morphCount, len(record))
	}

	globalID, err := strconv.Atoi(record[1])
	if err != nil {
		return trajectory.Fix{}, 0, "", fmt.Errorf("failed to parse trajectory id %q", record[1])
	}
	frame, err := strconv.Atoi(record[3])
	if err != nil {
		return trajectory.Fix{}, 0, "", fmt.Errorf("failed to parse frame %q", record[3])
	}
	x, err := strconv.ParseFloat(record[4], 64)
	if err != nil {
		return trajectory.Fix{}, 0, "", fmt.Errorf("failed to parse x %q", record[4])
	}
	y, err := strconv.ParseFloat(record[5], 64)
	if err != nil {
		return trajectory.Fix{}, 0, "", fmt.Errorf("failed to parse y %q", record[5])
	}

	key := record[2]
	fix := trajectory.Fix{
		Video:    record[0],
		GlobalID: globalID,
		LocalID:  localIDFromKey(key, record[0]),
		Frame:    frame,
		X:        x,
		Y:        y,
		Morph:    append([]string(nil), record[fixedLeadColumns:fixedLeadColumns+morphCount]...),
	}
	return fix, globalID, key, nil
}

// localIDFromKey recovers the per-video trajectory id from a "video-id" key.
func localIDFromKey(key, video string) int {
	suffix := key
	if len(key) > len(video)+1 && key[:len(video)+1] == video+"-" {
		suffix = key[len(video)+1:]
	}
	id, err := strconv.Atoi(suffix)
	if err != nil {
		return 0
	}
	return id
}
