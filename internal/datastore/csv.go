package datastore

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/trajlink/trajlink-go/internal/errors"
	"github.com/trajlink/trajlink-go/internal/trajectory"
)

// missingValue marks undefined kinematic fields in the CSV artifact.
const missingValue = "NA"

// WriteCSV renders the merged dataset as a CSV file, one row per fix, with the
// morphology columns carried through by name.
func WriteCSV(dataset *trajectory.Dataset, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer file.Close()

	w := csv.NewWriter(file)

	header := []string{"video", "trajectory", "trajectory_key", "frame", "x", "y"}
	header = append(header, dataset.MorphColumns...)
	header = append(header, kinematicColumns...)
	if err := w.Write(header); err != nil {
		return errors.New(err).Category(errors.CategoryFileIO).Build()
	}

	for i := range dataset.Trajectories {
		tr := &dataset.Trajectories[i]
		for j := range tr.Fixes {
			if err := w.Write(fixRow(tr, &tr.Fixes[j], len(dataset.MorphColumns))); err != nil {
				return errors.New(err).Category(errors.CategoryFileIO).Build()
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return errors.New(fmt.Errorf("failed to write CSV %s: %w", path, err)).
			Category(errors.CategoryFileIO).
			Build()
	}
	return nil
}

func fixRow(tr *trajectory.Trajectory, fix *trajectory.Fix, morphCols int) []string {
	row := []string{
		tr.Video,
		strconv.Itoa(tr.GlobalID),
		tr.Key,
		strconv.Itoa(fix.Frame),
		formatFloat(fix.X),
		formatFloat(fix.Y),
	}

	// Pad or truncate morphology to the dataset's column set.
	for i := 0; i < morphCols; i++ {
		if i < len(fix.Morph) {
			row = append(row, fix.Morph[i])
		} else {
			row = append(row, "")
		}
	}

	row = append(row,
		formatOptional(fix.Kin.StepLength),
		formatOptional(fix.Kin.StepDuration),
		formatOptional(fix.Kin.StepSpeed),
		formatOptional(fix.Kin.GrossDisplacement),
		formatOptional(fix.Kin.NetDisplacement),
		formatOptional(fix.Kin.AbsoluteAngle),
		formatOptional(fix.Kin.TurningAngle))
	return row
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return missingValue
	}
	return strconv.FormatFloat(*v, 'f', 6, 64)
}
