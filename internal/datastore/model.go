// Package datastore persists the merged trajectory dataset and renders it as
// a CSV artifact.
package datastore

import (
	"strings"

	"github.com/trajlink/trajlink-go/internal/trajectory"
)

// morphSeparator joins morphology values into one column; the values originate
// from a tab-delimited table and cannot contain tabs themselves.
const morphSeparator = "\t"

// FixRecord is one row of the merged dataset: one fix of one trajectory with
// its derived kinematics. Nullable kinematic columns mirror the in-memory
// missing markers.
type FixRecord struct {
	ID            uint   `gorm:"column:id;primaryKey;autoIncrement"`
	RunID         string `gorm:"index"`
	Video         string `gorm:"index"`
	TrajectoryID  int    `gorm:"index"` // globally unique within the run
	TrajectoryKey string // (video, local id) identity, e.g. "video01-3"
	LocalID       int
	Frame         int
	X             float64
	Y             float64
	Morphology    string // joined passthrough attribute values

	StepLength        *float64
	StepDuration      *float64
	StepSpeed         *float64
	GrossDisplacement *float64
	NetDisplacement   *float64
	AbsoluteAngle     *float64
	TurningAngle      *float64
}

// newFixRecord converts one in-memory fix for persistence.
func newFixRecord(runID string, fix *trajectory.Fix, key string) FixRecord {
	return FixRecord{
		RunID:         runID,
		Video:         fix.Video,
		TrajectoryID:  fix.GlobalID,
		TrajectoryKey: key,
		LocalID:       fix.LocalID,
		Frame:         fix.Frame,
		X:             fix.X,
		Y:             fix.Y,
		Morphology:    strings.Join(fix.Morph, morphSeparator),

		StepLength:        fix.Kin.StepLength,
		StepDuration:      fix.Kin.StepDuration,
		StepSpeed:         fix.Kin.StepSpeed,
		GrossDisplacement: fix.Kin.GrossDisplacement,
		NetDisplacement:   fix.Kin.NetDisplacement,
		AbsoluteAngle:     fix.Kin.AbsoluteAngle,
		TurningAngle:      fix.Kin.TurningAngle,
	}
}

// MorphValues splits the joined morphology column back into values.
func (r *FixRecord) MorphValues() []string {
	if r.Morphology == "" {
		return nil
	}
	return strings.Split(r.Morphology, morphSeparator)
}
