// Package trajectory defines the merged, globally addressable trajectory
// dataset assembled from per-video linker outputs.
package trajectory

import (
	"fmt"
	"sort"
)

// KinematicRecord holds per-fix derived movement metrics. Nil pointers are
// explicit missing values: the first fix of a trajectory has no predecessor
// and the second has no previous step vector, so their dependent fields stay
// nil rather than carrying a sentinel number.
type KinematicRecord struct {
	StepLength        *float64 // Euclidean distance from the previous fix
	StepDuration      *float64 // seconds elapsed since the previous fix
	StepSpeed         *float64 // StepLength / StepDuration
	GrossDisplacement *float64 // cumulative path length up to this fix
	NetDisplacement   *float64 // straight-line distance from the first fix
	AbsoluteAngle     *float64 // heading of the incoming step, radians (-π, π]
	TurningAngle      *float64 // signed change of heading between consecutive steps
}

// Fix is one point of a trajectory: position, frame, passthrough morphology
// and derived kinematics.
type Fix struct {
	Video    string
	GlobalID int
	LocalID  int
	Frame    int // zero-based frame index as emitted by the linker
	X        float64
	Y        float64
	Morph    []string // aligned with Dataset.MorphColumns
	Kin      KinematicRecord
}

// Trajectory is an ordered sequence of fixes attributed to one particle.
// GlobalID is unique across all videos of a run; Key records the (video,
// local id) pair it was derived from.
type Trajectory struct {
	Video    string
	LocalID  int
	GlobalID int
	Key      string
	Fixes    []Fix
}

// NewKey renders the collision-free (video, local id) identity of a trajectory.
func NewKey(video string, localID int) string {
	return fmt.Sprintf("%s-%d", video, localID)
}

// SortFixes orders the trajectory's fixes by increasing frame.
func (tr *Trajectory) SortFixes() {
	sort.SliceStable(tr.Fixes, func(i, j int) bool {
		return tr.Fixes[i].Frame < tr.Fixes[j].Frame
	})
}

// Dataset is the merged result of one run.
type Dataset struct {
	MorphColumns []string
	Trajectories []Trajectory
}

// Sort orders trajectories by (video, global id) and each trajectory's fixes
// by frame, the deterministic order the merger guarantees.
func (d *Dataset) Sort() {
	for i := range d.Trajectories {
		d.Trajectories[i].SortFixes()
	}
	sort.SliceStable(d.Trajectories, func(i, j int) bool {
		if d.Trajectories[i].Video != d.Trajectories[j].Video {
			return d.Trajectories[i].Video < d.Trajectories[j].Video
		}
		return d.Trajectories[i].GlobalID < d.Trajectories[j].GlobalID
	})
}

// Fixes returns all fixes flattened in dataset order.
func (d *Dataset) Fixes() []Fix {
	var fixes []Fix
	for i := range d.Trajectories {
		fixes = append(fixes, d.Trajectories[i].Fixes...)
	}
	return fixes
}

// Videos returns the distinct video identifiers present, in dataset order.
func (d *Dataset) Videos() []string {
	var videos []string
	seen := make(map[string]bool)
	for i := range d.Trajectories {
		if !seen[d.Trajectories[i].Video] {
			seen[d.Trajectories[i].Video] = true
			videos = append(videos, d.Trajectories[i].Video)
		}
	}
	return videos
}
