// Package kinematics computes per-fix movement metrics over merged
// trajectories.
//
// Padding rules: fix 0 has no predecessor, so step length, duration, speed,
// absolute angle and turning angle stay nil there; the turning angle also
// needs the previous step vector and stays nil at fix 1. Gross and net
// displacement are defined from fix 0 onward and start at 0. Step speed is
// nil when the step duration is zero. Downstream consumers must handle nil
// fields without crashing; they are never encoded as 0 or a sentinel.
package kinematics

import (
	"math"

	"github.com/trajlink/trajlink-go/internal/trajectory"
)

// Compute fills the kinematic record of every fix in the trajectory, walking
// fixes in increasing frame order. framePeriod is the duration of one frame in
// seconds. Fixes must already be sorted by frame (the merger guarantees this).
func Compute(tr *trajectory.Trajectory, framePeriod float64) {
	gross := 0.0

	for i := range tr.Fixes {
		fix := &tr.Fixes[i]
		fix.Kin = trajectory.KinematicRecord{}

		// Displacements are defined for every fix, 0 at the start.
		if i == 0 {
			fix.Kin.GrossDisplacement = ptr(0)
			fix.Kin.NetDisplacement = ptr(0)
			continue
		}

		prev := &tr.Fixes[i-1]
		dx := fix.X - prev.X
		dy := fix.Y - prev.Y

		step := math.Hypot(dx, dy)
		fix.Kin.StepLength = ptr(step)

		duration := float64(fix.Frame-prev.Frame) * framePeriod
		fix.Kin.StepDuration = ptr(duration)
		if duration > 0 {
			fix.Kin.StepSpeed = ptr(step / duration)
		}

		gross += step
		fix.Kin.GrossDisplacement = ptr(gross)

		first := &tr.Fixes[0]
		fix.Kin.NetDisplacement = ptr(math.Hypot(fix.X-first.X, fix.Y-first.Y))

		angle := math.Atan2(dy, dx)
		fix.Kin.AbsoluteAngle = ptr(angle)

		if prev.Kin.AbsoluteAngle != nil {
			fix.Kin.TurningAngle = ptr(normalizeAngle(angle - *prev.Kin.AbsoluteAngle))
		}
	}
}

// ComputeDataset runs Compute over every trajectory of the dataset.
func ComputeDataset(dataset *trajectory.Dataset, framePeriod float64) {
	for i := range dataset.Trajectories {
		Compute(&dataset.Trajectories[i], framePeriod)
	}
}

// normalizeAngle maps an angle difference into (-π, π].
func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

func ptr(v float64) *float64 {
	return &v
}
