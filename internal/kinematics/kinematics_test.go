package kinematics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trajlink/trajlink-go/internal/trajectory"
)

func makeTrajectory(points ...[3]float64) *trajectory.Trajectory {
	tr := &trajectory.Trajectory{Video: "v", GlobalID: 1, Key: "v-1"}
	for _, p := range points {
		tr.Fixes = append(tr.Fixes, trajectory.Fix{
			Frame: int(p[0]),
			X:     p[1],
			Y:     p[2],
		})
	}
	return tr
}

// Worked example: fixes (0,0)@0, (3,4)@1, (3,8)@2 at frame period 1 s.
func TestComputeWorkedExample(t *testing.T) {
	tr := makeTrajectory([3]float64{0, 0, 0}, [3]float64{1, 3, 4}, [3]float64{2, 3, 8})
	Compute(tr, 1.0)

	fix0, fix1, fix2 := tr.Fixes[0].Kin, tr.Fixes[1].Kin, tr.Fixes[2].Kin

	// Fix 0: displacements defined and zero, everything else missing.
	require.NotNil(t, fix0.GrossDisplacement)
	require.NotNil(t, fix0.NetDisplacement)
	assert.Zero(t, *fix0.GrossDisplacement)
	assert.Zero(t, *fix0.NetDisplacement)
	assert.Nil(t, fix0.StepLength)
	assert.Nil(t, fix0.StepDuration)
	assert.Nil(t, fix0.StepSpeed)
	assert.Nil(t, fix0.AbsoluteAngle)
	assert.Nil(t, fix0.TurningAngle)

	// Fix 1: step metrics defined, turning angle still missing.
	require.NotNil(t, fix1.StepLength)
	assert.InDelta(t, 5.0, *fix1.StepLength, 1e-9)
	require.NotNil(t, fix1.StepDuration)
	assert.InDelta(t, 1.0, *fix1.StepDuration, 1e-9)
	require.NotNil(t, fix1.StepSpeed)
	assert.InDelta(t, 5.0, *fix1.StepSpeed, 1e-9)
	require.NotNil(t, fix1.GrossDisplacement)
	assert.InDelta(t, 5.0, *fix1.GrossDisplacement, 1e-9)
	require.NotNil(t, fix1.NetDisplacement)
	assert.InDelta(t, 5.0, *fix1.NetDisplacement, 1e-9)
	require.NotNil(t, fix1.AbsoluteAngle)
	assert.Nil(t, fix1.TurningAngle)

	// Fix 2: all fields defined.
	require.NotNil(t, fix2.StepLength)
	assert.InDelta(t, 4.0, *fix2.StepLength, 1e-9)
	require.NotNil(t, fix2.GrossDisplacement)
	assert.InDelta(t, 9.0, *fix2.GrossDisplacement, 1e-9)
	require.NotNil(t, fix2.NetDisplacement)
	assert.InDelta(t, math.Sqrt(73), *fix2.NetDisplacement, 1e-9) // hypot(3, 8)
	require.NotNil(t, fix2.TurningAngle)
}

func TestComputeNetDisplacementWorkedNumbers(t *testing.T) {
	tr := makeTrajectory([3]float64{0, 0, 0}, [3]float64{1, 3, 4}, [3]float64{2, 3, 8})
	Compute(tr, 1.0)

	net := tr.Fixes[2].Kin.NetDisplacement
	require.NotNil(t, net)
	assert.InDelta(t, math.Hypot(3, 8), *net, 1e-9)
	assert.InDelta(t, 8.544, *net, 1e-3)
}

func TestComputeAngles(t *testing.T) {
	// Right angle turn: east then north.
	tr := makeTrajectory([3]float64{0, 0, 0}, [3]float64{1, 1, 0}, [3]float64{2, 1, 1})
	Compute(tr, 1.0)

	require.NotNil(t, tr.Fixes[1].Kin.AbsoluteAngle)
	assert.InDelta(t, 0.0, *tr.Fixes[1].Kin.AbsoluteAngle, 1e-9)
	require.NotNil(t, tr.Fixes[2].Kin.AbsoluteAngle)
	assert.InDelta(t, math.Pi/2, *tr.Fixes[2].Kin.AbsoluteAngle, 1e-9)
	require.NotNil(t, tr.Fixes[2].Kin.TurningAngle)
	assert.InDelta(t, math.Pi/2, *tr.Fixes[2].Kin.TurningAngle, 1e-9)
}

func TestComputeTurningAngleNormalization(t *testing.T) {
	// Heading flips from just below +π to just above -π: the signed turn is
	// small, not nearly 2π.
	tr := makeTrajectory(
		[3]float64{0, 0, 0},
		[3]float64{1, -1, 0.001},
		[3]float64{2, 0, 0},
	)
	Compute(tr, 1.0)

	turn := tr.Fixes[2].Kin.TurningAngle
	require.NotNil(t, turn)
	assert.Less(t, math.Abs(*turn), 0.01)
}

func TestComputeFrameGapsScaleDuration(t *testing.T) {
	// A linked gap: frames 0 then 3 with frame period 0.04 s (25 fps).
	tr := makeTrajectory([3]float64{0, 0, 0}, [3]float64{3, 3, 0})
	Compute(tr, 0.04)

	fix1 := tr.Fixes[1].Kin
	require.NotNil(t, fix1.StepDuration)
	assert.InDelta(t, 0.12, *fix1.StepDuration, 1e-9)
	require.NotNil(t, fix1.StepSpeed)
	assert.InDelta(t, 25.0, *fix1.StepSpeed, 1e-9)
}

func TestComputeZeroDurationLeavesSpeedMissing(t *testing.T) {
	// Duplicate frame index, as a defensive parse of unexpected linker output.
	tr := makeTrajectory([3]float64{0, 0, 0}, [3]float64{0, 1, 0})
	Compute(tr, 1.0)

	fix1 := tr.Fixes[1].Kin
	require.NotNil(t, fix1.StepDuration)
	assert.Zero(t, *fix1.StepDuration)
	assert.Nil(t, fix1.StepSpeed)
}

func TestComputeShortTrajectories(t *testing.T) {
	// Single fix: only displacements defined.
	tr := makeTrajectory([3]float64{0, 2, 3})
	Compute(tr, 1.0)
	require.Len(t, tr.Fixes, 1)
	assert.NotNil(t, tr.Fixes[0].Kin.GrossDisplacement)
	assert.Nil(t, tr.Fixes[0].Kin.StepLength)

	// Two fixes: turning angle stays missing everywhere.
	tr = makeTrajectory([3]float64{0, 0, 0}, [3]float64{1, 1, 1})
	Compute(tr, 1.0)
	assert.Nil(t, tr.Fixes[0].Kin.TurningAngle)
	assert.Nil(t, tr.Fixes[1].Kin.TurningAngle)
}

func TestComputeDataset(t *testing.T) {
	dataset := &trajectory.Dataset{
		Trajectories: []trajectory.Trajectory{
			*makeTrajectory([3]float64{0, 0, 0}, [3]float64{1, 3, 4}),
			*makeTrajectory([3]float64{0, 1, 1}),
		},
	}
	ComputeDataset(dataset, 1.0)

	assert.NotNil(t, dataset.Trajectories[0].Fixes[1].Kin.StepLength)
	assert.NotNil(t, dataset.Trajectories[1].Fixes[0].Kin.GrossDisplacement)
}
