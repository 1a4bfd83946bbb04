package conf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	s := &Settings{}
	s.Linker = LinkerSettings{
		JavaPath:     "java",
		JarPath:      "ParticleLinker.jar",
		LinkRange:    2,
		Displacement: 10.0,
		Timeout:      168 * time.Hour,
	}
	s.Pool = PoolSettings{
		MemoryMB:           1200,
		WorkerMemoryMB:     400,
		MaxWorkers:         10,
		Cores:              5,
		MinVideosPerWorker: 5,
	}
	s.Kinematics = KinematicsSettings{FrameRate: 25.0}
	return s
}

func TestValidateSettingsAcceptsDefaults(t *testing.T) {
	require.NoError(t, ValidateSettings(validSettings()))
}

func TestValidateRejectsWorkerMemoryOverBudget(t *testing.T) {
	s := validSettings()
	s.Pool.MemoryMB = 1000
	s.Pool.WorkerMemoryMB = 2000

	err := ValidateSettings(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds total memory budget")
}

func TestValidateRejectsZeroWorkerMemory(t *testing.T) {
	s := validSettings()
	s.Pool.WorkerMemoryMB = 0

	err := ValidateSettings(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker memory must be greater than 0")
}

func TestValidateCollectsMultipleErrors(t *testing.T) {
	s := validSettings()
	s.Linker.LinkRange = 0
	s.Pool.MaxWorkers = 0
	s.Kinematics.FrameRate = 0

	err := ValidateSettings(s)
	require.Error(t, err)

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 3)
}

func TestFramePeriod(t *testing.T) {
	s := validSettings()
	assert.InDelta(t, 0.04, s.FramePeriod(), 1e-9)

	s.Kinematics.FrameRate = 0
	assert.Zero(t, s.FramePeriod())
}
