package cpuspec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeterminePerformanceCores(t *testing.T) {
	tests := []struct {
		brand string
		want  int
	}{
		{"12th Gen Intel(R) Core(TM) i9-12900K", 8},
		{"13th Gen Intel(R) Core(TM) i5-13600K", 6},
		{"Intel(R) Core(TM) i5-14400", 6},
		{"Intel(R) Core(TM) Ultra 7 155H", 6},
		{"Intel(R) Core(TM) Ultra 5 125U", 4},
		{"AMD Ryzen 9 5950X 16-Core Processor", 0},
		{"Apple M2", 0},
		{"", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, determinePerformanceCores(tt.brand), "brand %q", tt.brand)
	}
}

func TestOptimalWorkerCoresNeverExceedsAvailable(t *testing.T) {
	spec := CPUSpec{BrandName: "test", PerformanceCores: 1024}
	assert.LessOrEqual(t, spec.OptimalWorkerCores(), 1024)
	assert.Greater(t, spec.OptimalWorkerCores(), 0)
}

func TestOptimalWorkerCoresFallback(t *testing.T) {
	spec := CPUSpec{BrandName: "unknown"}
	assert.Greater(t, spec.OptimalWorkerCores(), 0)
}
