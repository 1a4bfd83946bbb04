// Package cpuspec identifies performance cores on hybrid CPUs so the worker
// pool budgets against cores that can sustain a JVM linking workload instead
// of counting efficiency cores at full weight.
package cpuspec

import (
	"regexp"
	"runtime"
	"strings"

	"github.com/klauspost/cpuid/v2"
)

// CPUSpec contains information about CPU specifications
type CPUSpec struct {
	BrandName        string
	PerformanceCores int
}

// GetCPUSpec returns CPU specifications including the number of performance cores
func GetCPUSpec() CPUSpec {
	brandName := cpuid.CPU.BrandName
	return CPUSpec{
		BrandName:        brandName,
		PerformanceCores: determinePerformanceCores(brandName),
	}
}

// OptimalWorkerCores returns the core count the worker pool should budget
// against. On hybrid architectures only performance cores are counted; on
// everything else all logical cores are used.
func (c CPUSpec) OptimalWorkerCores() int {
	// Actual available CPU count matters in VMs and containers.
	availableCPUs := runtime.NumCPU()

	if c.PerformanceCores > 0 {
		if c.PerformanceCores > availableCPUs {
			return availableCPUs
		}
		return c.PerformanceCores
	}

	if logical := cpuid.CPU.LogicalCores; logical > 0 {
		return logical
	}
	return availableCPUs
}

// pCoresByModelPrefix maps Intel hybrid desktop model prefixes to their
// performance core counts (12th to 14th gen).
var pCoresByModelPrefix = map[string]int{
	"129": 8, "127": 8, "126": 6, "124": 6, "121": 4,
	"139": 8, "137": 8, "136": 6, "135": 6, "134": 6, "131": 4,
	"149": 8, "147": 8, "146": 6, "144": 6, "141": 4,
}

// pCoresByUltraModel maps Intel Core Ultra series 1 models to performance
// core counts.
var pCoresByUltraModel = map[string]int{
	"185": 6, "165": 6, "155": 6, "135": 4, "125": 4,
}

var intelCoreRegex = regexp.MustCompile(`intel.*(?:core.*i[3579]-(\d{5})|core.*ultra\s+[579]\s+(?:processor\s+)?(\d{3}))`)

// determinePerformanceCores recognizes Intel hybrid CPU families from the
// brand string. Returns 0 for anything it cannot classify, which makes the
// caller fall back to logical cores.
func determinePerformanceCores(brandName string) int {
	brandName = strings.ToLower(brandName)

	matches := intelCoreRegex.FindStringSubmatch(brandName)
	if len(matches) < 2 {
		return 0
	}

	if model := matches[1]; model != "" {
		if cores, ok := pCoresByModelPrefix[model[:3]]; ok {
			return cores
		}
		return 0
	}
	if model := matches[2]; model != "" {
		if cores, ok := pCoresByUltraModel[model]; ok {
			return cores
		}
	}
	return 0
}
