// Package partition sizes the worker pool from memory and core budgets and
// assigns videos to workers in deterministic contiguous batches.
package partition

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/trajlink/trajlink-go/internal/conf"
	"github.com/trajlink/trajlink-go/internal/cpuspec"
	"github.com/trajlink/trajlink-go/internal/errors"
	"github.com/trajlink/trajlink-go/internal/logging"
)

// Batch assigns the contiguous video index range [Start, End) to one worker.
type Batch struct {
	ID    int
	Start int
	End   int
}

// Size returns the number of videos in the batch.
func (b Batch) Size() int {
	return b.End - b.Start
}

// Plan is the complete work assignment for one run. Identical inputs always
// produce an identical plan, which keeps reruns reproducible.
type Plan struct {
	Workers  int
	MemoryMB int // resolved total budget, after discovery
	Cores    int // resolved core count, after discovery
	Batches  []Batch
}

// Compute derives the worker count from the configured budgets and splits
// numVideos into that many contiguous batches. Videos with empty detection
// tables must be excluded by the caller before counting.
func Compute(settings *conf.PoolSettings, numVideos int) (*Plan, error) {
	if numVideos < 1 {
		return nil, errors.Newf("no videos with detections to partition").
			Category(errors.CategoryValidation).
			Build()
	}

	memoryMB := settings.MemoryMB
	if memoryMB == 0 {
		memoryMB = availableMemoryMB()
	}
	cores := settings.Cores
	if cores == 0 {
		cores = logicalCores()
	}

	if settings.WorkerMemoryMB <= 0 {
		return nil, errors.Newf("per-worker memory must be greater than 0 MB").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if settings.WorkerMemoryMB > memoryMB {
		return nil, errors.Newf("per-worker memory (%d MB) exceeds total memory budget (%d MB)",
			settings.WorkerMemoryMB, memoryMB).
			Category(errors.CategoryConfiguration).
			Build()
	}

	workers := memoryMB / settings.WorkerMemoryMB
	if byCores := cores - 1; byCores < workers {
		workers = byCores
	}
	if settings.MaxWorkers < workers {
		workers = settings.MaxWorkers
	}
	if workers < 1 {
		workers = 1
	}
	if workers > numVideos {
		workers = numVideos
	}

	// Parallel overhead dominates when each worker would handle only a few
	// videos, so the pool collapses to sequential execution below the
	// per-worker minimum.
	if workers > 1 && numVideos/workers < settings.MinVideosPerWorker {
		workers = 1
	}

	plan := &Plan{
		Workers:  workers,
		MemoryMB: memoryMB,
		Cores:    cores,
		Batches:  splitContiguous(numVideos, workers),
	}

	if logger := logging.ForService("partition"); logger != nil {
		logger.Info("work partitioned",
			"videos", numVideos,
			"workers", workers,
			"memory_mb", memoryMB,
			"cores", cores)
		if logger.Enabled(context.Background(), slog.LevelDebug) {
			for _, b := range plan.Batches {
				logger.Debug("batch assignment", "batch", b.ID, "start", b.Start, "end", b.End)
			}
		}
	}

	return plan, nil
}

// splitContiguous divides n indices into p contiguous ranges whose sizes
// differ by at most one, larger ranges first.
func splitContiguous(n, p int) []Batch {
	batches := make([]Batch, 0, p)
	base := n / p
	rem := n % p

	start := 0
	for i := 0; i < p; i++ {
		size := base
		if i < rem {
			size++
		}
		batches = append(batches, Batch{ID: i, Start: start, End: start + size})
		start += size
	}
	return batches
}

// availableMemoryMB discovers the machine's available memory, falling back to
// a conservative default when the platform query fails.
func availableMemoryMB() int {
	vm, err := mem.VirtualMemory()
	if err != nil || vm.Available == 0 {
		return 4096
	}
	return int(vm.Available / (1024 * 1024))
}

// logicalCores discovers the core count to budget against. Hybrid CPUs are
// counted by their performance cores; a JVM linker pinned to an efficiency
// core starves the whole batch.
func logicalCores() int {
	if spec := cpuspec.GetCPUSpec(); spec.PerformanceCores > 0 {
		return spec.OptimalWorkerCores()
	}
	count, err := cpu.Counts(true)
	if err != nil || count < 1 {
		return runtime.NumCPU()
	}
	return count
}

// Describe renders a one-line human readable summary of the plan.
func (p *Plan) Describe() string {
	return fmt.Sprintf("%d worker(s), %d batch(es), budget %d MB over %d core(s)",
		p.Workers, len(p.Batches), p.MemoryMB, p.Cores)
}
