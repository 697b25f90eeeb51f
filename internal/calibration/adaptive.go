// Package calibration derives hardware- and resolution-dependent defaults for
// the chunk scheduler without running benchmarks.
package calibration

import (
	"runtime"

	"github.com/agbru/fractalcalc/internal/domain"
)

const (
	// MinChunkSide is the smallest chunk edge, in pixels, EstimateChunks
	// will produce.
	MinChunkSide = 2

	// MaxWorkers caps the worker pool. A default frame has
	// DefaultChunks² = 400 chunks, so workers past this point mostly idle
	// while each keeps its own path buffer alive.
	MaxWorkers = 256
)

// ─────────────────────────────────────────────────────────────────────────────
// Worker Estimation
// ─────────────────────────────────────────────────────────────────────────────

// EstimateWorkers provides a heuristic worker pool size for chunk
// calculation based on the number of available CPU cores.
//
// Chunks are CPU-bound and independent, so one worker per core is right on
// small machines. On large ones two cores are left to the progress display,
// the statistics pass and the merge.
func EstimateWorkers() int {
	return estimateWorkers(runtime.NumCPU())
}

func estimateWorkers(numCPU int) int {
	switch {
	case numCPU <= 1:
		return 1
	case numCPU <= 8:
		return numCPU
	default:
		return ValidateWorkers(numCPU - 2)
	}
}

// ValidateWorkers clamps a worker count to [1, MaxWorkers].
func ValidateWorkers(workers int) int {
	if workers < 1 {
		return 1
	}
	if workers > MaxWorkers {
		return MaxWorkers
	}
	return workers
}

// ─────────────────────────────────────────────────────────────────────────────
// Chunk Estimation
// ─────────────────────────────────────────────────────────────────────────────

// EstimateChunks returns the number of chunks per axis for a resolution:
// domain.DefaultChunks, reduced so that every chunk keeps at least
// MinChunkSide pixels along the shorter axis. The result is never below 1.
//
// Parameters:
//   - width: The horizontal resolution in pixels.
//   - height: The vertical resolution in pixels.
//
// Returns:
//   - int: The chunk count per axis.
func EstimateChunks(width, height int) int {
	return ClampChunks(domain.DefaultChunks, width, height)
}

// ClampChunks bounds a requested chunk count per axis to what the
// resolution can hold. Non-positive requests are returned unchanged so the
// configuration layer can reject them.
func ClampChunks(chunks, width, height int) int {
	if chunks <= 0 {
		return chunks
	}
	limit := min(width, height) / MinChunkSide
	if limit < 1 {
		limit = 1
	}
	return min(chunks, limit)
}
