package profiler

import (
	"log"
	"runtime"
	"time"
)

// Profiler tracks iteration throughput and memory statistics for long-running
// GPU loops. Outputs stats to the log at a configurable interval.
type Profiler struct {
	iterations     int
	bytesRead      uint64
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastTotalAlloc uint64
}

// New creates a Profiler with a 1 second log interval.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func New() *Profiler {
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
	}
}

// Tick should be called once per iteration, with the number of bytes the
// iteration read back from the device. Logs throughput statistics when the
// update interval has elapsed.
//
// Parameters:
//   - readbackBytes: bytes read back this iteration (0 if none)
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(readbackBytes int) bool {
	p.iterations++
	p.bytesRead += uint64(readbackBytes)

	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	perSecond := float64(p.iterations) / elapsed.Seconds()
	readbackMB := float64(p.bytesRead) / 1024 / 1024 / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	log.Printf("iterations/s: %.1f | readback: %.2f MB/s | heap: %.1f MB | alloc: %.2f MB/s | GC: %d",
		perSecond, readbackMB, allocMB, allocRateMB, p.memStats.NumGC)

	p.iterations = 0
	p.bytesRead = 0
	p.lastTime = currentTime
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
