package telemetry

import (
	"context"
	"log/slog"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v4/process"
	"go.opentelemetry.io/otel"
)

// RecordPerfStats records a single snapshot of the process' resource usage,
// a run is too short lived for a sampling loop.
func RecordPerfStats(ctx context.Context) {
	meter := otel.Meter("analytics-export.perf_stats")
	cpuGauge, _ := meter.Float64Gauge("cpu_usage")
	memoryGauge, _ := meter.Int64Gauge("allocated_mb")
	rssGauge, _ := meter.Int64Gauge("rss_mb")

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	memoryGauge.Record(ctx, int64(memStats.Alloc/1_000_000))

	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		slog.Debug("failed to inspect own process", "err", err)
		return
	}
	cpuUsage, err := proc.CPUPercentWithContext(ctx)
	if err == nil {
		cpuGauge.Record(ctx, cpuUsage)
	} else {
		slog.Debug("failed to read cpu usage", "err", err)
	}
	mem, err := proc.MemoryInfoWithContext(ctx)
	if err == nil {
		rssGauge.Record(ctx, int64(mem.RSS/1_000_000))
	} else {
		slog.Debug("failed to read memory usage", "err", err)
	}

	slog.Debug(
		"perf stats",
		"allocated_mb", memStats.Alloc/1_000_000,
		"cpu_percent", cpuUsage,
	)
}
