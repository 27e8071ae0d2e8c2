package utils

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
)

type SystemStats struct {
	CPUPercent      float64 `json:"cpu_percent"`
	DiskPath        string  `json:"disk_path"`
	DiskUsedPercent float64 `json:"disk_used_percent"`
	DiskFreeBytes   uint64  `json:"disk_free_bytes"`
}

// GetSystemStats samples CPU usage over a short interval and reports disk
// usage for the filesystem holding path. Failures leave the fields zero.
func GetSystemStats(ctx context.Context, path string) SystemStats {
	stats := SystemStats{DiskPath: path}

	if percentage, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false); err == nil && len(percentage) > 0 {
		stats.CPUPercent = percentage[0]
	}

	if usage, err := disk.UsageWithContext(ctx, path); err == nil {
		stats.DiskUsedPercent = usage.UsedPercent
		stats.DiskFreeBytes = usage.Free
	}

	return stats
}
