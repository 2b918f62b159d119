package marstaging

import (
	"fmt"

	"github.com/memfault/memfaultd/internal/metrics"
)

// DumpHeartbeat stages a finalized heartbeat report as a new linux-heartbeat
// entry.
func DumpHeartbeat(stagingDir string, device Device, producer Producer, values map[string]metrics.MetricValue) error {
	writer, err := NewEntry(stagingDir)
	if err != nil {
		return fmt.Errorf("marstaging: staging heartbeat report: %w", err)
	}
	manifest := NewManifest(device, producer, LinuxHeartbeatMetadata(values), nil)
	if err := writer.Commit(manifest); err != nil {
		return fmt.Errorf("marstaging: committing heartbeat report: %w", err)
	}
	return nil
}

// DumpSessionReport stages a finalized named-session report as a new
// linux-metric-report entry.
func DumpSessionReport(stagingDir string, device Device, producer Producer, name string, values map[string]metrics.MetricValue) error {
	writer, err := NewEntry(stagingDir)
	if err != nil {
		return fmt.Errorf("marstaging: staging session report %s: %w", name, err)
	}
	manifest := NewManifest(device, producer, LinuxMetricReportMetadata(SessionReportType(name), values), nil)
	if err := writer.Commit(manifest); err != nil {
		return fmt.Errorf("marstaging: committing session report %s: %w", name, err)
	}
	return nil
}
