package metrics

import "github.com/memfault/memfaultd/internal/util"

// Core metric keys, always preserved in session reports even if the caller
// never mentions them explicitly.
const (
	MetricSyncMemfaultSuccess    = "sync_memfault_successful"
	MetricSyncMemfaultFailure    = "sync_memfault_failure"
	MetricConnectedTime          = "connectivity_connected_time_ms"
	MetricExpectedConnectedTime  = "connectivity_expected_time_ms"
	MetricSyncSuccess            = "sync_successful"
	MetricSyncFailure            = "sync_failure"
	MetricConnectivityRecvBytes  = "connectivity_recv_bytes"
	MetricConnectivitySentBytes  = "connectivity_sent_bytes"

	MetricOperationalHours          = "operational_hours"
	MetricOperationalCrashfreeHours = "operational_crashfree_hours"
	MetricOperationalCrashes        = "operational_crashes"

	MetricBatteryDischargeDurationMs = "battery_discharge_duration_ms"
	MetricBatterySoCPctDrop          = "battery_soc_pct_drop"
	MetricBatterySoCPct              = "battery_soc_pct"

	MetricMemoryPct   = "memory_pct"
	MetricCPUUsagePct = "cpu_usage_pct"
)

const (
	connectivityInterfaceRecvPrefix = "connectivity_"
	connectivityInterfaceRecvSuffix = "_recv_bytes"
	connectivityInterfaceSentPrefix = "connectivity_"
	connectivityInterfaceSentSuffix = "_sent_bytes"
	storageUsedPrefix               = "storage_used_"
	storageUsedSuffix               = "_pct"
	cpuUsageProcessPrefix           = "cpu_usage_"
	cpuUsageProcessSuffix           = "_pct"
	memoryProcessPrefix             = "memory_"
	memoryProcessSuffix             = "_pct"
	operationalCrashesProcessPrefix = "operational_crashes_"
)

// CoreMetricKeys is the set of metric keys and patterns a session report
// always retains, regardless of what the caller asked for.
type CoreMetricKeys struct {
	Keys     map[string]struct{}
	Patterns []util.WildcardPattern
}

// SessionCoreMetrics returns the core metric set applied to every session
// report.
func SessionCoreMetrics() CoreMetricKeys {
	keys := []string{
		MetricSyncMemfaultFailure,
		MetricSyncMemfaultSuccess,
		MetricBatteryDischargeDurationMs,
		MetricBatterySoCPctDrop,
		MetricConnectedTime,
		MetricExpectedConnectedTime,
		MetricSyncFailure,
		MetricSyncSuccess,
		MetricOperationalCrashes,
		MetricMemoryPct,
		MetricConnectivityRecvBytes,
		MetricConnectivitySentBytes,
	}
	keySet := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		keySet[k] = struct{}{}
	}

	return CoreMetricKeys{
		Keys: keySet,
		Patterns: []util.WildcardPattern{
			util.NewWildcardPattern(cpuUsageProcessPrefix, cpuUsageProcessSuffix),
			util.NewWildcardPattern(memoryProcessPrefix, memoryProcessSuffix),
			util.NewWildcardPattern(storageUsedPrefix, storageUsedSuffix),
			util.NewWildcardPattern(connectivityInterfaceRecvPrefix, connectivityInterfaceRecvSuffix),
			util.NewWildcardPattern(connectivityInterfaceSentPrefix, connectivityInterfaceSentSuffix),
			util.NewWildcardPattern(operationalCrashesProcessPrefix, ""),
		},
	}
}

// Matches reports whether key is one of the fixed core keys or fits one of
// the core wildcard patterns.
func (c CoreMetricKeys) Matches(key string) bool {
	if _, ok := c.Keys[key]; ok {
		return true
	}
	for _, p := range c.Patterns {
		if p.Matches(key) {
			return true
		}
	}
	return false
}
