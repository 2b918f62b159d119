package metrics

import (
	"fmt"

	"github.com/memfault/memfaultd/internal/log"
)

// ReportManager owns one heartbeat report and zero or more named session
// reports. It runs as a dedicated ssf service: readings arrive one at a
// time, in order, on a single goroutine, so no locking is needed internally.
type ReportManager struct {
	maxKeysPerReport int
	heartbeat        *MetricReport
	sessions         map[string]*MetricReport
}

// NewReportManager returns a manager with an empty heartbeat report and no
// active sessions.
func NewReportManager(maxKeysPerReport int) ReportManager {
	return ReportManager{
		maxKeysPerReport: maxKeysPerReport,
		heartbeat:        NewHeartbeatReport(maxKeysPerReport),
		sessions:         make(map[string]*MetricReport),
	}
}

// Name implements ssf.Service.
func (ReportManager) Name() string { return "metrics-report-manager" }

// AddMetric folds reading into the heartbeat and into every active session.
// A capacity rejection on one report doesn't stop delivery to the others; it
// is logged and the reading is dropped for that report only.
func (m *ReportManager) AddMetric(reading KeyedMetricReading) {
	logger := log.WithComponent(ReportManager{}.Name())

	if err := m.heartbeat.AddReading(reading); err != nil {
		logger.Warn().Err(err).Str("metric", reading.Name.String()).Msg("dropping metric from heartbeat")
	}
	for name, session := range m.sessions {
		if err := session.AddReading(reading); err != nil {
			logger.Warn().Err(err).Str("metric", reading.Name.String()).Str("session", name).Msg("dropping metric from session")
		}
	}
}

// AddMetrics folds a batch of readings in, in order.
func (m *ReportManager) AddMetrics(readings []KeyedMetricReading) {
	for _, r := range readings {
		m.AddMetric(r)
	}
}

// StartSession creates a new session report seeded with readings. A session
// already active under this name is left untouched.
func (m *ReportManager) StartSession(name SessionName, readings []KeyedMetricReading) error {
	if _, exists := m.sessions[name.String()]; exists {
		return nil
	}
	report := NewSessionReport(name, m.maxKeysPerReport)
	for _, r := range readings {
		if err := report.AddReading(r); err != nil {
			log.WithComponent(ReportManager{}.Name()).Warn().Err(err).Str("session", name.String()).Msg("dropping seed metric")
		}
	}
	m.sessions[name.String()] = report
	return nil
}

// StopSession merges the trailing readings into the named session, finalizes
// it, and discards it from the manager. Returns an error if no session by
// that name is active.
func (m *ReportManager) StopSession(name SessionName, readings []KeyedMetricReading) (map[string]MetricValue, error) {
	report, exists := m.sessions[name.String()]
	if !exists {
		return nil, fmt.Errorf("no active session named %q", name)
	}
	for _, r := range readings {
		if err := report.AddReading(r); err != nil {
			log.WithComponent(ReportManager{}.Name()).Warn().Err(err).Str("session", name.String()).Msg("dropping trailing metric")
		}
	}
	delete(m.sessions, name.String())
	return report.Finalize(), nil
}

// TakeHeartbeat finalizes and resets the heartbeat report.
func (m *ReportManager) TakeHeartbeat() map[string]MetricValue {
	finalized := m.heartbeat.Finalize()
	m.heartbeat = NewHeartbeatReport(m.maxKeysPerReport)
	return finalized
}

// ActiveSessionCount reports how many sessions are currently open.
func (m *ReportManager) ActiveSessionCount() int { return len(m.sessions) }
