package metrics

// ReportKind distinguishes the always-on heartbeat report from named session
// reports.
type ReportKind int

const (
	ReportHeartbeat ReportKind = iota
	ReportSession
)

// MetricReport accumulates readings for either the heartbeat or a single
// named session. Session reports additionally force-retain the core metric
// keys even if the caller never mentions them.
type MetricReport struct {
	Kind        ReportKind
	SessionName SessionName
	store       *InMemoryMetricStore
	core        CoreMetricKeys
}

// NewHeartbeatReport returns an empty heartbeat report.
func NewHeartbeatReport(maxKeys int) *MetricReport {
	return &MetricReport{Kind: ReportHeartbeat, store: NewInMemoryMetricStore(maxKeys)}
}

// NewSessionReport returns an empty report for the named session.
func NewSessionReport(name SessionName, maxKeys int) *MetricReport {
	return &MetricReport{Kind: ReportSession, SessionName: name, store: NewInMemoryMetricStore(maxKeys), core: SessionCoreMetrics()}
}

// AddReading folds one reading into the report.
func (r *MetricReport) AddReading(reading KeyedMetricReading) error {
	return r.store.Add(reading)
}

// IsCoreMetric reports whether key belongs to this report's always-retained
// core metric set (session reports only; heartbeats have none).
func (r *MetricReport) IsCoreMetric(key string) bool {
	return r.Kind == ReportSession && r.core.Matches(key)
}

// Len reports how many distinct keys the report currently holds.
func (r *MetricReport) Len() int { return r.store.Len() }

// Finalize reduces the report to its final key->value map and clears it.
func (r *MetricReport) Finalize() map[string]MetricValue {
	return r.store.Finalize()
}
