package metrics

import "github.com/memfault/memfaultd/internal/ssf"

// AddMetricsMsg carries a batch of readings to fold into the heartbeat and
// any active sessions. Used by both the StatsD listener and the HTTP API.
type AddMetricsMsg struct {
	Readings []KeyedMetricReading
}

// StartSessionMsg asks the manager to open a new named session.
type StartSessionMsg struct {
	Name     SessionName
	Readings []KeyedMetricReading
}

// StopSessionMsg asks the manager to finalize and discard a named session.
type StopSessionMsg struct {
	Name     SessionName
	Readings []KeyedMetricReading
}

// TakeHeartbeatMsg asks the manager to finalize and reset the heartbeat
// report.
type TakeHeartbeatMsg struct{}

// MetricsMailbox is the most commonly-passed-around handle in this package:
// a type-erased mailbox that only knows how to accept metric batches.
type MetricsMailbox = ssf.MsgMailbox[AddMetricsMsg, struct{}]

// NewMetricsMailbox adapts a live ReportManager mailbox into a MetricsMailbox.
func NewMetricsMailbox(mb ssf.Mailbox[ReportManager]) MetricsMailbox {
	return ssf.NewMsgMailbox(mb, func(m *ReportManager, msg AddMetricsMsg) struct{} {
		m.AddMetrics(msg.Readings)
		return struct{}{}
	})
}

type stopSessionResult struct {
	values map[string]MetricValue
	err    error
}

// StartSession sends a StartSessionMsg and waits for it to be applied.
func StartSession(mb ssf.Mailbox[ReportManager], name SessionName, readings []KeyedMetricReading) error {
	msg := StartSessionMsg{Name: name, Readings: readings}
	replyErr, err := ssf.SendAndWaitForReply(mb, func(m *ReportManager) error {
		return m.StartSession(msg.Name, msg.Readings)
	})
	if err != nil {
		return err
	}
	return replyErr
}

// StopSession sends a StopSessionMsg and waits for the finalized report.
func StopSession(mb ssf.Mailbox[ReportManager], name SessionName, readings []KeyedMetricReading) (map[string]MetricValue, error) {
	msg := StopSessionMsg{Name: name, Readings: readings}
	r, err := ssf.SendAndWaitForReply(mb, func(m *ReportManager) stopSessionResult {
		values, err := m.StopSession(msg.Name, msg.Readings)
		return stopSessionResult{values: values, err: err}
	})
	if err != nil {
		return nil, err
	}
	return r.values, r.err
}

// TakeHeartbeat sends a TakeHeartbeatMsg and waits for the finalized report.
func TakeHeartbeat(mb ssf.Mailbox[ReportManager]) (map[string]MetricValue, error) {
	_ = TakeHeartbeatMsg{}
	return ssf.SendAndWaitForReply(mb, func(m *ReportManager) map[string]MetricValue {
		return m.TakeHeartbeat()
	})
}
