package httpapi

import (
	"net/http"
	"time"

	"github.com/memfault/memfaultd/internal/metrics"
)

const pathCrashReport = "/v1/crash/report"

const metricCrashCount = "operational_crashes"

// CrashReportHandler answers POST /v1/crash/report by adding 1 to the
// operational_crashes counter.
type CrashReportHandler struct {
	DataCollectionEnabled bool
	Mailbox               metrics.MetricsMailbox
}

// HandleRequest implements Handler.
func (h *CrashReportHandler) HandleRequest(w http.ResponseWriter, r *http.Request) (Outcome, error) {
	if r.Method != http.MethodPost || r.URL.Path != pathCrashReport {
		return NotHandled, nil
	}

	if h.DataCollectionEnabled {
		key, err := metrics.ParseMetricStringKey(metricCrashCount)
		if err != nil {
			return Handled, err
		}
		if err := h.Mailbox.SendAndForget(metrics.AddMetricsMsg{
			Readings: []metrics.KeyedMetricReading{
				metrics.NewKeyedMetricReading(key, metrics.NewCounter(1, time.Now())),
			},
		}); err != nil {
			return Handled, err
		}
	}

	w.WriteHeader(http.StatusOK)
	return Handled, nil
}
