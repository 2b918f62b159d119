package httpapi

import (
	"net/http"
	"time"

	"github.com/memfault/memfaultd/internal/metrics"
)

const (
	pathSyncSuccess = "/v1/sync/success"
	pathSyncFailure = "/v1/sync/failure"
)

// SyncEventHandler answers POST /v1/sync/success and POST /v1/sync/failure
// by adding 1 to the sync_successful or sync_failure core counter. No
// other connectivity metric is updated here.
type SyncEventHandler struct {
	DataCollectionEnabled bool
	Mailbox               metrics.MetricsMailbox
}

// HandleRequest implements Handler.
func (h *SyncEventHandler) HandleRequest(w http.ResponseWriter, r *http.Request) (Outcome, error) {
	if r.Method != http.MethodPost || (r.URL.Path != pathSyncSuccess && r.URL.Path != pathSyncFailure) {
		return NotHandled, nil
	}

	if h.DataCollectionEnabled {
		key := metrics.MetricSyncFailure
		if r.URL.Path == pathSyncSuccess {
			key = metrics.MetricSyncSuccess
		}
		reading, err := metrics.ParseMetricStringKey(key)
		if err != nil {
			return Handled, err
		}
		if err := h.Mailbox.SendAndForget(metrics.AddMetricsMsg{
			Readings: []metrics.KeyedMetricReading{
				metrics.NewKeyedMetricReading(reading, metrics.NewCounter(1, time.Now())),
			},
		}); err != nil {
			return Handled, err
		}
	}

	w.WriteHeader(http.StatusOK)
	return Handled, nil
}
