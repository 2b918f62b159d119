package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/memfault/memfaultd/internal/metrics"
)

const pathBatteryAddReading = "/v1/battery/add_reading"

// BatteryReadingHandler answers POST /v1/battery/add_reading: the body is
// one "KEY=VALUE" line, forwarded into the report manager as a gauge
// reading (original_source's metrics/battery/mod.rs).
type BatteryReadingHandler struct {
	DataCollectionEnabled bool
	Mailbox               metrics.MetricsMailbox
}

// HandleRequest implements Handler.
func (h *BatteryReadingHandler) HandleRequest(w http.ResponseWriter, r *http.Request) (Outcome, error) {
	if r.Method != http.MethodPost || r.URL.Path != pathBatteryAddReading {
		return NotHandled, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return Handled, fmt.Errorf("httpapi: reading battery reading body: %w", err)
	}

	reading, err := metrics.ParseGaugeReading(strings.TrimSpace(string(body)))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return Handled, nil
	}

	if h.DataCollectionEnabled {
		if err := h.Mailbox.SendAndForget(metrics.AddMetricsMsg{Readings: []metrics.KeyedMetricReading{reading}}); err != nil {
			return Handled, err
		}
	}

	w.WriteHeader(http.StatusOK)
	return Handled, nil
}
