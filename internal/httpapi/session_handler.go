package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/memfault/memfaultd/internal/marstaging"
	"github.com/memfault/memfaultd/internal/metrics"
	"github.com/memfault/memfaultd/internal/ssf"
)

const (
	pathSessionStart = "/v1/session/start"
	pathSessionEnd   = "/v1/session/end"
)

// sessionRequestBody mirrors request_bodies.rs's SessionRequest: a session
// name plus zero or more seed/trailing readings.
type sessionRequestBody struct {
	SessionName metrics.SessionName          `json:"session_name"`
	Readings    []metrics.KeyedMetricReading `json:"readings"`
}

// SessionHandler answers POST /v1/session/start and POST /v1/session/end,
// forwarding to the report manager and, on end, staging the finalized
// report as a linux-metric-report envelope entry.
type SessionHandler struct {
	DataCollectionEnabled bool
	Mailbox               ssf.Mailbox[metrics.ReportManager]
	StagingDir            string
	Device                marstaging.Device
	Producer              marstaging.Producer
}

// HandleRequest implements Handler.
func (h *SessionHandler) HandleRequest(w http.ResponseWriter, r *http.Request) (Outcome, error) {
	if r.Method != http.MethodPost || (r.URL.Path != pathSessionStart && r.URL.Path != pathSessionEnd) {
		return NotHandled, nil
	}

	var body sessionRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, fmt.Sprintf("invalid session request body: %s", err), http.StatusBadRequest)
		return Handled, nil
	}

	if !h.DataCollectionEnabled {
		w.WriteHeader(http.StatusOK)
		return Handled, nil
	}

	if r.URL.Path == pathSessionStart {
		if err := metrics.StartSession(h.Mailbox, body.SessionName, body.Readings); err != nil {
			return Handled, err
		}
		w.WriteHeader(http.StatusOK)
		return Handled, nil
	}

	values, err := metrics.StopSession(h.Mailbox, body.SessionName, body.Readings)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return Handled, nil
	}
	if err := marstaging.DumpSessionReport(h.StagingDir, h.Device, h.Producer, body.SessionName.String(), values); err != nil {
		return Handled, err
	}

	w.WriteHeader(http.StatusOK)
	return Handled, nil
}
