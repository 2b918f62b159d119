package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/memfault/memfaultd/internal/mar"
)

// ExportHandler answers GET and DELETE /v1/mar (spec §4.5, scenario 5). GET
// takes a fresh snapshot of the staging area and remembers it; DELETE only
// succeeds with an If-Match naming that exact remembered snapshot, so a
// second DELETE gets 404 and one naming an older snapshot (a new GET ran in
// between) gets 412, never silently deleting data the client never saw.
type ExportHandler struct {
	StagingDir string

	mu       sync.Mutex
	snapshot *mar.Snapshot
}

// HandleRequest implements Handler.
func (h *ExportHandler) HandleRequest(w http.ResponseWriter, r *http.Request) (Outcome, error) {
	if r.URL.Path != mar.URL {
		return NotHandled, nil
	}

	switch r.Method {
	case http.MethodGet:
		return h.handleGet(w, r)
	case http.MethodDelete:
		return h.handleDelete(w, r)
	default:
		return NotHandled, nil
	}
}

func (h *ExportHandler) handleGet(w http.ResponseWriter, r *http.Request) (Outcome, error) {
	format, err := mar.ParseAcceptHeader(r.Header.Get("Accept"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotAcceptable)
		return Handled, nil
	}

	snapshot, err := mar.BuildSnapshot(h.StagingDir)
	if err != nil {
		return Handled, err
	}
	if snapshot == nil {
		w.WriteHeader(http.StatusNoContent)
		return Handled, nil
	}

	body, err := snapshot.Encode(format)
	if err != nil {
		return Handled, err
	}

	h.mu.Lock()
	h.snapshot = snapshot
	h.mu.Unlock()

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("ETag", fmt.Sprintf("%q", snapshot.ETag))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
	return Handled, nil
}

func (h *ExportHandler) handleDelete(w http.ResponseWriter, r *http.Request) (Outcome, error) {
	ifMatch := strings.Trim(strings.TrimSpace(r.Header.Get("If-Match")), `"`)

	h.mu.Lock()
	snapshot := h.snapshot
	h.mu.Unlock()

	if snapshot == nil {
		w.WriteHeader(http.StatusNotFound)
		return Handled, nil
	}
	if ifMatch != snapshot.ETag {
		w.WriteHeader(http.StatusPreconditionFailed)
		return Handled, nil
	}

	if err := snapshot.Remove(); err != nil {
		return Handled, err
	}

	h.mu.Lock()
	h.snapshot = nil
	h.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
	return Handled, nil
}
