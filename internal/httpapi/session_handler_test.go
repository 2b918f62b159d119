package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/memfault/memfaultd/internal/marstaging"
	"github.com/memfault/memfaultd/internal/metrics"
	"github.com/memfault/memfaultd/internal/ssf"
)

func TestSessionHandlerLifecycleStagesAMetricReportEntry(t *testing.T) {
	stagingDir := t.TempDir()
	thread := ssf.SpawnDedicated(metrics.NewReportManager(0))
	h := &SessionHandler{
		DataCollectionEnabled: true,
		Mailbox:               thread.Mailbox,
		StagingDir:            stagingDir,
		Device:                marstaging.Device{DeviceID: "dev-1"},
		Producer:              marstaging.Producer{ID: "memfaultd", Version: "0.1.0"},
	}

	startBody := `{"session_name":"flight","readings":[{"name":"temp","value":{"kind":"gauge","value":20,"timestamp":"2024-01-01T00:00:00Z"}}]}`
	req := httptest.NewRequest(http.MethodPost, pathSessionStart, strings.NewReader(startBody))
	rec := httptest.NewRecorder()
	if outcome, err := h.HandleRequest(rec, req); err != nil || outcome != Handled || rec.Code != http.StatusOK {
		t.Fatalf("start: outcome=%v code=%d err=%v", outcome, rec.Code, err)
	}

	endBody := `{"session_name":"flight","readings":[{"name":"temp","value":{"kind":"gauge","value":22,"timestamp":"2024-01-01T00:01:00Z"}}]}`
	req = httptest.NewRequest(http.MethodPost, pathSessionEnd, strings.NewReader(endBody))
	rec = httptest.NewRecorder()
	if outcome, err := h.HandleRequest(rec, req); err != nil || outcome != Handled || rec.Code != http.StatusOK {
		t.Fatalf("end: outcome=%v code=%d err=%v", outcome, rec.Code, err)
	}

	entries, err := marstaging.Iterate(stagingDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 staged entry, got %d", len(entries))
	}
	if entries[0].Manifest.Metadata.ReportType.SessionName != "flight" {
		t.Errorf("expected session name 'flight', got %+v", entries[0].Manifest.Metadata.ReportType)
	}
	if entries[0].Manifest.Metadata.Metrics["temp"].Number != 22 {
		t.Errorf("expected temp=22 (last write wins), got %+v", entries[0].Manifest.Metadata.Metrics)
	}
}

func TestSessionHandlerEndingAnUnknownSessionReturnsBadRequest(t *testing.T) {
	thread := ssf.SpawnDedicated(metrics.NewReportManager(0))
	h := &SessionHandler{
		DataCollectionEnabled: true,
		Mailbox:               thread.Mailbox,
		StagingDir:            t.TempDir(),
	}

	req := httptest.NewRequest(http.MethodPost, pathSessionEnd, strings.NewReader(`{"session_name":"ghost","readings":[]}`))
	rec := httptest.NewRecorder()
	outcome, err := h.HandleRequest(rec, req)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != Handled || rec.Code != http.StatusBadRequest {
		t.Fatalf("expected Handled/400, got %v/%d", outcome, rec.Code)
	}
}

func TestSessionHandlerDropsPayloadWhenDataCollectionDisabled(t *testing.T) {
	stagingDir := t.TempDir()
	thread := ssf.SpawnDedicated(metrics.NewReportManager(0))
	h := &SessionHandler{
		DataCollectionEnabled: false,
		Mailbox:               thread.Mailbox,
		StagingDir:            stagingDir,
	}

	req := httptest.NewRequest(http.MethodPost, pathSessionStart, strings.NewReader(`{"session_name":"flight","readings":[]}`))
	rec := httptest.NewRecorder()
	if outcome, err := h.HandleRequest(rec, req); err != nil || outcome != Handled || rec.Code != http.StatusOK {
		t.Fatalf("outcome=%v code=%d err=%v", outcome, rec.Code, err)
	}

	entries, err := marstaging.Iterate(stagingDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no staged entries, got %d", len(entries))
	}
}
