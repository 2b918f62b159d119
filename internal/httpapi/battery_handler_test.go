package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/memfault/memfaultd/internal/metrics"
)

func TestBatteryReadingHandlerForwardsAParsedGauge(t *testing.T) {
	mb, thread := newTestMetricsMailbox()
	h := &BatteryReadingHandler{DataCollectionEnabled: true, Mailbox: mb}

	req := httptest.NewRequest(http.MethodPost, pathBatteryAddReading, strings.NewReader("battery_soc_pct=87\n"))
	rec := httptest.NewRecorder()
	outcome, err := h.HandleRequest(rec, req)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != Handled || rec.Code != http.StatusOK {
		t.Fatalf("expected Handled/200, got %v/%d", outcome, rec.Code)
	}

	values, err := metrics.TakeHeartbeat(thread.Mailbox)
	if err != nil {
		t.Fatal(err)
	}
	if values["battery_soc_pct"].Number != 87 {
		t.Errorf("expected battery_soc_pct=87, got %+v", values)
	}
}

func TestBatteryReadingHandlerRejectsMalformedBody(t *testing.T) {
	mb, _ := newTestMetricsMailbox()
	h := &BatteryReadingHandler{DataCollectionEnabled: true, Mailbox: mb}

	req := httptest.NewRequest(http.MethodPost, pathBatteryAddReading, strings.NewReader("not-a-reading"))
	rec := httptest.NewRecorder()
	outcome, err := h.HandleRequest(rec, req)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != Handled || rec.Code != http.StatusBadRequest {
		t.Fatalf("expected Handled/400, got %v/%d", outcome, rec.Code)
	}
}
