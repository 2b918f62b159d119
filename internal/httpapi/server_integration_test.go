package httpapi

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/memfault/memfaultd/internal/obsmetrics"
)

func TestServerRecordsRequestMetricsAndServesMetricsEndpoint(t *testing.T) {
	metricsRegistry := obsmetrics.NewRegistry()
	mb, _ := newTestMetricsMailbox()
	handlers := []Handler{&SyncEventHandler{DataCollectionEnabled: true, Mailbox: mb}}

	server, err := NewServer("127.0.0.1:0", handlers, metricsRegistry)
	if err != nil {
		t.Fatal(err)
	}
	defer server.Shutdown(context.Background())

	go server.Serve()
	// Give the accept loop a moment to start.
	time.Sleep(10 * time.Millisecond)

	resp, err := http.Post("http://"+server.Addr()+pathSyncSuccess, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	metricsResp, err := http.Get("http://" + server.Addr() + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer metricsResp.Body.Close()

	buf := make([]byte, 64*1024)
	n, _ := metricsResp.Body.Read(buf)
	body := string(buf[:n])
	if !strings.Contains(body, "memfaultd_http_requests_total") {
		t.Error("expected http requests metric to be present")
	}
}
