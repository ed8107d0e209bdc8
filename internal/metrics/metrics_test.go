package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegistry_IsolatedPerInstance(t *testing.T) {
	a, b := NewRegistry(), NewRegistry()
	a.EventsProcessed.WithLabelValues(OutcomeApplied, "USER_UPSERT").Inc()

	if got := testutil.ToFloat64(a.EventsProcessed.WithLabelValues(OutcomeApplied, "USER_UPSERT")); got != 1 {
		t.Fatalf("expected 1 on a, got %v", got)
	}
	if got := testutil.ToFloat64(b.EventsProcessed.WithLabelValues(OutcomeApplied, "USER_UPSERT")); got != 0 {
		t.Fatalf("registries share state: b=%v", got)
	}
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.ReceiveErrors.WithLabelValues("q1").Inc()

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{`catalogsync_receive_errors_total{queue="q1"} 1`, "go_goroutines"} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
