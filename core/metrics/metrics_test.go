package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPackageFunctionsUpdateDefault(t *testing.T) {
	before := testutil.ToFloat64(Default.Handled.WithLabelValues("start", "ok"))
	Handled("start", "ok", 120*time.Millisecond)
	if got := testutil.ToFloat64(Default.Handled.WithLabelValues("start", "ok")); got != before+1 {
		t.Fatalf("handled = %v, want %v", got, before+1)
	}

	Send("failed")
	if got := testutil.ToFloat64(Default.Sends.WithLabelValues("failed")); got < 1 {
		t.Fatalf("sends = %v", got)
	}
	Photos(3)
	if got := testutil.ToFloat64(Default.Photos); got < 3 {
		t.Fatalf("photos = %v", got)
	}
}

func TestServerExposesMetrics(t *testing.T) {
	m := New()
	m.Updates.WithLabelValues("message").Inc()

	srv, err := Start("127.0.0.1:0", m)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			t.Fatalf("Shutdown: %v", err)
		}
	}()

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `studiobot_updates_total{kind="message"} 1`) {
		t.Fatalf("metric missing from scrape:\n%s", body)
	}
}
