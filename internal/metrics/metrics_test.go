package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nao1215/sitecrawl/internal/model"
)

// TestCollector tests metric recording.
func TestCollector(t *testing.T) {
	t.Parallel()

	t.Run("records fetch outcomes", func(t *testing.T) {
		t.Parallel()

		c := New()
		c.ObserveFetch(model.FetchResult{StatusCode: 200, Duration: time.Millisecond})
		c.ObserveFetch(model.FetchResult{StatusCode: 200, Duration: time.Millisecond})
		c.ObserveFetch(model.FetchResult{StatusCode: 404})
		c.ObserveFetch(model.FetchResult{Err: errors.New("refused")})

		if got := testutil.ToFloat64(c.pagesFetched.WithLabelValues(OutcomeSuccess)); got != 2 {
			t.Errorf("expected 2 successes, got %v", got)
		}
		if got := testutil.ToFloat64(c.pagesFetched.WithLabelValues(OutcomeHTTPError)); got != 1 {
			t.Errorf("expected 1 http error, got %v", got)
		}
		if got := testutil.ToFloat64(c.pagesFetched.WithLabelValues(OutcomeTransportError)); got != 1 {
			t.Errorf("expected 1 transport error, got %v", got)
		}
	})

	t.Run("records links and frontier gauges", func(t *testing.T) {
		t.Parallel()

		c := New()
		c.AddDiscovered(5)
		c.AddDiscovered(0)
		c.IncEnqueued()
		c.IncRejected(model.RejectScope)
		c.IncRejected(model.RejectScope)
		c.SetFrontier(3, 2, 7)

		if got := testutil.ToFloat64(c.linksDiscovered); got != 5 {
			t.Errorf("expected 5 discovered, got %v", got)
		}
		if got := testutil.ToFloat64(c.linksEnqueued); got != 1 {
			t.Errorf("expected 1 enqueued, got %v", got)
		}
		if got := testutil.ToFloat64(c.linksRejected.WithLabelValues(model.RejectScope)); got != 2 {
			t.Errorf("expected 2 rejected, got %v", got)
		}
		if got := testutil.ToFloat64(c.completed); got != 7 {
			t.Errorf("expected completed gauge 7, got %v", got)
		}
	})

	t.Run("nil collector is a no-op", func(t *testing.T) {
		t.Parallel()

		var c *Collector
		c.ObserveFetch(model.FetchResult{StatusCode: 200})
		c.AddDiscovered(1)
		c.IncEnqueued()
		c.IncRejected("x")
		c.IncSinkError()
		c.SetFrontier(1, 1, 1)
		if c.Registry() != nil {
			t.Error("expected nil registry")
		}
	})

	t.Run("handler serves metrics", func(t *testing.T) {
		t.Parallel()

		c := New()
		c.IncEnqueued()

		rec := httptest.NewRecorder()
		c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
		body, err := io.ReadAll(rec.Body)
		if err != nil {
			t.Fatalf("failed to read body: %v", err)
		}
		if !strings.Contains(string(body), "sitecrawl_links_enqueued_total 1") {
			t.Errorf("expected enqueued metric in output, got:\n%s", body)
		}
	})
}
