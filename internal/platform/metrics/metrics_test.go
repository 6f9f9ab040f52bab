package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	relaymodel "game-relayer/go-backend/internal/domains/relay/model"
	"game-relayer/go-backend/internal/domains/relay/ports"
)

var _ ports.Observer = (*Relay)(nil)

func TestRelayCountsQueueEvents(t *testing.T) {
	m := New()
	m.QueueDepth(3)
	m.SubmissionAttempt(relaymodel.OperationIncrementCounter, false)
	m.SubmissionAttempt(relaymodel.OperationIncrementCounter, true)
	m.SubmissionAttempt(relaymodel.OperationRecordScore, false)
	m.NonceConflict()
	m.RequestCompleted("click", ports.OutcomeSuccess, 120*time.Millisecond)
	m.RequestCompleted("click", ports.OutcomeSuccess, 80*time.Millisecond)
	m.RequestCompleted("submitScore", ports.OutcomeValidationError, time.Millisecond)

	if got := testutil.ToFloat64(m.depth); got != 3 {
		t.Fatalf("unexpected depth: %v", got)
	}
	if got := testutil.ToFloat64(m.attempts.WithLabelValues(string(relaymodel.OperationIncrementCounter), "true")); got != 1 {
		t.Fatalf("unexpected retry attempts: %v", got)
	}
	if got := testutil.ToFloat64(m.conflicts); got != 1 {
		t.Fatalf("unexpected conflicts: %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("click", ports.OutcomeSuccess)); got != 2 {
		t.Fatalf("unexpected successful clicks: %v", got)
	}
	if got := testutil.CollectAndCount(m.duration); got != 2 {
		t.Fatalf("expected histogram series per outcome, got %d", got)
	}
}

func TestHandlerExposesRelayMetrics(t *testing.T) {
	m := New()
	m.RateLimited()
	m.HTTPResponse(429)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{"relayer_http_rate_limited_total 1", `relayer_http_responses_total{code="429"} 1`, "go_goroutines"} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
