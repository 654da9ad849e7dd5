package observability

import (
	"testing"
	"time"

	"github.com/danmuck/poslink/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("host-a", "GET", "/health", 200, 12*time.Millisecond)
	RecordReadFailure("printer-1")
	RecordReconnect("printer-1", false)
	RecordSent("printer-1", 0)
	RecordSent("printer-1", 42)
	RecordFrame("term-1", "input", ResultHandled)
}

func TestRecordLinkState(t *testing.T) {
	testlog.Start(t)
	RecordLinkState("term-gauge", "terminal", true, true)
	if got := testutil.ToFloat64(linkOnline.WithLabelValues("term-gauge", "terminal")); got != 1 {
		t.Fatalf("online gauge = %v", got)
	}
	RecordLinkState("term-gauge", "terminal", false, true)
	RecordLinkState("term-gauge", "terminal", false, false)
	if got := testutil.ToFloat64(linkOnline.WithLabelValues("term-gauge", "terminal")); got != 0 {
		t.Fatalf("offline gauge = %v", got)
	}
	if got := testutil.ToFloat64(linkTransitions.WithLabelValues("term-gauge", "false")); got != 1 {
		t.Fatalf("offline transitions = %v", got)
	}
}
