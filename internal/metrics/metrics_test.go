package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveUpstream(t *testing.T) {
	before := testutil.ToFloat64(upstreamRequests.WithLabelValues("list", "200"))
	ObserveUpstream("list", 200)
	ObserveUpstream("list", 200)
	after := testutil.ToFloat64(upstreamRequests.WithLabelValues("list", "200"))
	if after-before != 2 {
		t.Fatalf("expected +2, got %v", after-before)
	}
}

func TestObserveRequest_UnmatchedLabel(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("unmatched", "404"))
	ObserveRequest("", 404)
	if got := testutil.ToFloat64(httpRequests.WithLabelValues("unmatched", "404")); got-before != 1 {
		t.Fatalf("expected unmatched counter +1, got %v", got-before)
	}
}
