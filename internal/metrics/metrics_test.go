package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordOperation(t *testing.T) {
	before := testutil.ToFloat64(OperationsTotal.WithLabelValues("insert_score"))
	RecordOperation("insert_score")
	RecordOperation("insert_score")

	if got := testutil.ToFloat64(OperationsTotal.WithLabelValues("insert_score")) - before; got != 2 {
		t.Errorf("insert_score counter grew by %v, want 2", got)
	}
}

func TestRecordRank(t *testing.T) {
	before := testutil.ToFloat64(PairsFiltered)
	RecordRank(3*time.Millisecond, 4, 7)

	if got := testutil.ToFloat64(PairsFiltered) - before; got != 7 {
		t.Errorf("filtered counter grew by %v, want 7", got)
	}
}

func TestRecordStoreSize(t *testing.T) {
	RecordStoreSize(3, 2, 1)

	tests := map[string]float64{"guests": 3, "thematics": 2, "other_guests": 1}
	for resource, want := range tests {
		if got := testutil.ToFloat64(StoreEntries.WithLabelValues(resource)); got != want {
			t.Errorf("%s gauge = %v, want %v", resource, got, want)
		}
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/healthz", "200"))
	RecordHTTPRequest("GET", "/healthz", 200)

	if got := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/healthz", "200")) - before; got != 1 {
		t.Errorf("http counter grew by %v, want 1", got)
	}
}
