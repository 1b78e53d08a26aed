package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInit(t *testing.T) {
	// Reset collectors for testing purposes.
	scraperCommentsTotal = nil
	scraperExtractionsTotal = nil
	scraperRunsTotal = nil

	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if scraperCommentsTotal == nil || scraperExtractionsTotal == nil || scraperRunsTotal == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}

	ObserveIngest(5, 2, 3)
	if val := testutil.ToFloat64(scraperCommentsTotal); val != 5 {
		t.Errorf("Expected scraperCommentsTotal to be 5, got %f", val)
	}
	if val := testutil.ToFloat64(scraperDocketsTotal); val != 2 {
		t.Errorf("Expected scraperDocketsTotal to be 2, got %f", val)
	}

	ObserveExtraction("attachment extracted")
	if val := testutil.ToFloat64(scraperExtractionsTotal.WithLabelValues("attachment extracted")); val != 1 {
		t.Errorf("Expected extraction counter to be 1, got %f", val)
	}

	ObserveRun("completed")
	if val := testutil.ToFloat64(scraperRunsTotal.WithLabelValues("completed")); val != 1 {
		t.Errorf("Expected run counter to be 1, got %f", val)
	}
}
