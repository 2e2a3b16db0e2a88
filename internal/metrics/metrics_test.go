package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserversAreNoOpsBeforeInit(t *testing.T) {
	// Reset collectors for testing purposes.
	scrapesTotal = nil
	schedulerQueueDepth = nil
	schedulerCooldownTotal = nil
	httpRequestsTotal = nil

	// Components may record before Init ran; that must not panic.
	ObserveScrape("succeeded", time.Second)
	SetQueueDepth(3)
	ObserveCooldown()
	ObserveHTTPRequest("GET", "200")
}

func TestInit(t *testing.T) {
	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if scrapesTotal == nil || scrapeDurationSeconds == nil ||
		schedulerQueueDepth == nil || schedulerCooldownTotal == nil ||
		httpRequestsTotal == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}

	// A simple check to see if a metric can be used.
	ObserveScrape("succeeded", 5*time.Second)
	if val := testutil.ToFloat64(scrapesTotal.WithLabelValues("succeeded")); val < 1 {
		t.Errorf("Expected scrapesTotal{succeeded} >= 1, got %f", val)
	}

	SetQueueDepth(4)
	if val := testutil.ToFloat64(schedulerQueueDepth); val != 4 {
		t.Errorf("Expected queue depth gauge to be 4, got %f", val)
	}

	if Handler() == nil {
		t.Error("Handler() returned nil")
	}
}
