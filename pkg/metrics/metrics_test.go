package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewManager(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewManager(
		WithNamespace("test"),
		WithSubsystem("suite"),
		WithPrometheusRegistry(reg),
	)
	if m == nil {
		t.Fatal("manager is nil")
	}
	if m.namespace != "test" || m.subsystem != "suite" {
		t.Errorf("options not applied: %s/%s", m.namespace, m.subsystem)
	}
}

func TestGlobalHelpers(t *testing.T) {
	// Helpers must not panic and must hit the global registry.
	RecordDonation()
	RecordSale()
	RecordPhotoSubmitted()
	RecordPhotoApproved()
	RecordPhotoRejected()
	RecordTeamCreated()
	RecordSnapshotBuild(12.5)
	RecordSnapshotCacheHit()
	RecordSnapshotError()
	RecordBroadcast()
	RecordBroadcastDrop()
	RecordPointEvent()
	UpdateSubscribers(3)
	UpdateBusDepth(1)
	RecordBusEnqueueError()
	UpdateTeamsTotal(4)
	UpdateGeneration(42)
	RecordHTTPRequest("leaderboard", "GET", "200")
	RecordHTTPRequestDuration("leaderboard", "GET", "200", 1.5)
	RecordHTTPError("donations", "POST", "client_error")

	families, err := GetRegistry().Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected registered metric families")
	}
}
