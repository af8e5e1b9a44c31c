package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AvivElectis/electisSpace-sub010/pkg/models"
	"github.com/AvivElectis/electisSpace-sub010/pkg/store"
)

// One recorder per test binary: NewRecorder registers with the default
// Prometheus registry, and duplicate registration panics.
var (
	recorderOnce sync.Once
	recorder     *Recorder
)

func sharedRecorder() *Recorder {
	recorderOnce.Do(func() {
		recorder = NewRecorder()
	})
	return recorder
}

func TestExporterQueueDepth(t *testing.T) {
	db := store.NewMemoryStore()
	now := time.Now()

	for i, status := range []models.SyncStatus{
		models.SyncStatusPending,
		models.SyncStatusPending,
		models.SyncStatusDead,
	} {
		item := &models.SyncItem{
			ID: string(rune('a' + i)), CompanyID: "co-1", StoreID: "st-1",
			EntityType: models.EntitySpace, EntityID: string(rune('a' + i)),
			Op: models.SyncOpCreate, Status: status,
			NextAttemptAt: now, CreatedAt: now, UpdatedAt: now,
		}
		if err := db.UpsertSyncItem(item); err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}
	}

	exporter := NewExporter(db)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	exporter.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	expected := []string{
		`espace_sync_queue_depth{status="pending"} 2`,
		`espace_sync_queue_depth{status="dead"} 1`,
		// Zero statuses are exported too, so dashboards don't gap
		`espace_sync_queue_depth{status="in_flight"} 0`,
		`espace_sync_queue_depth{status="succeeded"} 0`,
		`espace_sync_queue_depth{status="failed"} 0`,
		`espace_aims_stores 0`,
		`espace_uptime_seconds`,
	}
	for _, want := range expected {
		if !strings.Contains(body, want) {
			t.Errorf("Metrics output missing %q", want)
		}
	}
}

func TestExporterIncludesRecorderMetrics(t *testing.T) {
	r := sharedRecorder()
	r.RecordSyncAttempt("succeeded")
	r.RecordReconcileRun("ok")
	r.RecordReconcileDrift("missing", 3)
	r.RecordReconcileDrift("stale", 0) // zero drift is not counted

	exporter := NewExporter(store.NewMemoryStore())
	rec := httptest.NewRecorder()
	exporter.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		"espace_sync_attempts_total",
		"espace_reconcile_runs_total",
		"espace_reconcile_drift_total",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Metrics output missing %q", want)
		}
	}
	if strings.Contains(body, `kind="stale"`) {
		t.Error("Zero drift must not create a series")
	}
}

func TestMiddlewareCountsRequests(t *testing.T) {
	r := sharedRecorder()

	handler := r.Middleware(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/stores", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("Middleware altered the response: %d", rec.Code)
	}

	exporter := NewExporter(store.NewMemoryStore())
	out := httptest.NewRecorder()
	exporter.ServeHTTP(out, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(out.Body.String(), `espace_http_requests_total{endpoint="/stores",method="GET",status="418"}`) {
		t.Error("Expected request counter with status label")
	}
}
