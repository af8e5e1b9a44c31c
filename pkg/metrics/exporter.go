package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/AvivElectis/electisSpace-sub010/pkg/models"
	"github.com/AvivElectis/electisSpace-sub010/pkg/store"
)

// Exporter serves Prometheus-compatible metrics. Queue depth comes
// straight from the store on every scrape; the registered collectors
// from the Recorder are appended after the store-derived lines.
type Exporter struct {
	store     store.Store
	startTime time.Time
}

// NewExporter creates a metrics exporter
func NewExporter(s store.Store) *Exporter {
	return &Exporter{
		store:     s,
		startTime: time.Now(),
	}
}

// ServeHTTP serves metrics at /metrics
func (e *Exporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	counts, err := e.store.CountSyncItemsByStatus()
	if err != nil {
		http.Error(w, fmt.Sprintf("Error collecting queue metrics: %v", err), http.StatusInternalServerError)
		return
	}

	// Always export all statuses, even at zero, so dashboards don't gap
	allStatuses := []models.SyncStatus{
		models.SyncStatusPending,
		models.SyncStatusInFlight,
		models.SyncStatusSucceeded,
		models.SyncStatusFailed,
		models.SyncStatusDead,
	}

	fmt.Fprintf(w, "# HELP espace_sync_queue_depth Sync queue items by status\n")
	fmt.Fprintf(w, "# TYPE espace_sync_queue_depth gauge\n")
	for _, status := range allStatuses {
		fmt.Fprintf(w, "espace_sync_queue_depth{status=\"%s\"} %d\n", status, counts[status])
	}

	stores, err := e.store.ListAimsStores()
	if err == nil {
		fmt.Fprintf(w, "\n# HELP espace_aims_stores Stores bound to AIMS\n")
		fmt.Fprintf(w, "# TYPE espace_aims_stores gauge\n")
		fmt.Fprintf(w, "espace_aims_stores %d\n", len(stores))
	}

	fmt.Fprintf(w, "\n# HELP espace_uptime_seconds Server uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE espace_uptime_seconds gauge\n")
	fmt.Fprintf(w, "espace_uptime_seconds %.0f\n", time.Since(e.startTime).Seconds())

	fmt.Fprintf(w, "\n")

	metricFamilies, err := promclient.DefaultGatherer.Gather()
	if err != nil {
		fmt.Fprintf(w, "# Error gathering Prometheus metrics: %v\n", err)
		return
	}

	var buf bytes.Buffer
	encoder := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range metricFamilies {
		if err := encoder.Encode(mf); err != nil {
			fmt.Fprintf(w, "# Error encoding metric %s: %v\n", mf.GetName(), err)
		}
	}
	w.Write(buf.Bytes())
}
