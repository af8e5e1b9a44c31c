package syncqueue

import (
	"context"
	"sync"
	"time"

	"github.com/AvivElectis/electisSpace-sub010/pkg/aims"
	"github.com/AvivElectis/electisSpace-sub010/pkg/logging"
	"github.com/AvivElectis/electisSpace-sub010/pkg/metrics"
	"github.com/AvivElectis/electisSpace-sub010/pkg/models"
	"github.com/AvivElectis/electisSpace-sub010/pkg/sse"
	"github.com/AvivElectis/electisSpace-sub010/pkg/store"
)

// ArticleSource provides both sides of the reconciliation diff
type ArticleSource interface {
	DesiredArticles(st *models.Store) (map[string]aims.Article, error)
	RemoteArticles(ctx context.Context, company *models.Company, st *models.Store) (map[string]aims.Article, error)
}

// ReconcilerConfig holds pull-sync settings
type ReconcilerConfig struct {
	Interval time.Duration // how often to run the full diff
}

// DefaultReconcilerConfig returns the default pull-sync settings
func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{Interval: 15 * time.Minute}
}

// DriftReport summarizes one reconciliation run for a store
type DriftReport struct {
	StoreID  string `json:"store_id"`
	Missing  int    `json:"missing"`  // locally present, absent from AIMS
	Stale    int    `json:"stale"`    // present both sides, payload differs
	Orphaned int    `json:"orphaned"` // on AIMS but no local entity
}

// Total returns the number of drifted articles in the report
func (r DriftReport) Total() int {
	return r.Missing + r.Stale + r.Orphaned
}

// Reconciler periodically diffs local state against AIMS and enqueues
// sync items to repair the drift. Local state always wins.
type Reconciler struct {
	cfg      ReconcilerConfig
	db       store.Store
	source   ArticleSource
	queue    *Service
	events   *sse.Manager
	recorder *metrics.Recorder
	logger   *logging.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewReconciler creates a pull-sync reconciler
func NewReconciler(cfg ReconcilerConfig, db store.Store, source ArticleSource, queue *Service, events *sse.Manager, recorder *metrics.Recorder, logger *logging.Logger) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	return &Reconciler{
		cfg:      cfg,
		db:       db,
		source:   source,
		queue:    queue,
		events:   events,
		recorder: recorder,
		logger:   logger.WithField("component", "reconciler"),
	}
}

// Start launches the periodic reconciliation loop
func (r *Reconciler) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(r.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.RunOnce(ctx)
			}
		}
	}()

	r.logger.Info("pull-sync reconciler started", map[string]interface{}{
		"interval": r.cfg.Interval.String(),
	})
}

// Stop halts the loop and waits for a running diff to finish
func (r *Reconciler) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	r.logger.Info("pull-sync reconciler stopped")
}

// RunOnce reconciles every AIMS-bound store. Also the entry point for
// the manual reconcile API endpoint.
func (r *Reconciler) RunOnce(ctx context.Context) []DriftReport {
	stores, err := r.db.ListAimsStores()
	if err != nil {
		r.logger.Error("failed to list aims stores", map[string]interface{}{"error": err.Error()})
		if r.recorder != nil {
			r.recorder.RecordReconcileRun("error")
		}
		return nil
	}

	var reports []DriftReport
	for _, st := range stores {
		select {
		case <-ctx.Done():
			return reports
		default:
		}

		report, err := r.reconcileStore(ctx, st)
		if err != nil {
			r.logger.Error("store reconciliation failed", map[string]interface{}{
				"store": st.ID, "error": err.Error(),
			})
			if r.recorder != nil {
				r.recorder.RecordReconcileRun("error")
			}
			continue
		}
		if r.recorder != nil {
			r.recorder.RecordReconcileRun("ok")
			r.recorder.RecordReconcileDrift("missing", report.Missing)
			r.recorder.RecordReconcileDrift("stale", report.Stale)
			r.recorder.RecordReconcileDrift("orphaned", report.Orphaned)
		}
		if report.Total() > 0 {
			r.logger.Info("drift detected", map[string]interface{}{
				"store": st.ID, "missing": report.Missing,
				"stale": report.Stale, "orphaned": report.Orphaned,
			})
		}
		if r.events != nil {
			r.events.Broadcast(st.ID, sse.Event{Type: "reconcile_report", Data: report})
		}
		reports = append(reports, report)
	}
	return reports
}

func (r *Reconciler) reconcileStore(ctx context.Context, st *models.Store) (DriftReport, error) {
	report := DriftReport{StoreID: st.ID}

	company, err := r.db.GetCompany(st.CompanyID)
	if err != nil {
		return report, err
	}
	if !company.AimsEnabled || !company.IsActive() {
		return report, nil
	}

	desired, err := r.source.DesiredArticles(st)
	if err != nil {
		return report, err
	}
	remote, err := r.source.RemoteArticles(ctx, company, st)
	if err != nil {
		return report, err
	}

	for id, want := range desired {
		entityType, entityID, ok := aims.ParseArticleID(id)
		if !ok {
			continue
		}
		have, exists := remote[id]
		switch {
		case !exists:
			if _, err := r.queue.Enqueue(st, entityType, entityID, models.SyncOpCreate); err != nil {
				return report, err
			}
			report.Missing++
		case !aims.ArticlesEqual(want, have):
			if _, err := r.queue.Enqueue(st, entityType, entityID, models.SyncOpUpdate); err != nil {
				return report, err
			}
			report.Stale++
		}
	}

	for id := range remote {
		entityType, entityID, ok := aims.ParseArticleID(id)
		if !ok {
			// Not one of ours; AIMS stores can hold foreign articles
			continue
		}
		if _, exists := desired[id]; exists {
			continue
		}
		if _, err := r.queue.Enqueue(st, entityType, entityID, models.SyncOpDelete); err != nil {
			return report, err
		}
		report.Orphaned++
	}

	return report, nil
}
