package syncqueue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/AvivElectis/electisSpace-sub010/pkg/aims"
	"github.com/AvivElectis/electisSpace-sub010/pkg/logging"
	"github.com/AvivElectis/electisSpace-sub010/pkg/metrics"
	"github.com/AvivElectis/electisSpace-sub010/pkg/models"
	"github.com/AvivElectis/electisSpace-sub010/pkg/retry"
	"github.com/AvivElectis/electisSpace-sub010/pkg/sse"
	"github.com/AvivElectis/electisSpace-sub010/pkg/store"
)

// Dispatcher executes one sync item against the remote side
type Dispatcher interface {
	Dispatch(ctx context.Context, item *models.SyncItem) error
}

// ProcessorConfig holds queue processor settings
type ProcessorConfig struct {
	PollInterval       time.Duration // how often to poll for due items
	BatchSize          int           // items claimed per poll
	RetentionInterval  time.Duration // how often to prune succeeded items
	SucceededRetention time.Duration // how long succeeded items are kept
	RetryPolicy        *models.RetryPolicy
}

// DefaultProcessorConfig returns the default processor settings
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:       5 * time.Second,
		BatchSize:          25,
		RetentionInterval:  time.Hour,
		SucceededRetention: 24 * time.Hour,
		RetryPolicy:        models.DefaultRetryPolicy(),
	}
}

// Processor drains the sync queue: it claims due items, dispatches them,
// and applies retry backoff or marks items dead on failure.
type Processor struct {
	cfg        ProcessorConfig
	db         store.Store
	dispatcher Dispatcher
	events     *sse.Manager
	recorder   *metrics.Recorder
	logger     *logging.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewProcessor creates a queue processor
func NewProcessor(cfg ProcessorConfig, db store.Store, dispatcher Dispatcher, events *sse.Manager, recorder *metrics.Recorder, logger *logging.Logger) *Processor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 25
	}
	if cfg.RetentionInterval <= 0 {
		cfg.RetentionInterval = time.Hour
	}
	if cfg.SucceededRetention <= 0 {
		cfg.SucceededRetention = 24 * time.Hour
	}
	if cfg.RetryPolicy == nil {
		cfg.RetryPolicy = models.DefaultRetryPolicy()
	}
	return &Processor{
		cfg:        cfg,
		db:         db,
		dispatcher: dispatcher,
		events:     events,
		recorder:   recorder,
		logger:     logger.WithField("component", "processor"),
	}
}

// Start launches the poll and retention loops
func (p *Processor) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(2)
	go p.pollLoop(ctx)
	go p.retentionLoop(ctx)

	p.logger.Info("sync processor started", map[string]interface{}{
		"poll_interval": p.cfg.PollInterval.String(),
		"batch_size":    p.cfg.BatchSize,
	})
}

// Stop halts the loops and waits for in-flight work to finish
func (p *Processor) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.logger.Info("sync processor stopped")
}

func (p *Processor) pollLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ProcessBatch(ctx)
		}
	}
}

func (p *Processor) retentionLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.RetentionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-p.cfg.SucceededRetention)
			pruned, err := p.db.PruneSucceededSyncItems(cutoff)
			if err != nil {
				p.logger.Error("failed to prune succeeded items", map[string]interface{}{"error": err.Error()})
				continue
			}
			if pruned > 0 {
				p.logger.Info("pruned succeeded sync items", map[string]interface{}{"count": pruned})
			}
		}
	}
}

// ProcessBatch claims and dispatches one batch of due items. Returns the
// number of items processed. Exposed so tests and the CLI can drive the
// queue without the poll loop.
func (p *Processor) ProcessBatch(ctx context.Context) int {
	items, err := p.db.ClaimDueSyncItems(time.Now(), p.cfg.BatchSize)
	if err != nil {
		p.logger.Error("failed to claim sync items", map[string]interface{}{"error": err.Error()})
		return 0
	}

	for _, item := range items {
		select {
		case <-ctx.Done():
			// Requeue unprocessed claims so they are not stuck in flight
			p.requeue(item)
			continue
		default:
		}
		p.processOne(ctx, item)
	}
	return len(items)
}

func (p *Processor) processOne(ctx context.Context, item *models.SyncItem) {
	started := time.Now()
	err := p.dispatcher.Dispatch(ctx, item)
	if p.recorder != nil {
		p.recorder.RecordDispatchDuration(string(item.Op), time.Since(started).Seconds())
	}

	if err == nil {
		p.complete(item)
		return
	}

	// A disabled AIMS binding is not a failure: the item is obsolete.
	if errors.Is(err, aims.ErrAimsDisabled) {
		p.logger.Warn("dropping sync item, aims binding disabled", map[string]interface{}{
			"item": item.ID, "store": item.StoreID,
		})
		if derr := p.db.DeleteSyncItem(item.ID); derr != nil {
			p.logger.Error("failed to drop obsolete sync item", map[string]interface{}{
				"item": item.ID, "error": derr.Error(),
			})
		}
		return
	}

	p.fail(item, err)
}

func (p *Processor) complete(item *models.SyncItem) {
	item.Status = models.SyncStatusSucceeded
	item.Attempts++
	item.LastError = ""
	item.UpdatedAt = time.Now()

	if err := p.db.UpdateSyncItem(item); err != nil {
		p.logger.Error("failed to mark sync item succeeded", map[string]interface{}{
			"item": item.ID, "error": err.Error(),
		})
		return
	}

	if p.recorder != nil {
		p.recorder.RecordSyncAttempt("succeeded")
	}
	p.broadcast(item)
	p.logger.Debug("sync item succeeded", map[string]interface{}{
		"item": item.ID, "entity": item.EntityID, "op": item.Op, "attempts": item.Attempts,
	})
}

func (p *Processor) fail(item *models.SyncItem, dispatchErr error) {
	now := time.Now()
	item.Attempts++
	item.LastError = dispatchErr.Error()
	item.UpdatedAt = now

	retryable := retry.IsRetryable(dispatchErr)
	exhausted := item.Attempts >= p.cfg.RetryPolicy.MaxAttempts

	if !retryable || exhausted {
		item.Status = models.SyncStatusDead
		if err := p.db.UpdateSyncItem(item); err != nil {
			p.logger.Error("failed to mark sync item dead", map[string]interface{}{
				"item": item.ID, "error": err.Error(),
			})
			return
		}
		if p.recorder != nil {
			p.recorder.RecordSyncAttempt("dead")
		}
		p.broadcast(item)
		p.logger.Error("sync item dead", map[string]interface{}{
			"item": item.ID, "entity": item.EntityID, "attempts": item.Attempts,
			"retryable": retryable, "error": dispatchErr.Error(),
		})
		return
	}

	backoff := p.cfg.RetryPolicy.CalculateBackoff(item.Attempts)
	item.Status = models.SyncStatusFailed
	item.NextAttemptAt = now.Add(backoff)

	if err := p.db.UpdateSyncItem(item); err != nil {
		p.logger.Error("failed to mark sync item failed", map[string]interface{}{
			"item": item.ID, "error": err.Error(),
		})
		return
	}

	if p.recorder != nil {
		p.recorder.RecordSyncAttempt("failed")
	}
	p.broadcast(item)
	p.logger.Warn("sync item failed, retry scheduled", map[string]interface{}{
		"item": item.ID, "entity": item.EntityID, "attempts": item.Attempts,
		"backoff": backoff.String(), "error": dispatchErr.Error(),
	})
}

// requeue puts an unprocessed claimed item back to pending
func (p *Processor) requeue(item *models.SyncItem) {
	item.Status = models.SyncStatusPending
	item.UpdatedAt = time.Now()
	if err := p.db.UpdateSyncItem(item); err != nil {
		p.logger.Error("failed to requeue sync item", map[string]interface{}{
			"item": item.ID, "error": err.Error(),
		})
	}
}

func (p *Processor) broadcast(item *models.SyncItem) {
	if p.events == nil {
		return
	}
	p.events.Broadcast(item.StoreID, sse.Event{
		Type: "sync_status",
		Data: map[string]interface{}{
			"item_id":     item.ID,
			"entity_type": item.EntityType,
			"entity_id":   item.EntityID,
			"op":          item.Op,
			"status":      item.Status,
			"attempts":    item.Attempts,
			"last_error":  item.LastError,
		},
	})
}
