package syncqueue

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AvivElectis/electisSpace-sub010/pkg/logging"
	"github.com/AvivElectis/electisSpace-sub010/pkg/models"
	"github.com/AvivElectis/electisSpace-sub010/pkg/store"
)

// Service owns the sync queue. Every entity mutation flows through
// Enqueue; the processor drains what Enqueue writes.
type Service struct {
	db     store.Store
	logger *logging.Logger
}

// NewService creates a sync queue service
func NewService(db store.Store, logger *logging.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.WithField("component", "syncqueue"),
	}
}

// Enqueue records a sync intent for one entity. If an open item already
// exists for the same entity, the two ops are coalesced into one; the
// queue never holds more than one open item per entity.
//
// Returns the resulting item, or nil when the ops cancelled out.
func (s *Service) Enqueue(st *models.Store, entityType models.EntityType, entityID string, op models.SyncOp) (*models.SyncItem, error) {
	if !st.AimsEnabled {
		return nil, nil
	}
	if !models.ValidEntityType(entityType) {
		return nil, fmt.Errorf("invalid entity type: %s", entityType)
	}
	if !models.ValidSyncOp(op) {
		return nil, fmt.Errorf("invalid sync op: %s", op)
	}

	now := time.Now()

	existing, err := s.db.GetOpenSyncItem(st.ID, entityType, entityID)
	if err != nil && !errors.Is(err, store.ErrSyncItemNotFound) {
		return nil, fmt.Errorf("failed to look up open sync item: %w", err)
	}

	if existing != nil {
		merged, drop := models.CoalesceOps(existing.Op, op)
		if drop {
			if err := s.db.DeleteSyncItem(existing.ID); err != nil {
				return nil, fmt.Errorf("failed to drop cancelled sync item: %w", err)
			}
			s.logger.Debug("sync ops cancelled out", map[string]interface{}{
				"store": st.ID, "entity": entityID, "existing": existing.Op, "incoming": op,
			})
			return nil, nil
		}

		existing.Op = merged
		existing.UpdatedAt = now
		// A failed item absorbing a new op goes back to pending: the new
		// local change deserves a fresh attempt without the old backoff.
		if existing.Status == models.SyncStatusFailed {
			existing.Status = models.SyncStatusPending
			existing.Attempts = 0
			existing.NextAttemptAt = now
			existing.LastError = ""
		}
		if err := s.db.UpdateSyncItem(existing); err != nil {
			return nil, fmt.Errorf("failed to coalesce sync item: %w", err)
		}
		return existing, nil
	}

	item := &models.SyncItem{
		ID:            uuid.New().String(),
		CompanyID:     st.CompanyID,
		StoreID:       st.ID,
		EntityType:    entityType,
		EntityID:      entityID,
		Op:            op,
		Status:        models.SyncStatusPending,
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if err := s.db.UpsertSyncItem(item); err != nil {
		return nil, fmt.Errorf("failed to enqueue sync item: %w", err)
	}

	s.logger.Debug("sync item enqueued", map[string]interface{}{
		"item": item.ID, "store": st.ID, "entity": entityID, "op": op,
	})
	return item, nil
}

// List returns sync items for a store, optionally filtered by status
func (s *Service) List(storeID string, status models.SyncStatus) ([]*models.SyncItem, error) {
	return s.db.ListSyncItems(storeID, status)
}

// Get returns one sync item
func (s *Service) Get(id string) (*models.SyncItem, error) {
	return s.db.GetSyncItem(id)
}

// Retry resets a failed or dead item for an immediate attempt
func (s *Service) Retry(id string) (*models.SyncItem, error) {
	item, err := s.db.GetSyncItem(id)
	if err != nil {
		return nil, err
	}

	if err := models.ValidateTransition(item.Status, models.SyncStatusPending); err != nil {
		return nil, fmt.Errorf("cannot retry item in status %s: %w", item.Status, err)
	}

	now := time.Now()
	item.Status = models.SyncStatusPending
	item.Attempts = 0
	item.NextAttemptAt = now
	item.LastError = ""
	item.UpdatedAt = now

	if err := s.db.UpdateSyncItem(item); err != nil {
		return nil, fmt.Errorf("failed to retry sync item: %w", err)
	}

	s.logger.Info("sync item queued for retry", map[string]interface{}{"item": item.ID})
	return item, nil
}

// ReplayDead requeues every dead item for a store. Returns how many
// items were replayed.
func (s *Service) ReplayDead(storeID string) (int, error) {
	dead, err := s.db.ListSyncItems(storeID, models.SyncStatusDead)
	if err != nil {
		return 0, err
	}

	replayed := 0
	for _, item := range dead {
		if _, err := s.Retry(item.ID); err != nil {
			s.logger.Error("failed to replay dead item", map[string]interface{}{
				"item": item.ID, "error": err.Error(),
			})
			continue
		}
		replayed++
	}
	return replayed, nil
}

// Delete removes a sync item from the queue
func (s *Service) Delete(id string) error {
	return s.db.DeleteSyncItem(id)
}

// Counts returns queue depth by status
func (s *Service) Counts() (map[models.SyncStatus]int, error) {
	return s.db.CountSyncItemsByStatus()
}
