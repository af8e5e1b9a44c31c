package models

import (
	"errors"
	"fmt"
	"time"
)

// SyncOp is the outbound operation a sync item carries
type SyncOp string

const (
	SyncOpCreate SyncOp = "create"
	SyncOpUpdate SyncOp = "update"
	SyncOpDelete SyncOp = "delete"
)

// ValidSyncOp reports whether op is a known sync operation
func ValidSyncOp(op SyncOp) bool {
	switch op {
	case SyncOpCreate, SyncOpUpdate, SyncOpDelete:
		return true
	default:
		return false
	}
}

// SyncStatus represents the lifecycle state of a sync queue item
type SyncStatus string

const (
	SyncStatusPending   SyncStatus = "pending"   // waiting for dispatch
	SyncStatusInFlight  SyncStatus = "in_flight" // claimed by the processor
	SyncStatusSucceeded SyncStatus = "succeeded" // pushed to AIMS
	SyncStatusFailed    SyncStatus = "failed"    // last attempt failed, retry scheduled
	SyncStatusDead      SyncStatus = "dead"      // gave up, manual replay only
)

// SyncItem is one outbound sync intent: reconcile a single entity to AIMS.
// The queue holds at most one pending item per (store, entity type, entity).
type SyncItem struct {
	ID         string     `json:"id"`
	CompanyID  string     `json:"company_id"`
	StoreID    string     `json:"store_id"`
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	Op         SyncOp     `json:"op"`

	Status        SyncStatus `json:"status"`
	Attempts      int        `json:"attempts"`
	NextAttemptAt time.Time  `json:"next_attempt_at"`
	LastError     string     `json:"last_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks if the sync item is well formed
func (i *SyncItem) Validate() error {
	if i.ID == "" {
		return errors.New("sync item ID is required")
	}
	if i.StoreID == "" {
		return errors.New("sync item store ID is required")
	}
	if i.EntityID == "" {
		return errors.New("sync item entity ID is required")
	}
	if !ValidEntityType(i.EntityType) {
		return fmt.Errorf("invalid entity type: %s", i.EntityType)
	}
	if !ValidSyncOp(i.Op) {
		return fmt.Errorf("invalid sync op: %s", i.Op)
	}
	return nil
}

// CoalesceOps merges a newly enqueued op into an existing pending op.
// Returns the resulting op and drop=true when the pair cancels out
// (a create followed by a delete means AIMS never saw the entity).
func CoalesceOps(existing, incoming SyncOp) (result SyncOp, drop bool) {
	switch existing {
	case SyncOpCreate:
		switch incoming {
		case SyncOpUpdate:
			return SyncOpCreate, false
		case SyncOpDelete:
			return "", true
		}
	case SyncOpUpdate:
		switch incoming {
		case SyncOpDelete:
			return SyncOpDelete, false
		case SyncOpCreate, SyncOpUpdate:
			return SyncOpUpdate, false
		}
	case SyncOpDelete:
		// The label still exists remotely, so a re-create is an update.
		if incoming == SyncOpCreate {
			return SyncOpUpdate, false
		}
	}
	return incoming, false
}
