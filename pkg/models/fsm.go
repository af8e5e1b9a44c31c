package models

import (
	"fmt"
	"time"
)

// validTransitions maps from-state to allowed to-states for sync items
var validTransitions = map[SyncStatus]map[SyncStatus]bool{
	SyncStatusPending: {
		SyncStatusInFlight: true, // Pending → InFlight (processor claims item)
	},
	SyncStatusInFlight: {
		SyncStatusSucceeded: true, // InFlight → Succeeded (AIMS accepted push)
		SyncStatusFailed:    true, // InFlight → Failed (attempt failed)
		SyncStatusDead:      true, // InFlight → Dead (non-retryable error)
	},
	SyncStatusFailed: {
		SyncStatusInFlight: true, // Failed → InFlight (backoff elapsed, retry claim)
		SyncStatusPending:  true, // Failed → Pending (manual retry, resets backoff)
		SyncStatusDead:     true, // Failed → Dead (max attempts exceeded)
	},
	SyncStatusDead: {
		SyncStatusPending: true, // Dead → Pending (manual replay)
	},
	// Terminal on its own; succeeded items are pruned, never transitioned.
	SyncStatusSucceeded: {},
}

// ValidateTransition checks if a sync status transition is valid
func ValidateTransition(from, to SyncStatus) error {
	allowed, exists := validTransitions[from]
	if !exists {
		return fmt.Errorf("unknown source status: %s", from)
	}
	if !allowed[to] {
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	return nil
}

// IsTerminalStatus returns true if no further automatic transitions happen
func IsTerminalStatus(status SyncStatus) bool {
	return status == SyncStatusSucceeded || status == SyncStatusDead
}

// RetryPolicy defines retry behavior for sync dispatch
type RetryPolicy struct {
	MaxAttempts       int           // attempts before an item goes dead
	InitialBackoff    time.Duration // backoff after the first failure
	MaxBackoff        time.Duration // backoff ceiling
	BackoffMultiplier float64       // multiplier for exponential backoff
}

// DefaultRetryPolicy returns the default sync retry policy
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:       5,
		InitialBackoff:    5 * time.Second,
		MaxBackoff:        5 * time.Minute,
		BackoffMultiplier: 2.0,
	}
}

// CalculateBackoff calculates the backoff before attempt number attempts+1.
// attempts counts failures so far; the first retry waits InitialBackoff.
func (rp *RetryPolicy) CalculateBackoff(attempts int) time.Duration {
	if attempts <= 1 {
		return rp.InitialBackoff
	}

	backoff := float64(rp.InitialBackoff)
	for i := 1; i < attempts; i++ {
		backoff *= rp.BackoffMultiplier
	}

	duration := time.Duration(backoff)
	if duration > rp.MaxBackoff {
		return rp.MaxBackoff
	}
	return duration
}

// ShouldRetry determines if a failed item gets another attempt
func (rp *RetryPolicy) ShouldRetry(item *SyncItem) bool {
	if item.Status == SyncStatusDead || item.Status == SyncStatusSucceeded {
		return false
	}
	return item.Attempts < rp.MaxAttempts
}
