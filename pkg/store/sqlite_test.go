package store

import (
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/AvivElectis/electisSpace-sub010/pkg/models"
)

func newTestSQLiteStore(t *testing.T) (*SQLiteStore, func()) {
	t.Helper()

	tmpDB := fmt.Sprintf("/tmp/espace-test-%d.db", time.Now().UnixNano())
	s, err := NewSQLiteStore(tmpDB)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	cleanup := func() {
		s.Close()
		os.Remove(tmpDB)
		os.Remove(tmpDB + "-shm")
		os.Remove(tmpDB + "-wal")
	}
	return s, cleanup
}

func TestSQLiteCompanyCRUD(t *testing.T) {
	s, cleanup := newTestSQLiteStore(t)
	defer cleanup()

	company := models.NewCompany("co-1", "Acme")
	company.AimsEnabled = true
	company.AimsCompanyCode = "ACME"
	company.AimsUsername = "api-user"
	company.AimsPassword = "secret"

	if err := s.CreateCompany(company); err != nil {
		t.Fatalf("Failed to create company: %v", err)
	}

	got, err := s.GetCompany("co-1")
	if err != nil {
		t.Fatalf("Failed to get company: %v", err)
	}
	if got.Name != "Acme" || got.AimsCompanyCode != "ACME" {
		t.Errorf("Company round trip mismatch: %+v", got)
	}

	got.DisplayName = "Acme Corp"
	got.UpdatedAt = time.Now()
	if err := s.UpdateCompany(got); err != nil {
		t.Fatalf("Failed to update company: %v", err)
	}

	updated, _ := s.GetCompany("co-1")
	if updated.DisplayName != "Acme Corp" {
		t.Errorf("Expected updated display name, got %s", updated.DisplayName)
	}

	if err := s.DeleteCompany("co-1"); err != nil {
		t.Fatalf("Failed to delete company: %v", err)
	}
	if _, err := s.GetCompany("co-1"); err != ErrCompanyNotFound {
		t.Errorf("Expected ErrCompanyNotFound, got %v", err)
	}
}

func TestSQLiteUpdateMissingRows(t *testing.T) {
	s, cleanup := newTestSQLiteStore(t)
	defer cleanup()

	if err := s.UpdateStore(&models.Store{ID: "nope"}); err != ErrStoreNotFound {
		t.Errorf("Expected ErrStoreNotFound, got %v", err)
	}
	if err := s.DeleteSpace("nope"); err != ErrSpaceNotFound {
		t.Errorf("Expected ErrSpaceNotFound, got %v", err)
	}
	if err := s.DeleteSyncItem("nope"); err != ErrSyncItemNotFound {
		t.Errorf("Expected ErrSyncItemNotFound, got %v", err)
	}
}

func TestSQLiteSpaceLifecycle(t *testing.T) {
	s, cleanup := newTestSQLiteStore(t)
	defer cleanup()

	now := time.Now()
	sp := &models.Space{
		ID:        "sp-1",
		StoreID:   "st-1",
		Name:      "Desk 42",
		Type:      models.SpaceTypeDesk,
		Status:    models.SpaceStatusFree,
		Floor:     "2",
		Zone:      "North",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreateSpace(sp); err != nil {
		t.Fatalf("Failed to create space: %v", err)
	}

	got, err := s.GetSpace("sp-1")
	if err != nil {
		t.Fatalf("Failed to get space: %v", err)
	}
	if got.Floor != "2" || got.Zone != "North" {
		t.Errorf("Space round trip mismatch: %+v", got)
	}

	spaces, err := s.ListSpaces("st-1")
	if err != nil {
		t.Fatalf("Failed to list spaces: %v", err)
	}
	if len(spaces) != 1 {
		t.Errorf("Expected 1 space, got %d", len(spaces))
	}

	other, err := s.ListSpaces("st-other")
	if err != nil {
		t.Fatalf("Failed to list spaces: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("Expected no spaces for other store, got %d", len(other))
	}
}

func TestSQLiteSyncQueueClaim(t *testing.T) {
	s, cleanup := newTestSQLiteStore(t)
	defer cleanup()

	now := time.Now()
	items := []*models.SyncItem{
		newSyncItem("first", "store-1", "e1", models.SyncStatusFailed, now.Add(-10*time.Minute)),
		newSyncItem("second", "store-1", "e2", models.SyncStatusPending, now.Add(-5*time.Minute)),
		newSyncItem("later", "store-1", "e3", models.SyncStatusPending, now.Add(time.Hour)),
	}
	for _, item := range items {
		if err := s.UpsertSyncItem(item); err != nil {
			t.Fatalf("Failed to upsert %s: %v", item.ID, err)
		}
	}

	claimed, err := s.ClaimDueSyncItems(now, 10)
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if len(claimed) != 2 {
		t.Fatalf("Expected 2 claimed items, got %d", len(claimed))
	}
	if claimed[0].ID != "first" || claimed[1].ID != "second" {
		t.Errorf("Unexpected claim order: %s, %s", claimed[0].ID, claimed[1].ID)
	}

	// Claimed rows are in flight in the database too
	got, err := s.GetSyncItem("first")
	if err != nil {
		t.Fatalf("Failed to get claimed item: %v", err)
	}
	if got.Status != models.SyncStatusInFlight {
		t.Errorf("Expected in_flight, got %s", got.Status)
	}
	if got.Attempts != 0 {
		t.Errorf("Claim must not bump attempts, got %d", got.Attempts)
	}
}

func TestSQLiteGetOpenSyncItem(t *testing.T) {
	s, cleanup := newTestSQLiteStore(t)
	defer cleanup()

	now := time.Now()
	open := newSyncItem("open", "store-1", "space-1", models.SyncStatusFailed, now)
	if err := s.UpsertSyncItem(open); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	got, err := s.GetOpenSyncItem("store-1", models.EntitySpace, "space-1")
	if err != nil {
		t.Fatalf("Expected open item: %v", err)
	}
	if got.ID != "open" {
		t.Errorf("Expected item open, got %s", got.ID)
	}

	got.Status = models.SyncStatusDead
	got.UpdatedAt = time.Now()
	if err := s.UpdateSyncItem(got); err != nil {
		t.Fatalf("Failed to update: %v", err)
	}
	if _, err := s.GetOpenSyncItem("store-1", models.EntitySpace, "space-1"); err != ErrSyncItemNotFound {
		t.Errorf("Expected ErrSyncItemNotFound for dead item, got %v", err)
	}
}

func TestSQLitePruneSucceeded(t *testing.T) {
	s, cleanup := newTestSQLiteStore(t)
	defer cleanup()

	now := time.Now()
	old := newSyncItem("old", "store-1", "e1", models.SyncStatusSucceeded, now)
	old.UpdatedAt = now.Add(-48 * time.Hour)
	s.UpsertSyncItem(old)

	fresh := newSyncItem("fresh", "store-1", "e2", models.SyncStatusSucceeded, now)
	s.UpsertSyncItem(fresh)

	pruned, err := s.PruneSucceededSyncItems(now.Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if pruned != 1 {
		t.Errorf("Expected 1 pruned item, got %d", pruned)
	}
	if _, err := s.GetSyncItem("fresh"); err != nil {
		t.Errorf("Expected fresh item to survive: %v", err)
	}
}

func TestSQLiteConcurrentEnqueue(t *testing.T) {
	s, cleanup := newTestSQLiteStore(t)
	defer cleanup()

	now := time.Now()
	var wg sync.WaitGroup
	errors := make(chan error, 20)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			item := newSyncItem(
				fmt.Sprintf("item-%d", n), "store-1",
				fmt.Sprintf("entity-%d", n),
				models.SyncStatusPending, now)
			if err := s.UpsertSyncItem(item); err != nil {
				errors <- err
			}
		}(i)
	}
	wg.Wait()
	close(errors)

	for err := range errors {
		t.Errorf("Concurrent upsert failed: %v", err)
	}

	counts, err := s.CountSyncItemsByStatus()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if counts[models.SyncStatusPending] != 20 {
		t.Errorf("Expected 20 pending items, got %d", counts[models.SyncStatusPending])
	}
}
