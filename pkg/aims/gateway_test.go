package aims

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AvivElectis/electisSpace-sub010/pkg/logging"
	"github.com/AvivElectis/electisSpace-sub010/pkg/models"
	"github.com/AvivElectis/electisSpace-sub010/pkg/retry"
	"github.com/AvivElectis/electisSpace-sub010/pkg/store"
)

func newTestPool(baseURL string) *Pool {
	return NewPool(PoolConfig{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
		Retry:   retry.Config{MaxRetries: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, Multiplier: 1.0},
	}, logging.NewLogger(logging.ERROR, false))
}

func seedGatewayStore(t *testing.T, db store.Store) *models.Store {
	t.Helper()

	company := models.NewCompany("co-1", "Acme")
	company.AimsEnabled = true
	company.AimsCompanyCode = "ACME"
	company.AimsUsername = "api-user"
	company.AimsPassword = "secret"
	if err := db.CreateCompany(company); err != nil {
		t.Fatalf("Failed to create company: %v", err)
	}

	now := time.Now()
	st := &models.Store{
		ID: "st-1", CompanyID: "co-1", Name: "HQ",
		AimsEnabled: true, AimsStoreNumber: "0001",
		CreatedAt: now, UpdatedAt: now,
	}
	if err := db.CreateStore(st); err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return st
}

func syncItemFor(entityType models.EntityType, entityID string, op models.SyncOp) *models.SyncItem {
	now := time.Now()
	return &models.SyncItem{
		ID: "item-1", CompanyID: "co-1", StoreID: "st-1",
		EntityType: entityType, EntityID: entityID, Op: op,
		Status: models.SyncStatusInFlight, NextAttemptAt: now,
		CreatedAt: now, UpdatedAt: now,
	}
}

func TestGatewayDispatchCreate(t *testing.T) {
	fake := newFakeAims()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	db := store.NewMemoryStore()
	seedGatewayStore(t, db)

	now := time.Now()
	sp := &models.Space{
		ID: "sp-1", StoreID: "st-1", Name: "Desk 1",
		Type: models.SpaceTypeDesk, Status: models.SpaceStatusFree,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := db.CreateSpace(sp); err != nil {
		t.Fatalf("Failed to create space: %v", err)
	}

	g := NewGateway(db, newTestPool(srv.URL), logging.NewLogger(logging.ERROR, false))
	if err := g.Dispatch(context.Background(), syncItemFor(models.EntitySpace, "sp-1", models.SyncOpCreate)); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	pushed, ok := fake.articles["SP-sp-1"]
	if !ok {
		t.Fatal("Expected article pushed to AIMS")
	}
	if pushed.ArticleName != "Desk 1" {
		t.Errorf("Unexpected article name: %s", pushed.ArticleName)
	}
}

func TestGatewayDispatchGoneEntityDeletes(t *testing.T) {
	fake := newFakeAims()
	fake.articles["SP-sp-1"] = Article{ArticleID: "SP-sp-1", ArticleName: "Desk 1"}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	db := store.NewMemoryStore()
	seedGatewayStore(t, db)

	// Entity was deleted locally after the update was queued
	g := NewGateway(db, newTestPool(srv.URL), logging.NewLogger(logging.ERROR, false))
	if err := g.Dispatch(context.Background(), syncItemFor(models.EntitySpace, "sp-1", models.SyncOpUpdate)); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	if _, ok := fake.articles["SP-sp-1"]; ok {
		t.Error("Expected stale article removed from AIMS")
	}
}

func TestGatewayDispatchDelete(t *testing.T) {
	fake := newFakeAims()
	fake.articles["CR-r-1"] = Article{ArticleID: "CR-r-1", ArticleName: "War Room"}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	db := store.NewMemoryStore()
	seedGatewayStore(t, db)

	g := NewGateway(db, newTestPool(srv.URL), logging.NewLogger(logging.ERROR, false))
	if err := g.Dispatch(context.Background(), syncItemFor(models.EntityRoom, "r-1", models.SyncOpDelete)); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	if len(fake.articles) != 0 {
		t.Errorf("Expected article deleted, still have %v", fake.articles)
	}
}

func TestGatewayDispatchDisabledBinding(t *testing.T) {
	db := store.NewMemoryStore()
	st := seedGatewayStore(t, db)

	st.AimsEnabled = false
	if err := db.UpdateStore(st); err != nil {
		t.Fatalf("Failed to update store: %v", err)
	}

	g := NewGateway(db, newTestPool("http://127.0.0.1:1"), logging.NewLogger(logging.ERROR, false))
	err := g.Dispatch(context.Background(), syncItemFor(models.EntitySpace, "sp-1", models.SyncOpCreate))
	if !errors.Is(err, ErrAimsDisabled) {
		t.Errorf("Expected ErrAimsDisabled, got %v", err)
	}
}

func TestPoolReusesAndInvalidatesClients(t *testing.T) {
	pool := newTestPool("http://example.com")
	company := models.NewCompany("co-1", "Acme")
	company.AimsEnabled = true
	company.AimsCompanyCode = "ACME"
	company.AimsUsername = "user-1"
	company.AimsPassword = "pass-1"

	c1, err := pool.ClientFor(company)
	if err != nil {
		t.Fatalf("ClientFor failed: %v", err)
	}
	c2, err := pool.ClientFor(company)
	if err != nil {
		t.Fatalf("ClientFor failed: %v", err)
	}
	if c1 != c2 {
		t.Error("Expected cached client reuse")
	}

	// Rotated credentials produce a fresh client
	company.AimsPassword = "pass-2"
	c3, err := pool.ClientFor(company)
	if err != nil {
		t.Fatalf("ClientFor failed: %v", err)
	}
	if c3 == c1 {
		t.Error("Expected new client after credential change")
	}

	disabled := models.NewCompany("co-2", "Other")
	if _, err := pool.ClientFor(disabled); !errors.Is(err, ErrAimsDisabled) {
		t.Errorf("Expected ErrAimsDisabled, got %v", err)
	}
}

func TestGatewayDesiredArticles(t *testing.T) {
	db := store.NewMemoryStore()
	st := seedGatewayStore(t, db)

	now := time.Now()
	db.CreateSpace(&models.Space{
		ID: "sp-1", StoreID: st.ID, Name: "Desk 1",
		Type: models.SpaceTypeDesk, Status: models.SpaceStatusFree,
		CreatedAt: now, UpdatedAt: now,
	})
	db.CreatePerson(&models.Person{
		ID: "p-1", StoreID: st.ID, Name: "Dana",
		CreatedAt: now, UpdatedAt: now,
	})
	db.CreateRoom(&models.ConferenceRoom{
		ID: "r-1", StoreID: st.ID, Name: "War Room", Capacity: 8,
		Status: models.RoomStatusAvailable, CreatedAt: now, UpdatedAt: now,
	})

	g := NewGateway(db, newTestPool("http://example.com"), logging.NewLogger(logging.ERROR, false))
	desired, err := g.DesiredArticles(st)
	if err != nil {
		t.Fatalf("DesiredArticles failed: %v", err)
	}

	for _, id := range []string{"SP-sp-1", "PE-p-1", "CR-r-1"} {
		if _, ok := desired[id]; !ok {
			t.Errorf("Expected %s in desired set", id)
		}
	}
	if len(desired) != 3 {
		t.Errorf("Expected 3 desired articles, got %d", len(desired))
	}
}
