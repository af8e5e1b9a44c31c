package syncqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AvivElectis/electisSpace-sub010/pkg/logging"
	"github.com/AvivElectis/electisSpace-sub010/pkg/models"
	"github.com/AvivElectis/electisSpace-sub010/pkg/store"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.ERROR, false)
}

func testStore() *models.Store {
	now := time.Now()
	return &models.Store{
		ID:              "st-1",
		CompanyID:       "co-1",
		Name:            "HQ",
		AimsEnabled:     true,
		AimsStoreNumber: "0001",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestEnqueueCreatesPendingItem(t *testing.T) {
	db := store.NewMemoryStore()
	svc := NewService(db, testLogger())

	item, err := svc.Enqueue(testStore(), models.EntitySpace, "sp-1", models.SyncOpCreate)
	require.NoError(t, err)
	require.NotNil(t, item)

	assert.Equal(t, models.SyncStatusPending, item.Status)
	assert.Equal(t, models.SyncOpCreate, item.Op)
	assert.Equal(t, "co-1", item.CompanyID)
	assert.Equal(t, 0, item.Attempts)
	assert.NotEmpty(t, item.ID)
}

func TestEnqueueSkipsUnboundStore(t *testing.T) {
	db := store.NewMemoryStore()
	svc := NewService(db, testLogger())

	st := testStore()
	st.AimsEnabled = false

	item, err := svc.Enqueue(st, models.EntitySpace, "sp-1", models.SyncOpCreate)
	require.NoError(t, err)
	assert.Nil(t, item)

	counts, err := svc.Counts()
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestEnqueueRejectsInvalidInput(t *testing.T) {
	db := store.NewMemoryStore()
	svc := NewService(db, testLogger())

	_, err := svc.Enqueue(testStore(), "warehouse", "sp-1", models.SyncOpCreate)
	assert.Error(t, err)

	_, err = svc.Enqueue(testStore(), models.EntitySpace, "sp-1", "upsert")
	assert.Error(t, err)
}

func TestEnqueueCoalescing(t *testing.T) {
	tests := []struct {
		name   string
		first  models.SyncOp
		second models.SyncOp
		want   models.SyncOp
		drop   bool
	}{
		{"create absorbs update", models.SyncOpCreate, models.SyncOpUpdate, models.SyncOpCreate, false},
		{"create and delete cancel", models.SyncOpCreate, models.SyncOpDelete, "", true},
		{"update then delete", models.SyncOpUpdate, models.SyncOpDelete, models.SyncOpDelete, false},
		{"delete then create", models.SyncOpDelete, models.SyncOpCreate, models.SyncOpUpdate, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := store.NewMemoryStore()
			svc := NewService(db, testLogger())
			st := testStore()

			first, err := svc.Enqueue(st, models.EntitySpace, "sp-1", tt.first)
			require.NoError(t, err)
			require.NotNil(t, first)

			second, err := svc.Enqueue(st, models.EntitySpace, "sp-1", tt.second)
			require.NoError(t, err)

			if tt.drop {
				assert.Nil(t, second)
				_, err := db.GetSyncItem(first.ID)
				assert.ErrorIs(t, err, store.ErrSyncItemNotFound)
				return
			}

			require.NotNil(t, second)
			// Coalesced into the same queue row
			assert.Equal(t, first.ID, second.ID)
			assert.Equal(t, tt.want, second.Op)

			items, err := svc.List(st.ID, "")
			require.NoError(t, err)
			assert.Len(t, items, 1)
		})
	}
}

func TestEnqueueResetsFailedItem(t *testing.T) {
	db := store.NewMemoryStore()
	svc := NewService(db, testLogger())
	st := testStore()

	item, err := svc.Enqueue(st, models.EntitySpace, "sp-1", models.SyncOpUpdate)
	require.NoError(t, err)

	// Simulate a failed attempt with backoff
	item.Status = models.SyncStatusFailed
	item.Attempts = 3
	item.LastError = "aims: unexpected status 503: maintenance"
	item.NextAttemptAt = time.Now().Add(time.Hour)
	require.NoError(t, db.UpdateSyncItem(item))

	merged, err := svc.Enqueue(st, models.EntitySpace, "sp-1", models.SyncOpUpdate)
	require.NoError(t, err)
	require.NotNil(t, merged)

	assert.Equal(t, models.SyncStatusPending, merged.Status)
	assert.Equal(t, 0, merged.Attempts)
	assert.Empty(t, merged.LastError)
	assert.False(t, merged.NextAttemptAt.After(time.Now()))
}

func TestRetryTransitions(t *testing.T) {
	db := store.NewMemoryStore()
	svc := NewService(db, testLogger())
	st := testStore()

	item, err := svc.Enqueue(st, models.EntitySpace, "sp-1", models.SyncOpCreate)
	require.NoError(t, err)

	// Pending items cannot be retried
	_, err = svc.Retry(item.ID)
	assert.Error(t, err)

	item.Status = models.SyncStatusDead
	item.Attempts = 5
	item.LastError = "gone"
	require.NoError(t, db.UpdateSyncItem(item))

	retried, err := svc.Retry(item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusPending, retried.Status)
	assert.Equal(t, 0, retried.Attempts)
	assert.Empty(t, retried.LastError)
}

func TestReplayDead(t *testing.T) {
	db := store.NewMemoryStore()
	svc := NewService(db, testLogger())
	st := testStore()

	for _, id := range []string{"sp-1", "sp-2", "sp-3"} {
		item, err := svc.Enqueue(st, models.EntitySpace, id, models.SyncOpCreate)
		require.NoError(t, err)
		if id != "sp-3" {
			item.Status = models.SyncStatusDead
			require.NoError(t, db.UpdateSyncItem(item))
		}
	}

	replayed, err := svc.ReplayDead(st.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, replayed)

	counts, err := svc.Counts()
	require.NoError(t, err)
	assert.Equal(t, 3, counts[models.SyncStatusPending])
	assert.Zero(t, counts[models.SyncStatusDead])
}
