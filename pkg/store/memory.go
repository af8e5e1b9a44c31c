package store

import (
	"sort"
	"sync"
	"time"

	"github.com/AvivElectis/electisSpace-sub010/pkg/models"
)

// MemoryStore is an in-memory implementation of the data store.
// Used for tests and for running without persistence.
type MemoryStore struct {
	mu        sync.RWMutex
	companies map[string]*models.Company
	stores    map[string]*models.Store
	spaces    map[string]*models.Space
	people    map[string]*models.Person
	rooms     map[string]*models.ConferenceRoom
	syncItems map[string]*models.SyncItem
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		companies: make(map[string]*models.Company),
		stores:    make(map[string]*models.Store),
		spaces:    make(map[string]*models.Space),
		people:    make(map[string]*models.Person),
		rooms:     make(map[string]*models.ConferenceRoom),
		syncItems: make(map[string]*models.SyncItem),
	}
}

// CreateCompany adds a company
func (m *MemoryStore) CreateCompany(company *models.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *company
	m.companies[c.ID] = &c
	return nil
}

// GetCompany retrieves a company by ID
func (m *MemoryStore) GetCompany(id string) (*models.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.companies[id]
	if !ok {
		return nil, ErrCompanyNotFound
	}
	cp := *c
	return &cp, nil
}

// ListCompanies returns all companies sorted by name
func (m *MemoryStore) ListCompanies() ([]*models.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Company, 0, len(m.companies))
	for _, c := range m.companies {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// UpdateCompany replaces a company
func (m *MemoryStore) UpdateCompany(company *models.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.companies[company.ID]; !ok {
		return ErrCompanyNotFound
	}
	c := *company
	m.companies[c.ID] = &c
	return nil
}

// DeleteCompany removes a company
func (m *MemoryStore) DeleteCompany(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.companies[id]; !ok {
		return ErrCompanyNotFound
	}
	delete(m.companies, id)
	return nil
}

// CreateStore adds a store
func (m *MemoryStore) CreateStore(st *models.Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := *st
	m.stores[s.ID] = &s
	return nil
}

// GetStore retrieves a store by ID
func (m *MemoryStore) GetStore(id string) (*models.Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stores[id]
	if !ok {
		return nil, ErrStoreNotFound
	}
	cp := *s
	return &cp, nil
}

// ListStores returns stores, optionally filtered by company
func (m *MemoryStore) ListStores(companyID string) ([]*models.Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Store, 0)
	for _, s := range m.stores {
		if companyID != "" && s.CompanyID != companyID {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListAimsStores returns all AIMS-bound stores
func (m *MemoryStore) ListAimsStores() ([]*models.Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Store, 0)
	for _, s := range m.stores {
		if !s.AimsEnabled {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateStore replaces a store
func (m *MemoryStore) UpdateStore(st *models.Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stores[st.ID]; !ok {
		return ErrStoreNotFound
	}
	s := *st
	m.stores[s.ID] = &s
	return nil
}

// DeleteStore removes a store
func (m *MemoryStore) DeleteStore(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stores[id]; !ok {
		return ErrStoreNotFound
	}
	delete(m.stores, id)
	return nil
}

// CreateSpace adds a space
func (m *MemoryStore) CreateSpace(space *models.Space) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := *space
	m.spaces[s.ID] = &s
	return nil
}

// GetSpace retrieves a space by ID
func (m *MemoryStore) GetSpace(id string) (*models.Space, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.spaces[id]
	if !ok {
		return nil, ErrSpaceNotFound
	}
	cp := *s
	return &cp, nil
}

// ListSpaces returns spaces, optionally filtered by store
func (m *MemoryStore) ListSpaces(storeID string) ([]*models.Space, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Space, 0)
	for _, s := range m.spaces {
		if storeID != "" && s.StoreID != storeID {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// UpdateSpace replaces a space
func (m *MemoryStore) UpdateSpace(space *models.Space) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.spaces[space.ID]; !ok {
		return ErrSpaceNotFound
	}
	s := *space
	m.spaces[s.ID] = &s
	return nil
}

// DeleteSpace removes a space
func (m *MemoryStore) DeleteSpace(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.spaces[id]; !ok {
		return ErrSpaceNotFound
	}
	delete(m.spaces, id)
	return nil
}

// CreatePerson adds a person
func (m *MemoryStore) CreatePerson(person *models.Person) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := *person
	m.people[p.ID] = &p
	return nil
}

// GetPerson retrieves a person by ID
func (m *MemoryStore) GetPerson(id string) (*models.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.people[id]
	if !ok {
		return nil, ErrPersonNotFound
	}
	cp := *p
	return &cp, nil
}

// ListPeople returns people, optionally filtered by store
func (m *MemoryStore) ListPeople(storeID string) ([]*models.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Person, 0)
	for _, p := range m.people {
		if storeID != "" && p.StoreID != storeID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// UpdatePerson replaces a person
func (m *MemoryStore) UpdatePerson(person *models.Person) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.people[person.ID]; !ok {
		return ErrPersonNotFound
	}
	p := *person
	m.people[p.ID] = &p
	return nil
}

// DeletePerson removes a person
func (m *MemoryStore) DeletePerson(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.people[id]; !ok {
		return ErrPersonNotFound
	}
	delete(m.people, id)
	return nil
}

// CreateRoom adds a conference room
func (m *MemoryStore) CreateRoom(room *models.ConferenceRoom) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := *room
	m.rooms[r.ID] = &r
	return nil
}

// GetRoom retrieves a conference room by ID
func (m *MemoryStore) GetRoom(id string) (*models.ConferenceRoom, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	cp := *r
	return &cp, nil
}

// ListRooms returns conference rooms, optionally filtered by store
func (m *MemoryStore) ListRooms(storeID string) ([]*models.ConferenceRoom, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.ConferenceRoom, 0)
	for _, r := range m.rooms {
		if storeID != "" && r.StoreID != storeID {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// UpdateRoom replaces a conference room
func (m *MemoryStore) UpdateRoom(room *models.ConferenceRoom) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[room.ID]; !ok {
		return ErrRoomNotFound
	}
	r := *room
	m.rooms[r.ID] = &r
	return nil
}

// DeleteRoom removes a conference room
func (m *MemoryStore) DeleteRoom(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[id]; !ok {
		return ErrRoomNotFound
	}
	delete(m.rooms, id)
	return nil
}

// UpsertSyncItem inserts or replaces a sync item
func (m *MemoryStore) UpsertSyncItem(item *models.SyncItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := *item
	m.syncItems[i.ID] = &i
	return nil
}

// GetSyncItem retrieves a sync item by ID
func (m *MemoryStore) GetSyncItem(id string) (*models.SyncItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.syncItems[id]
	if !ok {
		return nil, ErrSyncItemNotFound
	}
	cp := *i
	return &cp, nil
}

// GetOpenSyncItem finds the open (pending or failed) item for an entity
func (m *MemoryStore) GetOpenSyncItem(storeID string, entityType models.EntityType, entityID string) (*models.SyncItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, i := range m.syncItems {
		if i.StoreID != storeID || i.EntityType != entityType || i.EntityID != entityID {
			continue
		}
		if i.Status == models.SyncStatusPending || i.Status == models.SyncStatusFailed {
			cp := *i
			return &cp, nil
		}
	}
	return nil, ErrSyncItemNotFound
}

// ListSyncItems returns sync items, optionally filtered by store and status
func (m *MemoryStore) ListSyncItems(storeID string, status models.SyncStatus) ([]*models.SyncItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.SyncItem, 0)
	for _, i := range m.syncItems {
		if storeID != "" && i.StoreID != storeID {
			continue
		}
		if status != "" && i.Status != status {
			continue
		}
		cp := *i
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ClaimDueSyncItems atomically claims due items and marks them in flight
func (m *MemoryStore) ClaimDueSyncItems(now time.Time, limit int) ([]*models.SyncItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	due := make([]*models.SyncItem, 0)
	for _, i := range m.syncItems {
		if i.Status != models.SyncStatusPending && i.Status != models.SyncStatusFailed {
			continue
		}
		if i.NextAttemptAt.After(now) {
			continue
		}
		due = append(due, i)
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextAttemptAt.Before(due[j].NextAttemptAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	claimed := make([]*models.SyncItem, 0, len(due))
	for _, i := range due {
		i.Status = models.SyncStatusInFlight
		i.UpdatedAt = now
		cp := *i
		claimed = append(claimed, &cp)
	}
	return claimed, nil
}

// UpdateSyncItem replaces a sync item
func (m *MemoryStore) UpdateSyncItem(item *models.SyncItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.syncItems[item.ID]; !ok {
		return ErrSyncItemNotFound
	}
	i := *item
	m.syncItems[i.ID] = &i
	return nil
}

// DeleteSyncItem removes a sync item
func (m *MemoryStore) DeleteSyncItem(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.syncItems[id]; !ok {
		return ErrSyncItemNotFound
	}
	delete(m.syncItems, id)
	return nil
}

// PruneSucceededSyncItems removes succeeded items older than the cutoff
func (m *MemoryStore) PruneSucceededSyncItems(olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pruned := 0
	for id, i := range m.syncItems {
		if i.Status == models.SyncStatusSucceeded && i.UpdatedAt.Before(olderThan) {
			delete(m.syncItems, id)
			pruned++
		}
	}
	return pruned, nil
}

// CountSyncItemsByStatus returns queue depth per status
func (m *MemoryStore) CountSyncItemsByStatus() (map[models.SyncStatus]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[models.SyncStatus]int)
	for _, i := range m.syncItems {
		counts[i.Status]++
	}
	return counts, nil
}

// Close is a no-op for the memory store
func (m *MemoryStore) Close() error { return nil }

// HealthCheck is a no-op for the memory store
func (m *MemoryStore) HealthCheck() error { return nil }
