package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/AvivElectis/electisSpace-sub010/pkg/models"
)

// PostgresStore is a PostgreSQL-based implementation of the data store
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(config Config) (*PostgresStore, error) {
	db, err := sql.Open("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen := config.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle := config.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	lifetime := config.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = 30 * time.Minute
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS companies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		display_name TEXT NOT NULL,
		status TEXT NOT NULL,
		aims_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		aims_company_code TEXT,
		aims_username TEXT,
		aims_password TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stores (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		name TEXT NOT NULL,
		address TEXT,
		timezone TEXT,
		aims_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		aims_store_number TEXT,
		aims_station_code TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS spaces (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		floor TEXT,
		zone TEXT,
		label_code TEXT,
		nfc_url TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS people (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL,
		name TEXT NOT NULL,
		title TEXT,
		email TEXT,
		phone TEXT,
		space_id TEXT,
		label_code TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL,
		name TEXT NOT NULL,
		capacity INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		current_meeting TEXT,
		next_meeting TEXT,
		label_code TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sync_queue (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		store_id TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		op TEXT NOT NULL,
		status TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		next_attempt_at TIMESTAMPTZ NOT NULL,
		last_error TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_stores_company ON stores(company_id);
	CREATE INDEX IF NOT EXISTS idx_spaces_store ON spaces(store_id);
	CREATE INDEX IF NOT EXISTS idx_people_store ON people(store_id);
	CREATE INDEX IF NOT EXISTS idx_rooms_store ON rooms(store_id);
	CREATE INDEX IF NOT EXISTS idx_sync_queue_due ON sync_queue(status, next_attempt_at);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_sync_queue_entity_open
		ON sync_queue(store_id, entity_type, entity_id)
		WHERE status IN ('pending', 'failed');
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateCompany adds a company
func (s *PostgresStore) CreateCompany(c *models.Company) error {
	_, err := s.db.Exec(`
		INSERT INTO companies
		(id, name, display_name, status, aims_enabled, aims_company_code, aims_username, aims_password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, c.ID, c.Name, c.DisplayName, c.Status, c.AimsEnabled, c.AimsCompanyCode, c.AimsUsername, c.AimsPassword, c.CreatedAt, c.UpdatedAt)
	return err
}

// GetCompany retrieves a company by ID
func (s *PostgresStore) GetCompany(id string) (*models.Company, error) {
	row := s.db.QueryRow(`SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
	c, err := scanCompany(row)
	if err == sql.ErrNoRows {
		return nil, ErrCompanyNotFound
	}
	return c, err
}

// ListCompanies returns all companies sorted by name
func (s *PostgresStore) ListCompanies() ([]*models.Company, error) {
	rows, err := s.db.Query(`SELECT ` + companyColumns + ` FROM companies ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateCompany replaces a company
func (s *PostgresStore) UpdateCompany(c *models.Company) error {
	result, err := s.db.Exec(`
		UPDATE companies
		SET name = $1, display_name = $2, status = $3, aims_enabled = $4, aims_company_code = $5,
		    aims_username = $6, aims_password = $7, updated_at = $8
		WHERE id = $9
	`, c.Name, c.DisplayName, c.Status, c.AimsEnabled, c.AimsCompanyCode, c.AimsUsername, c.AimsPassword, c.UpdatedAt, c.ID)
	if err != nil {
		return err
	}
	return requireRows(result, ErrCompanyNotFound)
}

// DeleteCompany removes a company
func (s *PostgresStore) DeleteCompany(id string) error {
	result, err := s.db.Exec(`DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRows(result, ErrCompanyNotFound)
}

// CreateStore adds a store
func (s *PostgresStore) CreateStore(st *models.Store) error {
	_, err := s.db.Exec(`
		INSERT INTO stores
		(id, company_id, name, address, timezone, aims_enabled, aims_store_number, aims_station_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, st.ID, st.CompanyID, st.Name, st.Address, st.Timezone, st.AimsEnabled, st.AimsStoreNumber, st.AimsStationCode, st.CreatedAt, st.UpdatedAt)
	return err
}

// GetStore retrieves a store by ID
func (s *PostgresStore) GetStore(id string) (*models.Store, error) {
	row := s.db.QueryRow(`SELECT `+storeColumns+` FROM stores WHERE id = $1`, id)
	st, err := scanStore(row)
	if err == sql.ErrNoRows {
		return nil, ErrStoreNotFound
	}
	return st, err
}

// ListStores returns stores, optionally filtered by company
func (s *PostgresStore) ListStores(companyID string) ([]*models.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores`
	args := []interface{}{}
	if companyID != "" {
		query += ` WHERE company_id = $1`
		args = append(args, companyID)
	}
	query += ` ORDER BY name ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Store
	for rows.Next() {
		st, err := scanStore(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// ListAimsStores returns all AIMS-bound stores
func (s *PostgresStore) ListAimsStores() ([]*models.Store, error) {
	rows, err := s.db.Query(`SELECT ` + storeColumns + ` FROM stores WHERE aims_enabled ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Store
	for rows.Next() {
		st, err := scanStore(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// UpdateStore replaces a store
func (s *PostgresStore) UpdateStore(st *models.Store) error {
	result, err := s.db.Exec(`
		UPDATE stores
		SET company_id = $1, name = $2, address = $3, timezone = $4, aims_enabled = $5,
		    aims_store_number = $6, aims_station_code = $7, updated_at = $8
		WHERE id = $9
	`, st.CompanyID, st.Name, st.Address, st.Timezone, st.AimsEnabled, st.AimsStoreNumber, st.AimsStationCode, st.UpdatedAt, st.ID)
	if err != nil {
		return err
	}
	return requireRows(result, ErrStoreNotFound)
}

// DeleteStore removes a store
func (s *PostgresStore) DeleteStore(id string) error {
	result, err := s.db.Exec(`DELETE FROM stores WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRows(result, ErrStoreNotFound)
}

// CreateSpace adds a space
func (s *PostgresStore) CreateSpace(sp *models.Space) error {
	_, err := s.db.Exec(`
		INSERT INTO spaces
		(id, store_id, name, type, status, floor, zone, label_code, nfc_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, sp.ID, sp.StoreID, sp.Name, sp.Type, sp.Status, sp.Floor, sp.Zone, sp.LabelCode, sp.NFCUrl, sp.CreatedAt, sp.UpdatedAt)
	return err
}

// GetSpace retrieves a space by ID
func (s *PostgresStore) GetSpace(id string) (*models.Space, error) {
	row := s.db.QueryRow(`SELECT `+spaceColumns+` FROM spaces WHERE id = $1`, id)
	sp, err := scanSpace(row)
	if err == sql.ErrNoRows {
		return nil, ErrSpaceNotFound
	}
	return sp, err
}

// ListSpaces returns spaces, optionally filtered by store
func (s *PostgresStore) ListSpaces(storeID string) ([]*models.Space, error) {
	query := `SELECT ` + spaceColumns + ` FROM spaces`
	args := []interface{}{}
	if storeID != "" {
		query += ` WHERE store_id = $1`
		args = append(args, storeID)
	}
	query += ` ORDER BY name ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Space
	for rows.Next() {
		sp, err := scanSpace(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

// UpdateSpace replaces a space
func (s *PostgresStore) UpdateSpace(sp *models.Space) error {
	result, err := s.db.Exec(`
		UPDATE spaces
		SET name = $1, type = $2, status = $3, floor = $4, zone = $5, label_code = $6, nfc_url = $7, updated_at = $8
		WHERE id = $9
	`, sp.Name, sp.Type, sp.Status, sp.Floor, sp.Zone, sp.LabelCode, sp.NFCUrl, sp.UpdatedAt, sp.ID)
	if err != nil {
		return err
	}
	return requireRows(result, ErrSpaceNotFound)
}

// DeleteSpace removes a space
func (s *PostgresStore) DeleteSpace(id string) error {
	result, err := s.db.Exec(`DELETE FROM spaces WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRows(result, ErrSpaceNotFound)
}

// CreatePerson adds a person
func (s *PostgresStore) CreatePerson(p *models.Person) error {
	_, err := s.db.Exec(`
		INSERT INTO people
		(id, store_id, name, title, email, phone, space_id, label_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, p.ID, p.StoreID, p.Name, p.Title, p.Email, p.Phone, p.SpaceID, p.LabelCode, p.CreatedAt, p.UpdatedAt)
	return err
}

// GetPerson retrieves a person by ID
func (s *PostgresStore) GetPerson(id string) (*models.Person, error) {
	row := s.db.QueryRow(`SELECT `+personColumns+` FROM people WHERE id = $1`, id)
	p, err := scanPerson(row)
	if err == sql.ErrNoRows {
		return nil, ErrPersonNotFound
	}
	return p, err
}

// ListPeople returns people, optionally filtered by store
func (s *PostgresStore) ListPeople(storeID string) ([]*models.Person, error) {
	query := `SELECT ` + personColumns + ` FROM people`
	args := []interface{}{}
	if storeID != "" {
		query += ` WHERE store_id = $1`
		args = append(args, storeID)
	}
	query += ` ORDER BY name ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdatePerson replaces a person
func (s *PostgresStore) UpdatePerson(p *models.Person) error {
	result, err := s.db.Exec(`
		UPDATE people
		SET name = $1, title = $2, email = $3, phone = $4, space_id = $5, label_code = $6, updated_at = $7
		WHERE id = $8
	`, p.Name, p.Title, p.Email, p.Phone, p.SpaceID, p.LabelCode, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	return requireRows(result, ErrPersonNotFound)
}

// DeletePerson removes a person
func (s *PostgresStore) DeletePerson(id string) error {
	result, err := s.db.Exec(`DELETE FROM people WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRows(result, ErrPersonNotFound)
}

// CreateRoom adds a conference room
func (s *PostgresStore) CreateRoom(r *models.ConferenceRoom) error {
	_, err := s.db.Exec(`
		INSERT INTO rooms
		(id, store_id, name, capacity, status, current_meeting, next_meeting, label_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, r.ID, r.StoreID, r.Name, r.Capacity, r.Status, r.CurrentMeeting, r.NextMeeting, r.LabelCode, r.CreatedAt, r.UpdatedAt)
	return err
}

// GetRoom retrieves a conference room by ID
func (s *PostgresStore) GetRoom(id string) (*models.ConferenceRoom, error) {
	row := s.db.QueryRow(`SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id)
	r, err := scanRoom(row)
	if err == sql.ErrNoRows {
		return nil, ErrRoomNotFound
	}
	return r, err
}

// ListRooms returns conference rooms, optionally filtered by store
func (s *PostgresStore) ListRooms(storeID string) ([]*models.ConferenceRoom, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms`
	args := []interface{}{}
	if storeID != "" {
		query += ` WHERE store_id = $1`
		args = append(args, storeID)
	}
	query += ` ORDER BY name ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.ConferenceRoom
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateRoom replaces a conference room
func (s *PostgresStore) UpdateRoom(r *models.ConferenceRoom) error {
	result, err := s.db.Exec(`
		UPDATE rooms
		SET name = $1, capacity = $2, status = $3, current_meeting = $4, next_meeting = $5, label_code = $6, updated_at = $7
		WHERE id = $8
	`, r.Name, r.Capacity, r.Status, r.CurrentMeeting, r.NextMeeting, r.LabelCode, r.UpdatedAt, r.ID)
	if err != nil {
		return err
	}
	return requireRows(result, ErrRoomNotFound)
}

// DeleteRoom removes a conference room
func (s *PostgresStore) DeleteRoom(id string) error {
	result, err := s.db.Exec(`DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRows(result, ErrRoomNotFound)
}

// UpsertSyncItem inserts or replaces a sync item
func (s *PostgresStore) UpsertSyncItem(i *models.SyncItem) error {
	_, err := s.db.Exec(`
		INSERT INTO sync_queue
		(id, company_id, store_id, entity_type, entity_id, op, status, attempts, next_attempt_at, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			op = EXCLUDED.op,
			status = EXCLUDED.status,
			attempts = EXCLUDED.attempts,
			next_attempt_at = EXCLUDED.next_attempt_at,
			last_error = EXCLUDED.last_error,
			updated_at = EXCLUDED.updated_at
	`, i.ID, i.CompanyID, i.StoreID, i.EntityType, i.EntityID, i.Op, i.Status, i.Attempts, i.NextAttemptAt, i.LastError, i.CreatedAt, i.UpdatedAt)
	return err
}

// GetSyncItem retrieves a sync item by ID
func (s *PostgresStore) GetSyncItem(id string) (*models.SyncItem, error) {
	row := s.db.QueryRow(`SELECT `+syncColumns+` FROM sync_queue WHERE id = $1`, id)
	i, err := scanSyncItem(row)
	if err == sql.ErrNoRows {
		return nil, ErrSyncItemNotFound
	}
	return i, err
}

// GetOpenSyncItem finds the open (pending or failed) item for an entity
func (s *PostgresStore) GetOpenSyncItem(storeID string, entityType models.EntityType, entityID string) (*models.SyncItem, error) {
	row := s.db.QueryRow(`
		SELECT `+syncColumns+` FROM sync_queue
		WHERE store_id = $1 AND entity_type = $2 AND entity_id = $3 AND status IN ($4, $5)
	`, storeID, entityType, entityID, models.SyncStatusPending, models.SyncStatusFailed)
	i, err := scanSyncItem(row)
	if err == sql.ErrNoRows {
		return nil, ErrSyncItemNotFound
	}
	return i, err
}

// ListSyncItems returns sync items, optionally filtered by store and status
func (s *PostgresStore) ListSyncItems(storeID string, status models.SyncStatus) ([]*models.SyncItem, error) {
	query := `SELECT ` + syncColumns + ` FROM sync_queue WHERE 1=1`
	args := []interface{}{}
	if storeID != "" {
		args = append(args, storeID)
		query += fmt.Sprintf(` AND store_id = $%d`, len(args))
	}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.SyncItem
	for rows.Next() {
		i, err := scanSyncItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// ClaimDueSyncItems atomically claims due items and marks them in flight.
// FOR UPDATE SKIP LOCKED lets multiple processors share one queue.
func (s *PostgresStore) ClaimDueSyncItems(now time.Time, limit int) ([]*models.SyncItem, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.Query(`
		SELECT `+syncColumns+` FROM sync_queue
		WHERE status IN ($1, $2) AND next_attempt_at <= $3
		ORDER BY next_attempt_at ASC
		LIMIT $4
		FOR UPDATE SKIP LOCKED
	`, models.SyncStatusPending, models.SyncStatusFailed, now, limit)
	if err != nil {
		return nil, err
	}

	var claimed []*models.SyncItem
	for rows.Next() {
		i, err := scanSyncItem(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		claimed = append(claimed, i)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, i := range claimed {
		i.Status = models.SyncStatusInFlight
		i.UpdatedAt = now
		if _, err := tx.Exec(`
			UPDATE sync_queue SET status = $1, updated_at = $2 WHERE id = $3
		`, i.Status, i.UpdatedAt, i.ID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return claimed, nil
}

// UpdateSyncItem replaces a sync item
func (s *PostgresStore) UpdateSyncItem(i *models.SyncItem) error {
	result, err := s.db.Exec(`
		UPDATE sync_queue
		SET op = $1, status = $2, attempts = $3, next_attempt_at = $4, last_error = $5, updated_at = $6
		WHERE id = $7
	`, i.Op, i.Status, i.Attempts, i.NextAttemptAt, i.LastError, i.UpdatedAt, i.ID)
	if err != nil {
		return err
	}
	return requireRows(result, ErrSyncItemNotFound)
}

// DeleteSyncItem removes a sync item
func (s *PostgresStore) DeleteSyncItem(id string) error {
	result, err := s.db.Exec(`DELETE FROM sync_queue WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRows(result, ErrSyncItemNotFound)
}

// PruneSucceededSyncItems removes succeeded items older than the cutoff
func (s *PostgresStore) PruneSucceededSyncItems(olderThan time.Time) (int, error) {
	result, err := s.db.Exec(`
		DELETE FROM sync_queue WHERE status = $1 AND updated_at < $2
	`, models.SyncStatusSucceeded, olderThan)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

// CountSyncItemsByStatus returns queue depth per status
func (s *PostgresStore) CountSyncItemsByStatus() (map[models.SyncStatus]int, error) {
	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM sync_queue GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.SyncStatus]int)
	for rows.Next() {
		var status models.SyncStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// HealthCheck pings the database
func (s *PostgresStore) HealthCheck() error {
	return s.db.Ping()
}
