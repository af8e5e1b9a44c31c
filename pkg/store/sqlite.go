package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/AvivElectis/electisSpace-sub010/pkg/models"
)

// SQLiteStore is a SQLite-based implementation of the data store
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// WAL for concurrency, busy_timeout so the sync processor and the API
	// don't trip over each other, immediate txlock to reduce write conflicts.
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=10000&_synchronous=NORMAL&_txlock=immediate", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer to avoid SQLITE_BUSY
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS companies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		display_name TEXT NOT NULL,
		status TEXT NOT NULL,
		aims_enabled BOOLEAN NOT NULL DEFAULT 0,
		aims_company_code TEXT,
		aims_username TEXT,
		aims_password TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stores (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		name TEXT NOT NULL,
		address TEXT,
		timezone TEXT,
		aims_enabled BOOLEAN NOT NULL DEFAULT 0,
		aims_store_number TEXT,
		aims_station_code TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
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
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
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
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
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
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
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
		next_attempt_at DATETIME NOT NULL,
		last_error TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
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
func (s *SQLiteStore) CreateCompany(c *models.Company) error {
	_, err := s.db.Exec(`
		INSERT INTO companies
		(id, name, display_name, status, aims_enabled, aims_company_code, aims_username, aims_password, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, c.DisplayName, c.Status, c.AimsEnabled, c.AimsCompanyCode, c.AimsUsername, c.AimsPassword, c.CreatedAt, c.UpdatedAt)
	return err
}

func scanCompany(row interface{ Scan(...interface{}) error }) (*models.Company, error) {
	var c models.Company
	var code, user, pass sql.NullString
	err := row.Scan(&c.ID, &c.Name, &c.DisplayName, &c.Status, &c.AimsEnabled, &code, &user, &pass, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.AimsCompanyCode = code.String
	c.AimsUsername = user.String
	c.AimsPassword = pass.String
	return &c, nil
}

const companyColumns = `id, name, display_name, status, aims_enabled, aims_company_code, aims_username, aims_password, created_at, updated_at`

// GetCompany retrieves a company by ID
func (s *SQLiteStore) GetCompany(id string) (*models.Company, error) {
	row := s.db.QueryRow(`SELECT `+companyColumns+` FROM companies WHERE id = ?`, id)
	c, err := scanCompany(row)
	if err == sql.ErrNoRows {
		return nil, ErrCompanyNotFound
	}
	return c, err
}

// ListCompanies returns all companies sorted by name
func (s *SQLiteStore) ListCompanies() ([]*models.Company, error) {
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
func (s *SQLiteStore) UpdateCompany(c *models.Company) error {
	result, err := s.db.Exec(`
		UPDATE companies
		SET name = ?, display_name = ?, status = ?, aims_enabled = ?, aims_company_code = ?,
		    aims_username = ?, aims_password = ?, updated_at = ?
		WHERE id = ?
	`, c.Name, c.DisplayName, c.Status, c.AimsEnabled, c.AimsCompanyCode, c.AimsUsername, c.AimsPassword, c.UpdatedAt, c.ID)
	if err != nil {
		return err
	}
	return requireRows(result, ErrCompanyNotFound)
}

// DeleteCompany removes a company
func (s *SQLiteStore) DeleteCompany(id string) error {
	result, err := s.db.Exec(`DELETE FROM companies WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRows(result, ErrCompanyNotFound)
}

const storeColumns = `id, company_id, name, address, timezone, aims_enabled, aims_store_number, aims_station_code, created_at, updated_at`

func scanStore(row interface{ Scan(...interface{}) error }) (*models.Store, error) {
	var st models.Store
	var addr, tz, num, code sql.NullString
	err := row.Scan(&st.ID, &st.CompanyID, &st.Name, &addr, &tz, &st.AimsEnabled, &num, &code, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, err
	}
	st.Address = addr.String
	st.Timezone = tz.String
	st.AimsStoreNumber = num.String
	st.AimsStationCode = code.String
	return &st, nil
}

// CreateStore adds a store
func (s *SQLiteStore) CreateStore(st *models.Store) error {
	_, err := s.db.Exec(`
		INSERT INTO stores
		(id, company_id, name, address, timezone, aims_enabled, aims_store_number, aims_station_code, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, st.ID, st.CompanyID, st.Name, st.Address, st.Timezone, st.AimsEnabled, st.AimsStoreNumber, st.AimsStationCode, st.CreatedAt, st.UpdatedAt)
	return err
}

// GetStore retrieves a store by ID
func (s *SQLiteStore) GetStore(id string) (*models.Store, error) {
	row := s.db.QueryRow(`SELECT `+storeColumns+` FROM stores WHERE id = ?`, id)
	st, err := scanStore(row)
	if err == sql.ErrNoRows {
		return nil, ErrStoreNotFound
	}
	return st, err
}

// ListStores returns stores, optionally filtered by company
func (s *SQLiteStore) ListStores(companyID string) ([]*models.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores`
	args := []interface{}{}
	if companyID != "" {
		query += ` WHERE company_id = ?`
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
func (s *SQLiteStore) ListAimsStores() ([]*models.Store, error) {
	rows, err := s.db.Query(`SELECT ` + storeColumns + ` FROM stores WHERE aims_enabled = 1 ORDER BY id ASC`)
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
func (s *SQLiteStore) UpdateStore(st *models.Store) error {
	result, err := s.db.Exec(`
		UPDATE stores
		SET company_id = ?, name = ?, address = ?, timezone = ?, aims_enabled = ?,
		    aims_store_number = ?, aims_station_code = ?, updated_at = ?
		WHERE id = ?
	`, st.CompanyID, st.Name, st.Address, st.Timezone, st.AimsEnabled, st.AimsStoreNumber, st.AimsStationCode, st.UpdatedAt, st.ID)
	if err != nil {
		return err
	}
	return requireRows(result, ErrStoreNotFound)
}

// DeleteStore removes a store
func (s *SQLiteStore) DeleteStore(id string) error {
	result, err := s.db.Exec(`DELETE FROM stores WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRows(result, ErrStoreNotFound)
}

const spaceColumns = `id, store_id, name, type, status, floor, zone, label_code, nfc_url, created_at, updated_at`

func scanSpace(row interface{ Scan(...interface{}) error }) (*models.Space, error) {
	var sp models.Space
	var floor, zone, label, nfc sql.NullString
	err := row.Scan(&sp.ID, &sp.StoreID, &sp.Name, &sp.Type, &sp.Status, &floor, &zone, &label, &nfc, &sp.CreatedAt, &sp.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sp.Floor = floor.String
	sp.Zone = zone.String
	sp.LabelCode = label.String
	sp.NFCUrl = nfc.String
	return &sp, nil
}

// CreateSpace adds a space
func (s *SQLiteStore) CreateSpace(sp *models.Space) error {
	_, err := s.db.Exec(`
		INSERT INTO spaces
		(id, store_id, name, type, status, floor, zone, label_code, nfc_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sp.ID, sp.StoreID, sp.Name, sp.Type, sp.Status, sp.Floor, sp.Zone, sp.LabelCode, sp.NFCUrl, sp.CreatedAt, sp.UpdatedAt)
	return err
}

// GetSpace retrieves a space by ID
func (s *SQLiteStore) GetSpace(id string) (*models.Space, error) {
	row := s.db.QueryRow(`SELECT `+spaceColumns+` FROM spaces WHERE id = ?`, id)
	sp, err := scanSpace(row)
	if err == sql.ErrNoRows {
		return nil, ErrSpaceNotFound
	}
	return sp, err
}

// ListSpaces returns spaces, optionally filtered by store
func (s *SQLiteStore) ListSpaces(storeID string) ([]*models.Space, error) {
	query := `SELECT ` + spaceColumns + ` FROM spaces`
	args := []interface{}{}
	if storeID != "" {
		query += ` WHERE store_id = ?`
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
func (s *SQLiteStore) UpdateSpace(sp *models.Space) error {
	result, err := s.db.Exec(`
		UPDATE spaces
		SET name = ?, type = ?, status = ?, floor = ?, zone = ?, label_code = ?, nfc_url = ?, updated_at = ?
		WHERE id = ?
	`, sp.Name, sp.Type, sp.Status, sp.Floor, sp.Zone, sp.LabelCode, sp.NFCUrl, sp.UpdatedAt, sp.ID)
	if err != nil {
		return err
	}
	return requireRows(result, ErrSpaceNotFound)
}

// DeleteSpace removes a space
func (s *SQLiteStore) DeleteSpace(id string) error {
	result, err := s.db.Exec(`DELETE FROM spaces WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRows(result, ErrSpaceNotFound)
}

const personColumns = `id, store_id, name, title, email, phone, space_id, label_code, created_at, updated_at`

func scanPerson(row interface{ Scan(...interface{}) error }) (*models.Person, error) {
	var p models.Person
	var title, email, phone, spaceID, label sql.NullString
	err := row.Scan(&p.ID, &p.StoreID, &p.Name, &title, &email, &phone, &spaceID, &label, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Title = title.String
	p.Email = email.String
	p.Phone = phone.String
	p.SpaceID = spaceID.String
	p.LabelCode = label.String
	return &p, nil
}

// CreatePerson adds a person
func (s *SQLiteStore) CreatePerson(p *models.Person) error {
	_, err := s.db.Exec(`
		INSERT INTO people
		(id, store_id, name, title, email, phone, space_id, label_code, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.StoreID, p.Name, p.Title, p.Email, p.Phone, p.SpaceID, p.LabelCode, p.CreatedAt, p.UpdatedAt)
	return err
}

// GetPerson retrieves a person by ID
func (s *SQLiteStore) GetPerson(id string) (*models.Person, error) {
	row := s.db.QueryRow(`SELECT `+personColumns+` FROM people WHERE id = ?`, id)
	p, err := scanPerson(row)
	if err == sql.ErrNoRows {
		return nil, ErrPersonNotFound
	}
	return p, err
}

// ListPeople returns people, optionally filtered by store
func (s *SQLiteStore) ListPeople(storeID string) ([]*models.Person, error) {
	query := `SELECT ` + personColumns + ` FROM people`
	args := []interface{}{}
	if storeID != "" {
		query += ` WHERE store_id = ?`
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
func (s *SQLiteStore) UpdatePerson(p *models.Person) error {
	result, err := s.db.Exec(`
		UPDATE people
		SET name = ?, title = ?, email = ?, phone = ?, space_id = ?, label_code = ?, updated_at = ?
		WHERE id = ?
	`, p.Name, p.Title, p.Email, p.Phone, p.SpaceID, p.LabelCode, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	return requireRows(result, ErrPersonNotFound)
}

// DeletePerson removes a person
func (s *SQLiteStore) DeletePerson(id string) error {
	result, err := s.db.Exec(`DELETE FROM people WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRows(result, ErrPersonNotFound)
}

const roomColumns = `id, store_id, name, capacity, status, current_meeting, next_meeting, label_code, created_at, updated_at`

func scanRoom(row interface{ Scan(...interface{}) error }) (*models.ConferenceRoom, error) {
	var r models.ConferenceRoom
	var current, next, label sql.NullString
	err := row.Scan(&r.ID, &r.StoreID, &r.Name, &r.Capacity, &r.Status, &current, &next, &label, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.CurrentMeeting = current.String
	r.NextMeeting = next.String
	r.LabelCode = label.String
	return &r, nil
}

// CreateRoom adds a conference room
func (s *SQLiteStore) CreateRoom(r *models.ConferenceRoom) error {
	_, err := s.db.Exec(`
		INSERT INTO rooms
		(id, store_id, name, capacity, status, current_meeting, next_meeting, label_code, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.StoreID, r.Name, r.Capacity, r.Status, r.CurrentMeeting, r.NextMeeting, r.LabelCode, r.CreatedAt, r.UpdatedAt)
	return err
}

// GetRoom retrieves a conference room by ID
func (s *SQLiteStore) GetRoom(id string) (*models.ConferenceRoom, error) {
	row := s.db.QueryRow(`SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
	r, err := scanRoom(row)
	if err == sql.ErrNoRows {
		return nil, ErrRoomNotFound
	}
	return r, err
}

// ListRooms returns conference rooms, optionally filtered by store
func (s *SQLiteStore) ListRooms(storeID string) ([]*models.ConferenceRoom, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms`
	args := []interface{}{}
	if storeID != "" {
		query += ` WHERE store_id = ?`
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
func (s *SQLiteStore) UpdateRoom(r *models.ConferenceRoom) error {
	result, err := s.db.Exec(`
		UPDATE rooms
		SET name = ?, capacity = ?, status = ?, current_meeting = ?, next_meeting = ?, label_code = ?, updated_at = ?
		WHERE id = ?
	`, r.Name, r.Capacity, r.Status, r.CurrentMeeting, r.NextMeeting, r.LabelCode, r.UpdatedAt, r.ID)
	if err != nil {
		return err
	}
	return requireRows(result, ErrRoomNotFound)
}

// DeleteRoom removes a conference room
func (s *SQLiteStore) DeleteRoom(id string) error {
	result, err := s.db.Exec(`DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRows(result, ErrRoomNotFound)
}

const syncColumns = `id, company_id, store_id, entity_type, entity_id, op, status, attempts, next_attempt_at, last_error, created_at, updated_at`

func scanSyncItem(row interface{ Scan(...interface{}) error }) (*models.SyncItem, error) {
	var i models.SyncItem
	var lastErr sql.NullString
	err := row.Scan(&i.ID, &i.CompanyID, &i.StoreID, &i.EntityType, &i.EntityID, &i.Op,
		&i.Status, &i.Attempts, &i.NextAttemptAt, &lastErr, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	i.LastError = lastErr.String
	return &i, nil
}

// UpsertSyncItem inserts or replaces a sync item
func (s *SQLiteStore) UpsertSyncItem(i *models.SyncItem) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO sync_queue
		(id, company_id, store_id, entity_type, entity_id, op, status, attempts, next_attempt_at, last_error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, i.ID, i.CompanyID, i.StoreID, i.EntityType, i.EntityID, i.Op, i.Status, i.Attempts, i.NextAttemptAt, i.LastError, i.CreatedAt, i.UpdatedAt)
	return err
}

// GetSyncItem retrieves a sync item by ID
func (s *SQLiteStore) GetSyncItem(id string) (*models.SyncItem, error) {
	row := s.db.QueryRow(`SELECT `+syncColumns+` FROM sync_queue WHERE id = ?`, id)
	i, err := scanSyncItem(row)
	if err == sql.ErrNoRows {
		return nil, ErrSyncItemNotFound
	}
	return i, err
}

// GetOpenSyncItem finds the open (pending or failed) item for an entity
func (s *SQLiteStore) GetOpenSyncItem(storeID string, entityType models.EntityType, entityID string) (*models.SyncItem, error) {
	row := s.db.QueryRow(`
		SELECT `+syncColumns+` FROM sync_queue
		WHERE store_id = ? AND entity_type = ? AND entity_id = ? AND status IN (?, ?)
	`, storeID, entityType, entityID, models.SyncStatusPending, models.SyncStatusFailed)
	i, err := scanSyncItem(row)
	if err == sql.ErrNoRows {
		return nil, ErrSyncItemNotFound
	}
	return i, err
}

// ListSyncItems returns sync items, optionally filtered by store and status
func (s *SQLiteStore) ListSyncItems(storeID string, status models.SyncStatus) ([]*models.SyncItem, error) {
	query := `SELECT ` + syncColumns + ` FROM sync_queue WHERE 1=1`
	args := []interface{}{}
	if storeID != "" {
		query += ` AND store_id = ?`
		args = append(args, storeID)
	}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
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
// Claim order is oldest next_attempt_at first.
func (s *SQLiteStore) ClaimDueSyncItems(now time.Time, limit int) ([]*models.SyncItem, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.Query(`
		SELECT `+syncColumns+` FROM sync_queue
		WHERE status IN (?, ?) AND next_attempt_at <= ?
		ORDER BY next_attempt_at ASC
		LIMIT ?
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
			UPDATE sync_queue SET status = ?, updated_at = ? WHERE id = ?
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
func (s *SQLiteStore) UpdateSyncItem(i *models.SyncItem) error {
	result, err := s.db.Exec(`
		UPDATE sync_queue
		SET op = ?, status = ?, attempts = ?, next_attempt_at = ?, last_error = ?, updated_at = ?
		WHERE id = ?
	`, i.Op, i.Status, i.Attempts, i.NextAttemptAt, i.LastError, i.UpdatedAt, i.ID)
	if err != nil {
		return err
	}
	return requireRows(result, ErrSyncItemNotFound)
}

// DeleteSyncItem removes a sync item
func (s *SQLiteStore) DeleteSyncItem(id string) error {
	result, err := s.db.Exec(`DELETE FROM sync_queue WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRows(result, ErrSyncItemNotFound)
}

// PruneSucceededSyncItems removes succeeded items older than the cutoff
func (s *SQLiteStore) PruneSucceededSyncItems(olderThan time.Time) (int, error) {
	result, err := s.db.Exec(`
		DELETE FROM sync_queue WHERE status = ? AND updated_at < ?
	`, models.SyncStatusSucceeded, olderThan)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

// CountSyncItemsByStatus returns queue depth per status
func (s *SQLiteStore) CountSyncItemsByStatus() (map[models.SyncStatus]int, error) {
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
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// HealthCheck pings the database
func (s *SQLiteStore) HealthCheck() error {
	return s.db.Ping()
}

func requireRows(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
