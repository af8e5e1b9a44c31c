package store

import (
	"errors"
	"time"

	"github.com/AvivElectis/electisSpace-sub010/pkg/models"
)

// Sentinel errors shared by all store implementations
var (
	ErrCompanyNotFound  = errors.New("company not found")
	ErrStoreNotFound    = errors.New("store not found")
	ErrSpaceNotFound    = errors.New("space not found")
	ErrPersonNotFound   = errors.New("person not found")
	ErrRoomNotFound     = errors.New("room not found")
	ErrSyncItemNotFound = errors.New("sync item not found")

	ErrUnsupportedDatabase = errors.New("unsupported database type")
)

// Store defines the interface for data persistence.
// Memory, SQLite and PostgreSQL all implement this interface.
type Store interface {
	// Company operations (multi-tenancy)
	CreateCompany(company *models.Company) error
	GetCompany(id string) (*models.Company, error)
	ListCompanies() ([]*models.Company, error)
	UpdateCompany(company *models.Company) error
	DeleteCompany(id string) error

	// Store operations
	CreateStore(st *models.Store) error
	GetStore(id string) (*models.Store, error)
	ListStores(companyID string) ([]*models.Store, error)
	ListAimsStores() ([]*models.Store, error)
	UpdateStore(st *models.Store) error
	DeleteStore(id string) error

	// Space operations
	CreateSpace(space *models.Space) error
	GetSpace(id string) (*models.Space, error)
	ListSpaces(storeID string) ([]*models.Space, error)
	UpdateSpace(space *models.Space) error
	DeleteSpace(id string) error

	// Person operations
	CreatePerson(person *models.Person) error
	GetPerson(id string) (*models.Person, error)
	ListPeople(storeID string) ([]*models.Person, error)
	UpdatePerson(person *models.Person) error
	DeletePerson(id string) error

	// Conference room operations
	CreateRoom(room *models.ConferenceRoom) error
	GetRoom(id string) (*models.ConferenceRoom, error)
	ListRooms(storeID string) ([]*models.ConferenceRoom, error)
	UpdateRoom(room *models.ConferenceRoom) error
	DeleteRoom(id string) error

	// Sync queue operations
	UpsertSyncItem(item *models.SyncItem) error
	GetSyncItem(id string) (*models.SyncItem, error)
	GetOpenSyncItem(storeID string, entityType models.EntityType, entityID string) (*models.SyncItem, error)
	ListSyncItems(storeID string, status models.SyncStatus) ([]*models.SyncItem, error)
	ClaimDueSyncItems(now time.Time, limit int) ([]*models.SyncItem, error)
	UpdateSyncItem(item *models.SyncItem) error
	DeleteSyncItem(id string) error
	PruneSucceededSyncItems(olderThan time.Time) (int, error)
	CountSyncItemsByStatus() (map[models.SyncStatus]int, error)

	// Lifecycle
	Close() error
	HealthCheck() error
}

// Config holds database configuration
type Config struct {
	Type string // "memory", "sqlite" or "postgres"
	DSN  string // connection string (postgres)
	Path string // database file path (sqlite)

	// PostgreSQL pool tuning
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewStore creates a store based on configuration
func NewStore(config Config) (Store, error) {
	switch config.Type {
	case "postgres", "postgresql":
		return NewPostgresStore(config)
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite", "":
		path := config.Path
		if path == "" {
			path = config.DSN
		}
		if path == "" {
			path = "espace.db"
		}
		return NewSQLiteStore(path)
	default:
		return nil, ErrUnsupportedDatabase
	}
}

// Ensure all implementations satisfy the interface
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
