package aims

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AvivElectis/electisSpace-sub010/pkg/logging"
	"github.com/AvivElectis/electisSpace-sub010/pkg/models"
	"github.com/AvivElectis/electisSpace-sub010/pkg/retry"
	"github.com/AvivElectis/electisSpace-sub010/pkg/store"
)

var (
	ErrAimsDisabled = errors.New("aims sync is not enabled")
)

// PoolConfig holds the settings shared by every company client
type PoolConfig struct {
	BaseURL string
	Timeout time.Duration
	Retry   retry.Config
}

// Pool caches one AIMS client per company. Clients hold cached access
// tokens, so reusing them across sync items avoids a login per push.
type Pool struct {
	cfg    PoolConfig
	logger *logging.Logger

	mu      sync.Mutex
	clients map[string]*poolEntry
}

type poolEntry struct {
	client   *Client
	username string
	password string
}

// NewPool creates a client pool
func NewPool(cfg PoolConfig, logger *logging.Logger) *Pool {
	return &Pool{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[string]*poolEntry),
	}
}

// ClientFor returns the cached client for a company, creating it on
// first use. Changed credentials invalidate the cached client.
func (p *Pool) ClientFor(company *models.Company) (*Client, error) {
	if !company.AimsEnabled {
		return nil, ErrAimsDisabled
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.clients[company.ID]
	if ok && entry.username == company.AimsUsername && entry.password == company.AimsPassword {
		return entry.client, nil
	}

	client := NewClient(Config{
		BaseURL:     p.cfg.BaseURL,
		CompanyCode: company.AimsCompanyCode,
		Username:    company.AimsUsername,
		Password:    company.AimsPassword,
		Timeout:     p.cfg.Timeout,
		Retry:       p.cfg.Retry,
	}, p.logger.WithField("company", company.ID))

	p.clients[company.ID] = &poolEntry{
		client:   client,
		username: company.AimsUsername,
		password: company.AimsPassword,
	}
	return client, nil
}

// Evict drops the cached client for a company
func (p *Pool) Evict(companyID string) {
	p.mu.Lock()
	delete(p.clients, companyID)
	p.mu.Unlock()
}

// Gateway translates sync items into AIMS article operations. It owns
// the entity-to-article mapping and the per-company client pool.
type Gateway struct {
	db     store.Store
	pool   *Pool
	logger *logging.Logger
}

// NewGateway creates a gateway backed by the given store
func NewGateway(db store.Store, pool *Pool, logger *logging.Logger) *Gateway {
	return &Gateway{
		db:     db,
		pool:   pool,
		logger: logger.WithField("component", "gateway"),
	}
}

// resolveTarget loads the store and company for a sync item and checks
// that both sides still have AIMS enabled.
func (g *Gateway) resolveTarget(item *models.SyncItem) (*models.Company, *models.Store, error) {
	st, err := g.db.GetStore(item.StoreID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load store %s: %w", item.StoreID, err)
	}
	company, err := g.db.GetCompany(st.CompanyID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load company %s: %w", st.CompanyID, err)
	}
	if !st.AimsEnabled || !company.AimsEnabled {
		return nil, nil, ErrAimsDisabled
	}
	return company, st, nil
}

// buildArticle maps the current local state of the item's entity to an
// article. found is false when the entity no longer exists locally.
func (g *Gateway) buildArticle(item *models.SyncItem) (Article, bool, error) {
	switch item.EntityType {
	case models.EntitySpace:
		sp, err := g.db.GetSpace(item.EntityID)
		if errors.Is(err, store.ErrSpaceNotFound) {
			return Article{}, false, nil
		}
		if err != nil {
			return Article{}, false, err
		}
		return BuildSpaceArticle(sp), true, nil
	case models.EntityPerson:
		p, err := g.db.GetPerson(item.EntityID)
		if errors.Is(err, store.ErrPersonNotFound) {
			return Article{}, false, nil
		}
		if err != nil {
			return Article{}, false, err
		}
		return BuildPersonArticle(p), true, nil
	case models.EntityRoom:
		r, err := g.db.GetRoom(item.EntityID)
		if errors.Is(err, store.ErrRoomNotFound) {
			return Article{}, false, nil
		}
		if err != nil {
			return Article{}, false, err
		}
		return BuildRoomArticle(r), true, nil
	default:
		return Article{}, false, fmt.Errorf("unknown entity type: %s", item.EntityType)
	}
}

// Dispatch executes one sync item against AIMS. The local database is
// the source of truth: a create or update whose entity has since been
// deleted locally is dispatched as a delete instead.
func (g *Gateway) Dispatch(ctx context.Context, item *models.SyncItem) error {
	company, st, err := g.resolveTarget(item)
	if err != nil {
		return err
	}

	client, err := g.pool.ClientFor(company)
	if err != nil {
		return err
	}

	articleID := ArticleIDFor(item.EntityType, item.EntityID)

	switch item.Op {
	case models.SyncOpCreate, models.SyncOpUpdate:
		article, found, err := g.buildArticle(item)
		if err != nil {
			return err
		}
		if !found {
			g.logger.Debug("entity gone, dispatching delete instead", map[string]interface{}{
				"item": item.ID, "entity": item.EntityID,
			})
			return client.DeleteArticles(ctx, st.AimsStoreNumber, []string{articleID})
		}
		return client.PushArticles(ctx, st.AimsStoreNumber, []Article{article})
	case models.SyncOpDelete:
		return client.DeleteArticles(ctx, st.AimsStoreNumber, []string{articleID})
	default:
		return fmt.Errorf("unknown sync op: %s", item.Op)
	}
}

// DesiredArticles builds the full article set a store should have,
// derived from local state. Used by pull-sync to detect drift.
func (g *Gateway) DesiredArticles(st *models.Store) (map[string]Article, error) {
	desired := make(map[string]Article)

	spaces, err := g.db.ListSpaces(st.ID)
	if err != nil {
		return nil, err
	}
	for _, sp := range spaces {
		a := BuildSpaceArticle(sp)
		desired[a.ArticleID] = a
	}

	people, err := g.db.ListPeople(st.ID)
	if err != nil {
		return nil, err
	}
	for _, p := range people {
		a := BuildPersonArticle(p)
		desired[a.ArticleID] = a
	}

	rooms, err := g.db.ListRooms(st.ID)
	if err != nil {
		return nil, err
	}
	for _, r := range rooms {
		a := BuildRoomArticle(r)
		desired[a.ArticleID] = a
	}

	return desired, nil
}

// RemoteArticles fetches the article set AIMS currently holds for a store
func (g *Gateway) RemoteArticles(ctx context.Context, company *models.Company, st *models.Store) (map[string]Article, error) {
	client, err := g.pool.ClientFor(company)
	if err != nil {
		return nil, err
	}
	articles, err := client.ListArticles(ctx, st.AimsStoreNumber)
	if err != nil {
		return nil, err
	}
	remote := make(map[string]Article, len(articles))
	for _, a := range articles {
		remote[a.ArticleID] = a
	}
	return remote, nil
}
