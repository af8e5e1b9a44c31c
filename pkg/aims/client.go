package aims

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/AvivElectis/electisSpace-sub010/pkg/logging"
	"github.com/AvivElectis/electisSpace-sub010/pkg/retry"
)

// Config holds AIMS connection settings for one company
type Config struct {
	BaseURL     string
	CompanyCode string
	Username    string
	Password    string
	Timeout     time.Duration
	Retry       retry.Config
}

// Client talks to one company's AIMS backend. Safe for concurrent use;
// the access token is cached and refreshed on 401.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *logging.Logger

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// StatusError is returned for non-2xx AIMS responses
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("aims: unexpected status %d: %s", e.Code, e.Body)
}

// NewClient creates an AIMS client
func NewClient(cfg Config, logger *logging.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry = retry.Config{
			MaxRetries:     2,
			InitialBackoff: 500 * time.Millisecond,
			MaxBackoff:     5 * time.Second,
			Multiplier:     2.0,
		}
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.WithField("component", "aims"),
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// login fetches a fresh access token. Caller must hold c.mu.
func (c *Client) login(ctx context.Context) error {
	body, _ := json.Marshal(map[string]string{
		"username": c.cfg.Username,
		"password": c.cfg.Password,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/v1/token", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("aims: token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return fmt.Errorf("aims: failed to decode token response: %w", err)
	}
	if tok.ExpiresIn <= 0 {
		tok.ExpiresIn = 3600
	}

	c.token = tok.AccessToken
	// Refresh a minute early so in-flight requests don't race expiry.
	c.tokenExp = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	return nil
}

func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" || time.Now().After(c.tokenExp) {
		if err := c.login(ctx); err != nil {
			return "", err
		}
	}
	return c.token, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// do performs one authenticated request, re-authenticating once on 401
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload interface{}) (*http.Response, error) {
	for attempt := 0; attempt < 2; attempt++ {
		token, err := c.ensureToken(ctx)
		if err != nil {
			return nil, err
		}

		var body io.Reader
		if payload != nil {
			data, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("aims: failed to marshal request: %w", err)
			}
			body = bytes.NewReader(data)
		}

		u := c.cfg.BaseURL + path
		if len(query) > 0 {
			u += "?" + query.Encode()
		}

		req, err := http.NewRequestWithContext(ctx, method, u, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("aims: request failed: %w", err)
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			resp.Body.Close()
			c.invalidateToken()
			continue
		}
		return resp, nil
	}
	return nil, fmt.Errorf("aims: authentication loop exhausted")
}

func (c *Client) storeQuery(storeNumber string) url.Values {
	q := url.Values{}
	q.Set("company", c.cfg.CompanyCode)
	q.Set("store", storeNumber)
	return q
}

// PushArticles upserts articles for a store
func (c *Client) PushArticles(ctx context.Context, storeNumber string, articles []Article) error {
	if len(articles) == 0 {
		return nil
	}
	return retry.Do(ctx, c.cfg.Retry, func() error {
		resp, err := c.do(ctx, http.MethodPost, "/api/v2/common/articles", c.storeQuery(storeNumber), articles)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
		}
		c.logger.Debug("pushed articles", map[string]interface{}{"store": storeNumber, "count": len(articles)})
		return nil
	})
}

// DeleteArticles removes articles from a store. AIMS returns 404 for
// unknown article IDs; that counts as success for reconciliation.
func (c *Client) DeleteArticles(ctx context.Context, storeNumber string, articleIDs []string) error {
	if len(articleIDs) == 0 {
		return nil
	}
	return retry.Do(ctx, c.cfg.Retry, func() error {
		q := c.storeQuery(storeNumber)
		q.Set("articleList", strings.Join(articleIDs, ","))
		resp, err := c.do(ctx, http.MethodDelete, "/api/v2/common/articles", q, nil)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
			data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
		}
		c.logger.Debug("deleted articles", map[string]interface{}{"store": storeNumber, "count": len(articleIDs)})
		return nil
	})
}

type articlePage struct {
	Articles   []Article `json:"articleList"`
	TotalPages int       `json:"totalPages"`
}

// ListArticles fetches all articles for a store, following pagination
func (c *Client) ListArticles(ctx context.Context, storeNumber string) ([]Article, error) {
	var all []Article
	err := retry.Do(ctx, c.cfg.Retry, func() error {
		all = all[:0]
		for page := 0; ; page++ {
			q := c.storeQuery(storeNumber)
			q.Set("page", fmt.Sprintf("%d", page))
			q.Set("size", "100")

			resp, err := c.do(ctx, http.MethodGet, "/api/v2/common/articles", q, nil)
			if err != nil {
				return err
			}

			if resp.StatusCode != http.StatusOK {
				data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
				resp.Body.Close()
				return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
			}

			var pageData articlePage
			err = json.NewDecoder(resp.Body).Decode(&pageData)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("aims: failed to decode article page: %w", err)
			}

			all = append(all, pageData.Articles...)
			if page+1 >= pageData.TotalPages || len(pageData.Articles) == 0 {
				return nil
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}
