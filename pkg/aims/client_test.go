package aims

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AvivElectis/electisSpace-sub010/pkg/logging"
	"github.com/AvivElectis/electisSpace-sub010/pkg/retry"
)

// fakeAims is a minimal AIMS backend for client tests
type fakeAims struct {
	logins     int32
	token      string
	articles   map[string]Article
	pushStatus int
}

func newFakeAims() *fakeAims {
	return &fakeAims{token: "tok-1", articles: make(map[string]Article)}
}

func (f *fakeAims) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.logins, 1)
		var creds map[string]string
		json.NewDecoder(r.Body).Decode(&creds)
		if creds["username"] != "api-user" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": f.token,
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/api/v2/common/articles", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+f.token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.Method {
		case http.MethodPost:
			if f.pushStatus != 0 {
				w.WriteHeader(f.pushStatus)
				return
			}
			var incoming []Article
			json.NewDecoder(r.Body).Decode(&incoming)
			for _, a := range incoming {
				f.articles[a.ArticleID] = a
			}
			w.WriteHeader(http.StatusCreated)
		case http.MethodDelete:
			found := false
			for _, id := range strings.Split(r.URL.Query().Get("articleList"), ",") {
				if _, ok := f.articles[id]; ok {
					delete(f.articles, id)
					found = true
				}
			}
			if !found {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			// Single-article pages exercise the pagination loop
			var ids []string
			for id := range f.articles {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			page := 0
			fmt.Sscanf(r.URL.Query().Get("page"), "%d", &page)
			resp := map[string]interface{}{"articleList": []Article{}, "totalPages": len(ids)}
			if page < len(ids) {
				resp["articleList"] = []Article{f.articles[ids[page]]}
			}
			json.NewEncoder(w).Encode(resp)
		}
	})
	return mux
}

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:     baseURL,
		CompanyCode: "ACME",
		Username:    "api-user",
		Password:    "secret",
		Timeout:     5 * time.Second,
		Retry:       retry.Config{MaxRetries: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, Multiplier: 1.0},
	}, logging.NewLogger(logging.ERROR, false))
}

func TestClientPushAndList(t *testing.T) {
	fake := newFakeAims()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := newTestClient(srv.URL)
	ctx := context.Background()

	articles := []Article{
		{ArticleID: "SP-1", ArticleName: "Desk 1"},
		{ArticleID: "SP-2", ArticleName: "Desk 2"},
	}
	if err := client.PushArticles(ctx, "0001", articles); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	listed, err := client.ListArticles(ctx, "0001")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listed) != 2 {
		t.Errorf("Expected 2 articles across pages, got %d", len(listed))
	}

	// Token fetched once for all three calls
	if n := atomic.LoadInt32(&fake.logins); n != 1 {
		t.Errorf("Expected 1 login, got %d", n)
	}
}

func TestClientPushEmpty(t *testing.T) {
	// No articles means no request at all
	client := newTestClient("http://127.0.0.1:1")
	if err := client.PushArticles(context.Background(), "0001", nil); err != nil {
		t.Errorf("Expected nil for empty push, got %v", err)
	}
}

func TestClientReloginOn401(t *testing.T) {
	fake := newFakeAims()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := newTestClient(srv.URL)
	ctx := context.Background()

	if err := client.PushArticles(ctx, "0001", []Article{{ArticleID: "SP-1"}}); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	// Server rotates its token: the cached one is now stale
	fake.token = "tok-2"
	if err := client.PushArticles(ctx, "0001", []Article{{ArticleID: "SP-2"}}); err != nil {
		t.Fatalf("Push after token rotation failed: %v", err)
	}
	if n := atomic.LoadInt32(&fake.logins); n != 2 {
		t.Errorf("Expected re-login after 401, got %d logins", n)
	}
}

func TestClientDeleteUnknownIsSuccess(t *testing.T) {
	fake := newFakeAims()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := newTestClient(srv.URL)
	if err := client.DeleteArticles(context.Background(), "0001", []string{"SP-gone"}); err != nil {
		t.Errorf("Expected 404 delete to count as success, got %v", err)
	}
}

func TestClientPushServerError(t *testing.T) {
	fake := newFakeAims()
	fake.pushStatus = http.StatusBadRequest
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := newTestClient(srv.URL)
	err := client.PushArticles(context.Background(), "0001", []Article{{ArticleID: "SP-1"}})
	if err == nil {
		t.Fatal("Expected error for 400 response")
	}
	if !strings.Contains(err.Error(), "status 400") {
		t.Errorf("Expected status in error text, got %v", err)
	}
	if retry.IsRetryable(err) {
		t.Error("400 responses must not be retryable")
	}
}

func TestStatusErrorRetryability(t *testing.T) {
	if !retry.IsRetryable(&StatusError{Code: 503, Body: "maintenance"}) {
		t.Error("Expected 503 to be retryable")
	}
	if retry.IsRetryable(&StatusError{Code: 404, Body: "missing"}) {
		t.Error("Expected 404 to not be retryable")
	}
}
