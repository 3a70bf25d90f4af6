package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/keywordpulse/keywordpulse/internal/auth"
	"github.com/keywordpulse/keywordpulse/internal/model"
	"github.com/keywordpulse/keywordpulse/internal/quota"
	"github.com/keywordpulse/keywordpulse/internal/services"
	"github.com/keywordpulse/keywordpulse/internal/store"
)

// ---- minimal in-memory backend for handler tests ----

type memBackend struct {
	mu      sync.Mutex
	users   map[string]*model.User
	queries []*model.KeywordQuery
	seq     int
}

func newMemBackend() *memBackend { return &memBackend{users: map[string]*model.User{}} }

func (b *memBackend) Users() store.Users     { return (*memBackendUsers)(b) }
func (b *memBackend) Queries() store.Queries { return (*memBackendQueries)(b) }
func (b *memBackend) Cache() store.Cache     { return nil }

type memBackendUsers memBackend

func (u *memBackendUsers) GetOrCreate(ctx context.Context, email string) (*model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, usr := range u.users {
		if usr.Email == email {
			cp := *usr
			return &cp, nil
		}
	}
	usr := &model.User{ID: "u-" + email, Email: email, SubscriptionTier: model.TierFree, CreatedAt: time.Now()}
	u.users[usr.ID] = usr
	cp := *usr
	return &cp, nil
}

func (u *memBackendUsers) Get(ctx context.Context, userID string) (*model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	usr, ok := u.users[userID]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *usr
	return &cp, nil
}

func (u *memBackendUsers) IncrementQueryCount(ctx context.Context, userID string, now time.Time) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	usr, ok := u.users[userID]
	if !ok {
		return model.ErrNotFound
	}
	usr.QueryCount++
	t := now
	usr.LastQueryAt = &t
	return nil
}

func (u *memBackendUsers) ResetQueryCount(ctx context.Context, userID string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if usr, ok := u.users[userID]; ok {
		usr.QueryCount = 0
	}
	return nil
}

type memBackendQueries memBackend

func (q *memBackendQueries) Create(ctx context.Context, kq *model.KeywordQuery) (*model.KeywordQuery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	cp := *kq
	cp.ID = fmt.Sprintf("query-%03d", q.seq)
	cp.CreatedAt = time.Now()
	q.queries = append(q.queries, &cp)
	return &cp, nil
}

func (q *memBackendQueries) ListByUser(ctx context.Context, userID string, limit int) ([]*model.KeywordQuery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := []*model.KeywordQuery{}
	for _, kq := range q.queries {
		if kq.UserID == userID && len(out) < limit {
			out = append(out, kq)
		}
	}
	return out, nil
}

func (q *memBackendQueries) GetByID(ctx context.Context, userID, queryID string) (*model.KeywordQuery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, kq := range q.queries {
		if kq.UserID == userID && kq.ID == queryID {
			return kq, nil
		}
	}
	return nil, model.ErrNotFound
}

type nullCache struct{}

func (nullCache) Get(ctx context.Context, keyword string) (*model.KeywordResult, bool) {
	return nil, false
}
func (nullCache) Put(ctx context.Context, keyword string, r *model.KeywordResult, source string) error {
	return nil
}
func (nullCache) EvictExpired(ctx context.Context) (int64, error) { return 0, nil }

type stubProvider struct{ err error }

func (p stubProvider) GetKeywordData(ctx context.Context, keyword string) (*model.KeywordResult, error) {
	if p.err != nil {
		return nil, p.err
	}
	vol := 900
	return &model.KeywordResult{Keyword: keyword, SearchVolume: &vol, DataSource: model.SourceGoogleTrends}, nil
}

func testRouter(t *testing.T, backend *memBackend, provider services.TrendProvider) http.Handler {
	t.Helper()
	log := zerolog.Nop()
	ledger := quota.NewLedger(backend.Users(), log)
	searchSvc := services.NewSearchService(backend, nullCache{}, ledger, provider, log)
	userSvc := services.NewUserService(backend, ledger)
	querySvc := services.NewQueryService(backend)
	return NewRouter(searchSvc, userSvc, querySvc, auth.NewHeaderExtractor("X-Auth-Email"), log)
}

func doJSON(t *testing.T, h http.Handler, method, path, body, email string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if email != "" {
		req.Header.Set("X-Auth-Email", email)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var decoded map[string]interface{}
	_ = json.Unmarshal(rr.Body.Bytes(), &decoded)
	return rr, decoded
}

// ---- tests ----

func TestSearch_EmptyKeyword400(t *testing.T) {
	h := testRouter(t, newMemBackend(), stubProvider{})
	rr, body := doJSON(t, h, "POST", "/api/search", `{"keyword":""}`, "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if body["success"] == true {
		t.Fatalf("error body must not claim success")
	}
}

func TestSearch_Success200(t *testing.T) {
	h := testRouter(t, newMemBackend(), stubProvider{})
	rr, body := doJSON(t, h, "POST", "/api/search", `{"keyword":"seo tools"}`, "alice@example.com")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if body["success"] != true {
		t.Fatalf("expected success envelope, got %v", body)
	}
	data := body["data"].(map[string]interface{})
	if data["keyword"] != "seo tools" {
		t.Fatalf("unexpected keyword %v", data["keyword"])
	}
	usage := data["usage"].(map[string]interface{})
	if usage["current_count"].(float64) != 1 || usage["daily_limit"].(float64) != 10 {
		t.Fatalf("unexpected usage %v", usage)
	}
}

func TestSearch_AnonymousNoUsage(t *testing.T) {
	h := testRouter(t, newMemBackend(), stubProvider{})
	rr, body := doJSON(t, h, "POST", "/api/search", `{"keyword":"SEO工具"}`, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	data := body["data"].(map[string]interface{})
	if _, present := data["usage"]; present {
		t.Fatalf("anonymous response must omit usage, got %v", data)
	}
}

func TestSearch_QuotaExceeded429(t *testing.T) {
	backend := newMemBackend()
	h := testRouter(t, backend, stubProvider{})

	for i := 0; i < model.FreeDailyLimit; i++ {
		rr, _ := doJSON(t, h, "POST", "/api/search", `{"keyword":"kw"}`, "busy@example.com")
		if rr.Code != http.StatusOK {
			t.Fatalf("search %d: expected 200, got %d", i+1, rr.Code)
		}
	}

	rr, body := doJSON(t, h, "POST", "/api/search", `{"keyword":"kw"}`, "busy@example.com")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("11th search: expected 429, got %d", rr.Code)
	}
	details, _ := body["details"].(string)
	if !strings.Contains(details, "10") {
		t.Fatalf("details should state the limit, got %q", details)
	}
}

func TestSearch_ProviderDown503(t *testing.T) {
	h := testRouter(t, newMemBackend(), stubProvider{err: errors.New("everything failed")})
	rr, _ := doJSON(t, h, "POST", "/api/search", `{"keyword":"kw"}`, "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestSuggestions(t *testing.T) {
	h := testRouter(t, newMemBackend(), stubProvider{})
	rr, body := doJSON(t, h, "GET", "/api/search/suggestions?q=seo", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	sug := body["suggestions"].([]interface{})
	if len(sug) == 0 || sug[0] != "seo" {
		t.Fatalf("unexpected suggestions %v", sug)
	}

	_, short := doJSON(t, h, "GET", "/api/search/suggestions?q=s", "", "")
	if got := short["suggestions"].([]interface{}); len(got) != 0 {
		t.Fatalf("single-rune query should yield none, got %v", got)
	}
}

func TestUsersMe(t *testing.T) {
	h := testRouter(t, newMemBackend(), stubProvider{})

	rr, _ := doJSON(t, h, "GET", "/api/users/me", "", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", rr.Code)
	}

	rr, body := doJSON(t, h, "GET", "/api/users/me", "", "alice@example.com")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	data := body["data"].(map[string]interface{})
	usage := data["usage"].(map[string]interface{})
	if usage["can_query"] != true {
		t.Fatalf("fresh account should be able to query, got %v", usage)
	}
}

func TestQueriesHistory(t *testing.T) {
	backend := newMemBackend()
	h := testRouter(t, backend, stubProvider{})

	rr, _ := doJSON(t, h, "GET", "/api/queries", "", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", rr.Code)
	}

	doJSON(t, h, "POST", "/api/search", `{"keyword":"seo tools"}`, "bob@example.com")

	rr, body := doJSON(t, h, "GET", "/api/queries?limit=5", "", "bob@example.com")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	items := body["data"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("expected 1 history item, got %d", len(items))
	}
	item := items[0].(map[string]interface{})
	if item["keyword"] != "seo tools" || item["result_count"].(float64) != 1 {
		t.Fatalf("unexpected item %v", item)
	}
	pg := body["pagination"].(map[string]interface{})
	if pg["limit"].(float64) != 5 {
		t.Fatalf("unexpected pagination %v", pg)
	}

	id := item["id"].(string)
	rr, detail := doJSON(t, h, "GET", "/api/queries/"+id, "", "bob@example.com")
	if rr.Code != http.StatusOK {
		t.Fatalf("query detail: expected 200, got %d", rr.Code)
	}
	q := detail["data"].(map[string]interface{})
	if q["keyword"] != "seo tools" {
		t.Fatalf("unexpected detail %v", q)
	}
}

func TestHealthEndpoint(t *testing.T) {
	h := testRouter(t, newMemBackend(), stubProvider{})
	BindServiceHealth(func() bool { return true })
	defer BindServiceHealth(func() bool { return healthyFlag.Load() == 1 })

	rr, body := doJSON(t, h, "GET", "/api/health", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if body["status"] != "healthy" {
		t.Fatalf("unexpected status %v", body["status"])
	}
}
