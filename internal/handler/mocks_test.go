package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/sivira/snsdm/internal/pkg/response"
	"github.com/sivira/snsdm/internal/pkg/xapi"
	"github.com/sivira/snsdm/internal/server/middleware"
	"github.com/sivira/snsdm/internal/service"
)

// 测试用内存仓储，行为对齐真实实现：软删、分页、(nil, nil) 未命中。

type memAccountRepo struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]*service.LinkedAccount
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{nextID: 1, accounts: map[int64]*service.LinkedAccount{}}
}

func (r *memAccountRepo) add(a *service.LinkedAccount) *service.LinkedAccount {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	cp.ID = r.nextID
	r.nextID++
	r.accounts[cp.ID] = &cp
	return &cp
}

func (r *memAccountRepo) Upsert(_ context.Context, account *service.LinkedAccount) (*service.LinkedAccount, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.IsActive && existing.UserID == account.UserID &&
			existing.Provider == account.Provider &&
			existing.ProviderAccountID == account.ProviderAccountID {
			existing.AccessToken = account.AccessToken
			existing.AccessTokenSecret = account.AccessTokenSecret
			existing.ConnectedAt = account.ConnectedAt
			cp := *existing
			return &cp, true, nil
		}
	}
	cp := *account
	cp.ID = r.nextID
	r.nextID++
	r.accounts[cp.ID] = &cp
	out := cp
	return &out, false, nil
}

func (r *memAccountRepo) ListActiveByUser(_ context.Context, userID, provider string) ([]*service.LinkedAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*service.LinkedAccount
	for _, a := range r.accounts {
		if a.IsActive && a.UserID == userID && (provider == "" || a.Provider == provider) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memAccountRepo) GetActiveByID(_ context.Context, userID string, id int64) (*service.LinkedAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok || !a.IsActive || a.UserID != userID {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *memAccountRepo) Deactivate(_ context.Context, userID string, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if ok && a.UserID == userID {
		a.IsActive = false
	}
	return nil
}

type memHashtagRepo struct {
	mu     sync.Mutex
	nextID int64
	rules  map[int64]*service.HashtagRule
}

func newMemHashtagRepo() *memHashtagRepo {
	return &memHashtagRepo{nextID: 1, rules: map[int64]*service.HashtagRule{}}
}

func (r *memHashtagRepo) Create(_ context.Context, rule *service.HashtagRule) (*service.HashtagRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rule
	cp.ID = r.nextID
	r.nextID++
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	r.rules[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memHashtagRepo) GetByID(_ context.Context, userID string, id int64) (*service.HashtagRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[id]
	if !ok || !rule.IsActive || rule.UserID != userID {
		return nil, nil
	}
	cp := *rule
	return &cp, nil
}

func (r *memHashtagRepo) ListByUser(_ context.Context, userID string, offset, limit int) ([]*service.HashtagRule, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*service.HashtagRule
	for id := int64(1); id < r.nextID; id++ {
		if rule, ok := r.rules[id]; ok && rule.IsActive && rule.UserID == userID {
			cp := *rule
			all = append(all, &cp)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *memHashtagRepo) Update(_ context.Context, rule *service.HashtagRule) (*service.HashtagRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rule
	cp.UpdatedAt = time.Now().UTC()
	r.rules[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memHashtagRepo) Deactivate(_ context.Context, userID string, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rule, ok := r.rules[id]; ok && rule.UserID == userID {
		rule.IsActive = false
	}
	return nil
}

type memPostRepo struct {
	mu     sync.Mutex
	nextID int64
	rules  map[int64]*service.PostRule
}

func newMemPostRepo() *memPostRepo {
	return &memPostRepo{nextID: 1, rules: map[int64]*service.PostRule{}}
}

func (r *memPostRepo) Create(_ context.Context, rule *service.PostRule) (*service.PostRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rule
	cp.ID = r.nextID
	r.nextID++
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	r.rules[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memPostRepo) GetByID(_ context.Context, userID string, id int64) (*service.PostRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[id]
	if !ok || !rule.IsActive || rule.UserID != userID {
		return nil, nil
	}
	cp := *rule
	return &cp, nil
}

func (r *memPostRepo) ListByUser(_ context.Context, userID string, offset, limit int) ([]*service.PostRule, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*service.PostRule
	for id := int64(1); id < r.nextID; id++ {
		if rule, ok := r.rules[id]; ok && rule.IsActive && rule.UserID == userID {
			cp := *rule
			all = append(all, &cp)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *memPostRepo) Update(_ context.Context, rule *service.PostRule) (*service.PostRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rule
	cp.UpdatedAt = time.Now().UTC()
	r.rules[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memPostRepo) Deactivate(_ context.Context, userID string, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rule, ok := r.rules[id]; ok && rule.UserID == userID {
		rule.IsActive = false
	}
	return nil
}

type memDMLogRepo struct {
	mu     sync.Mutex
	nextID int64
	logs   []*service.DMLog
}

func newMemDMLogRepo() *memDMLogRepo {
	return &memDMLogRepo{nextID: 1}
}

func (r *memDMLogRepo) Create(_ context.Context, log *service.DMLog) (*service.DMLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *log
	cp.ID = r.nextID
	r.nextID++
	cp.CreatedAt = time.Now().UTC()
	r.logs = append(r.logs, &cp)
	out := cp
	return &out, nil
}

func (r *memDMLogRepo) ListByUser(_ context.Context, userID string, offset, limit int) ([]*service.DMLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*service.DMLog
	for _, l := range r.logs {
		if l.UserID == userID {
			cp := *l
			all = append(all, &cp)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

type memHandshakeStore struct {
	mu      sync.Mutex
	byState map[string]*service.PendingHandshake
	byToken map[string]*service.PendingHandshake
}

func newMemHandshakeStore() *memHandshakeStore {
	return &memHandshakeStore{
		byState: map[string]*service.PendingHandshake{},
		byToken: map[string]*service.PendingHandshake{},
	}
}

func (s *memHandshakeStore) Save(_ context.Context, hs *service.PendingHandshake, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *hs
	s.byState[cp.StateID] = &cp
	s.byToken[cp.RequestToken] = &cp
	return nil
}

func (s *memHandshakeStore) ConsumeByStateID(_ context.Context, stateID string) (*service.PendingHandshake, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hs, ok := s.byState[stateID]
	if !ok {
		return nil, nil
	}
	delete(s.byState, hs.StateID)
	delete(s.byToken, hs.RequestToken)
	return hs, nil
}

func (s *memHandshakeStore) ConsumeByRequestToken(_ context.Context, token string) (*service.PendingHandshake, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hs, ok := s.byToken[token]
	if !ok {
		return nil, nil
	}
	delete(s.byState, hs.StateID)
	delete(s.byToken, hs.RequestToken)
	return hs, nil
}

type stubXClient struct {
	requestTokenFn func(ctx context.Context, callbackURL string) (*xapi.RequestTokenResponse, error)
	accessTokenFn  func(ctx context.Context, requestToken, requestTokenSecret, verifier string) (*xapi.AccessTokenResponse, error)
	verifyCredsFn  func(ctx context.Context, accessToken, accessTokenSecret string) (*xapi.Profile, error)
}

func (c *stubXClient) RequestToken(ctx context.Context, callbackURL string) (*xapi.RequestTokenResponse, error) {
	return c.requestTokenFn(ctx, callbackURL)
}

func (c *stubXClient) AccessToken(ctx context.Context, requestToken, requestTokenSecret, verifier string) (*xapi.AccessTokenResponse, error) {
	return c.accessTokenFn(ctx, requestToken, requestTokenSecret, verifier)
}

func (c *stubXClient) VerifyCredentials(ctx context.Context, accessToken, accessTokenSecret string) (*xapi.Profile, error) {
	return c.verifyCredsFn(ctx, accessToken, accessTokenSecret)
}

const testUserID = "user-1"

// authAs injects the authenticated user the way the JWT middleware does.
func authAs(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, userID)
		c.Next()
	}
}

func performJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	return rec
}

func parseEnvelope(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func dataMap(t *testing.T, resp response.Response) map[string]any {
	t.Helper()
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data should be a JSON object")
	return data
}
