//go:build unit

package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sivira/snsdm/internal/pkg/xapi"
)

// fakeHandshakeStore keeps pending handshakes in memory under both the
// state id and the request token, mirroring the dual-key store.
type fakeHandshakeStore struct {
	mu      sync.Mutex
	byState map[string]*PendingHandshake
	byToken map[string]*PendingHandshake
	saves   int
	saveErr error
}

func newFakeHandshakeStore() *fakeHandshakeStore {
	return &fakeHandshakeStore{
		byState: make(map[string]*PendingHandshake),
		byToken: make(map[string]*PendingHandshake),
	}
}

func (f *fakeHandshakeStore) Save(_ context.Context, hs *PendingHandshake, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.byState[hs.StateID] = hs
	f.byToken[hs.RequestToken] = hs
	return nil
}

func (f *fakeHandshakeStore) ConsumeByStateID(_ context.Context, stateID string) (*PendingHandshake, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	hs, ok := f.byState[stateID]
	if !ok {
		return nil, nil
	}
	delete(f.byState, hs.StateID)
	delete(f.byToken, hs.RequestToken)
	return hs, nil
}

func (f *fakeHandshakeStore) ConsumeByRequestToken(_ context.Context, requestToken string) (*PendingHandshake, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	hs, ok := f.byToken[requestToken]
	if !ok {
		return nil, nil
	}
	delete(f.byState, hs.StateID)
	delete(f.byToken, hs.RequestToken)
	return hs, nil
}

func (f *fakeHandshakeStore) remaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byState) + len(f.byToken)
}

// fakeXOAuthClient stubs the three provider round trips via function
// fields; nil fields fail loudly.
type fakeXOAuthClient struct {
	requestTokenFn      func(ctx context.Context, callbackURL string) (*xapi.RequestTokenResponse, error)
	accessTokenFn       func(ctx context.Context, requestToken, requestTokenSecret, verifier string) (*xapi.AccessTokenResponse, error)
	verifyCredentialsFn func(ctx context.Context, accessToken, accessTokenSecret string) (*xapi.Profile, error)
}

func (f *fakeXOAuthClient) RequestToken(ctx context.Context, callbackURL string) (*xapi.RequestTokenResponse, error) {
	if f.requestTokenFn == nil {
		return nil, fmt.Errorf("unexpected RequestToken call")
	}
	return f.requestTokenFn(ctx, callbackURL)
}

func (f *fakeXOAuthClient) AccessToken(ctx context.Context, requestToken, requestTokenSecret, verifier string) (*xapi.AccessTokenResponse, error) {
	if f.accessTokenFn == nil {
		return nil, fmt.Errorf("unexpected AccessToken call")
	}
	return f.accessTokenFn(ctx, requestToken, requestTokenSecret, verifier)
}

func (f *fakeXOAuthClient) VerifyCredentials(ctx context.Context, accessToken, accessTokenSecret string) (*xapi.Profile, error) {
	if f.verifyCredentialsFn == nil {
		return nil, fmt.Errorf("unexpected VerifyCredentials call")
	}
	return f.verifyCredentialsFn(ctx, accessToken, accessTokenSecret)
}

// fakeAccountRepo is an in-memory AccountRepository with real upsert
// semantics over the (user, provider, provider_account_id, active) key.
type fakeAccountRepo struct {
	mu      sync.Mutex
	rows    []*LinkedAccount
	nextID  int64
	upserts int
	err     error
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{nextID: 1}
}

func (f *fakeAccountRepo) Upsert(_ context.Context, account *LinkedAccount) (*LinkedAccount, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, false, f.err
	}
	f.upserts++
	for _, row := range f.rows {
		if row.IsActive && row.UserID == account.UserID &&
			row.Provider == account.Provider &&
			row.ProviderAccountID == account.ProviderAccountID {
			// 重连：只刷新令牌与 connected_at
			row.AccessToken = account.AccessToken
			row.AccessTokenSecret = account.AccessTokenSecret
			row.ConnectedAt = account.ConnectedAt
			cp := *row
			return &cp, true, nil
		}
	}
	cp := *account
	cp.ID = f.nextID
	f.nextID++
	f.rows = append(f.rows, &cp)
	out := cp
	return &out, false, nil
}

func (f *fakeAccountRepo) ListActiveByUser(_ context.Context, userID, provider string) ([]*LinkedAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []*LinkedAccount
	for _, row := range f.rows {
		if row.IsActive && row.UserID == userID && (provider == "" || row.Provider == provider) {
			cp := *row
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeAccountRepo) GetActiveByID(_ context.Context, userID string, id int64) (*LinkedAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, row := range f.rows {
		if row.IsActive && row.UserID == userID && row.ID == id {
			cp := *row
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAccountRepo) Deactivate(_ context.Context, userID string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, row := range f.rows {
		if row.IsActive && row.UserID == userID && row.ID == id {
			row.IsActive = false
			return nil
		}
	}
	return fmt.Errorf("no active row %d", id)
}

func (f *fakeAccountRepo) activeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, row := range f.rows {
		if row.IsActive {
			n++
		}
	}
	return n
}

// fakeHashtagRepo / fakePostRepo / fakeDMLogRepo are in-memory rule stores.
type fakeHashtagRepo struct {
	mu     sync.Mutex
	rows   []*HashtagRule
	nextID int64
	err    error
}

func newFakeHashtagRepo() *fakeHashtagRepo { return &fakeHashtagRepo{nextID: 1} }

func (f *fakeHashtagRepo) Create(_ context.Context, rule *HashtagRule) (*HashtagRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	cp := *rule
	cp.ID = f.nextID
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.nextID++
	f.rows = append(f.rows, &cp)
	out := cp
	return &out, nil
}

func (f *fakeHashtagRepo) GetByID(_ context.Context, userID string, id int64) (*HashtagRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, row := range f.rows {
		if row.IsActive && row.UserID == userID && row.ID == id {
			cp := *row
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeHashtagRepo) ListByUser(_ context.Context, userID string, offset, limit int) ([]*HashtagRule, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, 0, f.err
	}
	var all []*HashtagRule
	for _, row := range f.rows {
		if row.IsActive && row.UserID == userID {
			cp := *row
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

func (f *fakeHashtagRepo) Update(_ context.Context, rule *HashtagRule) (*HashtagRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for i, row := range f.rows {
		if row.ID == rule.ID && row.UserID == rule.UserID {
			cp := *rule
			cp.UpdatedAt = time.Now()
			f.rows[i] = &cp
			out := cp
			return &out, nil
		}
	}
	return nil, fmt.Errorf("no rule %d", rule.ID)
}

func (f *fakeHashtagRepo) Deactivate(_ context.Context, userID string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, row := range f.rows {
		if row.IsActive && row.UserID == userID && row.ID == id {
			row.IsActive = false
			return nil
		}
	}
	return fmt.Errorf("no active rule %d", id)
}

type fakePostRepo struct {
	mu     sync.Mutex
	rows   []*PostRule
	nextID int64
	err    error
}

func newFakePostRepo() *fakePostRepo { return &fakePostRepo{nextID: 1} }

func (f *fakePostRepo) Create(_ context.Context, rule *PostRule) (*PostRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	cp := *rule
	cp.ID = f.nextID
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.nextID++
	f.rows = append(f.rows, &cp)
	out := cp
	return &out, nil
}

func (f *fakePostRepo) GetByID(_ context.Context, userID string, id int64) (*PostRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, row := range f.rows {
		if row.IsActive && row.UserID == userID && row.ID == id {
			cp := *row
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePostRepo) ListByUser(_ context.Context, userID string, offset, limit int) ([]*PostRule, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, 0, f.err
	}
	var all []*PostRule
	for _, row := range f.rows {
		if row.IsActive && row.UserID == userID {
			cp := *row
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

func (f *fakePostRepo) Update(_ context.Context, rule *PostRule) (*PostRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for i, row := range f.rows {
		if row.ID == rule.ID && row.UserID == rule.UserID {
			cp := *rule
			cp.UpdatedAt = time.Now()
			f.rows[i] = &cp
			out := cp
			return &out, nil
		}
	}
	return nil, fmt.Errorf("no rule %d", rule.ID)
}

func (f *fakePostRepo) Deactivate(_ context.Context, userID string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, row := range f.rows {
		if row.IsActive && row.UserID == userID && row.ID == id {
			row.IsActive = false
			return nil
		}
	}
	return fmt.Errorf("no active rule %d", id)
}

type fakeDMLogRepo struct {
	mu     sync.Mutex
	rows   []*DMLog
	nextID int64
	err    error
}

func newFakeDMLogRepo() *fakeDMLogRepo { return &fakeDMLogRepo{nextID: 1} }

func (f *fakeDMLogRepo) Create(_ context.Context, log *DMLog) (*DMLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	cp := *log
	cp.ID = f.nextID
	cp.CreatedAt = time.Now()
	f.nextID++
	f.rows = append(f.rows, &cp)
	out := cp
	return &out, nil
}

func (f *fakeDMLogRepo) ListByUser(_ context.Context, userID string, offset, limit int) ([]*DMLog, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, 0, f.err
	}
	var all []*DMLog
	for _, row := range f.rows {
		if row.UserID == userID {
			cp := *row
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
