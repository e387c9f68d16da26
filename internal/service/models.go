package service

import (
	"context"
	"time"

	"github.com/sivira/snsdm/internal/pkg/xapi"
)

// Supported SNS providers. Only X carries a full OAuth 1.0a exchange;
// the others expose an authorize URL and stop there.
const (
	ProviderX         = "x"
	ProviderInstagram = "instagram"
	ProviderThreads   = "threads"
	ProviderTikTok    = "tiktok"
)

// KnownProvider reports whether p is one of the supported providers.
func KnownProvider(p string) bool {
	switch p {
	case ProviderX, ProviderInstagram, ProviderThreads, ProviderTikTok:
		return true
	}
	return false
}

// DMSupported reports whether automated DM sending works for the provider.
func DMSupported(p string) bool {
	return p == ProviderX
}

// LinkedAccount is an SNS account connected to a platform user.
// Tokens never leave the service layer; handler DTOs strip them.
type LinkedAccount struct {
	ID                int64
	UserID            string
	Provider          string
	ProviderAccountID string
	Username          string
	DisplayName       string
	ProfileImageURL   string
	AccessToken       string
	AccessTokenSecret string
	ConnectedAt       time.Time
	IsActive          bool
}

// PendingHandshake is the correlation state parked between the
// authorize redirect and the provider callback.
type PendingHandshake struct {
	StateID            string    `json:"state_id"`
	UserID             string    `json:"user_id"`
	Provider           string    `json:"provider"`
	RequestToken       string    `json:"request_token"`
	RequestTokenSecret string    `json:"request_token_secret"`
	CreatedAt          time.Time `json:"created_at"`
}

// HashtagRule triggers a DM toward users posting a given hashtag.
type HashtagRule struct {
	ID         int64
	UserID     string
	Provider   string
	AccountID  int64
	Hashtag    string
	DMTemplate string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PostRule triggers a DM toward users replying to a specific post.
type PostRule struct {
	ID         int64
	UserID     string
	Provider   string
	AccountID  int64
	PostID     string
	PostURL    string
	DMTemplate string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DM run log statuses.
const (
	DMRunStatusInitiated = "initiated"
)

// DM rule types recorded in dm_logs.
const (
	DMRuleTypeHashtag = "hashtag"
	DMRuleTypeReply   = "reply"
)

// DMLog records one triggered DM run.
type DMLog struct {
	ID        int64
	UserID    string
	RuleType  string
	RuleID    int64
	Provider  string
	Status    string
	Detail    string
	CreatedAt time.Time
}

// HandshakeStore persists pending handshakes under both the state id
// and the request token, with a shared TTL. Consume atomically removes
// both records and returns the payload, or (nil, nil) when neither key
// exists.
type HandshakeStore interface {
	Save(ctx context.Context, hs *PendingHandshake, ttl time.Duration) error
	ConsumeByStateID(ctx context.Context, stateID string) (*PendingHandshake, error)
	ConsumeByRequestToken(ctx context.Context, requestToken string) (*PendingHandshake, error)
}

// XOAuthClient performs the three provider round trips of the X OAuth
// 1.0a exchange.
type XOAuthClient interface {
	RequestToken(ctx context.Context, callbackURL string) (*xapi.RequestTokenResponse, error)
	AccessToken(ctx context.Context, requestToken, requestTokenSecret, verifier string) (*xapi.AccessTokenResponse, error)
	VerifyCredentials(ctx context.Context, accessToken, accessTokenSecret string) (*xapi.Profile, error)
}

// AccountRepository persists linked accounts. Upsert returns the row
// after insert-or-reconnect plus whether an active row already existed.
// Lookups return (nil, nil) when no row matches.
type AccountRepository interface {
	Upsert(ctx context.Context, account *LinkedAccount) (*LinkedAccount, bool, error)
	ListActiveByUser(ctx context.Context, userID, provider string) ([]*LinkedAccount, error)
	GetActiveByID(ctx context.Context, userID string, id int64) (*LinkedAccount, error)
	Deactivate(ctx context.Context, userID string, id int64) error
}

// HashtagRuleRepository persists hashtag DM rules.
type HashtagRuleRepository interface {
	Create(ctx context.Context, rule *HashtagRule) (*HashtagRule, error)
	GetByID(ctx context.Context, userID string, id int64) (*HashtagRule, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]*HashtagRule, int64, error)
	Update(ctx context.Context, rule *HashtagRule) (*HashtagRule, error)
	Deactivate(ctx context.Context, userID string, id int64) error
}

// PostRuleRepository persists post-reply DM rules.
type PostRuleRepository interface {
	Create(ctx context.Context, rule *PostRule) (*PostRule, error)
	GetByID(ctx context.Context, userID string, id int64) (*PostRule, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]*PostRule, int64, error)
	Update(ctx context.Context, rule *PostRule) (*PostRule, error)
	Deactivate(ctx context.Context, userID string, id int64) error
}

// DMLogRepository records DM run attempts.
type DMLogRepository interface {
	Create(ctx context.Context, log *DMLog) (*DMLog, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]*DMLog, int64, error)
}
