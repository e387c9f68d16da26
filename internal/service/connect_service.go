package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	infraerrors "github.com/sivira/snsdm/internal/pkg/errors"
	"github.com/sivira/snsdm/internal/pkg/logger"
	"github.com/sivira/snsdm/internal/pkg/xapi"
	"github.com/sivira/snsdm/internal/util/urlvalidator"
)

// handshakeTTL bounds how long a pending handshake may wait for the
// provider callback before it expires.
const handshakeTTL = 10 * time.Minute

// stateIDBytes is the entropy of the correlation state id (hex doubles it).
const stateIDBytes = 32

// readRandomBytes can be swapped in tests for deterministic state ids.
var readRandomBytes = rand.Read

// ProviderApp holds the OAuth app registration for a placeholder
// provider (no token exchange implemented yet).
type ProviderApp struct {
	ClientID     string
	AuthorizeURL string
	RedirectURI  string
}

// ConnectConfig carries the per-provider app settings the engine needs.
type ConnectConfig struct {
	// XCallbackURL is the oauth_callback sent with the request token.
	XCallbackURL string
	// FrontendURL receives non-X callback redirects.
	FrontendURL string
	// Apps maps placeholder providers to their registrations.
	Apps map[string]ProviderApp
}

// ConnectStart is the outcome of BeginConnect.
type ConnectStart struct {
	Provider    string
	AuthURL     string
	DMSupported bool
}

// CallbackResult is the outcome of a completed X callback.
type CallbackResult struct {
	Provider   string
	Account    *LinkedAccount
	IsExisting bool
}

// ConnectService drives the OAuth handshake: it opens the exchange,
// parks correlation state, and completes the callback into a linked
// account.
type ConnectService struct {
	handshakes HandshakeStore
	xClient    XOAuthClient
	accountSvc *AccountService
	cfg        ConnectConfig
}

// NewConnectService creates the handshake engine.
func NewConnectService(handshakes HandshakeStore, xClient XOAuthClient, accountSvc *AccountService, cfg ConnectConfig) *ConnectService {
	return &ConnectService{
		handshakes: handshakes,
		xClient:    xClient,
		accountSvc: accountSvc,
		cfg:        cfg,
	}
}

// BeginConnect opens an OAuth exchange for the caller and returns the
// authorize URL the popup should navigate to. For X this obtains a
// request token and parks the pending handshake; no state survives a
// failed token request.
func (s *ConnectService) BeginConnect(ctx context.Context, userID, provider string) (*ConnectStart, error) {
	if !KnownProvider(provider) {
		return nil, infraerrors.BadRequest("INVALID_PROVIDER", "unsupported provider: "+provider)
	}

	if provider != ProviderX {
		return s.beginPlaceholder(userID, provider)
	}

	tok, err := s.xClient.RequestToken(ctx, s.cfg.XCallbackURL)
	if err != nil {
		return nil, infraerrors.New(http.StatusBadGateway, "OAUTH_SETUP_FAILED", "failed to obtain request token").WithMetadata(map[string]string{
			"provider": provider,
		})
	}

	stateID, err := newStateID()
	if err != nil {
		return nil, infraerrors.New(http.StatusInternalServerError, "STATE_PERSIST_FAILED", "failed to generate handshake state")
	}

	hs := &PendingHandshake{
		StateID:            stateID,
		UserID:             userID,
		Provider:           provider,
		RequestToken:       tok.Token,
		RequestTokenSecret: tok.TokenSecret,
		CreatedAt:          time.Now().UTC(),
	}
	if err := s.handshakes.Save(ctx, hs, handshakeTTL); err != nil {
		logger.L().With(
			zap.String("component", "service.connect"),
			zap.String("provider", provider),
			zap.Error(err),
		).Error("failed to persist pending handshake")
		return nil, infraerrors.New(http.StatusInternalServerError, "STATE_PERSIST_FAILED", "failed to persist handshake state")
	}

	logger.L().With(
		zap.String("component", "service.connect"),
		zap.String("provider", provider),
		zap.String("user_id", userID),
	).Info("oauth handshake opened")

	return &ConnectStart{
		Provider:    provider,
		AuthURL:     xapi.AuthorizeURL(tok.Token, stateID),
		DMSupported: true,
	}, nil
}

// beginPlaceholder builds an authorize URL for providers whose token
// exchange is not implemented. The callback for these redirects back to
// the frontend with a not_implemented status.
func (s *ConnectService) beginPlaceholder(userID, provider string) (*ConnectStart, error) {
	app, ok := s.cfg.Apps[provider]
	if !ok || app.AuthorizeURL == "" {
		return nil, infraerrors.BadRequest("INVALID_PROVIDER", "provider not configured: "+provider)
	}
	authorizeURL, err := urlvalidator.ValidateHTTPURL(app.AuthorizeURL, false, urlvalidator.ValidationOptions{})
	if err != nil {
		return nil, infraerrors.BadRequest("INVALID_PROVIDER", "provider authorize url is invalid: "+provider)
	}

	stateID, err := newStateID()
	if err != nil {
		return nil, infraerrors.New(http.StatusInternalServerError, "STATE_PERSIST_FAILED", "failed to generate handshake state")
	}

	q := url.Values{}
	q.Set("client_id", app.ClientID)
	q.Set("redirect_uri", app.RedirectURI)
	q.Set("response_type", "code")
	q.Set("state", stateID)

	return &ConnectStart{
		Provider:    provider,
		AuthURL:     authorizeURL + "?" + q.Encode(),
		DMSupported: false,
	}, nil
}

// CompleteCallback consumes the pending handshake and finishes the X
// exchange: access token, profile fetch, account upsert. Consumption is
// atomic and removes both correlation records up front, so every
// outcome — success or any later failure — leaves no state behind.
func (s *ConnectService) CompleteCallback(ctx context.Context, provider, requestToken, verifier, stateID string) (*CallbackResult, error) {
	if provider != ProviderX {
		return nil, infraerrors.BadRequest("PROVIDER_NOT_IMPLEMENTED", "callback exchange is only implemented for x")
	}
	if requestToken == "" || verifier == "" {
		return nil, infraerrors.BadRequest("INVALID_CALLBACK", "missing oauth_token or oauth_verifier")
	}

	hs, err := s.resolveHandshake(ctx, requestToken, stateID)
	if err != nil {
		return nil, err
	}
	if hs == nil {
		return nil, infraerrors.NotFound("HANDSHAKE_NOT_FOUND", "handshake not found or expired").WithMetadata(map[string]string{
			"provider": provider,
		})
	}

	access, err := s.xClient.AccessToken(ctx, requestToken, hs.RequestTokenSecret, verifier)
	if err != nil {
		return nil, infraerrors.New(http.StatusBadGateway, "TOKEN_EXCHANGE_FAILED", "access token exchange failed")
	}

	profile, err := s.xClient.VerifyCredentials(ctx, access.Token, access.TokenSecret)
	if err != nil {
		return nil, infraerrors.New(http.StatusBadGateway, "PROFILE_FETCH_FAILED", "failed to fetch account profile")
	}

	account, existing, err := s.accountSvc.UpsertFromProfile(ctx, hs.UserID, provider, profile, access.Token, access.TokenSecret)
	if err != nil {
		return nil, infraerrors.New(http.StatusInternalServerError, "ACCOUNT_PERSIST_FAILED", "failed to persist linked account")
	}

	logger.L().With(
		zap.String("component", "service.connect"),
		zap.String("provider", provider),
		zap.String("user_id", hs.UserID),
		zap.Bool("existing", existing),
	).Info("oauth handshake completed")

	return &CallbackResult{Provider: provider, Account: account, IsExisting: existing}, nil
}

// FrontendRedirectURL builds the not_implemented redirect target for
// providers without a callback exchange.
func (s *ConnectService) FrontendRedirectURL(provider string) string {
	q := url.Values{}
	q.Set("sns_connected", provider)
	q.Set("status", "not_implemented")
	return s.cfg.FrontendURL + "/dashboard?" + q.Encode()
}

// resolveHandshake looks up the pending handshake by state id first,
// then by request token for providers that drop the state echo. Either
// hit consumes both records.
func (s *ConnectService) resolveHandshake(ctx context.Context, requestToken, stateID string) (*PendingHandshake, error) {
	if stateID != "" {
		hs, err := s.handshakes.ConsumeByStateID(ctx, stateID)
		if err != nil {
			return nil, infraerrors.New(http.StatusInternalServerError, "STATE_PERSIST_FAILED", "handshake store lookup failed")
		}
		if hs != nil {
			return hs, nil
		}
	}
	hs, err := s.handshakes.ConsumeByRequestToken(ctx, requestToken)
	if err != nil {
		return nil, infraerrors.New(http.StatusInternalServerError, "STATE_PERSIST_FAILED", "handshake store lookup failed")
	}
	return hs, nil
}

func newStateID() (string, error) {
	buf := make([]byte, stateIDBytes)
	if _, err := readRandomBytes(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
