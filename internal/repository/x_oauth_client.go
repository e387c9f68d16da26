package repository

import (
	"context"
	"net/http"
	"time"

	"github.com/imroc/req/v3"

	infraerrors "github.com/sivira/snsdm/internal/pkg/errors"
	"github.com/sivira/snsdm/internal/pkg/oauth1"
	"github.com/sivira/snsdm/internal/pkg/xapi"
	"github.com/sivira/snsdm/internal/service"
)

// XOAuthConfig holds the X app credentials and an optional outbound proxy.
type XOAuthConfig struct {
	ConsumerKey    string
	ConsumerSecret string
	ProxyURL       string
}

// NewXOAuthClient creates an X (Twitter) OAuth 1.0a client.
func NewXOAuthClient(cfg XOAuthConfig) service.XOAuthClient {
	return &xOAuthClient{
		cfg:                  cfg,
		requestTokenURL:      xapi.RequestTokenURL,
		accessTokenURL:       xapi.AccessTokenURL,
		verifyCredentialsURL: xapi.VerifyCredentialsURL,
	}
}

type xOAuthClient struct {
	cfg XOAuthConfig

	// endpoint URLs are fields so package tests can point them at a stub server
	requestTokenURL      string
	accessTokenURL       string
	verifyCredentialsURL string
}

func (c *xOAuthClient) creds(token, tokenSecret string) oauth1.Credentials {
	return oauth1.Credentials{
		ConsumerKey:    c.cfg.ConsumerKey,
		ConsumerSecret: c.cfg.ConsumerSecret,
		Token:          token,
		TokenSecret:    tokenSecret,
	}
}

func (c *xOAuthClient) httpClient() *req.Client {
	return getSharedReqClient(reqClientOptions{
		ProxyURL: c.cfg.ProxyURL,
		Timeout:  15 * time.Second,
	})
}

func (c *xOAuthClient) RequestToken(ctx context.Context, callbackURL string) (*xapi.RequestTokenResponse, error) {
	auth, err := oauth1.AuthorizationHeader(c.creds("", ""), http.MethodPost, c.requestTokenURL,
		map[string]string{"oauth_callback": callbackURL})
	if err != nil {
		return nil, infraerrors.Newf(http.StatusBadGateway, "X_OAUTH_SIGN_FAILED", "sign request token: %v", err)
	}

	resp, err := c.httpClient().R().
		SetContext(ctx).
		SetHeader("Authorization", auth).
		Post(c.requestTokenURL)
	if err != nil {
		return nil, infraerrors.Newf(http.StatusBadGateway, "X_OAUTH_REQUEST_FAILED", "request failed: %v", err)
	}
	if !resp.IsSuccessState() {
		return nil, infraerrors.Newf(http.StatusBadGateway, "X_OAUTH_REQUEST_TOKEN_FAILED", "request token failed: status %d, body: %s", resp.StatusCode, resp.String())
	}

	tok, err := xapi.ParseRequestToken(resp.String())
	if err != nil {
		return nil, infraerrors.Newf(http.StatusBadGateway, "X_OAUTH_REQUEST_TOKEN_FAILED", "parse request token: %v", err)
	}
	if !tok.CallbackConfirmed {
		return nil, infraerrors.New(http.StatusBadGateway, "X_OAUTH_CALLBACK_REJECTED", "oauth_callback was not confirmed")
	}
	return tok, nil
}

func (c *xOAuthClient) AccessToken(ctx context.Context, requestToken, requestTokenSecret, verifier string) (*xapi.AccessTokenResponse, error) {
	auth, err := oauth1.AuthorizationHeader(c.creds(requestToken, requestTokenSecret), http.MethodPost, c.accessTokenURL,
		map[string]string{"oauth_verifier": verifier})
	if err != nil {
		return nil, infraerrors.Newf(http.StatusBadGateway, "X_OAUTH_SIGN_FAILED", "sign access token: %v", err)
	}

	resp, err := c.httpClient().R().
		SetContext(ctx).
		SetHeader("Authorization", auth).
		Post(c.accessTokenURL)
	if err != nil {
		return nil, infraerrors.Newf(http.StatusBadGateway, "X_OAUTH_REQUEST_FAILED", "request failed: %v", err)
	}
	if !resp.IsSuccessState() {
		return nil, infraerrors.Newf(http.StatusBadGateway, "X_OAUTH_TOKEN_EXCHANGE_FAILED", "token exchange failed: status %d, body: %s", resp.StatusCode, resp.String())
	}

	tok, err := xapi.ParseAccessToken(resp.String())
	if err != nil {
		return nil, infraerrors.Newf(http.StatusBadGateway, "X_OAUTH_TOKEN_EXCHANGE_FAILED", "parse access token: %v", err)
	}
	return tok, nil
}

func (c *xOAuthClient) VerifyCredentials(ctx context.Context, accessToken, accessTokenSecret string) (*xapi.Profile, error) {
	// skip_status keeps the payload small; we only need the identity fields
	verifyURL := c.verifyCredentialsURL + "?skip_status=true"
	auth, err := oauth1.AuthorizationHeader(c.creds(accessToken, accessTokenSecret), http.MethodGet, verifyURL, nil)
	if err != nil {
		return nil, infraerrors.Newf(http.StatusBadGateway, "X_OAUTH_SIGN_FAILED", "sign verify_credentials: %v", err)
	}

	var profile xapi.Profile
	resp, err := c.httpClient().R().
		SetContext(ctx).
		SetHeader("Authorization", auth).
		SetSuccessResult(&profile).
		Get(verifyURL)
	if err != nil {
		return nil, infraerrors.Newf(http.StatusBadGateway, "X_OAUTH_REQUEST_FAILED", "request failed: %v", err)
	}
	if !resp.IsSuccessState() {
		return nil, infraerrors.Newf(http.StatusBadGateway, "X_PROFILE_FETCH_FAILED", "verify_credentials failed: status %d, body: %s", resp.StatusCode, resp.String())
	}
	if profile.IDStr == "" {
		return nil, infraerrors.New(http.StatusBadGateway, "X_PROFILE_FETCH_FAILED", "verify_credentials returned no account id")
	}
	return &profile, nil
}
