//go:build unit

package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	infraerrors "github.com/sivira/snsdm/internal/pkg/errors"
)

// newStubXClient 将三个端点指向同一个 stub server。
func newStubXClient(srv *httptest.Server) *xOAuthClient {
	return &xOAuthClient{
		cfg:                  XOAuthConfig{ConsumerKey: "ck", ConsumerSecret: "cs"},
		requestTokenURL:      srv.URL + "/oauth/request_token",
		accessTokenURL:       srv.URL + "/oauth/access_token",
		verifyCredentialsURL: srv.URL + "/1.1/account/verify_credentials.json",
	}
}

func TestXOAuthClient_RequestToken(t *testing.T) {
	t.Parallel()

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("oauth_token=rt-1&oauth_token_secret=rts-1&oauth_callback_confirmed=true"))
	}))
	defer srv.Close()

	tok, err := newStubXClient(srv).RequestToken(context.Background(), "https://api.example.com/callback/x")
	require.NoError(t, err)
	require.Equal(t, "rt-1", tok.Token)
	require.Equal(t, "rts-1", tok.TokenSecret)

	// 签名头携带 callback，不携带 token
	require.True(t, strings.HasPrefix(gotAuth, "OAuth "))
	require.Contains(t, gotAuth, "oauth_callback=")
	require.Contains(t, gotAuth, "oauth_signature=")
	require.NotContains(t, gotAuth, "oauth_token=")
}

func TestXOAuthClient_RequestToken_CallbackRejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("oauth_token=rt-1&oauth_token_secret=rts-1&oauth_callback_confirmed=false"))
	}))
	defer srv.Close()

	_, err := newStubXClient(srv).RequestToken(context.Background(), "https://api.example.com/callback/x")
	require.Equal(t, "X_OAUTH_CALLBACK_REJECTED", infraerrors.Reason(err))
}

func TestXOAuthClient_RequestToken_UpstreamError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"code":32}]}`))
	}))
	defer srv.Close()

	_, err := newStubXClient(srv).RequestToken(context.Background(), "https://api.example.com/callback/x")
	require.Equal(t, "X_OAUTH_REQUEST_TOKEN_FAILED", infraerrors.Reason(err))
	require.Equal(t, http.StatusBadGateway, infraerrors.Code(err))
}

func TestXOAuthClient_AccessToken(t *testing.T) {
	t.Parallel()

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("oauth_token=at-1&oauth_token_secret=ats-1&user_id=42&screen_name=alice"))
	}))
	defer srv.Close()

	tok, err := newStubXClient(srv).AccessToken(context.Background(), "rt-1", "rts-1", "ver-1")
	require.NoError(t, err)
	require.Equal(t, "at-1", tok.Token)
	require.Equal(t, "42", tok.UserID)
	require.Equal(t, "alice", tok.ScreenName)

	require.Contains(t, gotAuth, `oauth_token="rt-1"`)
	require.Contains(t, gotAuth, `oauth_verifier="ver-1"`)
}

func TestXOAuthClient_VerifyCredentials(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "true", r.URL.Query().Get("skip_status"))
		require.Contains(t, r.Header.Get("Authorization"), `oauth_token="at-1"`)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id_str":"42","screen_name":"alice","name":"Alice","profile_image_url_https":"https://pbs.example.com/alice.png"}`))
	}))
	defer srv.Close()

	profile, err := newStubXClient(srv).VerifyCredentials(context.Background(), "at-1", "ats-1")
	require.NoError(t, err)
	require.Equal(t, "42", profile.IDStr)
	require.Equal(t, "alice", profile.ScreenName)
	require.Equal(t, "Alice", profile.Name)
}

func TestXOAuthClient_VerifyCredentials_EmptyProfile(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := newStubXClient(srv).VerifyCredentials(context.Background(), "at-1", "ats-1")
	require.Equal(t, "X_PROFILE_FETCH_FAILED", infraerrors.Reason(err))
}
