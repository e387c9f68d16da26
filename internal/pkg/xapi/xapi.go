// Package xapi holds X (Twitter) OAuth 1.0a endpoint constants and
// wire types shared between the repository client and the services.
package xapi

import (
	"fmt"
	"net/url"
)

const (
	RequestTokenURL      = "https://api.twitter.com/oauth/request_token"
	AuthenticateURL      = "https://api.twitter.com/oauth/authenticate"
	AccessTokenURL       = "https://api.twitter.com/oauth/access_token"
	VerifyCredentialsURL = "https://api.twitter.com/1.1/account/verify_credentials.json"
)

// RequestTokenResponse is the parsed body of a request_token exchange.
type RequestTokenResponse struct {
	Token             string
	TokenSecret       string
	CallbackConfirmed bool
}

// AccessTokenResponse is the parsed body of an access_token exchange.
type AccessTokenResponse struct {
	Token       string
	TokenSecret string
	UserID      string
	ScreenName  string
}

// Profile is the subset of verify_credentials.json we persist.
type Profile struct {
	IDStr           string `json:"id_str"`
	ScreenName      string `json:"screen_name"`
	Name            string `json:"name"`
	ProfileImageURL string `json:"profile_image_url_https"`
}

// ParseRequestToken parses the form-encoded request_token response body.
func ParseRequestToken(body string) (*RequestTokenResponse, error) {
	vals, err := url.ParseQuery(body)
	if err != nil {
		return nil, fmt.Errorf("xapi: parse request token response: %w", err)
	}
	out := &RequestTokenResponse{
		Token:             vals.Get("oauth_token"),
		TokenSecret:       vals.Get("oauth_token_secret"),
		CallbackConfirmed: vals.Get("oauth_callback_confirmed") == "true",
	}
	if out.Token == "" || out.TokenSecret == "" {
		return nil, fmt.Errorf("xapi: request token response missing oauth_token fields")
	}
	return out, nil
}

// ParseAccessToken parses the form-encoded access_token response body.
func ParseAccessToken(body string) (*AccessTokenResponse, error) {
	vals, err := url.ParseQuery(body)
	if err != nil {
		return nil, fmt.Errorf("xapi: parse access token response: %w", err)
	}
	out := &AccessTokenResponse{
		Token:       vals.Get("oauth_token"),
		TokenSecret: vals.Get("oauth_token_secret"),
		UserID:      vals.Get("user_id"),
		ScreenName:  vals.Get("screen_name"),
	}
	if out.Token == "" || out.TokenSecret == "" {
		return nil, fmt.Errorf("xapi: access token response missing oauth_token fields")
	}
	return out, nil
}

// AuthorizeURL builds the user-facing authorize redirect, carrying the
// handshake state id as an extra query parameter.
func AuthorizeURL(requestToken, stateID string) string {
	q := url.Values{}
	q.Set("oauth_token", requestToken)
	if stateID != "" {
		q.Set("state", stateID)
	}
	return AuthenticateURL + "?" + q.Encode()
}
