package service

import (
	"context"
	"net/http"
	"time"

	infraerrors "github.com/sivira/snsdm/internal/pkg/errors"
	"github.com/sivira/snsdm/internal/pkg/xapi"
)

// AccountService manages linked SNS accounts.
type AccountService struct {
	accounts AccountRepository
}

// NewAccountService creates an AccountService.
func NewAccountService(accounts AccountRepository) *AccountService {
	return &AccountService{accounts: accounts}
}

// UpsertFromProfile persists the account identified by a verified
// profile. A reconnect of an already-linked account refreshes its
// tokens and connected_at only; the bool reports whether the account
// already existed.
func (s *AccountService) UpsertFromProfile(ctx context.Context, userID, provider string, profile *xapi.Profile, accessToken, accessTokenSecret string) (*LinkedAccount, bool, error) {
	account := &LinkedAccount{
		UserID:            userID,
		Provider:          provider,
		ProviderAccountID: profile.IDStr,
		Username:          profile.ScreenName,
		DisplayName:       profile.Name,
		ProfileImageURL:   profile.ProfileImageURL,
		AccessToken:       accessToken,
		AccessTokenSecret: accessTokenSecret,
		ConnectedAt:       time.Now().UTC(),
		IsActive:          true,
	}
	return s.accounts.Upsert(ctx, account)
}

// ListAccounts returns the caller's active linked accounts, optionally
// filtered by provider.
func (s *AccountService) ListAccounts(ctx context.Context, userID, provider string) ([]*LinkedAccount, int64, error) {
	if provider != "" && !KnownProvider(provider) {
		return nil, 0, infraerrors.BadRequest("INVALID_PROVIDER", "unsupported provider: "+provider)
	}
	accounts, err := s.accounts.ListActiveByUser(ctx, userID, provider)
	if err != nil {
		return nil, 0, infraerrors.New(http.StatusInternalServerError, "ACCOUNT_QUERY_FAILED", "failed to list linked accounts")
	}
	return accounts, int64(len(accounts)), nil
}

// Disconnect soft-deletes a linked account owned by the caller.
func (s *AccountService) Disconnect(ctx context.Context, userID string, accountID int64) error {
	account, err := s.accounts.GetActiveByID(ctx, userID, accountID)
	if err != nil {
		return infraerrors.New(http.StatusInternalServerError, "ACCOUNT_QUERY_FAILED", "failed to load linked account")
	}
	if account == nil {
		return infraerrors.NotFound("ACCOUNT_NOT_FOUND", "linked account not found")
	}
	if err := s.accounts.Deactivate(ctx, userID, accountID); err != nil {
		return infraerrors.New(http.StatusInternalServerError, "ACCOUNT_PERSIST_FAILED", "failed to disconnect account")
	}
	return nil
}
