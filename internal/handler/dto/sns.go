// Package dto defines the JSON shapes of the public API and the
// mappers from service types. Access tokens never appear here.
package dto

import (
	"time"

	"github.com/sivira/snsdm/internal/service"
)

// LinkedAccount is the public view of a connected SNS account.
// Token fields are deliberately absent.
type LinkedAccount struct {
	ID                int64     `json:"id"`
	Provider          string    `json:"provider"`
	ProviderAccountID string    `json:"provider_account_id"`
	Username          string    `json:"username"`
	DisplayName       string    `json:"display_name"`
	ProfileImageURL   string    `json:"profile_image_url,omitempty"`
	ConnectedAt       time.Time `json:"connected_at"`
}

// LinkedAccountFromService maps a service account to its public view.
func LinkedAccountFromService(src *service.LinkedAccount) *LinkedAccount {
	if src == nil {
		return nil
	}
	return &LinkedAccount{
		ID:                src.ID,
		Provider:          src.Provider,
		ProviderAccountID: src.ProviderAccountID,
		Username:          src.Username,
		DisplayName:       src.DisplayName,
		ProfileImageURL:   src.ProfileImageURL,
		ConnectedAt:       src.ConnectedAt,
	}
}

// LinkedAccountsFromService maps a slice of service accounts.
func LinkedAccountsFromService(src []*service.LinkedAccount) []*LinkedAccount {
	out := make([]*LinkedAccount, 0, len(src))
	for _, a := range src {
		out = append(out, LinkedAccountFromService(a))
	}
	return out
}

// HashtagRule is the public view of a hashtag DM rule.
type HashtagRule struct {
	ID         int64     `json:"id"`
	Provider   string    `json:"provider"`
	AccountID  int64     `json:"account_id"`
	Hashtag    string    `json:"hashtag"`
	DMTemplate string    `json:"dm_template"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HashtagRuleFromService maps a service rule to its public view.
func HashtagRuleFromService(src *service.HashtagRule) *HashtagRule {
	if src == nil {
		return nil
	}
	return &HashtagRule{
		ID:         src.ID,
		Provider:   src.Provider,
		AccountID:  src.AccountID,
		Hashtag:    src.Hashtag,
		DMTemplate: src.DMTemplate,
		IsActive:   src.IsActive,
		CreatedAt:  src.CreatedAt,
		UpdatedAt:  src.UpdatedAt,
	}
}

// HashtagRulesFromService maps a slice of service rules.
func HashtagRulesFromService(src []*service.HashtagRule) []*HashtagRule {
	out := make([]*HashtagRule, 0, len(src))
	for _, r := range src {
		out = append(out, HashtagRuleFromService(r))
	}
	return out
}

// PostRule is the public view of a post-reply DM rule.
type PostRule struct {
	ID         int64     `json:"id"`
	Provider   string    `json:"provider"`
	AccountID  int64     `json:"account_id"`
	PostID     string    `json:"post_id"`
	PostURL    string    `json:"post_url,omitempty"`
	DMTemplate string    `json:"dm_template"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PostRuleFromService maps a service rule to its public view.
func PostRuleFromService(src *service.PostRule) *PostRule {
	if src == nil {
		return nil
	}
	return &PostRule{
		ID:         src.ID,
		Provider:   src.Provider,
		AccountID:  src.AccountID,
		PostID:     src.PostID,
		PostURL:    src.PostURL,
		DMTemplate: src.DMTemplate,
		IsActive:   src.IsActive,
		CreatedAt:  src.CreatedAt,
		UpdatedAt:  src.UpdatedAt,
	}
}

// PostRulesFromService maps a slice of service rules.
func PostRulesFromService(src []*service.PostRule) []*PostRule {
	out := make([]*PostRule, 0, len(src))
	for _, r := range src {
		out = append(out, PostRuleFromService(r))
	}
	return out
}

// DMLog is the public view of one DM run.
type DMLog struct {
	ID        int64     `json:"id"`
	RuleType  string    `json:"rule_type"`
	RuleID    int64     `json:"rule_id"`
	Provider  string    `json:"provider"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DMLogsFromService maps a slice of service DM logs.
func DMLogsFromService(src []*service.DMLog) []*DMLog {
	out := make([]*DMLog, 0, len(src))
	for _, l := range src {
		out = append(out, &DMLog{
			ID:        l.ID,
			RuleType:  l.RuleType,
			RuleID:    l.RuleID,
			Provider:  l.Provider,
			Status:    l.Status,
			Detail:    l.Detail,
			CreatedAt: l.CreatedAt,
		})
	}
	return out
}
