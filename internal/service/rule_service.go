package service

import (
	"context"
	"net/http"
	"strings"

	infraerrors "github.com/sivira/snsdm/internal/pkg/errors"
	"github.com/sivira/snsdm/internal/util/urlvalidator"
)

// RuleService manages the hashtag and post-reply DM rules.
type RuleService struct {
	hashtags HashtagRuleRepository
	posts    PostRuleRepository
	accounts AccountRepository
}

// NewRuleService creates a RuleService.
func NewRuleService(hashtags HashtagRuleRepository, posts PostRuleRepository, accounts AccountRepository) *RuleService {
	return &RuleService{hashtags: hashtags, posts: posts, accounts: accounts}
}

// RegisterHashtagRule creates a hashtag DM rule bound to one of the
// caller's linked accounts.
func (s *RuleService) RegisterHashtagRule(ctx context.Context, userID string, accountID int64, hashtag, dmTemplate string) (*HashtagRule, error) {
	hashtag = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(hashtag), "#"))
	if hashtag == "" {
		return nil, infraerrors.BadRequest("INVALID_RULE", "hashtag is required")
	}
	if dmTemplate == "" {
		return nil, infraerrors.BadRequest("INVALID_RULE", "dm_template is required")
	}

	account, err := s.accounts.GetActiveByID(ctx, userID, accountID)
	if err != nil {
		return nil, infraerrors.New(http.StatusInternalServerError, "ACCOUNT_QUERY_FAILED", "failed to load linked account")
	}
	if account == nil {
		return nil, infraerrors.NotFound("ACCOUNT_NOT_FOUND", "linked account not found")
	}

	rule, err := s.hashtags.Create(ctx, &HashtagRule{
		UserID:     userID,
		Provider:   account.Provider,
		AccountID:  accountID,
		Hashtag:    hashtag,
		DMTemplate: dmTemplate,
		IsActive:   true,
	})
	if err != nil {
		return nil, infraerrors.New(http.StatusInternalServerError, "RULE_PERSIST_FAILED", "failed to create hashtag rule")
	}
	return rule, nil
}

// ListHashtagRules returns the caller's hashtag rules, paginated.
func (s *RuleService) ListHashtagRules(ctx context.Context, userID string, offset, limit int) ([]*HashtagRule, int64, error) {
	rules, total, err := s.hashtags.ListByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, 0, infraerrors.New(http.StatusInternalServerError, "RULE_QUERY_FAILED", "failed to list hashtag rules")
	}
	return rules, total, nil
}

// UpdateHashtagRule updates the mutable fields of a caller-owned rule.
func (s *RuleService) UpdateHashtagRule(ctx context.Context, userID string, id int64, hashtag, dmTemplate string, isActive *bool) (*HashtagRule, error) {
	rule, err := s.hashtags.GetByID(ctx, userID, id)
	if err != nil {
		return nil, infraerrors.New(http.StatusInternalServerError, "RULE_QUERY_FAILED", "failed to load hashtag rule")
	}
	if rule == nil {
		return nil, infraerrors.NotFound("RULE_NOT_FOUND", "hashtag rule not found")
	}

	if hashtag != "" {
		rule.Hashtag = strings.TrimPrefix(strings.TrimSpace(hashtag), "#")
	}
	if dmTemplate != "" {
		rule.DMTemplate = dmTemplate
	}
	if isActive != nil {
		rule.IsActive = *isActive
	}

	updated, err := s.hashtags.Update(ctx, rule)
	if err != nil {
		return nil, infraerrors.New(http.StatusInternalServerError, "RULE_PERSIST_FAILED", "failed to update hashtag rule")
	}
	return updated, nil
}

// DeleteHashtagRule soft-deletes a caller-owned hashtag rule.
func (s *RuleService) DeleteHashtagRule(ctx context.Context, userID string, id int64) error {
	rule, err := s.hashtags.GetByID(ctx, userID, id)
	if err != nil {
		return infraerrors.New(http.StatusInternalServerError, "RULE_QUERY_FAILED", "failed to load hashtag rule")
	}
	if rule == nil {
		return infraerrors.NotFound("RULE_NOT_FOUND", "hashtag rule not found")
	}
	if err := s.hashtags.Deactivate(ctx, userID, id); err != nil {
		return infraerrors.New(http.StatusInternalServerError, "RULE_PERSIST_FAILED", "failed to delete hashtag rule")
	}
	return nil
}

// RegisterPostRule creates a post-reply DM rule bound to one of the
// caller's linked accounts.
func (s *RuleService) RegisterPostRule(ctx context.Context, userID string, accountID int64, postID, postURL, dmTemplate string) (*PostRule, error) {
	if postID == "" && postURL == "" {
		return nil, infraerrors.BadRequest("INVALID_RULE", "post_id or post_url is required")
	}
	if dmTemplate == "" {
		return nil, infraerrors.BadRequest("INVALID_RULE", "dm_template is required")
	}
	if postURL != "" {
		normalized, err := urlvalidator.ValidateURLFormat(postURL, false)
		if err != nil {
			return nil, infraerrors.BadRequest("INVALID_RULE", "post_url is not a valid https url")
		}
		postURL = normalized
	}

	account, err := s.accounts.GetActiveByID(ctx, userID, accountID)
	if err != nil {
		return nil, infraerrors.New(http.StatusInternalServerError, "ACCOUNT_QUERY_FAILED", "failed to load linked account")
	}
	if account == nil {
		return nil, infraerrors.NotFound("ACCOUNT_NOT_FOUND", "linked account not found")
	}

	rule, err := s.posts.Create(ctx, &PostRule{
		UserID:     userID,
		Provider:   account.Provider,
		AccountID:  accountID,
		PostID:     postID,
		PostURL:    postURL,
		DMTemplate: dmTemplate,
		IsActive:   true,
	})
	if err != nil {
		return nil, infraerrors.New(http.StatusInternalServerError, "RULE_PERSIST_FAILED", "failed to create post rule")
	}
	return rule, nil
}

// ListPostRules returns the caller's post rules, paginated.
func (s *RuleService) ListPostRules(ctx context.Context, userID string, offset, limit int) ([]*PostRule, int64, error) {
	rules, total, err := s.posts.ListByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, 0, infraerrors.New(http.StatusInternalServerError, "RULE_QUERY_FAILED", "failed to list post rules")
	}
	return rules, total, nil
}

// UpdatePostRule updates the mutable fields of a caller-owned rule.
func (s *RuleService) UpdatePostRule(ctx context.Context, userID string, id int64, postID, postURL, dmTemplate string, isActive *bool) (*PostRule, error) {
	rule, err := s.posts.GetByID(ctx, userID, id)
	if err != nil {
		return nil, infraerrors.New(http.StatusInternalServerError, "RULE_QUERY_FAILED", "failed to load post rule")
	}
	if rule == nil {
		return nil, infraerrors.NotFound("RULE_NOT_FOUND", "post rule not found")
	}

	if postID != "" {
		rule.PostID = postID
	}
	if postURL != "" {
		normalized, err := urlvalidator.ValidateURLFormat(postURL, false)
		if err != nil {
			return nil, infraerrors.BadRequest("INVALID_RULE", "post_url is not a valid https url")
		}
		rule.PostURL = normalized
	}
	if dmTemplate != "" {
		rule.DMTemplate = dmTemplate
	}
	if isActive != nil {
		rule.IsActive = *isActive
	}

	updated, err := s.posts.Update(ctx, rule)
	if err != nil {
		return nil, infraerrors.New(http.StatusInternalServerError, "RULE_PERSIST_FAILED", "failed to update post rule")
	}
	return updated, nil
}

// DeletePostRule soft-deletes a caller-owned post rule.
func (s *RuleService) DeletePostRule(ctx context.Context, userID string, id int64) error {
	rule, err := s.posts.GetByID(ctx, userID, id)
	if err != nil {
		return infraerrors.New(http.StatusInternalServerError, "RULE_QUERY_FAILED", "failed to load post rule")
	}
	if rule == nil {
		return infraerrors.NotFound("RULE_NOT_FOUND", "post rule not found")
	}
	if err := s.posts.Deactivate(ctx, userID, id); err != nil {
		return infraerrors.New(http.StatusInternalServerError, "RULE_PERSIST_FAILED", "failed to delete post rule")
	}
	return nil
}
