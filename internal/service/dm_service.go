package service

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	infraerrors "github.com/sivira/snsdm/internal/pkg/errors"
	"github.com/sivira/snsdm/internal/pkg/logger"
)

// DMService triggers DM runs against registered rules. Only X supports
// DM sending; the actual scan/send pipeline is dispatched elsewhere —
// a run here validates the rule and records the initiation.
type DMService struct {
	hashtags HashtagRuleRepository
	posts    PostRuleRepository
	dmLogs   DMLogRepository
}

// NewDMService creates a DMService.
func NewDMService(hashtags HashtagRuleRepository, posts PostRuleRepository, dmLogs DMLogRepository) *DMService {
	return &DMService{hashtags: hashtags, posts: posts, dmLogs: dmLogs}
}

// RunHashtagDM initiates a DM run for a hashtag rule and returns the
// hashtag being processed.
func (s *DMService) RunHashtagDM(ctx context.Context, userID string, ruleID int64) (string, error) {
	rule, err := s.hashtags.GetByID(ctx, userID, ruleID)
	if err != nil {
		return "", infraerrors.New(http.StatusInternalServerError, "RULE_QUERY_FAILED", "failed to load hashtag rule")
	}
	if rule == nil {
		return "", infraerrors.NotFound("RULE_NOT_FOUND", "hashtag rule not found")
	}
	if rule.Provider != ProviderX {
		return "", infraerrors.BadRequest("DM_NOT_SUPPORTED", "Only X (Twitter) is supported for DM sending")
	}

	if _, err := s.dmLogs.Create(ctx, &DMLog{
		UserID:   userID,
		RuleType: DMRuleTypeHashtag,
		RuleID:   rule.ID,
		Provider: rule.Provider,
		Status:   DMRunStatusInitiated,
		Detail:   fmt.Sprintf("hashtag #%s", rule.Hashtag),
	}); err != nil {
		return "", infraerrors.New(http.StatusInternalServerError, "DM_LOG_FAILED", "failed to record DM run")
	}

	// TODO: wire the search->filter->send pipeline once the X DM API
	// quota is provisioned.
	logger.L().With(
		zap.String("component", "service.dm"),
		zap.String("user_id", userID),
		zap.Int64("rule_id", rule.ID),
		zap.String("hashtag", rule.Hashtag),
	).Info("hashtag DM run initiated")

	return rule.Hashtag, nil
}

// RunReplyDM initiates a DM run for a post-reply rule and returns the
// post id being processed.
func (s *DMService) RunReplyDM(ctx context.Context, userID string, ruleID int64) (string, error) {
	rule, err := s.posts.GetByID(ctx, userID, ruleID)
	if err != nil {
		return "", infraerrors.New(http.StatusInternalServerError, "RULE_QUERY_FAILED", "failed to load post rule")
	}
	if rule == nil {
		return "", infraerrors.NotFound("RULE_NOT_FOUND", "post rule not found")
	}
	if rule.Provider != ProviderX {
		return "", infraerrors.BadRequest("DM_NOT_SUPPORTED", "Only X (Twitter) is supported for DM sending")
	}

	if _, err := s.dmLogs.Create(ctx, &DMLog{
		UserID:   userID,
		RuleType: DMRuleTypeReply,
		RuleID:   rule.ID,
		Provider: rule.Provider,
		Status:   DMRunStatusInitiated,
		Detail:   fmt.Sprintf("post %s", rule.PostID),
	}); err != nil {
		return "", infraerrors.New(http.StatusInternalServerError, "DM_LOG_FAILED", "failed to record DM run")
	}

	logger.L().With(
		zap.String("component", "service.dm"),
		zap.String("user_id", userID),
		zap.Int64("rule_id", rule.ID),
		zap.String("post_id", rule.PostID),
	).Info("reply DM run initiated")

	return rule.PostID, nil
}

// ListDMLogs returns the caller's DM run history, newest first.
func (s *DMService) ListDMLogs(ctx context.Context, userID string, offset, limit int) ([]*DMLog, int64, error) {
	logs, total, err := s.dmLogs.ListByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, 0, infraerrors.New(http.StatusInternalServerError, "DM_LOG_FAILED", "failed to list DM runs")
	}
	return logs, total, nil
}
