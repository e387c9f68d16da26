package repository

import (
	"context"
	"database/sql"

	"github.com/sivira/snsdm/internal/service"
)

// hashtagRuleRepository 实现 service.HashtagRuleRepository 接口。
type hashtagRuleRepository struct {
	sql *sql.DB
}

// NewHashtagRuleRepository 创建话题规则仓储实例
func NewHashtagRuleRepository(sqlDB *sql.DB) service.HashtagRuleRepository {
	return &hashtagRuleRepository{sql: sqlDB}
}

const hashtagRuleColumns = `id, user_id, provider, account_id, hashtag, dm_template,
	is_active, created_at, updated_at`

func scanHashtagRule(row interface{ Scan(...any) error }) (*service.HashtagRule, error) {
	var hr service.HashtagRule
	if err := row.Scan(&hr.ID, &hr.UserID, &hr.Provider, &hr.AccountID,
		&hr.Hashtag, &hr.DMTemplate, &hr.IsActive, &hr.CreatedAt, &hr.UpdatedAt); err != nil {
		return nil, err
	}
	return &hr, nil
}

func (r *hashtagRuleRepository) Create(ctx context.Context, rule *service.HashtagRule) (*service.HashtagRule, error) {
	row := r.sql.QueryRowContext(ctx, `
		INSERT INTO hashtag_rules (user_id, provider, account_id, hashtag, dm_template, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())
		RETURNING `+hashtagRuleColumns+`
	`, rule.UserID, rule.Provider, rule.AccountID, rule.Hashtag, rule.DMTemplate)
	return scanHashtagRule(row)
}

func (r *hashtagRuleRepository) GetByID(ctx context.Context, userID string, id int64) (*service.HashtagRule, error) {
	rows, err := r.sql.QueryContext(ctx, `
		SELECT `+hashtagRuleColumns+`
		FROM hashtag_rules
		WHERE id = $1 AND user_id = $2 AND is_active
	`, id, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		return nil, rows.Err() // 记录不存在
	}
	return scanHashtagRule(rows)
}

func (r *hashtagRuleRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*service.HashtagRule, int64, error) {
	var total int64
	if err := r.sql.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM hashtag_rules WHERE user_id = $1 AND is_active
	`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.sql.QueryContext(ctx, `
		SELECT `+hashtagRuleColumns+`
		FROM hashtag_rules
		WHERE user_id = $1 AND is_active
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3
	`, userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = rows.Close() }()

	var out []*service.HashtagRule
	for rows.Next() {
		hr, err := scanHashtagRule(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, hr)
	}
	return out, total, rows.Err()
}

func (r *hashtagRuleRepository) Update(ctx context.Context, rule *service.HashtagRule) (*service.HashtagRule, error) {
	row := r.sql.QueryRowContext(ctx, `
		UPDATE hashtag_rules
		SET hashtag = $3, dm_template = $4, is_active = $5, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+hashtagRuleColumns+`
	`, rule.ID, rule.UserID, rule.Hashtag, rule.DMTemplate, rule.IsActive)
	return scanHashtagRule(row)
}

func (r *hashtagRuleRepository) Deactivate(ctx context.Context, userID string, id int64) error {
	result, err := r.sql.ExecContext(ctx, `
		UPDATE hashtag_rules
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND is_active
	`, id, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
