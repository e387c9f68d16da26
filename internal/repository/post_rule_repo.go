package repository

import (
	"context"
	"database/sql"

	"github.com/sivira/snsdm/internal/service"
)

// postRuleRepository 实现 service.PostRuleRepository 接口。
type postRuleRepository struct {
	sql *sql.DB
}

// NewPostRuleRepository 创建帖子回复规则仓储实例
func NewPostRuleRepository(sqlDB *sql.DB) service.PostRuleRepository {
	return &postRuleRepository{sql: sqlDB}
}

const postRuleColumns = `id, user_id, provider, account_id, post_id, post_url, dm_template,
	is_active, created_at, updated_at`

func scanPostRule(row interface{ Scan(...any) error }) (*service.PostRule, error) {
	var pr service.PostRule
	if err := row.Scan(&pr.ID, &pr.UserID, &pr.Provider, &pr.AccountID,
		&pr.PostID, &pr.PostURL, &pr.DMTemplate, &pr.IsActive, &pr.CreatedAt, &pr.UpdatedAt); err != nil {
		return nil, err
	}
	return &pr, nil
}

func (r *postRuleRepository) Create(ctx context.Context, rule *service.PostRule) (*service.PostRule, error) {
	row := r.sql.QueryRowContext(ctx, `
		INSERT INTO post_rules (user_id, provider, account_id, post_id, post_url, dm_template, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW(), NOW())
		RETURNING `+postRuleColumns+`
	`, rule.UserID, rule.Provider, rule.AccountID, rule.PostID, rule.PostURL, rule.DMTemplate)
	return scanPostRule(row)
}

func (r *postRuleRepository) GetByID(ctx context.Context, userID string, id int64) (*service.PostRule, error) {
	rows, err := r.sql.QueryContext(ctx, `
		SELECT `+postRuleColumns+`
		FROM post_rules
		WHERE id = $1 AND user_id = $2 AND is_active
	`, id, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		return nil, rows.Err() // 记录不存在
	}
	return scanPostRule(rows)
}

func (r *postRuleRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*service.PostRule, int64, error) {
	var total int64
	if err := r.sql.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM post_rules WHERE user_id = $1 AND is_active
	`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.sql.QueryContext(ctx, `
		SELECT `+postRuleColumns+`
		FROM post_rules
		WHERE user_id = $1 AND is_active
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3
	`, userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = rows.Close() }()

	var out []*service.PostRule
	for rows.Next() {
		pr, err := scanPostRule(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, pr)
	}
	return out, total, rows.Err()
}

func (r *postRuleRepository) Update(ctx context.Context, rule *service.PostRule) (*service.PostRule, error) {
	row := r.sql.QueryRowContext(ctx, `
		UPDATE post_rules
		SET post_id = $3, post_url = $4, dm_template = $5, is_active = $6, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+postRuleColumns+`
	`, rule.ID, rule.UserID, rule.PostID, rule.PostURL, rule.DMTemplate, rule.IsActive)
	return scanPostRule(row)
}

func (r *postRuleRepository) Deactivate(ctx context.Context, userID string, id int64) error {
	result, err := r.sql.ExecContext(ctx, `
		UPDATE post_rules
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
