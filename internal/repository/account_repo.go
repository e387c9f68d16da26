package repository

import (
	"context"
	"database/sql"

	"github.com/sivira/snsdm/internal/service"
)

// snsAccountRepository 实现 service.AccountRepository 接口。
// 使用原生 SQL 操作 sns_accounts 表。
//
// 设计说明：
//   - (user_id, provider, provider_account_id) WHERE is_active 上的
//     部分唯一索引保证同一 SNS 账号最多一条活跃记录
//   - Upsert 用 ON CONFLICT ... DO UPDATE 实现重连语义：只刷新令牌与
//     connected_at，展示信息保持首连时的值
//   - RETURNING (xmax <> 0) 区分插入与重连
type snsAccountRepository struct {
	sql *sql.DB
}

// NewSNSAccountRepository 创建 SNS 账号仓储实例
func NewSNSAccountRepository(sqlDB *sql.DB) service.AccountRepository {
	return &snsAccountRepository{sql: sqlDB}
}

const accountColumns = `id, user_id, provider, provider_account_id, username, display_name,
	profile_image_url, access_token, access_token_secret, connected_at, is_active`

func scanAccount(row interface{ Scan(...any) error }) (*service.LinkedAccount, error) {
	var a service.LinkedAccount
	if err := row.Scan(&a.ID, &a.UserID, &a.Provider, &a.ProviderAccountID,
		&a.Username, &a.DisplayName, &a.ProfileImageURL,
		&a.AccessToken, &a.AccessTokenSecret, &a.ConnectedAt, &a.IsActive); err != nil {
		return nil, err
	}
	return &a, nil
}

// Upsert 插入或重连一个 SNS 账号，返回落库后的记录以及是否为重连
func (r *snsAccountRepository) Upsert(ctx context.Context, account *service.LinkedAccount) (*service.LinkedAccount, bool, error) {
	row := r.sql.QueryRowContext(ctx, `
		INSERT INTO sns_accounts (user_id, provider, provider_account_id, username, display_name,
			profile_image_url, access_token, access_token_secret, connected_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)
		ON CONFLICT (user_id, provider, provider_account_id) WHERE is_active DO UPDATE SET
			access_token = EXCLUDED.access_token,
			access_token_secret = EXCLUDED.access_token_secret,
			connected_at = EXCLUDED.connected_at
		RETURNING `+accountColumns+`, (xmax <> 0)
	`, account.UserID, account.Provider, account.ProviderAccountID,
		account.Username, account.DisplayName, account.ProfileImageURL,
		account.AccessToken, account.AccessTokenSecret, account.ConnectedAt)

	var a service.LinkedAccount
	var existing bool
	if err := row.Scan(&a.ID, &a.UserID, &a.Provider, &a.ProviderAccountID,
		&a.Username, &a.DisplayName, &a.ProfileImageURL,
		&a.AccessToken, &a.AccessTokenSecret, &a.ConnectedAt, &a.IsActive, &existing); err != nil {
		return nil, false, err
	}
	return &a, existing, nil
}

// ListActiveByUser 列出用户的活跃账号，provider 为空时不过滤
func (r *snsAccountRepository) ListActiveByUser(ctx context.Context, userID, provider string) ([]*service.LinkedAccount, error) {
	rows, err := r.sql.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM sns_accounts
		WHERE user_id = $1 AND is_active AND ($2 = '' OR provider = $2)
		ORDER BY connected_at DESC
	`, userID, provider)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*service.LinkedAccount
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetActiveByID 按主键获取调用者自己的活跃账号
func (r *snsAccountRepository) GetActiveByID(ctx context.Context, userID string, id int64) (*service.LinkedAccount, error) {
	rows, err := r.sql.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM sns_accounts
		WHERE id = $1 AND user_id = $2 AND is_active
	`, id, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		return nil, rows.Err() // 记录不存在
	}
	return scanAccount(rows)
}

// Deactivate 软删除（断开连接）
func (r *snsAccountRepository) Deactivate(ctx context.Context, userID string, id int64) error {
	result, err := r.sql.ExecContext(ctx, `
		UPDATE sns_accounts
		SET is_active = FALSE
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
