package repository

import (
	"context"
	"database/sql"

	"github.com/sivira/snsdm/internal/service"
)

// dmLogRepository 实现 service.DMLogRepository 接口。
// dm_logs 是追加型日志表，没有更新与删除。
type dmLogRepository struct {
	sql *sql.DB
}

// NewDMLogRepository 创建 DM 运行日志仓储实例
func NewDMLogRepository(sqlDB *sql.DB) service.DMLogRepository {
	return &dmLogRepository{sql: sqlDB}
}

func (r *dmLogRepository) Create(ctx context.Context, log *service.DMLog) (*service.DMLog, error) {
	row := r.sql.QueryRowContext(ctx, `
		INSERT INTO dm_logs (user_id, rule_type, rule_id, provider, status, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, user_id, rule_type, rule_id, provider, status, detail, created_at
	`, log.UserID, log.RuleType, log.RuleID, log.Provider, log.Status, log.Detail)

	var dl service.DMLog
	if err := row.Scan(&dl.ID, &dl.UserID, &dl.RuleType, &dl.RuleID,
		&dl.Provider, &dl.Status, &dl.Detail, &dl.CreatedAt); err != nil {
		return nil, err
	}
	return &dl, nil
}

func (r *dmLogRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*service.DMLog, int64, error) {
	var total int64
	if err := r.sql.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM dm_logs WHERE user_id = $1
	`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.sql.QueryContext(ctx, `
		SELECT id, user_id, rule_type, rule_id, provider, status, detail, created_at
		FROM dm_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3
	`, userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = rows.Close() }()

	var out []*service.DMLog
	for rows.Next() {
		var dl service.DMLog
		if err := rows.Scan(&dl.ID, &dl.UserID, &dl.RuleType, &dl.RuleID,
			&dl.Provider, &dl.Status, &dl.Detail, &dl.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, &dl)
	}
	return out, total, rows.Err()
}
