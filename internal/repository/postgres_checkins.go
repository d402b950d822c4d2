package repository

import (
	"context"
	"database/sql"
	"fmt"

	"winnersfit-data/internal/domain"
)

// PostgresCheckInsRepository 会员入场记录Repository实现
type PostgresCheckInsRepository struct {
	db *sql.DB
}

// NewPostgresCheckInsRepository 创建入场记录Repository
func NewPostgresCheckInsRepository(db *sql.DB) *PostgresCheckInsRepository {
	return &PostgresCheckInsRepository{db: db}
}

var _ CheckInsRepository = (*PostgresCheckInsRepository)(nil)

// AppendCheckIn 追加一条入场记录（valid 和 expired 都记，后者用于安防追溯）
func (r *PostgresCheckInsRepository) AppendCheckIn(ctx context.Context, c *domain.CheckIn) (string, error) {
	query := `
		INSERT INTO member_checkins (member_id, member_name, status, status_text, ts, log_date)
		VALUES ($1, $2, $3, $4, now(), $5::date)
		RETURNING checkin_id::text
	`

	var id string
	err := r.db.QueryRowContext(ctx, query,
		c.MemberID, c.MemberName, c.Status, c.StatusText, c.LogDate,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("append checkin: %w", err)
	}
	return id, nil
}

// ListByDate 某天的入场记录，按时间倒序
func (r *PostgresCheckInsRepository) ListByDate(ctx context.Context, logDate string) ([]*domain.CheckIn, error) {
	query := `
		SELECT checkin_id::text, member_id, member_name, status, status_text, ts, log_date::text
		FROM member_checkins
		WHERE log_date = $1::date
		ORDER BY ts DESC
	`

	rows, err := r.db.QueryContext(ctx, query, logDate)
	if err != nil {
		return nil, fmt.Errorf("list checkins: %w", err)
	}
	defer rows.Close()

	var checkins []*domain.CheckIn
	for rows.Next() {
		var c domain.CheckIn
		if err := rows.Scan(&c.ID, &c.MemberID, &c.MemberName, &c.Status, &c.StatusText, &c.Timestamp, &c.LogDate); err != nil {
			return nil, fmt.Errorf("scan checkin: %w", err)
		}
		checkins = append(checkins, &c)
	}
	return checkins, rows.Err()
}

// CountByDate 某天的入场数（仪表盘统计）
func (r *PostgresCheckInsRepository) CountByDate(ctx context.Context, logDate string) (int, error) {
	query := `SELECT COUNT(*) FROM member_checkins WHERE log_date = $1::date`

	var count int
	if err := r.db.QueryRowContext(ctx, query, logDate).Scan(&count); err != nil {
		return 0, fmt.Errorf("count checkins: %w", err)
	}
	return count, nil
}
