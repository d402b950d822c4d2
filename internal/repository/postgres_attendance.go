package repository

import (
	"context"
	"database/sql"
	"fmt"

	"winnersfit-data/internal/domain"
)

// PostgresAttendanceRepository 考勤日志Repository实现
type PostgresAttendanceRepository struct {
	db *sql.DB
}

// NewPostgresAttendanceRepository 创建考勤日志Repository
func NewPostgresAttendanceRepository(db *sql.DB) *PostgresAttendanceRepository {
	return &PostgresAttendanceRepository{db: db}
}

var _ AttendanceRepository = (*PostgresAttendanceRepository)(nil)

// AppendEntry 追加一条考勤日志，timestamp 用服务端时间
func (r *PostgresAttendanceRepository) AppendEntry(ctx context.Context, e *domain.AttendanceEntry) (string, error) {
	query := `
		INSERT INTO attendance_logs (staff_id, staff_name, action, ts, time_label, date_label, log_date, device_id)
		VALUES ($1, $2, $3, now(), $4, $5, $6::date, NULLIF($7, ''))
		RETURNING entry_id::text
	`

	var id string
	err := r.db.QueryRowContext(ctx, query,
		e.StaffID, e.StaffName, e.Action, e.TimeLabel, e.DateLabel, e.LogDate, e.DeviceID,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("append attendance entry: %w", err)
	}
	return id, nil
}

// ListRecent 最近的考勤日志（HR 页面用）
func (r *PostgresAttendanceRepository) ListRecent(ctx context.Context, limit int) ([]*domain.AttendanceEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT entry_id::text, staff_id::text, staff_name, action, ts, time_label, date_label, log_date::text, COALESCE(device_id, '')
		FROM attendance_logs
		ORDER BY ts DESC
		LIMIT $1
	`
	return r.queryEntries(ctx, query, limit)
}

// CountActionOnDate 写前去重查询
func (r *PostgresAttendanceRepository) CountActionOnDate(ctx context.Context, staffID, logDate, action string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM attendance_logs
		WHERE staff_id::text = $1 AND log_date = $2::date AND action = $3
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, staffID, logDate, action).Scan(&count); err != nil {
		return 0, fmt.Errorf("count attendance action: %w", err)
	}
	return count, nil
}

// ListByRange 按日期范围查询（报表导出用）
func (r *PostgresAttendanceRepository) ListByRange(ctx context.Context, from, to string) ([]*domain.AttendanceEntry, error) {
	query := `
		SELECT entry_id::text, staff_id::text, staff_name, action, ts, time_label, date_label, log_date::text, COALESCE(device_id, '')
		FROM attendance_logs
		WHERE log_date BETWEEN $1::date AND $2::date
		ORDER BY ts ASC
	`
	return r.queryEntries(ctx, query, from, to)
}

func (r *PostgresAttendanceRepository) queryEntries(ctx context.Context, query string, args ...interface{}) ([]*domain.AttendanceEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attendance entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.AttendanceEntry
	for rows.Next() {
		var e domain.AttendanceEntry
		if err := rows.Scan(
			&e.ID, &e.StaffID, &e.StaffName, &e.Action,
			&e.Timestamp, &e.TimeLabel, &e.DateLabel, &e.LogDate, &e.DeviceID,
		); err != nil {
			return nil, fmt.Errorf("scan attendance entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
