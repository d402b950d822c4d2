package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"winnersfit-data/internal/domain"
)

// PostgresMembersRepository 会员Repository实现
type PostgresMembersRepository struct {
	db *sql.DB
}

// NewPostgresMembersRepository 创建会员Repository
func NewPostgresMembersRepository(db *sql.DB) *PostgresMembersRepository {
	return &PostgresMembersRepository{db: db}
}

// 确保实现了接口
var _ MembersRepository = (*PostgresMembersRepository)(nil)

// ListMembers 全量拉取，按入会日期倒序
func (r *PostgresMembersRepository) ListMembers(ctx context.Context) ([]*domain.Member, error) {
	query := `
		SELECT
			member_id::text,
			COALESCE(local_ref, ''),
			name,
			COALESCE(email, ''),
			COALESCE(phone, ''),
			COALESCE(plan_name, ''),
			COALESCE(expiry_date::text, ''),
			COALESCE(status, 'Active'),
			COALESCE(join_date::text, ''),
			last_visit_at
		FROM members
		ORDER BY join_date DESC, created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []*domain.Member
	for rows.Next() {
		var m domain.Member
		var lastVisit sql.NullTime
		if err := rows.Scan(
			&m.ID,
			&m.LocalRef,
			&m.Name,
			&m.Email,
			&m.Phone,
			&m.Plan,
			&m.ExpiryDate,
			&m.Status,
			&m.JoinDate,
			&lastVisit,
		); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		if lastVisit.Valid {
			t := lastVisit.Time
			m.LastVisitAt = &t
		}
		members = append(members, &m)
	}
	return members, rows.Err()
}

// CreateMember 插入新会员，local_ref 记录提交时的本地占位 ID
func (r *PostgresMembersRepository) CreateMember(ctx context.Context, m *domain.Member) (string, error) {
	query := `
		INSERT INTO members (local_ref, name, email, phone, plan_name, expiry_date, status, join_date)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, NULLIF($6, '')::date, $7, NULLIF($8, '')::date)
		RETURNING member_id::text
	`

	var serverID string
	err := r.db.QueryRowContext(ctx, query,
		m.ID, m.Name, m.Email, m.Phone, m.Plan, m.ExpiryDate, m.Status, m.JoinDate,
	).Scan(&serverID)
	if err != nil {
		return "", fmt.Errorf("create member: %w", err)
	}
	return serverID, nil
}

// UpdateMember 字段级更新；id 尚未对账时按 local_ref 命中
func (r *PostgresMembersRepository) UpdateMember(ctx context.Context, id string, upd MemberUpdate) error {
	var sets []string
	var args []interface{}
	n := 1

	add := func(col string, val *string) {
		if val != nil {
			sets = append(sets, fmt.Sprintf("%s = $%d", col, n))
			args = append(args, *val)
			n++
		}
	}
	add("name", upd.Name)
	add("email", upd.Email)
	add("phone", upd.Phone)
	add("plan_name", upd.Plan)
	if upd.ExpiryDate != nil {
		sets = append(sets, fmt.Sprintf("expiry_date = $%d::date", n))
		args = append(args, *upd.ExpiryDate)
		n++
	}
	add("status", upd.Status)

	if len(sets) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		UPDATE members
		SET %s
		WHERE member_id::text = $%d OR local_ref = $%d
	`, strings.Join(sets, ", "), n, n)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteMember 硬删除；id 尚未对账时按 local_ref 命中
func (r *PostgresMembersRepository) DeleteMember(ctx context.Context, id string) error {
	query := `DELETE FROM members WHERE member_id::text = $1 OR local_ref = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}

// TouchLastVisit 入场成功后的访问时间戳
func (r *PostgresMembersRepository) TouchLastVisit(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE members SET last_visit_at = $2 WHERE member_id::text = $1 OR local_ref = $1`
	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("touch last visit: %w", err)
	}
	return nil
}
