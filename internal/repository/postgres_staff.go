package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"winnersfit-data/internal/domain"
)

// PostgresStaffRepository 员工Repository实现
type PostgresStaffRepository struct {
	db *sql.DB
}

// NewPostgresStaffRepository 创建员工Repository
func NewPostgresStaffRepository(db *sql.DB) *PostgresStaffRepository {
	return &PostgresStaffRepository{db: db}
}

var _ StaffRepository = (*PostgresStaffRepository)(nil)

const staffColumns = `
	staff_id::text,
	first_name,
	last_name,
	email,
	username,
	role,
	status,
	phone,
	address,
	password_hash,
	pin_hash,
	device_id,
	device_fingerprint,
	last_action,
	last_action_date::text,
	profile_setup_at,
	last_login_at,
	created_at
`

func scanStaff(row interface{ Scan(...interface{}) error }) (*domain.Staff, error) {
	var s domain.Staff
	var pinHash []byte
	var lastActionDate sql.NullString
	err := row.Scan(
		&s.ID,
		&s.FirstName,
		&s.LastName,
		&s.Email,
		&s.Username,
		&s.Role,
		&s.Status,
		&s.Phone,
		&s.Address,
		&s.PasswordHash,
		&pinHash,
		&s.DeviceID,
		&s.DeviceFingerprint,
		&s.LastAction,
		&lastActionDate,
		&s.ProfileSetupAt,
		&s.LastLoginAt,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.PINHash = pinHash
	s.LastActionDate = lastActionDate
	return &s, nil
}

// GetStaff 按 ID 查询
func (r *PostgresStaffRepository) GetStaff(ctx context.Context, staffID string) (*domain.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE staff_id::text = $1`
	return scanStaff(r.db.QueryRowContext(ctx, query, staffID))
}

// GetStaffByEmail 按邮箱查询（登录用）
func (r *PostgresStaffRepository) GetStaffByEmail(ctx context.Context, email string) (*domain.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE lower(email) = lower($1)`
	return scanStaff(r.db.QueryRowContext(ctx, query, email))
}

// GetStaffByDevice 按绑定设备解析身份
func (r *PostgresStaffRepository) GetStaffByDevice(ctx context.Context, deviceID string) (*domain.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE device_id = $1`
	return scanStaff(r.db.QueryRowContext(ctx, query, deviceID))
}

// ListStaff 员工列表；role 为空时不过滤
func (r *PostgresStaffRepository) ListStaff(ctx context.Context, role string) ([]*domain.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff`
	var args []interface{}
	if role != "" {
		query += ` WHERE role = $1`
		args = append(args, role)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	defer rows.Close()

	var staff []*domain.Staff
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("scan staff: %w", err)
		}
		staff = append(staff, s)
	}
	return staff, rows.Err()
}

// CreateStaff 新建员工（管理员开户流程）
func (r *PostgresStaffRepository) CreateStaff(ctx context.Context, s *domain.Staff) (string, error) {
	query := `
		INSERT INTO staff (first_name, last_name, email, username, role, status, phone, address, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9)
		RETURNING staff_id::text
	`

	var id string
	err := r.db.QueryRowContext(ctx, query,
		s.FirstName, s.LastName, s.Email, s.Username, s.Role, s.Status,
		s.Phone.String, s.Address.String, s.PasswordHash,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("create staff: %w", err)
	}
	return id, nil
}

// UpdateProfile 档案更新
func (r *PostgresStaffRepository) UpdateProfile(ctx context.Context, staffID string, upd StaffProfileUpdate) error {
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
	add("first_name", upd.FirstName)
	add("last_name", upd.LastName)
	add("email", upd.Email)
	add("phone", upd.Phone)
	add("address", upd.Address)
	if upd.PasswordHash != nil {
		sets = append(sets, fmt.Sprintf("password_hash = $%d", n))
		args = append(args, upd.PasswordHash)
		n++
	}

	if len(sets) == 0 {
		return nil
	}

	query := fmt.Sprintf(`UPDATE staff SET %s WHERE staff_id::text = $%d`, strings.Join(sets, ", "), n)
	args = append(args, staffID)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update staff profile: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// BindDevice 注册流程的一次性绑定，profile_setup_at 用服务端时间
func (r *PostgresStaffRepository) BindDevice(ctx context.Context, staffID, username string, pinHash []byte, deviceID, fingerprint string) error {
	query := `
		UPDATE staff
		SET username = $2,
		    pin_hash = $3,
		    device_id = $4,
		    device_fingerprint = NULLIF($5, ''),
		    profile_setup_at = now()
		WHERE staff_id::text = $1
	`
	res, err := r.db.ExecContext(ctx, query, staffID, username, pinHash, deviceID, fingerprint)
	if err != nil {
		return fmt.Errorf("bind device: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RelinkDevice 管理员重绑设备；deviceID 为空表示解绑
func (r *PostgresStaffRepository) RelinkDevice(ctx context.Context, staffID, deviceID string) error {
	query := `UPDATE staff SET device_id = NULLIF($2, '') WHERE staff_id::text = $1`
	res, err := r.db.ExecContext(ctx, query, staffID, deviceID)
	if err != nil {
		return fmt.Errorf("relink device: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetLastAction 打卡成功后更新最近动作
func (r *PostgresStaffRepository) SetLastAction(ctx context.Context, staffID, action, actionDate string) error {
	query := `UPDATE staff SET last_action = $2, last_action_date = $3::date WHERE staff_id::text = $1`
	if _, err := r.db.ExecContext(ctx, query, staffID, action, actionDate); err != nil {
		return fmt.Errorf("set last action: %w", err)
	}
	return nil
}

// SetLastLogin 登录时间
func (r *PostgresStaffRepository) SetLastLogin(ctx context.Context, staffID string, at time.Time) error {
	query := `UPDATE staff SET last_login_at = $2 WHERE staff_id::text = $1`
	if _, err := r.db.ExecContext(ctx, query, staffID, at); err != nil {
		return fmt.Errorf("set last login: %w", err)
	}
	return nil
}
