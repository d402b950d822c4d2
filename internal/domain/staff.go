package domain

import (
	"database/sql"
	"time"
)

// 员工角色
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// Staff 员工/用户领域模型（对应 staff 表）
// 一个员工同一时间至多绑定一台设备；绑定只通过注册/重绑流程建立。
// DeviceFingerprint 仅用于诊断记录，永远不参与身份判定。
type Staff struct {
	ID        string `db:"staff_id"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
	Email     string `db:"email"`
	Username  string `db:"username"`
	Role      string `db:"role"`   // admin | staff
	Status    string `db:"status"` // active | inactive

	Phone   sql.NullString `db:"phone"`
	Address sql.NullString `db:"address"`

	PasswordHash []byte `db:"password_hash"` // SHA-256
	PINHash      []byte `db:"pin_hash"`      // nullable，设备注册时设置

	DeviceID          sql.NullString `db:"device_id"`
	DeviceFingerprint sql.NullString `db:"device_fingerprint"`

	LastAction     sql.NullString `db:"last_action"`      // Clock In | Clock Out
	LastActionDate sql.NullString `db:"last_action_date"` // "2006-01-02"

	ProfileSetupAt sql.NullTime `db:"profile_setup_at"`
	LastLoginAt    sql.NullTime `db:"last_login_at"`
	CreatedAt      time.Time    `db:"created_at"`
}

// FullName 显示名
func (s *Staff) FullName() string {
	return s.FirstName + " " + s.LastName
}

// IsSetUp 注册链接是否已被消费：设置过 profile 或已绑定设备即视为已用
func (s *Staff) IsSetUp() bool {
	return s.ProfileSetupAt.Valid || (s.DeviceID.Valid && s.DeviceID.String != "")
}
