package repository

import (
	"context"
	"time"

	"winnersfit-data/internal/domain"
)

// StaffRepository 员工Repository接口
// 设备绑定只通过 BindDevice（注册流程）或 RelinkDevice（管理员重绑）
// 修改，其它路径一律只读 device_id
type StaffRepository interface {
	GetStaff(ctx context.Context, staffID string) (*domain.Staff, error)
	GetStaffByEmail(ctx context.Context, email string) (*domain.Staff, error)
	// GetStaffByDevice 按绑定设备解析身份；未绑定返回 sql.ErrNoRows
	GetStaffByDevice(ctx context.Context, deviceID string) (*domain.Staff, error)
	ListStaff(ctx context.Context, role string) ([]*domain.Staff, error)
	CreateStaff(ctx context.Context, s *domain.Staff) (string, error)
	UpdateProfile(ctx context.Context, staffID string, upd StaffProfileUpdate) error

	// BindDevice 注册流程：一次性写入 username/PIN/设备，并盖上
	// profile_setup_at 服务端时间戳（之后注册链接即失效）
	BindDevice(ctx context.Context, staffID, username string, pinHash []byte, deviceID, fingerprint string) error
	// RelinkDevice 管理员重置设备绑定
	RelinkDevice(ctx context.Context, staffID, deviceID string) error

	SetLastAction(ctx context.Context, staffID, action, actionDate string) error
	SetLastLogin(ctx context.Context, staffID string, at time.Time) error
}

// StaffProfileUpdate 档案更新；nil 表示不修改
type StaffProfileUpdate struct {
	FirstName    *string
	LastName     *string
	Email        *string
	Phone        *string
	Address      *string
	PasswordHash []byte
}
