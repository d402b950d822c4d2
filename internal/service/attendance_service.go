package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"winnersfit-data/internal/domain"
	"winnersfit-data/internal/repository"
)

// 打卡策略
const (
	// PolicyStrict 每天至多一进一出，打出之后当天封口
	PolicyStrict = "strict"
	// PolicyToggle 进出自由切换，不设上限
	PolicyToggle = "toggle"
)

// AttendanceService 员工考勤服务接口
type AttendanceService interface {
	// Punch 完整打卡流程：
	// 令牌校验 → 设备解析身份 → 重复动作闸门 → 追加日志 → 更新最近动作
	Punch(ctx context.Context, req PunchRequest) (*PunchResponse, error)

	// 设备注册流程（注册深链接消费）
	BeginRegistration(ctx context.Context, staffID string) (*RegistrationInfo, error)
	CompleteRegistration(ctx context.Context, req CompleteRegistrationRequest) (*CompleteRegistrationResponse, error)
	// RelinkDevice 管理员重置设备绑定
	RelinkDevice(ctx context.Context, staffID, deviceID string) error

	RecentLogs(ctx context.Context, limit int) ([]*domain.AttendanceEntry, error)
}

// PunchRequest 打卡请求
type PunchRequest struct {
	Token    string // 扫码深链接里的考勤令牌
	DeviceID string // 设备绑定标识（身份解析依据）
	PIN      string // 可选：员工设置过 PIN 时必须匹配
	// Fingerprint 硬件指纹：只记诊断日志，永远不参与身份判定
	Fingerprint string
}

// PunchResponse 打卡结果
type PunchResponse struct {
	StaffID   string `json:"staffId"`
	StaffName string `json:"staffName"`
	Action    string `json:"action"`
	Time      string `json:"time"`
	Date      string `json:"date"`
}

// RegistrationInfo 注册链接信息（消费前校验）
type RegistrationInfo struct {
	StaffID   string `json:"staffId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
}

// CompleteRegistrationRequest 完成注册：设定用户名/PIN 并绑定设备
type CompleteRegistrationRequest struct {
	StaffID     string
	Username    string
	PIN         string
	DeviceID    string // 空则服务端生成
	Fingerprint string
}

// CompleteRegistrationResponse 注册结果
type CompleteRegistrationResponse struct {
	DeviceID string `json:"deviceId"`
}

// attendanceService 实现
type attendanceService struct {
	staff  repository.StaffRepository
	logs   repository.AttendanceRepository
	tokens *TokenService
	events *EventPublisher
	policy string
	logger *zap.Logger
	now    func() time.Time
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(
	staff repository.StaffRepository,
	logs repository.AttendanceRepository,
	tokens *TokenService,
	events *EventPublisher,
	policy string,
	logger *zap.Logger,
) AttendanceService {
	if policy != PolicyToggle {
		policy = PolicyStrict
	}
	return &attendanceService{
		staff:  staff,
		logs:   logs,
		tokens: tokens,
		events: events,
		policy: policy,
		logger: logger,
		now:    time.Now,
	}
}

// Punch 打卡状态机
// 每一步失败都终止本次扫码；重复动作的约束靠写前查询，
// 跨设备并发窗口下可能出现罕见的双记录（领域上可容忍）
func (s *attendanceService) Punch(ctx context.Context, req PunchRequest) (*PunchResponse, error) {
	// 1. ReadToken / ValidateToken
	if req.Token == "" {
		return nil, ErrTokenMissing
	}
	if err := s.tokens.Validate(ctx, req.Token); err != nil {
		return nil, err
	}

	// 2. ResolveIdentity：只认绑定的 device_id
	if req.DeviceID == "" {
		return nil, ErrUnregisteredDevice
	}
	staff, err := s.staff.GetStaffByDevice(ctx, req.DeviceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnregisteredDevice
		}
		return nil, fmt.Errorf("resolve device identity: %w", err)
	}
	if req.Fingerprint != "" {
		// 指纹仅留痕
		s.logger.Debug("device fingerprint observed",
			zap.String("staff_id", staff.ID),
			zap.String("fingerprint", req.Fingerprint),
		)
	}

	// 3. PIN 闸门（员工设置过 PIN 时才启用）
	if len(staff.PINHash) > 0 && !secretEqual(staff.PINHash, req.PIN) {
		return nil, ErrInvalidPIN
	}

	now := s.now()
	today := domain.DateOf(now)

	// 4. GateDuplicate：下一动作 = 最近动作的切换
	next := domain.ActionClockIn
	if staff.LastAction.String == domain.ActionClockIn && staff.LastActionDate.String == today {
		next = domain.ActionClockOut
	}
	if s.policy == PolicyStrict {
		count, err := s.logs.CountActionOnDate(ctx, staff.ID, today, domain.ActionClockOut)
		if err != nil {
			return nil, fmt.Errorf("duplicate gate: %w", err)
		}
		if count > 0 {
			return nil, ErrShiftCompleted
		}
	}

	// 5. WriteLog：只追加，时间戳用服务端时间
	entry := domain.AttendanceEntry{
		StaffID:   staff.ID,
		StaffName: staff.FullName(),
		Action:    next,
		Timestamp: now,
		TimeLabel: now.Format("03:04 PM"),
		DateLabel: now.Format("01/02/2006"),
		LogDate:   today,
		DeviceID:  req.DeviceID,
	}
	if entry.ID, err = s.logs.AppendEntry(ctx, &entry); err != nil {
		return nil, fmt.Errorf("write attendance log: %w", err)
	}

	// 6. UpdateLastAction
	if err := s.staff.SetLastAction(ctx, staff.ID, next, today); err != nil {
		// 日志行已落地；lastAction 没跟上只影响下一次切换判定
		s.logger.Error("last action update failed",
			zap.String("staff_id", staff.ID),
			zap.Error(err),
		)
	}

	s.events.PunchRecorded(ctx, &entry)
	s.logger.Info("attendance recorded",
		zap.String("staff_id", staff.ID),
		zap.String("action", next),
	)

	return &PunchResponse{
		StaffID:   staff.ID,
		StaffName: staff.FullName(),
		Action:    next,
		Time:      entry.TimeLabel,
		Date:      entry.DateLabel,
	}, nil
}

// BeginRegistration 校验注册深链接
// 已设置过档案或已绑定设备的链接视为已消费
func (s *attendanceService) BeginRegistration(ctx context.Context, staffID string) (*RegistrationInfo, error) {
	if staffID == "" {
		return nil, ErrStaffNotFound
	}
	staff, err := s.staff.GetStaff(ctx, staffID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("load staff: %w", err)
	}
	if staff.IsSetUp() {
		return nil, ErrAlreadySetUp
	}
	return &RegistrationInfo{
		StaffID:   staff.ID,
		FirstName: staff.FirstName,
		LastName:  staff.LastName,
		Username:  staff.Username,
	}, nil
}

// CompleteRegistration 完成注册并绑定设备
func (s *attendanceService) CompleteRegistration(ctx context.Context, req CompleteRegistrationRequest) (*CompleteRegistrationResponse, error) {
	username := strings.TrimSpace(req.Username)
	if len(username) < 3 {
		return nil, fmt.Errorf("username too short")
	}
	if !isFourDigitPIN(req.PIN) {
		return nil, fmt.Errorf("pin must be 4 digits")
	}

	// 重新校验链接状态，两台设备抢同一个链接时后到者在这里被拦下
	if _, err := s.BeginRegistration(ctx, req.StaffID); err != nil {
		return nil, err
	}

	deviceID := req.DeviceID
	if deviceID == "" {
		deviceID = "wfc_dev_" + uuid.NewString()
	}

	if err := s.staff.BindDevice(ctx, req.StaffID, username, HashSecret(req.PIN), deviceID, req.Fingerprint); err != nil {
		return nil, fmt.Errorf("bind device: %w", err)
	}

	s.logger.Info("device registered",
		zap.String("staff_id", req.StaffID),
		zap.String("device_id", deviceID),
	)
	return &CompleteRegistrationResponse{DeviceID: deviceID}, nil
}

// RelinkDevice 管理员重置绑定（解绑后员工需要重新注册设备）
func (s *attendanceService) RelinkDevice(ctx context.Context, staffID, deviceID string) error {
	if _, err := s.staff.GetStaff(ctx, staffID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrStaffNotFound
		}
		return fmt.Errorf("load staff: %w", err)
	}
	return s.staff.RelinkDevice(ctx, staffID, deviceID)
}

// RecentLogs 最近考勤日志（HR 页面）
func (s *attendanceService) RecentLogs(ctx context.Context, limit int) ([]*domain.AttendanceEntry, error) {
	return s.logs.ListRecent(ctx, limit)
}

func isFourDigitPIN(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
