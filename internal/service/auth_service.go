package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"winnersfit-data/internal/domain"
	"winnersfit-data/internal/repository"
)

// AuthService 认证与员工开户服务接口
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	// VerifyAccessToken 校验会话令牌（HTTP 中间件用）
	VerifyAccessToken(tokenString string) (*SessionClaims, error)

	// ProvisionStaff 管理员开户：生成数字工号和初始口令，建立凭据，
	// 邮件发送注册深链接。开户不影响管理员自己的会话。
	ProvisionStaff(ctx context.Context, req ProvisionStaffRequest) (*ProvisionStaffResponse, error)
	ListStaff(ctx context.Context) ([]StaffView, error)
}

// StaffView 员工列表条目。对外视图：凭据散列不出网，可空列压平成普通字段
type StaffView struct {
	ID             string `json:"id"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Username       string `json:"username"`
	Role           string `json:"role"`
	Status         string `json:"status"`
	Phone          string `json:"phone,omitempty"`
	Address        string `json:"address,omitempty"`
	DeviceBound    bool   `json:"deviceBound"`
	LastAction     string `json:"lastAction,omitempty"`
	LastActionDate string `json:"lastActionDate,omitempty"`
	LastLoginAt    string `json:"lastLoginAt,omitempty"`
	CreatedAt      string `json:"createdAt"`
}

// NewStaffView 由领域模型构造对外视图
func NewStaffView(s *domain.Staff) StaffView {
	v := StaffView{
		ID:        s.ID,
		FirstName: s.FirstName,
		LastName:  s.LastName,
		Name:      s.FullName(),
		Email:     s.Email,
		Username:  s.Username,
		Role:      s.Role,
		Status:    s.Status,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
	if s.Phone.Valid {
		v.Phone = s.Phone.String
	}
	if s.Address.Valid {
		v.Address = s.Address.String
	}
	v.DeviceBound = s.DeviceID.Valid && s.DeviceID.String != ""
	if s.LastAction.Valid {
		v.LastAction = s.LastAction.String
	}
	if s.LastActionDate.Valid {
		v.LastActionDate = s.LastActionDate.String
	}
	if s.LastLoginAt.Valid {
		v.LastLoginAt = s.LastLoginAt.Time.Format(time.RFC3339)
	}
	return v
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email        string
	Password     string
	SelectedRole string // 登录页选择的角色；与实际角色严格比对
}

// LoginResponse 登录响应
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	StaffID     string `json:"staffId"`
	Name        string `json:"name"`
	Role        string `json:"role"`
}

// SessionClaims 会话令牌里的身份信息
type SessionClaims struct {
	StaffID string
	Role    string
}

// ProvisionStaffRequest 开户请求
type ProvisionStaffRequest struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
}

// ProvisionStaffResponse 开户结果
// 邮件失败报告给操作员（MailError），不自动重试，账号本身已建立
type ProvisionStaffResponse struct {
	StaffID          string `json:"staffId"`
	Username         string `json:"username"`
	InitialPassword  string `json:"initialPassword"`
	RegistrationLink string `json:"registrationLink"`
	MailSent         bool   `json:"mailSent"`
	MailError        string `json:"mailError,omitempty"`
}

// authService 实现
type authService struct {
	staff       repository.StaffRepository
	mail        *MailClient
	jwtSecret   []byte
	tokenTTL    time.Duration
	regLinkBase string
	logger      *zap.Logger
	now         func() time.Time
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	staff repository.StaffRepository,
	mail *MailClient,
	jwtSecret string,
	tokenTTL time.Duration,
	regLinkBase string,
	logger *zap.Logger,
) AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &authService{
		staff:       staff,
		mail:        mail,
		jwtSecret:   []byte(jwtSecret),
		tokenTTL:    tokenTTL,
		regLinkBase: regLinkBase,
		logger:      logger,
		now:         time.Now,
	}
}

// Login 邮箱+口令登录
// 角色以存储为准；选了 admin 但实际不是 admin 的直接拒绝
func (s *authService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	staff, err := s.staff.GetStaffByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if !secretEqual(staff.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}
	if req.SelectedRole == domain.RoleAdmin && staff.Role != domain.RoleAdmin {
		return nil, ErrNotAdmin
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  staff.ID,
		"role": staff.Role,
		"name": staff.FullName(),
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	if err := s.staff.SetLastLogin(ctx, staff.ID, now); err != nil {
		s.logger.Warn("last login update failed", zap.String("staff_id", staff.ID), zap.Error(err))
	}

	s.logger.Info("login", zap.String("staff_id", staff.ID), zap.String("role", staff.Role))
	return &LoginResponse{
		AccessToken: signed,
		StaffID:     staff.ID,
		Name:        staff.FullName(),
		Role:        staff.Role,
	}, nil
}

// VerifyAccessToken 校验会话令牌
func (s *authService) VerifyAccessToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" {
		return nil, ErrInvalidCredentials
	}
	return &SessionClaims{StaffID: sub, Role: role}, nil
}

// ProvisionStaff 管理员开户
func (s *authService) ProvisionStaff(ctx context.Context, req ProvisionStaffRequest) (*ProvisionStaffResponse, error) {
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.Email) == "" {
		return nil, fmt.Errorf("first name and email are required")
	}

	// 9 位数字工号（122 前缀）+ 初始口令 staff<PIN>
	username := "122" + randomDigits(6)
	initialPassword := "staff" + randomDigits(4)

	newStaff := &domain.Staff{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        strings.TrimSpace(strings.ToLower(req.Email)),
		Username:     username,
		Role:         domain.RoleStaff,
		Status:       "active",
		Phone:        sql.NullString{String: req.Phone, Valid: req.Phone != ""},
		Address:      sql.NullString{String: req.Address, Valid: req.Address != ""},
		PasswordHash: HashSecret(initialPassword),
	}

	staffID, err := s.staff.CreateStaff(ctx, newStaff)
	if err != nil {
		return nil, fmt.Errorf("create staff account: %w", err)
	}

	regLink := s.regLinkBase + "?action=register&staffId=" + staffID

	resp := &ProvisionStaffResponse{
		StaffID:          staffID,
		Username:         username,
		InitialPassword:  initialPassword,
		RegistrationLink: regLink,
	}

	if s.mail != nil && s.mail.Enabled() {
		err := s.mail.SendStaffWelcome(ctx, StaffWelcomeMail{
			ToEmail:          newStaff.Email,
			ToName:           newStaff.FullName(),
			Username:         username,
			InitialPassword:  initialPassword,
			RegistrationLink: regLink,
		})
		if err != nil {
			s.logger.Error("welcome mail failed", zap.String("staff_id", staffID), zap.Error(err))
			resp.MailError = "credentials email could not be sent"
		} else {
			resp.MailSent = true
		}
	}

	return resp, nil
}

// ListStaff 员工列表（对外视图）
func (s *authService) ListStaff(ctx context.Context) ([]StaffView, error) {
	rows, err := s.staff.ListStaff(ctx, domain.RoleStaff)
	if err != nil {
		return nil, err
	}
	views := make([]StaffView, 0, len(rows))
	for _, row := range rows {
		views = append(views, NewStaffView(row))
	}
	return views, nil
}

// randomDigits n 位随机数字串
func randomDigits(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			sb.WriteByte('0' + byte(time.Now().UnixNano()%10))
			continue
		}
		sb.WriteByte('0' + byte(d.Int64()))
	}
	return sb.String()
}
