package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"winnersfit-data/internal/config"
)

// MailClient 事务性邮件 API 客户端（EmailJS 风格的模板发送接口）
// 失败报告给操作员，不自动重试
type MailClient struct {
	httpClient *resty.Client
	cfg        config.MailConfig
	logger     *zap.Logger
}

// mailRequest 模板发送请求体
type mailRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
}

// NewMailClient 创建邮件客户端
func NewMailClient(cfg config.MailConfig, logger *zap.Logger) *MailClient {
	client := resty.New().
		SetBaseURL(cfg.APIBase).
		SetTimeout(15*time.Second).
		SetHeader("Content-Type", "application/json")

	return &MailClient{
		httpClient: client,
		cfg:        cfg,
		logger:     logger,
	}
}

// Enabled 邮件发送是否启用（密钥未配置时静默禁用）
func (c *MailClient) Enabled() bool {
	return c != nil && c.cfg.Enabled && c.cfg.ServiceID != "" && c.cfg.TemplateID != ""
}

// StaffWelcomeMail 员工开户邮件：凭据 + 设备注册深链接
type StaffWelcomeMail struct {
	ToEmail          string
	ToName           string
	Username         string
	InitialPassword  string
	RegistrationLink string
}

// SendStaffWelcome 发送员工开户邮件
func (c *MailClient) SendStaffWelcome(ctx context.Context, m StaffWelcomeMail) error {
	return c.send(ctx, map[string]string{
		"to_email":          m.ToEmail,
		"to_name":           m.ToName,
		"username":          m.Username,
		"initial_password":  m.InitialPassword,
		"registration_link": m.RegistrationLink,
	})
}

// MemberWelcomeMail 会员注册回执：套餐、到期日、会员码内容
type MemberWelcomeMail struct {
	ToEmail    string
	ToName     string
	Plan       string
	ExpiryDate string
	// QRPayload 会员码内容（会员 ID），模板侧渲染成二维码图片
	QRPayload string
}

// SendMemberWelcome 发送会员注册回执
func (c *MailClient) SendMemberWelcome(ctx context.Context, m MemberWelcomeMail) error {
	return c.send(ctx, map[string]string{
		"to_email":    m.ToEmail,
		"to_name":     m.ToName,
		"plan":        m.Plan,
		"expiry_date": m.ExpiryDate,
		"qr_payload":  m.QRPayload,
	})
}

func (c *MailClient) send(ctx context.Context, params map[string]string) error {
	if !c.Enabled() {
		return fmt.Errorf("mail sending disabled")
	}

	req := mailRequest{
		ServiceID:      c.cfg.ServiceID,
		TemplateID:     c.cfg.TemplateID,
		UserID:         c.cfg.PublicKey,
		TemplateParams: params,
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		Post("/api/v1.0/email/send")
	if err != nil {
		return fmt.Errorf("mail api call: %w", err)
	}
	if resp.IsError() {
		c.logger.Error("mail api rejected send",
			zap.Int("status", resp.StatusCode()),
			zap.String("body", resp.String()),
		)
		return fmt.Errorf("mail api status %d", resp.StatusCode())
	}
	return nil
}
