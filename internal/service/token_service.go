package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"winnersfit-data/internal/domain"
	"winnersfit-data/internal/store"
)

// 令牌单例文档的存储键（全系统只有一个活令牌）
const tokenDocKey = "wfc:system:attendance_token"

// TokenService 考勤令牌握手
// Kiosk 侧周期性铸造短命随机令牌并覆写共享文档；扫码端读取比对。
// 已知弱点：令牌不做一次性失效，防重放只靠 20s/25s 轮换窗口
// 加上打卡侧的重复动作闸门（保持与源头一致，不擅自收紧）。
type TokenService struct {
	kv     store.KV
	logger *zap.Logger

	rotatePeriod time.Duration
	tokenTTL     time.Duration
	deepLinkBase string

	now func() time.Time
}

// NewTokenService 创建 TokenService 实例
// tokenTTL 刻意比 rotatePeriod 长：留出覆盖时钟偏差和扫码延迟的余量
func NewTokenService(kv store.KV, rotatePeriod, tokenTTL time.Duration, deepLinkBase string, logger *zap.Logger) *TokenService {
	if rotatePeriod <= 0 {
		rotatePeriod = 20 * time.Second
	}
	if tokenTTL <= rotatePeriod {
		tokenTTL = rotatePeriod + 5*time.Second
	}
	return &TokenService{
		kv:           kv,
		logger:       logger,
		rotatePeriod: rotatePeriod,
		tokenTTL:     tokenTTL,
		deepLinkBase: deepLinkBase,
		now:          time.Now,
	}
}

// Rotate 铸造新令牌并覆写共享文档（旧令牌被取代，不删除）
func (s *TokenService) Rotate(ctx context.Context) (*domain.AttendanceToken, error) {
	tok := &domain.AttendanceToken{
		Token:   newTokenString(),
		Expires: s.now().Add(s.tokenTTL).UnixMilli(),
	}

	data, err := json.Marshal(tok)
	if err != nil {
		return nil, err
	}
	// ttl=0：上一场 kiosk 会话的残留令牌保持「过期但在场」，
	// 直到下一场会话覆写
	if err := s.kv.Set(ctx, tokenDocKey, string(data), 0); err != nil {
		return nil, fmt.Errorf("publish attendance token: %w", err)
	}

	s.logger.Debug("attendance token rotated", zap.Int64("expires", tok.Expires))
	return tok, nil
}

// Current 读取当前共享令牌文档；不存在时返回 store.ErrMiss
func (s *TokenService) Current(ctx context.Context) (*domain.AttendanceToken, error) {
	raw, err := s.kv.Get(ctx, tokenDocKey)
	if err != nil {
		return nil, err
	}
	var tok domain.AttendanceToken
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return nil, fmt.Errorf("decode attendance token: %w", err)
	}
	return &tok, nil
}

// Validate 校验扫码端呈上的令牌
// 有效 = 字符串精确等于存储值且未过期；文档缺失、不匹配、
// 已过期统一归为 ErrTokenExpired（用户侧只需要「重扫」这一个动作）
func (s *TokenService) Validate(ctx context.Context, presented string) error {
	if presented == "" {
		return ErrTokenMissing
	}

	tok, err := s.Current(ctx)
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return ErrTokenExpired
		}
		return fmt.Errorf("read attendance token: %w", err)
	}

	if !tok.ValidFor(presented, s.now()) {
		return ErrTokenExpired
	}
	return nil
}

// DeepLink 生成扫码端跳转链接（二维码内容由前端负责渲染）
func (s *TokenService) DeepLink(token string) string {
	return s.deepLinkBase + "?token=" + token
}

// RunKiosk kiosk 会话的轮换循环：立即铸造一次，之后每个周期覆写，
// ctx 取消（离开 kiosk 页面）即停止，最后一个令牌留在存储里
func (s *TokenService) RunKiosk(ctx context.Context) {
	if _, err := s.Rotate(ctx); err != nil {
		s.logger.Error("token rotation failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.rotatePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("kiosk token rotation stopped")
			return
		case <-ticker.C:
			if _, err := s.Rotate(ctx); err != nil {
				s.logger.Error("token rotation failed", zap.Error(err))
			}
		}
	}
}

// newTokenString 13 位 base36 随机串
func newTokenString() string {
	const charset = "0123456789abcdefghijklmnopqrstuvwxyz"
	buf := make([]byte, 13)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand 不可用时退回时间熵，令牌只活 25 秒
		return fmt.Sprintf("%013x", time.Now().UnixNano())[:13]
	}
	for i, b := range buf {
		buf[i] = charset[int(b)%len(charset)]
	}
	return string(buf)
}
