package domain

import "time"

// AttendanceToken 考勤令牌（全系统单例共享文档）
// Kiosk 周期性覆写；扫码端只读比对，不做一次性失效。
// Expires 为 epoch 毫秒。
type AttendanceToken struct {
	Token   string `json:"token"`
	Expires int64  `json:"expires"`
}

// ValidFor 令牌是否对给定明文有效：字符串精确相等且未过期。
// 过期判定与源头行为一致：now > expires 才算过期，等于 expires 时仍有效。
func (t *AttendanceToken) ValidFor(presented string, now time.Time) bool {
	if t == nil || t.Token == "" || presented == "" {
		return false
	}
	return presented == t.Token && now.UnixMilli() <= t.Expires
}
