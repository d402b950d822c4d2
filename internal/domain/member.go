package domain

import (
	"strings"
	"time"
)

// LocalIDPrefix 本地乐观写入生成的占位 ID 前缀
// 带该前缀的记录尚未被远端确认，下次全量拉取时按 localRef 对账
const LocalIDPrefix = "loc_"

// 会员状态
const (
	MemberStatusActive   = "Active"
	MemberStatusInactive = "Inactive"
	MemberStatusExpired  = "Expired"
)

// Member 会员领域模型（对应 members 表 + 本地缓存快照）
// ExpiryDate/JoinDate 使用 "2006-01-02" 日历日期字符串，
// ISO 日期字符串可以直接按字典序比较
type Member struct {
	ID         string `json:"id"`
	LocalRef   string `json:"localRef,omitempty"` // 创建时提交的本地占位 ID（服务端记录，用于对账）
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Plan       string `json:"plan"`
	ExpiryDate string `json:"expiryDate"`
	Status     string `json:"status"`
	JoinDate   string `json:"joinDate"`

	LastVisitAt *time.Time `json:"lastVisitAt,omitempty"`
}

// IsLocal 是否为尚未对账的本地占位记录
func (m *Member) IsLocal() bool {
	return strings.HasPrefix(m.ID, LocalIDPrefix)
}

// EffectiveStatus 门禁用的有效状态：过期日早于今天即为 Expired，
// 不管存储的 status 是什么
func (m *Member) EffectiveStatus(today string) string {
	if m.ExpiryDate != "" && m.ExpiryDate < today {
		return MemberStatusExpired
	}
	return m.Status
}

// DateOf 日历日期字符串
func DateOf(t time.Time) string {
	return t.Format("2006-01-02")
}
