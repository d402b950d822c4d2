package domain

import "time"

// 打卡动作
const (
	ActionClockIn  = "Clock In"
	ActionClockOut = "Clock Out"
)

// AttendanceEntry 员工考勤日志（对应 attendance_logs 表，只追加不修改）
type AttendanceEntry struct {
	ID        string    `json:"id"`
	StaffID   string    `json:"staffId"`
	StaffName string    `json:"staffName"`
	Action    string    `json:"action"` // Clock In | Clock Out
	Timestamp time.Time `json:"timestamp"`
	TimeLabel string    `json:"time"`    // 本地格式化时间，如 "08:02 AM"
	DateLabel string    `json:"date"`    // 本地格式化日期，如 "01/15/2026"
	LogDate   string    `json:"logDate"` // "2006-01-02"，按天查询用
	DeviceID  string    `json:"deviceId,omitempty"`
}

// 会员入场记录状态
const (
	CheckInValid   = "valid"
	CheckInExpired = "expired"
)

// CheckIn 会员入场记录（对应 member_checkins 表，只追加不修改）
type CheckIn struct {
	ID         string    `json:"id"`
	MemberID   string    `json:"memberId"`
	MemberName string    `json:"memberName"`
	Status     string    `json:"status"` // valid | expired
	StatusText string    `json:"statusText"`
	Timestamp  time.Time `json:"timestamp"`
	LogDate    string    `json:"logDate"` // "2006-01-02"
}
