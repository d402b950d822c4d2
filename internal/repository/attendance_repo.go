package repository

import (
	"context"

	"winnersfit-data/internal/domain"
)

// AttendanceRepository 员工考勤日志Repository接口
// 日志只追加不修改；重复打卡的约束靠写前查询（CountActionOnDate），
// 存储层没有唯一约束，跨设备并发窗口下可能出现罕见的双记录
type AttendanceRepository interface {
	AppendEntry(ctx context.Context, e *domain.AttendanceEntry) (string, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.AttendanceEntry, error)
	// CountActionOnDate 某员工某天某动作的已有条数（写前去重查询）
	CountActionOnDate(ctx context.Context, staffID, logDate, action string) (int, error)
	// ListByRange 按日期范围查询（报表导出用），from/to 为 "2006-01-02"
	ListByRange(ctx context.Context, from, to string) ([]*domain.AttendanceEntry, error)
}

// CheckInsRepository 会员入场记录Repository接口
type CheckInsRepository interface {
	AppendCheckIn(ctx context.Context, c *domain.CheckIn) (string, error)
	ListByDate(ctx context.Context, logDate string) ([]*domain.CheckIn, error)
	CountByDate(ctx context.Context, logDate string) (int, error)
}
