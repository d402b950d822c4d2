package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"winnersfit-data/internal/domain"
	"winnersfit-data/internal/repository"
)

// ReportService 报表服务接口
type ReportService interface {
	Summary(ctx context.Context, periodDays int) (*Summary, error)
	// ExportMembers 会员名册 Excel 导出
	ExportMembers(ctx context.Context) ([]byte, error)
	// ExportAttendance 考勤日志 Excel 导出，from/to 为 "2006-01-02"
	ExportAttendance(ctx context.Context, from, to string) ([]byte, error)
}

// Summary 仪表盘汇总
type Summary struct {
	TotalMembers   int                `json:"totalMembers"`
	ActiveMembers  int                `json:"activeMembers"`
	ExpiredMembers int                `json:"expiredMembers"`
	CheckInsToday  int                `json:"checkInsToday"`
	Revenue        float64            `json:"revenue"`       // 统计期内入会收入
	RevenueByPlan  map[string]float64 `json:"revenueByPlan"` // 按套餐
	PlanCounts     map[string]int     `json:"planCounts"`    // 套餐分布
}

// reportService 实现
// 汇总直接读权威存储：报表要的是准确数，不走乐观缓存
type reportService struct {
	members  repository.MembersRepository
	plans    PlanService
	checkins repository.CheckInsRepository
	logs     repository.AttendanceRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewReportService 创建 ReportService 实例
func NewReportService(
	members repository.MembersRepository,
	plans PlanService,
	checkins repository.CheckInsRepository,
	logs repository.AttendanceRepository,
	logger *zap.Logger,
) ReportService {
	return &reportService{
		members:  members,
		plans:    plans,
		checkins: checkins,
		logs:     logs,
		logger:   logger,
		now:      time.Now,
	}
}

// Summary 仪表盘汇总
func (s *reportService) Summary(ctx context.Context, periodDays int) (*Summary, error) {
	if periodDays <= 0 {
		periodDays = 30
	}

	members, err := s.members.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("report: list members: %w", err)
	}

	plans, err := s.plans.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	priceByName := make(map[string]float64, len(plans))
	for _, p := range plans {
		priceByName[p.Name] = p.Price
	}

	now := s.now()
	today := domain.DateOf(now)
	periodStart := domain.DateOf(now.AddDate(0, 0, -periodDays))

	sum := &Summary{
		TotalMembers:  len(members),
		RevenueByPlan: make(map[string]float64),
		PlanCounts:    make(map[string]int),
	}
	for _, m := range members {
		if m.EffectiveStatus(today) == domain.MemberStatusExpired {
			sum.ExpiredMembers++
		} else {
			sum.ActiveMembers++
		}
		sum.PlanCounts[m.Plan]++

		// 统计期内的入会按套餐价计收入
		if m.JoinDate >= periodStart {
			price := priceByName[m.Plan]
			sum.Revenue += price
			sum.RevenueByPlan[m.Plan] += price
		}
	}

	count, err := s.checkins.CountByDate(ctx, today)
	if err != nil {
		s.logger.Warn("checkin count failed", zap.Error(err))
	} else {
		sum.CheckInsToday = count
	}

	return sum, nil
}

// 导出表头
var membersExportHeader = []string{
	"Member ID", "Name", "Email", "Phone", "Plan", "Join Date", "Expiry Date", "Status",
}

var attendanceExportHeader = []string{
	"Date", "Time", "Staff", "Action", "Device",
}

// ExportMembers 会员名册导出
func (s *reportService) ExportMembers(ctx context.Context) ([]byte, error) {
	members, err := s.members.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: list members: %w", err)
	}

	today := domain.DateOf(s.now())
	rows := make([][]interface{}, 0, len(members))
	for _, m := range members {
		rows = append(rows, []interface{}{
			m.ID, m.Name, m.Email, m.Phone, m.Plan, m.JoinDate, m.ExpiryDate, m.EffectiveStatus(today),
		})
	}
	return buildWorkbook("Members", membersExportHeader, rows)
}

// ExportAttendance 考勤日志导出
func (s *reportService) ExportAttendance(ctx context.Context, from, to string) ([]byte, error) {
	entries, err := s.logs.ListByRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("export: list attendance: %w", err)
	}

	rows := make([][]interface{}, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []interface{}{
			e.DateLabel, e.TimeLabel, e.StaffName, e.Action, e.DeviceID,
		})
	}
	return buildWorkbook("Attendance", attendanceExportHeader, rows)
}

// buildWorkbook 生成单 sheet 工作簿
func buildWorkbook(sheetName string, headers []string, rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	// WriteTo 需要文件保持打开，这里不 defer Close

	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			f.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	for r, row := range rows {
		for col, v := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				f.Close()
				return nil, fmt.Errorf("write row: %w", err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
