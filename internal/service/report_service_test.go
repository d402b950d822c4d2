package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"winnersfit-data/internal/domain"
)

func setupReports(t *testing.T, roster *fakeMembersRepo, checkins *fakeCheckInsRepo, logs *fakeAttendanceRepo) *reportService {
	svc := NewReportService(roster, fakePlanService{}, checkins, logs, zap.NewNop()).(*reportService)
	svc.now = func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestSummary(t *testing.T) {
	roster := newFakeMembersRepo()
	roster.listRows = []*domain.Member{
		{ID: "m-1", Name: "Alice", Plan: "Monthly Membership", ExpiryDate: "2026-12-01", Status: domain.MemberStatusActive, JoinDate: "2026-08-15"},
		{ID: "m-2", Name: "Bob", Plan: "Yearly Membership", ExpiryDate: "2027-01-01", Status: domain.MemberStatusActive, JoinDate: "2026-01-05"},
		{ID: "m-3", Name: "Carol", Plan: "Monthly Membership", ExpiryDate: "2026-06-01", Status: domain.MemberStatusActive, JoinDate: "2026-05-01"},
	}
	checkins := &fakeCheckInsRepo{}
	_, err := checkins.AppendCheckIn(context.Background(), &domain.CheckIn{
		MemberID: "m-1", MemberName: "Alice", Status: domain.CheckInValid, LogDate: "2026-08-30",
	})
	require.NoError(t, err)

	svc := setupReports(t, roster, checkins, &fakeAttendanceRepo{})

	sum, err := svc.Summary(context.Background(), 30)
	require.NoError(t, err)

	assert.Equal(t, 3, sum.TotalMembers)
	assert.Equal(t, 2, sum.ActiveMembers)
	// Carol 的到期日已过，不管存储 status 都按过期算
	assert.Equal(t, 1, sum.ExpiredMembers)
	assert.Equal(t, 1, sum.CheckInsToday)

	// 只有 Alice 在最近 30 天内入会：Monthly Membership 80
	assert.Equal(t, 80.0, sum.Revenue)
	assert.Equal(t, 80.0, sum.RevenueByPlan["Monthly Membership"])
	assert.Equal(t, 2, sum.PlanCounts["Monthly Membership"])
	assert.Equal(t, 1, sum.PlanCounts["Yearly Membership"])
}

func TestExportMembers(t *testing.T) {
	roster := newFakeMembersRepo()
	roster.listRows = []*domain.Member{
		{ID: "m-1", Name: "Alice", Email: "alice@x.test", Plan: "Monthly Membership", ExpiryDate: "2026-12-01", Status: domain.MemberStatusActive, JoinDate: "2026-08-15"},
	}
	svc := setupReports(t, roster, &fakeCheckInsRepo{}, &fakeAttendanceRepo{})

	data, err := svc.ExportMembers(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	// 生成的工作簿可以被读回
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	cell, err := f.GetCellValue("Members", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Alice", cell)

	header, err := f.GetCellValue("Members", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Member ID", header)
}

func TestExportAttendance(t *testing.T) {
	logs := &fakeAttendanceRepo{}
	_, err := logs.AppendEntry(context.Background(), &domain.AttendanceEntry{
		StaffID:   "s1",
		StaffName: "Jade Okoro",
		Action:    domain.ActionClockIn,
		TimeLabel: "08:02 AM",
		DateLabel: "08/30/2026",
		LogDate:   "2026-08-30",
	})
	require.NoError(t, err)

	svc := setupReports(t, newFakeMembersRepo(), &fakeCheckInsRepo{}, logs)

	data, err := svc.ExportAttendance(context.Background(), "2026-08-01", "2026-08-31")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	staffCell, err := f.GetCellValue("Attendance", "C2")
	require.NoError(t, err)
	assert.Equal(t, "Jade Okoro", staffCell)
}
