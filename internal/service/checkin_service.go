package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"winnersfit-data/internal/domain"
	"winnersfit-data/internal/repository"
)

// CheckInService 会员入场服务接口（前台扫卡/手输）
type CheckInService interface {
	// CheckIn 按扫码内容或输入定位会员并记录入场；
	// 过期会籍也记一条（安防留痕），结果里区分 valid/expired
	CheckIn(ctx context.Context, query string) (*CheckInResult, error)
	TodayCheckIns(ctx context.Context) ([]*domain.CheckIn, error)
	TodayCount(ctx context.Context) (int, error)
}

// CheckInResult 入场结果
type CheckInResult struct {
	Member     domain.Member `json:"member"`
	Status     string        `json:"status"` // valid | expired
	StatusText string        `json:"statusText"`
}

// checkInService 实现
type checkInService struct {
	members  MemberService // 走缓存快路径，入场判定不等网络
	checkins repository.CheckInsRepository
	roster   repository.MembersRepository // last_visit 回写
	events   *EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewCheckInService 创建 CheckInService 实例
func NewCheckInService(
	members MemberService,
	checkins repository.CheckInsRepository,
	roster repository.MembersRepository,
	events *EventPublisher,
	logger *zap.Logger,
) CheckInService {
	return &checkInService{
		members:  members,
		checkins: checkins,
		roster:   roster,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

// CheckIn 入场判定
// 先精确匹配 ID（扫码枪优先），再退回姓名包含匹配；
// 有效状态按到期日现算，不信存储的 status
func (s *checkInService) CheckIn(ctx context.Context, query string) (*CheckInResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrMemberNotFound
	}

	members, err := s.members.ListMembers(ctx)
	if err != nil {
		return nil, err
	}

	var member *domain.Member
	for i := range members {
		if members[i].ID == query {
			member = &members[i]
			break
		}
	}
	if member == nil {
		lower := strings.ToLower(query)
		for i := range members {
			if strings.Contains(strings.ToLower(members[i].Name), lower) {
				member = &members[i]
				break
			}
		}
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}

	now := s.now()
	today := domain.DateOf(now)

	result := &CheckInResult{Member: *member}
	if member.EffectiveStatus(today) == domain.MemberStatusExpired {
		result.Status = domain.CheckInExpired
		result.StatusText = "Membership Expired"
	} else {
		result.Status = domain.CheckInValid
		result.StatusText = "Access Granted"
	}

	// 过期尝试也记录（安防/追溯）
	record := domain.CheckIn{
		MemberID:   member.ID,
		MemberName: member.Name,
		Status:     result.Status,
		StatusText: result.StatusText,
		Timestamp:  now,
		LogDate:    today,
	}
	if record.ID, err = s.checkins.AppendCheckIn(ctx, &record); err != nil {
		// 入场判定已经做完，日志落库失败不拦人
		s.logger.Warn("checkin log write failed",
			zap.String("member_id", member.ID),
			zap.Error(err),
		)
	}

	if result.Status == domain.CheckInValid {
		memberID := member.ID
		go func() {
			visitCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.roster.TouchLastVisit(visitCtx, memberID, now); err != nil {
				s.logger.Warn("last visit update failed", zap.String("member_id", memberID), zap.Error(err))
			}
		}()
	}

	s.events.CheckInRecorded(ctx, &record)
	return result, nil
}

// TodayCheckIns 今日入场记录
func (s *checkInService) TodayCheckIns(ctx context.Context) ([]*domain.CheckIn, error) {
	return s.checkins.ListByDate(ctx, domain.DateOf(s.now()))
}

// TodayCount 今日入场数
func (s *checkInService) TodayCount(ctx context.Context) (int, error) {
	return s.checkins.CountByDate(ctx, domain.DateOf(s.now()))
}
