package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"winnersfit-data/internal/domain"
	"winnersfit-data/internal/repository"
	"winnersfit-data/internal/store"
)

// MemberService 会员名册服务接口
// 读走缓存快路径，写先落缓存再与有界计时器竞速同步远端，
// UI 永远不会被慢网络卡住
type MemberService interface {
	// ListMembers 名册读取：非空快照直接返回，必要时触发后台刷新
	ListMembers(ctx context.Context) ([]domain.Member, error)
	// Refresh 强制全量拉取 + 本地占位记录对账
	Refresh(ctx context.Context) ([]domain.Member, error)

	AddMember(ctx context.Context, req AddMemberRequest) (*domain.Member, error)
	UpdateMember(ctx context.Context, id string, req UpdateMemberRequest) error
	DeleteMember(ctx context.Context, id string) error
	// RenewMember 按套餐续费：重算到期日并恢复 Active
	RenewMember(ctx context.Context, id, planID string) error
}

// AddMemberRequest 注册请求
type AddMemberRequest struct {
	Name   string
	Email  string
	Phone  string
	PlanID string
}

// UpdateMemberRequest 编辑请求；nil 表示不修改
type UpdateMemberRequest struct {
	Name       *string
	Email      *string
	Phone      *string
	Plan       *string
	ExpiryDate *string
	Status     *string
}

// memberService 实现
type memberService struct {
	members repository.MembersRepository
	plans   PlanService
	cache   *store.RosterCache
	events  *EventPublisher
	logger  *zap.Logger

	// 远端写入与本地计时器竞速的超时；计时器赢 = 乐观成功
	writeTimeout time.Duration
	now          func() time.Time
}

// NewMemberService 创建 MemberService 实例
func NewMemberService(
	members repository.MembersRepository,
	plans PlanService,
	cache *store.RosterCache,
	events *EventPublisher,
	writeTimeout time.Duration,
	logger *zap.Logger,
) MemberService {
	if writeTimeout <= 0 {
		writeTimeout = 2500 * time.Millisecond
	}
	return &memberService{
		members:      members,
		plans:        plans,
		cache:        cache,
		events:       events,
		logger:       logger,
		writeTimeout: writeTimeout,
		now:          time.Now,
	}
}

// ListMembers 缓存快路径
// 快照非空时立即返回；只有在本地写入不新鲜时才起后台刷新，
// 避免过期的远端读覆盖刚写入的乐观记录
func (s *memberService) ListMembers(ctx context.Context) ([]domain.Member, error) {
	cached, err := s.cache.ReadMembers(ctx)
	if err == nil {
		if s.cache.IsLocalFresh(ctx) {
			s.logger.Debug("skipping background refresh, local cache is fresh")
		} else {
			go s.backgroundRefresh()
		}
		return cached, nil
	}

	return s.Refresh(ctx)
}

func (s *memberService) backgroundRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := s.Refresh(ctx); err != nil {
		s.logger.Warn("background roster refresh failed", zap.Error(err))
	}
}

// Refresh 全量拉取 + 对账合并
// 服务端 ID 权威；服务端行带的 local_ref 标出哪些本地占位记录
// 已经「落地」，合并时保留所有服务端行 + 仍在途的本地记录，
// 按 ID 去重且服务端版本胜出
func (s *memberService) Refresh(ctx context.Context) ([]domain.Member, error) {
	// 新鲜窗口内放弃拉取，信任本地快照
	if s.cache.IsLocalFresh(ctx) {
		s.logger.Debug("aborting roster fetch, trusting local cache")
		cached, err := s.cache.ReadMembers(ctx)
		if err != nil {
			return []domain.Member{}, nil
		}
		return cached, nil
	}

	rows, err := s.members.ListMembers(ctx)
	if err != nil {
		// 读失败退回最后一份快照
		if cached, cerr := s.cache.ReadMembers(ctx); cerr == nil {
			s.logger.Warn("roster fetch failed, serving last snapshot", zap.Error(err))
			return cached, nil
		}
		return nil, fmt.Errorf("fetch members: %w", err)
	}

	server := make([]domain.Member, 0, len(rows))
	replaced := make(map[string]bool)
	for _, m := range rows {
		mm := *m
		if strings.HasPrefix(mm.LocalRef, domain.LocalIDPrefix) {
			replaced[mm.LocalRef] = true
		} else {
			mm.LocalRef = ""
		}
		server = append(server, mm)
	}

	final := server
	if cached, cerr := s.cache.ReadMembers(ctx); cerr == nil {
		var pending []domain.Member
		for _, m := range cached {
			if m.IsLocal() && !replaced[m.ID] {
				pending = append(pending, m)
			}
		}
		if len(pending) > 0 {
			s.logger.Info("merging unsynced local members", zap.Int("count", len(pending)))
			final = append(pending, server...)
		}
	}

	final = dedupByID(final)

	if err := s.cache.WriteMembers(ctx, final); err != nil {
		s.logger.Warn("roster cache write failed", zap.Error(err))
	}
	return final, nil
}

// dedupByID 按 ID 去重，保留首次出现的位置，后出现的值（服务端版本）胜出
func dedupByID(members []domain.Member) []domain.Member {
	idx := make(map[string]int, len(members))
	out := make([]domain.Member, 0, len(members))
	for _, m := range members {
		if i, ok := idx[m.ID]; ok {
			out[i] = m
			continue
		}
		idx[m.ID] = len(out)
		out = append(out, m)
	}
	return out
}

// AddMember 乐观创建
// 先分配本地占位 ID 并写入快照（最新在前），再让远端插入与
// 计时器竞速：计时器赢按乐观成功处理；远端硬失败则回滚快照
// 并把错误抛给调用方（创建不允许无声消失）
func (s *memberService) AddMember(ctx context.Context, req AddMemberRequest) (*domain.Member, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("member name is required")
	}

	plan, err := s.plans.GetPlan(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	m := domain.Member{
		ID:         domain.LocalIDPrefix + uuid.NewString(),
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.TrimSpace(req.Email),
		Phone:      strings.TrimSpace(req.Phone),
		Plan:       plan.Name,
		ExpiryDate: domain.DateOf(now.AddDate(0, 0, plan.Duration)),
		Status:     domain.MemberStatusActive,
		JoinDate:   domain.DateOf(now),
	}

	s.cache.MarkLocalWrite(ctx)
	if err := s.cache.PrependMember(ctx, m); err != nil {
		s.logger.Warn("optimistic cache write failed", zap.Error(err))
	}

	err = s.raceRemote(func(remoteCtx context.Context) error {
		record := m
		record.LocalRef = m.ID
		_, err := s.members.CreateMember(remoteCtx, &record)
		return err
	})
	switch {
	case err == nil:
		s.logger.Debug("member synced to remote", zap.String("local_id", m.ID))
	case errors.Is(err, errRaceTimeout) || isSoftRemoteErr(err):
		// 网络慢/暂不可用：按乐观成功处理，后台对账兜底
		s.logger.Warn("remote insert slow or unavailable, assuming offline persistence", zap.String("local_id", m.ID))
	default:
		// 真实错误（权限、约束）：回滚乐观记录并上抛
		if _, rerr := s.cache.RemoveMember(ctx, m.ID); rerr != nil {
			s.logger.Error("optimistic rollback failed", zap.Error(rerr))
		}
		return nil, fmt.Errorf("save member: %w", err)
	}

	s.events.MemberChanged(ctx, "created", &m)
	return &m, nil
}

// UpdateMember 乐观更新
// 快照永远先改；远端超时和「暂不可用」按软成功吞掉，
// 其余错误上抛（不回滚快照，下次拉取对齐）
func (s *memberService) UpdateMember(ctx context.Context, id string, req UpdateMemberRequest) error {
	s.cache.MarkLocalWrite(ctx)
	hit, err := s.cache.UpdateMember(ctx, id, func(m *domain.Member) {
		applyString := func(dst *string, v *string) {
			if v != nil {
				*dst = *v
			}
		}
		applyString(&m.Name, req.Name)
		applyString(&m.Email, req.Email)
		applyString(&m.Phone, req.Phone)
		applyString(&m.Plan, req.Plan)
		applyString(&m.ExpiryDate, req.ExpiryDate)
		applyString(&m.Status, req.Status)
	})
	if err != nil {
		s.logger.Warn("optimistic cache update failed", zap.Error(err))
	} else if !hit {
		s.logger.Debug("member not in cache, updating remote only", zap.String("id", id))
	}

	err = s.raceRemote(func(remoteCtx context.Context) error {
		return s.members.UpdateMember(remoteCtx, id, repository.MemberUpdate{
			Name:       req.Name,
			Email:      req.Email,
			Phone:      req.Phone,
			Plan:       req.Plan,
			ExpiryDate: req.ExpiryDate,
			Status:     req.Status,
		})
	})
	if err != nil && !errors.Is(err, errRaceTimeout) && !isSoftRemoteErr(err) {
		return fmt.Errorf("update member: %w", err)
	}

	s.events.MemberChanged(ctx, "updated", &domain.Member{ID: id})
	return nil
}

// DeleteMember 乐观删除
// 快照立即移除；远端删除发后不理，失败只记日志，从不回滚
// （删除重试/丢失的风险可接受，与创建的不对称是有意为之）
func (s *memberService) DeleteMember(ctx context.Context, id string) error {
	s.cache.MarkLocalWrite(ctx)
	if removed, err := s.cache.RemoveMember(ctx, id); err != nil {
		s.logger.Warn("optimistic cache delete failed", zap.Error(err))
	} else if removed {
		s.logger.Debug("optimistic delete applied", zap.String("id", id))
	}

	go func() {
		remoteCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.members.DeleteMember(remoteCtx, id); err != nil {
			s.logger.Error("remote delete failed", zap.String("id", id), zap.Error(err))
		}
	}()

	s.events.MemberChanged(ctx, "deleted", &domain.Member{ID: id})
	return nil
}

// RenewMember 按套餐续费
func (s *memberService) RenewMember(ctx context.Context, id, planID string) error {
	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		return err
	}

	expiry := domain.DateOf(s.now().AddDate(0, 0, plan.Duration))
	status := domain.MemberStatusActive
	return s.UpdateMember(ctx, id, UpdateMemberRequest{
		Plan:       &plan.Name,
		ExpiryDate: &expiry,
		Status:     &status,
	})
}

// errRaceTimeout 计时器先到，远端调用还在途
var errRaceTimeout = errors.New("remote write still in flight")

// raceRemote 远端写入与有界计时器竞速
// 输掉的一方不取消、只丢弃：远端调用挂在独立 context 上继续跑完，
// 这些写入是按 ID 键控的覆写，晚到落地是可接受的
func (s *memberService) raceRemote(op func(ctx context.Context) error) error {
	remoteCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	done := make(chan error, 1)
	go func() {
		defer cancel()
		done <- op(remoteCtx)
	}()

	timer := time.NewTimer(s.writeTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return errRaceTimeout
	}
}
