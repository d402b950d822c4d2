package service

import (
	"context"

	"go.uber.org/zap"

	"winnersfit-data/internal/domain"
	"winnersfit-data/internal/repository"
	"winnersfit-data/internal/store"
)

// PlanService 套餐目录服务接口
type PlanService interface {
	ListPlans(ctx context.Context) ([]domain.Plan, error)
	GetPlan(ctx context.Context, planID string) (*domain.Plan, error)
}

// planService 实现
// 目录几乎不变：缓存命中直接返回；远端目录为空时播种默认套餐；
// 远端不可用时退回默认套餐，注册流程不因此瘫痪
type planService struct {
	repo   repository.PlansRepository
	cache  *store.RosterCache
	logger *zap.Logger
}

// NewPlanService 创建 PlanService 实例
func NewPlanService(repo repository.PlansRepository, cache *store.RosterCache, logger *zap.Logger) PlanService {
	return &planService{repo: repo, cache: cache, logger: logger}
}

// ListPlans 套餐目录（缓存优先）
func (s *planService) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	if cached, err := s.cache.ReadPlans(ctx); err == nil {
		return cached, nil
	}

	plans, err := s.repo.ListPlans(ctx)
	if err != nil {
		s.logger.Warn("plan catalog unavailable, using defaults", zap.Error(err))
		return domain.DefaultPlans(), nil
	}

	if len(plans) == 0 {
		s.logger.Info("plan catalog empty, seeding defaults")
		defaults := domain.DefaultPlans()
		if err := s.repo.SeedPlans(ctx, defaults); err != nil {
			s.logger.Warn("plan seeding failed", zap.Error(err))
		}
		plans = defaults
	}

	if err := s.cache.WritePlans(ctx, plans); err != nil {
		s.logger.Warn("plan cache write failed", zap.Error(err))
	}
	return plans, nil
}

// GetPlan 按 ID 查询；未命中返回 ErrPlanNotFound
func (s *planService) GetPlan(ctx context.Context, planID string) (*domain.Plan, error) {
	plans, err := s.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	for i := range plans {
		if plans[i].ID == planID {
			return &plans[i], nil
		}
	}
	return nil, ErrPlanNotFound
}
