package repository

import (
	"context"
	"time"

	"winnersfit-data/internal/domain"
)

// MembersRepository 会员Repository接口
// 远端权威存储：服务端分配的 member_id 为准，local_ref 记录创建时
// 客户端提交的本地占位 ID，供缓存对账使用
type MembersRepository interface {
	// ListMembers 全量拉取，按入会日期倒序
	ListMembers(ctx context.Context) ([]*domain.Member, error)
	// CreateMember 插入新会员；m.ID 为本地占位 ID，存入 local_ref，
	// 返回服务端分配的 member_id
	CreateMember(ctx context.Context, m *domain.Member) (string, error)
	// UpdateMember 按 ID 更新；ID 也可以是尚未对账的本地占位 ID
	UpdateMember(ctx context.Context, id string, upd MemberUpdate) error
	DeleteMember(ctx context.Context, id string) error
	// TouchLastVisit 入场成功后的访问时间戳
	TouchLastVisit(ctx context.Context, id string, at time.Time) error
}

// MemberUpdate 字段级更新；nil 表示不修改
type MemberUpdate struct {
	Name       *string
	Email      *string
	Phone      *string
	Plan       *string
	ExpiryDate *string
	Status     *string
}

// PlansRepository 套餐Repository接口
type PlansRepository interface {
	ListPlans(ctx context.Context) ([]domain.Plan, error)
	// SeedPlans 目录为空时播种默认套餐（批量 upsert）
	SeedPlans(ctx context.Context, plans []domain.Plan) error
}
