package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"winnersfit-data/internal/domain"
)

// 缓存键
const (
	keyMembersCache   = "wfc:members:cache"
	keyPlansCache     = "wfc:plans:cache"
	keyLastLocalWrite = "wfc:last_local_write"
)

// RosterCache 会员名册的本地快照缓存
// 读取永远不碰网络；本地写入后的新鲜窗口内，后台刷新被跳过，
// 防止慢速/过期的远端读回写覆盖掉刚完成的乐观写入。
type RosterCache struct {
	kv          KV
	freshWindow time.Duration
	now         func() time.Time
}

// NewRosterCache 创建名册缓存；freshWindow <= 0 时取默认 10s
func NewRosterCache(kv KV, freshWindow time.Duration) *RosterCache {
	if freshWindow <= 0 {
		freshWindow = 10 * time.Second
	}
	return &RosterCache{
		kv:          kv,
		freshWindow: freshWindow,
		now:         time.Now,
	}
}

// MarkLocalWrite 记录本地写入时间戳（乐观写入前调用）
func (c *RosterCache) MarkLocalWrite(ctx context.Context) {
	ms := strconv.FormatInt(c.now().UnixMilli(), 10)
	// 写失败只影响新鲜窗口判定，不阻塞乐观写入本身
	_ = c.kv.Set(ctx, keyLastLocalWrite, ms, 0)
}

// IsLocalFresh 本地写入是否仍在新鲜窗口内
func (c *RosterCache) IsLocalFresh(ctx context.Context) bool {
	raw, err := c.kv.Get(ctx, keyLastLocalWrite)
	if err != nil {
		return false
	}
	last, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false
	}
	return c.now().UnixMilli()-last < c.freshWindow.Milliseconds()
}

// ReadMembers 读取名册快照；缺失、为空或损坏都返回 ErrMiss
func (c *RosterCache) ReadMembers(ctx context.Context) ([]domain.Member, error) {
	raw, err := c.kv.Get(ctx, keyMembersCache)
	if err != nil {
		return nil, err
	}

	var members []domain.Member
	if err := json.Unmarshal([]byte(raw), &members); err != nil {
		// 损坏的快照直接清掉，下次走全量拉取
		_ = c.kv.Del(ctx, keyMembersCache)
		return nil, ErrMiss
	}
	if len(members) == 0 {
		return nil, ErrMiss
	}
	return members, nil
}

// WriteMembers 覆写名册快照
func (c *RosterCache) WriteMembers(ctx context.Context, members []domain.Member) error {
	data, err := json.Marshal(members)
	if err != nil {
		return err
	}
	return c.kv.Set(ctx, keyMembersCache, string(data), 0)
}

// PrependMember 把新记录放到快照最前（最新优先）
func (c *RosterCache) PrependMember(ctx context.Context, m domain.Member) error {
	members, err := c.ReadMembers(ctx)
	if err != nil && !errors.Is(err, ErrMiss) {
		return err
	}
	return c.WriteMembers(ctx, append([]domain.Member{m}, members...))
}

// RemoveMember 从快照删除；返回是否确实删掉了
func (c *RosterCache) RemoveMember(ctx context.Context, id string) (bool, error) {
	members, err := c.ReadMembers(ctx)
	if err != nil {
		if errors.Is(err, ErrMiss) {
			return false, nil
		}
		return false, err
	}

	kept := members[:0]
	removed := false
	for _, m := range members {
		if m.ID == id {
			removed = true
			continue
		}
		kept = append(kept, m)
	}
	if !removed {
		return false, nil
	}
	return true, c.WriteMembers(ctx, kept)
}

// UpdateMember 就地更新快照中的一条记录；返回是否命中
func (c *RosterCache) UpdateMember(ctx context.Context, id string, apply func(*domain.Member)) (bool, error) {
	members, err := c.ReadMembers(ctx)
	if err != nil {
		if errors.Is(err, ErrMiss) {
			return false, nil
		}
		return false, err
	}

	hit := false
	for i := range members {
		if members[i].ID == id {
			apply(&members[i])
			hit = true
			break
		}
	}
	if !hit {
		return false, nil
	}
	return true, c.WriteMembers(ctx, members)
}

// ReadPlans 套餐目录快照
func (c *RosterCache) ReadPlans(ctx context.Context) ([]domain.Plan, error) {
	raw, err := c.kv.Get(ctx, keyPlansCache)
	if err != nil {
		return nil, err
	}

	var plans []domain.Plan
	if err := json.Unmarshal([]byte(raw), &plans); err != nil {
		_ = c.kv.Del(ctx, keyPlansCache)
		return nil, ErrMiss
	}
	if len(plans) == 0 {
		return nil, ErrMiss
	}
	return plans, nil
}

// WritePlans 覆写套餐目录快照
func (c *RosterCache) WritePlans(ctx context.Context, plans []domain.Plan) error {
	data, err := json.Marshal(plans)
	if err != nil {
		return err
	}
	return c.kv.Set(ctx, keyPlansCache, string(data), 0)
}
