package service

import (
	"context"

	"go.uber.org/zap"

	"winnersfit-data/internal/domain"
	"winnersfit-data/pkg/redisx"
)

// 事件流（前端报表页的实时订阅源，取代逐页轮询）
const (
	streamMembers    = "wfc:events:members"
	streamCheckIns   = "wfc:events:checkins"
	streamAttendance = "wfc:events:attendance"
)

// EventPublisher 把状态变化发布到 Redis Streams
// 发布失败只记日志，永远不影响主流程
type EventPublisher struct {
	client *redisx.Client
	logger *zap.Logger
}

// NewEventPublisher 创建事件发布器；client 可为 nil（禁用发布）
func NewEventPublisher(client *redisx.Client, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{client: client, logger: logger}
}

func (p *EventPublisher) publish(ctx context.Context, stream string, payload interface{}) {
	if p == nil || p.client == nil {
		return
	}
	if _, err := redisx.PublishJSONToStream(ctx, p.client, stream, payload); err != nil {
		p.logger.Warn("event publish failed",
			zap.String("stream", stream),
			zap.Error(err),
		)
	}
}

// MemberChanged 会员创建/更新/删除事件
func (p *EventPublisher) MemberChanged(ctx context.Context, action string, m *domain.Member) {
	p.publish(ctx, streamMembers, map[string]interface{}{
		"action": action,
		"member": m,
	})
}

// CheckInRecorded 会员入场事件
func (p *EventPublisher) CheckInRecorded(ctx context.Context, c *domain.CheckIn) {
	p.publish(ctx, streamCheckIns, c)
}

// PunchRecorded 员工打卡事件
func (p *EventPublisher) PunchRecorded(ctx context.Context, e *domain.AttendanceEntry) {
	p.publish(ctx, streamAttendance, e)
}
