package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"winnersfit-data/internal/domain"
	"winnersfit-data/internal/repository"
	"winnersfit-data/internal/store"
)

// fakeCheckInsRepo 内存入场记录存根
type fakeCheckInsRepo struct {
	mu      sync.Mutex
	records []*domain.CheckIn
}

var _ repository.CheckInsRepository = (*fakeCheckInsRepo)(nil)

func (f *fakeCheckInsRepo) AppendCheckIn(ctx context.Context, c *domain.CheckIn) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	cp.ID = "ci-" + time.Now().Format("150405.000000000")
	f.records = append(f.records, &cp)
	return cp.ID, nil
}

func (f *fakeCheckInsRepo) ListByDate(ctx context.Context, logDate string) ([]*domain.CheckIn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.CheckIn
	for _, c := range f.records {
		if c.LogDate == logDate {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCheckInsRepo) CountByDate(ctx context.Context, logDate string) (int, error) {
	list, _ := f.ListByDate(ctx, logDate)
	return len(list), nil
}

type checkInFixture struct {
	svc     CheckInService
	roster  *fakeMembersRepo
	records *fakeCheckInsRepo
	cache   *store.RosterCache
}

func setupCheckIn(t *testing.T, members []domain.Member) *checkInFixture {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := store.NewRosterCache(store.NewRedisKV(client), 10*time.Second)
	require.NoError(t, cache.WriteMembers(context.Background(), members))
	// 测试期间不触发后台刷新
	cache.MarkLocalWrite(context.Background())

	roster := newFakeMembersRepo()
	records := &fakeCheckInsRepo{}
	memberSvc := NewMemberService(roster, fakePlanService{}, cache, nil, 50*time.Millisecond, zap.NewNop())
	svc := NewCheckInService(memberSvc, records, roster, nil, zap.NewNop())

	return &checkInFixture{svc: svc, roster: roster, records: records, cache: cache}
}

func rosterMember(id, name, expiry string) domain.Member {
	return domain.Member{
		ID:         id,
		Name:       name,
		Plan:       "Monthly",
		ExpiryDate: expiry,
		Status:     domain.MemberStatusActive,
		JoinDate:   "2026-01-01",
	}
}

func TestCheckIn_ExactIDMatch(t *testing.T) {
	future := domain.DateOf(time.Now().AddDate(0, 1, 0))
	fx := setupCheckIn(t, []domain.Member{
		rosterMember("m-1", "Alice Johnson", future),
		rosterMember("m-2", "Bob Alice", future), // 名字也含 "alice"，不应被选中
	})

	res, err := fx.svc.CheckIn(context.Background(), "m-1")
	require.NoError(t, err)
	assert.Equal(t, "m-1", res.Member.ID)
	assert.Equal(t, domain.CheckInValid, res.Status)
	assert.Equal(t, "Access Granted", res.StatusText)
}

func TestCheckIn_NameContainsMatch(t *testing.T) {
	future := domain.DateOf(time.Now().AddDate(0, 1, 0))
	fx := setupCheckIn(t, []domain.Member{rosterMember("m-1", "Alice Johnson", future)})

	res, err := fx.svc.CheckIn(context.Background(), "johnson")
	require.NoError(t, err)
	assert.Equal(t, "m-1", res.Member.ID)
}

func TestCheckIn_NotFound(t *testing.T) {
	fx := setupCheckIn(t, []domain.Member{rosterMember("m-1", "Alice", "2099-01-01")})

	_, err := fx.svc.CheckIn(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrMemberNotFound)

	_, err = fx.svc.CheckIn(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestCheckIn_ExpiredMembershipStillLogged(t *testing.T) {
	past := domain.DateOf(time.Now().AddDate(0, -1, 0))
	fx := setupCheckIn(t, []domain.Member{rosterMember("m-1", "Alice", past)})

	res, err := fx.svc.CheckIn(context.Background(), "m-1")
	require.NoError(t, err)
	assert.Equal(t, domain.CheckInExpired, res.Status)
	assert.Equal(t, "Membership Expired", res.StatusText)

	// 过期尝试也留痕
	require.Len(t, fx.records.records, 1)
	assert.Equal(t, domain.CheckInExpired, fx.records.records[0].Status)
}

func TestCheckIn_ExpiryComputedFromDateNotStoredStatus(t *testing.T) {
	// 存储的 status 还是 Active，但到期日已过：按到期日现算
	past := domain.DateOf(time.Now().AddDate(0, 0, -1))
	fx := setupCheckIn(t, []domain.Member{rosterMember("m-1", "Alice", past)})

	res, err := fx.svc.CheckIn(context.Background(), "m-1")
	require.NoError(t, err)
	assert.Equal(t, domain.CheckInExpired, res.Status)
}

func TestToday(t *testing.T) {
	future := domain.DateOf(time.Now().AddDate(0, 1, 0))
	fx := setupCheckIn(t, []domain.Member{rosterMember("m-1", "Alice", future)})
	ctx := context.Background()

	_, err := fx.svc.CheckIn(ctx, "m-1")
	require.NoError(t, err)

	list, err := fx.svc.TodayCheckIns(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	count, err := fx.svc.TodayCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
