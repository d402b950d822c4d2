package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"winnersfit-data/internal/domain"
)

func setupTestCache(t *testing.T) (*miniredis.Miniredis, *RosterCache) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, NewRosterCache(NewRedisKV(client), 10*time.Second)
}

func testMember(id, name string) domain.Member {
	return domain.Member{
		ID:         id,
		Name:       name,
		Plan:       "Monthly",
		ExpiryDate: "2026-12-31",
		Status:     "Active",
		JoinDate:   "2026-01-01",
	}
}

func TestRosterCache_ReadMembers_Miss(t *testing.T) {
	_, cache := setupTestCache(t)

	_, err := cache.ReadMembers(context.Background())
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRosterCache_WriteThenRead(t *testing.T) {
	_, cache := setupTestCache(t)
	ctx := context.Background()

	want := []domain.Member{testMember("m1", "Alice"), testMember("m2", "Bob")}
	require.NoError(t, cache.WriteMembers(ctx, want))

	got, err := cache.ReadMembers(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRosterCache_CorruptSnapshotIsDropped(t *testing.T) {
	mr, cache := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("wfc:members:cache", "{not json"))

	_, err := cache.ReadMembers(ctx)
	assert.ErrorIs(t, err, ErrMiss)

	// 损坏的键应被清掉
	assert.False(t, mr.Exists("wfc:members:cache"))
}

func TestRosterCache_PrependMember(t *testing.T) {
	_, cache := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.WriteMembers(ctx, []domain.Member{testMember("m1", "Alice")}))
	require.NoError(t, cache.PrependMember(ctx, testMember("loc_abc", "Carol")))

	got, err := cache.ReadMembers(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "loc_abc", got[0].ID)
	assert.Equal(t, "m1", got[1].ID)
}

func TestRosterCache_PrependIntoEmptyCache(t *testing.T) {
	_, cache := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.PrependMember(ctx, testMember("loc_abc", "Carol")))

	got, err := cache.ReadMembers(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Carol", got[0].Name)
}

func TestRosterCache_RemoveMember(t *testing.T) {
	_, cache := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.WriteMembers(ctx, []domain.Member{
		testMember("m1", "Alice"),
		testMember("m2", "Bob"),
	}))

	removed, err := cache.RemoveMember(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, removed)

	got, err := cache.ReadMembers(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m2", got[0].ID)

	removed, err = cache.RemoveMember(ctx, "no-such-id")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRosterCache_UpdateMember(t *testing.T) {
	_, cache := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.WriteMembers(ctx, []domain.Member{testMember("m1", "Alice")}))

	hit, err := cache.UpdateMember(ctx, "m1", func(m *domain.Member) {
		m.Status = "Expired"
	})
	require.NoError(t, err)
	assert.True(t, hit)

	got, err := cache.ReadMembers(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Expired", got[0].Status)

	hit, err = cache.UpdateMember(ctx, "missing", func(m *domain.Member) { m.Status = "x" })
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRosterCache_FreshWindow(t *testing.T) {
	_, cache := setupTestCache(t)
	ctx := context.Background()

	// 没有本地写入记录
	assert.False(t, cache.IsLocalFresh(ctx))

	base := time.Now()
	cache.now = func() time.Time { return base }
	cache.MarkLocalWrite(ctx)

	cache.now = func() time.Time { return base.Add(5 * time.Second) }
	assert.True(t, cache.IsLocalFresh(ctx))

	// 正好到达窗口边界即过期
	cache.now = func() time.Time { return base.Add(10 * time.Second) }
	assert.False(t, cache.IsLocalFresh(ctx))
}

func TestRosterCache_Plans(t *testing.T) {
	_, cache := setupTestCache(t)
	ctx := context.Background()

	_, err := cache.ReadPlans(ctx)
	assert.ErrorIs(t, err, ErrMiss)

	want := domain.DefaultPlans()
	require.NoError(t, cache.WritePlans(ctx, want))

	got, err := cache.ReadPlans(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
