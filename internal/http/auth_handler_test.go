package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"winnersfit-data/internal/domain"
	"winnersfit-data/internal/service"
)

// fakeAuth 可编程的认证服务存根
type fakeAuth struct {
	claims *service.SessionClaims
	staff  []service.StaffView
}

func (f *fakeAuth) Login(ctx context.Context, req service.LoginRequest) (*service.LoginResponse, error) {
	return nil, service.ErrInvalidCredentials
}

func (f *fakeAuth) VerifyAccessToken(tokenString string) (*service.SessionClaims, error) {
	if f.claims == nil {
		return nil, service.ErrInvalidCredentials
	}
	return f.claims, nil
}

func (f *fakeAuth) ProvisionStaff(ctx context.Context, req service.ProvisionStaffRequest) (*service.ProvisionStaffResponse, error) {
	return nil, service.ErrNotAdmin
}

func (f *fakeAuth) ListStaff(ctx context.Context) ([]service.StaffView, error) {
	return f.staff, nil
}

var _ service.AuthService = (*fakeAuth)(nil)

func TestListStaff_WireShape(t *testing.T) {
	staff := &domain.Staff{
		ID:           "s1",
		FirstName:    "Ada",
		LastName:     "Eze",
		Email:        "ada@winnersfit.test",
		Username:     "122000001",
		Role:         domain.RoleStaff,
		Status:       "active",
		PasswordHash: service.HashSecret("staff1234"),
		PINHash:      service.HashSecret("4321"),
		CreatedAt:    time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	}
	auth := &fakeAuth{
		claims: &service.SessionClaims{StaffID: "admin-1", Role: domain.RoleAdmin},
		staff:  []service.StaffView{service.NewStaffView(staff)},
	}
	handler := NewAuthHandler(auth, zap.NewNop())
	router := NewRouter(zap.NewNop())
	router.RegisterAuthRoutes(handler)

	req := httptest.NewRequest(http.MethodGet, "/auth/api/v1/staff", nil)
	req.Header.Set("Authorization", "Bearer session-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	// 凭据散列和 NullString 包装结构都不许出网
	assert.NotContains(t, body, "PasswordHash")
	assert.NotContains(t, body, "PINHash")
	assert.NotContains(t, body, `"Valid"`)

	res := decodeResult(t, rec)
	require.Equal(t, ResultSuccess, res.Code)

	var views []service.StaffView
	require.NoError(t, json.Unmarshal(res.Result, &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Ada Eze", views[0].Name)
	assert.Equal(t, "122000001", views[0].Username)
	assert.False(t, views[0].DeviceBound)
}

func TestListStaff_RequiresSession(t *testing.T) {
	handler := NewAuthHandler(&fakeAuth{}, zap.NewNop())
	router := NewRouter(zap.NewNop())
	router.RegisterAuthRoutes(handler)

	req := httptest.NewRequest(http.MethodGet, "/auth/api/v1/staff", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "Session Expired"))
}
