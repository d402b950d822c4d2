package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func methodOnly(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}

// RegisterAuthRoutes 登录 / 员工开通（开通仅限管理员）
func (r *Router) RegisterAuthRoutes(h *AuthHandler) {
	r.Handle("/auth/api/v1/login", methodOnly(http.MethodPost, h.Login))
	r.Handle("/auth/api/v1/staff", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.RequireRole("", h.ListStaff)(w, req)
		case http.MethodPost:
			h.RequireRole("admin", h.ProvisionStaff)(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

// RegisterMemberRoutes 会员名册 CRUD + 续费 + 套餐
func (r *Router) RegisterMemberRoutes(h *MemberHandler, auth *AuthHandler) {
	r.Handle("/data/api/v1/members", auth.RequireRole("", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.List(w, req)
		case http.MethodPost:
			h.Create(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))

	// members/{id}, members/{id}/renew
	r.Handle("/data/api/v1/members/", auth.RequireRole("", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/data/api/v1/members/")
		if rest == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if id, ok := strings.CutSuffix(rest, "/renew"); ok {
			if req.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.Renew(w, req, id)
			return
		}
		if strings.Contains(rest, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch req.Method {
		case http.MethodPatch, http.MethodPut:
			h.Update(w, req, rest)
		case http.MethodDelete:
			h.Delete(w, req, rest)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))

	r.Handle("/data/api/v1/members/sync", auth.RequireRole("", methodOnly(http.MethodPost, h.Refresh)))
	r.Handle("/data/api/v1/plans", methodOnly(http.MethodGet, h.ListPlans))
}

// RegisterCheckInRoutes 前台会员签到
func (r *Router) RegisterCheckInRoutes(h *CheckInHandler, auth *AuthHandler) {
	r.Handle("/data/api/v1/checkins", auth.RequireRole("", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.Today(w, req)
		case http.MethodPost:
			h.CheckIn(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
}

// RegisterAttendanceRoutes 打卡亭 + 扫码落地页 + 设备注册
// 注意：/attendance/api/v1/entry 面向员工手机，不要求会话
func (r *Router) RegisterAttendanceRoutes(h *AttendanceHandler, auth *AuthHandler) {
	r.Handle("/attendance/api/v1/entry", methodOnly(http.MethodGet, h.Entry))
	r.Handle("/attendance/api/v1/punch", methodOnly(http.MethodPost, h.Punch))
	r.Handle("/attendance/api/v1/register", methodOnly(http.MethodPost, h.CompleteRegistration))

	r.Handle("/attendance/api/v1/relink", auth.RequireRole("admin", methodOnly(http.MethodPost, h.Relink)))
	r.Handle("/attendance/api/v1/logs", auth.RequireRole("", methodOnly(http.MethodGet, h.RecentLogs)))

	// 打卡亭展示端
	r.Handle("/attendance/api/v1/kiosk/start", auth.RequireRole("admin", methodOnly(http.MethodPost, h.StartKiosk)))
	r.Handle("/attendance/api/v1/kiosk/stop", auth.RequireRole("admin", methodOnly(http.MethodPost, h.StopKiosk)))
	r.Handle("/attendance/api/v1/kiosk/current", methodOnly(http.MethodGet, h.CurrentToken))
}

// RegisterReportRoutes 汇总报表 + Excel 导出（仅管理员）
func (r *Router) RegisterReportRoutes(h *ReportHandler, auth *AuthHandler) {
	r.Handle("/data/api/v1/reports/summary", auth.RequireRole("admin", methodOnly(http.MethodGet, h.Summary)))
	r.Handle("/data/api/v1/reports/members/export", auth.RequireRole("admin", methodOnly(http.MethodGet, h.ExportMembers)))
	r.Handle("/data/api/v1/reports/attendance/export", auth.RequireRole("admin", methodOnly(http.MethodGet, h.ExportAttendance)))
}
