package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"winnersfit-data/internal/service"
)

// AuthHandler 登录 / 会话校验 / 员工开通
type AuthHandler struct {
	auth   service.AuthService
	logger *zap.Logger
}

func NewAuthHandler(auth service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if err := readJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("Invalid Request", "The login request could not be read."))
		return
	}

	resp, err := h.auth.Login(r.Context(), service.LoginRequest{
		Email:        body.Email,
		Password:     body.Password,
		SelectedRole: body.Role,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// RequireRole 会话中间件。role 为空时只要求已登录，
// 否则要求实际角色与之相符（管理员天然覆盖 staff 权限）。
func (h *AuthHandler) RequireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := h.verify(r)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, Result[string]{
				Code: ResultTokenExpired, Type: "error",
				Message: "Session Expired",
				Result:  "Please log in again.",
			})
			return
		}
		if role != "" && claims.Role != role && claims.Role != "admin" {
			writeServiceError(w, service.ErrNotAdmin)
			return
		}
		next(w, r)
	}
}

func (h *AuthHandler) verify(r *http.Request) (*service.SessionClaims, error) {
	header := r.Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" || token == header {
		return nil, service.ErrInvalidCredentials
	}
	return h.auth.VerifyAccessToken(token)
}

type provisionBody struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

func (h *AuthHandler) ProvisionStaff(w http.ResponseWriter, r *http.Request) {
	var body provisionBody
	if err := readJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("Invalid Request", "The staff form could not be read."))
		return
	}
	if body.FirstName == "" || body.Email == "" {
		writeJSON(w, http.StatusBadRequest, Fail("Missing Fields", "First name and email are required."))
		return
	}

	resp, err := h.auth.ProvisionStaff(r.Context(), service.ProvisionStaffRequest{
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Email:     body.Email,
		Phone:     body.Phone,
		Address:   body.Address,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *AuthHandler) ListStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.auth.ListStaff(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(staff))
}
