package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"winnersfit-data/internal/service"
)

// AttendanceHandler 员工扫码落地页、打卡、设备注册与打卡亭令牌轮换
type AttendanceHandler struct {
	attendance service.AttendanceService
	tokens     *service.TokenService
	logger     *zap.Logger

	// 打卡亭轮换会话，同一时间最多一个
	mu          sync.Mutex
	kioskCancel context.CancelFunc
}

func NewAttendanceHandler(attendance service.AttendanceService, tokens *service.TokenService, logger *zap.Logger) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, tokens: tokens, logger: logger}
}

// Entry 扫码深链接落地。两种形态：
//   - ?action=register&staffId=S  -> 设备注册向导
//   - ?token=T                    -> 打卡 PIN 页（先验令牌）
func (h *AttendanceHandler) Entry(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Get("action") == "register" {
		staffID := q.Get("staffId")
		if staffID == "" {
			writeServiceError(w, service.ErrStaffNotFound)
			return
		}
		info, err := h.attendance.BeginRegistration(r.Context(), staffID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, Ok(map[string]interface{}{
			"mode":  "register",
			"staff": info,
		}))
		return
	}

	token := q.Get("token")
	if token == "" {
		writeServiceError(w, service.ErrTokenMissing)
		return
	}
	if err := h.tokens.Validate(r.Context(), token); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]interface{}{
		"mode":  "punch",
		"token": token,
	}))
}

type punchBody struct {
	Token       string `json:"token"`
	DeviceID    string `json:"deviceId"`
	PIN         string `json:"pin"`
	Fingerprint string `json:"fingerprint"`
}

func (h *AttendanceHandler) Punch(w http.ResponseWriter, r *http.Request) {
	var body punchBody
	if err := readJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("Invalid Request", "The punch request could not be read."))
		return
	}

	resp, err := h.attendance.Punch(r.Context(), service.PunchRequest{
		Token:       body.Token,
		DeviceID:    body.DeviceID,
		PIN:         body.PIN,
		Fingerprint: body.Fingerprint,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

type completeRegistrationBody struct {
	StaffID     string `json:"staffId"`
	Username    string `json:"username"`
	PIN         string `json:"pin"`
	DeviceID    string `json:"deviceId"`
	Fingerprint string `json:"fingerprint"`
}

func (h *AttendanceHandler) CompleteRegistration(w http.ResponseWriter, r *http.Request) {
	var body completeRegistrationBody
	if err := readJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("Invalid Request", "The registration form could not be read."))
		return
	}

	resp, err := h.attendance.CompleteRegistration(r.Context(), service.CompleteRegistrationRequest{
		StaffID:     body.StaffID,
		Username:    body.Username,
		PIN:         body.PIN,
		DeviceID:    body.DeviceID,
		Fingerprint: body.Fingerprint,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

type relinkBody struct {
	StaffID  string `json:"staffId"`
	DeviceID string `json:"deviceId"`
}

func (h *AttendanceHandler) Relink(w http.ResponseWriter, r *http.Request) {
	var body relinkBody
	if err := readJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("Invalid Request", "The relink request could not be read."))
		return
	}
	if err := h.attendance.RelinkDevice(r.Context(), body.StaffID, body.DeviceID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok("relinked"))
}

func (h *AttendanceHandler) RecentLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	logs, err := h.attendance.RecentLogs(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(logs))
}

// StartKiosk 启动令牌轮换循环。重复调用会先停掉上一个会话。
func (h *AttendanceHandler) StartKiosk(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.kioskCancel != nil {
		h.kioskCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h.kioskCancel = cancel
	h.mu.Unlock()

	go h.tokens.RunKiosk(ctx)
	h.logger.Info("kiosk token rotation started")
	writeJSON(w, http.StatusOK, Ok("kiosk started"))
}

func (h *AttendanceHandler) StopKiosk(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.kioskCancel != nil {
		h.kioskCancel()
		h.kioskCancel = nil
	}
	h.mu.Unlock()

	h.logger.Info("kiosk token rotation stopped")
	writeJSON(w, http.StatusOK, Ok("kiosk stopped"))
}

// CurrentToken 打卡亭展示端轮询当前令牌与二维码深链接
func (h *AttendanceHandler) CurrentToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.tokens.Current(r.Context())
	if err != nil {
		writeServiceError(w, service.ErrTokenMissing)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]interface{}{
		"token":    token.Token,
		"expires":  token.Expires,
		"deepLink": h.tokens.DeepLink(token.Token),
	}))
}
