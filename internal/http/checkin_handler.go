package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"winnersfit-data/internal/service"
)

// CheckInHandler 前台会员签到（扫码或手动输入）
type CheckInHandler struct {
	checkins service.CheckInService
	logger   *zap.Logger
}

func NewCheckInHandler(checkins service.CheckInService, logger *zap.Logger) *CheckInHandler {
	return &CheckInHandler{checkins: checkins, logger: logger}
}

type checkInBody struct {
	Query string `json:"query"` // 会员 ID（扫码）或姓名片段
}

func (h *CheckInHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var body checkInBody
	if err := readJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("Invalid Request", "The check-in request could not be read."))
		return
	}
	if strings.TrimSpace(body.Query) == "" {
		writeJSON(w, http.StatusBadRequest, Fail("Missing Query", "Scan a member code or type a name to check in."))
		return
	}

	result, err := h.checkins.CheckIn(r.Context(), body.Query)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(result))
}

func (h *CheckInHandler) Today(w http.ResponseWriter, r *http.Request) {
	list, err := h.checkins.TodayCheckIns(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	count, err := h.checkins.TodayCount(r.Context())
	if err != nil {
		count = len(list)
	}
	writeJSON(w, http.StatusOK, Ok(map[string]interface{}{
		"count":    count,
		"checkIns": list,
	}))
}
