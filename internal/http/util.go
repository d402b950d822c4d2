package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"winnersfit-data/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func readJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// writeServiceError 将业务哨兵错误翻译为「短标题 + 解释」信封。
// 未识别的错误一律归为连接错误，不向客户端透出内部细节。
func writeServiceError(w http.ResponseWriter, err error) {
	status, title, explanation := classifyError(err)
	writeJSON(w, status, Fail(title, explanation))
}

func classifyError(err error) (int, string, string) {
	switch {
	case errors.Is(err, service.ErrTokenMissing):
		return http.StatusBadRequest, "No Access Token Found",
			"Please scan the QR code displayed at the gym kiosk to continue."
	case errors.Is(err, service.ErrTokenExpired):
		return http.StatusUnauthorized, "Expired Token",
			"The QR code has expired. Please scan the newly generated code on the screen."
	case errors.Is(err, service.ErrUnregisteredDevice):
		return http.StatusForbidden, "Unregistered Device",
			"This phone is not linked to any staff account. Please ask your admin to register it."
	case errors.Is(err, service.ErrInvalidPIN):
		return http.StatusForbidden, "Verification Failed",
			"The PIN you entered is incorrect. Please try again."
	case errors.Is(err, service.ErrShiftCompleted):
		return http.StatusConflict, "Shift Completed",
			"You have already clocked out today. See you tomorrow!"
	case errors.Is(err, service.ErrStaffNotFound):
		return http.StatusNotFound, "User Not Found",
			"This registration link is invalid. Please ask your admin for a new one."
	case errors.Is(err, service.ErrAlreadySetUp):
		return http.StatusGone, "Link Expired",
			"This account has already been set up. Contact your admin if you need to reset your device."
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Login Failed",
			"Invalid email or password."
	case errors.Is(err, service.ErrNotAdmin):
		return http.StatusForbidden, "Access Denied",
			"This area is restricted to administrators."
	case errors.Is(err, service.ErrMemberNotFound):
		return http.StatusNotFound, "Member Not Found",
			"No member matches that ID or name."
	case errors.Is(err, service.ErrPlanNotFound):
		return http.StatusBadRequest, "Invalid Package",
			"Please refresh the page and select a valid membership package."
	default:
		return http.StatusInternalServerError, "Connection Error",
			"Something went wrong on our side. Please check your connection and try again."
	}
}
