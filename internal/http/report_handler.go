package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"winnersfit-data/internal/service"
)

// ReportHandler 经营汇总与 Excel 导出
type ReportHandler struct {
	reports service.ReportService
	logger  *zap.Logger
}

func NewReportHandler(reports service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger}
}

func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	periodDays := 30
	if raw := r.URL.Query().Get("period"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 366 {
			periodDays = n
		}
	}
	summary, err := h.reports.Summary(r.Context(), periodDays)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(summary))
}

func (h *ReportHandler) ExportMembers(w http.ResponseWriter, r *http.Request) {
	data, err := h.reports.ExportMembers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeWorkbook(w, "members", data)
}

func (h *ReportHandler) ExportAttendance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	to := q.Get("to")
	from := q.Get("from")
	if to == "" {
		to = time.Now().Format("2006-01-02")
	}
	if from == "" {
		from = time.Now().AddDate(0, 0, -30).Format("2006-01-02")
	}

	data, err := h.reports.ExportAttendance(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeWorkbook(w, "attendance", data)
}

func writeWorkbook(w http.ResponseWriter, name string, data []byte) {
	filename := fmt.Sprintf("%s_%s.xlsx", name, time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
