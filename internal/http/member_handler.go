package httpapi

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"winnersfit-data/internal/service"
)

// MemberHandler 会员名册 CRUD、续费、套餐列表
type MemberHandler struct {
	members service.MemberService
	plans   service.PlanService
	mail    *service.MailClient
	logger  *zap.Logger
}

func NewMemberHandler(members service.MemberService, plans service.PlanService, mail *service.MailClient, logger *zap.Logger) *MemberHandler {
	return &MemberHandler{members: members, plans: plans, mail: mail, logger: logger}
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.members.ListMembers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(members))
}

// Refresh 强制与远端对账并返回合并后的名册
func (h *MemberHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	members, err := h.members.Refresh(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(members))
}

type createMemberBody struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	PlanID string `json:"planId"`
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body createMemberBody
	if err := readJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("Invalid Request", "The member form could not be read."))
		return
	}

	member, err := h.members.AddMember(r.Context(), service.AddMemberRequest{
		Name:   body.Name,
		Email:  body.Email,
		Phone:  body.Phone,
		PlanID: body.PlanID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// 欢迎邮件（含会员码）不阻塞注册响应
	if h.mail.Enabled() && member.Email != "" {
		go h.sendWelcome(member.Name, member.Email, member.Plan, member.ExpiryDate, member.ID)
	}

	writeJSON(w, http.StatusOK, Ok(member))
}

func (h *MemberHandler) sendWelcome(name, email, plan, expiry, memberID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	err := h.mail.SendMemberWelcome(ctx, service.MemberWelcomeMail{
		ToEmail:    email,
		ToName:     name,
		Plan:       plan,
		ExpiryDate: expiry,
		QRPayload:  memberID,
	})
	if err != nil {
		h.logger.Warn("member welcome mail failed",
			zap.String("email", email),
			zap.Error(err))
	}
}

type updateMemberBody struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	Plan       *string `json:"plan"`
	ExpiryDate *string `json:"expiryDate"`
	Status     *string `json:"status"`
}

func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request, id string) {
	var body updateMemberBody
	if err := readJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("Invalid Request", "The update could not be read."))
		return
	}

	err := h.members.UpdateMember(r.Context(), id, service.UpdateMemberRequest{
		Name:       body.Name,
		Email:      body.Email,
		Phone:      body.Phone,
		Plan:       body.Plan,
		ExpiryDate: body.ExpiryDate,
		Status:     body.Status,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok("updated"))
}

func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.members.DeleteMember(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok("deleted"))
}

type renewBody struct {
	PlanID string `json:"planId"`
}

func (h *MemberHandler) Renew(w http.ResponseWriter, r *http.Request, id string) {
	var body renewBody
	if err := readJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("Invalid Request", "The renewal could not be read."))
		return
	}
	if err := h.members.RenewMember(r.Context(), id, body.PlanID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok("renewed"))
}

func (h *MemberHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.plans.ListPlans(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(plans))
}
