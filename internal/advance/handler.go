package advance

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/payroll-advance/internal/auth"
	"github.com/frahmantamala/payroll-advance/internal/transport"
	"github.com/frahmantamala/payroll-advance/pkg/logger"
)

type ServiceAPI interface {
	CreateAdvance(employeeID int64, dto CreateAdvanceDTO) (*AdvancePayment, error)
	GetAdvance(id int64) (*AdvancePayment, error)
	GetEmployeeAdvances(employeeID int64) ([]*AdvancePayment, error)
	GetAllAdvances(limit, offset int) ([]*AdvancePayment, error)
	ApproveAdvance(advanceID, approverID int64) (*AdvancePayment, error)
	RejectAdvance(advanceID, rejecterID int64, dto RejectAdvanceDTO) (*AdvancePayment, error)
	UpdateAdvance(advanceID int64, dto UpdateAdvanceDTO, userPermissions []string) (*AdvancePayment, error)
	DeleteAdvance(advanceID int64, userPermissions []string) error
	UpdateMonthlyDeductions(employeeID int64, dto UpdateMonthlyDeductionDTO) error
	RecordRepayment(referenceAdvanceID int64, dto RecordRepaymentDTO, actorID int64) (*RepaymentResult, error)
	DeletePaymentHistory(employeeID, historyID int64, userPermissions []string) error
	GetMonthlyHistory(employeeID int64, page, perPage int, showOnlyLast bool) (*MonthlyHistoryPage, error)
	GetReceipt(employeeID, historyID int64) (*ReceiptData, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) CreateAdvance(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("CreateAdvance: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	employeeID, err := h.pathID(r, "employeeID")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid employee ID")
		return
	}

	var dto CreateAdvanceDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateAdvance: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	adv, err := h.Service.CreateAdvance(employeeID, dto)
	if err != nil {
		h.Logger.Error("CreateAdvance: service error", "error", err, "employee_id", employeeID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateAdvance: advance created",
		"advance_id", adv.ID,
		"employee_id", employeeID,
		"requested_by", user.ID,
		"amount", adv.Amount)

	h.WriteJSON(w, http.StatusCreated, adv)
}

func (h *Handler) GetAdvance(w http.ResponseWriter, r *http.Request) {
	advanceID, err := h.pathID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid advance ID")
		return
	}

	adv, err := h.Service.GetAdvance(advanceID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, adv)
}

func (h *Handler) GetEmployeeAdvances(w http.ResponseWriter, r *http.Request) {
	employeeID, err := h.pathID(r, "employeeID")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid employee ID")
		return
	}

	advances, err := h.Service.GetEmployeeAdvances(employeeID)
	if err != nil {
		h.Logger.Error("GetEmployeeAdvances: service error", "error", err, "employee_id", employeeID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"advances": advances,
	})
}

func (h *Handler) GetAllAdvances(w http.ResponseWriter, r *http.Request) {
	limit := 20
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	advances, err := h.Service.GetAllAdvances(limit, offset)
	if err != nil {
		h.Logger.Error("GetAllAdvances: service error", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "failed to retrieve advances")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"advances": advances,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *Handler) ApproveAdvance(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("ApproveAdvance: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	advanceID, err := h.pathID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid advance ID")
		return
	}

	adv, err := h.Service.ApproveAdvance(advanceID, user.ID)
	if err != nil {
		h.Logger.Error("ApproveAdvance: service error", "error", err, "advance_id", advanceID, "approver_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("ApproveAdvance: advance approved", "advance_id", advanceID, "approver_id", user.ID)
	h.WriteJSON(w, http.StatusOK, adv)
}

func (h *Handler) RejectAdvance(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("RejectAdvance: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	advanceID, err := h.pathID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid advance ID")
		return
	}

	var dto RejectAdvanceDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("RejectAdvance: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	adv, err := h.Service.RejectAdvance(advanceID, user.ID, dto)
	if err != nil {
		h.Logger.Error("RejectAdvance: service error", "error", err, "advance_id", advanceID, "rejecter_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("RejectAdvance: advance rejected",
		"advance_id", advanceID,
		"rejecter_id", user.ID,
		"reason", dto.RejectionReason)

	h.WriteJSON(w, http.StatusOK, adv)
}

func (h *Handler) UpdateAdvance(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	advanceID, err := h.pathID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid advance ID")
		return
	}

	var dto UpdateAdvanceDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateAdvance: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	adv, err := h.Service.UpdateAdvance(advanceID, dto, user.Permissions)
	if err != nil {
		h.Logger.Error("UpdateAdvance: service error", "error", err, "advance_id", advanceID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, adv)
}

func (h *Handler) DeleteAdvance(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	advanceID, err := h.pathID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid advance ID")
		return
	}

	if err := h.Service.DeleteAdvance(advanceID, user.Permissions); err != nil {
		h.Logger.Error("DeleteAdvance: service error", "error", err, "advance_id", advanceID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("DeleteAdvance: advance deleted", "advance_id", advanceID, "deleted_by", user.ID)
	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) UpdateMonthlyDeductions(w http.ResponseWriter, r *http.Request) {
	employeeID, err := h.pathID(r, "employeeID")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid employee ID")
		return
	}

	var dto UpdateMonthlyDeductionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateMonthlyDeductions: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.UpdateMonthlyDeductions(employeeID, dto); err != nil {
		h.Logger.Error("UpdateMonthlyDeductions: service error", "error", err, "employee_id", employeeID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// RecordRepayment accepts a lump-sum repayment against the employee behind the
// referenced advance and returns the employee's new outstanding balance.
func (h *Handler) RecordRepayment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("RecordRepayment: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	advanceID, err := h.pathID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid advance ID")
		return
	}

	var dto RecordRepaymentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("RecordRepayment: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Service.RecordRepayment(advanceID, dto, user.ID)
	if err != nil {
		h.Logger.Error("RecordRepayment: service error", "error", err, "advance_id", advanceID, "recorded_by", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("RecordRepayment: repayment recorded",
		"advance_id", advanceID,
		"recorded_by", user.ID,
		"amount", dto.Amount,
		"new_balance", result.NewBalance)

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Payment recorded successfully",
		"new_balance": result.NewBalance,
	})
}

func (h *Handler) DeletePaymentHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("DeletePaymentHistory: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	employeeID, err := h.pathID(r, "employeeID")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid employee ID")
		return
	}

	historyID, err := h.pathID(r, "historyID")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid history ID")
		return
	}

	if err := h.Service.DeletePaymentHistory(employeeID, historyID, user.Permissions); err != nil {
		h.Logger.Error("DeletePaymentHistory: service error", "error", err,
			"employee_id", employeeID, "history_id", historyID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("DeletePaymentHistory: history deleted",
		"employee_id", employeeID,
		"history_id", historyID,
		"deleted_by", user.ID)

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) GetMonthlyHistory(w http.ResponseWriter, r *http.Request) {
	employeeID, err := h.pathID(r, "employeeID")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid employee ID")
		return
	}

	page := 1
	perPage := 10

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	if perPageStr := r.URL.Query().Get("per_page"); perPageStr != "" {
		if pp, err := strconv.Atoi(perPageStr); err == nil && pp > 0 && pp <= 100 {
			perPage = pp
		}
	}
	showOnlyLast := r.URL.Query().Get("show_only_last_record") == "true"

	history, err := h.Service.GetMonthlyHistory(employeeID, page, perPage, showOnlyLast)
	if err != nil {
		h.Logger.Error("GetMonthlyHistory: service error", "error", err, "employee_id", employeeID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, history)
}

func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	employeeID, err := h.pathID(r, "employeeID")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid employee ID")
		return
	}

	historyID, err := h.pathID(r, "historyID")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid history ID")
		return
	}

	receipt, err := h.Service.GetReceipt(employeeID, historyID)
	if err != nil {
		h.Logger.Error("GetReceipt: service error", "error", err,
			"employee_id", employeeID, "history_id", historyID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, receipt)
}

func (h *Handler) pathID(r *http.Request, param string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, param), 10, 64)
}
