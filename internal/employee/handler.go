package employee

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/payroll-advance/internal/transport"
	"github.com/frahmantamala/payroll-advance/pkg/logger"
)

type ServiceAPI interface {
	GetEmployee(id int64) (*Employee, error)
	ListEmployees(search string, limit, offset int) ([]*Employee, int64, error)
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

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "employeeID")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.Logger.Error("GetEmployee: invalid employee ID", "id", idStr)
		h.WriteError(w, http.StatusBadRequest, "invalid employee ID")
		return
	}

	emp, err := h.Service.GetEmployee(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, emp)
}

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
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
	search := r.URL.Query().Get("search")

	employees, total, err := h.Service.ListEmployees(search, limit, offset)
	if err != nil {
		h.Logger.Error("ListEmployees: service error", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "failed to list employees")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"employees": employees,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
	})
}
