package sales

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atlas-retail/atlas-retail/internal/inventory"
	"github.com/atlas-retail/atlas-retail/internal/platform/httpx"
	"github.com/atlas-retail/atlas-retail/internal/shared"
)

// Handler exposes the sale engine over JSON.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

type saleListResponse struct {
	Sales  []Sale `json:"sales"`
	Total  int    `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	actor, _ := shared.ActorFromContext(r.Context())
	sale, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		h.respondError(w, "create sale failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "sale id must be numeric")
		return
	}

	var req UpdateSaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	actor, _ := shared.ActorFromContext(r.Context())
	sale, err := h.service.Update(r.Context(), actor, id, req)
	if err != nil {
		h.respondError(w, "update sale failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "sale id must be numeric")
		return
	}

	actor, _ := shared.ActorFromContext(r.Context())
	if err := h.service.Remove(r.Context(), actor, id); err != nil {
		h.respondError(w, "remove sale failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "sale id must be numeric")
		return
	}

	actor, _ := shared.ActorFromContext(r.Context())
	sale, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		h.respondError(w, "get sale failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ListSalesRequest{}

	if v := q.Get("location_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.LocationID = &id
		}
	}
	if v := q.Get("customer_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.CustomerID = &id
		}
	}
	if v := q.Get("status"); v != "" {
		status := SaleStatus(v)
		req.Status = &status
	}
	if v := q.Get("channel"); v != "" {
		ch := Channel(v)
		req.Channel = &ch
	}
	if t := parseDate(q.Get("from")); t != nil {
		req.From = t
	}
	if t := parseDate(q.Get("to")); t != nil {
		req.To = t
	}
	req.Limit, _ = strconv.Atoi(q.Get("limit"))
	req.Offset, _ = strconv.Atoi(q.Get("offset"))
	if req.Limit <= 0 || req.Limit > 200 {
		req.Limit = 50
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	actor, _ := shared.ActorFromContext(r.Context())
	sales, total, err := h.service.List(r.Context(), actor, req)
	if err != nil {
		h.respondError(w, "list sales failed", err)
		return
	}
	if sales == nil {
		sales = []Sale{}
	}
	httpx.JSON(w, http.StatusOK, saleListResponse{Sales: sales, Total: total, Limit: req.Limit, Offset: req.Offset})
}

// Verify is the public receipt verification endpoint.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	receipt, err := h.service.VerifyByCode(r.Context(), code)
	if err != nil {
		h.respondError(w, "verify sale failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, receipt)
}

func (h *Handler) respondError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrVariantNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, inventory.ErrStockInsufficient):
		httpx.Problem(w, http.StatusBadRequest, "Insufficient Stock", err.Error())
	case errors.Is(err, ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	case errors.Is(err, ErrForbidden):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrAlreadyCancelled):
		httpx.Problem(w, http.StatusConflict, "Already Cancelled", err.Error())
	default:
		h.logger.Error(msg, "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
