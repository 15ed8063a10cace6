package storefront

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atlas-retail/atlas-retail/internal/customers"
	"github.com/atlas-retail/atlas-retail/internal/inventory"
	"github.com/atlas-retail/atlas-retail/internal/platform/httpx"
	"github.com/atlas-retail/atlas-retail/internal/sales"
	"github.com/atlas-retail/atlas-retail/internal/shared"
)

// Handler exposes the storefront surface.
type Handler struct {
	logger       *slog.Logger
	service      *Service
	availability *AvailabilityService
	validate     *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service, availability *AvailabilityService, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, availability: availability, validate: validate}
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	sale, err := h.service.Checkout(r.Context(), req)
	if err != nil {
		h.respondError(w, "checkout failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "product id must be numeric")
		return
	}

	snapshot, err := h.availability.Get(r.Context(), productID)
	if err != nil {
		h.respondError(w, "availability failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, snapshot)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	sale, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "orderRef"))
	if err != nil {
		h.respondError(w, "get order failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	sale, err := h.service.CancelOrder(r.Context(), actor, chi.URLParam(r, "orderRef"))
	if err != nil {
		h.respondError(w, "cancel order failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req PaymentStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	actor, _ := shared.ActorFromContext(r.Context())
	sale, err := h.service.UpdatePaymentStatus(r.Context(), actor, chi.URLParam(r, "orderRef"), req)
	if err != nil {
		h.respondError(w, "update payment status failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) UpdateShippingStatus(w http.ResponseWriter, r *http.Request) {
	var req ShippingStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	actor, _ := shared.ActorFromContext(r.Context())
	sale, err := h.service.UpdateShippingStatus(r.Context(), actor, chi.URLParam(r, "orderRef"), req)
	if err != nil {
		h.respondError(w, "update shipping status failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) respondError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, sales.ErrNotFound),
		errors.Is(err, sales.ErrVariantNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicateCheckout):
		httpx.Problem(w, http.StatusConflict, "Duplicate Checkout", err.Error())
	case errors.Is(err, sales.ErrAlreadyCancelled):
		httpx.Problem(w, http.StatusConflict, "Already Cancelled", err.Error())
	case errors.Is(err, inventory.ErrStockInsufficient):
		httpx.Problem(w, http.StatusBadRequest, "Insufficient Stock", err.Error())
	case errors.Is(err, sales.ErrInvalidInput), errors.Is(err, customers.ErrDuplicateEmail):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	case errors.Is(err, sales.ErrForbidden):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	default:
		h.logger.Error(msg, "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
