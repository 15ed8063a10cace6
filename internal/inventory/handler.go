package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atlas-retail/atlas-retail/internal/platform/httpx"
	"github.com/atlas-retail/atlas-retail/internal/shared"
)

// Handler exposes variant management over JSON.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

func (h *Handler) ListVariants(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "product id must be numeric")
		return
	}

	variants, err := h.service.ListVariants(r.Context(), productID)
	if err != nil {
		h.respondError(w, "list variants failed", err)
		return
	}
	if variants == nil {
		variants = []Variant{}
	}
	httpx.JSON(w, http.StatusOK, variants)
}

func (h *Handler) SyncVariants(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "product id must be numeric")
		return
	}

	var req SyncVariantsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	actor, _ := shared.ActorFromContext(r.Context())
	variants, err := h.service.SyncVariants(r.Context(), actor, productID, req.Variants)
	if err != nil {
		h.respondError(w, "sync variants failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, variants)
}

func (h *Handler) AddVariants(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "product id must be numeric")
		return
	}

	var req AddVariantsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	actor, _ := shared.ActorFromContext(r.Context())
	variants, err := h.service.AddVariants(r.Context(), actor, productID, req.Variants)
	if err != nil {
		h.respondError(w, "add variants failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, variants)
}

func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	variantID, err := strconv.ParseInt(chi.URLParam(r, "variantID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "variant id must be numeric")
		return
	}

	var req AdjustStockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	actor, _ := shared.ActorFromContext(r.Context())
	variant, err := h.service.AdjustStock(r.Context(), actor, variantID, req.Delta)
	if err != nil {
		h.respondError(w, "adjust stock failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, variant)
}

func (h *Handler) respondError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrVariantNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrForbidden):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrStockInsufficient), errors.Is(err, ErrInvalidQuantity):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	default:
		h.logger.Error(msg, "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
