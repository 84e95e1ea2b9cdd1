package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/rakadenny/backend-kedai/internal/catalog"
	"github.com/rakadenny/backend-kedai/internal/common"
	"github.com/rakadenny/backend-kedai/internal/pricing"
)

// Handler wires the cart service to HTTP.
type Handler struct {
	Svc             *Service
	Validate        *validator.Validate
	FreeShippingMin pricing.Money
	ShippingFee     pricing.Money
	Currency        string
}

type addItemPayload struct {
	ProductID string            `json:"productId" validate:"required"`
	Selection catalog.Selection `json:"selection"`
	Qty       int               `json:"qty" validate:"required,gt=0"`
}

type updateItemPayload struct {
	ProductID string            `json:"productId" validate:"required"`
	Selection catalog.Selection `json:"selection"`
	Qty       int               `json:"qty"`
}

type removeItemPayload struct {
	ProductID string             `json:"productId" validate:"required"`
	Selection *catalog.Selection `json:"selection"`
}

type mergePayload struct {
	SourceCartID string `json:"sourceCartId" validate:"required,uuid4"`
}

// Create allocates a new cart.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "cart service not configured", nil)
		return
	}
	cartID, err := h.Svc.Create(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, map[string]any{"cartId": cartID})
}

// Get returns cart contents and a pricing preview.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "cart service not configured", nil)
		return
	}
	cartID := chi.URLParam(r, "id")
	items, err := h.Svc.Get(r.Context(), cartID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, cartID, items)
}

// AddItem adds or increments a cart line item.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "cart service not configured", nil)
		return
	}
	cartID := chi.URLParam(r, "id")
	var payload addItemPayload
	if !h.decode(w, r, &payload) {
		return
	}
	items, err := h.Svc.AddItem(r.Context(), cartID, payload.ProductID, payload.Selection, payload.Qty)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, cartID, items)
}

// UpdateItem sets the quantity for a cart line item.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "cart service not configured", nil)
		return
	}
	cartID := chi.URLParam(r, "id")
	var payload updateItemPayload
	if !h.decode(w, r, &payload) {
		return
	}
	items, err := h.Svc.UpdateItem(r.Context(), cartID, payload.ProductID, payload.Selection, payload.Qty)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, cartID, items)
}

// RemoveItem deletes the matching line item; omitting the selection removes
// every line for the product.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "cart service not configured", nil)
		return
	}
	cartID := chi.URLParam(r, "id")
	var payload removeItemPayload
	if !h.decode(w, r, &payload) {
		return
	}
	var sel catalog.Selection
	if payload.Selection != nil {
		sel = *payload.Selection
	}
	items, err := h.Svc.RemoveItem(r.Context(), cartID, payload.ProductID, sel)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, cartID, items)
}

// Revalidate refreshes the cart against current catalog truth.
func (h *Handler) Revalidate(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "cart service not configured", nil)
		return
	}
	cartID := chi.URLParam(r, "id")
	items, err := h.Svc.Revalidate(r.Context(), cartID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, cartID, items)
}

// Merge folds a source cart into this one.
func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "cart service not configured", nil)
		return
	}
	cartID := chi.URLParam(r, "id")
	var payload mergePayload
	if !h.decode(w, r, &payload) {
		return
	}
	items, err := h.Svc.Merge(r.Context(), cartID, payload.SourceCartID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, cartID, items)
}

func (h *Handler) respond(w http.ResponseWriter, cartID string, items []LineItem) {
	pricingItems := make([]pricing.Item, 0, len(items))
	for _, it := range items {
		pricingItems = append(pricingItems, pricing.Item{Qty: it.Qty, UnitPrice: it.UnitPrice})
	}
	summary := pricing.Compose(pricingItems, pricing.Input{
		FreeShippingMin: h.FreeShippingMin,
		ShippingFee:     h.ShippingFee,
	})
	common.Data(w, http.StatusOK, map[string]any{
		"cartId": cartID,
		"items":  items,
		"pricing": map[string]any{
			"subtotal": summary.Subtotal,
			"shipping": summary.Shipping,
			"total":    summary.Total,
		},
		"currency": h.Currency,
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, payload any) bool {
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeValidation, err.Error(), nil)
			return false
		}
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if err == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
		return
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		common.JSONError(w, appErr.StatusOr(http.StatusBadRequest), appErr.Code, appErr.Message, appErr.Details)
		return
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, err.Error(), nil)
	}
}
