package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/rakadenny/backend-kedai/internal/cart"
	"github.com/rakadenny/backend-kedai/internal/common"
)

// Handler exposes the checkout endpoint.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type checkoutPayload struct {
	CartID        string `json:"cartId" validate:"required,uuid4"`
	DiscountCode  string `json:"discountCode" validate:"omitempty,max=64"`
	RedeemPoints  bool   `json:"redeemPoints"`
	PaymentMethod string `json:"paymentMethod" validate:"omitempty,oneof=card transfer cod"`
}

// Checkout converts the caller's cart into an order.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, common.CodeUnauthorized, "authentication required", nil)
		return
	}
	var p checkoutPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid request body", nil)
		return
	}
	if err := h.Validate.Struct(p); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid checkout payload", err.Error())
		return
	}

	o, err := h.Svc.Checkout(r.Context(), Input{
		CartID:        p.CartID,
		UserID:        userID,
		DiscountCode:  p.DiscountCode,
		RedeemPoints:  p.RedeemPoints,
		PaymentMethod: p.PaymentMethod,
	})
	if err != nil {
		switch {
		case errors.Is(err, cart.ErrNotFound):
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "cart not found", nil)
		case errors.Is(err, ErrEmptyCart):
			common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_CART", "cart has no purchasable items", nil)
		case errors.Is(err, ErrInvalidInput):
			common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, err.Error(), nil)
		default:
			common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "checkout failed", nil)
		}
		return
	}
	common.Data(w, http.StatusCreated, o)
}
