package refund

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/rakadenny/backend-kedai/internal/common"
	"github.com/rakadenny/backend-kedai/internal/obs"
	"github.com/rakadenny/backend-kedai/internal/order"
)

// Handler quotes refunds for returns against a persisted order.
type Handler struct {
	Orders   *order.Repo
	Validate *validator.Validate
}

type quotePayload struct {
	Lines []ReturnLine `json:"lines" validate:"required,min=1,dive"`
}

// Quote computes the refund amount for the requested return lines.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, common.CodeUnauthorized, "authentication required", nil)
		return
	}
	orderID := chi.URLParam(r, "orderId")
	if _, err := uuid.Parse(orderID); err != nil {
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "order not found", nil)
		return
	}
	var p quotePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid request body", nil)
		return
	}
	if err := h.Validate.Struct(p); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid return payload", err.Error())
		return
	}

	o, err := h.Orders.Get(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unable to load order", nil)
		return
	}
	if o.UserID != userID {
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "order not found", nil)
		return
	}

	q, err := Compute(o, p.Lines)
	if err != nil {
		obs.RefundQuoteTotal.WithLabelValues("invalid").Inc()
		common.JSONError(w, http.StatusBadRequest, "INVALID_RETURN", "return lines do not match the order", err.Error())
		return
	}
	obs.RefundQuoteTotal.WithLabelValues("ok").Inc()
	common.Data(w, http.StatusOK, q)
}
