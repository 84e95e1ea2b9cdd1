package refund

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/rakadenny/backend-kedai/internal/common"
	"github.com/rakadenny/backend-kedai/internal/order"
)

func TestQuoteRejectsMalformedOrderID(t *testing.T) {
	h := &Handler{Orders: &order.Repo{}, Validate: validator.New()}

	body := strings.NewReader(`{"lines":[{"index":0,"qty":1}]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/latest/refund-quote", body)
	req = req.WithContext(common.WithUserID(req.Context(), "u-1"))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderId", "latest")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	h.Quote(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
