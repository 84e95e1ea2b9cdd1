package order

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/rakadenny/backend-kedai/internal/common"
)

func orderRequest(t *testing.T, orderID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID, nil)
	req = req.WithContext(common.WithUserID(req.Context(), "u-1"))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderId", orderID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestGetRejectsMalformedOrderID(t *testing.T) {
	h := &Handler{Repo: &Repo{}}

	// Identifiers that are not UUIDs can never match an order; they 404
	// without touching the database.
	for _, id := range []string{"latest", "abc", "123"} {
		rr := httptest.NewRecorder()
		h.Get(rr, orderRequest(t, id))
		assert.Equal(t, http.StatusNotFound, rr.Code, "id %q", id)
	}
}

func TestGetRequiresIdentity(t *testing.T) {
	h := &Handler{Repo: &Repo{}}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/x", nil)
	rr := httptest.NewRecorder()
	h.Get(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
