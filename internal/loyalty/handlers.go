package loyalty

import (
	"net/http"
	"strconv"

	"github.com/rakadenny/backend-kedai/internal/common"
)

// Handler serves loyalty balance reads and tier previews.
type Handler struct {
	Balances BalanceProvider
}

// Balance returns the caller's redeemable point balance and the tier table.
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, common.CodeUnauthorized, "authentication required", nil)
		return
	}
	points, err := h.Balances.Balance(r.Context(), userID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unable to load balance", nil)
		return
	}
	common.Data(w, http.StatusOK, map[string]any{
		"points": points,
		"tiers":  Tiers(),
	})
}

// TierPreview reports which tier the caller's balance would redeem against a
// hypothetical order total, plus the shortfall hint when the total is too
// small to absorb an affordable tier.
func (h *Handler) TierPreview(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, common.CodeUnauthorized, "authentication required", nil)
		return
	}
	orderTotal, err := strconv.ParseInt(r.URL.Query().Get("orderTotal"), 10, 64)
	if err != nil || orderTotal < 0 {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "orderTotal must be a non-negative integer", nil)
		return
	}
	points, err := h.Balances.Balance(r.Context(), userID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "unable to load balance", nil)
		return
	}

	out := map[string]any{"points": points}
	if tier, ok := BestTier(points, orderTotal); ok {
		out["tier"] = tier
	} else if tier, shortfall, ok := RemainingPointsHint(points, orderTotal); ok {
		out["unreachableTier"] = tier
		out["totalShortfall"] = shortfall
	}
	common.Data(w, http.StatusOK, out)
}
