// dashboard.go — сводка главной страницы дашборда.
package handlers

import (
	"net/http"

	apierrors "github.com/arturkryukov/candystore/dashboard-module/internal/api/errors"
	"github.com/arturkryukov/candystore/dashboard-module/internal/api/middleware"
	"github.com/arturkryukov/candystore/dashboard-module/internal/catalog"
)

// DashboardSummary — GET /dashboard/summary.
// Счётчики записей по разделам для карточек главной страницы.
func (h *Handler) DashboardSummary(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromRequest(r)
	if !sess.IsAuthenticated() {
		apierrors.Unauthorized(w, "требуется вход")
		return
	}

	ctx := catalog.ContextWithToken(r.Context(), sess.Token)
	summary, err := h.client.DashboardSummaryFetch(ctx)
	if err != nil {
		h.writeCatalogError(w, "Сводка дашборда не загружена", err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
