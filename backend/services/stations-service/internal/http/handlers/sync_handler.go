package handlers

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"evcharge/backend/services/stations-service/internal/catalogsync"
)

// CatalogRefresher runs a catalog sync.
type CatalogRefresher interface {
	Refresh(ctx context.Context, region string) (catalogsync.Result, error)
}

type refreshFailure struct {
	Error  string             `json:"error"`
	Result catalogsync.Result `json:"result"`
}

// NewRefreshHandler returns POST /admin/stations/refresh?zcode= handler.
// A blank zcode syncs every region.
func NewRefreshHandler(refresher CatalogRefresher, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		region := strings.TrimSpace(r.URL.Query().Get("zcode"))
		res, err := refresher.Refresh(r.Context(), region)
		if err != nil {
			logger.Warn("manual catalog sync failed", zap.String("region", region), zap.Error(err))
			writeJSON(w, http.StatusBadGateway, refreshFailure{Error: "catalog sync failed", Result: res})
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
