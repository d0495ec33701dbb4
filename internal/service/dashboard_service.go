package service

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mmynk/checkin/internal/stats"
	"github.com/mmynk/checkin/internal/storage"
)

// DashboardService serves the admin dashboard counts.
type DashboardService struct {
	store storage.VisitorStore
	now   func() time.Time
}

// NewDashboardService creates a DashboardService. now defaults to time.Now.
func NewDashboardService(store storage.VisitorStore, now func() time.Time) *DashboardService {
	if now == nil {
		now = time.Now
	}
	return &DashboardService{store: store, now: now}
}

// Stats handles GET /api/admin/dashboard/stats.
func (s *DashboardService) Stats(w http.ResponseWriter, r *http.Request) {
	visitors, err := s.store.ListVisitors(r.Context())
	if err != nil {
		slog.Error("Stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, detailInternal)
		return
	}

	writeJSON(w, http.StatusOK, stats.Compute(visitors, s.now()))
}
