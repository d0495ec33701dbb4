package service

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mmynk/checkin/internal/metrics"
	"github.com/mmynk/checkin/internal/middleware"
	"github.com/mmynk/checkin/internal/models"
	"github.com/mmynk/checkin/internal/query"
	"github.com/mmynk/checkin/internal/storage"
)

// VisitorService handles public check-in submission and the admin visitor endpoints.
type VisitorService struct {
	store    storage.VisitorStore
	validate *validator.Validate
	metrics  *metrics.Metrics
}

// NewVisitorService creates a new VisitorService with the given storage backend.
// m may be nil.
func NewVisitorService(store storage.VisitorStore, m *metrics.Metrics) *VisitorService {
	return &VisitorService{
		store:    store,
		validate: newValidator(),
		metrics:  m,
	}
}

// CreateVisitor handles POST /api/visitors.
func (s *VisitorService) CreateVisitor(w http.ResponseWriter, r *http.Request) {
	var req models.NewVisitor
	if !bindJSON(w, r, s.validate, &req) {
		return
	}

	visitor, err := req.ToVisitor()
	if err != nil {
		writeValidationError(w, fieldError{Field: "checkin_time", Message: "value is not a valid ISO-8601 datetime"})
		return
	}

	if err := s.store.CreateVisitor(r.Context(), &visitor); err != nil {
		slog.Error("CreateVisitor failed", "error", err)
		writeError(w, http.StatusInternalServerError, detailInternal)
		return
	}

	if s.metrics != nil {
		s.metrics.VisitorsCreated.Inc()
	}
	slog.Info("Visitor created",
		"visitor_id", visitor.ID,
		"purpose", visitor.Purpose,
		"checkin_time", visitor.CheckinTime,
	)

	writeJSON(w, http.StatusCreated, visitor)
}

// ListVisitors handles GET /api/admin/visitors.
func (s *VisitorService) ListVisitors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, ok := intParam(w, q.Get("page"), "page", query.DefaultPage)
	if !ok {
		return
	}
	limit, ok := intParam(w, q.Get("limit"), "limit", query.DefaultLimit)
	if !ok {
		return
	}

	filter := query.Filter{
		Search:    q.Get("search"),
		Purpose:   q.Get("purpose"),
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
	}

	visitors, err := s.store.ListVisitors(r.Context())
	if err != nil {
		slog.Error("ListVisitors failed", "error", err)
		writeError(w, http.StatusInternalServerError, detailInternal)
		return
	}

	result, err := query.Run(visitors, filter, page, limit)
	if err != nil {
		field := "page"
		if errors.Is(err, query.ErrInvalidLimit) {
			field = "limit"
		}
		writeValidationError(w, fieldError{Field: field, Message: err.Error()})
		return
	}

	slog.Debug("ListVisitors successful",
		"admin_id", middleware.GetUserID(r.Context()),
		"total", result.Total,
		"page", result.Page,
		"returned", len(result.Data),
	)

	writeJSON(w, http.StatusOK, result)
}

// GetVisitor handles GET /api/admin/visitors/{id}.
func (s *VisitorService) GetVisitor(w http.ResponseWriter, r *http.Request) {
	id, ok := visitorID(w, r)
	if !ok {
		return
	}

	visitor, err := s.store.GetVisitor(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, detailVisitorNotFound)
			return
		}
		slog.Error("GetVisitor failed", "visitor_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, detailInternal)
		return
	}

	writeJSON(w, http.StatusOK, visitor)
}

// DeleteVisitor handles DELETE /api/admin/visitors/{id}.
func (s *VisitorService) DeleteVisitor(w http.ResponseWriter, r *http.Request) {
	id, ok := visitorID(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteVisitor(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, detailVisitorNotFound)
			return
		}
		slog.Error("DeleteVisitor failed", "visitor_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, detailInternal)
		return
	}

	if s.metrics != nil {
		s.metrics.VisitorsDeleted.Inc()
	}
	slog.Info("Visitor deleted", "visitor_id", id, "admin_id", middleware.GetUserID(r.Context()))

	writeJSON(w, http.StatusOK, messageResponse{Message: "Visitor deleted successfully"})
}

func visitorID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeValidationError(w, fieldError{Field: "id", Message: "value is not a valid integer"})
		return 0, false
	}
	return id, true
}

// intParam parses an optional integer query parameter.
func intParam(w http.ResponseWriter, raw, name string, fallback int) (int, bool) {
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeValidationError(w, fieldError{Field: name, Message: "value is not a valid integer"})
		return 0, false
	}
	return n, true
}
