package service

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/checkin/internal/auth"
	"github.com/mmynk/checkin/internal/metrics"
	"github.com/mmynk/checkin/internal/middleware"
	"github.com/mmynk/checkin/internal/storage"
)

// APIVersion is reported by the health endpoint.
const APIVersion = "1.0.0"

// Deps are the collaborators the HTTP API is built from.
type Deps struct {
	Visitors      storage.VisitorStore
	Authenticator auth.Authenticator
	Tokens        *auth.JWTManager

	// Metrics is optional; when nil no instrumentation or /metrics route is added.
	Metrics     *metrics.Metrics
	MetricsPath string

	AllowedOrigins []string

	// Now is the clock used for dashboard counts; nil means time.Now.
	Now func() time.Time
}

type healthResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

// NewRouter wires every endpoint and middleware into a chi router.
func NewRouter(d Deps) http.Handler {
	visitors := NewVisitorService(d.Visitors, d.Metrics)
	authSvc := NewAuthService(d.Authenticator, d.Tokens, d.Metrics)
	dashboard := NewDashboardService(d.Visitors, d.Now)

	r := chi.NewRouter()
	r.Use(middlewareStack(d.Metrics, d.AllowedOrigins)...)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{
			Message: "Visitor Management API is running",
			Version: APIVersion,
		})
	})

	if d.Metrics != nil {
		path := d.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, d.Metrics.Handler())
	}

	r.Post("/api/visitors", visitors.CreateVisitor)
	r.Post("/api/login", authSvc.Login)

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.RequireAuth(d.Tokens, unauthorized(d.Metrics)))

		r.Get("/visitors", visitors.ListVisitors)
		r.Get("/visitors/{id}", visitors.GetVisitor)
		r.Delete("/visitors/{id}", visitors.DeleteVisitor)
		r.Get("/dashboard/stats", dashboard.Stats)
	})

	return r
}

// middlewareStack is applied to every route. Metrics wraps recoverPanic so
// requests that panic are still counted as 500s.
func middlewareStack(m *metrics.Metrics, origins []string) []func(http.Handler) http.Handler {
	stack := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.Logging,
		middleware.CORS(origins),
	}
	if m != nil {
		stack = append(stack, middleware.Metrics(m))
	}
	return append(stack, recoverPanic)
}

// recoverPanic turns a handler panic into the usual JSON error body.
func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			slog.Error("Handler panicked",
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", middleware.GetRequestID(r.Context()),
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			writeError(w, http.StatusInternalServerError, detailInternal)
		}()
		next.ServeHTTP(w, r)
	})
}

// unauthorized answers every token failure the same way so clients learn
// nothing about why a token was refused.
func unauthorized(m *metrics.Metrics) middleware.RejectFunc {
	return func(w http.ResponseWriter, r *http.Request, reason string, err error) {
		if m != nil {
			m.TokenRejections.WithLabelValues(reason).Inc()
		}
		w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
		writeError(w, http.StatusUnauthorized, detailUnauthorized)
	}
}
