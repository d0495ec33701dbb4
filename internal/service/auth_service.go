package service

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/mmynk/checkin/internal/auth"
	"github.com/mmynk/checkin/internal/metrics"
	"github.com/mmynk/checkin/internal/models"
)

// loginRequest is the body of POST /api/login.
type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// loginResponse carries the bearer token and the admin's public profile.
type loginResponse struct {
	Token string              `json:"token"`
	User  models.AdminProfile `json:"user"`
}

// AuthService handles admin login.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	validate      *validator.Validate
	metrics       *metrics.Metrics
}

// NewAuthService creates a new authentication service. m may be nil.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, m *metrics.Metrics) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		validate:      newValidator(),
		metrics:       m,
	}
}

// Login authenticates an admin and returns a signed token.
func (s *AuthService) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !bindJSON(w, r, s.validate, &req) {
		return
	}

	admin, err := s.authenticator.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.recordLogin(metrics.LoginFailure)
			slog.Warn("Login failed", "email", req.Email)
			writeError(w, http.StatusUnauthorized, detailInvalidCredentials)
			return
		}
		slog.Error("Login failed", "email", req.Email, "error", err)
		writeError(w, http.StatusInternalServerError, detailInternal)
		return
	}

	token, err := s.jwtManager.Generate(admin)
	if err != nil {
		slog.Error("Failed to generate token", "user_id", admin.ID, "error", err)
		writeError(w, http.StatusInternalServerError, detailInternal)
		return
	}

	s.recordLogin(metrics.LoginSuccess)
	slog.Info("Admin logged in", "user_id", admin.ID, "email", admin.Email)

	writeJSON(w, http.StatusOK, loginResponse{
		Token: token,
		User:  admin.Profile(),
	})
}

func (s *AuthService) recordLogin(result string) {
	if s.metrics != nil {
		s.metrics.LoginAttempts.WithLabelValues(result).Inc()
	}
}
