package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Error details returned to clients.
const (
	detailInvalidCredentials = "Invalid credentials"
	detailUnauthorized       = "Invalid or expired token"
	detailVisitorNotFound    = "Visitor not found"
	detailValidation         = "Validation failed"
	detailInternal           = "Internal server error"
)

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Detail string       `json:"detail"`
	Errors []fieldError `json:"errors,omitempty"`
}

// fieldError describes one invalid input field.
type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// messageResponse is returned by operations without a resource body.
type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "status", status, "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func writeValidationError(w http.ResponseWriter, fields ...fieldError) {
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: detailValidation, Errors: fields})
}

// errMalformedBody marks request bodies that are not valid JSON.
var errMalformedBody = errors.New("malformed JSON body")

// decodeJSON reads a single JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after JSON object", errMalformedBody)
	}
	return nil
}

// newValidator returns a validator that reports JSON field names and knows
// the notblank tag.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// fieldErrors converts validator output into client-facing messages.
func fieldErrors(err error) []fieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []fieldError{{Message: err.Error()}}
	}

	out := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("failed %q check", fe.Tag())
		switch fe.Tag() {
		case "required", "notblank":
			msg = "field required"
		case "email":
			msg = "value is not a valid email address"
		}
		out = append(out, fieldError{Field: fe.Field(), Message: msg})
	}
	return out
}

// bindJSON decodes and validates a request body, writing the error response
// itself. It reports whether the handler should continue.
func bindJSON(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		slog.Warn("Rejected request body", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, "Request body must be a JSON object")
		return false
	}
	if err := v.Struct(dst); err != nil {
		writeValidationError(w, fieldErrors(err)...)
		return false
	}
	return true
}
