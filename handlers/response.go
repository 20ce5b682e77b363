package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"fleetledger/auth"
	"fleetledger/ledger"
	"fleetledger/metrics"
	"fleetledger/middleware"
	"fleetledger/repository"
	"fleetledger/services"
)

// ApiResponse is the envelope of every JSON response. Status repeats the
// HTTP status code for clients that only read the body.
type ApiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Status  int         `json:"status"`
}

const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, resp ApiResponse) {
	resp.Status = status
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// Base carries what every handler needs.
type Base struct {
	Validate *validator.Validate
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

func NewBase(m *metrics.Metrics, logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{Validate: NewValidator(), Metrics: m, Logger: logger}
}

func (b *Base) ok(w http.ResponseWriter, msg string, data interface{}) {
	writeJSON(w, http.StatusOK, ApiResponse{Success: true, Message: msg, Data: data})
}

func (b *Base) created(w http.ResponseWriter, msg string, data interface{}) {
	writeJSON(w, http.StatusCreated, ApiResponse{Success: true, Message: msg, Data: data})
}

func (b *Base) badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, ApiResponse{Success: false, Message: msg})
}

// fail maps service errors to status codes. Anything unexpected is logged
// and answered with a generic 500.
func (b *Base) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := err.Error()
	switch {
	case errors.Is(err, ledger.ErrNegativeBalance):
		status = http.StatusBadRequest
		b.Metrics.Rejected(metrics.RoutePattern(r))
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrConflict), errors.Is(err, repository.ErrPhoneTaken):
		status = http.StatusConflict
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, auth.ErrOTPExpired), errors.Is(err, auth.ErrOTPInvalid):
		status = http.StatusUnauthorized
	case errors.Is(err, auth.ErrTooManyAttempts):
		status = http.StatusTooManyRequests
	case errors.Is(err, services.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
	default:
		b.Logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal server error"
	}
	writeJSON(w, status, ApiResponse{Success: false, Message: msg})
}

// decode reads a JSON body into v and validates it.
func (b *Base) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		b.badRequest(w, "Invalid request payload: "+err.Error())
		return false
	}
	if err := b.Validate.Struct(v); err != nil {
		b.badRequest(w, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// account is the account the request acts on. Auth middleware guarantees it
// is set on every /api route.
func account(r *http.Request) string {
	return middleware.AccountID(r.Context())
}

func param(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// queryDate parses an optional YYYY-MM-DD or RFC 3339 query parameter.
func queryDate(r *http.Request, name string) (time.Time, error) {
	return parseDate(name, r.URL.Query().Get(name))
}

func parseDate(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: expected YYYY-MM-DD", name)
	}
	return t, nil
}

func queryInt(r *http.Request, name string) (*int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	return &n, nil
}

func queryBool(r *http.Request, name string) (*bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("%s must be true or false", name)
	}
	return &b, nil
}
