package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/seminar-coordinator/internal/application"
	"github.com/example/seminar-coordinator/internal/logging"
)

var (
	errBadRequestBody      = errors.New("the request body could not be parsed")
	errInvalidSpeakerID    = errors.New("a speaker id is required")
	errInvalidDateID       = errors.New("a date id is required")
	errMissingSessionToken = errors.New("an authentication token is required")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := statusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError converts application errors to status codes: 403
// for authorization, 404 for missing resources, 409 for state and lock
// conflicts, 422 for rejected input.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	logger := r.loggerFor(ctx)

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "You do not have permission to perform this operation.",
		})
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{Message: "Invalid credentials."})
	case errors.Is(err, application.ErrSessionExpired):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{Message: "Your session has expired. Please sign in again."})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "The requested resource was not found."})
	case errors.Is(err, application.ErrDuplicateDate):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "DUPLICATE_DATE",
			Message:   "A date is already published for that day.",
		})
	case errors.Is(err, application.ErrDateUnavailable):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "DATE_UNAVAILABLE",
			Message:   "That date is no longer available.",
		})
	case errors.Is(err, application.ErrDateLocked):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "DATE_LOCKED",
			Message:   "That date is held by a confirmed speaker and cannot be removed.",
		})
	case errors.Is(err, application.ErrLockedMeeting):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "LOCKED_MEETING",
			Message:   "That meeting is locked and cannot be removed.",
		})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "A record with those details already exists."})
	case errors.Is(err, application.ErrInvalidTimeRange):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "INVALID_TIME_RANGE",
			Message:   "The meeting time range is invalid for this visit.",
		})
	case errors.Is(err, application.ErrIndexOutOfRange):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{Message: "The requested index does not exist."})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "Some fields were rejected.",
				Errors:  vErr.FieldErrors,
			})
			return
		}

		var tErr *application.TransitionError
		if errors.As(err, &tErr) {
			r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
				ErrorCode: "INVALID_TRANSITION",
				Message:   tErr.Error() + ".",
			})
			return
		}

		var rErr *application.ReconcileError
		if errors.As(err, &rErr) {
			logger.ErrorContext(ctx, "partial failure", "error", err, "step", rErr.Step)
			r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{
				ErrorCode: "PARTIAL_FAILURE",
				Message:   "The operation partly succeeded. Reload to see the current state.",
			})
			return
		}

		logger.ErrorContext(ctx, "unhandled service error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "An internal error occurred."})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "The request is malformed."
	case http.StatusUnauthorized:
		return "Authentication is required."
	case http.StatusForbidden:
		return "You do not have permission to perform this operation."
	case http.StatusNotFound:
		return "The requested resource was not found."
	case http.StatusConflict:
		return "The request conflicts with the current state of the resource."
	case http.StatusUnprocessableEntity:
		return "Some fields were rejected."
	default:
		return "An internal error occurred."
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
