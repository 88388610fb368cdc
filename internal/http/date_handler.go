package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/seminar-coordinator/internal/application"
)

type dateService interface {
	Publish(ctx context.Context, params application.PublishDateParams) (application.AvailableDate, error)
	SoftDelete(ctx context.Context, principal application.Principal, dateID string) error
	Get(ctx context.Context, dateID string) (application.AvailableDate, error)
	ListActive(ctx context.Context) ([]application.AvailableDate, error)
}

// DateHandler serves the pool of published seminar dates.
type DateHandler struct {
	service   dateService
	responder responder
}

// NewDateHandler wires a date handler.
func NewDateHandler(service dateService, logger *slog.Logger) *DateHandler {
	return &DateHandler{service: service, responder: newResponder(logger)}
}

func (h *DateHandler) Publish(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req publishDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	date, err := h.service.Publish(r.Context(), application.PublishDateParams{
		Principal:    principal,
		CalendarDate: parseStamp(req.CalendarDate),
		Host:         strings.TrimSpace(req.Host),
		Notes:        req.Notes,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, dateResponse{Date: toDateDTO(date)})
}

func (h *DateHandler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	dateID, ok := DateIDFromContext(r.Context())
	if !ok || strings.TrimSpace(dateID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDateID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.SoftDelete(r.Context(), principal, dateID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *DateHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	dateID, ok := DateIDFromContext(r.Context())
	if !ok || strings.TrimSpace(dateID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDateID)
		return
	}

	date, err := h.service.Get(r.Context(), dateID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, dateResponse{Date: toDateDTO(date)})
}

func (h *DateHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	dates, err := h.service.ListActive(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listDatesResponse{Dates: toDateDTOs(dates)})
}

type publishDateRequest struct {
	CalendarDate string `json:"calendar_date"`
	Host         string `json:"host"`
	Notes        string `json:"notes"`
}

type dateResponse struct {
	Date dateDTO `json:"date"`
}

type listDatesResponse struct {
	Dates []dateDTO `json:"dates"`
}

type dateDTO struct {
	ID           string `json:"id"`
	CalendarDate string `json:"calendar_date"`
	Host         string `json:"host,omitempty"`
	Notes        string `json:"notes,omitempty"`
	Available    bool   `json:"available"`
	LockState    string `json:"lock_state"`
	LockedBy     string `json:"locked_by,omitempty"`
	TalkTitle    string `json:"talk_title,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func toDateDTO(date application.AvailableDate) dateDTO {
	return dateDTO{
		ID:           date.ID,
		CalendarDate: date.CalendarDate.UTC().Format("2006-01-02"),
		Host:         date.Host,
		Notes:        date.Notes,
		Available:    date.Available,
		LockState:    string(date.LockState),
		LockedBy:     date.LockedBy,
		TalkTitle:    date.TalkTitle,
		CreatedAt:    formatStamp(date.CreatedAt),
		UpdatedAt:    formatStamp(date.UpdatedAt),
	}
}

func toDateDTOs(dates []application.AvailableDate) []dateDTO {
	out := make([]dateDTO, 0, len(dates))
	for _, date := range dates {
		out = append(out, toDateDTO(date))
	}
	return out
}

func parseStamp(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse("2006-01-02", value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}
