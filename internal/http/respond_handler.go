package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/seminar-coordinator/internal/application"
)

type respondSpeakerService interface {
	GetByToken(ctx context.Context, accessToken string) (application.Speaker, error)
	Respond(ctx context.Context, params application.RespondParams) (application.Speaker, error)
}

type respondDateService interface {
	ListActive(ctx context.Context) ([]application.AvailableDate, error)
}

// RespondHandler is the unauthenticated speaker self-service surface,
// reached through the bearer token embedded in the invitation link.
type RespondHandler struct {
	speakers  respondSpeakerService
	dates     respondDateService
	responder responder
}

// NewRespondHandler wires a respond handler.
func NewRespondHandler(speakers respondSpeakerService, dates respondDateService, logger *slog.Logger) *RespondHandler {
	return &RespondHandler{speakers: speakers, dates: dates, responder: newResponder(logger)}
}

// Show renders the invitation view: the speaker and the currently open
// dates they may pick from.
func (h *RespondHandler) Show(w http.ResponseWriter, r *http.Request, token string) {
	if h == nil || h.speakers == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	speaker, err := h.speakers.GetByToken(r.Context(), token)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	var dates []application.AvailableDate
	if h.dates != nil && speaker.Status == application.StatusInvited {
		// Confirmed and declined speakers have no date to pick.
		if dates, err = h.dates.ListActive(r.Context()); err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
	}

	open := make([]application.AvailableDate, 0, len(dates))
	for _, date := range dates {
		if date.Available && date.LockState == application.LockUnset {
			open = append(open, date)
		}
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, invitationResponse{
		Speaker:   toSpeakerDTO(speaker),
		OpenDates: toDateDTOs(open),
	})
}

// Respond records the speaker's answer: a decline, or an acceptance
// naming one of the open dates.
func (h *RespondHandler) Respond(w http.ResponseWriter, r *http.Request, token string) {
	if h == nil || h.speakers == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	speaker, err := h.speakers.GetByToken(r.Context(), token)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	updated, err := h.speakers.Respond(r.Context(), application.RespondParams{
		SpeakerID:    speaker.ID,
		DateID:       strings.TrimSpace(req.DateID),
		TalkTitle:    strings.TrimSpace(req.TalkTitle),
		TalkAbstract: req.TalkAbstract,
		Outcome:      application.ResponseOutcome(strings.TrimSpace(req.Outcome)),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, speakerResponse{Speaker: toSpeakerDTO(updated)})
}

type respondRequest struct {
	Outcome      string `json:"outcome"`
	DateID       string `json:"date_id"`
	TalkTitle    string `json:"talk_title"`
	TalkAbstract string `json:"talk_abstract"`
}

type invitationResponse struct {
	Speaker   speakerDTO `json:"speaker"`
	OpenDates []dateDTO  `json:"open_dates"`
}
