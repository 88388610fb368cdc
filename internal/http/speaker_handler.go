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

type speakerService interface {
	Propose(ctx context.Context, params application.ProposeSpeakerParams) (application.Speaker, error)
	Invite(ctx context.Context, principal application.Principal, speakerID string) (application.Speaker, error)
	Resend(ctx context.Context, principal application.Principal, speakerID string) (application.Speaker, error)
	RejectProposal(ctx context.Context, principal application.Principal, speakerID string) (application.Speaker, error)
	EditConfirmed(ctx context.Context, params application.EditConfirmedParams) (application.Speaker, error)
	Delete(ctx context.Context, principal application.Principal, speakerID string) error
	Get(ctx context.Context, speakerID string) (application.Speaker, error)
	List(ctx context.Context, status application.SpeakerStatus) ([]application.Speaker, error)
	OverdueInvited(ctx context.Context) ([]application.Speaker, error)
}

type actionLogService interface {
	Append(ctx context.Context, params application.AppendActionParams) (int, error)
	SetCompleted(ctx context.Context, principal application.Principal, speakerID string, index int, completed bool) error
}

// SpeakerHandler serves speaker lifecycle operations and the per-speaker
// action log.
type SpeakerHandler struct {
	service   speakerService
	actions   actionLogService
	responder responder
}

// NewSpeakerHandler wires a speaker handler.
func NewSpeakerHandler(service speakerService, actions actionLogService, logger *slog.Logger) *SpeakerHandler {
	return &SpeakerHandler{service: service, actions: actions, responder: newResponder(logger)}
}

func (h *SpeakerHandler) Propose(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req speakerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	speaker, err := h.service.Propose(r.Context(), application.ProposeSpeakerParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, speakerResponse{Speaker: toSpeakerDTO(speaker)})
}

func (h *SpeakerHandler) Invite(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Invite)
}

func (h *SpeakerHandler) Resend(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Resend)
}

func (h *SpeakerHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.RejectProposal)
}

func (h *SpeakerHandler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, application.Principal, string) (application.Speaker, error)) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	speakerID, ok := SpeakerIDFromContext(r.Context())
	if !ok || strings.TrimSpace(speakerID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSpeakerID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	speaker, err := op(r.Context(), principal, speakerID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, speakerResponse{Speaker: toSpeakerDTO(speaker)})
}

func (h *SpeakerHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	speakerID, ok := SpeakerIDFromContext(r.Context())
	if !ok || strings.TrimSpace(speakerID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSpeakerID)
		return
	}

	var req editConfirmedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	speaker, err := h.service.EditConfirmed(r.Context(), application.EditConfirmedParams{
		Principal:    principal,
		SpeakerID:    speakerID,
		TalkTitle:    strings.TrimSpace(req.TalkTitle),
		TalkAbstract: req.TalkAbstract,
		Host:         strings.TrimSpace(req.Host),
		NewDateID:    req.NewDateID,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, speakerResponse{Speaker: toSpeakerDTO(speaker)})
}

func (h *SpeakerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	speakerID, ok := SpeakerIDFromContext(r.Context())
	if !ok || strings.TrimSpace(speakerID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSpeakerID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), principal, speakerID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *SpeakerHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	speakerID, ok := SpeakerIDFromContext(r.Context())
	if !ok || strings.TrimSpace(speakerID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSpeakerID)
		return
	}

	speaker, err := h.service.Get(r.Context(), speakerID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, speakerResponse{Speaker: toSpeakerDTO(speaker)})
}

func (h *SpeakerHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var (
		speakers []application.Speaker
		err      error
	)
	if r.URL.Query().Get("overdue") == "true" {
		speakers, err = h.service.OverdueInvited(r.Context())
	} else {
		status := application.SpeakerStatus(strings.TrimSpace(r.URL.Query().Get("status")))
		speakers, err = h.service.List(r.Context(), status)
	}
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSpeakersResponse{Speakers: toSpeakerDTOs(speakers)})
}

func (h *SpeakerHandler) AppendAction(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.actions == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	speakerID, ok := SpeakerIDFromContext(r.Context())
	if !ok || strings.TrimSpace(speakerID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSpeakerID)
		return
	}

	var req appendActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	index, err := h.actions.Append(r.Context(), application.AppendActionParams{
		Principal: principal,
		SpeakerID: speakerID,
		Kind:      application.ActionKind(strings.TrimSpace(req.Kind)),
		Label:     req.Label,
		Outcome:   application.ResponseOutcome(strings.TrimSpace(req.Outcome)),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, appendActionResponse{Index: index})
}

func (h *SpeakerHandler) SetActionCompleted(w http.ResponseWriter, r *http.Request, index int) {
	if h == nil || h.actions == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	speakerID, ok := SpeakerIDFromContext(r.Context())
	if !ok || strings.TrimSpace(speakerID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSpeakerID)
		return
	}

	var req setActionCompletedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.actions.SetCompleted(r.Context(), principal, speakerID, index, req.Completed); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type speakerRequest struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Affiliation string `json:"affiliation"`
	Country     string `json:"country"`
	Expertise   string `json:"expertise"`
	Ranking     string `json:"ranking"`
	Host        string `json:"host"`
}

func (r speakerRequest) toInput() application.SpeakerInput {
	return application.SpeakerInput{
		FullName:    strings.TrimSpace(r.FullName),
		Email:       strings.TrimSpace(r.Email),
		Affiliation: strings.TrimSpace(r.Affiliation),
		Country:     strings.TrimSpace(r.Country),
		Expertise:   strings.TrimSpace(r.Expertise),
		Ranking:     application.Ranking(strings.TrimSpace(r.Ranking)),
		Host:        strings.TrimSpace(r.Host),
	}
}

type editConfirmedRequest struct {
	TalkTitle    string  `json:"talk_title"`
	TalkAbstract string  `json:"talk_abstract"`
	Host         string  `json:"host"`
	NewDateID    *string `json:"new_date_id"`
}

type appendActionRequest struct {
	Kind    string `json:"kind"`
	Label   string `json:"label"`
	Outcome string `json:"outcome"`
}

type appendActionResponse struct {
	Index int `json:"index"`
}

type setActionCompletedRequest struct {
	Completed bool `json:"completed"`
}

type speakerResponse struct {
	Speaker speakerDTO `json:"speaker"`
}

type listSpeakersResponse struct {
	Speakers []speakerDTO `json:"speakers"`
}

type speakerDTO struct {
	ID               string      `json:"id"`
	FullName         string      `json:"full_name"`
	Email            string      `json:"email"`
	Affiliation      string      `json:"affiliation,omitempty"`
	Country          string      `json:"country,omitempty"`
	Expertise        string      `json:"expertise,omitempty"`
	Ranking          string      `json:"ranking"`
	Host             string      `json:"host,omitempty"`
	Status           string      `json:"status"`
	InvitationSentAt *string     `json:"invitation_sent_at,omitempty"`
	ResponseDeadline *string     `json:"response_deadline,omitempty"`
	AssignedDateID   *string     `json:"assigned_date_id,omitempty"`
	TalkTitle        string      `json:"talk_title,omitempty"`
	TalkAbstract     string      `json:"talk_abstract,omitempty"`
	Actions          []actionDTO `json:"actions"`
	ProposedByName   string      `json:"proposed_by_name,omitempty"`
	CreatedAt        string      `json:"created_at"`
	UpdatedAt        string      `json:"updated_at"`
}

type actionDTO struct {
	Index       int     `json:"index"`
	Kind        string  `json:"kind"`
	Label       string  `json:"label,omitempty"`
	Timestamp   string  `json:"timestamp"`
	Completed   bool    `json:"completed"`
	CompletedAt *string `json:"completed_at,omitempty"`
	Actor       string  `json:"actor,omitempty"`
	Outcome     string  `json:"outcome,omitempty"`
}

func toSpeakerDTO(speaker application.Speaker) speakerDTO {
	actions := make([]actionDTO, 0, len(speaker.Actions))
	for index, action := range speaker.Actions {
		actions = append(actions, actionDTO{
			Index:       index,
			Kind:        string(action.Kind),
			Label:       action.Label,
			Timestamp:   formatStamp(action.Timestamp),
			Completed:   action.Completed,
			CompletedAt: formatStampPtr(action.CompletedAt),
			Actor:       action.Actor,
			Outcome:     string(action.Outcome),
		})
	}

	return speakerDTO{
		ID:               speaker.ID,
		FullName:         speaker.FullName,
		Email:            speaker.Email,
		Affiliation:      speaker.Affiliation,
		Country:          speaker.Country,
		Expertise:        speaker.Expertise,
		Ranking:          string(speaker.Ranking),
		Host:             speaker.Host,
		Status:           string(speaker.Status),
		InvitationSentAt: formatStampPtr(speaker.InvitationSentAt),
		ResponseDeadline: formatStampPtr(speaker.ResponseDeadline),
		AssignedDateID:   speaker.AssignedDateID,
		TalkTitle:        speaker.TalkTitle,
		TalkAbstract:     speaker.TalkAbstract,
		Actions:          actions,
		ProposedByName:   speaker.ProposedByName,
		CreatedAt:        formatStamp(speaker.CreatedAt),
		UpdatedAt:        formatStamp(speaker.UpdatedAt),
	}
}

func toSpeakerDTOs(speakers []application.Speaker) []speakerDTO {
	out := make([]speakerDTO, 0, len(speakers))
	for _, speaker := range speakers {
		out = append(out, toSpeakerDTO(speaker))
	}
	return out
}

func formatStamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatStampPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatStamp(*t)
	return &s
}
