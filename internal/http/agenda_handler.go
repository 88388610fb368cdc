package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/emersion/go-ical"

	"github.com/example/seminar-coordinator/internal/application"
	"github.com/example/seminar-coordinator/internal/visit"
)

type agendaService interface {
	GetBySpeaker(ctx context.Context, speakerID string) (application.Agenda, error)
	AddMeeting(ctx context.Context, params application.AddMeetingParams) (application.Agenda, error)
	RemoveMeeting(ctx context.Context, principal application.Principal, speakerID string, index int) (application.Agenda, error)
}

// AgendaHandler serves visit agendas, including an iCalendar export.
type AgendaHandler struct {
	service   agendaService
	responder responder
}

// NewAgendaHandler wires an agenda handler.
func NewAgendaHandler(service agendaService, logger *slog.Logger) *AgendaHandler {
	return &AgendaHandler{service: service, responder: newResponder(logger)}
}

func (h *AgendaHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	agenda, ok := h.lookupAgenda(w, r)
	if !ok {
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, agendaResponse{Agenda: toAgendaDTO(agenda)})
}

func (h *AgendaHandler) AddMeeting(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	speakerID, ok := SpeakerIDFromContext(r.Context())
	if !ok || strings.TrimSpace(speakerID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSpeakerID)
		return
	}

	var req meetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	agenda, err := h.service.AddMeeting(r.Context(), application.AddMeetingParams{
		Principal: principal,
		SpeakerID: speakerID,
		Input:     input,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, agendaResponse{Agenda: toAgendaDTO(agenda)})
}

func (h *AgendaHandler) RemoveMeeting(w http.ResponseWriter, r *http.Request, index int) {
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

	agenda, err := h.service.RemoveMeeting(r.Context(), principal, speakerID, index)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, agendaResponse{Agenda: toAgendaDTO(agenda)})
}

// ExportICS renders the agenda as a text/calendar document.
func (h *AgendaHandler) ExportICS(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	agenda, ok := h.lookupAgenda(w, r)
	if !ok {
		return
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//seminar-coordinator//EN")

	for index, meeting := range agenda.Meetings {
		event := ical.NewComponent(ical.CompEvent)
		event.Props.SetText(ical.PropUID, fmt.Sprintf("%s-%d", agenda.ID, index))
		event.Props.SetText(ical.PropSummary, meeting.Title)
		event.Props.SetDateTime(ical.PropDateTimeStamp, agenda.UpdatedAt.UTC())
		event.Props.SetDateTime(ical.PropDateTimeStart, meeting.Start.On(meeting.Date))
		event.Props.SetDateTime(ical.PropDateTimeEnd, meeting.End.On(meeting.Date))
		if meeting.Location != "" {
			event.Props.SetText(ical.PropLocation, meeting.Location)
		}
		if meeting.Notes != "" {
			event.Props.SetText(ical.PropDescription, meeting.Notes)
		}
		for _, attendee := range meeting.Attendees {
			prop := ical.NewProp(ical.PropAttendee)
			prop.SetText(attendee)
			event.Props.Add(prop)
		}
		cal.Children = append(cal.Children, event)
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "agenda-"+agenda.SpeakerID+".ics"))
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		h.responder.loggerFor(r.Context()).ErrorContext(r.Context(), "failed to encode calendar", "error", err)
	}
}

func (h *AgendaHandler) lookupAgenda(w http.ResponseWriter, r *http.Request) (application.Agenda, bool) {
	speakerID, ok := SpeakerIDFromContext(r.Context())
	if !ok || strings.TrimSpace(speakerID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSpeakerID)
		return application.Agenda{}, false
	}

	agenda, err := h.service.GetBySpeaker(r.Context(), speakerID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return application.Agenda{}, false
	}
	return agenda, true
}

type meetingRequest struct {
	Title     string   `json:"title"`
	Kind      string   `json:"kind"`
	Date      string   `json:"date"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
	Location  string   `json:"location"`
	Notes     string   `json:"notes"`
	Attendees []string `json:"attendees"`
}

func (r meetingRequest) toInput() (application.MeetingInput, error) {
	start, err := visit.ParseTimeOfDay(strings.TrimSpace(r.Start))
	if err != nil {
		return application.MeetingInput{}, fmt.Errorf("start must be HH:MM")
	}
	end, err := visit.ParseTimeOfDay(strings.TrimSpace(r.End))
	if err != nil {
		return application.MeetingInput{}, fmt.Errorf("end must be HH:MM")
	}

	return application.MeetingInput{
		Title:     strings.TrimSpace(r.Title),
		Kind:      application.MeetingKind(strings.TrimSpace(r.Kind)),
		Date:      parseStamp(r.Date),
		Start:     start,
		End:       end,
		Location:  strings.TrimSpace(r.Location),
		Notes:     r.Notes,
		Attendees: append([]string(nil), r.Attendees...),
	}, nil
}

type agendaResponse struct {
	Agenda agendaDTO `json:"agenda"`
}

type agendaDTO struct {
	ID          string       `json:"id"`
	SpeakerID   string       `json:"speaker_id"`
	Host        string       `json:"host,omitempty"`
	SeminarDate string       `json:"seminar_date"`
	StartDate   string       `json:"start_date"`
	EndDate     string       `json:"end_date"`
	Meetings    []meetingDTO `json:"meetings"`
	CreatedAt   string       `json:"created_at"`
	UpdatedAt   string       `json:"updated_at"`
}

type meetingDTO struct {
	Index     int      `json:"index"`
	Title     string   `json:"title"`
	Kind      string   `json:"kind"`
	Date      string   `json:"date"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
	Location  string   `json:"location,omitempty"`
	Notes     string   `json:"notes,omitempty"`
	Attendees []string `json:"attendees,omitempty"`
	Locked    bool     `json:"locked"`
}

func toAgendaDTO(agenda application.Agenda) agendaDTO {
	meetings := make([]meetingDTO, 0, len(agenda.Meetings))
	for index, meeting := range agenda.Meetings {
		meetings = append(meetings, meetingDTO{
			Index:     index,
			Title:     meeting.Title,
			Kind:      string(meeting.Kind),
			Date:      meeting.Date.UTC().Format("2006-01-02"),
			Start:     meeting.Start.String(),
			End:       meeting.End.String(),
			Location:  meeting.Location,
			Notes:     meeting.Notes,
			Attendees: meeting.Attendees,
			Locked:    meeting.Locked,
		})
	}

	return agendaDTO{
		ID:          agenda.ID,
		SpeakerID:   agenda.SpeakerID,
		Host:        agenda.Host,
		SeminarDate: agenda.SeminarDate.UTC().Format("2006-01-02"),
		StartDate:   agenda.StartDate.UTC().Format("2006-01-02"),
		EndDate:     agenda.EndDate.UTC().Format("2006-01-02"),
		Meetings:    meetings,
		CreatedAt:   formatStamp(agenda.CreatedAt),
		UpdatedAt:   formatStamp(agenda.UpdatedAt),
	}
}
