package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/seminar-coordinator/internal/persistence"
	"github.com/example/seminar-coordinator/internal/visit"
)

// Seed meeting times for a freshly accepted speaker.
var (
	seminarStart = visit.At(10, 0)
	seminarEnd   = visit.At(11, 0)
	lunchStart   = visit.At(13, 0)
	lunchEnd     = visit.At(14, 0)
)

// AgendaRepository captures the persistence interactions for visit agendas.
type AgendaRepository interface {
	CreateAgenda(ctx context.Context, agenda Agenda) error
	GetAgendaBySpeaker(ctx context.Context, speakerID string) (Agenda, error)
	UpdateAgenda(ctx context.Context, agenda Agenda) error
	DeleteAgendaBySpeaker(ctx context.Context, speakerID string) error
}

// AgendaService manages the three-day visit schedule seeded at acceptance.
type AgendaService struct {
	agendas     AgendaRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAgendaService wires dependencies for agenda operations.
func NewAgendaService(agendas AgendaRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AgendaService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AgendaService{
		agendas:     agendas,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *AgendaService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AgendaService", operation, attrs...)
}

// CreateForAcceptance seeds the visit agenda when a speaker accepts: the
// seminar itself (locked, immutable) and a lunch, both on the seminar day,
// with the window spanning the day before through the day after.
func (s *AgendaService) CreateForAcceptance(ctx context.Context, speaker Speaker, date AvailableDate) (Agenda, error) {
	if s == nil || s.agendas == nil {
		return Agenda{}, fmt.Errorf("agenda repository not configured")
	}

	window := visit.WindowAround(date.CalendarDate)
	now := s.now()
	agenda := Agenda{
		ID:          s.idGenerator(),
		SpeakerID:   speaker.ID,
		Host:        speaker.Host,
		SeminarDate: visit.Day(date.CalendarDate),
		StartDate:   window.Start,
		EndDate:     window.End,
		Meetings: []Meeting{
			{
				Title:    speaker.TalkTitle,
				Kind:     MeetingSeminar,
				Date:     visit.Day(date.CalendarDate),
				Start:    seminarStart,
				End:      seminarEnd,
				Location: date.Notes,
				Locked:   true,
			},
			{
				Title: "Lunch",
				Kind:  MeetingSocial,
				Date:  visit.Day(date.CalendarDate),
				Start: lunchStart,
				End:   lunchEnd,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.agendas.CreateAgenda(ctx, agenda); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return Agenda{}, ErrAlreadyExists
		}
		return Agenda{}, err
	}

	s.loggerWith(ctx, "CreateForAcceptance",
		"speaker_id", speaker.ID,
		"seminar_date", agenda.SeminarDate.Format("2006-01-02"),
	).InfoContext(ctx, "agenda created")
	return agenda, nil
}

// GetBySpeaker returns the agenda owned by the given speaker.
func (s *AgendaService) GetBySpeaker(ctx context.Context, speakerID string) (Agenda, error) {
	if s == nil || s.agendas == nil {
		return Agenda{}, fmt.Errorf("agenda repository not configured")
	}
	agenda, err := s.agendas.GetAgendaBySpeaker(ctx, speakerID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Agenda{}, ErrNotFound
		}
		return Agenda{}, err
	}
	return agenda, nil
}

// AddMeeting appends a non-locked meeting. The slot must lie inside the
// visit window with a positive duration; overlap on the hour grid is the
// presentation layer's concern.
func (s *AgendaService) AddMeeting(ctx context.Context, params AddMeetingParams) (Agenda, error) {
	if s == nil || s.agendas == nil {
		return Agenda{}, fmt.Errorf("agenda repository not configured")
	}
	if !params.Principal.IsOrganizer() {
		return Agenda{}, ErrUnauthorized
	}

	agenda, err := s.GetBySpeaker(ctx, params.SpeakerID)
	if err != nil {
		return Agenda{}, err
	}

	input := params.Input
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	switch input.Kind {
	case MeetingOneToOne, MeetingGroup, MeetingSocial:
	case MeetingSeminar:
		vErr.add("kind", "a second seminar cannot be added")
	default:
		vErr.add("kind", "unknown meeting kind")
	}
	if vErr.HasErrors() {
		return Agenda{}, vErr
	}

	window := visit.Window{Start: agenda.StartDate, End: agenda.EndDate}
	if err := visit.ValidateSlot(window, input.Date, input.Start, input.End); err != nil {
		return Agenda{}, fmt.Errorf("%w: %v", ErrInvalidTimeRange, err)
	}

	agenda.Meetings = append(agenda.Meetings, Meeting{
		Title:     strings.TrimSpace(input.Title),
		Kind:      input.Kind,
		Date:      visit.Day(input.Date),
		Start:     input.Start,
		End:       input.End,
		Location:  input.Location,
		Notes:     input.Notes,
		Attendees: append([]string(nil), input.Attendees...),
	})
	agenda.UpdatedAt = s.now()

	if err := s.agendas.UpdateAgenda(ctx, agenda); err != nil {
		return Agenda{}, err
	}

	s.loggerWith(ctx, "AddMeeting", "speaker_id", params.SpeakerID, "meetings", len(agenda.Meetings)).
		InfoContext(ctx, "meeting added")
	return agenda, nil
}

// RemoveMeeting removes the meeting at the given index, preserving the
// relative order of the remainder. Locked meetings are non-removable.
func (s *AgendaService) RemoveMeeting(ctx context.Context, principal Principal, speakerID string, index int) (Agenda, error) {
	if s == nil || s.agendas == nil {
		return Agenda{}, fmt.Errorf("agenda repository not configured")
	}
	if !principal.IsOrganizer() {
		return Agenda{}, ErrUnauthorized
	}

	agenda, err := s.GetBySpeaker(ctx, speakerID)
	if err != nil {
		return Agenda{}, err
	}

	if index < 0 || index >= len(agenda.Meetings) {
		return Agenda{}, fmt.Errorf("%w: meeting %d of %d", ErrIndexOutOfRange, index, len(agenda.Meetings))
	}
	if agenda.Meetings[index].Locked {
		return Agenda{}, ErrLockedMeeting
	}

	agenda.Meetings = append(agenda.Meetings[:index], agenda.Meetings[index+1:]...)
	agenda.UpdatedAt = s.now()

	if err := s.agendas.UpdateAgenda(ctx, agenda); err != nil {
		return Agenda{}, err
	}

	s.loggerWith(ctx, "RemoveMeeting", "speaker_id", speakerID, "index", index).
		InfoContext(ctx, "meeting removed")
	return agenda, nil
}

// DeleteBySpeaker removes the agenda as part of a confirmed speaker's
// cascading deletion. Missing agendas are not an error for the cascade.
func (s *AgendaService) DeleteBySpeaker(ctx context.Context, speakerID string) error {
	if s == nil || s.agendas == nil {
		return fmt.Errorf("agenda repository not configured")
	}
	if err := s.agendas.DeleteAgendaBySpeaker(ctx, speakerID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil
		}
		return err
	}
	return nil
}
