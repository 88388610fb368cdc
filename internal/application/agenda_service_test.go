package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/seminar-coordinator/internal/persistence"
	"github.com/example/seminar-coordinator/internal/visit"
)

type agendaRepoStub struct {
	agendas   map[string]Agenda
	createErr error
	updateErr error
}

func newAgendaRepoStub(agendas ...Agenda) *agendaRepoStub {
	stub := &agendaRepoStub{agendas: make(map[string]Agenda)}
	for _, agenda := range agendas {
		stub.agendas[agenda.SpeakerID] = agenda
	}
	return stub
}

func (a *agendaRepoStub) CreateAgenda(ctx context.Context, agenda Agenda) error {
	if a.createErr != nil {
		return a.createErr
	}
	if _, ok := a.agendas[agenda.SpeakerID]; ok {
		return persistence.ErrDuplicate
	}
	a.agendas[agenda.SpeakerID] = agenda
	return nil
}

func (a *agendaRepoStub) GetAgendaBySpeaker(ctx context.Context, speakerID string) (Agenda, error) {
	agenda, ok := a.agendas[speakerID]
	if !ok {
		return Agenda{}, persistence.ErrNotFound
	}
	return agenda, nil
}

func (a *agendaRepoStub) UpdateAgenda(ctx context.Context, agenda Agenda) error {
	if a.updateErr != nil {
		return a.updateErr
	}
	if _, ok := a.agendas[agenda.SpeakerID]; !ok {
		return persistence.ErrNotFound
	}
	a.agendas[agenda.SpeakerID] = agenda
	return nil
}

func (a *agendaRepoStub) DeleteAgendaBySpeaker(ctx context.Context, speakerID string) error {
	if _, ok := a.agendas[speakerID]; !ok {
		return persistence.ErrNotFound
	}
	delete(a.agendas, speakerID)
	return nil
}

var agendaSeminarDay = time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

func newTestAgendaService(repo *agendaRepoStub) *AgendaService {
	return NewAgendaService(repo, func() string { return "agenda-1" }, func() time.Time { return testBaseTime }, nil)
}

func seededAgenda(speakerID string) Agenda {
	window := visit.WindowAround(agendaSeminarDay)
	return Agenda{
		ID:          "agenda-1",
		SpeakerID:   speakerID,
		Host:        "Prof. Host",
		SeminarDate: agendaSeminarDay,
		StartDate:   window.Start,
		EndDate:     window.End,
		Meetings: []Meeting{
			{Title: "Consensus in Practice", Kind: MeetingSeminar, Date: agendaSeminarDay, Start: visit.At(10, 0), End: visit.At(11, 0), Locked: true},
			{Title: "Lunch", Kind: MeetingSocial, Date: agendaSeminarDay, Start: visit.At(13, 0), End: visit.At(14, 0)},
		},
	}
}

func TestAgendaService_CreateForAcceptance_SeedsThreeDayWindow(t *testing.T) {
	t.Parallel()

	repo := newAgendaRepoStub()
	svc := newTestAgendaService(repo)

	speaker := Speaker{ID: "s1", Host: "Prof. Host", TalkTitle: "Consensus in Practice"}
	date := AvailableDate{ID: "d1", CalendarDate: agendaSeminarDay, Notes: "Main lecture hall"}

	agenda, err := svc.CreateForAcceptance(context.Background(), speaker, date)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if !agenda.StartDate.Equal(agendaSeminarDay.AddDate(0, 0, -1)) || !agenda.EndDate.Equal(agendaSeminarDay.AddDate(0, 0, 1)) {
		t.Errorf("expected window around seminar day, got %v..%v", agenda.StartDate, agenda.EndDate)
	}
	if len(agenda.Meetings) != 2 {
		t.Fatalf("expected seminar and lunch, got %v", agenda.Meetings)
	}
	seminar := agenda.Meetings[0]
	if seminar.Kind != MeetingSeminar || !seminar.Locked {
		t.Errorf("expected locked seminar first, got %+v", seminar)
	}
	if seminar.Title != "Consensus in Practice" || seminar.Location != "Main lecture hall" {
		t.Errorf("expected talk title and venue carried over, got %+v", seminar)
	}
	if seminar.Start != visit.At(10, 0) || seminar.End != visit.At(11, 0) {
		t.Errorf("expected 10:00-11:00 seminar, got %s-%s", seminar.Start, seminar.End)
	}
	lunch := agenda.Meetings[1]
	if lunch.Kind != MeetingSocial || lunch.Locked {
		t.Errorf("expected removable lunch, got %+v", lunch)
	}
}

func TestAgendaService_CreateForAcceptance_RejectsSecondAgenda(t *testing.T) {
	t.Parallel()

	repo := newAgendaRepoStub(seededAgenda("s1"))
	svc := newTestAgendaService(repo)

	_, err := svc.CreateForAcceptance(context.Background(), Speaker{ID: "s1"}, AvailableDate{CalendarDate: agendaSeminarDay})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestAgendaService_AddMeeting_AppendsInsideWindow(t *testing.T) {
	t.Parallel()

	repo := newAgendaRepoStub(seededAgenda("s1"))
	svc := newTestAgendaService(repo)

	agenda, err := svc.AddMeeting(context.Background(), AddMeetingParams{
		Principal: organizerPrincipal(),
		SpeakerID: "s1",
		Input: MeetingInput{
			Title:     "Lab tour",
			Kind:      MeetingGroup,
			Date:      agendaSeminarDay.AddDate(0, 0, 1),
			Start:     visit.At(9, 0),
			End:       visit.At(10, 0),
			Attendees: []string{"Fellow Two"},
		},
	})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if len(agenda.Meetings) != 3 {
		t.Fatalf("expected three meetings, got %d", len(agenda.Meetings))
	}
	added := agenda.Meetings[2]
	if added.Title != "Lab tour" || added.Locked {
		t.Errorf("expected removable lab tour appended, got %+v", added)
	}
}

func TestAgendaService_AddMeeting_Validation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input MeetingInput
		field string
	}{
		{
			name:  "blank title",
			input: MeetingInput{Kind: MeetingGroup, Date: agendaSeminarDay, Start: visit.At(9, 0), End: visit.At(10, 0)},
			field: "title",
		},
		{
			name:  "second seminar",
			input: MeetingInput{Title: "Encore", Kind: MeetingSeminar, Date: agendaSeminarDay, Start: visit.At(15, 0), End: visit.At(16, 0)},
			field: "kind",
		},
		{
			name:  "unknown kind",
			input: MeetingInput{Title: "Mystery", Kind: "plenary", Date: agendaSeminarDay, Start: visit.At(15, 0), End: visit.At(16, 0)},
			field: "kind",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := newTestAgendaService(newAgendaRepoStub(seededAgenda("s1")))
			_, err := svc.AddMeeting(context.Background(), AddMeetingParams{
				Principal: organizerPrincipal(),
				SpeakerID: "s1",
				Input:     tc.input,
			})

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := vErr.FieldErrors[tc.field]; !ok {
				t.Errorf("expected field error for %q, got %v", tc.field, vErr.FieldErrors)
			}
		})
	}
}

func TestAgendaService_AddMeeting_RejectsBadSlots(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		date  time.Time
		start visit.TimeOfDay
		end   visit.TimeOfDay
	}{
		{name: "outside window", date: agendaSeminarDay.AddDate(0, 0, 2), start: visit.At(9, 0), end: visit.At(10, 0)},
		{name: "end before start", date: agendaSeminarDay, start: visit.At(10, 0), end: visit.At(9, 0)},
		{name: "zero duration", date: agendaSeminarDay, start: visit.At(9, 0), end: visit.At(9, 0)},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := newTestAgendaService(newAgendaRepoStub(seededAgenda("s1")))
			_, err := svc.AddMeeting(context.Background(), AddMeetingParams{
				Principal: organizerPrincipal(),
				SpeakerID: "s1",
				Input:     MeetingInput{Title: "Walk", Kind: MeetingSocial, Date: tc.date, Start: tc.start, End: tc.end},
			})
			if !errors.Is(err, ErrInvalidTimeRange) {
				t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
			}
		})
	}
}

func TestAgendaService_AddMeeting_RequiresOrganizer(t *testing.T) {
	t.Parallel()

	svc := newTestAgendaService(newAgendaRepoStub(seededAgenda("s1")))

	_, err := svc.AddMeeting(context.Background(), AddMeetingParams{
		Principal: fellowPrincipal(),
		SpeakerID: "s1",
		Input:     MeetingInput{Title: "Walk", Kind: MeetingSocial, Date: agendaSeminarDay, Start: visit.At(9, 0), End: visit.At(10, 0)},
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAgendaService_RemoveMeeting_ProtectsLockedSeminar(t *testing.T) {
	t.Parallel()

	repo := newAgendaRepoStub(seededAgenda("s1"))
	svc := newTestAgendaService(repo)

	if _, err := svc.RemoveMeeting(context.Background(), organizerPrincipal(), "s1", 0); !errors.Is(err, ErrLockedMeeting) {
		t.Fatalf("expected ErrLockedMeeting, got %v", err)
	}

	agenda, err := svc.RemoveMeeting(context.Background(), organizerPrincipal(), "s1", 1)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if len(agenda.Meetings) != 1 || agenda.Meetings[0].Kind != MeetingSeminar {
		t.Fatalf("expected only the seminar to remain, got %v", agenda.Meetings)
	}
}

func TestAgendaService_RemoveMeeting_IndexOutOfRange(t *testing.T) {
	t.Parallel()

	svc := newTestAgendaService(newAgendaRepoStub(seededAgenda("s1")))

	for _, index := range []int{-1, 2} {
		if _, err := svc.RemoveMeeting(context.Background(), organizerPrincipal(), "s1", index); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("index %d: expected ErrIndexOutOfRange, got %v", index, err)
		}
	}
}

func TestAgendaService_RemoveMeeting_PreservesOrder(t *testing.T) {
	t.Parallel()

	agenda := seededAgenda("s1")
	agenda.Meetings = append(agenda.Meetings,
		Meeting{Title: "Lab tour", Kind: MeetingGroup, Date: agendaSeminarDay, Start: visit.At(15, 0), End: visit.At(16, 0)},
		Meeting{Title: "Dinner", Kind: MeetingSocial, Date: agendaSeminarDay, Start: visit.At(18, 0), End: visit.At(20, 0)},
	)
	repo := newAgendaRepoStub(agenda)
	svc := newTestAgendaService(repo)

	updated, err := svc.RemoveMeeting(context.Background(), organizerPrincipal(), "s1", 1)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	titles := make([]string, 0, len(updated.Meetings))
	for _, meeting := range updated.Meetings {
		titles = append(titles, meeting.Title)
	}
	want := []string{"Consensus in Practice", "Lab tour", "Dinner"}
	if len(titles) != len(want) {
		t.Fatalf("expected %v, got %v", want, titles)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, titles)
		}
	}
}

func TestAgendaService_GetBySpeaker_NotFound(t *testing.T) {
	t.Parallel()

	svc := newTestAgendaService(newAgendaRepoStub())

	if _, err := svc.GetBySpeaker(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAgendaService_DeleteBySpeaker_MissingIsNoError(t *testing.T) {
	t.Parallel()

	svc := newTestAgendaService(newAgendaRepoStub())

	if err := svc.DeleteBySpeaker(context.Background(), "missing"); err != nil {
		t.Fatalf("expected missing agenda to be tolerated, got %v", err)
	}
}
