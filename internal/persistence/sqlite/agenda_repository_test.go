package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/seminar-coordinator/internal/application"
	"github.com/example/seminar-coordinator/internal/persistence"
	"github.com/example/seminar-coordinator/internal/testfixtures"
	"github.com/example/seminar-coordinator/internal/visit"
)

// createAgendaOwner inserts the speaker an agenda hangs off, satisfying the
// foreign key.
func createAgendaOwner(t *testing.T, harness *testfixtures.SQLiteHarness, speakerID string) {
	t.Helper()
	speaker := testfixtures.NewSpeakerFixture(testfixtures.WithSpeakerID(speakerID))
	if err := harness.Speakers.CreateSpeaker(context.Background(), speaker.Persistence()); err != nil {
		t.Fatalf("create speaker failed: %v", err)
	}
}

func TestAgendaRepository_RoundTrip(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	fixture := testfixtures.NewAgendaFixture(testfixtures.WithMeetings(
		application.Meeting{
			Title:    "Consensus in Practice",
			Kind:     application.MeetingSeminar,
			Date:     testfixtures.ReferenceTime(),
			Start:    visit.At(10, 0),
			End:      visit.At(11, 0),
			Location: "Main lecture hall",
			Locked:   true,
		},
		application.Meeting{
			Title:     "Lab tour",
			Kind:      application.MeetingGroup,
			Date:      testfixtures.ReferenceTime(),
			Start:     visit.At(15, 30),
			End:       visit.At(16, 15),
			Notes:     "Meet at reception",
			Attendees: []string{"Prof. Host", "Dr. Fellow"},
		},
	))
	createAgendaOwner(t, harness, fixture.SpeakerID)

	if err := harness.Agendas.CreateAgenda(ctx, fixture.Persistence()); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := harness.Agendas.GetAgendaBySpeaker(ctx, fixture.SpeakerID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ID != fixture.ID || !got.SeminarDate.Equal(fixture.SeminarDate) {
		t.Errorf("unexpected agenda %+v", got)
	}
	if !got.StartDate.Equal(fixture.StartDate) || !got.EndDate.Equal(fixture.EndDate) {
		t.Errorf("expected window %v..%v, got %v..%v", fixture.StartDate, fixture.EndDate, got.StartDate, got.EndDate)
	}
	if len(got.Meetings) != 2 {
		t.Fatalf("expected 2 meetings, got %d", len(got.Meetings))
	}
	seminar := got.Meetings[0]
	if seminar.Title != "Consensus in Practice" || !seminar.Locked || seminar.Start != visit.At(10, 0) || seminar.End != visit.At(11, 0) {
		t.Errorf("unexpected seminar meeting %+v", seminar)
	}
	tour := got.Meetings[1]
	if tour.Start != visit.At(15, 30) || tour.End != visit.At(16, 15) {
		t.Errorf("expected times to survive storage, got %v..%v", tour.Start, tour.End)
	}
	if len(tour.Attendees) != 2 || tour.Attendees[0] != "Prof. Host" {
		t.Errorf("expected attendees to survive storage, got %v", tour.Attendees)
	}
}

func TestAgendaRepository_OneAgendaPerSpeaker(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	fixture := testfixtures.NewAgendaFixture()
	createAgendaOwner(t, harness, fixture.SpeakerID)
	if err := harness.Agendas.CreateAgenda(ctx, fixture.Persistence()); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	second := testfixtures.NewAgendaFixture(testfixtures.WithAgendaSpeaker(fixture.SpeakerID))
	if err := harness.Agendas.CreateAgenda(ctx, second.Persistence()); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestAgendaRepository_CreateRequiresSpeaker(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)

	orphan := testfixtures.NewAgendaFixture(testfixtures.WithAgendaSpeaker("never-created"))
	if err := harness.Agendas.CreateAgenda(context.Background(), orphan.Persistence()); !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
	}
}

func TestAgendaRepository_UpdateReplacesMeetings(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	fixture := testfixtures.NewAgendaFixture()
	createAgendaOwner(t, harness, fixture.SpeakerID)
	if err := harness.Agendas.CreateAgenda(ctx, fixture.Persistence()); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated := fixture.Persistence()
	updated.Meetings = append(updated.Meetings, persistence.Meeting{
		Title: "Dinner",
		Kind:  string(application.MeetingSocial),
		Date:  fixture.SeminarDate,
		Start: visit.At(19, 0),
		End:   visit.At(21, 0),
	})
	if err := harness.Agendas.UpdateAgenda(ctx, updated); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := harness.Agendas.GetAgendaBySpeaker(ctx, fixture.SpeakerID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(got.Meetings) != 3 || got.Meetings[2].Title != "Dinner" {
		t.Errorf("expected the added dinner last, got %+v", got.Meetings)
	}
}

func TestAgendaRepository_UpdateUnknownAgenda(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)

	ghost := testfixtures.NewAgendaFixture(testfixtures.WithAgendaID("never-created"))
	if err := harness.Agendas.UpdateAgenda(context.Background(), ghost.Persistence()); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAgendaRepository_DeleteBySpeaker(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	fixture := testfixtures.NewAgendaFixture()
	createAgendaOwner(t, harness, fixture.SpeakerID)
	if err := harness.Agendas.CreateAgenda(ctx, fixture.Persistence()); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := harness.Agendas.DeleteAgendaBySpeaker(ctx, fixture.SpeakerID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := harness.Agendas.GetAgendaBySpeaker(ctx, fixture.SpeakerID); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := harness.Agendas.DeleteAgendaBySpeaker(ctx, fixture.SpeakerID); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestAgendaRepository_SpeakerDeleteCascades(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	fixture := testfixtures.NewAgendaFixture()
	createAgendaOwner(t, harness, fixture.SpeakerID)
	if err := harness.Agendas.CreateAgenda(ctx, fixture.Persistence()); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := harness.Speakers.DeleteSpeaker(ctx, fixture.SpeakerID); err != nil {
		t.Fatalf("delete speaker failed: %v", err)
	}
	if _, err := harness.Agendas.GetAgendaBySpeaker(ctx, fixture.SpeakerID); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("expected the agenda gone with its speaker, got %v", err)
	}
}
