package sqlite_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/example/seminar-coordinator/internal/application"
	"github.com/example/seminar-coordinator/internal/persistence"
	"github.com/example/seminar-coordinator/internal/testfixtures"
)

func TestDateRepository_RoundTrip(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	fixture := testfixtures.NewDateFixture(testfixtures.WithDateNotes("Room 2.17"))
	if err := harness.Dates.CreateDate(ctx, fixture.Persistence()); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := harness.Dates.GetDate(ctx, fixture.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !got.CalendarDate.Equal(fixture.CalendarDate) {
		t.Errorf("expected calendar date %v, got %v", fixture.CalendarDate, got.CalendarDate)
	}
	if got.Notes != "Room 2.17" || !got.Available || got.LockState != string(application.LockUnset) {
		t.Errorf("unexpected stored record %+v", got)
	}

	if _, err := harness.Dates.GetDate(ctx, "never-created"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDateRepository_ActiveDayUniqueness(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	first := testfixtures.NewDateFixture()
	if err := harness.Dates.CreateDate(ctx, first.Persistence()); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	duplicate := testfixtures.NewDateFixture(testfixtures.WithCalendarDate(first.CalendarDate))
	if err := harness.Dates.CreateDate(ctx, duplicate.Persistence()); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for a second active record on the day, got %v", err)
	}

	// Retiring the first record frees the day for a fresh one.
	if err := harness.Dates.SoftDeleteDate(ctx, first.ID); err != nil {
		t.Fatalf("soft delete failed: %v", err)
	}
	replacement := testfixtures.NewDateFixture(testfixtures.WithCalendarDate(first.CalendarDate))
	if err := harness.Dates.CreateDate(ctx, replacement.Persistence()); err != nil {
		t.Fatalf("expected the day reusable after soft delete, got %v", err)
	}
}

func TestDateRepository_LockUnlockRoundTrip(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	fixture := testfixtures.NewDateFixture()
	if err := harness.Dates.CreateDate(ctx, fixture.Persistence()); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := harness.Dates.LockDate(ctx, fixture.ID, "speaker-1", "Consensus in Practice"); err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	locked, err := harness.Dates.GetDate(ctx, fixture.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if locked.Available || locked.LockState != string(application.LockSpeaker) || locked.LockedBy != "speaker-1" || locked.TalkTitle != "Consensus in Practice" {
		t.Errorf("unexpected locked record %+v", locked)
	}

	if err := harness.Dates.LockDate(ctx, fixture.ID, "speaker-2", "Another Talk"); !errors.Is(err, persistence.ErrConflict) {
		t.Errorf("expected ErrConflict for a second lock, got %v", err)
	}

	if err := harness.Dates.UnlockDate(ctx, fixture.ID); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	freed, err := harness.Dates.GetDate(ctx, fixture.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !freed.Available || freed.LockState != string(application.LockUnset) || freed.LockedBy != "" || freed.TalkTitle != "" {
		t.Errorf("expected a pristine record after unlock, got %+v", freed)
	}

	// Unlocking an already free date is tolerated.
	if err := harness.Dates.UnlockDate(ctx, fixture.ID); err != nil {
		t.Errorf("expected unlock of a free date tolerated, got %v", err)
	}
}

func TestDateRepository_LockUnknownDate(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)

	if err := harness.Dates.LockDate(context.Background(), "never-created", "speaker-1", "Talk"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDateRepository_ConcurrentLockersSingleWinner(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	fixture := testfixtures.NewDateFixture()
	if err := harness.Dates.CreateDate(ctx, fixture.Persistence()); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	const contenders = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(speakerID string) {
			defer wg.Done()
			err := harness.Dates.LockDate(ctx, fixture.ID, speakerID, "Racing Talk")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, persistence.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(testfixtures.NewSpeakerFixture().ID)
	}
	wg.Wait()

	if wins != 1 || conflicts != contenders-1 {
		t.Fatalf("expected exactly one winner, got %d wins and %d conflicts", wins, conflicts)
	}
}

func TestDateRepository_SoftDelete(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	fixture := testfixtures.NewDateFixture()
	if err := harness.Dates.CreateDate(ctx, fixture.Persistence()); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := harness.Dates.LockDate(ctx, fixture.ID, "speaker-1", "Talk"); err != nil {
		t.Fatalf("lock failed: %v", err)
	}

	if err := harness.Dates.SoftDeleteDate(ctx, fixture.ID); !errors.Is(err, persistence.ErrConflict) {
		t.Fatalf("expected ErrConflict deleting a locked date, got %v", err)
	}

	if err := harness.Dates.UnlockDate(ctx, fixture.ID); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	if err := harness.Dates.SoftDeleteDate(ctx, fixture.ID); err != nil {
		t.Fatalf("soft delete failed: %v", err)
	}
	if err := harness.Dates.SoftDeleteDate(ctx, fixture.ID); err != nil {
		t.Errorf("expected repeated soft delete tolerated, got %v", err)
	}

	// A retired date can never be locked again.
	if err := harness.Dates.LockDate(ctx, fixture.ID, "speaker-2", "Talk"); !errors.Is(err, persistence.ErrConflict) {
		t.Errorf("expected ErrConflict locking a deleted date, got %v", err)
	}
	// And unlocking it does not resurrect it.
	if err := harness.Dates.UnlockDate(ctx, fixture.ID); !errors.Is(err, persistence.ErrConflict) {
		t.Errorf("expected ErrConflict unlocking a deleted date, got %v", err)
	}
}

func TestDateRepository_UpdateTalkTitle(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	fixture := testfixtures.NewDateFixture()
	if err := harness.Dates.CreateDate(ctx, fixture.Persistence()); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := harness.Dates.UpdateTalkTitle(ctx, fixture.ID, "New Title"); !errors.Is(err, persistence.ErrConflict) {
		t.Fatalf("expected ErrConflict on an unlocked date, got %v", err)
	}

	if err := harness.Dates.LockDate(ctx, fixture.ID, "speaker-1", "Old Title"); err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	if err := harness.Dates.UpdateTalkTitle(ctx, fixture.ID, "New Title"); err != nil {
		t.Fatalf("update title failed: %v", err)
	}

	got, err := harness.Dates.GetDate(ctx, fixture.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.TalkTitle != "New Title" || got.LockedBy != "speaker-1" {
		t.Errorf("expected refreshed title with the lock intact, got %+v", got)
	}
}

func TestDateRepository_ListDates(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	open := testfixtures.NewDateFixture()
	deleted := testfixtures.NewDateFixture(testfixtures.WithDateDeleted())
	for _, f := range []testfixtures.DateFixture{open, deleted} {
		if err := harness.Dates.CreateDate(ctx, f.Persistence()); err != nil {
			t.Fatalf("create %s failed: %v", f.ID, err)
		}
	}

	active, err := harness.Dates.ListDates(ctx, false)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != open.ID {
		t.Errorf("expected only the open date, got %+v", active)
	}

	all, err := harness.Dates.ListDates(ctx, true)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected both records with includeDeleted, got %d", len(all))
	}
}
