package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/seminar-coordinator/internal/persistence"
)

type dateRepoStub struct {
	dates      map[string]AvailableDate
	listCalls  int
	createErr  error
	lockErr    error
	unlockErrs map[string]error
	deleteErr  error
}

func newDateRepoStub(dates ...AvailableDate) *dateRepoStub {
	stub := &dateRepoStub{dates: make(map[string]AvailableDate), unlockErrs: make(map[string]error)}
	for _, date := range dates {
		stub.dates[date.ID] = date
	}
	return stub
}

func (d *dateRepoStub) CreateDate(ctx context.Context, date AvailableDate) error {
	if d.createErr != nil {
		return d.createErr
	}
	d.dates[date.ID] = date
	return nil
}

func (d *dateRepoStub) GetDate(ctx context.Context, id string) (AvailableDate, error) {
	date, ok := d.dates[id]
	if !ok {
		return AvailableDate{}, persistence.ErrNotFound
	}
	return date, nil
}

func (d *dateRepoStub) ListDates(ctx context.Context, includeDeleted bool) ([]AvailableDate, error) {
	d.listCalls++
	var out []AvailableDate
	for _, date := range d.dates {
		if !includeDeleted && date.LockState == LockDeleted {
			continue
		}
		out = append(out, date)
	}
	return out, nil
}

func (d *dateRepoStub) LockDate(ctx context.Context, id, speakerID, talkTitle string) error {
	if d.lockErr != nil {
		return d.lockErr
	}
	date, ok := d.dates[id]
	if !ok {
		return persistence.ErrNotFound
	}
	if !date.Available || date.LockState != LockUnset {
		return persistence.ErrConflict
	}
	date.Available = false
	date.LockState = LockSpeaker
	date.LockedBy = speakerID
	date.TalkTitle = talkTitle
	d.dates[id] = date
	return nil
}

func (d *dateRepoStub) UnlockDate(ctx context.Context, id string) error {
	if err := d.unlockErrs[id]; err != nil {
		return err
	}
	date, ok := d.dates[id]
	if !ok {
		return persistence.ErrNotFound
	}
	if date.LockState == LockDeleted {
		return persistence.ErrConflict
	}
	date.Available = true
	date.LockState = LockUnset
	date.LockedBy = ""
	date.TalkTitle = ""
	d.dates[id] = date
	return nil
}

func (d *dateRepoStub) SoftDeleteDate(ctx context.Context, id string) error {
	if d.deleteErr != nil {
		return d.deleteErr
	}
	date, ok := d.dates[id]
	if !ok {
		return persistence.ErrNotFound
	}
	if date.LockState == LockSpeaker {
		return persistence.ErrConflict
	}
	date.Available = false
	date.LockState = LockDeleted
	d.dates[id] = date
	return nil
}

func (d *dateRepoStub) UpdateTalkTitle(ctx context.Context, id, talkTitle string) error {
	date, ok := d.dates[id]
	if !ok {
		return persistence.ErrNotFound
	}
	if date.LockState != LockSpeaker {
		return persistence.ErrConflict
	}
	date.TalkTitle = talkTitle
	d.dates[id] = date
	return nil
}

func newTestDateService(repo *dateRepoStub) *DateService {
	return NewDateService(repo, func() string { return "date-1" }, func() time.Time { return testBaseTime }, time.Minute, 4, nil)
}

func openDate(id string, day time.Time) AvailableDate {
	return AvailableDate{
		ID:           id,
		CalendarDate: day,
		Host:         "Prof. Host",
		Available:    true,
		LockState:    LockUnset,
	}
}

func TestDateService_Publish_NormalizesToDay(t *testing.T) {
	t.Parallel()

	repo := newDateRepoStub()
	svc := newTestDateService(repo)

	date, err := svc.Publish(context.Background(), PublishDateParams{
		Principal:    organizerPrincipal(),
		CalendarDate: time.Date(2025, time.March, 10, 14, 30, 0, 0, time.UTC),
		Host:         "Prof. Host",
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	want := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	if !date.CalendarDate.Equal(want) {
		t.Errorf("expected day-truncated date %v, got %v", want, date.CalendarDate)
	}
	if !date.Available || date.LockState != LockUnset {
		t.Errorf("expected open date, got available=%v state=%q", date.Available, date.LockState)
	}
}

func TestDateService_Publish_RequiresOrganizer(t *testing.T) {
	t.Parallel()

	svc := newTestDateService(newDateRepoStub())

	_, err := svc.Publish(context.Background(), PublishDateParams{
		Principal:    fellowPrincipal(),
		CalendarDate: testBaseTime,
		Host:         "Prof. Host",
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestDateService_Publish_ValidatesInput(t *testing.T) {
	t.Parallel()

	svc := newTestDateService(newDateRepoStub())

	_, err := svc.Publish(context.Background(), PublishDateParams{Principal: organizerPrincipal()})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"calendar_date", "host"} {
		if _, ok := vErr.FieldErrors[field]; !ok {
			t.Errorf("expected field error for %q, got %v", field, vErr.FieldErrors)
		}
	}
}

func TestDateService_Publish_RejectsDuplicateActiveDay(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	repo := newDateRepoStub(openDate("d1", day))
	svc := newTestDateService(repo)

	_, err := svc.Publish(context.Background(), PublishDateParams{
		Principal:    organizerPrincipal(),
		CalendarDate: day.Add(9 * time.Hour),
		Host:         "Prof. Host",
	})
	if !errors.Is(err, ErrDuplicateDate) {
		t.Fatalf("expected ErrDuplicateDate, got %v", err)
	}
}

func TestDateService_Publish_AllowsReusingDeletedDay(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	deleted := openDate("d1", day)
	deleted.Available = false
	deleted.LockState = LockDeleted
	repo := newDateRepoStub(deleted)
	svc := newTestDateService(repo)

	if _, err := svc.Publish(context.Background(), PublishDateParams{
		Principal:    organizerPrincipal(),
		CalendarDate: day,
		Host:         "Prof. Host",
	}); err != nil {
		t.Fatalf("expected soft-deleted day to be reusable, got %v", err)
	}
}

func TestDateService_Publish_MapsRepositoryDuplicate(t *testing.T) {
	t.Parallel()

	repo := newDateRepoStub()
	repo.createErr = persistence.ErrDuplicate
	svc := newTestDateService(repo)

	_, err := svc.Publish(context.Background(), PublishDateParams{
		Principal:    organizerPrincipal(),
		CalendarDate: testBaseTime,
		Host:         "Prof. Host",
	})
	if !errors.Is(err, ErrDuplicateDate) {
		t.Fatalf("expected ErrDuplicateDate, got %v", err)
	}
}

func TestDateService_Lock_WinnerTakesDate(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	repo := newDateRepoStub(openDate("d1", day))
	svc := newTestDateService(repo)

	if err := svc.Lock(context.Background(), "d1", "s1", "Consensus in Practice"); err != nil {
		t.Fatalf("lock failed: %v", err)
	}

	stored := repo.dates["d1"]
	if stored.Available || stored.LockState != LockSpeaker || stored.LockedBy != "s1" {
		t.Errorf("expected locked date, got %+v", stored)
	}

	if err := svc.Lock(context.Background(), "d1", "s2", "Another Talk"); !errors.Is(err, ErrDateUnavailable) {
		t.Fatalf("expected loser to see ErrDateUnavailable, got %v", err)
	}
	if repo.dates["d1"].LockedBy != "s1" {
		t.Error("expected losing lock to leave the winner untouched")
	}
}

func TestDateService_Lock_UnknownDate(t *testing.T) {
	t.Parallel()

	svc := newTestDateService(newDateRepoStub())

	if err := svc.Lock(context.Background(), "missing", "s1", "Talk"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDateService_Unlock_RestoresDate(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	repo := newDateRepoStub(openDate("d1", day))
	svc := newTestDateService(repo)

	if err := svc.Lock(context.Background(), "d1", "s1", "Talk"); err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	if err := svc.Unlock(context.Background(), "d1"); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}

	stored := repo.dates["d1"]
	if !stored.Available || stored.LockState != LockUnset || stored.LockedBy != "" || stored.TalkTitle != "" {
		t.Errorf("expected pristine open date after unlock, got %+v", stored)
	}
}

func TestDateService_SoftDelete_RejectsLockedDate(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	repo := newDateRepoStub(openDate("d1", day))
	svc := newTestDateService(repo)

	if err := svc.Lock(context.Background(), "d1", "s1", "Talk"); err != nil {
		t.Fatalf("lock failed: %v", err)
	}

	if err := svc.SoftDelete(context.Background(), organizerPrincipal(), "d1"); !errors.Is(err, ErrDateLocked) {
		t.Fatalf("expected ErrDateLocked, got %v", err)
	}

	if err := svc.Unlock(context.Background(), "d1"); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	if err := svc.SoftDelete(context.Background(), organizerPrincipal(), "d1"); err != nil {
		t.Fatalf("expected soft delete to succeed after unlock, got %v", err)
	}
	if repo.dates["d1"].LockState != LockDeleted {
		t.Errorf("expected deleted state, got %q", repo.dates["d1"].LockState)
	}
}

func TestDateService_Reassign_LocksNewBeforeReleasingOld(t *testing.T) {
	t.Parallel()

	day1 := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 7)
	repo := newDateRepoStub(openDate("d1", day1), openDate("d2", day2))
	svc := newTestDateService(repo)

	if err := svc.Lock(context.Background(), "d1", "s1", "Talk"); err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	if err := svc.Reassign(context.Background(), "d1", "d2", "s1", "Talk"); err != nil {
		t.Fatalf("reassign failed: %v", err)
	}

	if repo.dates["d1"].LockState != LockUnset {
		t.Errorf("expected old date released, got %q", repo.dates["d1"].LockState)
	}
	if repo.dates["d2"].LockState != LockSpeaker || repo.dates["d2"].LockedBy != "s1" {
		t.Errorf("expected new date locked, got %+v", repo.dates["d2"])
	}
}

func TestDateService_Reassign_FailedLockLeavesOldIntact(t *testing.T) {
	t.Parallel()

	day1 := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 7)
	repo := newDateRepoStub(openDate("d1", day1), openDate("d2", day2))
	svc := newTestDateService(repo)

	if err := svc.Lock(context.Background(), "d1", "s1", "Talk"); err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	if err := svc.Lock(context.Background(), "d2", "s2", "Rival Talk"); err != nil {
		t.Fatalf("rival lock failed: %v", err)
	}

	err := svc.Reassign(context.Background(), "d1", "d2", "s1", "Talk")
	if !errors.Is(err, ErrDateUnavailable) {
		t.Fatalf("expected ErrDateUnavailable, got %v", err)
	}
	if repo.dates["d1"].LockedBy != "s1" {
		t.Error("expected original lock untouched after failed reassign")
	}
}

func TestDateService_Reassign_CompensatesWhenReleaseFails(t *testing.T) {
	t.Parallel()

	day1 := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 7)
	repo := newDateRepoStub(openDate("d1", day1), openDate("d2", day2))
	svc := newTestDateService(repo)

	if err := svc.Lock(context.Background(), "d1", "s1", "Talk"); err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	repo.unlockErrs["d1"] = errors.New("storage down")

	err := svc.Reassign(context.Background(), "d1", "d2", "s1", "Talk")
	if err == nil {
		t.Fatal("expected reassign to fail")
	}
	if repo.dates["d2"].LockState != LockUnset {
		t.Errorf("expected compensating unlock of new date, got %+v", repo.dates["d2"])
	}
}

func TestDateService_Reassign_SameDateRefreshesTitle(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	repo := newDateRepoStub(openDate("d1", day))
	svc := newTestDateService(repo)

	if err := svc.Lock(context.Background(), "d1", "s1", "Old Title"); err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	if err := svc.Reassign(context.Background(), "d1", "d1", "s1", "New Title"); err != nil {
		t.Fatalf("reassign failed: %v", err)
	}
	if repo.dates["d1"].TalkTitle != "New Title" {
		t.Errorf("expected refreshed title, got %q", repo.dates["d1"].TalkTitle)
	}
}

func TestDateService_ListActive_ServesFromCacheBetweenMutations(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	repo := newDateRepoStub(openDate("d1", day))
	svc := newTestDateService(repo)

	if _, err := svc.ListActive(context.Background()); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if _, err := svc.ListActive(context.Background()); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if repo.listCalls != 1 {
		t.Errorf("expected second read served from cache, got %d repository reads", repo.listCalls)
	}

	if err := svc.Lock(context.Background(), "d1", "s1", "Talk"); err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	if _, err := svc.ListActive(context.Background()); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if repo.listCalls != 2 {
		t.Errorf("expected lock to invalidate the cache, got %d repository reads", repo.listCalls)
	}
}

func TestDateService_ListActive_ExcludesDeleted(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	deleted := openDate("d2", day.AddDate(0, 0, 7))
	deleted.Available = false
	deleted.LockState = LockDeleted
	repo := newDateRepoStub(openDate("d1", day), deleted)
	svc := newTestDateService(repo)

	dates, err := svc.ListActive(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(dates) != 1 || dates[0].ID != "d1" {
		t.Fatalf("expected only the active date, got %v", dates)
	}
}
