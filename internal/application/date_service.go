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

// DateRepository captures the persistence interactions needed by the
// allocation engine. LockDate and SoftDeleteDate are conditional updates;
// when the record is not in the required state they return
// persistence.ErrConflict, never mutating anything.
type DateRepository interface {
	CreateDate(ctx context.Context, date AvailableDate) error
	GetDate(ctx context.Context, id string) (AvailableDate, error)
	ListDates(ctx context.Context, includeDeleted bool) ([]AvailableDate, error)
	LockDate(ctx context.Context, id, speakerID, talkTitle string) error
	UnlockDate(ctx context.Context, id string) error
	SoftDeleteDate(ctx context.Context, id string) error
	UpdateTalkTitle(ctx context.Context, id, talkTitle string) error
}

// DateService is the allocation engine: the sole arbiter of a date's
// availability. Exclusive locking is delegated to the repository's atomic
// check-and-set so that at most one caller can win a given date.
type DateService struct {
	dates       DateRepository
	cache       *dateCache
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewDateService wires dependencies for date allocation operations.
func NewDateService(dates DateRepository, idGenerator func() string, now func() time.Time, cacheTTL time.Duration, cacheSize int, logger *slog.Logger) *DateService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &DateService{
		dates:       dates,
		cache:       newDateCache(cacheTTL, cacheSize),
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *DateService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "DateService", operation, attrs...)
}

// Publish records a new proposable date. Duplicate active calendar days are
// rejected; the repository's partial unique index backs the same rule under
// concurrent publishes.
func (s *DateService) Publish(ctx context.Context, params PublishDateParams) (AvailableDate, error) {
	if s == nil || s.dates == nil {
		return AvailableDate{}, fmt.Errorf("date repository not configured")
	}
	if !params.Principal.IsOrganizer() {
		return AvailableDate{}, ErrUnauthorized
	}

	vErr := &ValidationError{}
	if params.CalendarDate.IsZero() {
		vErr.add("calendar_date", "calendar date is required")
	}
	if strings.TrimSpace(params.Host) == "" {
		vErr.add("host", "host is required")
	}
	if vErr.HasErrors() {
		return AvailableDate{}, vErr
	}

	day := visit.Day(params.CalendarDate)
	active, err := s.ListActive(ctx)
	if err != nil {
		return AvailableDate{}, err
	}
	for _, existing := range active {
		if existing.CalendarDate.Equal(day) {
			return AvailableDate{}, ErrDuplicateDate
		}
	}

	now := s.now()
	date := AvailableDate{
		ID:           s.idGenerator(),
		CalendarDate: day,
		Host:         strings.TrimSpace(params.Host),
		Notes:        params.Notes,
		Available:    true,
		LockState:    LockUnset,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.dates.CreateDate(ctx, date); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return AvailableDate{}, ErrDuplicateDate
		}
		return AvailableDate{}, err
	}

	s.cache.Invalidate()
	s.loggerWith(ctx, "Publish", "date_id", date.ID, "calendar_date", day.Format("2006-01-02")).
		InfoContext(ctx, "date published")
	return date, nil
}

// SoftDelete marks an unlocked date as permanently excluded from active
// views. There is no hard delete.
func (s *DateService) SoftDelete(ctx context.Context, principal Principal, dateID string) error {
	if s == nil || s.dates == nil {
		return fmt.Errorf("date repository not configured")
	}
	if !principal.IsOrganizer() {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "SoftDelete", "date_id", dateID)
	if err := s.dates.SoftDeleteDate(ctx, dateID); err != nil {
		err = mapDateRepoError(err, ErrDateLocked)
		logger.ErrorContext(ctx, "soft delete failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	s.cache.Invalidate()
	logger.InfoContext(ctx, "date soft-deleted")
	return nil
}

// Lock atomically assigns an available date to a speaker. At most one of
// any set of racing callers succeeds; the rest observe ErrDateUnavailable
// with the date untouched.
func (s *DateService) Lock(ctx context.Context, dateID, speakerID, talkTitle string) error {
	if s == nil || s.dates == nil {
		return fmt.Errorf("date repository not configured")
	}

	logger := s.loggerWith(ctx, "Lock", "date_id", dateID, "speaker_id", speakerID)
	if err := s.dates.LockDate(ctx, dateID, speakerID, talkTitle); err != nil {
		err = mapDateRepoError(err, ErrDateUnavailable)
		logger.ErrorContext(ctx, "lock failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	s.cache.Invalidate()
	logger.InfoContext(ctx, "date locked")
	return nil
}

// Unlock releases a locked date, restoring it to the pool with its
// denormalized talk title cleared.
func (s *DateService) Unlock(ctx context.Context, dateID string) error {
	if s == nil || s.dates == nil {
		return fmt.Errorf("date repository not configured")
	}

	logger := s.loggerWith(ctx, "Unlock", "date_id", dateID)
	if err := s.dates.UnlockDate(ctx, dateID); err != nil {
		err = mapDateRepoError(err, ErrDateUnavailable)
		logger.ErrorContext(ctx, "unlock failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	s.cache.Invalidate()
	logger.InfoContext(ctx, "date unlocked")
	return nil
}

// Reassign moves a speaker's lock from one date to another as an
// all-or-nothing unit. The new date is locked first; only then is the old
// one released, so a failed lock leaves everything untouched and a failed
// release is compensated by unlocking the new date again.
func (s *DateService) Reassign(ctx context.Context, oldDateID, newDateID, speakerID, talkTitle string) error {
	if s == nil || s.dates == nil {
		return fmt.Errorf("date repository not configured")
	}
	if oldDateID == newDateID {
		return s.RefreshTalkTitle(ctx, oldDateID, talkTitle)
	}

	logger := s.loggerWith(ctx, "Reassign",
		"old_date_id", oldDateID,
		"new_date_id", newDateID,
		"speaker_id", speakerID,
	)

	if err := s.Lock(ctx, newDateID, speakerID, talkTitle); err != nil {
		return fmt.Errorf("reassign: lock new date: %w", err)
	}

	if err := s.Unlock(ctx, oldDateID); err != nil {
		if cerr := s.Unlock(ctx, newDateID); cerr != nil {
			logger.ErrorContext(ctx, "compensating unlock failed; new date left locked",
				"error", cerr, "error_kind", ErrorKind(cerr))
			return &ReconcileError{
				Step:   "reassign/compensate",
				Detail: fmt.Sprintf("date %s may remain locked to speaker %s", newDateID, speakerID),
				Err:    err,
			}
		}
		return fmt.Errorf("reassign: release previous date: %w", err)
	}

	logger.InfoContext(ctx, "date reassigned")
	return nil
}

// RefreshTalkTitle updates the denormalized talk title on a locked date.
func (s *DateService) RefreshTalkTitle(ctx context.Context, dateID, talkTitle string) error {
	if s == nil || s.dates == nil {
		return fmt.Errorf("date repository not configured")
	}
	if err := s.dates.UpdateTalkTitle(ctx, dateID, talkTitle); err != nil {
		return mapDateRepoError(err, ErrDateUnavailable)
	}
	s.cache.Invalidate()
	return nil
}

// Get returns a single date record by id.
func (s *DateService) Get(ctx context.Context, dateID string) (AvailableDate, error) {
	if s == nil || s.dates == nil {
		return AvailableDate{}, fmt.Errorf("date repository not configured")
	}
	date, err := s.dates.GetDate(ctx, dateID)
	if err != nil {
		return AvailableDate{}, mapDateRepoError(err, ErrDateUnavailable)
	}
	return date, nil
}

// ListActive enumerates non-deleted dates ordered by calendar day, serving
// repeated reads from the expirable cache between mutations.
func (s *DateService) ListActive(ctx context.Context) ([]AvailableDate, error) {
	if s == nil || s.dates == nil {
		return nil, fmt.Errorf("date repository not configured")
	}
	if dates, ok := s.cache.Get(); ok {
		return dates, nil
	}

	dates, err := s.dates.ListDates(ctx, false)
	if err != nil {
		return nil, err
	}
	s.cache.Store(dates)
	return dates, nil
}

// mapDateRepoError translates persistence sentinels into the engine's
// taxonomy. conflictAs names the domain error a lost conditional update
// means in the calling operation.
func mapDateRepoError(err error, conflictAs error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrConflict) {
		return conflictAs
	}
	return err
}
