package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/seminar-coordinator/internal/persistence"
)

// DateRepository implements persistence.DateRepository using SQLite. Lock
// transitions are single conditional UPDATE statements, so at most one of
// any set of racing callers observes a nonzero row count.
type DateRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewDateRepository creates a new SQLite date repository.
func NewDateRepository(pool *ConnectionPool) *DateRepository {
	return &DateRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const dateColumns = `id, calendar_date, host, notes, available, lock_state, locked_by, talk_title, created_at, updated_at`

// CreateDate inserts a published date. The partial unique index on
// calendar_date rejects a second active record for the same day.
func (r *DateRepository) CreateDate(ctx context.Context, date persistence.AvailableDate) error {
	if date.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.helper.Exec(ctx, `
		INSERT INTO available_dates (`+dateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		date.ID,
		formatTime(date.CalendarDate),
		date.Host,
		date.Notes,
		date.Available,
		date.LockState,
		date.LockedBy,
		date.TalkTitle,
		formatTime(date.CreatedAt),
		formatTime(date.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// GetDate fetches a date by id, soft-deleted records included.
func (r *DateRepository) GetDate(ctx context.Context, id string) (persistence.AvailableDate, error) {
	row := r.helper.QueryRow(ctx, `SELECT `+dateColumns+` FROM available_dates WHERE id = ?`, id)
	date, err := scanDate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.AvailableDate{}, persistence.ErrNotFound
		}
		return persistence.AvailableDate{}, r.mapper.MapError(err)
	}
	return date, nil
}

// ListDates returns dates ordered by calendar day, excluding soft-deleted
// records unless asked for.
func (r *DateRepository) ListDates(ctx context.Context, includeDeleted bool) ([]persistence.AvailableDate, error) {
	query := `SELECT ` + dateColumns + ` FROM available_dates`
	if !includeDeleted {
		query += ` WHERE lock_state != 'deleted'`
	}
	query += ` ORDER BY calendar_date, id`

	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	dates := make([]persistence.AvailableDate, 0)
	for rows.Next() {
		date, err := scanDate(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		dates = append(dates, date)
	}
	return dates, rows.Err()
}

// LockDate atomically assigns a free date to a speaker. Racing callers
// lose with ErrConflict; unknown ids report ErrNotFound.
func (r *DateRepository) LockDate(ctx context.Context, id, speakerID, talkTitle string) error {
	result, err := r.helper.Exec(ctx, `
		UPDATE available_dates
		SET lock_state = 'speaker', locked_by = ?, talk_title = ?, available = 0, updated_at = ?
		WHERE id = ? AND available = 1 AND lock_state = 'unset'
	`, speakerID, talkTitle, formatTime(time.Now()), id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return r.resolveConditional(ctx, result, id)
}

// UnlockDate releases a speaker's hold, clearing the talk title. Already
// free dates are left as they are.
func (r *DateRepository) UnlockDate(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, `
		UPDATE available_dates
		SET lock_state = 'unset', locked_by = '', talk_title = '', available = 1, updated_at = ?
		WHERE id = ? AND lock_state = 'speaker'
	`, formatTime(time.Now()), id)
	if err != nil {
		return r.mapper.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected > 0 {
		return nil
	}

	state, err := r.lockState(ctx, id)
	if err != nil {
		return err
	}
	if state == "unset" {
		return nil
	}
	return persistence.ErrConflict
}

// SoftDeleteDate retires a free date. Locked dates report ErrConflict;
// deleting an already deleted date is a no-op.
func (r *DateRepository) SoftDeleteDate(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, `
		UPDATE available_dates
		SET lock_state = 'deleted', available = 0, updated_at = ?
		WHERE id = ? AND lock_state = 'unset'
	`, formatTime(time.Now()), id)
	if err != nil {
		return r.mapper.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected > 0 {
		return nil
	}

	state, err := r.lockState(ctx, id)
	if err != nil {
		return err
	}
	if state == "deleted" {
		return nil
	}
	return persistence.ErrConflict
}

// UpdateTalkTitle refreshes the display title on a locked date.
func (r *DateRepository) UpdateTalkTitle(ctx context.Context, id, talkTitle string) error {
	result, err := r.helper.Exec(ctx, `
		UPDATE available_dates SET talk_title = ?, updated_at = ?
		WHERE id = ? AND lock_state = 'speaker'
	`, talkTitle, formatTime(time.Now()), id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return r.resolveConditional(ctx, result, id)
}

// resolveConditional turns a zero row count into the right sentinel by
// checking whether the record exists at all.
func (r *DateRepository) resolveConditional(ctx context.Context, result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected > 0 {
		return nil
	}
	if _, err := r.lockState(ctx, id); err != nil {
		return err
	}
	return persistence.ErrConflict
}

func (r *DateRepository) lockState(ctx context.Context, id string) (string, error) {
	var state string
	err := r.helper.QueryRow(ctx, "SELECT lock_state FROM available_dates WHERE id = ?", id).Scan(&state)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", persistence.ErrNotFound
		}
		return "", r.mapper.MapError(err)
	}
	return state, nil
}

func scanDate(row rowScanner) (persistence.AvailableDate, error) {
	var (
		date         persistence.AvailableDate
		calendarDate string
		createdAt    string
		updatedAt    string
	)
	err := row.Scan(
		&date.ID,
		&calendarDate,
		&date.Host,
		&date.Notes,
		&date.Available,
		&date.LockState,
		&date.LockedBy,
		&date.TalkTitle,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.AvailableDate{}, err
	}

	if date.CalendarDate, err = parseTime(calendarDate); err != nil {
		return persistence.AvailableDate{}, err
	}
	if date.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.AvailableDate{}, err
	}
	if date.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.AvailableDate{}, err
	}
	return date, nil
}
