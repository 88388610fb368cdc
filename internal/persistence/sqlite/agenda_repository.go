package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/seminar-coordinator/internal/persistence"
	"github.com/example/seminar-coordinator/internal/visit"
)

// AgendaRepository implements persistence.AgendaRepository using SQLite.
// Meetings live in a child table ordered by position.
type AgendaRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAgendaRepository creates a new SQLite agenda repository.
func NewAgendaRepository(pool *ConnectionPool) *AgendaRepository {
	return &AgendaRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateAgenda inserts an agenda with its meetings. A second agenda for
// the same speaker reports ErrDuplicate.
func (r *AgendaRepository) CreateAgenda(ctx context.Context, agenda persistence.Agenda) error {
	if agenda.ID == "" || agenda.SpeakerID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := r.helper.ExecTx(tx, `
			INSERT INTO agendas (id, speaker_id, host, seminar_date, start_date, end_date, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			agenda.ID,
			agenda.SpeakerID,
			agenda.Host,
			formatTime(agenda.SeminarDate),
			formatTime(agenda.StartDate),
			formatTime(agenda.EndDate),
			formatTime(agenda.CreatedAt),
			formatTime(agenda.UpdatedAt),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return r.insertMeetings(tx, agenda.ID, agenda.Meetings)
	})
}

// GetAgendaBySpeaker fetches the agenda owned by a speaker.
func (r *AgendaRepository) GetAgendaBySpeaker(ctx context.Context, speakerID string) (persistence.Agenda, error) {
	row := r.helper.QueryRow(ctx, `
		SELECT id, speaker_id, host, seminar_date, start_date, end_date, created_at, updated_at
		FROM agendas WHERE speaker_id = ?
	`, speakerID)

	agenda, err := scanAgenda(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Agenda{}, persistence.ErrNotFound
		}
		return persistence.Agenda{}, r.mapper.MapError(err)
	}

	meetings, err := r.listMeetings(ctx, agenda.ID)
	if err != nil {
		return persistence.Agenda{}, err
	}
	agenda.Meetings = meetings
	return agenda, nil
}

// UpdateAgenda replaces the agenda's fields and meeting list.
func (r *AgendaRepository) UpdateAgenda(ctx context.Context, agenda persistence.Agenda) error {
	if agenda.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := r.helper.ExecTx(tx, `
			UPDATE agendas
			SET host = ?, seminar_date = ?, start_date = ?, end_date = ?, updated_at = ?
			WHERE id = ?
		`,
			agenda.Host,
			formatTime(agenda.SeminarDate),
			formatTime(agenda.StartDate),
			formatTime(agenda.EndDate),
			formatTime(agenda.UpdatedAt),
			agenda.ID,
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}

		if _, err := r.helper.ExecTx(tx, "DELETE FROM agenda_meetings WHERE agenda_id = ?", agenda.ID); err != nil {
			return r.mapper.MapError(err)
		}
		return r.insertMeetings(tx, agenda.ID, agenda.Meetings)
	})
}

// DeleteAgendaBySpeaker removes a speaker's agenda; meetings cascade.
func (r *AgendaRepository) DeleteAgendaBySpeaker(ctx context.Context, speakerID string) error {
	result, err := r.helper.Exec(ctx, "DELETE FROM agendas WHERE speaker_id = ?", speakerID)
	if err != nil {
		return r.mapper.MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *AgendaRepository) insertMeetings(tx *sql.Tx, agendaID string, meetings []persistence.Meeting) error {
	for position, meeting := range meetings {
		attendees, err := json.Marshal(meeting.Attendees)
		if err != nil {
			return fmt.Errorf("failed to encode attendees: %w", err)
		}
		_, err = r.helper.ExecTx(tx, `
			INSERT INTO agenda_meetings (agenda_id, position, title, kind, date, start_time, end_time, location, notes, attendees, locked)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			agendaID,
			position,
			meeting.Title,
			meeting.Kind,
			formatTime(meeting.Date),
			meeting.Start.String(),
			meeting.End.String(),
			meeting.Location,
			meeting.Notes,
			string(attendees),
			meeting.Locked,
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
	}
	return nil
}

func (r *AgendaRepository) listMeetings(ctx context.Context, agendaID string) ([]persistence.Meeting, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT title, kind, date, start_time, end_time, location, notes, attendees, locked
		FROM agenda_meetings WHERE agenda_id = ? ORDER BY position
	`, agendaID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	meetings := make([]persistence.Meeting, 0)
	for rows.Next() {
		var (
			meeting   persistence.Meeting
			date      string
			start     string
			end       string
			attendees string
		)
		if err := rows.Scan(&meeting.Title, &meeting.Kind, &date, &start, &end, &meeting.Location, &meeting.Notes, &attendees, &meeting.Locked); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if meeting.Date, err = parseTime(date); err != nil {
			return nil, err
		}
		if meeting.Start, err = visit.ParseTimeOfDay(start); err != nil {
			return nil, fmt.Errorf("invalid stored start time %q: %w", start, err)
		}
		if meeting.End, err = visit.ParseTimeOfDay(end); err != nil {
			return nil, fmt.Errorf("invalid stored end time %q: %w", end, err)
		}
		if err := json.Unmarshal([]byte(attendees), &meeting.Attendees); err != nil {
			return nil, fmt.Errorf("failed to decode attendees: %w", err)
		}
		meetings = append(meetings, meeting)
	}
	return meetings, rows.Err()
}

func scanAgenda(row rowScanner) (persistence.Agenda, error) {
	var (
		agenda      persistence.Agenda
		seminarDate string
		startDate   string
		endDate     string
		createdAt   string
		updatedAt   string
	)
	err := row.Scan(
		&agenda.ID,
		&agenda.SpeakerID,
		&agenda.Host,
		&seminarDate,
		&startDate,
		&endDate,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Agenda{}, err
	}

	if agenda.SeminarDate, err = parseTime(seminarDate); err != nil {
		return persistence.Agenda{}, err
	}
	if agenda.StartDate, err = parseTime(startDate); err != nil {
		return persistence.Agenda{}, err
	}
	if agenda.EndDate, err = parseTime(endDate); err != nil {
		return persistence.Agenda{}, err
	}
	if agenda.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Agenda{}, err
	}
	if agenda.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Agenda{}, err
	}
	return agenda, nil
}
