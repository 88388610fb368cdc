package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/seminar-coordinator/internal/persistence"
)

// SpeakerRepository implements persistence.SpeakerRepository using SQLite.
type SpeakerRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSpeakerRepository creates a new SQLite speaker repository.
func NewSpeakerRepository(pool *ConnectionPool) *SpeakerRepository {
	return &SpeakerRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const speakerColumns = `id, full_name, email, affiliation, country, expertise, ranking, host,
	status, access_token, invitation_sent_at, response_deadline, assigned_date_id,
	talk_title, talk_abstract, proposed_by_id, proposed_by_name, created_at, updated_at`

// CreateSpeaker inserts a new speaker together with any seed actions.
func (r *SpeakerRepository) CreateSpeaker(ctx context.Context, speaker persistence.Speaker) error {
	if speaker.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO speakers (` + speakerColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err := r.helper.ExecTx(tx, query,
			speaker.ID,
			speaker.FullName,
			speaker.Email,
			speaker.Affiliation,
			speaker.Country,
			speaker.Expertise,
			speaker.Ranking,
			speaker.Host,
			speaker.Status,
			speaker.AccessToken,
			formatTimePtr(speaker.InvitationSentAt),
			formatTimePtr(speaker.ResponseDeadline),
			nullString(speaker.AssignedDateID),
			speaker.TalkTitle,
			speaker.TalkAbstract,
			speaker.ProposedByID,
			speaker.ProposedByName,
			formatTime(speaker.CreatedAt),
			formatTime(speaker.UpdatedAt),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return r.replaceActions(tx, speaker.ID, speaker.Actions)
	})
}

// GetSpeaker fetches a speaker and their full action log by id.
func (r *SpeakerRepository) GetSpeaker(ctx context.Context, id string) (persistence.Speaker, error) {
	return r.getByColumn(ctx, "id", id)
}

// GetSpeakerByToken fetches a speaker by their self-service access token.
func (r *SpeakerRepository) GetSpeakerByToken(ctx context.Context, accessToken string) (persistence.Speaker, error) {
	return r.getByColumn(ctx, "access_token", accessToken)
}

func (r *SpeakerRepository) getByColumn(ctx context.Context, column, value string) (persistence.Speaker, error) {
	query := `SELECT ` + speakerColumns + ` FROM speakers WHERE ` + column + ` = ?`
	row := r.helper.QueryRow(ctx, query, value)
	speaker, err := scanSpeaker(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Speaker{}, persistence.ErrNotFound
		}
		return persistence.Speaker{}, r.mapper.MapError(err)
	}

	actions, err := r.listActions(ctx, speaker.ID)
	if err != nil {
		return persistence.Speaker{}, err
	}
	speaker.Actions = actions
	return speaker, nil
}

// UpdateSpeaker replaces a speaker's stored fields and action log.
func (r *SpeakerRepository) UpdateSpeaker(ctx context.Context, speaker persistence.Speaker) error {
	if speaker.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE speakers
			SET full_name = ?, email = ?, affiliation = ?, country = ?, expertise = ?,
				ranking = ?, host = ?, status = ?, access_token = ?,
				invitation_sent_at = ?, response_deadline = ?, assigned_date_id = ?,
				talk_title = ?, talk_abstract = ?, updated_at = ?
			WHERE id = ?
		`
		result, err := r.helper.ExecTx(tx, query,
			speaker.FullName,
			speaker.Email,
			speaker.Affiliation,
			speaker.Country,
			speaker.Expertise,
			speaker.Ranking,
			speaker.Host,
			speaker.Status,
			speaker.AccessToken,
			formatTimePtr(speaker.InvitationSentAt),
			formatTimePtr(speaker.ResponseDeadline),
			nullString(speaker.AssignedDateID),
			speaker.TalkTitle,
			speaker.TalkAbstract,
			formatTime(speaker.UpdatedAt),
			speaker.ID,
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
		return r.replaceActions(tx, speaker.ID, speaker.Actions)
	})
}

// DeleteSpeaker removes a speaker; the action log cascades.
func (r *SpeakerRepository) DeleteSpeaker(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, "DELETE FROM speakers WHERE id = ?", id)
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

// ListSpeakers returns speakers matching the filter, newest first.
func (r *SpeakerRepository) ListSpeakers(ctx context.Context, filter persistence.SpeakerFilter) ([]persistence.Speaker, error) {
	query := `SELECT ` + speakerColumns + ` FROM speakers`
	conditions := make([]string, 0, 3)
	args := make([]any, 0, 3)

	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.OverdueAsOf != nil {
		conditions = append(conditions, "status = 'invited' AND response_deadline IS NOT NULL AND response_deadline < ?")
		args = append(args, formatTime(*filter.OverdueAsOf))
	}
	if filter.ProposedByID != "" {
		conditions = append(conditions, "proposed_by_id = ?")
		args = append(args, filter.ProposedByID)
	}

	for i, condition := range conditions {
		if i == 0 {
			query += " WHERE " + condition
		} else {
			query += " AND " + condition
		}
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	speakers := make([]persistence.Speaker, 0)
	for rows.Next() {
		speaker, err := scanSpeaker(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		speakers = append(speakers, speaker)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	for i := range speakers {
		actions, err := r.listActions(ctx, speakers[i].ID)
		if err != nil {
			return nil, err
		}
		speakers[i].Actions = actions
	}
	return speakers, nil
}

// AppendAction adds an entry to the end of a speaker's log and returns
// its position.
func (r *SpeakerRepository) AppendAction(ctx context.Context, speakerID string, action persistence.Action) (int, error) {
	var position int
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := r.helper.QueryRowTx(tx, "SELECT COUNT(*) FROM speakers WHERE id = ?", speakerID).Scan(&exists); err != nil {
			return r.mapper.MapError(err)
		}
		if exists == 0 {
			return persistence.ErrNotFound
		}

		if err := r.helper.QueryRowTx(tx,
			"SELECT COALESCE(MAX(position) + 1, 0) FROM speaker_actions WHERE speaker_id = ?", speakerID,
		).Scan(&position); err != nil {
			return r.mapper.MapError(err)
		}

		_, err := r.helper.ExecTx(tx, `
			INSERT INTO speaker_actions (speaker_id, position, kind, label, timestamp, completed, completed_at, actor, outcome)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			speakerID,
			position,
			action.Kind,
			action.Label,
			formatTime(action.Timestamp),
			action.Completed,
			formatTimePtr(action.CompletedAt),
			action.Actor,
			action.Outcome,
		)
		return r.mapper.MapError(err)
	})
	if err != nil {
		return 0, err
	}
	return position, nil
}

// SetActionCompleted toggles completion on the entry at the given
// position. An out-of-range position reports ErrConflict.
func (r *SpeakerRepository) SetActionCompleted(ctx context.Context, speakerID string, index int, completed bool, completedAt *time.Time) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := r.helper.ExecTx(tx, `
			UPDATE speaker_actions SET completed = ?, completed_at = ?
			WHERE speaker_id = ? AND position = ?
		`, completed, formatTimePtr(completedAt), speakerID, index)
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

		var exists int
		if err := r.helper.QueryRowTx(tx, "SELECT COUNT(*) FROM speakers WHERE id = ?", speakerID).Scan(&exists); err != nil {
			return r.mapper.MapError(err)
		}
		if exists == 0 {
			return persistence.ErrNotFound
		}
		return persistence.ErrConflict
	})
}

// replaceActions rewrites the full action log for a speaker.
func (r *SpeakerRepository) replaceActions(tx *sql.Tx, speakerID string, actions []persistence.Action) error {
	if _, err := r.helper.ExecTx(tx, "DELETE FROM speaker_actions WHERE speaker_id = ?", speakerID); err != nil {
		return r.mapper.MapError(err)
	}
	for position, action := range actions {
		_, err := r.helper.ExecTx(tx, `
			INSERT INTO speaker_actions (speaker_id, position, kind, label, timestamp, completed, completed_at, actor, outcome)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			speakerID,
			position,
			action.Kind,
			action.Label,
			formatTime(action.Timestamp),
			action.Completed,
			formatTimePtr(action.CompletedAt),
			action.Actor,
			action.Outcome,
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
	}
	return nil
}

func (r *SpeakerRepository) listActions(ctx context.Context, speakerID string) ([]persistence.Action, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT kind, label, timestamp, completed, completed_at, actor, outcome
		FROM speaker_actions WHERE speaker_id = ? ORDER BY position
	`, speakerID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	actions := make([]persistence.Action, 0)
	for rows.Next() {
		var (
			action      persistence.Action
			timestamp   string
			completedAt sql.NullString
		)
		if err := rows.Scan(&action.Kind, &action.Label, &timestamp, &action.Completed, &completedAt, &action.Actor, &action.Outcome); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if action.Timestamp, err = parseTime(timestamp); err != nil {
			return nil, err
		}
		if action.CompletedAt, err = parseTimePtr(completedAt); err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSpeaker(row rowScanner) (persistence.Speaker, error) {
	var (
		speaker          persistence.Speaker
		invitationSentAt sql.NullString
		responseDeadline sql.NullString
		assignedDateID   sql.NullString
		createdAt        string
		updatedAt        string
	)
	err := row.Scan(
		&speaker.ID,
		&speaker.FullName,
		&speaker.Email,
		&speaker.Affiliation,
		&speaker.Country,
		&speaker.Expertise,
		&speaker.Ranking,
		&speaker.Host,
		&speaker.Status,
		&speaker.AccessToken,
		&invitationSentAt,
		&responseDeadline,
		&assignedDateID,
		&speaker.TalkTitle,
		&speaker.TalkAbstract,
		&speaker.ProposedByID,
		&speaker.ProposedByName,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Speaker{}, err
	}

	if speaker.InvitationSentAt, err = parseTimePtr(invitationSentAt); err != nil {
		return persistence.Speaker{}, err
	}
	if speaker.ResponseDeadline, err = parseTimePtr(responseDeadline); err != nil {
		return persistence.Speaker{}, err
	}
	speaker.AssignedDateID = stringPtr(assignedDateID)
	if speaker.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Speaker{}, err
	}
	if speaker.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Speaker{}, err
	}
	return speaker, nil
}
