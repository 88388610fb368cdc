package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/seminar-coordinator/internal/persistence"
)

// SignupInviteRepository implements persistence.SignupInviteRepository
// using SQLite.
type SignupInviteRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSignupInviteRepository creates a new SQLite signup invite repository.
func NewSignupInviteRepository(pool *ConnectionPool) *SignupInviteRepository {
	return &SignupInviteRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateSignupInvite inserts a pending signup link.
func (r *SignupInviteRepository) CreateSignupInvite(ctx context.Context, invite persistence.SignupInvite) error {
	if invite.Token == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.helper.Exec(ctx, `
		INSERT INTO signup_invites (token, email, role, created_by, expires_at, claimed_at, claimed_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		invite.Token,
		invite.Email,
		invite.Role,
		invite.CreatedBy,
		formatTime(invite.ExpiresAt),
		formatTimePtr(invite.ClaimedAt),
		invite.ClaimedBy,
		formatTime(invite.CreatedAt),
	)
	return r.mapper.MapError(err)
}

// GetSignupInvite fetches a signup link by token.
func (r *SignupInviteRepository) GetSignupInvite(ctx context.Context, token string) (persistence.SignupInvite, error) {
	var (
		invite    persistence.SignupInvite
		expiresAt string
		claimedAt sql.NullString
		createdAt string
	)
	err := r.helper.QueryRow(ctx, `
		SELECT token, email, role, created_by, expires_at, claimed_at, claimed_by, created_at
		FROM signup_invites WHERE token = ?
	`, token).Scan(&invite.Token, &invite.Email, &invite.Role, &invite.CreatedBy, &expiresAt, &claimedAt, &invite.ClaimedBy, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.SignupInvite{}, persistence.ErrNotFound
		}
		return persistence.SignupInvite{}, r.mapper.MapError(err)
	}

	if invite.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return persistence.SignupInvite{}, err
	}
	if invite.ClaimedAt, err = parseTimePtr(claimedAt); err != nil {
		return persistence.SignupInvite{}, err
	}
	if invite.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.SignupInvite{}, err
	}
	return invite, nil
}

// ClaimSignupInvite marks a link as used. Claiming an already claimed
// link reports ErrConflict, keeping links single use under races.
func (r *SignupInviteRepository) ClaimSignupInvite(ctx context.Context, token, userID string, claimedAt time.Time) error {
	result, err := r.helper.Exec(ctx, `
		UPDATE signup_invites SET claimed_at = ?, claimed_by = ?
		WHERE token = ? AND claimed_at IS NULL
	`, formatTime(claimedAt), userID, token)
	if err != nil {
		return r.mapper.MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	var count int
	if err := r.helper.QueryRow(ctx, "SELECT COUNT(*) FROM signup_invites WHERE token = ?", token).Scan(&count); err != nil {
		return r.mapper.MapError(err)
	}
	if count == 0 {
		return persistence.ErrNotFound
	}
	return persistence.ErrConflict
}
