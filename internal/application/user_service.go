package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/example/seminar-coordinator/internal/persistence"
)

// DefaultInviteTTL bounds how long a signup link stays claimable.
const DefaultInviteTTL = 72 * time.Hour

// UserStore captures the persistence operations needed by the user service.
type UserStore interface {
	CreateUser(ctx context.Context, user User, passwordHash string) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// SignupInviteStore captures the persistence operations for signup links.
type SignupInviteStore interface {
	CreateInvite(ctx context.Context, invite SignupInvite) (SignupInvite, error)
	GetInvite(ctx context.Context, token string) (SignupInvite, error)
	MarkInviteClaimed(ctx context.Context, token string, claimedBy string, claimedAt time.Time) error
}

// UserService manages accounts: signup invitations, claims, and listing.
type UserService struct {
	users       UserStore
	invites     SignupInviteStore
	idGenerator func() string
	tokenIssuer func() string
	now         func() time.Time
	inviteTTL   time.Duration
	logger      *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserStore, invites SignupInviteStore, idGenerator, tokenIssuer func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if tokenIssuer == nil {
		tokenIssuer = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		users:       users,
		invites:     invites,
		idGenerator: idGenerator,
		tokenIssuer: tokenIssuer,
		now:         now,
		inviteTTL:   DefaultInviteTTL,
		logger:      defaultLogger(logger),
	}
}

// InviteUser issues a single-use signup link binding an email to a role.
func (s *UserService) InviteUser(ctx context.Context, principal Principal, email string, role Role) (SignupInvite, error) {
	if s == nil {
		return SignupInvite{}, fmt.Errorf("UserService is nil")
	}
	if !principal.IsOrganizer() {
		return SignupInvite{}, ErrUnauthorized
	}
	if s.invites == nil {
		return SignupInvite{}, fmt.Errorf("invite store not configured")
	}

	email = strings.TrimSpace(strings.ToLower(email))
	vErr := &ValidationError{}
	if email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		vErr.add("email", "email is not a valid address")
	}
	switch role {
	case RoleOrganizer, RoleSeniorFellow:
	default:
		vErr.add("role", "role must be organizer or senior_fellow")
	}
	if vErr.HasErrors() {
		return SignupInvite{}, vErr
	}

	now := s.now()
	invite := SignupInvite{
		Token:     s.tokenIssuer(),
		Email:     email,
		Role:      role,
		CreatedBy: principal.UserID,
		ExpiresAt: now.Add(s.inviteTTL),
		CreatedAt: now,
	}

	persisted, err := s.invites.CreateInvite(ctx, invite)
	if err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return SignupInvite{}, ErrAlreadyExists
		}
		return SignupInvite{}, err
	}

	serviceLogger(ctx, s.logger, "UserService", "InviteUser",
		"email", email, "role", string(role)).InfoContext(ctx, "signup invite issued")
	return persisted, nil
}

// ClaimInvite consumes a signup link and creates the account it promises.
// An unknown, expired, or already-claimed token reads as not found.
func (s *UserService) ClaimInvite(ctx context.Context, token, displayName, password string) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if s.users == nil || s.invites == nil {
		return User{}, fmt.Errorf("user stores not configured")
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return User{}, ErrNotFound
	}

	vErr := &ValidationError{}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		vErr.add("display_name", "display name is required")
	}
	if len(password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}
	if vErr.HasErrors() {
		return User{}, vErr
	}

	invite, err := s.invites.GetInvite(ctx, token)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}

	now := s.now()
	if invite.ClaimedAt != nil || !invite.ExpiresAt.After(now) {
		return User{}, ErrNotFound
	}

	hash, err := CreatePasswordHash(password, DefaultArgon2idParams)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:          s.idGenerator(),
		Email:       invite.Email,
		DisplayName: displayName,
		Role:        invite.Role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	persisted, err := s.users.CreateUser(ctx, user, hash)
	if err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return User{}, ErrAlreadyExists
		}
		return User{}, err
	}

	if err := s.invites.MarkInviteClaimed(ctx, token, persisted.ID, now); err != nil {
		serviceLogger(ctx, s.logger, "UserService", "ClaimInvite",
			"user_id", persisted.ID).
			ErrorContext(ctx, "failed to mark invite claimed", "error", err, "error_kind", ErrorKind(err))
		return User{}, &ReconcileError{Step: "claim/mark", Detail: "account created but invite still open", Err: err}
	}

	serviceLogger(ctx, s.logger, "UserService", "ClaimInvite",
		"user_id", persisted.ID, "role", string(persisted.Role)).
		InfoContext(ctx, "signup invite claimed")
	return persisted, nil
}

// ListUsers returns all accounts sorted by display name.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if !principal.IsOrganizer() {
		return nil, ErrUnauthorized
	}
	if s.users == nil {
		return nil, fmt.Errorf("user store not configured")
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].DisplayName < users[j].DisplayName
	})
	return users, nil
}
