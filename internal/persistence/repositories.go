package persistence

import (
	"context"
	"time"
)

// SpeakerFilter narrows speaker queries.
type SpeakerFilter struct {
	Status       string
	OverdueAsOf  *time.Time
	ProposedByID string
}

// SpeakerRepository stores speakers together with their action log.
type SpeakerRepository interface {
	CreateSpeaker(ctx context.Context, speaker Speaker) error
	GetSpeaker(ctx context.Context, id string) (Speaker, error)
	GetSpeakerByToken(ctx context.Context, accessToken string) (Speaker, error)
	UpdateSpeaker(ctx context.Context, speaker Speaker) error
	DeleteSpeaker(ctx context.Context, id string) error
	ListSpeakers(ctx context.Context, filter SpeakerFilter) ([]Speaker, error)
	AppendAction(ctx context.Context, speakerID string, action Action) (int, error)
	SetActionCompleted(ctx context.Context, speakerID string, index int, completed bool, completedAt *time.Time) error
}

// DateRepository stores the pool of proposable dates. LockDate and
// SoftDeleteDate are conditional updates: they must succeed for at most
// one caller when racing on the same record, returning ErrConflict to the
// losers.
type DateRepository interface {
	CreateDate(ctx context.Context, date AvailableDate) error
	GetDate(ctx context.Context, id string) (AvailableDate, error)
	ListDates(ctx context.Context, includeDeleted bool) ([]AvailableDate, error)
	LockDate(ctx context.Context, id, speakerID, talkTitle string) error
	UnlockDate(ctx context.Context, id string) error
	SoftDeleteDate(ctx context.Context, id string) error
	UpdateTalkTitle(ctx context.Context, id, talkTitle string) error
}

// AgendaRepository stores visit agendas keyed by their owning speaker.
type AgendaRepository interface {
	CreateAgenda(ctx context.Context, agenda Agenda) error
	GetAgendaBySpeaker(ctx context.Context, speakerID string) (Agenda, error)
	UpdateAgenda(ctx context.Context, agenda Agenda) error
	DeleteAgendaBySpeaker(ctx context.Context, speakerID string) error
}

// UserRepository stores organizer and senior fellow accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, user User) error
	DeleteUser(ctx context.Context, id string) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) error
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// SignupInviteRepository stores pending account-creation links.
type SignupInviteRepository interface {
	CreateSignupInvite(ctx context.Context, invite SignupInvite) error
	GetSignupInvite(ctx context.Context, token string) (SignupInvite, error)
	ClaimSignupInvite(ctx context.Context, token, userID string, claimedAt time.Time) error
}
