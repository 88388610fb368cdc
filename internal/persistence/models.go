package persistence

import (
	"time"

	"github.com/example/seminar-coordinator/internal/visit"
)

// Speaker is the stored shape of an invited presenter and their audit trail.
type Speaker struct {
	ID               string
	FullName         string
	Email            string
	Affiliation      string
	Country          string
	Expertise        string
	Ranking          string
	Host             string
	Status           string
	AccessToken      string
	InvitationSentAt *time.Time
	ResponseDeadline *time.Time
	AssignedDateID   *string
	TalkTitle        string
	TalkAbstract     string
	Actions          []Action
	ProposedByID     string
	ProposedByName   string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Action is one append-only audit entry on a speaker. Position within the
// speaker's sequence is its identity; entries are never reordered.
type Action struct {
	Kind        string
	Label       string
	Timestamp   time.Time
	Completed   bool
	CompletedAt *time.Time
	Actor       string
	Outcome     string
}

// AvailableDate is a published seminar slot. LockState is the tri-state
// ownership marker: "unset", "speaker" or "deleted".
type AvailableDate struct {
	ID           string
	CalendarDate time.Time
	Host         string
	Notes        string
	Available    bool
	LockState    string
	LockedBy     string
	TalkTitle    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Agenda is the stored three-day visit schedule of an accepted speaker.
type Agenda struct {
	ID          string
	SpeakerID   string
	Host        string
	SeminarDate time.Time
	StartDate   time.Time
	EndDate     time.Time
	Meetings    []Meeting
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Meeting is one agenda entry. Position within the agenda is preserved.
type Meeting struct {
	Title     string
	Kind      string
	Date      time.Time
	Start     visit.TimeOfDay
	End       visit.TimeOfDay
	Location  string
	Notes     string
	Attendees []string
	Locked    bool
}

// User is an organizer or senior fellow account.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	Role         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is an issued authentication session.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// SignupInvite is a pending account-creation link.
type SignupInvite struct {
	Token     string
	Email     string
	Role      string
	CreatedBy string
	ExpiresAt time.Time
	ClaimedAt *time.Time
	ClaimedBy string
	CreatedAt time.Time
}
