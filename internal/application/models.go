package application

import (
	"time"

	"github.com/example/seminar-coordinator/internal/visit"
)

// Role identifies what an authenticated caller may do.
type Role string

const (
	// RoleOrganizer administers the seminar series.
	RoleOrganizer Role = "organizer"
	// RoleSeniorFellow may propose speakers but not manage them.
	RoleSeniorFellow Role = "senior_fellow"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID      string
	DisplayName string
	Role        Role
}

// IsOrganizer reports whether the principal holds the organizer role.
func (p Principal) IsOrganizer() bool {
	return p.Role == RoleOrganizer
}

// SpeakerStatus is the lifecycle state of a speaker.
type SpeakerStatus string

const (
	// StatusProposed is the initial state of a newly suggested speaker.
	StatusProposed SpeakerStatus = "proposed"
	// StatusInvited means an invitation has been sent and awaits a response.
	StatusInvited SpeakerStatus = "invited"
	// StatusAccepted is terminal: the speaker holds exactly one date lock.
	StatusAccepted SpeakerStatus = "accepted"
	// StatusDeclined is terminal with no date or agenda side effects.
	StatusDeclined SpeakerStatus = "declined"
)

// Ranking is the organizer-assigned priority of a proposed speaker.
type Ranking string

const (
	RankingHigh   Ranking = "high"
	RankingMedium Ranking = "medium"
	RankingLow    Ranking = "low"
)

// ActionKind classifies an audit trail entry.
type ActionKind string

const (
	ActionInvitationDrafted  ActionKind = "invitation_drafted"
	ActionSpeakerResponded   ActionKind = "speaker_responded"
	ActionTravelArrangements ActionKind = "travel_arrangements"
	ActionCustom             ActionKind = "custom"
)

// ResponseOutcome tags a speaker_responded action.
type ResponseOutcome string

const (
	OutcomeAccepted ResponseOutcome = "accepted"
	OutcomeDeclined ResponseOutcome = "declined"
)

// Action is one entry in a speaker's append-only audit trail. Entries are
// identified by position; only Completed/CompletedAt may change in place.
type Action struct {
	Kind        ActionKind
	Label       string
	Timestamp   time.Time
	Completed   bool
	CompletedAt *time.Time
	Actor       string
	Outcome     ResponseOutcome
}

// Speaker is a candidate or confirmed presenter.
type Speaker struct {
	ID               string
	FullName         string
	Email            string
	Affiliation      string
	Country          string
	Expertise        string
	Ranking          Ranking
	Host             string
	Status           SpeakerStatus
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

// LockState is the tri-state ownership marker on an available date.
type LockState string

const (
	// LockUnset means the date is free and available for locking.
	LockUnset LockState = "unset"
	// LockSpeaker means the date is exclusively assigned to one speaker.
	LockSpeaker LockState = "speaker"
	// LockDeleted is the terminal soft-delete sentinel; the record is
	// excluded from every active view and can never be locked again.
	LockDeleted LockState = "deleted"
)

// AvailableDate is a slot an organizer has published for seminars.
type AvailableDate struct {
	ID           string
	CalendarDate time.Time
	Host         string
	Notes        string
	Available    bool
	LockState    LockState
	LockedBy     string
	TalkTitle    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MeetingKind classifies an agenda entry.
type MeetingKind string

const (
	MeetingSeminar  MeetingKind = "seminar"
	MeetingOneToOne MeetingKind = "1-to-1"
	MeetingGroup    MeetingKind = "group"
	MeetingSocial   MeetingKind = "social"
)

// Meeting is one calendar entry inside an agenda. Locked meetings are
// immutable and non-removable for the agenda's lifetime.
type Meeting struct {
	Title     string
	Kind      MeetingKind
	Date      time.Time
	Start     visit.TimeOfDay
	End       visit.TimeOfDay
	Location  string
	Notes     string
	Attendees []string
	Locked    bool
}

// Agenda is the three-day visit schedule of one accepted speaker.
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

// User is an organizer or senior fellow account.
type User struct {
	ID          string
	Email       string
	DisplayName string
	Role        Role
	CreatedAt   time.Time
	UpdatedAt   time.Time
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

// SignupInvite is a pending account-creation link issued by an organizer.
type SignupInvite struct {
	Token     string
	Email     string
	Role      Role
	CreatedBy string
	ExpiresAt time.Time
	ClaimedAt *time.Time
	ClaimedBy string
	CreatedAt time.Time
}

// SpeakerInput captures caller provided speaker fields.
type SpeakerInput struct {
	FullName    string
	Email       string
	Affiliation string
	Country     string
	Expertise   string
	Ranking     Ranking
	Host        string
}

// ProposeSpeakerParams wraps the data required to propose a speaker.
type ProposeSpeakerParams struct {
	Principal Principal
	Input     SpeakerInput
}

// RespondParams carries a speaker's answer to an invitation. The caller is
// authenticated by bearer token, not by principal.
type RespondParams struct {
	SpeakerID    string
	DateID       string
	TalkTitle    string
	TalkAbstract string
	Outcome      ResponseOutcome
}

// EditConfirmedParams wraps the edits permitted on an accepted speaker.
type EditConfirmedParams struct {
	Principal    Principal
	SpeakerID    string
	TalkTitle    string
	TalkAbstract string
	Host         string
	NewDateID    *string
}

// PublishDateParams wraps the data required to publish an available date.
type PublishDateParams struct {
	Principal    Principal
	CalendarDate time.Time
	Host         string
	Notes        string
}

// MeetingInput captures caller provided meeting fields.
type MeetingInput struct {
	Title     string
	Kind      MeetingKind
	Date      time.Time
	Start     visit.TimeOfDay
	End       visit.TimeOfDay
	Location  string
	Notes     string
	Attendees []string
}

// AddMeetingParams wraps the data required to add an agenda meeting.
type AddMeetingParams struct {
	Principal Principal
	SpeakerID string
	Input     MeetingInput
}

// AppendActionParams wraps the data required to append a custom audit entry.
type AppendActionParams struct {
	Principal Principal
	SpeakerID string
	Kind      ActionKind
	Label     string
	Outcome   ResponseOutcome
}
