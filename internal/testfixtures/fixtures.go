package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/seminar-coordinator/internal/application"
	"github.com/example/seminar-coordinator/internal/persistence"
	"github.com/example/seminar-coordinator/internal/visit"
)

var (
	speakerCounter uint64
	dateCounter    uint64
	agendaCounter  uint64
	userCounter    uint64
	sessionCounter uint64
	inviteCounter  uint64
)

// referenceTime is a Monday morning; date fixtures land on Mondays after it.
var referenceTime = time.Date(2025, time.February, 3, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// --------------------------- Speaker fixtures ----------------------------

// SpeakerFixture is a deterministic speaker record that can be materialised
// for application or persistence tests.
type SpeakerFixture struct {
	ID               string
	FullName         string
	Email            string
	Affiliation      string
	Country          string
	Expertise        string
	Ranking          application.Ranking
	Host             string
	Status           application.SpeakerStatus
	AccessToken      string
	InvitationSentAt *time.Time
	ResponseDeadline *time.Time
	AssignedDateID   *string
	TalkTitle        string
	TalkAbstract     string
	Actions          []application.Action
	ProposedByID     string
	ProposedByName   string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SpeakerOption configures the generated speaker fixture.
type SpeakerOption func(*SpeakerFixture)

// NewSpeakerFixture returns a deterministic proposed speaker with optional
// overrides.
func NewSpeakerFixture(opts ...SpeakerOption) SpeakerFixture {
	idx := atomic.AddUint64(&speakerCounter, 1)
	id := fmt.Sprintf("speaker-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := SpeakerFixture{
		ID:             id,
		FullName:       fmt.Sprintf("Speaker %03d", idx),
		Email:          fmt.Sprintf("%s@example.edu", id),
		Affiliation:    "Example University",
		Country:        "NL",
		Expertise:      "distributed systems",
		Ranking:        application.RankingMedium,
		Host:           "Prof. Host",
		Status:         application.StatusProposed,
		AccessToken:    fmt.Sprintf("token-%03d", idx),
		ProposedByID:   "user-001",
		ProposedByName: "Organizer One",
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSpeakerID overrides the generated speaker ID.
func WithSpeakerID(id string) SpeakerOption {
	return func(f *SpeakerFixture) {
		f.ID = id
	}
}

// WithSpeakerStatus overrides the lifecycle status.
func WithSpeakerStatus(status application.SpeakerStatus) SpeakerOption {
	return func(f *SpeakerFixture) {
		f.Status = status
	}
}

// WithSpeakerEmail overrides the generated email address.
func WithSpeakerEmail(email string) SpeakerOption {
	return func(f *SpeakerFixture) {
		f.Email = email
	}
}

// WithSpeakerRanking overrides the organizer-assigned ranking.
func WithSpeakerRanking(ranking application.Ranking) SpeakerOption {
	return func(f *SpeakerFixture) {
		f.Ranking = ranking
	}
}

// WithSpeakerHost overrides the hosting fellow.
func WithSpeakerHost(host string) SpeakerOption {
	return func(f *SpeakerFixture) {
		f.Host = host
	}
}

// WithAccessToken overrides the self-service token.
func WithAccessToken(token string) SpeakerOption {
	return func(f *SpeakerFixture) {
		f.AccessToken = token
	}
}

// WithInvitation marks the fixture as invited at sentAt with the given
// response deadline.
func WithInvitation(sentAt, deadline time.Time) SpeakerOption {
	return func(f *SpeakerFixture) {
		f.Status = application.StatusInvited
		f.InvitationSentAt = &sentAt
		f.ResponseDeadline = &deadline
	}
}

// WithAcceptedDate marks the fixture as accepted and holding dateID.
func WithAcceptedDate(dateID, talkTitle string) SpeakerOption {
	return func(f *SpeakerFixture) {
		f.Status = application.StatusAccepted
		f.AssignedDateID = &dateID
		f.TalkTitle = talkTitle
	}
}

// WithSpeakerActions replaces the audit trail on the fixture.
func WithSpeakerActions(actions ...application.Action) SpeakerOption {
	return func(f *SpeakerFixture) {
		f.Actions = actions
	}
}

// WithSpeakerTimestamps sets both created and updated timestamps.
func WithSpeakerTimestamps(created, updated time.Time) SpeakerOption {
	return func(f *SpeakerFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application returns the fixture as an application.Speaker value.
func (f SpeakerFixture) Application() application.Speaker {
	return application.Speaker{
		ID:               f.ID,
		FullName:         f.FullName,
		Email:            f.Email,
		Affiliation:      f.Affiliation,
		Country:          f.Country,
		Expertise:        f.Expertise,
		Ranking:          f.Ranking,
		Host:             f.Host,
		Status:           f.Status,
		AccessToken:      f.AccessToken,
		InvitationSentAt: f.InvitationSentAt,
		ResponseDeadline: f.ResponseDeadline,
		AssignedDateID:   f.AssignedDateID,
		TalkTitle:        f.TalkTitle,
		TalkAbstract:     f.TalkAbstract,
		Actions:          append([]application.Action(nil), f.Actions...),
		ProposedByID:     f.ProposedByID,
		ProposedByName:   f.ProposedByName,
		CreatedAt:        f.CreatedAt,
		UpdatedAt:        f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Speaker value.
func (f SpeakerFixture) Persistence() persistence.Speaker {
	actions := make([]persistence.Action, 0, len(f.Actions))
	for _, a := range f.Actions {
		actions = append(actions, persistence.Action{
			Kind:        string(a.Kind),
			Label:       a.Label,
			Timestamp:   a.Timestamp,
			Completed:   a.Completed,
			CompletedAt: a.CompletedAt,
			Actor:       a.Actor,
			Outcome:     string(a.Outcome),
		})
	}
	return persistence.Speaker{
		ID:               f.ID,
		FullName:         f.FullName,
		Email:            f.Email,
		Affiliation:      f.Affiliation,
		Country:          f.Country,
		Expertise:        f.Expertise,
		Ranking:          string(f.Ranking),
		Host:             f.Host,
		Status:           string(f.Status),
		AccessToken:      f.AccessToken,
		InvitationSentAt: f.InvitationSentAt,
		ResponseDeadline: f.ResponseDeadline,
		AssignedDateID:   f.AssignedDateID,
		TalkTitle:        f.TalkTitle,
		TalkAbstract:     f.TalkAbstract,
		Actions:          actions,
		ProposedByID:     f.ProposedByID,
		ProposedByName:   f.ProposedByName,
		CreatedAt:        f.CreatedAt,
		UpdatedAt:        f.UpdatedAt,
	}
}

// Input returns the fixture as an application.SpeakerInput.
func (f SpeakerFixture) Input() application.SpeakerInput {
	return application.SpeakerInput{
		FullName:    f.FullName,
		Email:       f.Email,
		Affiliation: f.Affiliation,
		Country:     f.Country,
		Expertise:   f.Expertise,
		Ranking:     f.Ranking,
		Host:        f.Host,
	}
}

// ----------------------------- Date fixtures -----------------------------

// DateFixture is a deterministic published seminar slot.
type DateFixture struct {
	ID           string
	CalendarDate time.Time
	Host         string
	Notes        string
	Available    bool
	LockState    application.LockState
	LockedBy     string
	TalkTitle    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DateOption configures the generated date fixture.
type DateOption func(*DateFixture)

// NewDateFixture returns a deterministic open date. Each fixture lands on a
// distinct Monday after the reference time.
func NewDateFixture(opts ...DateOption) DateFixture {
	idx := atomic.AddUint64(&dateCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := DateFixture{
		ID:           fmt.Sprintf("date-%03d", idx),
		CalendarDate: visit.Day(referenceTime).AddDate(0, 0, int(idx)*7),
		Host:         "Prof. Host",
		Notes:        "Main lecture hall",
		Available:    true,
		LockState:    application.LockUnset,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithDateID overrides the generated date ID.
func WithDateID(id string) DateOption {
	return func(f *DateFixture) {
		f.ID = id
	}
}

// WithCalendarDate overrides the seminar day.
func WithCalendarDate(day time.Time) DateOption {
	return func(f *DateFixture) {
		f.CalendarDate = visit.Day(day)
	}
}

// WithDateNotes overrides the free-form notes.
func WithDateNotes(notes string) DateOption {
	return func(f *DateFixture) {
		f.Notes = notes
	}
}

// WithDateLocked marks the fixture as locked by the given speaker.
func WithDateLocked(speakerID, talkTitle string) DateOption {
	return func(f *DateFixture) {
		f.Available = false
		f.LockState = application.LockSpeaker
		f.LockedBy = speakerID
		f.TalkTitle = talkTitle
	}
}

// WithDateDeleted marks the fixture as soft deleted.
func WithDateDeleted() DateOption {
	return func(f *DateFixture) {
		f.Available = false
		f.LockState = application.LockDeleted
	}
}

// Application returns the fixture as an application.AvailableDate value.
func (f DateFixture) Application() application.AvailableDate {
	return application.AvailableDate{
		ID:           f.ID,
		CalendarDate: f.CalendarDate,
		Host:         f.Host,
		Notes:        f.Notes,
		Available:    f.Available,
		LockState:    f.LockState,
		LockedBy:     f.LockedBy,
		TalkTitle:    f.TalkTitle,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.AvailableDate value.
func (f DateFixture) Persistence() persistence.AvailableDate {
	return persistence.AvailableDate{
		ID:           f.ID,
		CalendarDate: f.CalendarDate,
		Host:         f.Host,
		Notes:        f.Notes,
		Available:    f.Available,
		LockState:    string(f.LockState),
		LockedBy:     f.LockedBy,
		TalkTitle:    f.TalkTitle,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// ---------------------------- Agenda fixtures ----------------------------

// AgendaFixture is a deterministic three-day visit schedule.
type AgendaFixture struct {
	ID          string
	SpeakerID   string
	Host        string
	SeminarDate time.Time
	StartDate   time.Time
	EndDate     time.Time
	Meetings    []application.Meeting
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AgendaOption configures the generated agenda fixture.
type AgendaOption func(*AgendaFixture)

// NewAgendaFixture returns a deterministic agenda seeded the way acceptance
// seeds one: a locked seminar and an open lunch on the seminar day.
func NewAgendaFixture(opts ...AgendaOption) AgendaFixture {
	idx := atomic.AddUint64(&agendaCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	seminarDay := visit.Day(referenceTime).AddDate(0, 0, int(idx)*7)
	window := visit.WindowAround(seminarDay)
	fixture := AgendaFixture{
		ID:          fmt.Sprintf("agenda-%03d", idx),
		SpeakerID:   fmt.Sprintf("speaker-%03d", idx),
		Host:        "Prof. Host",
		SeminarDate: seminarDay,
		StartDate:   window.Start,
		EndDate:     window.End,
		Meetings: []application.Meeting{
			{
				Title:    fmt.Sprintf("Talk %03d", idx),
				Kind:     application.MeetingSeminar,
				Date:     seminarDay,
				Start:    visit.At(10, 0),
				End:      visit.At(11, 0),
				Location: "Main lecture hall",
				Locked:   true,
			},
			{
				Title: "Lunch",
				Kind:  application.MeetingSocial,
				Date:  seminarDay,
				Start: visit.At(13, 0),
				End:   visit.At(14, 0),
			},
		},
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithAgendaID overrides the generated agenda ID.
func WithAgendaID(id string) AgendaOption {
	return func(f *AgendaFixture) {
		f.ID = id
	}
}

// WithAgendaSpeaker binds the agenda to the given speaker.
func WithAgendaSpeaker(speakerID string) AgendaOption {
	return func(f *AgendaFixture) {
		f.SpeakerID = speakerID
	}
}

// WithSeminarDay recentres the agenda window on the given day.
func WithSeminarDay(day time.Time) AgendaOption {
	return func(f *AgendaFixture) {
		seminarDay := visit.Day(day)
		window := visit.WindowAround(seminarDay)
		f.SeminarDate = seminarDay
		f.StartDate = window.Start
		f.EndDate = window.End
		for i := range f.Meetings {
			f.Meetings[i].Date = seminarDay
		}
	}
}

// WithMeetings replaces the seeded meetings.
func WithMeetings(meetings ...application.Meeting) AgendaOption {
	return func(f *AgendaFixture) {
		f.Meetings = meetings
	}
}

// Application returns the fixture as an application.Agenda value.
func (f AgendaFixture) Application() application.Agenda {
	return application.Agenda{
		ID:          f.ID,
		SpeakerID:   f.SpeakerID,
		Host:        f.Host,
		SeminarDate: f.SeminarDate,
		StartDate:   f.StartDate,
		EndDate:     f.EndDate,
		Meetings:    append([]application.Meeting(nil), f.Meetings...),
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Agenda value.
func (f AgendaFixture) Persistence() persistence.Agenda {
	meetings := make([]persistence.Meeting, 0, len(f.Meetings))
	for _, m := range f.Meetings {
		meetings = append(meetings, persistence.Meeting{
			Title:     m.Title,
			Kind:      string(m.Kind),
			Date:      m.Date,
			Start:     m.Start,
			End:       m.End,
			Location:  m.Location,
			Notes:     m.Notes,
			Attendees: append([]string(nil), m.Attendees...),
			Locked:    m.Locked,
		})
	}
	return persistence.Agenda{
		ID:          f.ID,
		SpeakerID:   f.SpeakerID,
		Host:        f.Host,
		SeminarDate: f.SeminarDate,
		StartDate:   f.StartDate,
		EndDate:     f.EndDate,
		Meetings:    meetings,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// ----------------------------- User fixtures -----------------------------

// UserFixture is a deterministic organizer or senior fellow account.
type UserFixture struct {
	ID           string
	Email        string
	DisplayName  string
	Role         application.Role
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic organizer account with optional
// overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		DisplayName:  fmt.Sprintf("User %03d", idx),
		Role:         application.RoleOrganizer,
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserRole overrides the account role.
func WithUserRole(role application.Role) UserOption {
	return func(f *UserFixture) {
		f.Role = role
	}
}

// WithUserPasswordHash overrides the stored password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:          f.ID,
		Email:       f.Email,
		DisplayName: f.DisplayName,
		Role:        f.Role,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Credentials returns the fixture as application.UserCredentials.
func (f UserFixture) Credentials() application.UserCredentials {
	return application.UserCredentials{
		User:         f.Application(),
		PasswordHash: f.PasswordHash,
	}
}

// Principal returns an application.Principal derived from the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{
		UserID:      f.ID,
		DisplayName: f.DisplayName,
		Role:        f.Role,
	}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Email:        f.Email,
		DisplayName:  f.DisplayName,
		Role:         string(f.Role),
		PasswordHash: f.PasswordHash,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// --------------------------- Session fixtures ----------------------------

// SessionFixture is a deterministic authentication session.
type SessionFixture struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic live session with optional
// overrides.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    fmt.Sprintf("user-%03d", idx),
		Token:     fmt.Sprintf("session-token-%03d", idx),
		ExpiresAt: created.Add(24 * time.Hour),
		CreatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionUser binds the session to the given user.
func WithSessionUser(userID string) SessionOption {
	return func(f *SessionFixture) {
		f.UserID = userID
	}
}

// WithSessionToken overrides the bearer token.
func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) {
		f.Token = token
	}
}

// WithSessionExpiry overrides the expiry instant.
func WithSessionExpiry(expiresAt time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = expiresAt
	}
}

// WithSessionRevoked marks the session revoked at the given instant.
func WithSessionRevoked(revokedAt time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.RevokedAt = &revokedAt
	}
}

// Application returns the fixture as an application.Session value.
func (f SessionFixture) Application() application.Session {
	return application.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		RevokedAt: f.RevokedAt,
	}
}

// Persistence returns the fixture as a persistence.Session value.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		RevokedAt: f.RevokedAt,
	}
}

// ------------------------ Signup invite fixtures -------------------------

// InviteFixture is a deterministic pending account-creation link.
type InviteFixture struct {
	Token     string
	Email     string
	Role      application.Role
	CreatedBy string
	ExpiresAt time.Time
	ClaimedAt *time.Time
	ClaimedBy string
	CreatedAt time.Time
}

// InviteOption configures the generated invite fixture.
type InviteOption func(*InviteFixture)

// NewInviteFixture returns a deterministic open signup invite.
func NewInviteFixture(opts ...InviteOption) InviteFixture {
	idx := atomic.AddUint64(&inviteCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := InviteFixture{
		Token:     fmt.Sprintf("invite-token-%03d", idx),
		Email:     fmt.Sprintf("invitee-%03d@example.com", idx),
		Role:      application.RoleSeniorFellow,
		CreatedBy: "user-001",
		ExpiresAt: created.Add(72 * time.Hour),
		CreatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithInviteToken overrides the invite token.
func WithInviteToken(token string) InviteOption {
	return func(f *InviteFixture) {
		f.Token = token
	}
}

// WithInviteRole overrides the role the invite grants.
func WithInviteRole(role application.Role) InviteOption {
	return func(f *InviteFixture) {
		f.Role = role
	}
}

// WithInviteExpiry overrides the expiry instant.
func WithInviteExpiry(expiresAt time.Time) InviteOption {
	return func(f *InviteFixture) {
		f.ExpiresAt = expiresAt
	}
}

// WithInviteClaimed marks the invite claimed by userID at claimedAt.
func WithInviteClaimed(userID string, claimedAt time.Time) InviteOption {
	return func(f *InviteFixture) {
		f.ClaimedAt = &claimedAt
		f.ClaimedBy = userID
	}
}

// Application returns the fixture as an application.SignupInvite value.
func (f InviteFixture) Application() application.SignupInvite {
	return application.SignupInvite{
		Token:     f.Token,
		Email:     f.Email,
		Role:      f.Role,
		CreatedBy: f.CreatedBy,
		ExpiresAt: f.ExpiresAt,
		ClaimedAt: f.ClaimedAt,
		ClaimedBy: f.ClaimedBy,
		CreatedAt: f.CreatedAt,
	}
}

// Persistence returns the fixture as a persistence.SignupInvite value.
func (f InviteFixture) Persistence() persistence.SignupInvite {
	return persistence.SignupInvite{
		Token:     f.Token,
		Email:     f.Email,
		Role:      string(f.Role),
		CreatedBy: f.CreatedBy,
		ExpiresAt: f.ExpiresAt,
		ClaimedAt: f.ClaimedAt,
		ClaimedBy: f.ClaimedBy,
		CreatedAt: f.CreatedAt,
	}
}
