package main

import (
	"context"
	"time"

	"github.com/example/seminar-coordinator/internal/application"
	"github.com/example/seminar-coordinator/internal/persistence"
)

// The application layer speaks its own model types; the adapters in this
// file translate them to and from the stored shapes.

type speakerRepositoryAdapter struct {
	repo persistence.SpeakerRepository
}

func newSpeakerRepositoryAdapter(repo persistence.SpeakerRepository) *speakerRepositoryAdapter {
	return &speakerRepositoryAdapter{repo: repo}
}

func (a *speakerRepositoryAdapter) CreateSpeaker(ctx context.Context, speaker application.Speaker) error {
	return a.repo.CreateSpeaker(ctx, toPersistenceSpeaker(speaker))
}

func (a *speakerRepositoryAdapter) GetSpeaker(ctx context.Context, id string) (application.Speaker, error) {
	stored, err := a.repo.GetSpeaker(ctx, id)
	if err != nil {
		return application.Speaker{}, err
	}
	return toApplicationSpeaker(stored), nil
}

func (a *speakerRepositoryAdapter) GetSpeakerByToken(ctx context.Context, accessToken string) (application.Speaker, error) {
	stored, err := a.repo.GetSpeakerByToken(ctx, accessToken)
	if err != nil {
		return application.Speaker{}, err
	}
	return toApplicationSpeaker(stored), nil
}

func (a *speakerRepositoryAdapter) UpdateSpeaker(ctx context.Context, speaker application.Speaker) error {
	return a.repo.UpdateSpeaker(ctx, toPersistenceSpeaker(speaker))
}

func (a *speakerRepositoryAdapter) DeleteSpeaker(ctx context.Context, id string) error {
	return a.repo.DeleteSpeaker(ctx, id)
}

func (a *speakerRepositoryAdapter) ListSpeakers(ctx context.Context, filter application.SpeakerFilter) ([]application.Speaker, error) {
	models, err := a.repo.ListSpeakers(ctx, persistence.SpeakerFilter{
		Status:      string(filter.Status),
		OverdueAsOf: filter.OverdueAsOf,
	})
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	speakers := make([]application.Speaker, 0, len(models))
	for _, model := range models {
		speakers = append(speakers, toApplicationSpeaker(model))
	}
	return speakers, nil
}

func (a *speakerRepositoryAdapter) AppendAction(ctx context.Context, speakerID string, action application.Action) (int, error) {
	return a.repo.AppendAction(ctx, speakerID, toPersistenceAction(action))
}

func (a *speakerRepositoryAdapter) SetActionCompleted(ctx context.Context, speakerID string, index int, completed bool, completedAt *time.Time) error {
	return a.repo.SetActionCompleted(ctx, speakerID, index, completed, completedAt)
}

type dateRepositoryAdapter struct {
	repo persistence.DateRepository
}

func newDateRepositoryAdapter(repo persistence.DateRepository) *dateRepositoryAdapter {
	return &dateRepositoryAdapter{repo: repo}
}

func (a *dateRepositoryAdapter) CreateDate(ctx context.Context, date application.AvailableDate) error {
	return a.repo.CreateDate(ctx, toPersistenceDate(date))
}

func (a *dateRepositoryAdapter) GetDate(ctx context.Context, id string) (application.AvailableDate, error) {
	stored, err := a.repo.GetDate(ctx, id)
	if err != nil {
		return application.AvailableDate{}, err
	}
	return toApplicationDate(stored), nil
}

func (a *dateRepositoryAdapter) ListDates(ctx context.Context, includeDeleted bool) ([]application.AvailableDate, error) {
	models, err := a.repo.ListDates(ctx, includeDeleted)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	dates := make([]application.AvailableDate, 0, len(models))
	for _, model := range models {
		dates = append(dates, toApplicationDate(model))
	}
	return dates, nil
}

func (a *dateRepositoryAdapter) LockDate(ctx context.Context, id, speakerID, talkTitle string) error {
	return a.repo.LockDate(ctx, id, speakerID, talkTitle)
}

func (a *dateRepositoryAdapter) UnlockDate(ctx context.Context, id string) error {
	return a.repo.UnlockDate(ctx, id)
}

func (a *dateRepositoryAdapter) SoftDeleteDate(ctx context.Context, id string) error {
	return a.repo.SoftDeleteDate(ctx, id)
}

func (a *dateRepositoryAdapter) UpdateTalkTitle(ctx context.Context, id, talkTitle string) error {
	return a.repo.UpdateTalkTitle(ctx, id, talkTitle)
}

type agendaRepositoryAdapter struct {
	repo persistence.AgendaRepository
}

func newAgendaRepositoryAdapter(repo persistence.AgendaRepository) *agendaRepositoryAdapter {
	return &agendaRepositoryAdapter{repo: repo}
}

func (a *agendaRepositoryAdapter) CreateAgenda(ctx context.Context, agenda application.Agenda) error {
	return a.repo.CreateAgenda(ctx, toPersistenceAgenda(agenda))
}

func (a *agendaRepositoryAdapter) GetAgendaBySpeaker(ctx context.Context, speakerID string) (application.Agenda, error) {
	stored, err := a.repo.GetAgendaBySpeaker(ctx, speakerID)
	if err != nil {
		return application.Agenda{}, err
	}
	return toApplicationAgenda(stored), nil
}

func (a *agendaRepositoryAdapter) UpdateAgenda(ctx context.Context, agenda application.Agenda) error {
	return a.repo.UpdateAgenda(ctx, toPersistenceAgenda(agenda))
}

func (a *agendaRepositoryAdapter) DeleteAgendaBySpeaker(ctx context.Context, speakerID string) error {
	return a.repo.DeleteAgendaBySpeaker(ctx, speakerID)
}

type credentialStoreAdapter struct {
	repo persistence.UserRepository
}

func newCredentialStoreAdapter(repo persistence.UserRepository) *credentialStoreAdapter {
	return &credentialStoreAdapter{repo: repo}
}

func (a *credentialStoreAdapter) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

func (a *credentialStoreAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

type sessionStoreAdapter struct {
	repo persistence.SessionRepository
}

func newSessionStoreAdapter(repo persistence.SessionRepository) *sessionStoreAdapter {
	return &sessionStoreAdapter{repo: repo}
}

func (a *sessionStoreAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	if err := a.repo.CreateSession(ctx, toPersistenceSession(session)); err != nil {
		return application.Session{}, err
	}
	return session, nil
}

func (a *sessionStoreAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionStoreAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) error {
	return a.repo.RevokeSession(ctx, token, revokedAt)
}

func (a *sessionStoreAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return a.repo.DeleteExpiredSessions(ctx, reference)
}

type userStoreAdapter struct {
	repo persistence.UserRepository
}

func newUserStoreAdapter(repo persistence.UserRepository) *userStoreAdapter {
	return &userStoreAdapter{repo: repo}
}

func (a *userStoreAdapter) CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(user, passwordHash)); err != nil {
		return application.User{}, err
	}
	return user, nil
}

func (a *userStoreAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userStoreAdapter) ListUsers(ctx context.Context) ([]application.User, error) {
	models, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	users := make([]application.User, 0, len(models))
	for _, model := range models {
		users = append(users, toApplicationUser(model))
	}
	return users, nil
}

type inviteStoreAdapter struct {
	repo persistence.SignupInviteRepository
}

func newInviteStoreAdapter(repo persistence.SignupInviteRepository) *inviteStoreAdapter {
	return &inviteStoreAdapter{repo: repo}
}

func (a *inviteStoreAdapter) CreateInvite(ctx context.Context, invite application.SignupInvite) (application.SignupInvite, error) {
	if err := a.repo.CreateSignupInvite(ctx, toPersistenceInvite(invite)); err != nil {
		return application.SignupInvite{}, err
	}
	return invite, nil
}

func (a *inviteStoreAdapter) GetInvite(ctx context.Context, token string) (application.SignupInvite, error) {
	stored, err := a.repo.GetSignupInvite(ctx, token)
	if err != nil {
		return application.SignupInvite{}, err
	}
	return toApplicationInvite(stored), nil
}

func (a *inviteStoreAdapter) MarkInviteClaimed(ctx context.Context, token string, claimedBy string, claimedAt time.Time) error {
	return a.repo.ClaimSignupInvite(ctx, token, claimedBy, claimedAt)
}

func toPersistenceSpeaker(speaker application.Speaker) persistence.Speaker {
	actions := make([]persistence.Action, 0, len(speaker.Actions))
	for _, action := range speaker.Actions {
		actions = append(actions, toPersistenceAction(action))
	}
	return persistence.Speaker{
		ID:               speaker.ID,
		FullName:         speaker.FullName,
		Email:            speaker.Email,
		Affiliation:      speaker.Affiliation,
		Country:          speaker.Country,
		Expertise:        speaker.Expertise,
		Ranking:          string(speaker.Ranking),
		Host:             speaker.Host,
		Status:           string(speaker.Status),
		AccessToken:      speaker.AccessToken,
		InvitationSentAt: speaker.InvitationSentAt,
		ResponseDeadline: speaker.ResponseDeadline,
		AssignedDateID:   speaker.AssignedDateID,
		TalkTitle:        speaker.TalkTitle,
		TalkAbstract:     speaker.TalkAbstract,
		Actions:          actions,
		ProposedByID:     speaker.ProposedByID,
		ProposedByName:   speaker.ProposedByName,
		CreatedAt:        speaker.CreatedAt,
		UpdatedAt:        speaker.UpdatedAt,
	}
}

func toApplicationSpeaker(speaker persistence.Speaker) application.Speaker {
	actions := make([]application.Action, 0, len(speaker.Actions))
	for _, action := range speaker.Actions {
		actions = append(actions, toApplicationAction(action))
	}
	return application.Speaker{
		ID:               speaker.ID,
		FullName:         speaker.FullName,
		Email:            speaker.Email,
		Affiliation:      speaker.Affiliation,
		Country:          speaker.Country,
		Expertise:        speaker.Expertise,
		Ranking:          application.Ranking(speaker.Ranking),
		Host:             speaker.Host,
		Status:           application.SpeakerStatus(speaker.Status),
		AccessToken:      speaker.AccessToken,
		InvitationSentAt: speaker.InvitationSentAt,
		ResponseDeadline: speaker.ResponseDeadline,
		AssignedDateID:   speaker.AssignedDateID,
		TalkTitle:        speaker.TalkTitle,
		TalkAbstract:     speaker.TalkAbstract,
		Actions:          actions,
		ProposedByID:     speaker.ProposedByID,
		ProposedByName:   speaker.ProposedByName,
		CreatedAt:        speaker.CreatedAt,
		UpdatedAt:        speaker.UpdatedAt,
	}
}

func toPersistenceAction(action application.Action) persistence.Action {
	return persistence.Action{
		Kind:        string(action.Kind),
		Label:       action.Label,
		Timestamp:   action.Timestamp,
		Completed:   action.Completed,
		CompletedAt: action.CompletedAt,
		Actor:       action.Actor,
		Outcome:     string(action.Outcome),
	}
}

func toApplicationAction(action persistence.Action) application.Action {
	return application.Action{
		Kind:        application.ActionKind(action.Kind),
		Label:       action.Label,
		Timestamp:   action.Timestamp,
		Completed:   action.Completed,
		CompletedAt: action.CompletedAt,
		Actor:       action.Actor,
		Outcome:     application.ResponseOutcome(action.Outcome),
	}
}

func toPersistenceDate(date application.AvailableDate) persistence.AvailableDate {
	return persistence.AvailableDate{
		ID:           date.ID,
		CalendarDate: date.CalendarDate,
		Host:         date.Host,
		Notes:        date.Notes,
		Available:    date.Available,
		LockState:    string(date.LockState),
		LockedBy:     date.LockedBy,
		TalkTitle:    date.TalkTitle,
		CreatedAt:    date.CreatedAt,
		UpdatedAt:    date.UpdatedAt,
	}
}

func toApplicationDate(date persistence.AvailableDate) application.AvailableDate {
	return application.AvailableDate{
		ID:           date.ID,
		CalendarDate: date.CalendarDate,
		Host:         date.Host,
		Notes:        date.Notes,
		Available:    date.Available,
		LockState:    application.LockState(date.LockState),
		LockedBy:     date.LockedBy,
		TalkTitle:    date.TalkTitle,
		CreatedAt:    date.CreatedAt,
		UpdatedAt:    date.UpdatedAt,
	}
}

func toPersistenceAgenda(agenda application.Agenda) persistence.Agenda {
	meetings := make([]persistence.Meeting, 0, len(agenda.Meetings))
	for _, meeting := range agenda.Meetings {
		meetings = append(meetings, persistence.Meeting{
			Title:     meeting.Title,
			Kind:      string(meeting.Kind),
			Date:      meeting.Date,
			Start:     meeting.Start,
			End:       meeting.End,
			Location:  meeting.Location,
			Notes:     meeting.Notes,
			Attendees: append([]string(nil), meeting.Attendees...),
			Locked:    meeting.Locked,
		})
	}
	return persistence.Agenda{
		ID:          agenda.ID,
		SpeakerID:   agenda.SpeakerID,
		Host:        agenda.Host,
		SeminarDate: agenda.SeminarDate,
		StartDate:   agenda.StartDate,
		EndDate:     agenda.EndDate,
		Meetings:    meetings,
		CreatedAt:   agenda.CreatedAt,
		UpdatedAt:   agenda.UpdatedAt,
	}
}

func toApplicationAgenda(agenda persistence.Agenda) application.Agenda {
	meetings := make([]application.Meeting, 0, len(agenda.Meetings))
	for _, meeting := range agenda.Meetings {
		meetings = append(meetings, application.Meeting{
			Title:     meeting.Title,
			Kind:      application.MeetingKind(meeting.Kind),
			Date:      meeting.Date,
			Start:     meeting.Start,
			End:       meeting.End,
			Location:  meeting.Location,
			Notes:     meeting.Notes,
			Attendees: append([]string(nil), meeting.Attendees...),
			Locked:    meeting.Locked,
		})
	}
	return application.Agenda{
		ID:          agenda.ID,
		SpeakerID:   agenda.SpeakerID,
		Host:        agenda.Host,
		SeminarDate: agenda.SeminarDate,
		StartDate:   agenda.StartDate,
		EndDate:     agenda.EndDate,
		Meetings:    meetings,
		CreatedAt:   agenda.CreatedAt,
		UpdatedAt:   agenda.UpdatedAt,
	}
}

func toPersistenceUser(user application.User, passwordHash string) persistence.User {
	return persistence.User{
		ID:           user.ID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		Role:         string(user.Role),
		PasswordHash: passwordHash,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toApplicationUser(user persistence.User) application.User {
	return application.User{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        application.Role(user.Role),
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		RevokedAt: session.RevokedAt,
	}
}

func toApplicationSession(session persistence.Session) application.Session {
	return application.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		RevokedAt: session.RevokedAt,
	}
}

func toPersistenceInvite(invite application.SignupInvite) persistence.SignupInvite {
	return persistence.SignupInvite{
		Token:     invite.Token,
		Email:     invite.Email,
		Role:      string(invite.Role),
		CreatedBy: invite.CreatedBy,
		ExpiresAt: invite.ExpiresAt,
		ClaimedAt: invite.ClaimedAt,
		ClaimedBy: invite.ClaimedBy,
		CreatedAt: invite.CreatedAt,
	}
}

func toApplicationInvite(invite persistence.SignupInvite) application.SignupInvite {
	return application.SignupInvite{
		Token:     invite.Token,
		Email:     invite.Email,
		Role:      application.Role(invite.Role),
		CreatedBy: invite.CreatedBy,
		ExpiresAt: invite.ExpiresAt,
		ClaimedAt: invite.ClaimedAt,
		ClaimedBy: invite.ClaimedBy,
		CreatedAt: invite.CreatedAt,
	}
}
