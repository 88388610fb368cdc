package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/seminar-coordinator/internal/persistence"
)

// DefaultResponseWindow is how long an invited speaker has to respond.
const DefaultResponseWindow = 7 * 24 * time.Hour

// SpeakerFilter narrows speaker listings.
type SpeakerFilter struct {
	Status      SpeakerStatus
	OverdueAsOf *time.Time
}

// SpeakerRepository captures the persistence interactions needed by the
// lifecycle state machine.
type SpeakerRepository interface {
	CreateSpeaker(ctx context.Context, speaker Speaker) error
	GetSpeaker(ctx context.Context, id string) (Speaker, error)
	GetSpeakerByToken(ctx context.Context, accessToken string) (Speaker, error)
	UpdateSpeaker(ctx context.Context, speaker Speaker) error
	DeleteSpeaker(ctx context.Context, id string) error
	ListSpeakers(ctx context.Context, filter SpeakerFilter) ([]Speaker, error)
}

// DateAllocator is the slice of the allocation engine the lifecycle needs.
type DateAllocator interface {
	Lock(ctx context.Context, dateID, speakerID, talkTitle string) error
	Unlock(ctx context.Context, dateID string) error
	Reassign(ctx context.Context, oldDateID, newDateID, speakerID, talkTitle string) error
	RefreshTalkTitle(ctx context.Context, dateID, talkTitle string) error
	Get(ctx context.Context, dateID string) (AvailableDate, error)
}

// AgendaScheduler is the slice of the agenda service the lifecycle needs.
type AgendaScheduler interface {
	CreateForAcceptance(ctx context.Context, speaker Speaker, date AvailableDate) (Agenda, error)
	DeleteBySpeaker(ctx context.Context, speakerID string) error
}

// SpeakerService orchestrates the invitation lifecycle: Proposed → Invited
// → Accepted/Declined, with the allocation engine and agenda scheduler as
// side effects and every step recorded in the action log.
type SpeakerService struct {
	speakers       SpeakerRepository
	dates          DateAllocator
	agendas        AgendaScheduler
	mailer         Mailer
	idGenerator    func() string
	tokenIssuer    func() string
	now            func() time.Time
	responseWindow time.Duration
	baseURL        string
	mailTimeout    time.Duration
	logger         *slog.Logger
}

// SpeakerServiceConfig wires the lifecycle's collaborators.
type SpeakerServiceConfig struct {
	Speakers       SpeakerRepository
	Dates          DateAllocator
	Agendas        AgendaScheduler
	Mailer         Mailer
	IDGenerator    func() string
	TokenIssuer    func() string
	Now            func() time.Time
	ResponseWindow time.Duration
	BaseURL        string
	Logger         *slog.Logger
}

// NewSpeakerService constructs the lifecycle state machine.
func NewSpeakerService(cfg SpeakerServiceConfig) *SpeakerService {
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = func() string { return "" }
	}
	if cfg.TokenIssuer == nil {
		cfg.TokenIssuer = func() string { return "" }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.ResponseWindow <= 0 {
		cfg.ResponseWindow = DefaultResponseWindow
	}
	return &SpeakerService{
		speakers:       cfg.Speakers,
		dates:          cfg.Dates,
		agendas:        cfg.Agendas,
		mailer:         cfg.Mailer,
		idGenerator:    cfg.IDGenerator,
		tokenIssuer:    cfg.TokenIssuer,
		now:            cfg.Now,
		responseWindow: cfg.ResponseWindow,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		mailTimeout:    10 * time.Second,
		logger:         defaultLogger(cfg.Logger),
	}
}

func (s *SpeakerService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SpeakerService", operation, attrs...)
}

// Propose creates a speaker in the Proposed state and issues their
// long-lived access token. Organizers and senior fellows may propose.
func (s *SpeakerService) Propose(ctx context.Context, params ProposeSpeakerParams) (Speaker, error) {
	if s == nil || s.speakers == nil {
		return Speaker{}, fmt.Errorf("speaker repository not configured")
	}
	switch params.Principal.Role {
	case RoleOrganizer, RoleSeniorFellow:
	default:
		return Speaker{}, ErrUnauthorized
	}

	input := params.Input
	vErr := &ValidationError{}
	if strings.TrimSpace(input.FullName) == "" {
		vErr.add("full_name", "full name is required")
	}
	if strings.TrimSpace(input.Email) == "" {
		vErr.add("email", "email is required")
	} else if !strings.Contains(input.Email, "@") {
		vErr.add("email", "email is invalid")
	}
	switch input.Ranking {
	case "", RankingHigh, RankingMedium, RankingLow:
	default:
		vErr.add("ranking", "unknown ranking")
	}
	if vErr.HasErrors() {
		return Speaker{}, vErr
	}

	ranking := input.Ranking
	if ranking == "" {
		ranking = RankingMedium
	}
	host := strings.TrimSpace(input.Host)
	if host == "" {
		host = params.Principal.DisplayName
	}

	now := s.now()
	speaker := Speaker{
		ID:             s.idGenerator(),
		FullName:       strings.TrimSpace(input.FullName),
		Email:          strings.TrimSpace(input.Email),
		Affiliation:    input.Affiliation,
		Country:        input.Country,
		Expertise:      input.Expertise,
		Ranking:        ranking,
		Host:           host,
		Status:         StatusProposed,
		AccessToken:    s.tokenIssuer(),
		Actions:        nil,
		ProposedByID:   params.Principal.UserID,
		ProposedByName: params.Principal.DisplayName,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.speakers.CreateSpeaker(ctx, speaker); err != nil {
		return Speaker{}, mapSpeakerRepoError(err)
	}

	s.loggerWith(ctx, "Propose", "speaker_id", speaker.ID).InfoContext(ctx, "speaker proposed")
	return speaker, nil
}

// Invite moves a proposed speaker to Invited, stamps the response deadline,
// records the invitation_drafted action and hands the composed invitation
// to the mailer without blocking on delivery.
func (s *SpeakerService) Invite(ctx context.Context, principal Principal, speakerID string) (Speaker, error) {
	if s == nil || s.speakers == nil {
		return Speaker{}, fmt.Errorf("speaker repository not configured")
	}
	if !principal.IsOrganizer() {
		return Speaker{}, ErrUnauthorized
	}

	speaker, err := s.speakers.GetSpeaker(ctx, speakerID)
	if err != nil {
		return Speaker{}, mapSpeakerRepoError(err)
	}
	if speaker.Status != StatusProposed {
		return Speaker{}, &TransitionError{SpeakerID: speakerID, From: speaker.Status, Attempted: "invite"}
	}

	now := s.now()
	deadline := now.Add(s.responseWindow)
	speaker.Status = StatusInvited
	speaker.InvitationSentAt = &now
	speaker.ResponseDeadline = &deadline
	if speaker.AccessToken == "" {
		speaker.AccessToken = s.tokenIssuer()
	}
	speaker.Actions = append(speaker.Actions, Action{
		Kind:      ActionInvitationDrafted,
		Timestamp: now,
		Actor:     principal.DisplayName,
	})
	speaker.UpdatedAt = now

	if err := s.speakers.UpdateSpeaker(ctx, speaker); err != nil {
		return Speaker{}, mapSpeakerRepoError(err)
	}

	s.dispatchInvitation(ctx, speaker)
	s.loggerWith(ctx, "Invite", "speaker_id", speakerID, "deadline", deadline).
		InfoContext(ctx, "invitation sent")
	return speaker, nil
}

// Resend refreshes the invitation window of an already invited speaker.
// It is idempotent with respect to the action log and the access token.
func (s *SpeakerService) Resend(ctx context.Context, principal Principal, speakerID string) (Speaker, error) {
	if s == nil || s.speakers == nil {
		return Speaker{}, fmt.Errorf("speaker repository not configured")
	}
	if !principal.IsOrganizer() {
		return Speaker{}, ErrUnauthorized
	}

	speaker, err := s.speakers.GetSpeaker(ctx, speakerID)
	if err != nil {
		return Speaker{}, mapSpeakerRepoError(err)
	}
	if speaker.Status != StatusInvited {
		return Speaker{}, &TransitionError{SpeakerID: speakerID, From: speaker.Status, Attempted: "resend"}
	}

	now := s.now()
	deadline := now.Add(s.responseWindow)
	speaker.InvitationSentAt = &now
	speaker.ResponseDeadline = &deadline
	speaker.UpdatedAt = now

	if err := s.speakers.UpdateSpeaker(ctx, speaker); err != nil {
		return Speaker{}, mapSpeakerRepoError(err)
	}

	s.dispatchInvitation(ctx, speaker)
	s.loggerWith(ctx, "Resend", "speaker_id", speakerID).InfoContext(ctx, "invitation resent")
	return speaker, nil
}

// RejectProposal declines a proposed speaker without them ever being
// invited. Terminal; no date or agenda side effects.
func (s *SpeakerService) RejectProposal(ctx context.Context, principal Principal, speakerID string) (Speaker, error) {
	if s == nil || s.speakers == nil {
		return Speaker{}, fmt.Errorf("speaker repository not configured")
	}
	if !principal.IsOrganizer() {
		return Speaker{}, ErrUnauthorized
	}

	speaker, err := s.speakers.GetSpeaker(ctx, speakerID)
	if err != nil {
		return Speaker{}, mapSpeakerRepoError(err)
	}
	if speaker.Status != StatusProposed {
		return Speaker{}, &TransitionError{SpeakerID: speakerID, From: speaker.Status, Attempted: "reject"}
	}

	speaker.Status = StatusDeclined
	speaker.UpdatedAt = s.now()

	if err := s.speakers.UpdateSpeaker(ctx, speaker); err != nil {
		return Speaker{}, mapSpeakerRepoError(err)
	}

	s.loggerWith(ctx, "RejectProposal", "speaker_id", speakerID).InfoContext(ctx, "proposal rejected")
	return speaker, nil
}

// Respond applies a speaker's answer. Acceptance locks the chosen date,
// updates the speaker, records both audit actions and seeds the agenda as
// one all-or-nothing unit: if any later step fails, the lock is released
// and the speaker stays Invited.
func (s *SpeakerService) Respond(ctx context.Context, params RespondParams) (Speaker, error) {
	if s == nil || s.speakers == nil {
		return Speaker{}, fmt.Errorf("speaker repository not configured")
	}

	speaker, err := s.speakers.GetSpeaker(ctx, params.SpeakerID)
	if err != nil {
		return Speaker{}, mapSpeakerRepoError(err)
	}
	if speaker.Status != StatusInvited {
		return Speaker{}, &TransitionError{SpeakerID: speaker.ID, From: speaker.Status, Attempted: "respond"}
	}

	logger := s.loggerWith(ctx, "Respond", "speaker_id", speaker.ID, "outcome", string(params.Outcome))
	now := s.now()

	switch params.Outcome {
	case OutcomeDeclined:
		speaker.Status = StatusDeclined
		speaker.Actions = append(speaker.Actions, Action{
			Kind:      ActionSpeakerResponded,
			Timestamp: now,
			Actor:     speaker.FullName,
			Outcome:   OutcomeDeclined,
		})
		speaker.UpdatedAt = now
		if err := s.speakers.UpdateSpeaker(ctx, speaker); err != nil {
			return Speaker{}, mapSpeakerRepoError(err)
		}
		logger.InfoContext(ctx, "invitation declined")
		return speaker, nil

	case OutcomeAccepted:
		vErr := &ValidationError{}
		if strings.TrimSpace(params.DateID) == "" {
			vErr.add("date_id", "a date must be chosen")
		}
		if strings.TrimSpace(params.TalkTitle) == "" {
			vErr.add("talk_title", "talk title is required")
		}
		if vErr.HasErrors() {
			return Speaker{}, vErr
		}
		return s.acceptInvitation(ctx, logger, speaker, params, now)

	default:
		vErr := &ValidationError{}
		vErr.add("outcome", "outcome must be accepted or declined")
		return Speaker{}, vErr
	}
}

func (s *SpeakerService) acceptInvitation(ctx context.Context, logger *slog.Logger, speaker Speaker, params RespondParams, now time.Time) (Speaker, error) {
	if s.dates == nil || s.agendas == nil {
		return Speaker{}, fmt.Errorf("allocation engine not configured")
	}

	// The lock is the linearization point: losing the race here fails the
	// whole respond with no state touched.
	if err := s.dates.Lock(ctx, params.DateID, speaker.ID, params.TalkTitle); err != nil {
		return Speaker{}, err
	}

	date, err := s.dates.Get(ctx, params.DateID)
	if err != nil {
		s.compensateUnlock(ctx, logger, params.DateID)
		return Speaker{}, err
	}

	original := speaker
	dateID := params.DateID
	speaker.Status = StatusAccepted
	speaker.AssignedDateID = &dateID
	speaker.TalkTitle = strings.TrimSpace(params.TalkTitle)
	speaker.TalkAbstract = params.TalkAbstract
	speaker.Actions = append(speaker.Actions,
		Action{
			Kind:      ActionSpeakerResponded,
			Timestamp: now,
			Actor:     speaker.FullName,
			Outcome:   OutcomeAccepted,
		},
		Action{
			Kind:      ActionTravelArrangements,
			Timestamp: now,
			Actor:     speaker.Host,
		},
	)
	speaker.UpdatedAt = now

	if err := s.speakers.UpdateSpeaker(ctx, speaker); err != nil {
		s.compensateUnlock(ctx, logger, params.DateID)
		return Speaker{}, mapSpeakerRepoError(err)
	}

	if _, err := s.agendas.CreateForAcceptance(ctx, speaker, date); err != nil {
		if rerr := s.speakers.UpdateSpeaker(ctx, original); rerr != nil {
			logger.ErrorContext(ctx, "failed to restore speaker after agenda failure",
				"error", rerr, "error_kind", ErrorKind(rerr))
		}
		s.compensateUnlock(ctx, logger, params.DateID)
		return Speaker{}, fmt.Errorf("respond: seed agenda: %w", err)
	}

	logger.InfoContext(ctx, "invitation accepted",
		"date_id", params.DateID,
		"seminar_date", date.CalendarDate.Format("2006-01-02"),
	)
	return speaker, nil
}

func (s *SpeakerService) compensateUnlock(ctx context.Context, logger *slog.Logger, dateID string) {
	if err := s.dates.Unlock(ctx, dateID); err != nil {
		logger.ErrorContext(ctx, "compensating unlock failed; date may remain locked",
			"date_id", dateID, "error", err, "error_kind", ErrorKind(err))
	}
}

// EditConfirmed updates an accepted speaker's talk details and host, and
// moves their date lock when a different date is requested. The
// denormalized talk title on the locked date is always refreshed.
func (s *SpeakerService) EditConfirmed(ctx context.Context, params EditConfirmedParams) (Speaker, error) {
	if s == nil || s.speakers == nil {
		return Speaker{}, fmt.Errorf("speaker repository not configured")
	}
	if !params.Principal.IsOrganizer() {
		return Speaker{}, ErrUnauthorized
	}
	if s.dates == nil {
		return Speaker{}, fmt.Errorf("allocation engine not configured")
	}

	speaker, err := s.speakers.GetSpeaker(ctx, params.SpeakerID)
	if err != nil {
		return Speaker{}, mapSpeakerRepoError(err)
	}
	if speaker.Status != StatusAccepted || speaker.AssignedDateID == nil {
		return Speaker{}, &TransitionError{SpeakerID: speaker.ID, From: speaker.Status, Attempted: "edit confirmed details"}
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(params.TalkTitle) == "" {
		vErr.add("talk_title", "talk title is required")
	}
	if vErr.HasErrors() {
		return Speaker{}, vErr
	}

	logger := s.loggerWith(ctx, "EditConfirmed", "speaker_id", speaker.ID)
	oldDateID := *speaker.AssignedDateID
	newDateID := oldDateID
	if params.NewDateID != nil && *params.NewDateID != "" {
		newDateID = *params.NewDateID
	}

	title := strings.TrimSpace(params.TalkTitle)
	previousTitle := speaker.TalkTitle
	if newDateID != oldDateID {
		if err := s.dates.Reassign(ctx, oldDateID, newDateID, speaker.ID, title); err != nil {
			return Speaker{}, err
		}
	} else if err := s.dates.RefreshTalkTitle(ctx, oldDateID, title); err != nil {
		return Speaker{}, err
	}

	speaker.TalkTitle = title
	speaker.TalkAbstract = params.TalkAbstract
	if strings.TrimSpace(params.Host) != "" {
		speaker.Host = strings.TrimSpace(params.Host)
	}
	speaker.AssignedDateID = &newDateID
	speaker.UpdatedAt = s.now()

	if err := s.speakers.UpdateSpeaker(ctx, speaker); err != nil {
		if newDateID != oldDateID {
			if rerr := s.dates.Reassign(ctx, newDateID, oldDateID, speaker.ID, previousTitle); rerr != nil {
				logger.ErrorContext(ctx, "failed to restore previous date after speaker update failure",
					"error", rerr, "error_kind", ErrorKind(rerr))
				return Speaker{}, &ReconcileError{
					Step:   "edit/speaker-update",
					Detail: fmt.Sprintf("speaker %s may reference date %s while date %s holds the lock", speaker.ID, oldDateID, newDateID),
					Err:    err,
				}
			}
		}
		return Speaker{}, mapSpeakerRepoError(err)
	}

	logger.InfoContext(ctx, "confirmed speaker updated", "date_id", newDateID)
	return speaker, nil
}

// Delete removes a speaker, choosing the deletion path the current state
// requires. Accepted speakers are a cascade: agenda first, then the date
// lock, then the record, so a failure midway never strands a locked date.
func (s *SpeakerService) Delete(ctx context.Context, principal Principal, speakerID string) error {
	if s == nil || s.speakers == nil {
		return fmt.Errorf("speaker repository not configured")
	}
	if !principal.IsOrganizer() {
		return ErrUnauthorized
	}

	speaker, err := s.speakers.GetSpeaker(ctx, speakerID)
	if err != nil {
		return mapSpeakerRepoError(err)
	}

	logger := s.loggerWith(ctx, "Delete", "speaker_id", speakerID, "status", string(speaker.Status))

	switch speaker.Status {
	case StatusProposed, StatusInvited, StatusDeclined:
		if err := s.speakers.DeleteSpeaker(ctx, speakerID); err != nil {
			return mapSpeakerRepoError(err)
		}
		logger.InfoContext(ctx, "speaker deleted")
		return nil

	case StatusAccepted:
		if speaker.AssignedDateID == nil {
			// Should be unreachable given the acceptance invariant; treat
			// as a plain deletion rather than fail the cleanup.
			logger.WarnContext(ctx, "accepted speaker has no assigned date")
			if err := s.speakers.DeleteSpeaker(ctx, speakerID); err != nil {
				return mapSpeakerRepoError(err)
			}
			return nil
		}
		dateID := *speaker.AssignedDateID

		if s.agendas != nil {
			if err := s.agendas.DeleteBySpeaker(ctx, speakerID); err != nil {
				return fmt.Errorf("delete confirmed speaker: remove agenda: %w", err)
			}
		}
		if err := s.dates.Unlock(ctx, dateID); err != nil && !errors.Is(err, ErrNotFound) {
			return &ReconcileError{
				Step:   "delete/unlock",
				Detail: fmt.Sprintf("agenda removed but date %s is still locked to speaker %s", dateID, speakerID),
				Err:    err,
			}
		}
		if err := s.speakers.DeleteSpeaker(ctx, speakerID); err != nil {
			return &ReconcileError{
				Step:   "delete/speaker",
				Detail: fmt.Sprintf("date %s already unlocked; speaker record remains", dateID),
				Err:    mapSpeakerRepoError(err),
			}
		}
		logger.InfoContext(ctx, "confirmed speaker deleted", "date_id", dateID)
		return nil

	default:
		return &TransitionError{SpeakerID: speakerID, From: speaker.Status, Attempted: "delete"}
	}
}

// Get returns a single speaker by id.
func (s *SpeakerService) Get(ctx context.Context, speakerID string) (Speaker, error) {
	if s == nil || s.speakers == nil {
		return Speaker{}, fmt.Errorf("speaker repository not configured")
	}
	speaker, err := s.speakers.GetSpeaker(ctx, speakerID)
	if err != nil {
		return Speaker{}, mapSpeakerRepoError(err)
	}
	return speaker, nil
}

// GetByToken resolves a speaker from their self-service bearer token.
func (s *SpeakerService) GetByToken(ctx context.Context, accessToken string) (Speaker, error) {
	if s == nil || s.speakers == nil {
		return Speaker{}, fmt.Errorf("speaker repository not configured")
	}
	if strings.TrimSpace(accessToken) == "" {
		return Speaker{}, ErrNotFound
	}
	speaker, err := s.speakers.GetSpeakerByToken(ctx, accessToken)
	if err != nil {
		return Speaker{}, mapSpeakerRepoError(err)
	}
	return speaker, nil
}

// List enumerates speakers, optionally narrowed to one status.
func (s *SpeakerService) List(ctx context.Context, status SpeakerStatus) ([]Speaker, error) {
	if s == nil || s.speakers == nil {
		return nil, fmt.Errorf("speaker repository not configured")
	}
	return s.speakers.ListSpeakers(ctx, SpeakerFilter{Status: status})
}

// OverdueInvited is the derived read model: invited speakers whose
// response deadline has passed.
func (s *SpeakerService) OverdueInvited(ctx context.Context) ([]Speaker, error) {
	if s == nil || s.speakers == nil {
		return nil, fmt.Errorf("speaker repository not configured")
	}
	now := s.now()
	return s.speakers.ListSpeakers(ctx, SpeakerFilter{Status: StatusInvited, OverdueAsOf: &now})
}

// dispatchInvitation hands the composed invitation to the mailer on a
// detached goroutine. Delivery failure is logged, never surfaced.
func (s *SpeakerService) dispatchInvitation(ctx context.Context, speaker Speaker) {
	if s.mailer == nil {
		return
	}
	message := composeInvitation(speaker, s.baseURL)
	logger := s.loggerWith(ctx, "dispatchInvitation", "speaker_id", speaker.ID)

	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), s.mailTimeout)
		defer cancel()
		if err := s.mailer.SendInvitation(sendCtx, message); err != nil {
			logger.Error("invitation hand-off failed", "error", err)
		}
	}()
}

func mapSpeakerRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	return err
}
