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

// ActionLogRepository captures the persistence interactions for the
// append-only audit trail attached to each speaker.
type ActionLogRepository interface {
	AppendAction(ctx context.Context, speakerID string, action Action) (int, error)
	SetActionCompleted(ctx context.Context, speakerID string, index int, completed bool, completedAt *time.Time) error
}

// ActionLogService appends workflow audit entries and toggles their
// completion. Entries are never reordered or removed.
type ActionLogService struct {
	actions ActionLogRepository
	now     func() time.Time
	logger  *slog.Logger
}

// NewActionLogService wires dependencies for audit trail operations.
func NewActionLogService(actions ActionLogRepository, now func() time.Time, logger *slog.Logger) *ActionLogService {
	if now == nil {
		now = time.Now
	}
	return &ActionLogService{
		actions: actions,
		now:     now,
		logger:  defaultLogger(logger),
	}
}

// Append adds an entry to a speaker's audit trail and returns its index.
func (s *ActionLogService) Append(ctx context.Context, params AppendActionParams) (int, error) {
	if s == nil || s.actions == nil {
		return 0, fmt.Errorf("action log repository not configured")
	}
	if !params.Principal.IsOrganizer() {
		return 0, ErrUnauthorized
	}

	vErr := &ValidationError{}
	switch params.Kind {
	case ActionInvitationDrafted, ActionSpeakerResponded, ActionTravelArrangements:
	case ActionCustom:
		if strings.TrimSpace(params.Label) == "" {
			vErr.add("label", "custom actions require a label")
		}
	default:
		vErr.add("kind", "unknown action kind")
	}
	if params.Kind != ActionSpeakerResponded && params.Outcome != "" {
		vErr.add("outcome", "outcome applies to speaker_responded only")
	}
	if vErr.HasErrors() {
		return 0, vErr
	}

	index, err := s.actions.AppendAction(ctx, params.SpeakerID, Action{
		Kind:      params.Kind,
		Label:     strings.TrimSpace(params.Label),
		Timestamp: s.now(),
		Actor:     params.Principal.DisplayName,
		Outcome:   params.Outcome,
	})
	if err != nil {
		return 0, mapActionRepoError(err)
	}

	serviceLogger(ctx, s.logger, "ActionLogService", "Append",
		"speaker_id", params.SpeakerID, "kind", string(params.Kind), "index", index).
		InfoContext(ctx, "action appended")
	return index, nil
}

// SetCompleted toggles completion on an existing entry, stamping or
// clearing completed_at as the flag transitions.
func (s *ActionLogService) SetCompleted(ctx context.Context, principal Principal, speakerID string, index int, completed bool) error {
	if s == nil || s.actions == nil {
		return fmt.Errorf("action log repository not configured")
	}
	if !principal.IsOrganizer() {
		return ErrUnauthorized
	}

	var completedAt *time.Time
	if completed {
		now := s.now()
		completedAt = &now
	}

	if err := s.actions.SetActionCompleted(ctx, speakerID, index, completed, completedAt); err != nil {
		return mapActionRepoError(err)
	}

	serviceLogger(ctx, s.logger, "ActionLogService", "SetCompleted",
		"speaker_id", speakerID, "index", index, "completed", completed).
		InfoContext(ctx, "action completion updated")
	return nil
}

func mapActionRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrConflict) {
		return ErrIndexOutOfRange
	}
	return err
}
