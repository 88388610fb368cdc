package sqlite_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/seminar-coordinator/internal/application"
	"github.com/example/seminar-coordinator/internal/persistence"
	"github.com/example/seminar-coordinator/internal/testfixtures"
)

func TestSignupInviteRepository_RoundTrip(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	fixture := testfixtures.NewInviteFixture(testfixtures.WithInviteRole(application.RoleOrganizer))
	if err := harness.Invites.CreateSignupInvite(ctx, fixture.Persistence()); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := harness.Invites.GetSignupInvite(ctx, fixture.Token)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Email != fixture.Email || got.Role != string(application.RoleOrganizer) || got.CreatedBy != fixture.CreatedBy {
		t.Errorf("unexpected invite %+v", got)
	}
	if !got.ExpiresAt.Equal(fixture.ExpiresAt) || got.ClaimedAt != nil {
		t.Errorf("expected an open invite expiring at %v, got %+v", fixture.ExpiresAt, got)
	}

	if _, err := harness.Invites.GetSignupInvite(ctx, "unknown-token"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSignupInviteRepository_DuplicateToken(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	first := testfixtures.NewInviteFixture(testfixtures.WithInviteToken("shared-token"))
	second := testfixtures.NewInviteFixture(testfixtures.WithInviteToken("shared-token"))

	if err := harness.Invites.CreateSignupInvite(ctx, first.Persistence()); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := harness.Invites.CreateSignupInvite(ctx, second.Persistence()); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestSignupInviteRepository_Claim(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	fixture := testfixtures.NewInviteFixture()
	if err := harness.Invites.CreateSignupInvite(ctx, fixture.Persistence()); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	claimedAt := testfixtures.ReferenceTime().Add(time.Hour)
	if err := harness.Invites.ClaimSignupInvite(ctx, fixture.Token, "user-9", claimedAt); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	got, err := harness.Invites.GetSignupInvite(ctx, fixture.Token)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ClaimedAt == nil || !got.ClaimedAt.Equal(claimedAt) || got.ClaimedBy != "user-9" {
		t.Errorf("expected invite claimed by user-9 at %v, got %+v", claimedAt, got)
	}

	if err := harness.Invites.ClaimSignupInvite(ctx, fixture.Token, "user-10", claimedAt.Add(time.Minute)); !errors.Is(err, persistence.ErrConflict) {
		t.Errorf("expected ErrConflict on a second claim, got %v", err)
	}
	if err := harness.Invites.ClaimSignupInvite(ctx, "unknown-token", "user-9", claimedAt); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSignupInviteRepository_ConcurrentClaimsSingleWinner(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	fixture := testfixtures.NewInviteFixture()
	if err := harness.Invites.CreateSignupInvite(ctx, fixture.Persistence()); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	const contenders = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			err := harness.Invites.ClaimSignupInvite(ctx, fixture.Token, userID, time.Now())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, persistence.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(testfixtures.NewUserFixture().ID)
	}
	wg.Wait()

	if wins != 1 || conflicts != contenders-1 {
		t.Fatalf("expected exactly one winner, got %d wins and %d conflicts", wins, conflicts)
	}
}
