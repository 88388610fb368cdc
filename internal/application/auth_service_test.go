package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/seminar-coordinator/internal/persistence"
)

// fastArgon2idParams keeps credential tests quick; decoded parameters
// travel inside the hash so verification still exercises the real path.
var fastArgon2idParams = Argon2idParams{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  8,
	KeyLength:   16,
}

type credentialStoreStub struct {
	users  map[string]User
	hashes map[string]string
}

func newCredentialStoreStub() *credentialStoreStub {
	return &credentialStoreStub{users: make(map[string]User), hashes: make(map[string]string)}
}

func (c *credentialStoreStub) addUser(user User, passwordHash string) {
	c.users[user.ID] = user
	c.hashes[user.Email] = passwordHash
}

func (c *credentialStoreStub) GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error) {
	hash, ok := c.hashes[email]
	if !ok {
		return UserCredentials{}, persistence.ErrNotFound
	}
	for _, user := range c.users {
		if user.Email == email {
			return UserCredentials{User: user, PasswordHash: hash}, nil
		}
	}
	return UserCredentials{}, persistence.ErrNotFound
}

func (c *credentialStoreStub) GetUser(ctx context.Context, id string) (User, error) {
	user, ok := c.users[id]
	if !ok {
		return User{}, persistence.ErrNotFound
	}
	return user, nil
}

type sessionStoreStub struct {
	sessions map[string]Session
	pruned   int
}

func newSessionStoreStub(sessions ...Session) *sessionStoreStub {
	stub := &sessionStoreStub{sessions: make(map[string]Session)}
	for _, session := range sessions {
		stub.sessions[session.Token] = session
	}
	return stub
}

func (s *sessionStoreStub) CreateSession(ctx context.Context, session Session) (Session, error) {
	s.sessions[session.Token] = session
	return session, nil
}

func (s *sessionStoreStub) GetSession(ctx context.Context, token string) (Session, error) {
	session, ok := s.sessions[token]
	if !ok {
		return Session{}, persistence.ErrNotFound
	}
	return session, nil
}

func (s *sessionStoreStub) RevokeSession(ctx context.Context, token string, revokedAt time.Time) error {
	session, ok := s.sessions[token]
	if !ok {
		return persistence.ErrNotFound
	}
	session.RevokedAt = &revokedAt
	s.sessions[token] = session
	return nil
}

func (s *sessionStoreStub) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	s.pruned++
	for token, session := range s.sessions {
		if !session.ExpiresAt.After(reference) {
			delete(s.sessions, token)
		}
	}
	return nil
}

func newTestAuthService(t *testing.T, sessions *sessionStoreStub) (*AuthService, *credentialStoreStub) {
	t.Helper()

	hash, err := CreatePasswordHash("correct horse", fastArgon2idParams)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	creds := newCredentialStoreStub()
	creds.addUser(User{ID: "user-1", Email: "organizer@example.com", DisplayName: "Organizer One", Role: RoleOrganizer}, hash)

	counter := 0
	tokenIssuer := func() string {
		counter++
		return [...]string{"session-id-1", "session-token-1", "session-id-2", "session-token-2"}[counter-1]
	}
	svc := NewAuthService(creds, sessions, tokenIssuer, func() time.Time { return testBaseTime }, time.Hour, nil)
	return svc, creds
}

func TestAuthService_Authenticate_IssuesSession(t *testing.T) {
	t.Parallel()

	sessions := newSessionStoreStub()
	svc, _ := newTestAuthService(t, sessions)

	session, err := svc.Authenticate(context.Background(), "  Organizer@Example.com ", "correct horse")
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}

	if session.UserID != "user-1" {
		t.Errorf("expected session for user-1, got %q", session.UserID)
	}
	if session.Token != "session-token-1" {
		t.Errorf("expected issued token, got %q", session.Token)
	}
	wantExpiry := testBaseTime.Add(time.Hour)
	if !session.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("expected expiry %v, got %v", wantExpiry, session.ExpiresAt)
	}
	if sessions.pruned != 1 {
		t.Errorf("expected expired sessions pruned before issue, got %d prunes", sessions.pruned)
	}
}

func TestAuthService_Authenticate_RejectsBadCredentials(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{name: "wrong password", email: "organizer@example.com", password: "incorrect"},
		{name: "unknown email", email: "nobody@example.com", password: "correct horse"},
		{name: "blank email", email: "", password: "correct horse"},
		{name: "blank password", email: "organizer@example.com", password: ""},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc, _ := newTestAuthService(t, newSessionStoreStub())
			if _, err := svc.Authenticate(context.Background(), tc.email, tc.password); !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestAuthService_ValidateSession_ReturnsPrincipal(t *testing.T) {
	t.Parallel()

	sessions := newSessionStoreStub(Session{
		ID:        "session-1",
		UserID:    "user-1",
		Token:     "live-token",
		ExpiresAt: testBaseTime.Add(time.Hour),
	})
	svc, _ := newTestAuthService(t, sessions)

	principal, err := svc.ValidateSession(context.Background(), "live-token")
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if principal.UserID != "user-1" || principal.Role != RoleOrganizer || principal.DisplayName != "Organizer One" {
		t.Errorf("unexpected principal %+v", principal)
	}
}

func TestAuthService_ValidateSession_Failures(t *testing.T) {
	t.Parallel()

	revokedAt := testBaseTime.Add(-time.Minute)
	sessions := newSessionStoreStub(
		Session{ID: "session-1", UserID: "user-1", Token: "expired-token", ExpiresAt: testBaseTime.Add(-time.Minute)},
		Session{ID: "session-2", UserID: "user-1", Token: "revoked-token", ExpiresAt: testBaseTime.Add(time.Hour), RevokedAt: &revokedAt},
		Session{ID: "session-3", UserID: "ghost", Token: "orphan-token", ExpiresAt: testBaseTime.Add(time.Hour)},
	)
	svc, _ := newTestAuthService(t, sessions)

	cases := []struct {
		name  string
		token string
		want  error
	}{
		{name: "blank token", token: "  ", want: ErrInvalidCredentials},
		{name: "unknown token", token: "missing", want: ErrInvalidCredentials},
		{name: "expired session", token: "expired-token", want: ErrSessionExpired},
		{name: "revoked session", token: "revoked-token", want: ErrInvalidCredentials},
		{name: "deleted user", token: "orphan-token", want: ErrInvalidCredentials},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, err := svc.ValidateSession(context.Background(), tc.token); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestAuthService_RevokeSession(t *testing.T) {
	t.Parallel()

	sessions := newSessionStoreStub(Session{
		ID:        "session-1",
		UserID:    "user-1",
		Token:     "live-token",
		ExpiresAt: testBaseTime.Add(time.Hour),
	})
	svc, _ := newTestAuthService(t, sessions)

	if err := svc.RevokeSession(context.Background(), "live-token"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if _, err := svc.ValidateSession(context.Background(), "live-token"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected revoked token to be rejected, got %v", err)
	}

	if err := svc.RevokeSession(context.Background(), "missing"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown token, got %v", err)
	}
}
