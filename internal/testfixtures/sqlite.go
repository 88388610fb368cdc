package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/seminar-coordinator/internal/persistence"
	"github.com/example/seminar-coordinator/internal/persistence/sqlite"
)

// SQLiteHarness exposes repositories backed by a temporary migrated SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Pool     *sqlite.ConnectionPool
	Speakers persistence.SpeakerRepository
	Dates    persistence.DateRepository
	Agendas  persistence.AgendaRepository
	Users    persistence.UserRepository
	Sessions persistence.SessionRepository
	Invites  persistence.SignupInviteRepository

	cleanup func()
}

// Close releases the database behind the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens a database file under the test's temp dir, runs
// the migrations and wires every repository. Cleanup is registered with tb,
// calling Close explicitly is optional.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "coordinator.db")
	pool, err := sqlite.NewConnectionPool("file:" + path)
	if err != nil {
		tb.Fatalf("failed to open database: %v", err)
	}

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate database: %v", err)
	}

	harness := &SQLiteHarness{
		Pool:     pool,
		Speakers: sqlite.NewSpeakerRepository(pool),
		Dates:    sqlite.NewDateRepository(pool),
		Agendas:  sqlite.NewAgendaRepository(pool),
		Users:    sqlite.NewUserRepository(pool),
		Sessions: sqlite.NewSessionRepository(pool),
		Invites:  sqlite.NewSignupInviteRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
