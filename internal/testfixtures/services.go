package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/seminar-coordinator/internal/application"
)

// ServiceFactory builds application services with deterministic clocks and
// identifier sequences so tests can assert on exact values.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// SpeakerServiceDeps captures the collaborators of a speaker service.
type SpeakerServiceDeps struct {
	Speakers       application.SpeakerRepository
	Dates          application.DateAllocator
	Agendas        application.AgendaScheduler
	Mailer         application.Mailer
	TokenIssuer    func() string
	ResponseWindow time.Duration
	BaseURL        string
	Logger         *slog.Logger
}

// NewSpeakerService builds a lifecycle service from the supplied
// dependencies combined with the factory defaults.
func (f *ServiceFactory) NewSpeakerService(deps SpeakerServiceDeps) *application.SpeakerService {
	tokenIssuer := deps.TokenIssuer
	if tokenIssuer == nil {
		tokenIssuer = f.IDGenerator.NextFunc()
	}
	return application.NewSpeakerService(application.SpeakerServiceConfig{
		Speakers:       deps.Speakers,
		Dates:          deps.Dates,
		Agendas:        deps.Agendas,
		Mailer:         deps.Mailer,
		IDGenerator:    f.IDGenerator.NextFunc(),
		TokenIssuer:    tokenIssuer,
		Now:            f.Clock.NowFunc(),
		ResponseWindow: deps.ResponseWindow,
		BaseURL:        deps.BaseURL,
		Logger:         deps.Logger,
	})
}

// DateServiceDeps captures the collaborators of a date service.
type DateServiceDeps struct {
	Dates     application.DateRepository
	CacheTTL  time.Duration
	CacheSize int
	Logger    *slog.Logger
}

// NewDateService builds an allocation engine from the supplied
// dependencies.
func (f *ServiceFactory) NewDateService(deps DateServiceDeps) *application.DateService {
	return application.NewDateService(
		deps.Dates,
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		deps.CacheTTL,
		deps.CacheSize,
		deps.Logger,
	)
}

// NewAgendaService builds an agenda service over the supplied repository.
func (f *ServiceFactory) NewAgendaService(agendas application.AgendaRepository, logger *slog.Logger) *application.AgendaService {
	return application.NewAgendaService(agendas, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), logger)
}

// NewActionLogService builds an action log service over the supplied
// repository.
func (f *ServiceFactory) NewActionLogService(actions application.ActionLogRepository, logger *slog.Logger) *application.ActionLogService {
	return application.NewActionLogService(actions, f.Clock.NowFunc(), logger)
}

// AuthServiceDeps captures the collaborators of an auth service.
type AuthServiceDeps struct {
	Credentials application.CredentialStore
	Sessions    application.SessionStore
	TokenIssuer func() string
	SessionTTL  time.Duration
	Logger      *slog.Logger
}

// NewAuthService builds an auth service from the supplied dependencies.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) *application.AuthService {
	tokenIssuer := deps.TokenIssuer
	if tokenIssuer == nil {
		tokenIssuer = f.IDGenerator.NextFunc()
	}
	return application.NewAuthService(
		deps.Credentials,
		deps.Sessions,
		tokenIssuer,
		f.Clock.NowFunc(),
		deps.SessionTTL,
		deps.Logger,
	)
}

// UserServiceDeps captures the collaborators of a user service.
type UserServiceDeps struct {
	Users       application.UserStore
	Invites     application.SignupInviteStore
	TokenIssuer func() string
	Logger      *slog.Logger
}

// NewUserService builds a user service from the supplied dependencies.
func (f *ServiceFactory) NewUserService(deps UserServiceDeps) *application.UserService {
	tokenIssuer := deps.TokenIssuer
	if tokenIssuer == nil {
		tokenIssuer = f.IDGenerator.NextFunc()
	}
	return application.NewUserService(
		deps.Users,
		deps.Invites,
		f.IDGenerator.NextFunc(),
		tokenIssuer,
		f.Clock.NowFunc(),
		deps.Logger,
	)
}
