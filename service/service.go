package service

import (
	"context"

	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-registration/command"
	"github.com/goliatone/go-registration/pkg/types"
	"github.com/goliatone/go-registration/query"
)

// Service is the entry point for go-registration. It wires the stores,
// validator, mailer and notifier supplied by the host application into the
// registration command and its read-side queries.
type Service struct {
	cfg      Config
	commands Commands
	queries  Queries
}

// Commands exposes the service command handlers.
type Commands struct {
	Registration *command.UserRegistrationCommand
}

// Queries exposes read-model helpers.
type Queries struct {
	Account  *query.AccountQuery
	RoleList *query.RoleListQuery
	Activity *query.ActivityQuery
}

// Config captures all required dependencies so callers can provide their own
// instances (bun-backed stores, cached settings, brokers, etc.).
type Config struct {
	UserStore          types.UserStore
	RoleRegistry       types.RoleRegistry
	Validator          types.Validator
	Notifier           types.Notifier
	Mailer             types.Mailer
	Settings           types.SettingsStore
	Presenter          types.FormPresenter
	Translator         types.Translator
	Passwords          types.PasswordGenerator
	ActivitySink       types.ActivitySink
	ActivityRepository query.ActivityLister
	FeatureGate        featuregate.FeatureGate
	Clock              types.Clock
	Logger             types.Logger
}

// New constructs a Service from the supplied configuration.
func New(cfg Config) *Service {
	norm := normalizeConfig(cfg)
	s := &Service{cfg: norm}
	s.commands = s.buildCommands()
	s.queries = s.buildQueries()
	return s
}

func normalizeConfig(cfg Config) Config {
	if cfg.Clock == nil {
		cfg.Clock = types.SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = types.NopLogger{}
	}
	if cfg.ActivityRepository == nil {
		if lister, ok := cfg.ActivitySink.(query.ActivityLister); ok {
			cfg.ActivityRepository = lister
		}
	}
	return cfg
}

// Commands returns the command facade.
func (s *Service) Commands() Commands {
	return s.commands
}

// Queries returns the query facade.
func (s *Service) Queries() Queries {
	return s.queries
}

// ShowForm renders the registration form for listener.
func (s *Service) ShowForm(ctx context.Context, listener types.Listener) error {
	if s == nil || s.commands.Registration == nil {
		return types.ErrServiceNotReady
	}
	return s.commands.Registration.ShowForm(ctx, listener)
}

// Register creates an account from input and reports the outcome to listener.
func (s *Service) Register(ctx context.Context, input types.RegistrationInput, listener types.Listener) error {
	if s == nil || s.commands.Registration == nil {
		return types.ErrServiceNotReady
	}
	return s.commands.Registration.Execute(ctx, command.UserRegistrationInput{
		Input:    input,
		Listener: listener,
	})
}

// Ready reports whether the service has the required dependencies wired in.
func (s *Service) Ready() bool {
	return s != nil &&
		s.cfg.UserStore != nil &&
		s.cfg.Validator != nil &&
		s.cfg.Mailer != nil
}

// HealthCheck surfaces the first missing dependency.
func (s *Service) HealthCheck(context.Context) error {
	if s == nil {
		return types.ErrServiceNotReady
	}
	if s.cfg.UserStore == nil {
		return types.ErrMissingUserStore
	}
	if s.cfg.Validator == nil {
		return types.ErrMissingValidator
	}
	if s.cfg.Mailer == nil {
		return types.ErrMissingMailer
	}
	return nil
}

// ActivitySink returns the configured sink so transports can emit activity
// records for auxiliary workflows.
func (s *Service) ActivitySink() types.ActivitySink {
	if s == nil {
		return nil
	}
	return s.cfg.ActivitySink
}

func (s *Service) buildCommands() Commands {
	return Commands{
		Registration: command.NewUserRegistrationCommand(command.RegistrationConfig{
			Store:       s.cfg.UserStore,
			Validator:   s.cfg.Validator,
			Notifier:    s.cfg.Notifier,
			Mailer:      s.cfg.Mailer,
			Settings:    s.cfg.Settings,
			Presenter:   s.cfg.Presenter,
			Translator:  s.cfg.Translator,
			Passwords:   s.cfg.Passwords,
			Activity:    s.cfg.ActivitySink,
			FeatureGate: s.cfg.FeatureGate,
			Clock:       s.cfg.Clock,
			Logger:      s.cfg.Logger,
		}),
	}
}

func (s *Service) buildQueries() Queries {
	return Queries{
		Account:  query.NewAccountQuery(s.cfg.UserStore, s.cfg.Logger),
		RoleList: query.NewRoleListQuery(s.cfg.RoleRegistry),
		Activity: query.NewActivityQuery(s.cfg.ActivityRepository),
	}
}
