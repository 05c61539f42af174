package main

import (
	"context"
	"database/sql"
	"strings"
	"time"

	gconfig "github.com/goliatone/go-config/config"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-print"
	registration "github.com/goliatone/go-registration"
	"github.com/goliatone/go-registration/accounts"
	"github.com/goliatone/go-registration/activity"
	"github.com/goliatone/go-registration/cmd/registration/config"
	"github.com/goliatone/go-registration/events"
	"github.com/goliatone/go-registration/locale"
	"github.com/goliatone/go-registration/mailer"
	"github.com/goliatone/go-registration/mailer/rabbitmq"
	"github.com/goliatone/go-registration/migrations"
	"github.com/goliatone/go-registration/pkg/types"
	"github.com/goliatone/go-registration/registry"
	"github.com/goliatone/go-registration/settings"
	"github.com/goliatone/go-registration/validation"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// App holds the wired runtime of the CLI.
type App struct {
	config    *gconfig.Container[*config.BaseConfig]
	logger    *glog.BaseLogger
	db        *bun.DB
	publisher *rabbitmq.Publisher
	mailer    *mailer.Mailer
	service   *registration.Service
}

// NewApp loads configuration, migrates the database and wires the service.
// A non-empty dsn overrides persistence.server.
func NewApp(ctx context.Context, dsn string) (*App, error) {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Info),
		glog.WithName("registration"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(goerrors.ToSlogAttributes),
	)

	cfg := gconfig.New(&config.BaseConfig{
		Persistence: config.PersistenceConfig{
			Driver:         "sqlite",
			Server:         "file:registration.db?_journal_mode=WAL&_fk=1",
			PingTimeout:    5 * time.Second,
			OtelIdentifier: "go-registration",
		},
		Mail: config.MailConfig{
			Transport: "log",
			Port:      587,
			FromEmail: "noreply@example.com",
			FromName:  types.DefaultSiteName,
		},
		Broker: config.BrokerConfig{
			Exchange:   rabbitmq.DefaultExchange,
			Queue:      rabbitmq.DefaultQueue,
			RoutingKey: rabbitmq.DefaultRoutingKey,
		},
		Registration: config.RegistrationConfig{
			SiteName:      types.DefaultSiteName,
			MemberRoleID:  int64(types.DefaultMemberRoleID),
			SignupEnabled: true,
			CacheSettings: true,
		},
	}).WithLogger(lgr.GetLogger("config"))

	if err := cfg.Load(ctx); err != nil {
		return nil, err
	}
	if dsn != "" {
		cfg.Raw().Persistence.Server = dsn
	}
	if err := cfg.Raw().Validate(); err != nil {
		return nil, err
	}

	app := &App{config: cfg, logger: lgr}
	if masked, err := activity.DefaultMasker().Mask(cfg.Raw()); err == nil {
		app.GetLogger("config").Debug("configuration loaded", "config", print.MaybeHighlightJSON(masked))
	}

	if err := app.withPersistence(ctx); err != nil {
		return nil, err
	}
	if err := app.withService(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// Config returns the loaded configuration.
func (a *App) Config() *config.BaseConfig {
	return a.config.Raw()
}

// GetLogger returns a named glog logger.
func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

// Logger returns a named logger for library components.
func (a *App) Logger(name string) types.Logger {
	return &loggerAdapter{a.GetLogger(name)}
}

// Close releases the broker connection and the database.
func (a *App) Close() {
	if a.publisher != nil {
		_ = a.publisher.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) withPersistence(ctx context.Context) error {
	cfg := a.Config().GetPersistence()
	dsn := cfg.GetServer()
	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}

	db, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return err
	}

	persistence.RegisterModel((*accounts.User)(nil))
	persistence.RegisterModel((*registry.Role)(nil))
	persistence.RegisterModel((*registry.UserRole)(nil))
	persistence.RegisterModel((*settings.Record)(nil))
	persistence.RegisterModel((*activity.LogEntry)(nil))

	client, err := persistence.New(cfg, db, sqlitedialect.New())
	if err != nil {
		return err
	}
	client.SetLogger(a.GetLogger("persistence"))

	for _, fsys := range migrations.Filesystems() {
		client.RegisterDialectMigrations(
			fsys,
			persistence.WithDialectSourceLabel("."),
			persistence.WithValidationTargets("postgres", "sqlite"),
		)
	}
	if err := client.ValidateDialects(ctx); err != nil {
		a.GetLogger("persistence").Warn("dialect validation failed", "error", err)
	}
	if err := client.Migrate(ctx); err != nil {
		return err
	}
	if report := client.Report(); report != nil && !report.IsZero() {
		a.GetLogger("persistence").Info("migrations applied", "report", report.String())
	}

	a.db = client.DB()
	return migrations.ValidateSchema(ctx, a.db.DB, "sqlite")
}

func (a *App) withService(ctx context.Context) error {
	raw := a.Config()
	logger := a.Logger("registration")

	store, err := accounts.NewRepository(accounts.RepositoryConfig{
		DB:     a.db,
		Logger: a.Logger("accounts"),
	})
	if err != nil {
		return err
	}

	roles, err := registry.NewRoleRegistry(registry.RoleRegistryConfig{
		DB:     a.db,
		Logger: a.Logger("roles"),
	})
	if err != nil {
		return err
	}
	if err := roles.EnsureDefaults(ctx); err != nil {
		return err
	}

	settingsRepo, err := settings.NewRepository(
		settings.RepositoryConfig{DB: a.db},
		settings.WithCache(raw.Registration.CacheSettings),
	)
	if err != nil {
		return err
	}
	settingsStore := settings.NewStore(settings.StoreConfig{
		Repository: settingsRepo,
		Defaults: map[string]any{
			types.SettingSiteName:   raw.Registration.SiteName,
			types.SettingRoleMember: raw.Registration.MemberRoleID,
			types.SettingEmailQueue: raw.Registration.EmailQueue,
		},
		Logger: a.Logger("settings"),
	})

	translator, err := locale.New(nil)
	if err != nil {
		return err
	}
	validator, err := validation.New(validation.Config{
		Translator: translator,
		Emails:     store,
		Logger:     a.Logger("validation"),
	})
	if err != nil {
		return err
	}

	transport, err := newTransport(raw.Mail, a.Logger("mail"))
	if err != nil {
		return err
	}
	mailCfg := mailer.Config{
		Transport: transport,
		Settings:  settingsStore,
		From:      types.Address{Email: raw.Mail.FromEmail, Name: raw.Mail.FromName},
		Logger:    a.Logger("mail"),
	}
	if raw.Broker.URL != "" {
		publisher, err := rabbitmq.NewPublisher(raw.Broker.URL, brokerOptions(raw.Broker))
		if err != nil {
			return err
		}
		a.publisher = publisher
		mailCfg.Queue = publisher
	}
	mail, err := mailer.New(mailCfg)
	if err != nil {
		return err
	}
	a.mailer = mail

	bus := events.NewBus(a.Logger("events"))
	trace := a.GetLogger("events")
	bus.Subscribe(events.Wildcard, func(_ context.Context, event events.Event) error {
		if user := event.User(); user != nil {
			trace.Debug("event published", "topic", event.Topic, "email", user.Email)
			return nil
		}
		trace.Debug("event published", "topic", event.Topic)
		return nil
	})

	activityRepo, err := activity.NewRepository(activity.RepositoryConfig{
		DB:     a.db,
		Masker: activity.DefaultMasker(),
	})
	if err != nil {
		return err
	}

	svc := registration.New(registration.Config{
		UserStore:    store,
		RoleRegistry: roles,
		Validator:    validator,
		Notifier:     bus,
		Mailer:       mail,
		Settings:     settingsStore,
		Translator:   translator,
		ActivitySink: activityRepo,
		FeatureGate:  newConfigGate(raw.Registration.SignupEnabled),
		Logger:       logger,
	})
	if err := svc.HealthCheck(ctx); err != nil {
		return err
	}
	a.service = svc
	return nil
}

func newTransport(cfg config.MailConfig, logger types.Logger) (mailer.Transport, error) {
	switch strings.ToLower(cfg.Transport) {
	case "smtp":
		transport, err := mailer.NewSMTPTransport(mailer.SMTPConfig{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Username: cfg.Username,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, err
		}
		return transport, nil
	case "none":
		return nil, nil
	default:
		return mailer.NewLogTransport(logger), nil
	}
}

func brokerOptions(cfg config.BrokerConfig) rabbitmq.Options {
	return rabbitmq.Options{
		Exchange:   cfg.Exchange,
		RoutingKey: cfg.RoutingKey,
		Queue:      cfg.Queue,
	}
}
