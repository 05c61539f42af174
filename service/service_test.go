package service_test

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-registration/accounts"
	"github.com/goliatone/go-registration/activity"
	"github.com/goliatone/go-registration/events"
	"github.com/goliatone/go-registration/locale"
	"github.com/goliatone/go-registration/mailer"
	"github.com/goliatone/go-registration/pkg/types"
	"github.com/goliatone/go-registration/query"
	"github.com/goliatone/go-registration/registry"
	"github.com/goliatone/go-registration/service"
	"github.com/goliatone/go-registration/settings"
	"github.com/goliatone/go-registration/validation"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"golang.org/x/crypto/bcrypt"
)

func TestService_RegistersAndNotifies(t *testing.T) {
	ctx := context.Background()
	env := newServiceEnv(t, true)
	listener := &types.OutcomeRecorder{}

	require.NoError(t, env.svc.Register(ctx, types.RegistrationInput{
		Email:    "ada@example.com",
		Fullname: "Ada Lovelace",
	}, listener))
	require.Equal(t, types.OutcomeCreated, listener.Outcome())

	account, err := env.svc.Queries().Account.Query(ctx, query.AccountInput{Email: "ada@example.com"})
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", account.Fullname)
	require.Equal(t, []types.RoleID{types.DefaultMemberRoleID}, account.Roles)

	require.Len(t, env.transport.messages, 1)
	msg := env.transport.messages[0]
	require.Equal(t, "Your account credentials on Orchestra Platform", msg.Subject)
	require.Equal(t, []types.Address{{Email: "ada@example.com", Name: "Ada Lovelace"}}, msg.To)
	require.Contains(t, msg.TextBody, "ada@example.com")

	require.Equal(t, []string{
		types.EventCreatingUserAccount,
		types.EventSavingUserAccount,
		types.EventCreatedUserAccount,
		types.EventSavedUserAccount,
	}, env.topics())

	records, err := env.svc.Queries().Activity.Query(ctx, query.ActivityInput{
		Filter: activity.Filter{UserID: account.ID},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "user.registered", records[0].Verb)
	require.Equal(t, true, records[0].Data["notified"])
}

func TestService_RejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	env := newServiceEnv(t, true)

	first := &types.OutcomeRecorder{}
	require.NoError(t, env.svc.Register(ctx, types.RegistrationInput{Email: "grace@example.com", Fullname: "Grace"}, first))
	require.Equal(t, types.OutcomeCreated, first.Outcome())

	second := &types.OutcomeRecorder{}
	require.NoError(t, env.svc.Register(ctx, types.RegistrationInput{Email: "GRACE@example.com", Fullname: "Grace"}, second))
	require.Equal(t, types.OutcomeValidationFailed, second.Outcome())
	require.NotEmpty(t, second.Errors().First("email"))
	require.Len(t, env.transport.messages, 1)
}

func TestService_UnknownMemberRoleLeavesNoAccount(t *testing.T) {
	ctx := context.Background()
	env := newServiceEnv(t, true)
	require.NoError(t, env.settings.Put(ctx, types.SettingRoleMember, 99))

	listener := &types.OutcomeRecorder{}
	require.NoError(t, env.svc.Register(ctx, types.RegistrationInput{Email: "ada@example.com", Fullname: "Ada"}, listener))

	require.Equal(t, types.OutcomeCreationFailed, listener.Outcome())
	require.NotEmpty(t, listener.Failure().Error)
	_, err := env.svc.Queries().Account.Query(ctx, query.AccountInput{Email: "ada@example.com"})
	require.ErrorIs(t, err, types.ErrUserNotFound)
	require.Empty(t, env.transport.messages)
}

func TestService_QueuedMailCountsAsNotified(t *testing.T) {
	ctx := context.Background()
	env := newServiceEnv(t, true)
	require.NoError(t, env.settings.Put(ctx, types.SettingEmailQueue, true))

	listener := &types.OutcomeRecorder{}
	require.NoError(t, env.svc.Register(ctx, types.RegistrationInput{Email: "ada@example.com", Fullname: "Ada"}, listener))

	require.Equal(t, types.OutcomeCreated, listener.Outcome())
	require.Empty(t, env.transport.messages)
	require.Len(t, env.queue.messages, 1)
}

func TestService_WithoutTransportReportsWithoutNotification(t *testing.T) {
	ctx := context.Background()
	env := newServiceEnv(t, false)

	listener := &types.OutcomeRecorder{}
	require.NoError(t, env.svc.Register(ctx, types.RegistrationInput{Email: "ada@example.com", Fullname: "Ada"}, listener))

	require.Equal(t, types.OutcomeCreatedWithoutNotification, listener.Outcome())
}

func TestService_ShowForm(t *testing.T) {
	env := newServiceEnv(t, true)
	listener := &types.OutcomeRecorder{}

	require.NoError(t, env.svc.ShowForm(context.Background(), listener))
	require.Equal(t, types.OutcomeFormRendered, listener.Outcome())
	require.Equal(t, "Register", listener.View().Form.Submit)
	require.Equal(t, []string{types.EventFormUserAccount}, env.topics())
}

func TestService_HealthCheck(t *testing.T) {
	require.ErrorIs(t, service.New(service.Config{}).HealthCheck(context.Background()), types.ErrMissingUserStore)
	require.False(t, service.New(service.Config{}).Ready())

	env := newServiceEnv(t, true)
	require.True(t, env.svc.Ready())
	require.NoError(t, env.svc.HealthCheck(context.Background()))

	roles, err := env.svc.Queries().RoleList.Query(context.Background(), query.RoleListInput{})
	require.NoError(t, err)
	require.Len(t, roles, 2)
}

type serviceEnv struct {
	svc       *service.Service
	settings  *settings.Store
	transport *recordingTransport
	queue     *recordingQueue

	mu     sync.Mutex
	events []string
}

func (e *serviceEnv) topics() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.events...)
}

func newServiceEnv(t *testing.T, withTransport bool) *serviceEnv {
	t.Helper()
	db := newTestDB(t)
	for _, name := range []string{"00001_users.up.sql", "00002_roles.up.sql", "00003_settings.up.sql", "00004_user_activity.up.sql"} {
		applyMigration(t, db, name)
	}
	clock := fixedClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	store, err := accounts.NewRepository(accounts.RepositoryConfig{
		DB:     db,
		Hasher: accounts.NewBcryptHasher(bcrypt.MinCost),
		Clock:  clock,
	})
	require.NoError(t, err)

	roles, err := registry.NewRoleRegistry(registry.RoleRegistryConfig{DB: db, Clock: clock})
	require.NoError(t, err)

	settingsRepo, err := settings.NewRepository(settings.RepositoryConfig{DB: db, Clock: clock})
	require.NoError(t, err)
	settingsStore := settings.NewStore(settings.StoreConfig{
		Repository: settingsRepo,
		Defaults:   map[string]any{types.SettingSiteName: types.DefaultSiteName},
	})

	translator := locale.Must(nil)
	validator, err := validation.New(validation.Config{Translator: translator, Emails: store})
	require.NoError(t, err)

	env := &serviceEnv{
		settings: settingsStore,
		queue:    &recordingQueue{},
	}
	mailCfg := mailer.Config{
		Queue:    env.queue,
		Settings: settingsStore,
		From:     types.Address{Email: "noreply@example.com"},
		Clock:    clock,
	}
	if withTransport {
		env.transport = &recordingTransport{}
		mailCfg.Transport = env.transport
	} else {
		env.transport = &recordingTransport{}
	}
	mail, err := mailer.New(mailCfg)
	require.NoError(t, err)

	bus := events.NewBus(nil)
	bus.Subscribe(events.Wildcard, func(_ context.Context, event events.Event) error {
		env.mu.Lock()
		defer env.mu.Unlock()
		env.events = append(env.events, event.Topic)
		return nil
	})

	activityRepo, err := activity.NewRepository(activity.RepositoryConfig{
		DB:     db,
		Masker: activity.DefaultMasker(),
		Clock:  clock,
	})
	require.NoError(t, err)

	env.svc = service.New(service.Config{
		UserStore:    store,
		RoleRegistry: roles,
		Validator:    validator,
		Notifier:     bus,
		Mailer:       mail,
		Settings:     settingsStore,
		Translator:   translator,
		ActivitySink: activityRepo,
		Clock:        clock,
	})
	return env
}

type recordingTransport struct {
	messages []*types.Message
}

func (r *recordingTransport) Name() string { return "recording" }

func (r *recordingTransport) Send(_ context.Context, msg *types.Message) error {
	r.messages = append(r.messages, msg)
	return nil
}

type recordingQueue struct {
	messages []*types.Message
}

func (r *recordingQueue) Enqueue(_ context.Context, msg *types.Message) error {
	r.messages = append(r.messages, msg)
	return nil
}

type fixedClock struct {
	t time.Time
}

func (f fixedClock) Now() time.Time {
	return f.t
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
		_ = sqldb.Close()
	})
	return db
}

func applyMigration(t *testing.T, db *bun.DB, name string) {
	t.Helper()
	content, err := os.ReadFile("../data/sql/migrations/sqlite/" + name)
	require.NoError(t, err)
	for _, stmt := range strings.Split(string(content), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
}
