package command

import (
	"context"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-registration/locale"
	"github.com/goliatone/go-registration/pkg/types"
	"github.com/goliatone/go-registration/presenter"
	"github.com/goliatone/go-registration/settings"
)

const (
	// RuleSetRegister names the validation rules applied to signups.
	RuleSetRegister = "register"
	// FormActionRegister is the action the registration form submits to.
	FormActionRegister = "register"
)

// UserRegistrationInput carries a signup request.
type UserRegistrationInput struct {
	Input    types.RegistrationInput
	Listener types.Listener
	Result   *types.User
}

// Type implements gocommand.Message.
func (UserRegistrationInput) Type() string {
	return "command.user.registration"
}

// Validate implements gocommand.Message.
func (input UserRegistrationInput) Validate() error {
	if input.Listener == nil {
		return ErrListenerRequired
	}
	return nil
}

// RegistrationConfig wires dependencies for the registration command.
type RegistrationConfig struct {
	Store       types.UserStore
	Validator   types.Validator
	Notifier    types.Notifier
	Mailer      types.Mailer
	Settings    types.SettingsStore
	Presenter   types.FormPresenter
	Translator  types.Translator
	Passwords   types.PasswordGenerator
	Activity    types.ActivitySink
	FeatureGate featuregate.FeatureGate
	Clock       types.Clock
	Logger      types.Logger
}

// UserRegistrationCommand renders the signup form and creates accounts.
type UserRegistrationCommand struct {
	store       types.UserStore
	validator   types.Validator
	notifier    types.Notifier
	mailer      types.Mailer
	settings    types.SettingsStore
	presenter   types.FormPresenter
	translator  types.Translator
	passwords   types.PasswordGenerator
	sink        types.ActivitySink
	featureGate featuregate.FeatureGate
	clock       types.Clock
	logger      types.Logger
}

// NewUserRegistrationCommand constructs the registration handler.
func NewUserRegistrationCommand(cfg RegistrationConfig) *UserRegistrationCommand {
	translator := safeTranslator(cfg.Translator)
	formPresenter := cfg.Presenter
	if formPresenter == nil {
		formPresenter = presenter.NewAccount(translator)
	}
	passwords := cfg.Passwords
	if passwords == nil {
		passwords = RandomPasswordGenerator{Length: DefaultPasswordLength}
	}
	return &UserRegistrationCommand{
		store:       cfg.Store,
		validator:   cfg.Validator,
		notifier:    safeNotifier(cfg.Notifier),
		mailer:      cfg.Mailer,
		settings:    cfg.Settings,
		presenter:   formPresenter,
		translator:  translator,
		passwords:   passwords,
		sink:        cfg.Activity,
		featureGate: cfg.FeatureGate,
		clock:       safeClock(cfg.Clock),
		logger:      safeLogger(cfg.Logger),
	}
}

var _ gocommand.Commander[UserRegistrationInput] = (*UserRegistrationCommand)(nil)

// ShowForm publishes the account form and hands it to the listener.
func (c *UserRegistrationCommand) ShowForm(ctx context.Context, listener types.Listener) error {
	if c.store == nil {
		return types.ErrMissingUserStore
	}
	if listener == nil {
		return ErrListenerRequired
	}

	user := c.store.NewUser()
	title := c.translator.Translate(locale.KeyRegisterTitle)
	form := c.presenter.Profile(user, FormActionRegister).Extend(func(form *types.Form) {
		form.Submit = title
	})

	c.notifier.Publish(ctx, types.EventFormUserAccount, user, form)
	listener.IndexSucceed(ctx, types.FormView{User: user, Form: form})
	return nil
}

// Execute validates the input, creates the account with its default role and
// sends the credential email. Exactly one outcome reaches the listener.
func (c *UserRegistrationCommand) Execute(ctx context.Context, input UserRegistrationInput) error {
	switch {
	case c.store == nil:
		return types.ErrMissingUserStore
	case c.validator == nil:
		return types.ErrMissingValidator
	case c.mailer == nil:
		return types.ErrMissingMailer
	}
	if err := input.Validate(); err != nil {
		return err
	}
	listener := input.Listener
	in := input.Input.Normalize()

	enabled, err := featureEnabled(ctx, c.featureGate, featureUsersSignup)
	if err != nil {
		c.reportFailure(ctx, listener, err, in)
		return nil
	}
	if !enabled {
		c.reportFailure(ctx, listener, ErrSignupDisabled, in)
		return nil
	}

	password, err := c.passwords.Generate()
	if err != nil {
		c.reportFailure(ctx, listener, fmt.Errorf("generate password: %w", err), in)
		return nil
	}

	fieldErrors, err := c.validator.Validate(ctx, RuleSetRegister, in)
	if err != nil {
		c.reportFailure(ctx, listener, err, in)
		return nil
	}
	if fieldErrors.HasErrors() {
		c.logger.Debug("registration input rejected", "error", ValidationError(fieldErrors), "email", in.Email)
		listener.CreateValidationFailed(ctx, fieldErrors)
		return nil
	}

	user, err := c.createUser(ctx, in, password)
	if err != nil {
		c.reportFailure(ctx, listener, err, in)
		return nil
	}

	notified := c.sendRegistrationEmail(ctx, listener, user, password)
	c.logRegistration(ctx, user, notified)

	if input.Result != nil {
		*input.Result = *user.Clone()
	}
	return nil
}

// createUser saves the account and syncs its default role in one
// transaction. The post-write hooks fire only after commit. A panic raised by
// the store is returned as an error.
func (c *UserRegistrationCommand) createUser(ctx context.Context, in types.RegistrationInput, password string) (user *types.User, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			user = nil
			err = fmt.Errorf("create user: %v", rec)
		}
	}()

	user = c.store.NewUser()
	if user == nil {
		user = &types.User{}
	}
	user.Email = in.Email
	user.Fullname = in.Fullname
	user.Password = password
	if user.Status == "" {
		user.Status = types.UserStatusActive
	}
	role := c.defaultRole(ctx)

	c.notifier.Publish(ctx, types.EventCreatingUserAccount, user)
	c.notifier.Publish(ctx, types.EventSavingUserAccount, user)

	err = c.store.Transaction(ctx, func(ctx context.Context, tx types.UserWriter) error {
		if err := tx.Save(ctx, user); err != nil {
			return err
		}
		return tx.SyncRoles(ctx, user, []types.RoleID{role})
	})
	if err != nil {
		return nil, err
	}

	c.notifier.Publish(ctx, types.EventCreatedUserAccount, user)
	c.notifier.Publish(ctx, types.EventSavedUserAccount, user)
	return user, nil
}

func (c *UserRegistrationCommand) defaultRole(ctx context.Context) types.RoleID {
	id := settings.Int64(ctx, c.settings, types.SettingRoleMember, int64(types.DefaultMemberRoleID))
	if id <= 0 {
		return types.DefaultMemberRoleID
	}
	return types.RoleID(id)
}

func (c *UserRegistrationCommand) reportFailure(ctx context.Context, listener types.Listener, err error, in types.RegistrationInput) {
	wrapped := creationError(err, map[string]any{"email": in.Email})
	c.logger.Error("user registration failed", wrapped, "email", in.Email)
	listener.CreateFailed(ctx, types.FailureView{Error: err.Error()})
}

func (c *UserRegistrationCommand) logRegistration(ctx context.Context, user *types.User, notified bool) {
	logActivity(ctx, c.sink, c.logger, types.ActivityRecord{
		UserID:     user.ID,
		Verb:       "user.registered",
		ObjectType: "user",
		ObjectID:   user.ID.String(),
		Channel:    "registration",
		Data: map[string]any{
			"email":    user.Email,
			"fullname": user.Fullname,
			"roles":    user.Roles,
			"notified": notified,
		},
		OccurredAt: now(c.clock),
	})
}
