// Package validation implements named rule sets on top of
// go-playground/validator. Field messages are translated through the locale
// catalog so they can be shown next to form inputs.
package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/goliatone/go-registration/locale"
	"github.com/goliatone/go-registration/pkg/types"
)

// RuleSetRegister is applied to self-service registrations.
const RuleSetRegister = "register"

const tagUniqueEmail = "unique_email"

// ErrUnknownRuleSet is returned for rule set names nobody registered.
var ErrUnknownRuleSet = errors.New("validation: unknown rule set")

// EmailChecker reports whether an email is already registered.
type EmailChecker interface {
	EmailExists(ctx context.Context, email string) (bool, error)
}

// RuleSet maps registration input onto a struct carrying validate tags.
type RuleSet func(types.RegistrationInput) any

type registerRules struct {
	Email    string `json:"email" validate:"required,email,max=255,unique_email"`
	Fullname string `json:"fullname" validate:"required,max=100"`
}

// Config wires the validator.
type Config struct {
	Translator *locale.Translator
	Emails     EmailChecker
	Logger     types.Logger
}

// Validator implements types.Validator.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
	emails   EmailChecker
	logger   types.Logger

	mu       sync.RWMutex
	ruleSets map[string]RuleSet
}

var _ types.Validator = (*Validator)(nil)

// New constructs a validator with the register rule set installed.
func New(cfg Config) (*Validator, error) {
	translator := cfg.Translator
	if translator == nil {
		var err error
		translator, err = locale.New(nil)
		if err != nil {
			return nil, err
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}

	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		trans:    translator.Universal(),
		emails:   cfg.Emails,
		logger:   logger,
		ruleSets: make(map[string]RuleSet),
	}
	v.validate.RegisterTagNameFunc(jsonFieldName)
	if err := v.validate.RegisterValidationCtx(tagUniqueEmail, v.uniqueEmail); err != nil {
		return nil, err
	}
	if err := en_translations.RegisterDefaultTranslations(v.validate, v.trans); err != nil {
		return nil, fmt.Errorf("validation: register translations: %w", err)
	}
	err := v.validate.RegisterTranslation(tagUniqueEmail, v.trans,
		func(ut.Translator) error { return nil },
		func(trans ut.Translator, fe validator.FieldError) string {
			msg, err := trans.T(locale.KeyEmailTaken, fe.Field())
			if err != nil {
				return fe.Field() + " has already been taken"
			}
			return msg
		})
	if err != nil {
		return nil, err
	}

	v.RegisterRuleSet(RuleSetRegister, func(in types.RegistrationInput) any {
		return &registerRules{Email: in.Email, Fullname: in.Fullname}
	})
	return v, nil
}

// RegisterRuleSet installs or replaces a named rule set.
func (v *Validator) RegisterRuleSet(name string, rules RuleSet) {
	if rules == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ruleSets[name] = rules
}

// Validate checks input against ruleset. Failing fields are returned keyed by
// their input name; the error is reserved for misconfiguration.
func (v *Validator) Validate(ctx context.Context, ruleset string, input types.RegistrationInput) (types.FieldErrors, error) {
	v.mu.RLock()
	rules, ok := v.ruleSets[ruleset]
	v.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRuleSet, ruleset)
	}

	err := v.validate.StructCtx(ctx, rules(input.Normalize()))
	if err == nil {
		return nil, nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, err
	}
	out := types.FieldErrors{}
	for _, fe := range fieldErrs {
		out.Add(fe.Field(), fe.Translate(v.trans))
	}
	return out, nil
}

func (v *Validator) uniqueEmail(ctx context.Context, fl validator.FieldLevel) bool {
	if v.emails == nil {
		return true
	}
	email := strings.TrimSpace(fl.Field().String())
	if email == "" {
		return true
	}
	exists, err := v.emails.EmailExists(ctx, email)
	if err != nil {
		// the unique index still guards the insert
		v.logger.Error("email uniqueness lookup failed", err)
		return true
	}
	return !exists
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}
