package types

import (
	"context"
	"sync"
)

// Account lifecycle events published by the registration workflow.
const (
	EventFormUserAccount     = "form: user.account"
	EventCreatingUserAccount = "creating: user.account"
	EventSavingUserAccount   = "saving: user.account"
	EventCreatedUserAccount  = "created: user.account"
	EventSavedUserAccount    = "saved: user.account"
)

// FormField describes one input of a form descriptor.
type FormField struct {
	Name     string
	Label    string
	Type     string
	Required bool
}

// Form is a presentation-agnostic descriptor bound to a user model.
type Form struct {
	Name       string
	Action     string
	Model      *User
	Fields     []FormField
	Submit     string
	Attributes map[string]string
}

// Extend applies fn to the form and returns it for chaining.
func (f *Form) Extend(fn func(*Form)) *Form {
	if f != nil && fn != nil {
		fn(f)
	}
	return f
}

// Field returns the named field.
func (f *Form) Field(name string) (FormField, bool) {
	if f == nil {
		return FormField{}, false
	}
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return FormField{}, false
}

// FormPresenter builds form descriptors for account screens.
type FormPresenter interface {
	Profile(user *User, action string) *Form
}

// FormView is handed to the listener when the registration form is ready.
type FormView struct {
	User *User
	Form *Form
}

// FailureView carries the message of a failed creation.
type FailureView struct {
	Error string
}

// Listener receives the single outcome of a registration request.
type Listener interface {
	IndexSucceed(ctx context.Context, view FormView)
	CreateValidationFailed(ctx context.Context, errors FieldErrors)
	CreateFailed(ctx context.Context, failure FailureView)
	CreateSucceed(ctx context.Context)
	CreateSucceedWithoutNotification(ctx context.Context)
}

// Outcome names the result reported to a listener.
type Outcome string

const (
	OutcomeNone                       Outcome = ""
	OutcomeFormRendered               Outcome = "form_rendered"
	OutcomeValidationFailed           Outcome = "validation_failed"
	OutcomeCreated                    Outcome = "created"
	OutcomeCreatedWithoutNotification Outcome = "created_without_notification"
	OutcomeCreationFailed             Outcome = "creation_failed"
)

// OutcomeRecorder is a Listener that keeps whatever it was told.
type OutcomeRecorder struct {
	mu      sync.Mutex
	outcome Outcome
	calls   int
	view    FormView
	errors  FieldErrors
	failure FailureView
}

var _ Listener = (*OutcomeRecorder)(nil)

// IndexSucceed implements Listener.
func (r *OutcomeRecorder) IndexSucceed(_ context.Context, view FormView) {
	r.record(OutcomeFormRendered, func() { r.view = view })
}

// CreateValidationFailed implements Listener.
func (r *OutcomeRecorder) CreateValidationFailed(_ context.Context, errors FieldErrors) {
	r.record(OutcomeValidationFailed, func() { r.errors = errors })
}

// CreateFailed implements Listener.
func (r *OutcomeRecorder) CreateFailed(_ context.Context, failure FailureView) {
	r.record(OutcomeCreationFailed, func() { r.failure = failure })
}

// CreateSucceed implements Listener.
func (r *OutcomeRecorder) CreateSucceed(context.Context) {
	r.record(OutcomeCreated, nil)
}

// CreateSucceedWithoutNotification implements Listener.
func (r *OutcomeRecorder) CreateSucceedWithoutNotification(context.Context) {
	r.record(OutcomeCreatedWithoutNotification, nil)
}

func (r *OutcomeRecorder) record(outcome Outcome, apply func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcome = outcome
	r.calls++
	if apply != nil {
		apply()
	}
}

// Outcome returns the last reported outcome.
func (r *OutcomeRecorder) Outcome() Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcome
}

// Calls returns how many outcomes were reported.
func (r *OutcomeRecorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// View returns the form view from IndexSucceed.
func (r *OutcomeRecorder) View() FormView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view
}

// Errors returns the field errors from CreateValidationFailed.
func (r *OutcomeRecorder) Errors() FieldErrors {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errors
}

// Failure returns the failure from CreateFailed.
func (r *OutcomeRecorder) Failure() FailureView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failure
}
