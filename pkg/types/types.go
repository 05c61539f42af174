package types

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserStatus enumerates the account states a registration can produce.
type UserStatus string

const (
	UserStatusActive  UserStatus = "active"
	UserStatusPending UserStatus = "pending"
)

// RoleID identifies a role row. Role ids are integers so hosts can configure
// the member role by number.
type RoleID int64

// DefaultMemberRoleID is assigned when the settings store has no roles.member entry.
const DefaultMemberRoleID RoleID = 2

// DefaultSiteName is used in mail payloads when site.name is not configured.
const DefaultSiteName = "Orchestra Platform"

// Settings keys read by the registration workflow.
const (
	SettingRoleMember = "roles.member"
	SettingSiteName   = "site.name"
	SettingEmailQueue = "email.queue"
)

// User is the storage-agnostic account representation. Password carries the
// generated plaintext between the workflow and the store; it is never persisted
// or serialized.
type User struct {
	ID           uuid.UUID
	Email        string
	Fullname     string
	Password     string `json:"-"`
	PasswordHash string `json:"-"`
	Status       UserStatus
	Roles        []RoleID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	if len(u.Roles) > 0 {
		out.Roles = append([]RoleID(nil), u.Roles...)
	}
	return &out
}

// Role describes a row of the roles table.
type Role struct {
	ID        RoleID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RegistrationInput is the user supplied part of a registration. The password
// is always generated server side.
type RegistrationInput struct {
	Email    string
	Fullname string
}

// Normalize trims surrounding whitespace from every field.
func (in RegistrationInput) Normalize() RegistrationInput {
	return RegistrationInput{
		Email:    strings.TrimSpace(in.Email),
		Fullname: strings.TrimSpace(in.Fullname),
	}
}

// FieldErrors maps an input field to its validation messages.
type FieldErrors map[string][]string

// Add appends a message for the field.
func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

// HasErrors reports whether any field failed.
func (f FieldErrors) HasErrors() bool {
	for _, msgs := range f {
		if len(msgs) > 0 {
			return true
		}
	}
	return false
}

// First returns the first message recorded for field.
func (f FieldErrors) First(field string) string {
	if msgs := f[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Fields returns the failing field names.
func (f FieldErrors) Fields() []string {
	out := make([]string, 0, len(f))
	for field, msgs := range f {
		if len(msgs) > 0 {
			out = append(out, field)
		}
	}
	return out
}

// Validator checks registration input against a named rule set.
type Validator interface {
	Validate(ctx context.Context, ruleset string, input RegistrationInput) (FieldErrors, error)
}

// UserWriter exposes the write operations available inside a store transaction.
type UserWriter interface {
	Save(ctx context.Context, user *User) error
	SyncRoles(ctx context.Context, user *User, roles []RoleID) error
}

// UserStore persists accounts. Transaction commits every write performed
// through the UserWriter when fn returns nil and rolls all of them back otherwise.
type UserStore interface {
	NewUser() *User
	Transaction(ctx context.Context, fn func(ctx context.Context, tx UserWriter) error) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
}

// RoleRegistry exposes read access to the configured roles.
type RoleRegistry interface {
	GetRole(ctx context.Context, id RoleID) (*Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
}

// Notifier broadcasts named lifecycle events. Publishing never fails the caller.
type Notifier interface {
	Publish(ctx context.Context, topic string, payload ...any)
}

// SettingsStore is a keyed configuration source with fallbacks.
type SettingsStore interface {
	Get(ctx context.Context, key string, fallback any) any
}

// PasswordGenerator produces the initial credential of a new account.
type PasswordGenerator interface {
	Generate() (string, error)
}

// PasswordHasher hashes credentials before they reach storage.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// Translator resolves localized strings. Params replace positional placeholders.
type Translator interface {
	Translate(key string, params ...string) string
}

// ActivityRecord describes an audit entry.
type ActivityRecord struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Verb       string
	ObjectType string
	ObjectID   string
	Channel    string
	Data       map[string]any
	OccurredAt time.Time
}

// ActivitySink is the minimal contract for emitting activity.
type ActivitySink interface {
	Log(context.Context, ActivityRecord) error
}

// Clock abstracts time retrieval for deterministic testing.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID creation.
type IDGenerator interface {
	UUID() uuid.UUID
}

// Logger captures basic logging hooks used by the service.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Error(msg string, err error, fields ...any)
}

// SystemClock defers to time.Now for production usage.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator produces UUIDv4 identifiers.
type UUIDGenerator struct{}

// UUID returns a randomly generated UUID.
func (UUIDGenerator) UUID() uuid.UUID { return uuid.New() }

// NopLogger discards all log lines.
type NopLogger struct{}

// Debug implements Logger.
func (NopLogger) Debug(string, ...any) {}

// Info implements Logger.
func (NopLogger) Info(string, ...any) {}

// Error implements Logger.
func (NopLogger) Error(string, error, ...any) {}

var (
	// ErrServiceNotReady indicates the service has not been properly configured.
	ErrServiceNotReady = errors.New("go-registration: service not ready")
	// ErrMissingUserStore indicates no user store was configured.
	ErrMissingUserStore = errors.New("go-registration: missing user store")
	// ErrMissingValidator indicates no validator was configured.
	ErrMissingValidator = errors.New("go-registration: missing validator")
	// ErrMissingListener indicates the caller did not supply a listener.
	ErrMissingListener = errors.New("go-registration: missing listener")
	// ErrMissingMailer indicates no mailer was configured.
	ErrMissingMailer = errors.New("go-registration: missing mailer")
	// ErrUserNotFound indicates the requested account does not exist.
	ErrUserNotFound = errors.New("go-registration: user not found")
	// ErrRoleNotFound indicates a role id has no matching row.
	ErrRoleNotFound = errors.New("go-registration: role not found")
)
