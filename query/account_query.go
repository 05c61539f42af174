package query

import (
	"context"
	"errors"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-registration/pkg/types"
	"github.com/google/uuid"
)

// ErrAccountIdentifierRequired indicates neither id nor email was supplied.
var ErrAccountIdentifierRequired = errors.New("go-registration: account id or email required")

// AccountInput looks up one account. ID wins when both are set.
type AccountInput struct {
	ID    uuid.UUID
	Email string
}

// Type implements gocommand.Message.
func (AccountInput) Type() string {
	return "query.account.detail"
}

// Validate implements gocommand.Message.
func (input AccountInput) Validate() error {
	if input.ID == uuid.Nil && strings.TrimSpace(input.Email) == "" {
		return ErrAccountIdentifierRequired
	}
	return nil
}

// AccountQuery fetches registered accounts with their role ids.
type AccountQuery struct {
	store  types.UserStore
	logger types.Logger
}

// NewAccountQuery constructs the account query.
func NewAccountQuery(store types.UserStore, logger types.Logger) *AccountQuery {
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &AccountQuery{store: store, logger: logger}
}

var _ gocommand.Querier[AccountInput, *types.User] = (*AccountQuery)(nil)

// Query returns the account or types.ErrUserNotFound.
func (q *AccountQuery) Query(ctx context.Context, input AccountInput) (*types.User, error) {
	if q.store == nil {
		return nil, types.ErrMissingUserStore
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if input.ID != uuid.Nil {
		return q.store.GetByID(ctx, input.ID)
	}
	return q.store.GetByEmail(ctx, strings.TrimSpace(input.Email))
}
