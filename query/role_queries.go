package query

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-registration/pkg/types"
)

var errMissingRoleRegistry = errors.New("go-registration: missing role registry")

// RoleListInput requests the role catalog.
type RoleListInput struct{}

// Type implements gocommand.Message.
func (RoleListInput) Type() string {
	return "query.role.list"
}

// Validate implements gocommand.Message.
func (RoleListInput) Validate() error {
	return nil
}

// RoleListQuery lists the roles a registration can be assigned.
type RoleListQuery struct {
	registry types.RoleRegistry
}

// NewRoleListQuery builds the list query.
func NewRoleListQuery(registry types.RoleRegistry) *RoleListQuery {
	return &RoleListQuery{registry: registry}
}

var _ gocommand.Querier[RoleListInput, []types.Role] = (*RoleListQuery)(nil)

// Query forwards to the registry.
func (q *RoleListQuery) Query(ctx context.Context, _ RoleListInput) ([]types.Role, error) {
	if q.registry == nil {
		return nil, errMissingRoleRegistry
	}
	return q.registry.ListRoles(ctx)
}
