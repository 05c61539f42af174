package registry

import (
	"time"

	"github.com/goliatone/go-registration/pkg/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role represents the schema stored in roles.
type Role struct {
	bun.BaseModel `bun:"table:roles"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Name      string    `bun:"name,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// UserRole represents rows from user_roles.
type UserRole struct {
	bun.BaseModel `bun:"table:user_roles"`

	UserID    uuid.UUID `bun:"user_id,type:uuid,pk"`
	RoleID    int64     `bun:"role_id,pk"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

// DefaultRoles are seeded by EnsureDefaults and the roles migration.
var DefaultRoles = []types.Role{
	{ID: 1, Name: "Administrator"},
	{ID: types.DefaultMemberRoleID, Name: "Member"},
}

func toDomain(role *Role) *types.Role {
	if role == nil {
		return nil
	}
	return &types.Role{
		ID:        types.RoleID(role.ID),
		Name:      role.Name,
		CreatedAt: role.CreatedAt,
		UpdatedAt: role.UpdatedAt,
	}
}
