package accounts

import (
	"time"

	"github.com/goliatone/go-registration/pkg/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User models the users row.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	Email        string    `bun:"email,notnull"`
	Fullname     string    `bun:"fullname,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Status       string    `bun:"status,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

func fromDomain(user *types.User) *User {
	if user == nil {
		return nil
	}
	status := user.Status
	if status == "" {
		status = types.UserStatusActive
	}
	return &User{
		ID:           user.ID,
		Email:        user.Email,
		Fullname:     user.Fullname,
		PasswordHash: user.PasswordHash,
		Status:       string(status),
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toDomain(record *User, roles []types.RoleID) *types.User {
	if record == nil {
		return nil
	}
	return &types.User{
		ID:           record.ID,
		Email:        record.Email,
		Fullname:     record.Fullname,
		PasswordHash: record.PasswordHash,
		Status:       types.UserStatus(record.Status),
		Roles:        roles,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}
}
