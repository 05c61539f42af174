package registry

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-registration/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RoleRegistryConfig configures the Bun-backed role registry.
type RoleRegistryConfig struct {
	DB     *bun.DB
	Roles  repository.Repository[*Role]
	Clock  types.Clock
	Logger types.Logger
}

// RoleRegistry persists roles and their user assignments.
type RoleRegistry struct {
	db     *bun.DB
	roles  repository.Repository[*Role]
	clock  types.Clock
	logger types.Logger
}

var _ types.RoleRegistry = (*RoleRegistry)(nil)

// NewRoleRegistry constructs the default registry. DB is required because
// assignments are written with raw queries inside caller transactions.
func NewRoleRegistry(cfg RoleRegistryConfig) (*RoleRegistry, error) {
	if cfg.DB == nil {
		return nil, errors.New("bun role registry: db must be provided")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	rolesRepo := cfg.Roles
	if rolesRepo == nil {
		// integer keyed rows: the repository never assigns ids
		rolesRepo = repository.NewRepository(cfg.DB, repository.ModelHandlers[*Role]{
			NewRecord: func() *Role { return &Role{} },
			GetID: func(*Role) uuid.UUID {
				return uuid.Nil
			},
			SetID: func(*Role, uuid.UUID) {},
		})
	}
	return &RoleRegistry{
		db:     cfg.DB,
		roles:  rolesRepo,
		clock:  clock,
		logger: logger,
	}, nil
}

// CreateRole inserts a role with the next available id.
func (r *RoleRegistry) CreateRole(ctx context.Context, name string) (*types.Role, error) {
	name = normalizeRoleName(name)
	if name == "" {
		return nil, errors.New("role name required")
	}
	now := r.clock.Now()
	role := &Role{
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.db.NewInsert().Model(role).Exec(ctx); err != nil {
		return nil, err
	}
	r.logger.Info("role created", "role_id", role.ID, "name", role.Name)
	return toDomain(role), nil
}

// GetRole returns the role with the given id or types.ErrRoleNotFound.
func (r *RoleRegistry) GetRole(ctx context.Context, id types.RoleID) (*types.Role, error) {
	rows, _, err := r.roles.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("id = ?", int64(id)).Limit(1)
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, types.ErrRoleNotFound
	}
	return toDomain(rows[0]), nil
}

// ListRoles returns every role ordered by id.
func (r *RoleRegistry) ListRoles(ctx context.Context) ([]types.Role, error) {
	rows, _, err := r.roles.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr("id ASC")
	})
	if err != nil {
		return nil, err
	}
	out := make([]types.Role, 0, len(rows))
	for _, row := range rows {
		out = append(out, *toDomain(row))
	}
	return out, nil
}

// EnsureDefaults seeds DefaultRoles, leaving existing rows untouched.
func (r *RoleRegistry) EnsureDefaults(ctx context.Context) error {
	now := r.clock.Now()
	rows := make([]*Role, 0, len(DefaultRoles))
	for _, role := range DefaultRoles {
		rows = append(rows, &Role{
			ID:        int64(role.ID),
			Name:      role.Name,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	_, err := r.db.NewInsert().Model(&rows).On("CONFLICT (id) DO NOTHING").Exec(ctx)
	return err
}

// RolesForUser lists the role ids assigned to userID.
func (r *RoleRegistry) RolesForUser(ctx context.Context, userID uuid.UUID) ([]types.RoleID, error) {
	return RolesForUser(ctx, r.db, userID)
}

// RolesForUser lists the role ids assigned to userID using db, which may be a
// transaction.
func RolesForUser(ctx context.Context, db bun.IDB, userID uuid.UUID) ([]types.RoleID, error) {
	var ids []int64
	err := db.NewSelect().
		Model((*UserRole)(nil)).
		Column("role_id").
		Where("user_id = ?", userID).
		OrderExpr("role_id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	out := make([]types.RoleID, 0, len(ids))
	for _, id := range ids {
		out = append(out, types.RoleID(id))
	}
	return out, nil
}

// SyncAssignments replaces the role set of userID with roles. Every role must
// exist; the first missing one aborts with types.ErrRoleNotFound and nothing is
// written. Callers pass a transaction to make the swap atomic.
func SyncAssignments(ctx context.Context, db bun.IDB, clock types.Clock, userID uuid.UUID, roles []types.RoleID) error {
	if userID == uuid.Nil {
		return errors.New("role sync: user id required")
	}
	if clock == nil {
		clock = types.SystemClock{}
	}
	ids := dedupeRoles(roles)
	for _, id := range ids {
		exists, err := db.NewSelect().Model((*Role)(nil)).Where("id = ?", id).Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return types.ErrRoleNotFound
		}
	}

	if _, err := db.NewDelete().Model((*UserRole)(nil)).Where("user_id = ?", userID).Exec(ctx); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	now := clock.Now()
	rows := make([]*UserRole, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, &UserRole{UserID: userID, RoleID: id, CreatedAt: now})
	}
	_, err := db.NewInsert().Model(&rows).Exec(ctx)
	return err
}

func dedupeRoles(roles []types.RoleID) []int64 {
	seen := make(map[types.RoleID]struct{}, len(roles))
	out := make([]int64, 0, len(roles))
	for _, id := range roles {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, int64(id))
	}
	return out
}

func normalizeRoleName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
