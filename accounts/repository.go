package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-registration/pkg/types"
	"github.com/goliatone/go-registration/registry"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	// ErrEmailTaken indicates another account already uses the email.
	ErrEmailTaken = errors.New("go-registration: email already registered")
	// ErrPasswordRequired indicates a new account has neither password nor hash.
	ErrPasswordRequired = errors.New("go-registration: password required")
)

// RepositoryConfig wires dependencies for the Bun-backed user store.
type RepositoryConfig struct {
	DB         *bun.DB
	Repository repository.Repository[*User]
	Hasher     types.PasswordHasher
	Clock      types.Clock
	IDGen      types.IDGenerator
	Logger     types.Logger
}

// Repository implements types.UserStore.
type Repository struct {
	db     *bun.DB
	users  repository.Repository[*User]
	hasher types.PasswordHasher
	clock  types.Clock
	idGen  types.IDGenerator
	logger types.Logger
}

var _ types.UserStore = (*Repository)(nil)

// NewRepository constructs the default user store.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.DB == nil {
		return nil, errors.New("accounts: db required")
	}
	users := cfg.Repository
	if users == nil {
		users = repository.NewRepository(cfg.DB, repository.ModelHandlers[*User]{
			NewRecord: func() *User { return &User{} },
			GetID: func(rec *User) uuid.UUID {
				if rec == nil {
					return uuid.Nil
				}
				return rec.ID
			},
			SetID: func(rec *User, id uuid.UUID) {
				if rec != nil {
					rec.ID = id
				}
			},
		})
	}
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = NewBcryptHasher(0)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	idGen := cfg.IDGen
	if idGen == nil {
		idGen = types.UUIDGenerator{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &Repository{
		db:     cfg.DB,
		users:  users,
		hasher: hasher,
		clock:  clock,
		idGen:  idGen,
		logger: logger,
	}, nil
}

// NewUser returns an empty active account used to bind forms.
func (r *Repository) NewUser() *types.User {
	return &types.User{Status: types.UserStatusActive}
}

// Transaction runs fn inside a database transaction. Any error or panic from
// fn rolls back every write made through the supplied writer.
func (r *Repository) Transaction(ctx context.Context, fn func(ctx context.Context, tx types.UserWriter) error) error {
	if fn == nil {
		return nil
	}
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("accounts: transaction aborted: %v", rec)
			}
		}()
		return fn(ctx, &txWriter{repo: r, tx: tx})
	})
}

// GetByEmail looks up an account by email, ignoring case.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*types.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, types.ErrUserNotFound
	}
	return r.findOne(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("lower(email) = ?", strings.ToLower(email)).Limit(1)
	})
}

// GetByID looks up an account by id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*types.User, error) {
	if id == uuid.Nil {
		return nil, types.ErrUserNotFound
	}
	return r.findOne(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("id = ?", id).Limit(1)
	})
}

// EmailExists reports whether an account already uses email.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, types.ErrUserNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (r *Repository) findOne(ctx context.Context, criteria repository.SelectCriteria) (*types.User, error) {
	rows, _, err := r.users.List(ctx, criteria)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, types.ErrUserNotFound
		}
		return nil, err
	}
	if len(rows) == 0 {
		return nil, types.ErrUserNotFound
	}
	roles, err := registry.RolesForUser(ctx, r.db, rows[0].ID)
	if err != nil {
		return nil, err
	}
	return toDomain(rows[0], roles), nil
}

type txWriter struct {
	repo *Repository
	tx   bun.Tx
}

// Save inserts new accounts and updates existing ones. A transient plaintext
// password is hashed and cleared before the row is written.
func (w *txWriter) Save(ctx context.Context, user *types.User) error {
	if user == nil {
		return errors.New("accounts: user required")
	}
	if user.Password != "" {
		hash, err := w.repo.hasher.Hash(user.Password)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
		user.Password = ""
	}
	now := w.repo.clock.Now()
	user.Email = strings.TrimSpace(user.Email)
	user.Fullname = strings.TrimSpace(user.Fullname)
	user.UpdatedAt = now

	if user.ID == uuid.Nil {
		if user.PasswordHash == "" {
			return ErrPasswordRequired
		}
		user.ID = w.repo.idGen.UUID()
		user.CreatedAt = now
		if user.Status == "" {
			user.Status = types.UserStatusActive
		}
		if _, err := w.tx.NewInsert().Model(fromDomain(user)).Exec(ctx); err != nil {
			if repository.IsDuplicatedKey(err) {
				return ErrEmailTaken
			}
			return err
		}
		w.repo.logger.Debug("account inserted", "user_id", user.ID)
		return nil
	}

	columns := []string{"email", "fullname", "status", "updated_at"}
	if user.PasswordHash != "" {
		columns = append(columns, "password_hash")
	}
	res, err := w.tx.NewUpdate().
		Model(fromDomain(user)).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if repository.IsDuplicatedKey(err) {
			return ErrEmailTaken
		}
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return types.ErrUserNotFound
	}
	return nil
}

// SyncRoles replaces the account's role assignments.
func (w *txWriter) SyncRoles(ctx context.Context, user *types.User, roles []types.RoleID) error {
	if user == nil || user.ID == uuid.Nil {
		return errors.New("accounts: saved user required for role sync")
	}
	if err := registry.SyncAssignments(ctx, w.tx, w.repo.clock, user.ID, roles); err != nil {
		return err
	}
	user.Roles = append([]types.RoleID(nil), roles...)
	return nil
}
