package settings

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-registration/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrKeyRequired indicates a blank settings key.
var ErrKeyRequired = errors.New("settings: key required")

// RepositoryConfig wires dependencies for the Bun-backed settings table.
type RepositoryConfig struct {
	DB         *bun.DB
	Repository repository.Repository[*Record]
	Clock      types.Clock
	IDGen      types.IDGenerator
}

type recordStore interface {
	repository.Repository[*Record]
}

// Repository reads and writes settings rows.
type Repository struct {
	recordStore
	clock types.Clock
	idGen types.IDGenerator
}

var _ repository.Repository[*Record] = (*Repository)(nil)

// NewRepository constructs the settings repository. WithCache wraps the
// underlying repository with go-repository-cache.
func NewRepository(cfg RepositoryConfig, options ...RepositoryOption) (*Repository, error) {
	if cfg.Repository == nil && cfg.DB == nil {
		return nil, errors.New("settings: db or repository required")
	}
	repo := cfg.Repository
	if repo == nil {
		repo = repository.NewRepository(cfg.DB, repository.ModelHandlers[*Record]{
			NewRecord: func() *Record { return &Record{} },
			GetID: func(rec *Record) uuid.UUID {
				if rec == nil {
					return uuid.Nil
				}
				return rec.ID
			},
			SetID: func(rec *Record, id uuid.UUID) {
				if rec != nil {
					rec.ID = id
				}
			},
		})
	}

	opts := applyRepositoryOptions(options)
	if opts.CacheEnabled {
		if _, cached := repo.(*repositorycache.CachedRepository[*Record]); !cached {
			cfg := cache.DefaultConfig()
			if opts.CacheConfig != nil {
				cfg = *opts.CacheConfig
			}
			cacheService, err := cache.NewCacheService(cfg)
			if err != nil {
				return nil, err
			}
			repo = repositorycache.New(repo, cacheService, cache.NewDefaultKeySerializer())
		}
	}

	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	idGen := cfg.IDGen
	if idGen == nil {
		idGen = types.UUIDGenerator{}
	}
	return &Repository{
		recordStore: repo,
		clock:       clock,
		idGen:       idGen,
	}, nil
}

// ListSettings returns the stored entries, optionally restricted to keys.
func (r *Repository) ListSettings(ctx context.Context, keys ...string) ([]Entry, error) {
	normalized := normalizeKeys(keys)
	rows, _, err := r.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		q = q.OrderExpr("key ASC")
		if len(normalized) > 0 {
			q = q.Where("lower(key) IN (?)", bun.In(normalized))
		}
		return q
	})
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, toEntry(row))
	}
	return out, nil
}

// UpsertSetting inserts key or bumps the version of the existing row.
func (r *Repository) UpsertSetting(ctx context.Context, key string, value any) (*Entry, error) {
	key = strings.TrimSpace(key)
	now := r.clock.Now()
	existing, err := r.findExisting(ctx, key)
	switch {
	case err == nil && existing != nil:
		existing.Value = map[string]any{valueField: value}
		existing.Version++
		existing.UpdatedAt = now
		updated, err := r.Update(ctx, existing)
		if err != nil {
			return nil, err
		}
		entry := toEntry(updated)
		return &entry, nil
	case repository.IsRecordNotFound(err):
		created, err := r.Create(ctx, &Record{
			ID:        r.idGen.UUID(),
			Key:       key,
			Value:     map[string]any{valueField: value},
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return nil, err
		}
		entry := toEntry(created)
		return &entry, nil
	default:
		return nil, err
	}
}

// DeleteSetting removes key.
func (r *Repository) DeleteSetting(ctx context.Context, key string) error {
	existing, err := r.findExisting(ctx, key)
	if err != nil {
		return err
	}
	return r.Delete(ctx, existing)
}

func (r *Repository) findExisting(ctx context.Context, key string) (*Record, error) {
	lowerKey := strings.ToLower(strings.TrimSpace(key))
	if lowerKey == "" {
		return nil, ErrKeyRequired
	}
	rows, _, err := r.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("lower(key) = ?", lowerKey).Limit(1)
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repository.NewRecordNotFound()
	}
	return rows[0], nil
}

func normalizeKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if key = strings.ToLower(strings.TrimSpace(key)); key != "" {
			out = append(out, key)
		}
	}
	return out
}
