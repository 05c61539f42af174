package settings

import (
	"context"
	"errors"

	opts "github.com/goliatone/go-options"
	"github.com/goliatone/go-registration/pkg/types"
)

// EntryRepository is the persistence contract used by Store.
type EntryRepository interface {
	ListSettings(ctx context.Context, keys ...string) ([]Entry, error)
	UpsertSetting(ctx context.Context, key string, value any) (*Entry, error)
	DeleteSetting(ctx context.Context, key string) error
}

// StoreConfig wires the settings store.
type StoreConfig struct {
	Repository EntryRepository
	Defaults   map[string]any
	Logger     types.Logger
}

// Store resolves settings by merging persisted entries over defaults.
type Store struct {
	repo     EntryRepository
	defaults map[string]any
	logger   types.Logger
}

var _ types.SettingsStore = (*Store)(nil)

// NewStore constructs a settings store. A nil repository yields a store that
// only serves defaults.
func NewStore(cfg StoreConfig) *Store {
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &Store{
		repo:     cfg.Repository,
		defaults: cloneMap(cfg.Defaults),
		logger:   logger,
	}
}

// Get returns the effective value of key, or fallback when it is unset or the
// lookup fails.
func (s *Store) Get(ctx context.Context, key string, fallback any) any {
	snapshot, err := s.Snapshot(ctx, key)
	if err != nil {
		s.logger.Error("settings lookup failed", err, "key", key)
		return fallback
	}
	value, ok := snapshot[key]
	if !ok || value == nil {
		return fallback
	}
	return value
}

// Snapshot merges defaults and persisted entries. When keys are given only
// those keys are loaded from storage.
func (s *Store) Snapshot(ctx context.Context, keys ...string) (map[string]any, error) {
	persisted := make(map[string]any)
	if s.repo != nil {
		entries, err := s.repo.ListSettings(ctx, keys...)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.Value != nil {
				persisted[entry.Key] = entry.Value
			}
		}
	}

	defaults := opts.NewScope("defaults", opts.ScopePrioritySystem,
		opts.WithScopeLabel("Configured Defaults"))
	memory := opts.NewScope("memory", opts.ScopePriorityTenant,
		opts.WithScopeLabel("Persisted Settings"),
		opts.WithScopeMetadata(map[string]any{"entries": len(persisted)}))

	stack, err := opts.NewStack(
		opts.NewLayer(defaults, cloneMap(s.defaults), opts.WithSnapshotID[map[string]any](defaults.Name)),
		opts.NewLayer(memory, persisted, opts.WithSnapshotID[map[string]any](memory.Name)),
	)
	if err != nil {
		return nil, err
	}
	merged, err := stack.Merge()
	if err != nil {
		return nil, err
	}
	return cloneMap(merged.Value), nil
}

// Put persists value under key.
func (s *Store) Put(ctx context.Context, key string, value any) error {
	if s.repo == nil {
		return errors.New("settings: repository required for writes")
	}
	_, err := s.repo.UpsertSetting(ctx, key, value)
	return err
}

// Forget removes the persisted value of key, restoring its default.
func (s *Store) Forget(ctx context.Context, key string) error {
	if s.repo == nil {
		return errors.New("settings: repository required for writes")
	}
	return s.repo.DeleteSetting(ctx, key)
}

// Seed persists each default that has no stored value yet.
func (s *Store) Seed(ctx context.Context, values map[string]any) error {
	if s.repo == nil || len(values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	existing, err := s.repo.ListSettings(ctx, keys...)
	if err != nil {
		return err
	}
	stored := make(map[string]struct{}, len(existing))
	for _, entry := range existing {
		stored[entry.Key] = struct{}{}
	}
	for key, value := range values {
		if _, ok := stored[key]; ok {
			continue
		}
		if _, err := s.repo.UpsertSetting(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

func cloneMap(origin map[string]any) map[string]any {
	out := make(map[string]any, len(origin))
	for k, v := range origin {
		out[k] = v
	}
	return out
}
