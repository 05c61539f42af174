package activity

import (
	"context"
	"errors"

	"github.com/goliatone/go-masker"
	"github.com/goliatone/go-registration/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// RepositoryConfig wires the Bun-backed activity repository.
type RepositoryConfig struct {
	DB         *bun.DB
	Repository repository.Repository[*LogEntry]
	Masker     *masker.Masker
	Clock      types.Clock
	IDGen      types.IDGenerator
}

type activityStore interface {
	repository.Repository[*LogEntry]
}

// Repository persists activity logs.
type Repository struct {
	activityStore
	mask  *masker.Masker
	clock types.Clock
	idGen types.IDGenerator
}

var (
	_ repository.Repository[*LogEntry] = (*Repository)(nil)
	_ types.ActivitySink               = (*Repository)(nil)
)

// NewRepository constructs the activity sink.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.Repository == nil && cfg.DB == nil {
		return nil, errors.New("activity: db or repository required")
	}
	repo := cfg.Repository
	if repo == nil {
		repo = repository.NewRepository(cfg.DB, repository.ModelHandlers[*LogEntry]{
			NewRecord: func() *LogEntry { return &LogEntry{} },
			GetID: func(entry *LogEntry) uuid.UUID {
				if entry == nil {
					return uuid.Nil
				}
				return entry.ID
			},
			SetID: func(entry *LogEntry, id uuid.UUID) {
				if entry != nil {
					entry.ID = id
				}
			},
		})
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
		activityStore: repo,
		mask:          cfg.Masker,
		clock:         clock,
		idGen:         idGen,
	}, nil
}

// Log persists a sanitized activity record.
func (r *Repository) Log(ctx context.Context, record types.ActivityRecord) error {
	if record.Verb == "" {
		return errors.New("activity: verb required")
	}
	record = SanitizeRecord(r.mask, record)
	entry := &LogEntry{
		ID:         record.ID,
		UserID:     record.UserID,
		Verb:       record.Verb,
		ObjectType: record.ObjectType,
		ObjectID:   record.ObjectID,
		Channel:    record.Channel,
		Data:       record.Data,
		CreatedAt:  record.OccurredAt,
	}
	if entry.ID == uuid.Nil {
		entry.ID = r.idGen.UUID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.clock.Now()
	}
	if entry.Data == nil {
		entry.Data = map[string]any{}
	}
	_, err := r.Create(ctx, entry)
	return err
}

// ListActivity returns the newest records matching filter.
func (r *Repository) ListActivity(ctx context.Context, filter Filter) ([]types.ActivityRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	rows, _, err := r.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		if filter.UserID != uuid.Nil {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.Verb != "" {
			q = q.Where("verb = ?", filter.Verb)
		}
		return q.OrderExpr("created_at DESC").Limit(limit)
	})
	if err != nil {
		return nil, err
	}
	out := make([]types.ActivityRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, types.ActivityRecord{
			ID:         row.ID,
			UserID:     row.UserID,
			Verb:       row.Verb,
			ObjectType: row.ObjectType,
			ObjectID:   row.ObjectID,
			Channel:    row.Channel,
			Data:       row.Data,
			OccurredAt: row.CreatedAt,
		})
	}
	return out, nil
}
