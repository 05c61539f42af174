package settings

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Record models the settings row. Value wraps the payload as {"value": v} so
// scalars survive the JSON column.
type Record struct {
	bun.BaseModel `bun:"table:settings"`

	ID        uuid.UUID      `bun:"id,pk,type:uuid"`
	Key       string         `bun:"key,notnull"`
	Value     map[string]any `bun:"value,type:jsonb"`
	Version   int            `bun:"version,notnull"`
	CreatedAt time.Time      `bun:"created_at,notnull"`
	UpdatedAt time.Time      `bun:"updated_at,notnull"`
}

// Entry is the decoded form of a settings row.
type Entry struct {
	ID        uuid.UUID
	Key       string
	Value     any
	Version   int
	UpdatedAt time.Time
}

const valueField = "value"

func toEntry(record *Record) Entry {
	if record == nil {
		return Entry{}
	}
	var value any
	if record.Value != nil {
		value = record.Value[valueField]
	}
	return Entry{
		ID:        record.ID,
		Key:       record.Key,
		Value:     value,
		Version:   record.Version,
		UpdatedAt: record.UpdatedAt,
	}
}
