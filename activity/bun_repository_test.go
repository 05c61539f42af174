package activity

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-registration/pkg/types"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func TestRepository_LogAndList(t *testing.T) {
	ctx := context.Background()
	db := newTestActivityDB(t)
	applyActivityDDL(t, db)

	repo, err := NewRepository(RepositoryConfig{
		DB:    db,
		Clock: fixedClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)

	userID := uuid.New()
	require.NoError(t, repo.Log(ctx, types.ActivityRecord{
		UserID:     userID,
		Verb:       "user.registered",
		ObjectType: "user",
		ObjectID:   userID.String(),
		Channel:    "registration",
		Data: map[string]any{
			"email":    "ada@example.com",
			"password": "abc12",
		},
	}))
	require.NoError(t, repo.Log(ctx, types.ActivityRecord{
		UserID:     uuid.New(),
		Verb:       "user.registered",
		OccurredAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}))

	records, err := repo.ListActivity(ctx, Filter{UserID: userID})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "registration", records[0].Channel)
	require.Equal(t, "ada@example.com", records[0].Data["email"])
	require.NotEqual(t, "abc12", records[0].Data["password"])

	records, err = repo.ListActivity(ctx, Filter{Verb: "user.registered", Limit: 1})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotEqual(t, userID, records[0].UserID)
}

func TestRepository_LogRequiresVerb(t *testing.T) {
	db := newTestActivityDB(t)
	applyActivityDDL(t, db)
	repo, err := NewRepository(RepositoryConfig{DB: db})
	require.NoError(t, err)

	require.Error(t, repo.Log(context.Background(), types.ActivityRecord{}))
}

func TestSanitizeRecordMasksCredentials(t *testing.T) {
	record := SanitizeRecord(nil, types.ActivityRecord{
		Data: map[string]any{"password": "abc12", "fullname": "Ada"},
	})
	require.NotEqual(t, "abc12", record.Data["password"])
	require.Equal(t, "Ada", record.Data["fullname"])

	require.Empty(t, SanitizeData(nil, nil))
}

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time {
	return c.t
}

func newTestActivityDB(t *testing.T) *bun.DB {
	sqldb, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
		_ = sqldb.Close()
	})
	return db
}

func applyActivityDDL(t *testing.T, db *bun.DB) {
	content, err := os.ReadFile("../data/sql/migrations/sqlite/00004_user_activity.up.sql")
	require.NoError(t, err)
	for _, stmt := range strings.Split(string(content), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
}
