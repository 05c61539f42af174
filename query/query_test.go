package query

import (
	"context"
	"testing"

	"github.com/goliatone/go-registration/activity"
	"github.com/goliatone/go-registration/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestAccountQuery_ByEmailAndID(t *testing.T) {
	user := &types.User{
		ID:       uuid.New(),
		Email:    "ada@example.com",
		Fullname: "Ada Lovelace",
		Roles:    []types.RoleID{types.DefaultMemberRoleID},
	}
	store := &stubStore{users: []*types.User{user}}
	query := NewAccountQuery(store, nil)
	ctx := context.Background()

	byEmail, err := query.Query(ctx, AccountInput{Email: " ada@example.com "})
	require.NoError(t, err)
	require.Equal(t, user.ID, byEmail.ID)
	require.Equal(t, []types.RoleID{types.DefaultMemberRoleID}, byEmail.Roles)

	byID, err := query.Query(ctx, AccountInput{ID: user.ID, Email: "ignored@example.com"})
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", byID.Email)

	_, err = query.Query(ctx, AccountInput{Email: "missing@example.com"})
	require.ErrorIs(t, err, types.ErrUserNotFound)
}

func TestAccountQuery_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := NewAccountQuery(&stubStore{}, nil).Query(ctx, AccountInput{Email: "  "})
	require.ErrorIs(t, err, ErrAccountIdentifierRequired)

	_, err = NewAccountQuery(nil, nil).Query(ctx, AccountInput{Email: "ada@example.com"})
	require.ErrorIs(t, err, types.ErrMissingUserStore)
}

func TestRoleListQuery_ForwardsToRegistry(t *testing.T) {
	registry := &stubRegistry{roles: []types.Role{{ID: 1, Name: "Administrator"}, {ID: 2, Name: "Member"}}}

	roles, err := NewRoleListQuery(registry).Query(context.Background(), RoleListInput{})
	require.NoError(t, err)
	require.Len(t, roles, 2)

	_, err = NewRoleListQuery(nil).Query(context.Background(), RoleListInput{})
	require.Error(t, err)
}

func TestActivityQuery_PassesFilter(t *testing.T) {
	userID := uuid.New()
	repo := &recordingActivityLister{records: []types.ActivityRecord{{UserID: userID, Verb: "user.registered"}}}

	records, err := NewActivityQuery(repo).Query(context.Background(), ActivityInput{
		Filter: activity.Filter{UserID: userID, Verb: "user.registered", Limit: 5},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, userID, repo.filter.UserID)
	require.Equal(t, 5, repo.filter.Limit)

	_, err = NewActivityQuery(nil).Query(context.Background(), ActivityInput{})
	require.Error(t, err)
}

type stubStore struct {
	users []*types.User
}

func (s *stubStore) NewUser() *types.User { return &types.User{} }

func (s *stubStore) Transaction(ctx context.Context, fn func(ctx context.Context, tx types.UserWriter) error) error {
	return fn(ctx, nil)
}

func (s *stubStore) GetByEmail(_ context.Context, email string) (*types.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user.Clone(), nil
		}
	}
	return nil, types.ErrUserNotFound
}

func (s *stubStore) GetByID(_ context.Context, id uuid.UUID) (*types.User, error) {
	for _, user := range s.users {
		if user.ID == id {
			return user.Clone(), nil
		}
	}
	return nil, types.ErrUserNotFound
}

type stubRegistry struct {
	roles []types.Role
}

func (s *stubRegistry) GetRole(_ context.Context, id types.RoleID) (*types.Role, error) {
	for _, role := range s.roles {
		if role.ID == id {
			out := role
			return &out, nil
		}
	}
	return nil, types.ErrRoleNotFound
}

func (s *stubRegistry) ListRoles(context.Context) ([]types.Role, error) {
	return s.roles, nil
}

type recordingActivityLister struct {
	filter  activity.Filter
	records []types.ActivityRecord
}

func (r *recordingActivityLister) ListActivity(_ context.Context, filter activity.Filter) ([]types.ActivityRecord, error) {
	r.filter = filter
	return r.records, nil
}
