package query

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-registration/activity"
	"github.com/goliatone/go-registration/pkg/types"
)

var errMissingActivityRepository = errors.New("go-registration: missing activity repository")

// ActivityLister reads the activity feed. *activity.Repository satisfies it.
type ActivityLister interface {
	ListActivity(ctx context.Context, filter activity.Filter) ([]types.ActivityRecord, error)
}

// ActivityInput narrows the feed.
type ActivityInput struct {
	Filter activity.Filter
}

// Type implements gocommand.Message.
func (ActivityInput) Type() string {
	return "query.activity.list"
}

// Validate implements gocommand.Message.
func (ActivityInput) Validate() error {
	return nil
}

// ActivityQuery returns the newest activity records.
type ActivityQuery struct {
	repo ActivityLister
}

// NewActivityQuery constructs the feed query.
func NewActivityQuery(repo ActivityLister) *ActivityQuery {
	return &ActivityQuery{repo: repo}
}

var _ gocommand.Querier[ActivityInput, []types.ActivityRecord] = (*ActivityQuery)(nil)

// Query delegates to the repository.
func (q *ActivityQuery) Query(ctx context.Context, input ActivityInput) ([]types.ActivityRecord, error) {
	if q.repo == nil {
		return nil, errMissingActivityRepository
	}
	return q.repo.ListActivity(ctx, input.Filter)
}
