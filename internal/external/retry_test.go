package external_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristian75IT/kronos-core/internal/corekit"
	"github.com/cristian75IT/kronos-core/internal/external"
)

type flakyDirectory struct {
	failures int
	calls    int
}

func (f *flakyDirectory) GetUser(context.Context, uuid.UUID) (*external.User, error) { return nil, nil }
func (f *flakyDirectory) GetUsers(context.Context, external.UserFilter) ([]external.User, error) {
	return nil, nil
}
func (f *flakyDirectory) GetSubordinates(context.Context, uuid.UUID) ([]external.User, error) {
	return nil, nil
}

func (f *flakyDirectory) GetApprovers(context.Context) ([]external.User, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("directory unreachable")
	}
	return []external.User{{ID: uuid.New()}}, nil
}
func (f *flakyDirectory) GetDepartment(context.Context, uuid.UUID) (*external.Department, error) {
	return nil, nil
}
func (f *flakyDirectory) GetService(context.Context, uuid.UUID) (*external.Service, error) {
	return nil, nil
}

func TestRetryingDirectory_SucceedsAfterTransientFailures(t *testing.T) {
	inner := &flakyDirectory{failures: 2}
	d := external.RetryingDirectory{Next: inner, Limiter: external.NewRetryLimiter(1000, 5, 3)}

	users, err := d.GetApprovers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryingDirectory_ExhaustsRetriesAsExternalUnavailable(t *testing.T) {
	inner := &flakyDirectory{failures: 10}
	d := external.RetryingDirectory{Next: inner, Limiter: external.NewRetryLimiter(1000, 5, 2)}

	_, err := d.GetApprovers(context.Background())
	require.Error(t, err)
	var coreErr *corekit.CoreError
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, corekit.KindExternalUnavailable, coreErr.Kind)
	assert.Equal(t, 3, inner.calls) // initial attempt + 2 retries
}

type flakyNotifier struct {
	failures int
	calls    int
}

func (f *flakyNotifier) Notify(context.Context, external.Event) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("notifier unreachable")
	}
	return nil
}

func TestRetryingNotifier_SucceedsAfterTransientFailure(t *testing.T) {
	inner := &flakyNotifier{failures: 1}
	n := external.RetryingNotifier{Next: inner, Limiter: external.NewRetryLimiter(1000, 5, 3)}

	err := n.Notify(context.Background(), external.Event{Type: external.EventApprovalReminder})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}
