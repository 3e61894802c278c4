package leave_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristian75IT/kronos-core/internal/leave"
)

func TestModifyApproved_RecomputesDaysAndPostsDelta(t *testing.T) {
	d := newTestDeps(t)
	userID := uuid.New()
	start := time.Date(2027, 8, 2, 0, 0, 0, 0, time.UTC) // Monday
	end := time.Date(2027, 8, 4, 0, 0, 0, 0, time.UTC)   // Wednesday, 3 days
	req := seedApprovedRequest(t, d, userID, start, end, "3")

	updated, err := d.svc.ModifyApproved(context.Background(), leave.ModifyApprovedInput{
		RequestID: req.ID,
		ActorID:   userID,
		NewStart:  time.Date(2027, 8, 2, 0, 0, 0, 0, time.UTC),
		NewEnd:    time.Date(2027, 8, 6, 0, 0, 0, 0, time.UTC), // Friday, 5 days
	})
	require.NoError(t, err)
	assert.Equal(t, "5", updated.DaysRequested.String())

	bal, err := d.balances.GetSnapshot(context.Background(), userID, 2027)
	require.NoError(t, err)
	assert.Equal(t, "5", bal.VacationAPUsed.String())
}

func TestModifyApproved_RejectsWhenAlreadyStarted(t *testing.T) {
	d := newTestDeps(t)
	userID := uuid.New()
	start := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC)
	req := seedApprovedRequest(t, d, userID, start, end, "5")

	_, err := d.svc.ModifyApproved(context.Background(), leave.ModifyApprovedInput{
		RequestID: req.ID,
		ActorID:   userID,
		NewStart:  time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
		NewEnd:    time.Date(2020, 1, 8, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, leave.ErrCannotModifyInFlight)
}
