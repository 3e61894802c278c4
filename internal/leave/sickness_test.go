package leave_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristian75IT/kronos-core/internal/leave"
	"github.com/cristian75IT/kronos-core/internal/model"
)

func TestReportSickness_RefundsWindowInsideVacation(t *testing.T) {
	d := newTestDeps(t)
	userID := uuid.New()
	start := time.Date(2027, 8, 2, 0, 0, 0, 0, time.UTC) // Monday
	end := time.Date(2027, 8, 6, 0, 0, 0, 0, time.UTC)   // Friday
	req := seedApprovedRequest(t, d, userID, start, end, "5")

	protocol := "PROT-1"
	interruption, err := d.svc.ReportSickness(context.Background(), leave.SicknessInput{
		RequestID: req.ID,
		ActorID:   userID,
		StartDate: time.Date(2027, 8, 3, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2027, 8, 4, 0, 0, 0, 0, time.UTC),
		Protocol:  &protocol,
	})
	require.NoError(t, err)
	assert.Equal(t, model.InterruptionSickness, interruption.InterruptionType)
	assert.Equal(t, "2", interruption.DaysRefunded.String())

	bal, err := d.balances.GetSnapshot(context.Background(), userID, 2027)
	require.NoError(t, err)
	assert.Equal(t, "3", bal.VacationAPUsed.String())
}

func TestReportSickness_RejectsWindowOutsideVacation(t *testing.T) {
	d := newTestDeps(t)
	userID := uuid.New()
	start := time.Date(2027, 8, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2027, 8, 6, 0, 0, 0, 0, time.UTC)
	req := seedApprovedRequest(t, d, userID, start, end, "5")

	_, err := d.svc.ReportSickness(context.Background(), leave.SicknessInput{
		RequestID: req.ID,
		ActorID:   userID,
		StartDate: time.Date(2027, 8, 6, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2027, 8, 9, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, leave.ErrRecallWindow)
}

func TestReportSickness_RejectsOverlappingActiveSickness(t *testing.T) {
	d := newTestDeps(t)
	userID := uuid.New()
	start := time.Date(2027, 8, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2027, 8, 6, 0, 0, 0, 0, time.UTC)
	req := seedApprovedRequest(t, d, userID, start, end, "5")

	_, err := d.svc.ReportSickness(context.Background(), leave.SicknessInput{
		RequestID: req.ID,
		ActorID:   userID,
		StartDate: time.Date(2027, 8, 3, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2027, 8, 4, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	_, err = d.svc.ReportSickness(context.Background(), leave.SicknessInput{
		RequestID: req.ID,
		ActorID:   userID,
		StartDate: time.Date(2027, 8, 4, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2027, 8, 5, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, leave.ErrInterruptionOverlap)
}
