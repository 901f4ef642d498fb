package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/crewmark/recruiter/internal/domain/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDb(t *testing.T) *DbContext {
	dbContext, err := NewDbContext(":memory:")
	require.NoError(t, err)
	require.NoError(t, dbContext.Migrate())
	t.Cleanup(func() { _ = dbContext.Close() })
	return dbContext
}

func seedShift(t *testing.T, repo *Shifts, status models.ShiftStatus, slotsTotal, slotsFilled int) *models.Shift {
	lat, lon := 40.0, -75.0
	start := time.Now().UTC().Add(48 * time.Hour)
	shift := &models.Shift{
		TrackingCode: uuid.NewString(),
		CompanyID:    7,
		JobType:      "warehouse",
		Latitude:     &lat,
		Longitude:    &lon,
		StartTime:    start,
		EndTime:      start.Add(8 * time.Hour),
		HourlyRate:   18.5,
		SlotsTotal:   slotsTotal,
		SlotsFilled:  slotsFilled,
		Status:       status,
	}
	require.NoError(t, repo.Add(context.Background(), shift))
	return shift
}

func Test_Assignments_Create_RejectsDuplicateOfferForSamePair(t *testing.T) {

	dbContext := newTestDb(t)
	repo := NewAssignmentsRepository(dbContext.DB)

	first := &models.Assignment{ShiftID: 1, WorkerID: 5, Status: models.AssignmentOffered,
		AssignedBy: models.AssignedByAlgorithm, AssignedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(context.Background(), first))

	duplicate := &models.Assignment{ShiftID: 1, WorkerID: 5, Status: models.AssignmentOffered,
		AssignedBy: models.AssignedByAlgorithm, AssignedAt: time.Now().UTC()}
	err := repo.Create(context.Background(), duplicate)

	assert.ErrorIs(t, err, ErrDuplicateOffer)
}

func Test_Assignments_GetByShift_ReturnsEveryOutcomeOldestFirst(t *testing.T) {

	dbContext := newTestDb(t)
	repo := NewAssignmentsRepository(dbContext.DB)
	base := time.Now().UTC().Add(-time.Hour)

	timedOut := &models.Assignment{ShiftID: 3, WorkerID: 10, Status: models.AssignmentNoResponse,
		AssignedBy: models.AssignedByAlgorithm, AssignedAt: base, CreatedAt: base}
	require.NoError(t, repo.Create(context.Background(), timedOut))

	accepted := &models.Assignment{ShiftID: 3, WorkerID: 20, Status: models.AssignmentAccepted,
		AssignedBy: models.AssignedByAlgorithm, AssignedAt: base.Add(time.Minute), CreatedAt: base.Add(time.Minute)}
	require.NoError(t, repo.Create(context.Background(), accepted))

	other := &models.Assignment{ShiftID: 4, WorkerID: 10, Status: models.AssignmentOffered,
		AssignedBy: models.AssignedByAlgorithm, AssignedAt: base, CreatedAt: base}
	require.NoError(t, repo.Create(context.Background(), other))

	assignments, err := repo.GetByShift(context.Background(), 3)

	require.NoError(t, err)
	require.Len(t, assignments, 2)
	assert.Equal(t, 10, assignments[0].WorkerID)
	assert.Equal(t, 20, assignments[1].WorkerID)
}

func Test_Workers_GetByID_PreloadsAvailability(t *testing.T) {

	dbContext := newTestDb(t)
	repo := NewWorkersRepository(dbContext.DB)

	lat, lon := 40.1, -75.1
	worker := &models.Worker{
		Name:              "Dana",
		Phone:             "+15550001234",
		Latitude:          &lat,
		Longitude:         &lon,
		IsActive:          true,
		IsOnboarded:       true,
		PreferredJobTypes: "warehouse",
		Availability: []models.AvailabilityWindow{
			{Weekday: time.Tuesday, StartMinute: 8 * 60, EndMinute: 18 * 60},
			{Weekday: time.Thursday, StartMinute: 8 * 60, EndMinute: 14 * 60},
		},
	}
	require.NoError(t, repo.Add(context.Background(), worker))

	fetched, err := repo.GetByID(context.Background(), worker.ID)

	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, "Dana", fetched.Name)
	assert.Len(t, fetched.Availability, 2)
}

func Test_Workers_GetByID_MissingWorker_ReturnsNil(t *testing.T) {

	dbContext := newTestDb(t)
	repo := NewWorkersRepository(dbContext.DB)

	fetched, err := repo.GetByID(context.Background(), 404)

	assert.NoError(t, err)
	assert.Nil(t, fetched)
}

func Test_Shifts_DecrementFilled_StopsAtZero(t *testing.T) {

	dbContext := newTestDb(t)
	repo := NewShiftsRepository(dbContext.DB)
	shift := seedShift(t, repo, models.ShiftFilled, 2, 1)

	require.NoError(t, repo.DecrementFilled(context.Background(), shift.ID))
	require.NoError(t, repo.DecrementFilled(context.Background(), shift.ID))

	fetched, err := repo.GetByID(context.Background(), shift.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, fetched.SlotsFilled)
}

func Test_Shifts_MarkFilled_OnlyFromRecruiting(t *testing.T) {

	dbContext := newTestDb(t)
	repo := NewShiftsRepository(dbContext.DB)

	posted := seedShift(t, repo, models.ShiftPosted, 1, 1)
	filled, err := repo.MarkFilled(context.Background(), posted.ID)
	require.NoError(t, err)
	assert.False(t, filled)

	recruiting := seedShift(t, repo, models.ShiftRecruiting, 1, 1)
	filled, err = repo.MarkFilled(context.Background(), recruiting.ID)
	require.NoError(t, err)
	assert.True(t, filled)

	fetched, err := repo.GetByID(context.Background(), recruiting.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftFilled, fetched.Status)
	assert.NotNil(t, fetched.FilledAt)
}
