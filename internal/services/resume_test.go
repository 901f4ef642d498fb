package services

import (
	"context"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/crewmark/recruiter/internal/domain/models"
	"github.com/crewmark/recruiter/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildResume(t *testing.T, store *fakeStore) (*ResumeCoordinator, EventBus.Bus) {

	dispatcher, _, _, bus := buildDispatcher(t, store)

	coordinator, err := NewResumeCoordinator(store, store, dispatcher, bus, 24)
	require.NoError(t, err)

	return coordinator, bus
}

func filledShift(id int, startIn time.Duration) models.Shift {
	shift := makeRecruitingShift(id, 2, 1)
	shift.Status = models.ShiftFilled
	shift.StartTime = time.Now().UTC().Add(startIn)
	shift.EndTime = shift.StartTime.Add(8 * time.Hour)
	return shift
}

func Test_ResumeIfEligible_DemotesFilledShiftAndDispatches(t *testing.T) {

	store := newFakeStore()
	store.addShift(filledShift(1, 48*time.Hour))

	coordinator, _ := buildResume(t, store)

	err := coordinator.ResumeIfEligible(context.Background(), 1)
	require.NoError(t, err)

	resumed, _ := store.GetByID(context.Background(), 1)
	assert.Equal(t, models.ShiftRecruiting, resumed.Status)
	assert.Nil(t, resumed.FilledAt)
	assert.Equal(t, 1, store.countAction(models.ActionRecruitingResumed))
	// No eligible workers in the store, so dispatch pauses right away.
	assert.Equal(t, 1, store.countAction(models.ActionRecruitingPaused))
}

func Test_ResumeIfEligible_WithinCutoff_DeclinesToResume(t *testing.T) {

	store := newFakeStore()
	store.addShift(filledShift(1, 12*time.Hour))

	coordinator, _ := buildResume(t, store)

	err := coordinator.ResumeIfEligible(context.Background(), 1)
	require.NoError(t, err)

	unchanged, _ := store.GetByID(context.Background(), 1)
	assert.Equal(t, models.ShiftFilled, unchanged.Status)
	assert.Equal(t, 0, store.countAction(models.ActionRecruitingResumed))
}

func Test_ResumeIfEligible_FullyFilledShift_IsNoOp(t *testing.T) {

	store := newFakeStore()
	shift := filledShift(1, 48*time.Hour)
	shift.SlotsFilled = shift.SlotsTotal
	store.addShift(shift)

	coordinator, _ := buildResume(t, store)

	err := coordinator.ResumeIfEligible(context.Background(), 1)
	require.NoError(t, err)

	unchanged, _ := store.GetByID(context.Background(), 1)
	assert.Equal(t, models.ShiftFilled, unchanged.Status)
	assert.Equal(t, 0, store.countAction(models.ActionRecruitingResumed))
}

func Test_ResumeIfEligible_CancelledShift_IsNoOp(t *testing.T) {

	store := newFakeStore()
	shift := filledShift(1, 48*time.Hour)
	shift.Status = models.ShiftCancelled
	store.addShift(shift)

	coordinator, _ := buildResume(t, store)

	err := coordinator.ResumeIfEligible(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 0, store.countAction(models.ActionRecruitingResumed))
}

func Test_ResumeIfEligible_RecruitingShift_DispatchesWithoutDemotion(t *testing.T) {

	store := newFakeStore()
	shift := filledShift(1, 48*time.Hour)
	shift.Status = models.ShiftRecruiting
	shift.StartTime = futureMorning(3)
	shift.EndTime = shift.StartTime.Add(8 * time.Hour)
	store.addShift(shift)
	store.addWorker(makeEligibleWorkerStartingAt(10, 0.02, shift.StartTime))

	coordinator, _ := buildResume(t, store)

	err := coordinator.ResumeIfEligible(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 1, store.countAction(models.ActionRecruitingResumed))
	assert.Equal(t, 1, store.pendingOffersFor(1))
}

func Test_Coordinator_ReactsToCancellationEvent(t *testing.T) {

	store := newFakeStore()
	store.addShift(filledShift(1, 48*time.Hour))

	_, bus := buildResume(t, store)

	var resumed []events.RecruitingResumed
	require.NoError(t, bus.Subscribe(events.RecruitingResumedTopic, func(e events.RecruitingResumed) {
		resumed = append(resumed, e)
	}))

	// The handler publishes RecruitingResumed back on the same bus; the
	// whole chain must complete instead of stalling on the bus lock.
	done := make(chan struct{})
	go func() {
		bus.Publish(events.AssignmentCancelledTopic, events.AssignmentCancelled{ShiftID: 1})
		bus.WaitAsync()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("cancellation handling did not complete, engine stalled on its own event bus")
	}

	shift, _ := store.GetByID(context.Background(), 1)
	assert.Equal(t, models.ShiftRecruiting, shift.Status)
	require.Len(t, resumed, 1)
	assert.Equal(t, 1, resumed[0].ShiftID)
}
