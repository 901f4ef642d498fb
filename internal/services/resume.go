package services

import (
	"context"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/crewmark/recruiter/internal/domain/models"
	"github.com/crewmark/recruiter/internal/events"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type resumableShiftRepository interface {
	GetByID(ctx context.Context, shiftID int) (*models.Shift, error)
	DemoteToRecruiting(ctx context.Context, shiftID int) (bool, error)
}

// ResumeCoordinator reactivates recruiting after a capacity-reducing
// cancellation, unless the shift starts too soon to re-recruit for.
type ResumeCoordinator struct {
	shifts      resumableShiftRepository
	activities  activityRepository
	dispatcher  *Dispatcher
	bus         EventBus.Bus
	cutoffHours float64
}

func NewResumeCoordinator(shifts resumableShiftRepository, activities activityRepository,
	dispatcher *Dispatcher, bus EventBus.Bus, cutoffHours float64) (*ResumeCoordinator, error) {

	r := &ResumeCoordinator{
		shifts:      shifts,
		activities:  activities,
		dispatcher:  dispatcher,
		bus:         bus,
		cutoffHours: cutoffHours,
	}

	// ResumeIfEligible publishes RecruitingResumed on the same bus, so the
	// handler must not run inside Publish's lock.
	if err := bus.SubscribeAsync(events.AssignmentCancelledTopic, r.onAssignmentCancelled, false); err != nil {
		return nil, err
	}

	return r, nil
}

// ResumeIfEligible restarts recruiting when the shift starts more than the
// cutoff from now, has open slots and is filled or recruiting. A filled
// shift is demoted back to recruiting first.
func (r *ResumeCoordinator) ResumeIfEligible(ctx context.Context, shiftID int) error {

	shift, err := r.shifts.GetByID(ctx, shiftID)
	if err != nil {
		return errors.Wrap(err, "failed to get shift")
	}
	if shift == nil {
		log.Warnf("resume skipped, shift %v no longer exists", shiftID)
		return nil
	}

	hoursUntilStart := shift.HoursUntilStart(time.Now())
	if hoursUntilStart <= r.cutoffHours {
		log.Infof("resume declined for shift %v, starts in %.1f hours", shiftID, hoursUntilStart)
		return nil
	}

	if shift.FullyFilled() {
		log.Debugf("resume skipped, shift %v is still fully filled", shiftID)
		return nil
	}

	if shift.Status != models.ShiftFilled && shift.Status != models.ShiftRecruiting {
		log.Debugf("resume skipped, shift %v is %v", shiftID, shift.Status)
		return nil
	}

	previousStatus := shift.Status
	if previousStatus == models.ShiftFilled {
		demoted, err := r.shifts.DemoteToRecruiting(ctx, shiftID)
		if err != nil {
			return errors.Wrap(err, "failed to demote shift to recruiting")
		}
		if !demoted {
			log.Debugf("resume skipped, shift %v changed status concurrently", shiftID)
			return nil
		}
	}

	activity := models.NewActivity(shiftID, models.ActionRecruitingResumed, map[string]any{
		"previous_status":   string(previousStatus),
		"hours_until_start": round2(hoursUntilStart),
	})
	if err = r.activities.Add(ctx, activity); err != nil {
		log.Errorf("failed to record recruiting_resumed for shift %v: %v", shiftID, err)
	}

	r.bus.Publish(events.RecruitingResumedTopic, events.RecruitingResumed{
		ShiftID:         shiftID,
		TrackingCode:    shift.TrackingCode,
		PreviousStatus:  string(previousStatus),
		HoursUntilStart: hoursUntilStart,
	})

	log.Infof("recruiting resumed for shift %v (was %v)", shiftID, previousStatus)
	return r.dispatcher.Dispatch(ctx, shiftID)
}

func (r *ResumeCoordinator) onAssignmentCancelled(event events.AssignmentCancelled) {
	if err := r.ResumeIfEligible(context.Background(), event.ShiftID); err != nil {
		log.Errorf("failed to resume recruiting for shift %v: %v", event.ShiftID, err)
	}
}
