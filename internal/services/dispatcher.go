package services

import (
	"context"
	"fmt"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/crewmark/recruiter/internal/domain/models"
	"github.com/crewmark/recruiter/internal/events"
	"github.com/crewmark/recruiter/internal/logger"
	"github.com/crewmark/recruiter/internal/metrics"
	"github.com/crewmark/recruiter/internal/repositories"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

type dispatchShiftRepository interface {
	GetByID(ctx context.Context, shiftID int) (*models.Shift, error)
	MarkFilled(ctx context.Context, shiftID int) (bool, error)
	IncrementFilled(ctx context.Context, shiftID int) error
}

type dispatchAssignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	GetByID(ctx context.Context, assignmentID int) (*models.Assignment, error)
	HasPendingOffer(ctx context.Context, shiftID int) (bool, error)
	MarkAccepted(ctx context.Context, assignmentID int) (bool, error)
	MarkDeclined(ctx context.Context, assignmentID int, reason string) (bool, error)
	MarkNoResponse(ctx context.Context, assignmentID int) (bool, error)
}

type dispatchWorkerRepository interface {
	IncrementAssigned(ctx context.Context, workerID int) error
}

type activityRepository interface {
	Add(ctx context.Context, activity models.RecruitingActivity) error
}

type offerGateway interface {
	SendOffer(ctx context.Context, phone string, message string) error
}

type timeoutScheduler interface {
	ScheduleAfter(delay time.Duration, name string, fn func())
}

// Dispatcher owns the per-shift offer state machine. Dispatch is idempotent
// and safe to invoke redundantly: the fully-filled check, the pending-offer
// check and the (shift, worker) uniqueness are the only guards, all
// re-readable at invocation time.
type Dispatcher struct {
	shifts      dispatchShiftRepository
	assignments dispatchAssignmentRepository
	workers     dispatchWorkerRepository
	activities  activityRepository
	eligibility *EligibilityFilter
	gateway     offerGateway
	scheduler   timeoutScheduler
	bus         EventBus.Bus

	offerTimeout      time.Duration
	candidateLogDepth int
}

func NewDispatcher(shifts dispatchShiftRepository, assignments dispatchAssignmentRepository,
	workers dispatchWorkerRepository, activities activityRepository, eligibility *EligibilityFilter,
	gateway offerGateway, scheduler timeoutScheduler, bus EventBus.Bus,
	offerTimeout time.Duration, candidateLogDepth int) (*Dispatcher, error) {

	if offerTimeout <= 0 {
		return nil, errors.New("offer timeout must be greater than zero")
	}

	d := &Dispatcher{
		shifts:            shifts,
		assignments:       assignments,
		workers:           workers,
		activities:        activities,
		eligibility:       eligibility,
		gateway:           gateway,
		scheduler:         scheduler,
		bus:               bus,
		offerTimeout:      offerTimeout,
		candidateLogDepth: candidateLogDepth,
	}

	// Async subscription is required: the handlers publish follow-up events
	// on the same bus, and Publish holds the bus lock while invoking sync
	// handlers.
	if err := bus.SubscribeAsync(events.OfferAcceptedTopic, d.onOfferAccepted, false); err != nil {
		return nil, err
	}
	if err := bus.SubscribeAsync(events.OfferDeclinedTopic, d.onOfferDeclined, false); err != nil {
		return nil, err
	}

	return d, nil
}

// Dispatch drives one recruiting step for the shift: complete it when full,
// keep waiting while an offer is pending, otherwise issue an offer to the
// best remaining candidate.
func (d *Dispatcher) Dispatch(ctx context.Context, shiftID int) error {

	shift, err := d.shifts.GetByID(ctx, shiftID)
	if err != nil {
		return errors.Wrap(err, "failed to get shift")
	}
	if shift == nil {
		log.Warnf("dispatch skipped, shift %v no longer exists", shiftID)
		return nil
	}

	if shift.Status != models.ShiftRecruiting {
		log.Debugf("dispatch skipped, shift %v is %v", shiftID, shift.Status)
		return nil
	}

	if shift.FullyFilled() {
		return d.completeRecruiting(ctx, shift)
	}

	pending, err := d.assignments.HasPendingOffer(ctx, shiftID)
	if err != nil {
		return errors.Wrap(err, "failed to check pending offer")
	}
	if pending {
		log.Debugf("dispatch skipped, shift %v already has a pending offer", shiftID)
		return nil
	}

	ranked, err := d.rankEligibleWorkers(ctx, shift)
	if err != nil {
		return err
	}

	if len(ranked) == 0 {
		return d.pauseRecruiting(ctx, shift)
	}

	return d.offerTo(ctx, shift, ranked)
}

func (d *Dispatcher) rankEligibleWorkers(ctx context.Context, shift *models.Shift) ([]ScoredCandidate, error) {

	start := time.Now()
	candidates, err := d.eligibility.EligibleWorkers(ctx, shift)
	metrics.DispatchStepDuration.WithLabelValues("eligibility").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, errors.Wrap(err, "failed to filter eligible workers")
	}

	start = time.Now()
	ranked := RankCandidates(shift, candidates)
	metrics.DispatchStepDuration.WithLabelValues("scoring").Observe(time.Since(start).Seconds())

	return ranked, nil
}

func (d *Dispatcher) offerTo(ctx context.Context, shift *models.Shift, ranked []ScoredCandidate) error {

	top := ranked[0]
	d.logScoredCandidates(ctx, shift, ranked)

	now := time.Now().UTC()
	assignment := &models.Assignment{
		ShiftID:        shift.ID,
		WorkerID:       top.Worker.ID,
		Status:         models.AssignmentOffered,
		AssignedBy:     models.AssignedByAlgorithm,
		AlgorithmScore: &top.Total,
		DistanceMiles:  &top.DistanceMiles,
		AssignedAt:     now,
		SmsSentAt:      &now,
	}

	err := d.assignments.Create(ctx, assignment)
	if errors.Is(err, repositories.ErrDuplicateOffer) {
		// Another dispatch invocation won the race; discard ours.
		log.Infof("duplicate offer attempt for shift %v worker %v discarded", shift.ID, top.Worker.ID)
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to create offer")
	}

	if err = d.workers.IncrementAssigned(ctx, top.Worker.ID); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to increment assigned counter for worker %v: %v", top.Worker.ID, err)
	}

	d.logActivity(ctx, models.NewActivity(shift.ID, models.ActionNextWorkerSelected, map[string]any{
		"score":          top.Total,
		"distance_miles": round2(top.DistanceMiles),
	}).WithWorker(top.Worker.ID).WithAssignment(assignment.ID))

	if err = d.gateway.SendOffer(ctx, top.Worker.Phone, offerMessage(shift)); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeSmsApi).
			Errorf("failed to send offer for assignment %v: %v", assignment.ID, err)
	}

	d.logActivity(ctx, models.NewActivity(shift.ID, models.ActionOfferSent, map[string]any{
		"timeout_minutes": d.offerTimeout.Minutes(),
	}).WithWorker(top.Worker.ID).WithAssignment(assignment.ID))

	metrics.OffersSentCounter.Inc()

	assignmentID := assignment.ID
	d.scheduler.ScheduleAfter(d.offerTimeout, fmt.Sprintf("offer-timeout-%v", assignmentID), func() {
		d.CheckOfferTimeout(context.Background(), assignmentID)
	})

	log.Infof("offer %v sent to worker %v for shift %v (score %.2f)",
		assignment.ID, top.Worker.ID, shift.ID, top.Total)
	return nil
}

func (d *Dispatcher) logScoredCandidates(ctx context.Context, shift *models.Shift, ranked []ScoredCandidate) {

	depth := d.candidateLogDepth
	if depth > len(ranked) {
		depth = len(ranked)
	}

	candidates := lo.Map(ranked[:depth], func(c ScoredCandidate, _ int) map[string]any {
		return map[string]any{
			"worker_id":      c.Worker.ID,
			"total":          c.Total,
			"distance_miles": round2(c.DistanceMiles),
		}
	})

	d.logActivity(ctx, models.NewActivity(shift.ID, models.ActionWorkerScored, map[string]any{
		"candidates":         candidates,
		"considered":         len(ranked),
		"selected_worker_id": ranked[0].Worker.ID,
	}).WithWorker(ranked[0].Worker.ID))
}

func (d *Dispatcher) pauseRecruiting(ctx context.Context, shift *models.Shift) error {

	d.logActivity(ctx, models.NewActivity(shift.ID, models.ActionRecruitingPaused, map[string]any{
		"reason": "no_eligible_workers",
	}))
	metrics.RecruitingPausedCounter.Inc()

	d.bus.Publish(events.RecruitingPausedTopic, events.RecruitingPaused{
		ShiftID:      shift.ID,
		TrackingCode: shift.TrackingCode,
		Reason:       "no_eligible_workers",
	})

	log.Infof("recruiting paused for shift %v: no eligible workers", shift.ID)
	return nil
}

func (d *Dispatcher) completeRecruiting(ctx context.Context, shift *models.Shift) error {

	filled, err := d.shifts.MarkFilled(ctx, shift.ID)
	if err != nil {
		return errors.Wrap(err, "failed to mark shift filled")
	}
	if !filled {
		// Someone else completed it; redundant invocations log nothing.
		return nil
	}

	d.logActivity(ctx, models.NewActivity(shift.ID, models.ActionRecruitingCompleted, map[string]any{
		"reason":       "fully_filled",
		"slots_filled": shift.SlotsFilled,
		"slots_total":  shift.SlotsTotal,
	}))

	log.Infof("recruiting completed for shift %v, all %v slots filled", shift.ID, shift.SlotsTotal)
	return nil
}

// HandleAcceptance moves an offer to accepted, bumps the fill count and
// either completes recruiting or dispatches for the remaining slots.
func (d *Dispatcher) HandleAcceptance(ctx context.Context, assignmentID int) error {

	assignment, err := d.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return errors.Wrap(err, "failed to get assignment")
	}
	if assignment == nil {
		log.Warnf("acceptance ignored, assignment %v no longer exists", assignmentID)
		return nil
	}

	accepted, err := d.assignments.MarkAccepted(ctx, assignmentID)
	if err != nil {
		return errors.Wrap(err, "failed to mark assignment accepted")
	}
	if !accepted {
		log.Infof("acceptance ignored, assignment %v is no longer offered", assignmentID)
		return nil
	}

	d.logActivity(ctx, models.NewActivity(assignment.ShiftID, models.ActionOfferAccepted, nil).
		WithWorker(assignment.WorkerID).WithAssignment(assignmentID))
	metrics.OffersAcceptedCounter.Inc()

	if err = d.shifts.IncrementFilled(ctx, assignment.ShiftID); err != nil {
		return errors.Wrap(err, "failed to increment filled slots")
	}

	shift, err := d.shifts.GetByID(ctx, assignment.ShiftID)
	if err != nil {
		return errors.Wrap(err, "failed to get shift")
	}
	if shift == nil {
		log.Warnf("shift %v disappeared after acceptance", assignment.ShiftID)
		return nil
	}

	if shift.FullyFilled() {
		return d.completeRecruiting(ctx, shift)
	}
	return d.Dispatch(ctx, shift.ID)
}

// HandleDecline records the decline and immediately dispatches the next
// offer.
func (d *Dispatcher) HandleDecline(ctx context.Context, assignmentID int, reason string) error {

	assignment, err := d.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return errors.Wrap(err, "failed to get assignment")
	}
	if assignment == nil {
		log.Warnf("decline ignored, assignment %v no longer exists", assignmentID)
		return nil
	}

	declined, err := d.assignments.MarkDeclined(ctx, assignmentID, reason)
	if err != nil {
		return errors.Wrap(err, "failed to mark assignment declined")
	}
	if !declined {
		log.Infof("decline ignored, assignment %v is no longer offered", assignmentID)
		return nil
	}

	details := map[string]any{}
	if reason != "" {
		details["reason"] = reason
	}
	d.logActivity(ctx, models.NewActivity(assignment.ShiftID, models.ActionOfferDeclined, details).
		WithWorker(assignment.WorkerID).WithAssignment(assignmentID))
	metrics.OffersDeclinedCounter.Inc()

	return d.Dispatch(ctx, assignment.ShiftID)
}

// CheckOfferTimeout fires once per offer, a fixed delay after creation. It
// no-ops when the assignment already left the offered state; that check at
// fire time is the only cancellation mechanism.
func (d *Dispatcher) CheckOfferTimeout(ctx context.Context, assignmentID int) {

	assignment, err := d.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("timeout check failed to get assignment %v: %v", assignmentID, err)
		return
	}
	if assignment == nil {
		log.Warnf("timeout check skipped, assignment %v no longer exists", assignmentID)
		return
	}
	if !assignment.Status.Pending() {
		log.Debugf("timeout check skipped, assignment %v is %v", assignmentID, assignment.Status)
		return
	}

	timedOut, err := d.assignments.MarkNoResponse(ctx, assignmentID)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to mark assignment %v as no_response: %v", assignmentID, err)
		return
	}
	if !timedOut {
		log.Debugf("timeout check skipped, assignment %v resolved concurrently", assignmentID)
		return
	}

	d.logActivity(ctx, models.NewActivity(assignment.ShiftID, models.ActionOfferTimeout, map[string]any{
		"offered_minutes": d.offerTimeout.Minutes(),
	}).WithWorker(assignment.WorkerID).WithAssignment(assignmentID))
	metrics.OffersTimedOutCounter.Inc()

	log.Infof("offer %v timed out, dispatching next worker for shift %v", assignmentID, assignment.ShiftID)

	if err = d.Dispatch(ctx, assignment.ShiftID); err != nil {
		log.Errorf("dispatch after timeout failed for shift %v: %v", assignment.ShiftID, err)
	}
}

func (d *Dispatcher) onOfferAccepted(event events.OfferAccepted) {
	if err := d.HandleAcceptance(context.Background(), event.AssignmentID); err != nil {
		log.Errorf("failed to handle acceptance of assignment %v: %v", event.AssignmentID, err)
	}
}

func (d *Dispatcher) onOfferDeclined(event events.OfferDeclined) {
	if err := d.HandleDecline(context.Background(), event.AssignmentID, event.Reason); err != nil {
		log.Errorf("failed to handle decline of assignment %v: %v", event.AssignmentID, err)
	}
}

func (d *Dispatcher) logActivity(ctx context.Context, activity models.RecruitingActivity) {
	if err := d.activities.Add(ctx, activity); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to record %v activity for shift %v: %v", activity.Action, activity.ShiftID, err)
	}
}

func offerMessage(shift *models.Shift) string {
	return fmt.Sprintf("New %v shift on %v, $%.2f/hr. Reply YES to accept or NO to pass.",
		shift.JobType, shift.StartTime.Format("Mon Jan 2 15:04"), shift.HourlyRate)
}
