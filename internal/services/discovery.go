package services

import (
	"context"
	"fmt"
	"time"

	"github.com/crewmark/recruiter/internal/domain/models"
	"github.com/crewmark/recruiter/internal/logger"
	"github.com/crewmark/recruiter/internal/metrics"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type discoverableShiftRepository interface {
	GetDiscoverable(ctx context.Context, from, to time.Time) ([]models.Shift, error)
	MarkRecruiting(ctx context.Context, shiftID int) (bool, error)
}

// Discovery periodically promotes posted shifts inside the recruiting window
// and hands them to the dispatcher.
type Discovery struct {
	shifts     discoverableShiftRepository
	activities activityRepository
	dispatcher *Dispatcher
	cron       *cron.Cron
	windowDays int
}

func NewDiscovery(shifts discoverableShiftRepository, activities activityRepository,
	dispatcher *Dispatcher, interval time.Duration, windowDays int) (*Discovery, error) {

	if windowDays <= 0 {
		return nil, errors.New("discovery window days must be greater than zero")
	}

	d := &Discovery{
		shifts:     shifts,
		activities: activities,
		dispatcher: dispatcher,
		cron:       cron.New(),
		windowDays: windowDays,
	}

	_, err := d.cron.AddFunc(fmt.Sprintf("@every %v", interval), d.RunSweep)
	if err != nil {
		return nil, err
	}

	d.cron.Start()
	log.Infof("discovery scanner started, interval %v, window %v days", interval, windowDays)
	return d, nil
}

func (d *Discovery) Stop() {
	d.cron.Stop()
}

// RunSweep promotes every discoverable shift. A failing shift is logged and
// skipped; one bad shift must not halt the sweep.
func (d *Discovery) RunSweep() {

	start := time.Now()
	now := time.Now().UTC()

	shifts, err := d.shifts.GetDiscoverable(context.Background(), now,
		now.AddDate(0, 0, d.windowDays))
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("discovery sweep failed to list shifts: %v", err)
		return
	}

	promoted := 0
	for _, shift := range shifts {
		if err := d.startRecruiting(context.Background(), shift); err != nil {
			log.Errorf("discovery failed for shift %v: %v", shift.ID, err)
			continue
		}
		promoted++
	}

	metrics.SweepDuration.Observe(time.Since(start).Seconds())
	log.Infof("discovery sweep handled %v shifts, promoted %v", len(shifts), promoted)
}

func (d *Discovery) startRecruiting(ctx context.Context, shift models.Shift) error {

	promoted, err := d.shifts.MarkRecruiting(ctx, shift.ID)
	if err != nil {
		return errors.Wrap(err, "failed to mark shift recruiting")
	}
	if !promoted {
		log.Debugf("shift %v already left posted status, skipping", shift.ID)
		return nil
	}

	activity := models.NewActivity(shift.ID, models.ActionRecruitingStarted, map[string]any{
		"slots_total":  shift.SlotsTotal,
		"slots_filled": shift.SlotsFilled,
		"starts_at":    shift.StartTime.UTC().Format(time.RFC3339),
	})
	if err = d.activities.Add(ctx, activity); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to record recruiting_started for shift %v: %v", shift.ID, err)
	}

	return d.dispatcher.Dispatch(ctx, shift.ID)
}
