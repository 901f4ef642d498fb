package services

import (
	"context"

	"github.com/crewmark/recruiter/internal/domain/models"
	"github.com/crewmark/recruiter/pkg/geo"
	"github.com/samber/lo"
)

type offerableWorkersRepository interface {
	GetOfferable(ctx context.Context) ([]models.Worker, error)
}

type blockListChecker interface {
	Exists(ctx context.Context, companyID, workerID int) (bool, error)
}

type offeredWorkersRepository interface {
	OfferedWorkerIDs(ctx context.Context, shiftID int) ([]int, error)
}

// Candidate is a worker who passed every eligibility predicate, with the
// distance computed along the way.
type Candidate struct {
	Worker        models.Worker
	DistanceMiles float64
}

// EligibilityFilter decides which workers may be offered a shift. It has no
// side effects; each predicate is independently testable.
type EligibilityFilter struct {
	workers        offerableWorkersRepository
	blockLists     blockListChecker
	assignments    offeredWorkersRepository
	maxRadiusMiles float64
}

func NewEligibilityFilter(workers offerableWorkersRepository, blockLists blockListChecker,
	assignments offeredWorkersRepository, maxRadiusMiles float64) *EligibilityFilter {

	return &EligibilityFilter{
		workers:        workers,
		blockLists:     blockLists,
		assignments:    assignments,
		maxRadiusMiles: maxRadiusMiles,
	}
}

// EligibleWorkers returns candidates not yet offered the shift. A shift
// without coordinates has no eligible workers: distance is treated as
// infinite on either missing side.
func (f *EligibilityFilter) EligibleWorkers(ctx context.Context, shift *models.Shift) ([]Candidate, error) {

	if !shift.HasCoordinates() {
		return []Candidate{}, nil
	}

	workers, err := f.workers.GetOfferable(ctx)
	if err != nil {
		return nil, err
	}

	offeredIDs, err := f.assignments.OfferedWorkerIDs(ctx, shift.ID)
	if err != nil {
		return nil, err
	}
	alreadyOffered := lo.SliceToMap(offeredIDs, func(id int) (int, struct{}) {
		return id, struct{}{}
	})

	var candidates []Candidate
	for _, worker := range workers {
		if _, offered := alreadyOffered[worker.ID]; offered {
			continue
		}
		if !prefersJobType(&worker, shift) {
			continue
		}
		if !availableDuring(&worker, shift) {
			continue
		}

		distance, within := withinRadius(&worker, shift, f.maxRadiusMiles)
		if !within {
			continue
		}

		blocked, err := f.blockLists.Exists(ctx, shift.CompanyID, worker.ID)
		if err != nil {
			return nil, err
		}
		if blocked {
			continue
		}

		candidates = append(candidates, Candidate{Worker: worker, DistanceMiles: distance})
	}

	return candidates, nil
}

func prefersJobType(worker *models.Worker, shift *models.Shift) bool {
	return worker.PrefersJobType(shift.JobType)
}

func availableDuring(worker *models.Worker, shift *models.Shift) bool {
	return worker.AvailableDuring(shift.StartTime, shift.EndTime)
}

func withinRadius(worker *models.Worker, shift *models.Shift, maxMiles float64) (float64, bool) {
	if !worker.HasCoordinates() || !shift.HasCoordinates() {
		return 0, false
	}
	distance := geo.HaversineMiles(*worker.Latitude, *worker.Longitude,
		*shift.Latitude, *shift.Longitude)
	return distance, distance <= maxMiles
}
