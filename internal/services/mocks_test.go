package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/crewmark/recruiter/internal/domain/models"
	"github.com/crewmark/recruiter/internal/repositories"
	"github.com/pkg/errors"
)

// fakeStore is an in-memory stand-in for the repositories, with the same
// guard semantics: conditional status updates and the (shift, worker)
// uniqueness on offer creation.
type fakeStore struct {
	mu               sync.Mutex
	shifts           map[int]*models.Shift
	workers          map[int]*models.Worker
	assignments      map[int]*models.Assignment
	activities       []models.RecruitingActivity
	blockedPairs     map[string]bool
	nextAssignmentID int

	failMarkRecruiting map[int]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		shifts:             map[int]*models.Shift{},
		workers:            map[int]*models.Worker{},
		assignments:        map[int]*models.Assignment{},
		blockedPairs:       map[string]bool{},
		nextAssignmentID:   1,
		failMarkRecruiting: map[int]bool{},
	}
}

func (s *fakeStore) addShift(shift models.Shift) *models.Shift {
	s.shifts[shift.ID] = &shift
	return s.shifts[shift.ID]
}

func (s *fakeStore) addWorker(worker models.Worker) {
	s.workers[worker.ID] = &worker
}

func (s *fakeStore) block(companyID, workerID int) {
	s.blockedPairs[fmt.Sprintf("%d:%d", companyID, workerID)] = true
}

func (s *fakeStore) GetByID(_ context.Context, shiftID int) (*models.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shift, ok := s.shifts[shiftID]
	if !ok {
		return nil, nil
	}
	copied := *shift
	return &copied, nil
}

func (s *fakeStore) MarkFilled(_ context.Context, shiftID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shift, ok := s.shifts[shiftID]
	if !ok || shift.Status != models.ShiftRecruiting {
		return false, nil
	}
	now := time.Now().UTC()
	shift.Status = models.ShiftFilled
	shift.FilledAt = &now
	return true, nil
}

func (s *fakeStore) DemoteToRecruiting(_ context.Context, shiftID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shift, ok := s.shifts[shiftID]
	if !ok || shift.Status != models.ShiftFilled {
		return false, nil
	}
	shift.Status = models.ShiftRecruiting
	shift.FilledAt = nil
	return true, nil
}

func (s *fakeStore) IncrementFilled(_ context.Context, shiftID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	shift, ok := s.shifts[shiftID]
	if !ok {
		return errors.New("shift not found")
	}
	if shift.SlotsFilled < shift.SlotsTotal {
		shift.SlotsFilled++
	}
	return nil
}

func (s *fakeStore) GetDiscoverable(_ context.Context, from, to time.Time) ([]models.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.Shift
	for _, shift := range s.shifts {
		if shift.Status != models.ShiftPosted {
			continue
		}
		if !shift.StartTime.After(from) || shift.StartTime.After(to) {
			continue
		}
		if shift.SlotsFilled >= shift.SlotsTotal {
			continue
		}
		result = append(result, *shift)
	}
	return result, nil
}

func (s *fakeStore) MarkRecruiting(_ context.Context, shiftID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMarkRecruiting[shiftID] {
		return false, errors.New("simulated db failure")
	}
	shift, ok := s.shifts[shiftID]
	if !ok || shift.Status != models.ShiftPosted {
		return false, nil
	}
	now := time.Now().UTC()
	shift.Status = models.ShiftRecruiting
	shift.RecruitingStartedAt = &now
	return true, nil
}

func (s *fakeStore) GetOfferable(_ context.Context) ([]models.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.Worker
	for _, worker := range s.workers {
		if worker.IsActive && worker.IsOnboarded && worker.HasCoordinates() {
			result = append(result, *worker)
		}
	}
	return result, nil
}

func (s *fakeStore) IncrementAssigned(_ context.Context, workerID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if worker, ok := s.workers[workerID]; ok {
		worker.TotalShiftsAssigned++
	}
	return nil
}

func (s *fakeStore) Create(_ context.Context, assignment *models.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.assignments {
		if existing.ShiftID == assignment.ShiftID && existing.WorkerID == assignment.WorkerID {
			return repositories.ErrDuplicateOffer
		}
	}
	assignment.ID = s.nextAssignmentID
	s.nextAssignmentID++
	copied := *assignment
	s.assignments[assignment.ID] = &copied
	return nil
}

func (s *fakeStore) HasPendingOffer(_ context.Context, shiftID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, assignment := range s.assignments {
		if assignment.ShiftID == shiftID && assignment.Status == models.AssignmentOffered {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) OfferedWorkerIDs(_ context.Context, shiftID int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int
	for _, assignment := range s.assignments {
		if assignment.ShiftID == shiftID {
			ids = append(ids, assignment.WorkerID)
		}
	}
	return ids, nil
}

func (s *fakeStore) resolve(assignmentID int, status models.AssignmentStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	assignment, ok := s.assignments[assignmentID]
	if !ok || assignment.Status != models.AssignmentOffered {
		return false
	}
	assignment.Status = status
	return true
}

func (s *fakeStore) getAssignment(_ context.Context, assignmentID int) (*models.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	assignment, ok := s.assignments[assignmentID]
	if !ok {
		return nil, nil
	}
	copied := *assignment
	return &copied, nil
}

func (s *fakeStore) MarkAccepted(_ context.Context, assignmentID int) (bool, error) {
	return s.resolve(assignmentID, models.AssignmentAccepted), nil
}

func (s *fakeStore) MarkDeclined(_ context.Context, assignmentID int, reason string) (bool, error) {
	resolved := s.resolve(assignmentID, models.AssignmentDeclined)
	if resolved && reason != "" {
		s.mu.Lock()
		s.assignments[assignmentID].DeclineReason = &reason
		s.mu.Unlock()
	}
	return resolved, nil
}

func (s *fakeStore) MarkNoResponse(_ context.Context, assignmentID int) (bool, error) {
	return s.resolve(assignmentID, models.AssignmentNoResponse), nil
}

func (s *fakeStore) Exists(_ context.Context, companyID, workerID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blockedPairs[fmt.Sprintf("%d:%d", companyID, workerID)], nil
}

func (s *fakeStore) Add(_ context.Context, activity models.RecruitingActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	activity.CreatedAt = time.Now().UTC()
	s.activities = append(s.activities, activity)
	return nil
}

func (s *fakeStore) actionsLogged() []models.ActivityAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var actions []models.ActivityAction
	for _, activity := range s.activities {
		actions = append(actions, activity.Action)
	}
	return actions
}

func (s *fakeStore) countAction(action models.ActivityAction) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, activity := range s.activities {
		if activity.Action == action {
			count++
		}
	}
	return count
}

func (s *fakeStore) pendingOffersFor(shiftID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, assignment := range s.assignments {
		if assignment.ShiftID == shiftID && assignment.Status == models.AssignmentOffered {
			count++
		}
	}
	return count
}

// assignmentStore adapts fakeStore to the dispatcher's assignment interface,
// whose GetByID collides with the shift one.
type assignmentStore struct {
	*fakeStore
}

func (s assignmentStore) GetByID(ctx context.Context, assignmentID int) (*models.Assignment, error) {
	return s.getAssignment(ctx, assignmentID)
}

// fakeScheduler captures scheduled tasks so tests decide when they fire.
type fakeScheduler struct {
	mu    sync.Mutex
	tasks []scheduledTask
}

type scheduledTask struct {
	delay time.Duration
	name  string
	fn    func()
}

func (s *fakeScheduler) ScheduleAfter(delay time.Duration, name string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, scheduledTask{delay: delay, name: name, fn: fn})
}

func (s *fakeScheduler) fire(index int) {
	s.mu.Lock()
	task := s.tasks[index]
	s.mu.Unlock()
	task.fn()
}

func (s *fakeScheduler) scheduled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

const (
	testCompanyID = 99
	testSiteLat   = 40.0
	testSiteLon   = -75.0
)

// testShiftStart is a Tuesday morning; eligible test workers carry a
// matching availability window.
var testShiftStart = time.Date(2030, 5, 7, 9, 0, 0, 0, time.UTC)

func makeRecruitingShift(id, slotsTotal, slotsFilled int) models.Shift {
	lat, lon := testSiteLat, testSiteLon
	return models.Shift{
		ID:           id,
		TrackingCode: fmt.Sprintf("trk-%d", id),
		CompanyID:    testCompanyID,
		JobType:      "warehouse",
		Latitude:     &lat,
		Longitude:    &lon,
		StartTime:    testShiftStart,
		EndTime:      testShiftStart.Add(8 * time.Hour),
		HourlyRate:   18.5,
		SlotsTotal:   slotsTotal,
		SlotsFilled:  slotsFilled,
		Status:       models.ShiftRecruiting,
	}
}

// makeEligibleWorker places the worker latOffset degrees north of the test
// site; one degree of latitude is roughly 69 miles.
func makeEligibleWorker(id int, latOffset float64) models.Worker {
	lat, lon := testSiteLat+latOffset, testSiteLon
	return models.Worker{
		ID:                id,
		Name:              fmt.Sprintf("worker-%d", id),
		Phone:             fmt.Sprintf("+1555000%04d", id),
		Latitude:          &lat,
		Longitude:         &lon,
		IsActive:          true,
		IsOnboarded:       true,
		PreferredJobTypes: "warehouse",
		Availability: []models.AvailabilityWindow{
			{WorkerID: id, Weekday: time.Tuesday, StartMinute: 8 * 60, EndMinute: 18 * 60},
		},
	}
}

// makeEligibleWorkerStartingAt makes the worker available all day on the
// shift's start weekday, for tests whose shifts are anchored to time.Now.
func makeEligibleWorkerStartingAt(id int, latOffset float64, start time.Time) models.Worker {
	worker := makeEligibleWorker(id, latOffset)
	worker.Availability = []models.AvailabilityWindow{
		{WorkerID: id, Weekday: start.Weekday(), StartMinute: 0, EndMinute: 24 * 60},
	}
	return worker
}

// futureMorning returns daysAhead days from now at 09:00 UTC, so a shift of
// a few hours never crosses midnight.
func futureMorning(daysAhead int) time.Time {
	day := time.Now().UTC().AddDate(0, 0, daysAhead)
	return time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, time.UTC)
}

// fakeGateway records offer sends.
type fakeGateway struct {
	mu     sync.Mutex
	phones []string
	err    error
}

func (g *fakeGateway) SendOffer(_ context.Context, phone string, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.phones = append(g.phones, phone)
	return nil
}
