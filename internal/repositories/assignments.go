package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/crewmark/recruiter/internal/domain/models"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// ErrDuplicateOffer signals the (shift_id, worker_id) uniqueness fired. The
// dispatcher treats it as a benign race outcome, not a failure.
var ErrDuplicateOffer = errors.New("worker was already offered this shift")

type Assignments struct {
	db *gorm.DB
}

func NewAssignmentsRepository(db *gorm.DB) *Assignments {
	return &Assignments{db: db}
}

func (repo *Assignments) Create(ctx context.Context, assignment *models.Assignment) error {
	err := repo.db.WithContext(ctx).Create(assignment).Error
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicateOffer
	}
	return err
}

func (repo *Assignments) GetByID(ctx context.Context, assignmentID int) (*models.Assignment, error) {

	var assignment models.Assignment
	err := repo.db.WithContext(ctx).First(&assignment, "id = ?", assignmentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &assignment, nil
}

func (repo *Assignments) GetByShift(ctx context.Context, shiftID int) ([]models.Assignment, error) {

	var assignments []models.Assignment
	err := repo.db.WithContext(ctx).
		Where("shift_id = ?", shiftID).
		Order("created_at asc").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (repo *Assignments) HasPendingOffer(ctx context.Context, shiftID int) (bool, error) {

	var count int64
	err := repo.db.WithContext(ctx).Model(&models.Assignment{}).
		Where("shift_id = ? AND status = ?", shiftID, models.AssignmentOffered).
		Count(&count).Error
	return count > 0, err
}

// OfferedWorkerIDs returns every worker who already holds an assignment for
// the shift, regardless of its outcome.
func (repo *Assignments) OfferedWorkerIDs(ctx context.Context, shiftID int) ([]int, error) {

	var assignments []models.Assignment
	err := repo.db.WithContext(ctx).Select("worker_id").
		Where("shift_id = ?", shiftID).
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return lo.Map(assignments, func(a models.Assignment, _ int) int {
		return a.WorkerID
	}), nil
}

// resolveOffer moves an assignment out of the offered state. Returns false
// when the offer was already resolved, which callers treat as stale state.
func (repo *Assignments) resolveOffer(ctx context.Context, assignmentID int,
	status models.AssignmentStatus, extra map[string]any) (bool, error) {

	updates := map[string]any{"status": status}
	for column, value := range extra {
		updates[column] = value
	}

	res := repo.db.WithContext(ctx).Model(&models.Assignment{}).
		Where("id = ? AND status = ?", assignmentID, models.AssignmentOffered).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

func (repo *Assignments) MarkAccepted(ctx context.Context, assignmentID int) (bool, error) {
	return repo.resolveOffer(ctx, assignmentID, models.AssignmentAccepted, map[string]any{
		"response_received_at": time.Now().UTC(),
	})
}

func (repo *Assignments) MarkDeclined(ctx context.Context, assignmentID int, reason string) (bool, error) {
	extra := map[string]any{"response_received_at": time.Now().UTC()}
	if reason != "" {
		extra["decline_reason"] = reason
	}
	return repo.resolveOffer(ctx, assignmentID, models.AssignmentDeclined, extra)
}

func (repo *Assignments) MarkNoResponse(ctx context.Context, assignmentID int) (bool, error) {
	return repo.resolveOffer(ctx, assignmentID, models.AssignmentNoResponse, nil)
}
