package repositories

import (
	"context"
	"errors"

	"github.com/crewmark/recruiter/internal/domain/models"
	"gorm.io/gorm"
)

type Workers struct {
	db *gorm.DB
}

func NewWorkersRepository(db *gorm.DB) *Workers {
	return &Workers{db: db}
}

func (repo *Workers) Add(ctx context.Context, worker *models.Worker) error {
	return repo.db.WithContext(ctx).Create(worker).Error
}

func (repo *Workers) GetByID(ctx context.Context, workerID int) (*models.Worker, error) {

	var worker models.Worker
	err := repo.db.WithContext(ctx).Preload("Availability").
		First(&worker, "id = ?", workerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &worker, nil
}

// GetOfferable returns active onboarded workers with known coordinates.
// Job type preference, availability and block lists are checked per shift
// by the eligibility filter.
func (repo *Workers) GetOfferable(ctx context.Context) ([]models.Worker, error) {

	var workers []models.Worker
	err := repo.db.WithContext(ctx).Preload("Availability").
		Where("is_active = ? AND is_onboarded = ?", true, true).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Find(&workers).Error
	if err != nil {
		return nil, err
	}
	return workers, nil
}

func (repo *Workers) IncrementAssigned(ctx context.Context, workerID int) error {
	return repo.db.WithContext(ctx).Model(&models.Worker{}).
		Where("id = ?", workerID).
		Update("total_shifts_assigned", gorm.Expr("total_shifts_assigned + 1")).Error
}
