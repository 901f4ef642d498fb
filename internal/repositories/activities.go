package repositories

import (
	"context"

	"github.com/crewmark/recruiter/internal/domain/models"
	"gorm.io/gorm"
)

type Activities struct {
	db *gorm.DB
}

func NewActivitiesRepository(db *gorm.DB) *Activities {
	return &Activities{db: db}
}

func (repo *Activities) Add(ctx context.Context, activity models.RecruitingActivity) error {
	return repo.db.WithContext(ctx).Create(&activity).Error
}

// GetByShift is the read contract for the admin timeline: every recruiting
// event for the shift, oldest first.
func (repo *Activities) GetByShift(ctx context.Context, shiftID int) ([]models.RecruitingActivity, error) {

	var activities []models.RecruitingActivity
	err := repo.db.WithContext(ctx).
		Where("shift_id = ?", shiftID).
		Order("created_at asc, id asc").
		Find(&activities).Error
	if err != nil {
		return nil, err
	}
	return activities, nil
}
