package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/crewmark/recruiter/internal/domain/models"
	"gorm.io/gorm"
)

type Shifts struct {
	db *gorm.DB
}

func NewShiftsRepository(db *gorm.DB) *Shifts {
	return &Shifts{db: db}
}

func (repo *Shifts) Add(ctx context.Context, shift *models.Shift) error {
	return repo.db.WithContext(ctx).Create(shift).Error
}

// GetByID returns nil without error when the shift no longer exists.
func (repo *Shifts) GetByID(ctx context.Context, shiftID int) (*models.Shift, error) {

	var shift models.Shift
	err := repo.db.WithContext(ctx).First(&shift, "id = ?", shiftID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shift, nil
}

// GetDiscoverable returns posted shifts with open slots starting inside
// (from, to].
func (repo *Shifts) GetDiscoverable(ctx context.Context, from, to time.Time) ([]models.Shift, error) {

	var shifts []models.Shift
	err := repo.db.WithContext(ctx).
		Where("status = ?", models.ShiftPosted).
		Where("start_time > ? AND start_time <= ?", from, to).
		Where("slots_filled < slots_total").
		Order("start_time asc").
		Find(&shifts).Error
	if err != nil {
		return nil, err
	}
	return shifts, nil
}

// MarkRecruiting promotes a posted shift. Returns false when the shift
// already left the posted status, so racing sweeps do not double-promote.
func (repo *Shifts) MarkRecruiting(ctx context.Context, shiftID int) (bool, error) {
	res := repo.db.WithContext(ctx).Model(&models.Shift{}).
		Where("id = ? AND status = ?", shiftID, models.ShiftPosted).
		Updates(map[string]any{
			"status":                models.ShiftRecruiting,
			"recruiting_started_at": time.Now().UTC(),
		})
	return res.RowsAffected > 0, res.Error
}

func (repo *Shifts) MarkFilled(ctx context.Context, shiftID int) (bool, error) {
	res := repo.db.WithContext(ctx).Model(&models.Shift{}).
		Where("id = ? AND status = ?", shiftID, models.ShiftRecruiting).
		Updates(map[string]any{
			"status":    models.ShiftFilled,
			"filled_at": time.Now().UTC(),
		})
	return res.RowsAffected > 0, res.Error
}

// DemoteToRecruiting reverts a filled shift after a capacity-reducing
// cancellation.
func (repo *Shifts) DemoteToRecruiting(ctx context.Context, shiftID int) (bool, error) {
	res := repo.db.WithContext(ctx).Model(&models.Shift{}).
		Where("id = ? AND status = ?", shiftID, models.ShiftFilled).
		Updates(map[string]any{
			"status":    models.ShiftRecruiting,
			"filled_at": nil,
		})
	return res.RowsAffected > 0, res.Error
}

func (repo *Shifts) IncrementFilled(ctx context.Context, shiftID int) error {
	return repo.db.WithContext(ctx).Model(&models.Shift{}).
		Where("id = ? AND slots_filled < slots_total", shiftID).
		Update("slots_filled", gorm.Expr("slots_filled + 1")).Error
}

func (repo *Shifts) DecrementFilled(ctx context.Context, shiftID int) error {
	return repo.db.WithContext(ctx).Model(&models.Shift{}).
		Where("id = ? AND slots_filled > 0", shiftID).
		Update("slots_filled", gorm.Expr("slots_filled - 1")).Error
}
