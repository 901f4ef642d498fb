package repositories

import (
	"fmt"

	"github.com/crewmark/recruiter/internal/domain/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DbContext struct {
	DB *gorm.DB
}

func NewDbContext(connectionString string) (*DbContext, error) {
	db, err := gorm.Open(sqlite.Open(connectionString), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}

	return &DbContext{DB: db}, nil
}

func (c *DbContext) Migrate() error {
	err := c.DB.AutoMigrate(models.Shift{})
	if err != nil {
		return fmt.Errorf("failed to migrate Shift entity: %w", err)
	}

	err = c.DB.AutoMigrate(models.Worker{})
	if err != nil {
		return fmt.Errorf("failed to migrate Worker entity: %w", err)
	}

	err = c.DB.AutoMigrate(models.AvailabilityWindow{})
	if err != nil {
		return fmt.Errorf("failed to migrate AvailabilityWindow entity: %w", err)
	}

	err = c.DB.AutoMigrate(models.Assignment{})
	if err != nil {
		return fmt.Errorf("failed to migrate Assignment entity: %w", err)
	}

	err = c.DB.AutoMigrate(models.RecruitingActivity{})
	if err != nil {
		return fmt.Errorf("failed to migrate RecruitingActivity entity: %w", err)
	}

	err = c.DB.AutoMigrate(models.BlockList{})
	if err != nil {
		return fmt.Errorf("failed to migrate BlockList entity: %w", err)
	}

	// The (shift_id, worker_id) uniqueness is the sole referee for racing
	// dispatch invocations; a duplicate offer insert must fail.
	if err = c.DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_shift_worker ON assignments (shift_id, worker_id)").
		Error; err != nil {
		return fmt.Errorf("failed to create assignment index: %w", err)
	}

	if err = c.DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_shift_tracking_code ON shifts (tracking_code)").
		Error; err != nil {
		return fmt.Errorf("failed to create tracking code index: %w", err)
	}

	return nil
}

func (c *DbContext) Close() error {
	db, err := c.DB.DB()
	if err != nil {
		return err
	}

	return db.Close()
}
