package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/crewmark/recruiter/internal/domain/models"
	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

type BlockLists struct {
	db *gorm.DB
}

func NewBlockListsRepository(db *gorm.DB) *BlockLists {
	return &BlockLists{db: db}
}

// Exists reports whether a block exists between the company and worker in
// either direction.
func (repo *BlockLists) Exists(ctx context.Context, companyID, workerID int) (bool, error) {

	var count int64
	err := repo.db.WithContext(ctx).Model(&models.BlockList{}).
		Where("company_id = ? AND worker_id = ?", companyID, workerID).
		Count(&count).Error
	return count > 0, err
}

type blockListRepository interface {
	Exists(ctx context.Context, companyID, workerID int) (bool, error)
}

// CachedBlockLists avoids re-querying the same company/worker pair on every
// dispatch; the relation is read-only to this subsystem so a short TTL is
// safe.
type CachedBlockLists struct {
	repo  blockListRepository
	cache *gocache.Cache
}

func NewCachedBlockLists(repo blockListRepository) *CachedBlockLists {
	return &CachedBlockLists{repo: repo, cache: gocache.New(5*time.Minute, 10*time.Minute)}
}

func (c *CachedBlockLists) Exists(ctx context.Context, companyID, workerID int) (bool, error) {
	key := fmt.Sprintf("%d:%d", companyID, workerID)
	if value, found := c.cache.Get(key); found {
		return value.(bool), nil
	}

	blocked, err := c.repo.Exists(ctx, companyID, workerID)
	if err != nil {
		return false, err
	}

	if cacheErr := c.cache.Add(key, blocked, gocache.DefaultExpiration); cacheErr != nil {
		return blocked, nil
	}
	return blocked, nil
}
