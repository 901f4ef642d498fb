package models

import "time"

type BlockedBy string

const (
	BlockedByCompany BlockedBy = "company"
	BlockedByWorker  BlockedBy = "worker"
)

// BlockList is a mutual-exclusion relation between a company and a worker.
// Either party may create it; this subsystem only reads it.
type BlockList struct {
	ID        int
	CompanyID int
	WorkerID  int
	BlockedBy BlockedBy
	CreatedAt time.Time
}
