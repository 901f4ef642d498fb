package models

import (
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"
)

type ActivityAction string

const (
	ActionRecruitingStarted   ActivityAction = "recruiting_started"
	ActionWorkerScored        ActivityAction = "worker_scored"
	ActionNextWorkerSelected  ActivityAction = "next_worker_selected"
	ActionOfferSent           ActivityAction = "offer_sent"
	ActionOfferAccepted       ActivityAction = "offer_accepted"
	ActionOfferDeclined       ActivityAction = "offer_declined"
	ActionOfferTimeout        ActivityAction = "offer_timeout"
	ActionRecruitingPaused    ActivityAction = "recruiting_paused"
	ActionRecruitingResumed   ActivityAction = "recruiting_resumed"
	ActionRecruitingCompleted ActivityAction = "recruiting_completed"
)

// RecruitingActivity is an append-only audit row. Action strings and the
// details payload are read by the admin timeline; never rename them without
// updating consumers.
type RecruitingActivity struct {
	ID           int
	ShiftID      int
	WorkerID     *int
	AssignmentID *int
	Action       ActivityAction
	Details      string
	Source       string
	CreatedAt    time.Time
}

func NewActivity(shiftID int, action ActivityAction, details map[string]any) RecruitingActivity {
	return RecruitingActivity{
		ShiftID: shiftID,
		Action:  action,
		Details: encodeDetails(details),
		Source:  "recruiting_engine",
	}
}

func (a RecruitingActivity) WithWorker(workerID int) RecruitingActivity {
	a.WorkerID = &workerID
	return a
}

func (a RecruitingActivity) WithAssignment(assignmentID int) RecruitingActivity {
	a.AssignmentID = &assignmentID
	return a
}

func (a RecruitingActivity) DetailsAsMap() map[string]any {
	if a.Details == "" {
		return map[string]any{}
	}
	var details map[string]any
	if err := json.Unmarshal([]byte(a.Details), &details); err != nil {
		log.Errorf("failed to decode activity details: %v", err)
		return map[string]any{}
	}
	return details
}

func encodeDetails(details map[string]any) string {
	if len(details) == 0 {
		return "{}"
	}
	encoded, err := json.Marshal(details)
	if err != nil {
		log.Errorf("failed to encode activity details: %v", err)
		return "{}"
	}
	return string(encoded)
}
