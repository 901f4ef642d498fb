package models

import (
	"errors"
	"time"
)

type AssignmentStatus string

const (
	AssignmentOffered    AssignmentStatus = "offered"
	AssignmentAccepted   AssignmentStatus = "accepted"
	AssignmentDeclined   AssignmentStatus = "declined"
	AssignmentNoResponse AssignmentStatus = "no_response"
	AssignmentConfirmed  AssignmentStatus = "confirmed"
	AssignmentCheckedIn  AssignmentStatus = "checked_in"
	AssignmentNoShow     AssignmentStatus = "no_show"
	AssignmentCompleted  AssignmentStatus = "completed"
	AssignmentCancelled  AssignmentStatus = "cancelled"
)

func ToAssignmentStatus(s string) (AssignmentStatus, error) {
	switch s {
	case string(AssignmentOffered):
		return AssignmentOffered, nil
	case string(AssignmentAccepted):
		return AssignmentAccepted, nil
	case string(AssignmentDeclined):
		return AssignmentDeclined, nil
	case string(AssignmentNoResponse):
		return AssignmentNoResponse, nil
	case string(AssignmentConfirmed):
		return AssignmentConfirmed, nil
	case string(AssignmentCheckedIn):
		return AssignmentCheckedIn, nil
	case string(AssignmentNoShow):
		return AssignmentNoShow, nil
	case string(AssignmentCompleted):
		return AssignmentCompleted, nil
	case string(AssignmentCancelled):
		return AssignmentCancelled, nil
	default:
		return "", errors.New("invalid assignment status")
	}
}

// Pending reports whether the assignment is an unresolved offer.
func (s AssignmentStatus) Pending() bool {
	return s == AssignmentOffered
}

func (s AssignmentStatus) CanTransitionTo(next AssignmentStatus) bool {
	switch s {
	case AssignmentOffered:
		return next == AssignmentAccepted || next == AssignmentDeclined ||
			next == AssignmentNoResponse || next == AssignmentCancelled
	case AssignmentAccepted:
		return next == AssignmentConfirmed || next == AssignmentCancelled
	case AssignmentConfirmed:
		return next == AssignmentCheckedIn || next == AssignmentCancelled
	case AssignmentCheckedIn:
		return next == AssignmentCompleted || next == AssignmentNoShow
	case AssignmentDeclined, AssignmentNoResponse, AssignmentNoShow,
		AssignmentCompleted, AssignmentCancelled:
		return false
	default:
		return false
	}
}

type AssignedBy string

const (
	AssignedByAlgorithm  AssignedBy = "algorithm"
	AssignedByManual     AssignedBy = "manual"
	AssignedBySelfSelect AssignedBy = "self_select"
)

// Assignment binds one shift to one worker. A worker can be offered a given
// shift at most once; the (shift_id, worker_id) unique index is the referee
// for racing dispatch invocations.
type Assignment struct {
	ID       int
	ShiftID  int
	WorkerID int

	Status     AssignmentStatus
	AssignedBy AssignedBy

	AlgorithmScore *float64
	DistanceMiles  *float64

	AssignedAt         time.Time
	SmsSentAt          *time.Time
	ResponseReceivedAt *time.Time
	DeclineReason      *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
