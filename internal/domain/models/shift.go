package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type ShiftStatus string

const (
	ShiftDraft      ShiftStatus = "draft"
	ShiftPosted     ShiftStatus = "posted"
	ShiftRecruiting ShiftStatus = "recruiting"
	ShiftFilled     ShiftStatus = "filled"
	ShiftInProgress ShiftStatus = "in_progress"
	ShiftCompleted  ShiftStatus = "completed"
	ShiftCancelled  ShiftStatus = "cancelled"
)

func ToShiftStatus(s string) (ShiftStatus, error) {
	switch s {
	case string(ShiftDraft):
		return ShiftDraft, nil
	case string(ShiftPosted):
		return ShiftPosted, nil
	case string(ShiftRecruiting):
		return ShiftRecruiting, nil
	case string(ShiftFilled):
		return ShiftFilled, nil
	case string(ShiftInProgress):
		return ShiftInProgress, nil
	case string(ShiftCompleted):
		return ShiftCompleted, nil
	case string(ShiftCancelled):
		return ShiftCancelled, nil
	default:
		return "", errors.New("invalid shift status")
	}
}

// CanTransitionTo reports whether the status change is allowed. Transitions
// are monotonic except for the filled->recruiting demotion used when an
// accepted worker later cancels.
func (s ShiftStatus) CanTransitionTo(next ShiftStatus) bool {
	if next == ShiftCancelled {
		return s != ShiftCompleted && s != ShiftCancelled
	}

	switch s {
	case ShiftDraft:
		return next == ShiftPosted
	case ShiftPosted:
		return next == ShiftRecruiting
	case ShiftRecruiting:
		return next == ShiftFilled
	case ShiftFilled:
		return next == ShiftRecruiting || next == ShiftInProgress
	case ShiftInProgress:
		return next == ShiftCompleted
	case ShiftCompleted, ShiftCancelled:
		return false
	default:
		return false
	}
}

type Shift struct {
	ID           int
	TrackingCode string
	CompanyID    int
	JobType      string
	Latitude     *float64
	Longitude    *float64
	StartTime    time.Time
	EndTime      time.Time
	HourlyRate   float64
	SlotsTotal   int
	SlotsFilled  int
	Status       ShiftStatus

	PostedAt            *time.Time
	RecruitingStartedAt *time.Time
	FilledAt            *time.Time
	CompletedAt         *time.Time
	CancelledAt         *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewShift(companyID int, jobType string, start, end time.Time, hourlyRate float64, slots int) *Shift {
	return &Shift{
		TrackingCode: uuid.NewString(),
		CompanyID:    companyID,
		JobType:      jobType,
		StartTime:    start,
		EndTime:      end,
		HourlyRate:   hourlyRate,
		SlotsTotal:   slots,
		Status:       ShiftDraft,
	}
}

func (s *Shift) FullyFilled() bool {
	return s.SlotsFilled >= s.SlotsTotal
}

func (s *Shift) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}

func (s *Shift) HoursUntilStart(now time.Time) float64 {
	return s.StartTime.Sub(now).Hours()
}
