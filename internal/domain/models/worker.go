package models

import (
	"strings"
	"time"

	"github.com/samber/lo"
)

type Worker struct {
	ID          int
	Name        string
	Phone       string
	Latitude    *float64
	Longitude   *float64
	IsActive    bool
	IsOnboarded bool

	ReliabilityScore   *float64 // 0-100
	AverageRating      *float64 // 1-5
	AvgResponseMinutes *float64 // nil for workers who never responded

	TotalShiftsCompleted int
	TotalShiftsAssigned  int

	// Comma-joined job type lists, see PreferredJobTypesAsArray.
	PreferredJobTypes string
	CompletedJobTypes string

	Availability []AvailabilityWindow `gorm:"foreignKey:WorkerID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AvailabilityWindow is a weekly recurring interval during which a worker
// accepts shifts. Minutes are counted from midnight local time.
type AvailabilityWindow struct {
	ID          int
	WorkerID    int
	Weekday     time.Weekday
	StartMinute int
	EndMinute   int
}

func (w *Worker) HasCoordinates() bool {
	return w.Latitude != nil && w.Longitude != nil
}

func (w *Worker) PreferredJobTypesAsArray() []string {
	return splitJobTypes(w.PreferredJobTypes)
}

func (w *Worker) PrefersJobType(jobType string) bool {
	return lo.Contains(w.PreferredJobTypesAsArray(), jobType)
}

func (w *Worker) HasCompletedJobType(jobType string) bool {
	return lo.Contains(splitJobTypes(w.CompletedJobTypes), jobType)
}

// AvailableDuring reports whether one of the worker's weekly windows covers
// the whole [start, end) interval. Shifts crossing midnight never match a
// single window and are treated as unavailable.
func (w *Worker) AvailableDuring(start, end time.Time) bool {
	startMinute := start.Hour()*60 + start.Minute()
	endMinute := end.Hour()*60 + end.Minute()
	if !end.After(start) || end.Sub(start) > 24*time.Hour {
		return false
	}
	if endMinute <= startMinute {
		return false
	}

	for _, window := range w.Availability {
		if window.Weekday != start.Weekday() {
			continue
		}
		if window.StartMinute <= startMinute && window.EndMinute >= endMinute {
			return true
		}
	}
	return false
}

func JoinJobTypes(jobTypes []string) string {
	return strings.Join(jobTypes, ",")
}

func splitJobTypes(joined string) []string {
	if joined == "" {
		return []string{}
	}
	return lo.Map(strings.Split(joined, ","), func(item string, _ int) string {
		return strings.TrimSpace(item)
	})
}
