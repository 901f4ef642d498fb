package events

var (
	OfferAcceptedTopic       = "OfferAcceptedEvent"
	OfferDeclinedTopic       = "OfferDeclinedEvent"
	AssignmentCancelledTopic = "AssignmentCancelledEvent"
	RecruitingPausedTopic    = "RecruitingPausedEvent"
	RecruitingResumedTopic   = "RecruitingResumedEvent"
)

// OfferAccepted is published by the response ingestion layer when a worker
// replies yes to a pending offer.
type OfferAccepted struct {
	AssignmentID int
}

type OfferDeclined struct {
	AssignmentID int
	Reason       string
}

// AssignmentCancelled fires when an accepted assignment is reverted and the
// shift may need more workers again.
type AssignmentCancelled struct {
	ShiftID int
}

type RecruitingPaused struct {
	ShiftID      int
	TrackingCode string
	Reason       string
}

type RecruitingResumed struct {
	ShiftID         int
	TrackingCode    string
	PreviousStatus  string
	HoursUntilStart float64
}
