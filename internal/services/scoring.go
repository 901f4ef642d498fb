package services

import (
	"math"
	"sort"

	"github.com/crewmark/recruiter/internal/domain/models"
	"github.com/samber/lo"
)

// Factor caps. The maximum total is 110.
const (
	maxDistanceScore     = 30.0
	maxReliabilityScore  = 25.0
	maxJobTypeFitScore   = 20.0
	maxRatingScore       = 15.0
	maxResponseTimeScore = 10.0
	maxExperienceScore   = 10.0
)

type ScoreBreakdown struct {
	Distance     float64 `json:"distance"`
	Reliability  float64 `json:"reliability"`
	JobTypeFit   float64 `json:"job_type_fit"`
	Rating       float64 `json:"rating"`
	ResponseTime float64 `json:"response_time"`
	Experience   float64 `json:"experience"`
}

type ScoredCandidate struct {
	Candidate
	Breakdown ScoreBreakdown
	Total     float64
}

// ScoreCandidate computes the six-factor score for one eligible worker.
// Deterministic and side-effect free.
func ScoreCandidate(shift *models.Shift, candidate Candidate) ScoredCandidate {

	worker := candidate.Worker
	breakdown := ScoreBreakdown{
		Distance:     distanceScore(candidate.DistanceMiles),
		Reliability:  reliabilityScore(worker.ReliabilityScore),
		JobTypeFit:   jobTypeFitScore(&worker, shift.JobType),
		Rating:       ratingScore(worker.AverageRating),
		ResponseTime: responseTimeScore(worker.AvgResponseMinutes),
		Experience:   experienceScore(worker.TotalShiftsCompleted),
	}

	total := breakdown.Distance + breakdown.Reliability + breakdown.JobTypeFit +
		breakdown.Rating + breakdown.ResponseTime + breakdown.Experience

	return ScoredCandidate{
		Candidate: candidate,
		Breakdown: breakdown,
		Total:     round2(total),
	}
}

// RankCandidates scores and orders candidates best first. Equal totals order
// by worker ID ascending, which makes ranking deterministic.
func RankCandidates(shift *models.Shift, candidates []Candidate) []ScoredCandidate {

	scored := lo.Map(candidates, func(candidate Candidate, _ int) ScoredCandidate {
		return ScoreCandidate(shift, candidate)
	})

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Total != scored[j].Total {
			return scored[i].Total > scored[j].Total
		}
		return scored[i].Worker.ID < scored[j].Worker.ID
	})

	return scored
}

func distanceScore(miles float64) float64 {
	switch {
	case miles <= 5:
		return maxDistanceScore
	case miles <= 10:
		return 25
	case miles <= 15:
		return 20
	case miles <= 20:
		return 15
	case miles <= 25:
		return 10
	default:
		return 0
	}
}

func reliabilityScore(reliability *float64) float64 {
	if reliability == nil {
		return 0
	}
	return round2(*reliability / 100 * maxReliabilityScore)
}

func jobTypeFitScore(worker *models.Worker, jobType string) float64 {
	prefers := worker.PrefersJobType(jobType)
	hasDone := worker.HasCompletedJobType(jobType)

	switch {
	case prefers && hasDone:
		return maxJobTypeFitScore
	case prefers || hasDone:
		return 10
	default:
		return 5
	}
}

func ratingScore(rating *float64) float64 {
	if rating == nil {
		// No rating history yet: default to the middle of the scale.
		return 10
	}
	return round2((*rating - 1) / 4 * maxRatingScore)
}

// An unknown response time is worth 5 points while a known average above
// 30 minutes gets only 2; workers without history rank above slow responders.
func responseTimeScore(avgMinutes *float64) float64 {
	if avgMinutes == nil {
		return 5
	}
	switch {
	case *avgMinutes < 5:
		return maxResponseTimeScore
	case *avgMinutes <= 15:
		return 8
	case *avgMinutes <= 30:
		return 5
	default:
		return 2
	}
}

func experienceScore(totalCompleted int) float64 {
	return math.Min(float64(totalCompleted)*0.5, maxExperienceScore)
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
