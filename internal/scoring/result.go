package scoring

import (
	"math"

	"pmtctportal/internal/spec"
)

// Status distinguishes a graded section from the two expected non-grade
// outcomes. Neither NotAnswered nor NotApplicable is ever conflated with a
// failing grade.
type Status int

const (
	StatusGraded Status = iota + 1
	StatusNotAnswered
	StatusNotApplicable
)

func (s Status) String() string {
	switch s {
	case StatusGraded:
		return "graded"
	case StatusNotAnswered:
		return "not_answered"
	case StatusNotApplicable:
		return "not_applicable"
	}
	return "unknown"
}

// SectionResult is the outcome of evaluating one section.
type SectionResult struct {
	SectionID string
	Status    Status
	Grade     spec.Grade // set only when Status is StatusGraded
	// DecidingQuestion is the question that fixed the grade, or the first
	// unanswered question for a NotAnswered section. Kept for audit.
	DecidingQuestion string
}

// Warning records a recoverable anomaly found during evaluation, such as a
// malformed numeric answer. Warnings never abort scoring.
type Warning struct {
	SectionID  string
	QuestionID string
	Field      string
	Detail     string
}

// Band is the overall facility performance rating.
type Band string

const (
	BandExcellent        Band = "EXCELLENT"
	BandGood             Band = "GOOD"
	BandNeedsImprovement Band = "NEEDS IMPROVEMENT"
	BandCritical         Band = "CRITICAL"
)

// BandFor maps an aggregate percentage to its performance band.
func BandFor(pct float64) Band {
	switch {
	case pct >= 75:
		return BandExcellent
	case pct >= 50:
		return BandGood
	case pct >= 25:
		return BandNeedsImprovement
	default:
		return BandCritical
	}
}

// Color returns the hex fill color used by the report renderers for the band.
func (b Band) Color() string {
	switch b {
	case BandExcellent:
		return "006400"
	case BandGood:
		return "90EE90"
	case BandNeedsImprovement:
		return "FFC107"
	default:
		return "DC3545"
	}
}

// Policy configures how unanswered sections count toward the aggregate.
// The default penalizes incompleteness: a required section left unanswered
// contributes 0 against a full 4-point denominator. With OptionalUnanswered
// set, unanswered sections are excluded from the denominator entirely.
type Policy struct {
	OptionalUnanswered bool
}

// AssessmentResult is the aggregate over all evaluated sections.
type AssessmentResult struct {
	Points     int
	MaxPoints  int
	Percentage float64
	Band       Band
	PerSection []SectionResult
}

// Aggregate rolls section results up into the overall facility score.
// Not-applicable sections never count; not-answered handling follows the
// policy. A zero denominator yields 0% and CRITICAL, never a division error.
func Aggregate(results []SectionResult, policy Policy) AssessmentResult {
	points, max := 0, 0
	for _, r := range results {
		switch r.Status {
		case StatusGraded:
			points += int(r.Grade)
			max += 4
		case StatusNotAnswered:
			if !policy.OptionalUnanswered {
				max += 4
			}
		case StatusNotApplicable:
			// excluded from both numerator and denominator
		}
	}
	pct := 0.0
	if max > 0 {
		pct = roundHalfEven1(float64(points) / float64(max) * 100)
	}
	return AssessmentResult{
		Points:     points,
		MaxPoints:  max,
		Percentage: pct,
		Band:       BandFor(pct),
		PerSection: results,
	}
}

// roundHalfEven1 rounds to one decimal place with banker's rounding, so
// repeated aggregations of the same inputs reproduce byte-identical reports.
func roundHalfEven1(x float64) float64 {
	return math.RoundToEven(x*10) / 10
}
