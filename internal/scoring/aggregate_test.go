package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pmtctportal/internal/spec"
)

func graded(id string, g spec.Grade) SectionResult {
	return SectionResult{SectionID: id, Status: StatusGraded, Grade: g}
}

func TestAggregateSingleSection(t *testing.T) {
	// 3 of 4 points is exactly the EXCELLENT cut.
	res := Aggregate([]SectionResult{graded("s1", spec.GradeLightGreen)}, Policy{})
	assert.Equal(t, 3, res.Points)
	assert.Equal(t, 4, res.MaxPoints)
	assert.Equal(t, 75.0, res.Percentage)
	assert.Equal(t, BandExcellent, res.Band)
}

func TestAggregateUnansweredCountsAgainst(t *testing.T) {
	results := []SectionResult{
		graded("s1", spec.GradeDarkGreen),
		{SectionID: "s2", Status: StatusNotAnswered},
	}
	res := Aggregate(results, Policy{})
	assert.Equal(t, 4, res.Points)
	assert.Equal(t, 8, res.MaxPoints)
	assert.Equal(t, 50.0, res.Percentage)
	assert.Equal(t, BandGood, res.Band)
}

func TestAggregateOptionalUnanswered(t *testing.T) {
	results := []SectionResult{
		graded("s1", spec.GradeDarkGreen),
		{SectionID: "s2", Status: StatusNotAnswered},
	}
	res := Aggregate(results, Policy{OptionalUnanswered: true})
	assert.Equal(t, 4, res.Points)
	assert.Equal(t, 4, res.MaxPoints)
	assert.Equal(t, 100.0, res.Percentage)
	assert.Equal(t, BandExcellent, res.Band)
}

func TestAggregateNotApplicableExcluded(t *testing.T) {
	results := []SectionResult{
		graded("s1", spec.GradeYellow),
		{SectionID: "s2", Status: StatusNotApplicable},
	}
	res := Aggregate(results, Policy{})
	assert.Equal(t, 2, res.Points)
	assert.Equal(t, 4, res.MaxPoints)
	assert.Equal(t, 50.0, res.Percentage)
}

func TestAggregateZeroDenominator(t *testing.T) {
	results := []SectionResult{
		{SectionID: "s1", Status: StatusNotApplicable},
		{SectionID: "s2", Status: StatusNotAnswered},
	}
	res := Aggregate(results, Policy{OptionalUnanswered: true})
	assert.Equal(t, 0, res.MaxPoints)
	assert.Equal(t, 0.0, res.Percentage)
	assert.Equal(t, BandCritical, res.Band)

	// Empty input behaves the same.
	res = Aggregate(nil, Policy{})
	assert.Equal(t, 0.0, res.Percentage)
	assert.Equal(t, BandCritical, res.Band)
}

func TestAggregateRoundsHalfToEven(t *testing.T) {
	// 1/16 = 6.25% -> the half rounds to the even neighbor 6.2.
	results := []SectionResult{
		graded("s1", spec.GradeRed),
		{SectionID: "s2", Status: StatusNotAnswered},
		{SectionID: "s3", Status: StatusNotAnswered},
		{SectionID: "s4", Status: StatusNotAnswered},
	}
	res := Aggregate(results, Policy{})
	assert.Equal(t, 1, res.Points)
	assert.Equal(t, 16, res.MaxPoints)
	assert.Equal(t, 6.2, res.Percentage)
}

func TestBandFor(t *testing.T) {
	cases := []struct {
		pct  float64
		band Band
	}{
		{100, BandExcellent},
		{75, BandExcellent},
		{74.9, BandGood},
		{50, BandGood},
		{49.9, BandNeedsImprovement},
		{25, BandNeedsImprovement},
		{24.9, BandCritical},
		{0, BandCritical},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.band, BandFor(tc.pct), "%.1f%%", tc.pct)
	}
}
