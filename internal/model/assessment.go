package model

import "time"

// SectionScore is the persisted outcome of one assessment section. Grade is
// 1-4 for graded sections and 0 otherwise; Status distinguishes graded,
// not_answered, and not_applicable.
type SectionScore struct {
	SectionID        string `json:"sectionId" bson:"sectionId"`
	Title            string `json:"title" bson:"title"`
	Status           string `json:"status" bson:"status"`
	Grade            int    `json:"grade,omitempty" bson:"grade,omitempty"`
	DecidingQuestion string `json:"decidingQuestion,omitempty" bson:"decidingQuestion,omitempty"`
}

// Assessment is one submitted facility assessment, holding both the raw
// responses (for report detail pages) and the derived scores.
type Assessment struct {
	ID             string            `json:"id" bson:"_id,omitempty"`
	FacilityName   string            `json:"facilityName" bson:"facilityName"`
	District       string            `json:"district" bson:"district"`
	FacilityLevel  string            `json:"facilityLevel" bson:"facilityLevel"`
	Ownership      string            `json:"ownership" bson:"ownership"`
	AssessorName   string            `json:"assessorName" bson:"assessorName"`
	AssessmentDate time.Time         `json:"assessmentDate" bson:"assessmentDate"`
	CampaignDay    int               `json:"campaignDay" bson:"campaignDay"`
	SubmittedBy    string            `json:"submittedBy" bson:"submittedBy"`
	Responses      map[string]string `json:"responses" bson:"responses"`
	SectionScores  []SectionScore    `json:"sectionScores" bson:"sectionScores"`
	Points         int               `json:"points" bson:"points"`
	MaxPoints      int               `json:"maxPoints" bson:"maxPoints"`
	OverallPct     float64           `json:"overallPct" bson:"overallPct"`
	Band           string            `json:"band" bson:"band"`
	Warnings       []string          `json:"warnings,omitempty" bson:"warnings,omitempty"`
	CreatedAt      time.Time         `json:"createdAt" bson:"createdAt"`
}

// DistrictSummary is the aggregate view cached for the admin dashboard.
type DistrictSummary struct {
	District      string         `json:"district" bson:"district"`
	Assessments   int            `json:"assessments" bson:"assessments"`
	Participants  int            `json:"participants" bson:"participants"`
	AveragePct    float64        `json:"averagePct" bson:"averagePct"`
	BandBreakdown map[string]int `json:"bandBreakdown" bson:"bandBreakdown"`
	UpdatedAt     time.Time      `json:"updatedAt" bson:"updatedAt"`
}

// FacilityRank is one entry of the per-district facility ranking.
type FacilityRank struct {
	FacilityName string  `json:"facilityName"`
	OverallPct   float64 `json:"overallPct"`
	Rank         int     `json:"rank"`
}
