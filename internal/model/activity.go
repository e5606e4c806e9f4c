package model

import "time"

// Activity actions recorded in the audit trail.
const (
	ActionLogin               = "login"
	ActionParticipantCreated  = "participant_created"
	ActionAssessmentSubmitted = "assessment_submitted"
	ActionReportDownloaded    = "report_downloaded"
	ActionReportEmailed       = "report_emailed"
	ActionUserCreated         = "user_created"
)

// ActivityEntry is one row of the audit log.
type ActivityEntry struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Username  string    `json:"username" bson:"username"`
	Action    string    `json:"action" bson:"action"`
	Detail    string    `json:"detail,omitempty" bson:"detail,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
