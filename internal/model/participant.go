package model

import "time"

// Participant is a registered campaign participant.
type Participant struct {
	ID               string    `json:"id" bson:"_id,omitempty"`
	ParticipantName  string    `json:"participantName" bson:"participantName"`
	Cadre            string    `json:"cadre" bson:"cadre"`
	DutyStation      string    `json:"dutyStation" bson:"dutyStation"`
	District         string    `json:"district" bson:"district"`
	MobileNumber     string    `json:"mobileNumber" bson:"mobileNumber"`
	MobileMoneyName  string    `json:"mobileMoneyName" bson:"mobileMoneyName"`
	RegistrationDate time.Time `json:"registrationDate" bson:"registrationDate"`
	CampaignDay      int       `json:"campaignDay" bson:"campaignDay"` // 1-14
	SubmittedBy      string    `json:"submittedBy" bson:"submittedBy"`
	CreatedAt        time.Time `json:"createdAt" bson:"createdAt"`
}
