package domain

import "time"

const (
	SourceIVRCall = "ivr_call"

	// StageIVRLead is the working stage for callers worth following up.
	StageIVRLead = "ivr_lead"
	// StageJunk is the terminal stage for missed or very short calls.
	StageJunk = "junk_lead"
)

type Lead struct {
	ID                   int64     `db:"id" json:"id"`
	Name                 string    `db:"name" json:"name"`
	Phone                string    `db:"phone" json:"phone"`
	Email                string    `db:"email" json:"email,omitempty"`
	Source               string    `db:"source" json:"source"`
	CurrentStageID       string    `db:"current_stage_id" json:"currentStageId"`
	QualityScore         int       `db:"quality_score" json:"qualityScore"`
	InterestedProjectIDs []int64   `db:"-" json:"interestedProjectIds"`
	Notes                string    `db:"notes" json:"notes,omitempty"`
	OptedOutOfMessaging  bool      `db:"opted_out_of_messaging" json:"optedOutOfMessaging"`
	CreatedAt            time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time `db:"updated_at" json:"updatedAt"`
}

func (l *Lead) HasProject(projectID int64) bool {
	for _, id := range l.InterestedProjectIDs {
		if id == projectID {
			return true
		}
	}
	return false
}

func (l *Lead) IsJunk() bool {
	return l.CurrentStageID == StageJunk
}

type Project struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	IVRNumber   string `db:"ivr_number" json:"ivrNumber,omitempty"`
	BrochureURL string `db:"brochure_url" json:"brochureUrl,omitempty"`
}

type CallRecord struct {
	ID              int64     `db:"id" json:"id"`
	FromPhone       string    `db:"from_phone" json:"fromPhone"`
	ToNumber        string    `db:"to_number" json:"toNumber"`
	StartTime       time.Time `db:"start_time" json:"startTime"`
	DurationSeconds int       `db:"duration_seconds" json:"durationSeconds"`
	RawPayload      string    `db:"raw_payload" json:"rawPayload,omitempty"`
	Processed       bool      `db:"processed" json:"processed"`
	LeadID          *int64    `db:"lead_id" json:"leadId,omitempty"`
}

type CallQuality string

const (
	CallQualityGood CallQuality = "quality"
	CallQualityJunk CallQuality = "junk"
)
