package domain

type CampaignOutcome struct {
	LeadID             int64    `json:"leadId"`
	LeadName           string   `json:"leadName"`
	Phone              string   `json:"phone"`
	Template           string   `json:"template"`
	Variables          []string `json:"variables,omitempty"`
	Project            string   `json:"project,omitempty"`
	Status             string   `json:"status"`
	TransportMessageID string   `json:"messageId,omitempty"`
	RecordID           int64    `json:"recordId,omitempty"`
	ErrorCode          string   `json:"errorCode,omitempty"`
	Error              string   `json:"error,omitempty"`
}

const OutcomeDryRun = "dry_run"

// CampaignRunResult is returned to the caller and never persisted.
type CampaignRunResult struct {
	RunID          string            `json:"runId"`
	DryRun         bool              `json:"dryRun"`
	TotalLeads     int               `json:"totalLeads"`
	ValidLeads     int               `json:"validLeads"`
	SentCount      int               `json:"sentCount"`
	FailedCount    int               `json:"failedCount"`
	SkippedCount   int               `json:"skippedCount"`
	Errors         []string          `json:"errors"`
	SentMessages   []CampaignOutcome `json:"sentMessages"`
	FailedMessages []CampaignOutcome `json:"failedMessages"`
}

func NewCampaignRunResult(runID string, dryRun bool) *CampaignRunResult {
	return &CampaignRunResult{
		RunID:          runID,
		DryRun:         dryRun,
		Errors:         []string{},
		SentMessages:   []CampaignOutcome{},
		FailedMessages: []CampaignOutcome{},
	}
}

func (r *CampaignRunResult) SuccessRate() float64 {
	if r.ValidLeads == 0 {
		return 0
	}
	return float64(r.SentCount) / float64(r.ValidLeads) * 100
}
