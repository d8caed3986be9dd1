package events

import "time"

const (
	PayrollRunApprovedTopic     = "payroll.run.approved.v1"
	PayrollRunApprovedEventType = "payroll_run.approved"
)

// PayrollRunApprovedEvent is published through the outbox when a run leaves
// draft. The slip consumer renders paystub PDFs for the run's members.
type PayrollRunApprovedEvent struct {
	EventType  string    `json:"event_type"`
	RunID      string    `json:"run_id"`
	CompanyID  string    `json:"company_id"`
	ApprovedBy string    `json:"approved_by"`
	OccurredAt time.Time `json:"occurred_at"`
}
