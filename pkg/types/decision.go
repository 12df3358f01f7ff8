package types

// Closed action vocabulary a decision may propose.
const (
	ActionCreateReshipment = "create_reshipment"
	ActionCreateCoupon     = "create_coupon"
	ActionCreateRefund     = "create_refund"
	ActionManualReview     = "manual_review"
)

type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Decision is the remediation proposed by the decision service (or the
// canned simulation). Exactly one Decision exists per incident per run.
type Decision struct {
	ToolCall        *ToolCall `json:"toolCall,omitempty"`
	PolicyProof     string    `json:"policyProof,omitempty"`
	IncidentID      string    `json:"incidentId,omitempty"`
	CustomerMessage string    `json:"customerMessage,omitempty"`
}

// PolicyReview is the guard's verdict on a decision. Allowed is true exactly
// when Reasons is empty.
type PolicyReview struct {
	Allowed bool     `json:"allowed"`
	Reasons []string `json:"reasons,omitempty"`
}
