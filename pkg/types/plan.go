package types

// Plan types mirror the action vocabulary; manual_review is the universal
// fallback for unknown or rejected actions.
const (
	PlanReshipment   = "reshipment"
	PlanCoupon       = "coupon"
	PlanRefund       = "refund"
	PlanManualReview = "manual_review"
)

// Downstream systems plan tasks are addressed to.
const (
	SystemFulfillment   = "fulfillment-system"
	SystemMessaging     = "messaging-system"
	SystemBilling       = "billing-system"
	SystemIncidentLog   = "incident-log"
	SystemObservability = "observability-system"
)

type PlanTask struct {
	System  string         `json:"system"`
	Action  string         `json:"action"`
	Payload map[string]any `json:"payload,omitempty"`
}

// ActionPlan is the concrete task list derived from a reviewed decision.
type ActionPlan struct {
	Type        string     `json:"type"`
	Summary     string     `json:"summary"`
	Tasks       []PlanTask `json:"tasks"`
	PolicyProof string     `json:"policyProof,omitempty"`
}
