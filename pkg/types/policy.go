package types

// Policy holds tenant-configured numeric thresholds. A zero value for a cap
// means the cap is not configured and the corresponding rule is unlimited.
type Policy struct {
	TenantID               string  `json:"tenantId,omitempty" yaml:"tenant_id"`
	MaxCreditPercentage    float64 `json:"maxCreditPercentage,omitempty" yaml:"max_credit_percentage"`
	MaxRefundAmount        float64 `json:"maxRefundAmount,omitempty" yaml:"max_refund_amount"`
	MaxReshipmentsPerMonth int     `json:"maxReshipmentsPerMonth,omitempty" yaml:"max_reshipments_per_month"`
}
