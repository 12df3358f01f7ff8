package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/autorescue/autorescue/pkg/types"
)

// Load reads a tenant policy file. Omitted caps stay zero and the
// corresponding rule is treated as unconfigured.
func Load(path string) (types.Policy, error) {
	// #nosec G304 -- path comes from operator-configured policy path.
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Policy{}, fmt.Errorf("load policy: %w", err)
	}

	var p types.Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return types.Policy{}, fmt.Errorf("load policy: parse %s: %w", path, err)
	}

	if err := Validate(p); err != nil {
		return types.Policy{}, fmt.Errorf("load policy: %s: %w", path, err)
	}
	return p, nil
}

func Validate(p types.Policy) error {
	if p.MaxCreditPercentage < 0 || p.MaxCreditPercentage > 1 {
		return fmt.Errorf("max_credit_percentage must be between 0 and 1, got %v", p.MaxCreditPercentage)
	}
	if p.MaxRefundAmount < 0 {
		return fmt.Errorf("max_refund_amount must not be negative, got %v", p.MaxRefundAmount)
	}
	if p.MaxReshipmentsPerMonth < 0 {
		return fmt.Errorf("max_reshipments_per_month must not be negative, got %v", p.MaxReshipmentsPerMonth)
	}
	return nil
}
