package policy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	content := "tenant_id: acme\nmax_credit_percentage: 0.2\nmax_refund_amount: 150\nmax_reshipments_per_month: 3\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write policy: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.TenantID != "acme" {
		t.Fatalf("tenant = %q", p.TenantID)
	}
	if p.MaxCreditPercentage != 0.2 || p.MaxRefundAmount != 150 || p.MaxReshipmentsPerMonth != 3 {
		t.Fatalf("unexpected policy: %+v", p)
	}
}

func TestLoadPolicyMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadPolicyRejectsBadPercentage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte("max_credit_percentage: 1.5\n"), 0o600); err != nil {
		t.Fatalf("write policy: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}
