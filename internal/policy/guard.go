// Package policy evaluates proposed remediation actions against tenant
// thresholds and order history. Evaluation is pure: no I/O, deterministic
// for identical inputs and evaluation instant.
package policy

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/autorescue/autorescue/pkg/types"
)

// ReshipmentWindow bounds the recency check for repeat reshipments.
const ReshipmentWindow = 30 * 24 * time.Hour

// Evaluate reviews a decision against order context and policy thresholds.
// It fails closed on a missing tool-call name and accumulates every violated
// rule for the action instead of stopping at the first.
func Evaluate(decision types.Decision, order types.OrderContext, p types.Policy, now time.Time) types.PolicyReview {
	if decision.ToolCall == nil || strings.TrimSpace(decision.ToolCall.Name) == "" {
		return types.PolicyReview{Allowed: false, Reasons: []string{"missing tool call name"}}
	}

	name := decision.ToolCall.Name
	args := decision.ToolCall.Arguments

	var reasons []string
	switch name {
	case types.ActionCreateCoupon:
		reasons = checkCoupon(args, order, p)
	case types.ActionCreateRefund:
		reasons = checkRefund(args, p)
	case types.ActionCreateReshipment:
		reasons = checkReshipment(args, order, p, now)
	case types.ActionManualReview:
		// Always allowed: escalation to a human needs no threshold.
	default:
		reasons = []string{fmt.Sprintf("unsupported action %q", name)}
	}

	return types.PolicyReview{Allowed: len(reasons) == 0, Reasons: reasons}
}

func checkCoupon(args map[string]any, order types.OrderContext, p types.Policy) []string {
	var reasons []string

	amount, ok := numberArg(args, "amountOff", "amount_off")
	if !ok || !isFinite(amount) || amount <= 0 {
		reasons = append(reasons, "coupon amountOff must be a positive finite number")
		return reasons
	}

	if p.MaxCreditPercentage > 0 {
		total := OrderTotal(order)
		maxCredit := total * p.MaxCreditPercentage
		if amount > maxCredit {
			reasons = append(reasons, fmt.Sprintf(
				"coupon amount %.2f exceeds maximum credit %.2f (%.0f%% of order total %.2f)",
				amount, maxCredit, p.MaxCreditPercentage*100, total))
		}
	}

	return reasons
}

func checkRefund(args map[string]any, p types.Policy) []string {
	var reasons []string

	amount, ok := numberArg(args, "amount")
	if !ok || !isFinite(amount) || amount <= 0 {
		reasons = append(reasons, "refund amount must be a positive finite number")
		return reasons
	}

	if p.MaxRefundAmount > 0 && amount > p.MaxRefundAmount {
		reasons = append(reasons, fmt.Sprintf(
			"refund amount %.2f exceeds maximum refund %.2f", amount, p.MaxRefundAmount))
	}

	return reasons
}

func checkReshipment(args map[string]any, order types.OrderContext, p types.Policy, now time.Time) []string {
	var reasons []string

	if !hasItems(args) {
		reasons = append(reasons, "reshipment requires a non-empty items list")
	}

	if p.MaxReshipmentsPerMonth > 0 {
		recent := RecentReshipments(order, now)
		if recent >= p.MaxReshipmentsPerMonth {
			reasons = append(reasons, fmt.Sprintf(
				"order already has %d reshipment(s) in the last 30 days (limit %d)",
				recent, p.MaxReshipmentsPerMonth))
		}
	}

	return reasons
}

// OrderTotal sums quantity*price over the order's line items. Items whose
// product is not finite contribute zero.
func OrderTotal(order types.OrderContext) float64 {
	total := 0.0
	for _, item := range order.LineItems {
		amount := item.Quantity * item.Price
		if !isFinite(amount) {
			continue
		}
		total += amount
	}
	return total
}

// RecentReshipments counts completed reshipments within the 30-day window
// ending at now. The window boundary is inclusive.
func RecentReshipments(order types.OrderContext, now time.Time) int {
	cutoff := now.Add(-ReshipmentWindow)
	count := 0
	for _, entry := range order.ResolutionHistory {
		if entry.Type != types.ResolutionReshipment {
			continue
		}
		completed, err := time.Parse(time.RFC3339, entry.CompletedAt)
		if err != nil {
			continue
		}
		if completed.Before(cutoff) || completed.After(now) {
			continue
		}
		count++
	}
	return count
}

func hasItems(args map[string]any) bool {
	raw, ok := args["items"]
	if !ok {
		return false
	}
	switch items := raw.(type) {
	case []any:
		return len(items) > 0
	case []string:
		return len(items) > 0
	case []map[string]any:
		return len(items) > 0
	default:
		return false
	}
}

// numberArg resolves the first present key to a float64, accepting the
// numeric shapes JSON decoding can produce.
func numberArg(args map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		raw, ok := args[key]
		if !ok {
			continue
		}
		switch value := raw.(type) {
		case float64:
			return value, true
		case float32:
			return float64(value), true
		case int:
			return float64(value), true
		case int64:
			return float64(value), true
		case json.Number:
			parsed, err := value.Float64()
			if err != nil {
				return 0, false
			}
			return parsed, true
		default:
			return 0, false
		}
	}
	return 0, false
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
