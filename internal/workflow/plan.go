package workflow

import (
	"fmt"
	"strings"

	"github.com/autorescue/autorescue/pkg/types"
)

// BuildActionPlan maps a reviewed decision onto a concrete task list. The
// mapping is closed: any tool call outside the known vocabulary, or a missing
// tool call, lands on manual_review. When the review rejected the original
// decision, the plan's proof carries the rejection reasons.
func BuildActionPlan(decision types.Decision, review types.PolicyReview, incident types.Incident) types.ActionPlan {
	name := ""
	args := map[string]any{}
	if decision.ToolCall != nil {
		name = decision.ToolCall.Name
		if decision.ToolCall.Arguments != nil {
			args = decision.ToolCall.Arguments
		}
	}

	var plan types.ActionPlan
	switch name {
	case types.ActionCreateReshipment:
		plan = types.ActionPlan{
			Type:    types.PlanReshipment,
			Summary: fmt.Sprintf("Reship delayed order %s", incident.OrderID),
			Tasks: []types.PlanTask{
				{System: types.SystemFulfillment, Action: "create_fulfillment", Payload: taskPayload(incident, args)},
				{System: types.SystemMessaging, Action: "send_sms", Payload: messagePayload(incident, decision)},
			},
		}
	case types.ActionCreateCoupon:
		plan = types.ActionPlan{
			Type:    types.PlanCoupon,
			Summary: fmt.Sprintf("Issue goodwill coupon for order %s", incident.OrderID),
			Tasks: []types.PlanTask{
				{System: types.SystemBilling, Action: "create_coupon", Payload: taskPayload(incident, args)},
				{System: types.SystemMessaging, Action: "send_sms", Payload: messagePayload(incident, decision)},
			},
		}
	case types.ActionCreateRefund:
		plan = types.ActionPlan{
			Type:    types.PlanRefund,
			Summary: fmt.Sprintf("Refund delayed order %s", incident.OrderID),
			Tasks: []types.PlanTask{
				{System: types.SystemFulfillment, Action: "create_refund", Payload: taskPayload(incident, args)},
				{System: types.SystemIncidentLog, Action: "log_incident", Payload: taskPayload(incident, args)},
			},
		}
	default:
		plan = types.ActionPlan{
			Type:    types.PlanManualReview,
			Summary: fmt.Sprintf("Escalate order %s for manual review", incident.OrderID),
			Tasks: []types.PlanTask{
				{System: types.SystemObservability, Action: "create_breadcrumb", Payload: taskPayload(incident, args)},
			},
		}
	}

	plan.PolicyProof = decision.PolicyProof
	if !review.Allowed && len(review.Reasons) > 0 {
		annotation := "rejected by policy: " + strings.Join(review.Reasons, "; ")
		if plan.PolicyProof == "" {
			plan.PolicyProof = annotation
		} else {
			plan.PolicyProof += " | " + annotation
		}
	}
	return plan
}

// DetermineNextSteps keys only on whether the plan escalates to a human or
// executes; both branches end with the audit-log step.
func DetermineNextSteps(plan types.ActionPlan) []string {
	if plan.Type == types.PlanManualReview {
		return []string{
			"notify the on-call resolution agent",
			"hold all automated actions for this order",
			"append the run result to the audit log",
		}
	}
	steps := make([]string, 0, len(plan.Tasks)+1)
	for _, task := range plan.Tasks {
		steps = append(steps, fmt.Sprintf("dispatch %s to %s", task.Action, task.System))
	}
	steps = append(steps, "append the run result to the audit log")
	return steps
}

func taskPayload(incident types.Incident, args map[string]any) map[string]any {
	payload := map[string]any{
		"incidentId": incident.IncidentID,
		"orderId":    incident.OrderID,
	}
	for key, value := range args {
		payload[key] = value
	}
	return payload
}

func messagePayload(incident types.Incident, decision types.Decision) map[string]any {
	return map[string]any{
		"incidentId": incident.IncidentID,
		"orderId":    incident.OrderID,
		"message":    decision.CustomerMessage,
	}
}
