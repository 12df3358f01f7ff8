// Package workflow runs the incident resolution state machine: policy load,
// context fetch, decision acquisition, validation, policy review, planning,
// and publication. One Engine.Run call handles exactly one incident.
package workflow

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/autorescue/autorescue/internal/decision"
	"github.com/autorescue/autorescue/internal/observability"
	"github.com/autorescue/autorescue/internal/orders"
	"github.com/autorescue/autorescue/internal/policy"
	"github.com/autorescue/autorescue/internal/publish"
	"github.com/autorescue/autorescue/pkg/types"
)

// Engine holds every collaborator a run needs. All dependencies are injected;
// the engine itself reads no ambient state.
type Engine struct {
	Orders        orders.Source
	PolicyPath    string
	Acquirer      *decision.Acquirer
	Publisher     *publish.Publisher
	Validator     DecisionValidator
	Observability *observability.Recorder

	EventsTopic  string
	ActionsTopic string
	Deployment   string
	Simulate     bool

	Now    func() time.Time
	Logger *slog.Logger
}

// Run processes one incident through the full workflow. It returns either a
// complete RunResult, possibly with degraded publish/observability statuses,
// or a typed error from a fatal step. There is no partial result on failure.
func (e *Engine) Run(ctx context.Context, incident types.Incident) (*types.RunResult, error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := e.Now
	if now == nil {
		now = time.Now
	}
	runID := uuid.NewString()
	logger = logger.With("run_id", runID, "incident_id", incident.IncidentID, "order_id", incident.OrderID)

	pol, err := policy.Load(e.PolicyPath)
	if err != nil {
		return nil, &ConfigurationError{Field: "policy_path", Detail: err.Error()}
	}

	order, found, err := e.Orders.Order(ctx, incident.OrderID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &NotFoundError{Kind: "order", ID: incident.OrderID}
	}

	eventStatus := e.publishTo(ctx, e.EventsTopic, incident.IncidentID, incident)
	if eventStatus.State == types.PublishStateFailed {
		logger.Warn("incident event publish degraded", "outbox", eventStatus.Outbox)
	}

	simulating := e.Simulate || e.Acquirer == nil || e.Acquirer.Client == nil
	if e.Deployment == "" && !simulating {
		return nil, &ConfigurationError{Field: "deployment", Detail: "no decision deployment configured"}
	}
	params := decisionParameters(incident, order, pol)

	var acquirer decision.Acquirer
	if e.Acquirer != nil {
		acquirer = *e.Acquirer
	}
	acquirer.Simulate = acquirer.Simulate || e.Simulate
	dec, err := acquirer.Acquire(ctx, e.Deployment, params, incident)
	if err != nil {
		return nil, err
	}

	if e.Validator != nil {
		if verdict := e.Validator.Validate(ctx, dec, incident); !verdict.OK {
			return nil, &ValidationError{Violations: verdict.Violations}
		}
	}

	review := policy.Evaluate(dec, order, pol, now())
	if !review.Allowed {
		// Override in place. The original proposal survives only in the
		// override reason so the audit trail shows what was rejected.
		logger.Info("decision overridden by policy", "reasons", review.Reasons)
		dec.ToolCall = &types.ToolCall{
			Name: types.ActionManualReview,
			Arguments: map[string]any{
				"reason": "policy rejected proposed action: " + strings.Join(review.Reasons, "; "),
			},
		}
		if dec.PolicyProof != "" {
			dec.PolicyProof += " (policy override)"
		} else {
			dec.PolicyProof = "(policy override)"
		}
	}

	plan := BuildActionPlan(dec, review, incident)

	actionStatus := e.publishTo(ctx, e.ActionsTopic, incident.IncidentID, map[string]any{
		"incidentId":   incident.IncidentID,
		"orderId":      incident.OrderID,
		"decision":     dec,
		"policyReview": review,
		"actionPlan":   plan,
	})

	nextSteps := DetermineNextSteps(plan)

	var obsStatus *types.ObservabilityStatus
	if simulating {
		obsStatus = &types.ObservabilityStatus{Status: types.ObservabilitySkipped}
	} else {
		obsStatus = e.Observability.Record(ctx, incident, plan)
	}

	result := &types.RunResult{
		RunID:        runID,
		Incident:     incident,
		OrderContext: order,
		Policy:       pol,
		Decision:     dec,
		PolicyReview: review,
		ActionPlan:   plan,
		NextSteps:    nextSteps,
		PublishStatus: types.RunPublishStatus{
			Event:  eventStatus,
			Action: actionStatus,
		},
		Observability: obsStatus,
		CompletedAt:   now().UTC().Format(time.RFC3339),
	}
	logger.Info("incident run complete", "plan", plan.Type, "allowed", review.Allowed)
	return result, nil
}

func (e *Engine) publishTo(ctx context.Context, topic, key string, value any) types.PublishStatus {
	if e.Publisher == nil {
		return types.PublishStatus{State: types.PublishStateSkipped, Reason: types.SkipClientNotConfigured}
	}
	return e.Publisher.Publish(ctx, topic, key, value)
}

// decisionParameters is the payload handed to the decision service. It is a
// plain map so the remote contract can evolve without type churn here.
func decisionParameters(incident types.Incident, order types.OrderContext, pol types.Policy) map[string]any {
	return map[string]any{
		"incident":     incident,
		"orderContext": order,
		"policy":       pol,
	}
}
