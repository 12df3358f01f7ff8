package decision

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/autorescue/autorescue/pkg/types"
)

const (
	DefaultPollInterval = 2 * time.Second
	DefaultMaxAttempts  = 30
	DefaultResultLimit  = 20
)

// Acquirer drives one decision job from submission to a terminal state.
// Each Acquire call is independent; concurrent calls for different incidents
// share nothing.
type Acquirer struct {
	Client       Client
	Simulate     bool
	PollInterval time.Duration
	MaxAttempts  int
	ResultLimit  int
	Logger       *slog.Logger

	// Sleep is replaceable in tests; nil means time.Sleep.
	Sleep func(time.Duration)
}

// Acquire submits the incident to the decision service and polls the run at
// a fixed interval for a bounded number of attempts. In simulation mode, or
// when no client is configured, it short-circuits to a canned decision with
// no network traffic.
func (a *Acquirer) Acquire(ctx context.Context, deployment string, params map[string]any, incident types.Incident) (types.Decision, error) {
	if a.Simulate || a.Client == nil {
		return SimulatedDecision(incident), nil
	}

	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sleep := a.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	interval := a.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	maxAttempts := a.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	ref, err := a.Client.StartRun(ctx, deployment, params)
	if err != nil {
		return types.Decision{}, &DecisionError{Stage: StageSubmit, Err: err}
	}
	logger.Info("decision run submitted", "run_id", ref.ID, "incident_id", incident.IncidentID)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		state, err := a.Client.GetRun(ctx, ref.ID)
		if err != nil {
			return types.Decision{}, &DecisionError{Stage: StagePoll, RunID: ref.ID, Err: err}
		}

		if state.Status == StatusSucceeded {
			return a.fetchResult(ctx, ref, state)
		}
		if IsTerminal(state.Status) {
			return types.Decision{}, &DecisionError{Stage: StagePoll, RunID: ref.ID, Status: state.Status}
		}

		if attempt < maxAttempts {
			sleep(interval)
		}
	}

	return types.Decision{}, &DecisionError{Stage: StagePoll, RunID: ref.ID, Attempts: maxAttempts}
}

func (a *Acquirer) fetchResult(ctx context.Context, ref RunRef, state RunState) (types.Decision, error) {
	datasetID := state.DatasetID
	if datasetID == "" {
		datasetID = ref.DatasetID
	}
	if datasetID == "" {
		return types.Decision{}, &DecisionError{
			Stage: StageResult, RunID: ref.ID,
			Err: fmt.Errorf("run did not publish a result dataset"),
		}
	}

	limit := a.ResultLimit
	if limit <= 0 {
		limit = DefaultResultLimit
	}
	results, err := a.Client.ListResults(ctx, datasetID, limit)
	if err != nil {
		return types.Decision{}, &DecisionError{Stage: StageResult, RunID: ref.ID, Err: err}
	}
	if len(results) == 0 {
		// The run reported success, but success without a decision is fatal.
		return types.Decision{}, &DecisionError{
			Stage: StageResult, RunID: ref.ID,
			Err: fmt.Errorf("result list is empty"),
		}
	}
	return results[0], nil
}

// SimulatedDecision is the canned decision used offline and in demos. Its
// shape is indistinguishable from a live decision.
func SimulatedDecision(incident types.Incident) types.Decision {
	return types.Decision{
		ToolCall: &types.ToolCall{
			Name: types.ActionCreateCoupon,
			Arguments: map[string]any{
				"amountOff": 10.0,
				"code":      "RESCUE10",
			},
		},
		PolicyProof: fmt.Sprintf(
			"simulated: %.0fh delay on order %s qualifies for a goodwill credit",
			incident.DelayHours, incident.OrderID),
		IncidentID: incident.IncidentID,
		CustomerMessage: "We're sorry your delivery is running late. " +
			"A discount code for your next order is on its way.",
	}
}
