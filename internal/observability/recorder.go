package observability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/autorescue/autorescue/pkg/types"
)

const issueLimit = 10

// Recorder performs the observability step of a run: create a release and
// deploy for the incident, then look up open issues mentioning the order.
type Recorder struct {
	Client      Client
	Environment string
	Logger      *slog.Logger
	Now         func() time.Time
}

// Record never fails the run. Release/deploy failure yields status "failed"
// with the error; an issue-lookup failure is only a sub-error.
func (r *Recorder) Record(ctx context.Context, incident types.Incident, plan types.ActionPlan) *types.ObservabilityStatus {
	if r == nil || r.Client == nil {
		return &types.ObservabilityStatus{Status: types.ObservabilitySkipped}
	}

	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := r.Now
	if now == nil {
		now = time.Now
	}

	version := "incident-" + incident.IncidentID
	status := &types.ObservabilityStatus{
		Status:         types.ObservabilityRecorded,
		ReleaseVersion: version,
	}

	started := now()
	notes := fmt.Sprintf("%s resolution for order %s: %s", incident.Type, incident.OrderID, plan.Summary)
	if _, err := r.Client.CreateRelease(ctx, version, notes, started); err != nil {
		logger.Warn("observability release failed", "incident_id", incident.IncidentID, "error", err)
		status.Status = types.ObservabilityFailed
		status.Error = err.Error()
	} else if _, err := r.Client.CreateDeploy(ctx, version, r.Environment, plan.Type, started, now()); err != nil {
		logger.Warn("observability deploy failed", "incident_id", incident.IncidentID, "error", err)
		status.Status = types.ObservabilityFailed
		status.Error = err.Error()
	}

	issues, err := r.Client.ListIssues(ctx, incident.OrderID, issueLimit)
	if err != nil {
		// Lookup failure is informational only; the record itself stands.
		status.IssueError = err.Error()
		return status
	}
	for _, issue := range issues {
		status.Issues = append(status.Issues, types.IssueRef{
			ID:        issue.ID,
			Title:     issue.Title,
			Permalink: issue.Permalink,
		})
	}
	return status
}
