package types

type PublishState string

const (
	PublishStateSkipped   PublishState = "skipped"
	PublishStatePublished PublishState = "published"
	PublishStateFailed    PublishState = "failed"
)

// Skip reasons for PublishStatus.Reason.
const (
	SkipTopicNotConfigured  = "topic-not-configured"
	SkipClientNotConfigured = "client-not-configured"
)

type SinkResult struct {
	Sink  string `json:"sink"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// PublishStatus reports the outcome of one publish call. Outbox=true on a
// failed publish means the record was durably queued rather than lost.
type PublishStatus struct {
	State  PublishState `json:"state"`
	Reason string       `json:"reason,omitempty"`
	Sinks  []SinkResult `json:"sinks,omitempty"`
	Outbox bool         `json:"outbox,omitempty"`
	Error  string       `json:"error,omitempty"`
}

type RunPublishStatus struct {
	Event  PublishStatus `json:"event"`
	Action PublishStatus `json:"action"`
}

const (
	ObservabilityRecorded = "recorded"
	ObservabilityFailed   = "failed"
	ObservabilitySkipped  = "skipped"
)

type ObservabilityStatus struct {
	Status         string     `json:"status"`
	Error          string     `json:"error,omitempty"`
	ReleaseVersion string     `json:"releaseVersion,omitempty"`
	Issues         []IssueRef `json:"issues,omitempty"`
	IssueError     string     `json:"issueError,omitempty"`
}

type IssueRef struct {
	ID        string `json:"id"`
	Title     string `json:"title,omitempty"`
	Permalink string `json:"permalink,omitempty"`
}

// RunResult is the aggregate audit record returned for one incident run.
// It is created once and never mutated after return.
type RunResult struct {
	RunID         string               `json:"runId"`
	Incident      Incident             `json:"incident"`
	OrderContext  OrderContext         `json:"orderContext"`
	Policy        Policy               `json:"policy"`
	Decision      Decision             `json:"decision"`
	PolicyReview  PolicyReview         `json:"policyReview"`
	ActionPlan    ActionPlan           `json:"actionPlan"`
	NextSteps     []string             `json:"nextSteps"`
	PublishStatus RunPublishStatus     `json:"publishStatus"`
	Observability *ObservabilityStatus `json:"observability,omitempty"`
	CompletedAt   string               `json:"completedAt"`
}
