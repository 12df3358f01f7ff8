package decision

import "fmt"

type Stage string

const (
	StageSubmit Stage = "submit"
	StagePoll   Stage = "poll"
	StageResult Stage = "result"
)

// DecisionError is the single fatal error shape for decision acquisition.
// RunID is set for every stage after submission so operators can find the
// remote job.
type DecisionError struct {
	Stage    Stage
	RunID    string
	Status   string
	Attempts int
	Err      error
}

func (e *DecisionError) Error() string {
	switch {
	case e.Stage == StageSubmit:
		return fmt.Sprintf("decision submit failed: %v", e.Err)
	case e.Attempts > 0:
		return fmt.Sprintf("decision run %s still pending after %d status checks", e.RunID, e.Attempts)
	case e.Status != "":
		return fmt.Sprintf("decision run %s ended with status %s", e.RunID, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("decision run %s: %s: %v", e.RunID, e.Stage, e.Err)
	default:
		return fmt.Sprintf("decision run %s: %s failed", e.RunID, e.Stage)
	}
}

func (e *DecisionError) Unwrap() error { return e.Err }

// Timeout reports whether the error is an exhausted poll budget.
func (e *DecisionError) Timeout() bool { return e.Attempts > 0 }
