package workflow

import (
	"context"

	"github.com/autorescue/autorescue/pkg/types"
)

// Validation is a validator verdict. OK is true exactly when Violations is
// empty.
type Validation struct {
	OK         bool
	Violations []string
}

func Accept() Validation {
	return Validation{OK: true}
}

func Reject(violations ...string) Validation {
	return Validation{Violations: violations}
}

// DecisionValidator is the optional schema/business validation hook run on
// every acquired decision before policy review. A nil validator accepts
// everything.
type DecisionValidator interface {
	Validate(ctx context.Context, decision types.Decision, incident types.Incident) Validation
}

// ValidatorFunc adapts a function to the DecisionValidator interface.
type ValidatorFunc func(ctx context.Context, decision types.Decision, incident types.Incident) Validation

func (f ValidatorFunc) Validate(ctx context.Context, decision types.Decision, incident types.Incident) Validation {
	return f(ctx, decision, incident)
}
