package driving

import (
	"context"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// PlannerService expands one user query into a multi-sub-query plan.
type PlannerService interface {
	// Plan builds a query plan. Planning never fails on model
	// misbehaviour: a malformed or too-narrow model response yields a
	// single-subquery fallback plan, not an error.
	Plan(ctx context.Context, query string, opts domain.PlanOptions) (domain.QueryPlan, error)
}
