package domain

// PlanSource records how a query plan was produced.
type PlanSource string

const (
	// PlanSourceLLM indicates the plan came from the language model.
	PlanSourceLLM PlanSource = "llm"

	// PlanSourceFallback indicates the single-subquery fallback was used
	// because the model response was unusable or unavailable.
	PlanSourceFallback PlanSource = "fallback"
)

// SubQuery is one planner-generated rephrasing of the user query,
// searched independently during fan-out.
type SubQuery struct {
	// ID is the ordinal position within the plan. The original user
	// query is always sub-query 0.
	ID int

	// Text is the search phrasing.
	Text string

	// EntityTypes optionally scopes this sub-query to specific entity
	// types. Empty means unscoped.
	EntityTypes []EntityType
}

// QueryPlan is the expansion of one user query into multiple
// sub-queries plus optional tag hints. Plans are built fresh per
// request and never persisted.
type QueryPlan struct {
	// OriginalQuery is the raw user query.
	OriginalQuery string

	// SubQueries is the ordered list of search phrasings. The count is
	// bounded below by the configured minimum (breadth) and above by
	// the configured maximum (fan-out cost) unless the plan is a
	// fallback, which carries exactly one sub-query.
	SubQueries []SubQuery

	// Tags are optional semantic hints extracted during planning.
	Tags []string

	// Source records whether the plan came from the LLM or fallback.
	Source PlanSource
}

// PlanOptions configures query planning.
type PlanOptions struct {
	// DesiredCount is the target number of sub-queries. Zero means use
	// the configured default.
	DesiredCount int

	// EntityTypes narrows phrasing when the caller has already
	// constrained the entity types (e.g. a view showing only code).
	EntityTypes []EntityType

	// Temporal indicates the query has temporal intent.
	Temporal bool

	// TimeReference is the time phrase to weave into sub-queries
	// (e.g. "last week"). Only used when Temporal is set. It is
	// appended as a phrase fragment because the vector index has no
	// native temporal predicate.
	TimeReference string
}
