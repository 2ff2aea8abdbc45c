package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/recall-labs/recall-cli/internal/config"
	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
	"github.com/recall-labs/recall-cli/internal/core/ports/driving"
	"github.com/recall-labs/recall-cli/internal/logger"
)

// Ensure PlannerService implements the interface.
var _ driving.PlannerService = (*PlannerService)(nil)

// Bounds on individual sub-query phrasing, in words after
// normalisation. Shorter fragments retrieve noise; longer ones stop
// behaving like search queries.
const (
	minQueryWords = 2
	maxQueryWords = 8
)

var (
	quoteChars = regexp.MustCompile("[\"'`]")
	punctChars = regexp.MustCompile(`[.,;:!?(){}\[\]\\/+*_#@%^&=<>|~-]`)
	multiSpace = regexp.MustCompile(`\s+`)
)

// PlannerService expands a user query into multiple sub-queries via the
// language model. Multiple phrasings of the same intent retrieve
// different near-neighbours in vector space, so breadth buys recall at
// the cost of fan-out latency.
type PlannerService struct {
	llm         driven.LLMService
	minQueries  int
	maxQueries  int
	temperature float64
}

// planResponse is the structured payload expected from the model.
type planResponse struct {
	Queries []string `json:"queries"`
	Tags    []string `json:"tags,omitempty"`
}

// NewPlannerService creates a planner with the given thresholds.
// The llm parameter is optional (can be nil); planning then always
// produces the single-subquery fallback.
func NewPlannerService(llm driven.LLMService, cfg config.Planner) *PlannerService {
	return &PlannerService{
		llm:         llm,
		minQueries:  cfg.MinSubQueries,
		maxQueries:  cfg.MaxSubQueries,
		temperature: cfg.Temperature,
	}
}

// Plan builds a query plan for the user query. The model response is
// validated, never trusted: unparseable JSON, out-of-bounds phrasings,
// or a post-dedup count below the configured minimum all fall back to
// a single-subquery plan equal to the raw query. Fallback is the
// anticipated path for a misbehaving model, not an exception.
func (s *PlannerService) Plan(ctx context.Context, query string, opts domain.PlanOptions) (domain.QueryPlan, error) {
	logger.Section("Query Planning")

	query = strings.TrimSpace(query)
	if query == "" {
		return domain.QueryPlan{}, fmt.Errorf("plan: %w: empty query", domain.ErrInvalidInput)
	}

	desired := opts.DesiredCount
	if desired <= 0 || desired > s.maxQueries {
		desired = s.maxQueries
	}
	if desired < s.minQueries {
		desired = s.minQueries
	}
	logger.Debug("Query: %q, desired sub-queries: %d", query, desired)

	if s.llm == nil {
		logger.Debug("LLM unavailable, using fallback plan")
		return s.fallbackPlan(query, opts), nil
	}

	raw, err := s.llm.Generate(ctx, buildPlanningPrompt(query, desired, opts), driven.GenerateOptions{
		Temperature: s.temperature,
	})
	if err != nil {
		logger.Warn("Query planning failed: %v (using fallback)", err)
		return s.fallbackPlan(query, opts), nil
	}

	parsed, ok := parsePlanResponse(raw)
	if !ok {
		logger.Warn("Planner response is not valid JSON (using fallback)")
		return s.fallbackPlan(query, opts), nil
	}

	texts := s.cleanQueries(query, parsed.Queries, desired)
	if len(texts) < s.minQueries {
		logger.Warn("Planner produced %d sub-queries, minimum is %d (using fallback)",
			len(texts), s.minQueries)
		return s.fallbackPlan(query, opts), nil
	}

	plan := domain.QueryPlan{
		OriginalQuery: query,
		SubQueries:    buildSubQueries(texts, opts.EntityTypes),
		Tags:          cleanTags(parsed.Tags),
		Source:        domain.PlanSourceLLM,
	}
	logger.Info("Plan: %d sub-queries, %d tags", len(plan.SubQueries), len(plan.Tags))
	return plan, nil
}

// fallbackPlan is the single-subquery plan used whenever the model
// response is unusable. A temporal query keeps its time reference as a
// phrase fragment since the index has no temporal predicate.
func (s *PlannerService) fallbackPlan(query string, opts domain.PlanOptions) domain.QueryPlan {
	text := query
	if opts.Temporal && opts.TimeReference != "" &&
		!strings.Contains(strings.ToLower(query), strings.ToLower(opts.TimeReference)) {
		text = query + " " + opts.TimeReference
	}

	return domain.QueryPlan{
		OriginalQuery: query,
		SubQueries:    buildSubQueries([]string{text}, opts.EntityTypes),
		Source:        domain.PlanSourceFallback,
	}
}

// cleanQueries validates, normalises, and deduplicates the model's
// phrasings, ensuring the raw user query leads the plan and the count
// stays within the configured maximum.
func (s *PlannerService) cleanQueries(original string, candidates []string, limit int) []string {
	ordered := make([]string, 0, len(candidates)+1)
	ordered = append(ordered, original)
	ordered = append(ordered, candidates...)

	seen := make(map[string]struct{}, len(ordered))
	result := make([]string, 0, limit)

	for i, candidate := range ordered {
		text := strings.TrimSpace(candidate)
		if text == "" {
			continue
		}

		normalised := normaliseQueryText(text)
		words := len(strings.Fields(normalised))

		// The original query is exempt from the word bounds: it must
		// always be searchable even when it is a single word.
		if i > 0 && (words < minQueryWords || words > maxQueryWords) {
			continue
		}
		if _, dup := seen[normalised]; dup {
			continue
		}

		seen[normalised] = struct{}{}
		if i == 0 {
			result = append(result, text)
		} else {
			result = append(result, normalised)
		}
		if len(result) >= limit {
			break
		}
	}

	return result
}

// buildSubQueries assigns ordinal IDs and propagates the caller's
// entity-type scope onto every sub-query.
func buildSubQueries(texts []string, scope []domain.EntityType) []domain.SubQuery {
	subQueries := make([]domain.SubQuery, len(texts))
	for i, text := range texts {
		subQueries[i] = domain.SubQuery{
			ID:          i,
			Text:        text,
			EntityTypes: scope,
		}
	}
	return subQueries
}

// parsePlanResponse extracts the first JSON object from the model
// output and decodes it. Models wrap JSON in prose and code fences
// often enough that extraction is the expected path.
func parsePlanResponse(raw string) (planResponse, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return planResponse{}, false
	}

	var parsed planResponse
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return planResponse{}, false
	}
	if len(parsed.Queries) == 0 {
		return planResponse{}, false
	}
	return parsed, true
}

// normaliseQueryText lowercases, strips punctuation, and collapses
// whitespace so near-identical phrasings dedup to one sub-query.
func normaliseQueryText(text string) string {
	s := strings.ToLower(text)
	s = quoteChars.ReplaceAllString(s, "")
	s = punctChars.ReplaceAllString(s, " ")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// cleanTags lowercases and deduplicates tag hints.
func cleanTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		normalised := strings.ToLower(strings.TrimSpace(tag))
		if normalised == "" {
			continue
		}
		if _, dup := seen[normalised]; dup {
			continue
		}
		seen[normalised] = struct{}{}
		result = append(result, normalised)
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// buildPlanningPrompt composes the instruction payload for the model.
// Entity scoping narrows phrasing only when the caller already
// constrained the types; temporal intent is woven in as phrase
// fragments because the vector index has no temporal predicate.
func buildPlanningPrompt(query string, count int, opts domain.PlanOptions) string {
	var b strings.Builder

	b.WriteString("You are a query planner for a personal knowledge base ")
	b.WriteString("containing code, social posts, music history, issues, documents, and photos.\n")
	b.WriteString("Generate diverse search queries to retrieve relevant items.\n\n")
	b.WriteString("RULES:\n")
	b.WriteString("1) Generate diverse perspectives: synonyms, different granularities, complementary angles\n")
	b.WriteString("2) Mix exact-term and conceptual queries\n")
	fmt.Fprintf(&b, "3) Each query must be %d-%d words, lowercase, natural language\n", minQueryWords, maxQueryWords)
	b.WriteString("4) No IDs, URLs, hashtags, quotes, or duplicates\n")

	if len(opts.EntityTypes) > 0 {
		names := make([]string, len(opts.EntityTypes))
		for i, t := range opts.EntityTypes {
			names[i] = string(t)
		}
		fmt.Fprintf(&b, "5) Results are restricted to these content types: %s. Phrase queries for them.\n",
			strings.Join(names, ", "))
	}
	if opts.Temporal {
		ref := opts.TimeReference
		if ref == "" {
			ref = "recently"
		}
		fmt.Fprintf(&b, "6) The query has temporal intent (%s). Include time phrases in the queries themselves.\n", ref)
	}

	b.WriteString("\nOUTPUT FORMAT:\n")
	fmt.Fprintf(&b, "Return ONLY a JSON object: {\"queries\": [%d unique strings], \"tags\": [optional semantic tags]}. ", count)
	b.WriteString("No markdown, no explanations.\n\n")
	fmt.Fprintf(&b, "User query:\n%s\n", query)

	return b.String()
}
