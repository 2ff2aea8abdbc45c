package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recall-labs/recall-cli/internal/config"
	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	response    string
	generateErr error
	prompts     []string
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.generateErr != nil {
		return "", m.generateErr
	}
	return m.response, nil
}

func (m *mockLLMService) ModelName() string {
	return "mock-llm"
}

func (m *mockLLMService) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLMService) Close() error {
	return nil
}

// --- Test helpers ---

func testPlannerConfig() config.Planner {
	return config.Planner{
		MinSubQueries: 4,
		MaxSubQueries: 12,
		Temperature:   0.7,
	}
}

// --- Tests ---

func TestPlannerService_Plan_EmptyQuery(t *testing.T) {
	service := NewPlannerService(&mockLLMService{}, testPlannerConfig())

	_, err := service.Plan(context.Background(), "   ", domain.PlanOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPlannerService_Plan_ValidResponse(t *testing.T) {
	llm := &mockLLMService{
		response: `{"queries": ["kubernetes deployment errors", "container orchestration failures", "pod crash loop debugging", "cluster rollout issues"], "tags": ["Kubernetes", "DevOps"]}`,
	}
	service := NewPlannerService(llm, testPlannerConfig())

	plan, err := service.Plan(context.Background(), "kubernetes deploy failing", domain.PlanOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.PlanSourceLLM, plan.Source)
	assert.Equal(t, "kubernetes deploy failing", plan.OriginalQuery)
	// Original query leads, model queries follow.
	require.NotEmpty(t, plan.SubQueries)
	assert.Equal(t, "kubernetes deploy failing", plan.SubQueries[0].Text)
	assert.GreaterOrEqual(t, len(plan.SubQueries), 4)
	assert.Equal(t, []string{"kubernetes", "devops"}, plan.Tags)

	// IDs are ordinal.
	for i, sq := range plan.SubQueries {
		assert.Equal(t, i, sq.ID)
	}
}

func TestPlannerService_Plan_JSONWrappedInProse(t *testing.T) {
	llm := &mockLLMService{
		response: "Here are your queries:\n```json\n" +
			`{"queries": ["rust async runtime", "tokio executor internals", "async await scheduling", "futures polling model"]}` +
			"\n```\nHope this helps!",
	}
	service := NewPlannerService(llm, testPlannerConfig())

	plan, err := service.Plan(context.Background(), "how does tokio work", domain.PlanOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.PlanSourceLLM, plan.Source)
	assert.GreaterOrEqual(t, len(plan.SubQueries), 4)
}

func TestPlannerService_Plan_GenerateError(t *testing.T) {
	llm := &mockLLMService{generateErr: errors.New("connection refused")}
	service := NewPlannerService(llm, testPlannerConfig())

	plan, err := service.Plan(context.Background(), "my query", domain.PlanOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.PlanSourceFallback, plan.Source)
	require.Len(t, plan.SubQueries, 1)
	assert.Equal(t, "my query", plan.SubQueries[0].Text)
}

func TestPlannerService_Plan_MalformedJSON(t *testing.T) {
	llm := &mockLLMService{response: "sorry, I cannot do that"}
	service := NewPlannerService(llm, testPlannerConfig())

	plan, err := service.Plan(context.Background(), "my query", domain.PlanOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.PlanSourceFallback, plan.Source)
}

func TestPlannerService_Plan_TooFewAfterValidation(t *testing.T) {
	// All candidates are out of bounds or duplicates: one word, nine
	// words, and a repeat of the original.
	llm := &mockLLMService{
		response: `{"queries": ["kubernetes", "a b c d e f g h i", "my query"]}`,
	}
	service := NewPlannerService(llm, testPlannerConfig())

	plan, err := service.Plan(context.Background(), "my query", domain.PlanOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.PlanSourceFallback, plan.Source)
	require.Len(t, plan.SubQueries, 1)
}

func TestPlannerService_Plan_DeduplicatesNormalised(t *testing.T) {
	// "Pod Crash Loops!" and "pod crash loops" normalise identically.
	llm := &mockLLMService{
		response: `{"queries": ["Pod Crash Loops!", "pod crash loops", "container restart storm", "kubelet eviction pressure", "oom killed containers"]}`,
	}
	service := NewPlannerService(llm, testPlannerConfig())

	plan, err := service.Plan(context.Background(), "crashing pods", domain.PlanOptions{})

	require.NoError(t, err)
	texts := make(map[string]int)
	for _, sq := range plan.SubQueries {
		texts[sq.Text]++
	}
	assert.Equal(t, 1, texts["pod crash loops"])
}

func TestPlannerService_Plan_ClampsToMax(t *testing.T) {
	queries := `{"queries": [` +
		`"alpha beta one", "alpha beta two", "alpha beta three", "alpha beta four",` +
		`"alpha beta five", "alpha beta six", "alpha beta seven", "alpha beta eight",` +
		`"alpha beta nine", "alpha beta ten", "alpha beta eleven", "alpha beta twelve",` +
		`"alpha beta thirteen", "alpha beta fourteen"]}`
	llm := &mockLLMService{response: queries}
	service := NewPlannerService(llm, testPlannerConfig())

	plan, err := service.Plan(context.Background(), "alpha beta", domain.PlanOptions{})

	require.NoError(t, err)
	assert.LessOrEqual(t, len(plan.SubQueries), 12)
}

func TestPlannerService_Plan_DesiredCountClamped(t *testing.T) {
	llm := &mockLLMService{
		response: `{"queries": ["alpha beta one", "alpha beta two", "alpha beta three", "alpha beta four", "alpha beta five", "alpha beta six"]}`,
	}
	service := NewPlannerService(llm, testPlannerConfig())

	plan, err := service.Plan(context.Background(), "alpha beta", domain.PlanOptions{DesiredCount: 2})

	require.NoError(t, err)
	// A desired count below the minimum is raised to it, never
	// producing a plan too narrow to accept.
	assert.GreaterOrEqual(t, len(plan.SubQueries), 4)
}

func TestPlannerService_Plan_NilLLM(t *testing.T) {
	service := NewPlannerService(nil, testPlannerConfig())

	plan, err := service.Plan(context.Background(), "offline search", domain.PlanOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.PlanSourceFallback, plan.Source)
	require.Len(t, plan.SubQueries, 1)
	assert.Equal(t, "offline search", plan.SubQueries[0].Text)
}

func TestPlannerService_Plan_EntityScopePropagated(t *testing.T) {
	llm := &mockLLMService{
		response: `{"queries": ["auth middleware bug", "login handler panic", "session token validation", "jwt parsing error"]}`,
	}
	service := NewPlannerService(llm, testPlannerConfig())
	scope := []domain.EntityType{domain.EntityCode, domain.EntityIssue}

	plan, err := service.Plan(context.Background(), "auth bug", domain.PlanOptions{EntityTypes: scope})

	require.NoError(t, err)
	for _, sq := range plan.SubQueries {
		assert.Equal(t, scope, sq.EntityTypes)
	}
	// The scope also steers the prompt.
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "code")
	assert.Contains(t, llm.prompts[0], "issue")
}

func TestPlannerService_Plan_TemporalFallbackKeepsTimeReference(t *testing.T) {
	llm := &mockLLMService{generateErr: errors.New("timeout")}
	service := NewPlannerService(llm, testPlannerConfig())

	plan, err := service.Plan(context.Background(), "rust articles", domain.PlanOptions{
		Temporal:      true,
		TimeReference: "last week",
	})

	require.NoError(t, err)
	require.Len(t, plan.SubQueries, 1)
	assert.Equal(t, "rust articles last week", plan.SubQueries[0].Text)
}

func TestPlannerService_Plan_TemporalPrompt(t *testing.T) {
	llm := &mockLLMService{
		response: `{"queries": ["recent rust articles", "rust posts last week", "new rust blog entries", "latest rust writing"]}`,
	}
	service := NewPlannerService(llm, testPlannerConfig())

	_, err := service.Plan(context.Background(), "rust articles", domain.PlanOptions{
		Temporal:      true,
		TimeReference: "last week",
	})

	require.NoError(t, err)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "last week")
}

func TestNormaliseQueryText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "Kubernetes Deployment", "kubernetes deployment"},
		{"strips punctuation", "what's wrong, exactly?", "whats wrong exactly"},
		{"collapses whitespace", "too   many    spaces", "too many spaces"},
		{"strips quotes", `"exact phrase" search`, "exact phrase search"},
		{"trims", "  padded  ", "padded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normaliseQueryText(tt.input))
		})
	}
}
