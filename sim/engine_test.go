package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/prodtrap/llm"
	"github.com/c360studio/prodtrap/llm/testutil"
)

func TestNewSession(t *testing.T) {
	mock := &testutil.MockClient{}
	engine := NewEngine(NewLLMOracle(mock))

	state, err := engine.NewSession(context.Background(), "123456789")
	require.NoError(t, err)

	assert.NotEmpty(t, state.SessionID)
	assert.Equal(t, "123456789", state.LearnerID)
	assert.Equal(t, PhaseDevelopment, state.Phase)
	require.NotNil(t, state.Scenario)
	assert.Equal(t, 1, mock.CallCount(), "scenario is generated exactly once")
	assert.Zero(t, state.Attempts)
	assert.Empty(t, state.Messages)
}

func TestNewSessionRequiresLearnerID(t *testing.T) {
	engine := NewEngine(NewLLMOracle(&testutil.MockClient{}))

	_, err := engine.NewSession(context.Background(), "")
	assert.Error(t, err)
}

func TestAdvanceRejectsBadState(t *testing.T) {
	engine := NewEngine(NewLLMOracle(&testutil.MockClient{}))

	_, err := engine.Advance(context.Background(), nil, "")
	assert.Error(t, err)

	_, err = engine.Advance(context.Background(), &SessionState{Phase: PhaseDevelopment}, "")
	assert.Error(t, err, "a session without a scenario is corrupt")
}

func TestAdvanceResolutionIsTerminal(t *testing.T) {
	mock := &testutil.MockClient{}
	engine := NewEngine(NewLLMOracle(mock))

	state := &SessionState{
		SessionID: "s1",
		Scenario:  testScenario(),
		Phase:     PhaseResolution,
		Attempts:  2,
		Messages:  []Event{NewAssistantEvent(SolvedMessage)},
	}

	after, err := engine.Advance(context.Background(), state, "more input")
	require.NoError(t, err)

	assert.Same(t, state, after, "terminal phase returns the state unchanged")
	assert.Zero(t, mock.CallCount())
}

func TestAdvanceApprovalTurnEmitsTwoEvents(t *testing.T) {
	mock := &testutil.MockClient{
		Responses: []*llm.Response{
			{Content: "DEPLOYING TO PRODUCTION", Model: "test-model"},
		},
	}
	engine := NewEngine(NewLLMOracle(mock))

	before := &SessionState{
		SessionID:    "s1",
		Scenario:     testScenario(),
		Phase:        PhaseDevelopment,
		WelcomeShown: true,
		TaskShown:    true,
	}

	after, err := engine.Advance(context.Background(), before, "my complete implementation")
	require.NoError(t, err)

	// One learner event in, then approval plus incident alert out.
	require.Len(t, after.Messages, 3)
	assert.Equal(t, RoleLearner, after.Messages[0].Role)
	assert.Equal(t, RoleAssistant, after.Messages[1].Role)
	assert.Contains(t, after.Messages[1].Content, ApprovalToken)
	assert.Equal(t, RoleSystem, after.Messages[2].Role)
	assert.Contains(t, after.Messages[2].Content, before.Scenario.Incident)

	assert.Equal(t, PhaseDebugging, after.Phase, "session suspends in debugging, never in production_crash")
	assert.True(t, after.CrashShown)
}

func TestAdvanceRejectionStaysWithLead(t *testing.T) {
	mock := &testutil.MockClient{
		Responses: []*llm.Response{
			{Content: "Missing the exclusion list. Please revise.", Model: "test-model"},
		},
	}
	engine := NewEngine(NewLLMOracle(mock))

	before := &SessionState{
		SessionID:    "s1",
		Scenario:     testScenario(),
		Phase:        PhaseDevelopment,
		WelcomeShown: true,
		TaskShown:    true,
	}

	after, err := engine.Advance(context.Background(), before, "partial code")
	require.NoError(t, err)

	assert.Equal(t, PhaseDevelopment, after.Phase)
	require.Len(t, after.Messages, 2)
	assert.False(t, after.CrashShown, "monitor must not fire without approval")
}

func TestAdvanceDebuggingRoutesToValidator(t *testing.T) {
	mock := &testutil.MockClient{
		Responses: []*llm.Response{
			{Content: `{"analysis": "fixed", "solved": true, "hint": ""}`, Model: "test-model"},
		},
	}
	engine := NewEngine(NewLLMOracle(mock))

	before := &SessionState{
		SessionID:    "s1",
		Scenario:     testScenario(),
		Phase:        PhaseDebugging,
		WelcomeShown: true,
		TaskShown:    true,
		CrashShown:   true,
		Attempts:     1,
	}

	after, err := engine.Advance(context.Background(), before, "the real fix")
	require.NoError(t, err)

	assert.Equal(t, PhaseResolution, after.Phase)
	assert.Equal(t, 2, after.Attempts)
	require.Len(t, after.Messages, 2)
	assert.Equal(t, SolvedMessage, after.Messages[1].Content)
	assert.True(t, Done(after))
}

// TestFullSession drives a session end to end through the engine: welcome,
// task, a rejected draft, the approval trap, a failed fix, and resolution.
func TestFullSession(t *testing.T) {
	mock := &testutil.MockClient{
		Responses: []*llm.Response{
			{Content: "not json, template fallback", Model: "test-model"}, // scenario skin
			{Content: "No error handling yet. Please revise.", Model: "test-model"},
			{Content: "Ship it. DEPLOYING TO PRODUCTION", Model: "test-model"},
			{Content: `{"analysis": "restarting hides the lock", "solved": false, "hint": "Restarting does not address why the table locked."}`, Model: "test-model"},
			{Content: `{"analysis": "batched migration", "solved": true, "hint": ""}`, Model: "test-model"},
		},
	}
	engine := NewEngine(NewLLMOracle(mock))
	ctx := context.Background()

	state, err := engine.NewSession(ctx, "123456789")
	require.NoError(t, err)

	// Two input-less turns: welcome, then the bait task.
	state, err = engine.Advance(ctx, state, "")
	require.NoError(t, err)
	assert.True(t, state.WelcomeShown)

	state, err = engine.Advance(ctx, state, "")
	require.NoError(t, err)
	assert.True(t, state.TaskShown)
	assert.Equal(t, PhaseDevelopment, state.Phase)

	// First draft rejected.
	state, err = engine.Advance(ctx, state, "draft one")
	require.NoError(t, err)
	assert.Equal(t, PhaseDevelopment, state.Phase)

	// Second draft approved; the incident lands in the same turn.
	state, err = engine.Advance(ctx, state, "draft two")
	require.NoError(t, err)
	assert.Equal(t, PhaseDebugging, state.Phase)
	assert.True(t, state.CrashShown)

	// Naive fix rejected with a hint.
	state, err = engine.Advance(ctx, state, "restart the service")
	require.NoError(t, err)
	assert.Equal(t, PhaseDebugging, state.Phase)
	assert.Equal(t, 1, state.Attempts)
	assert.False(t, Done(state))

	// Real fix accepted.
	state, err = engine.Advance(ctx, state, "batched ALTER with fallback")
	require.NoError(t, err)
	assert.Equal(t, PhaseResolution, state.Phase)
	assert.Equal(t, 2, state.Attempts)
	assert.True(t, Done(state))

	// Every transcript event carries a unique ID.
	seen := make(map[string]bool)
	for _, e := range state.Messages {
		assert.NotEmpty(t, e.ID)
		assert.False(t, seen[e.ID], "duplicate event ID %s", e.ID)
		seen[e.ID] = true
	}

	// Terminal: further turns change nothing.
	calls := mock.CallCount()
	final, err := engine.Advance(ctx, state, "anything else")
	require.NoError(t, err)
	assert.Same(t, state, final)
	assert.Equal(t, calls, mock.CallCount())
}
