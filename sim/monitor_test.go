package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorAnnouncesIncident(t *testing.T) {
	monitor := NewMonitor(nil)
	state := &SessionState{
		Scenario: testScenario(),
		Phase:    PhaseProductionCrash,
	}

	update := monitor.Run(context.Background(), state)

	assert.True(t, update.CrashShown)
	assert.Equal(t, PhaseDebugging, update.Phase)
	require.Len(t, update.Messages, 1)
	assert.Equal(t, RoleSystem, update.Messages[0].Role)
	assert.Contains(t, update.Messages[0].Content, state.Scenario.Incident)
}

func TestMonitorNoOpAfterCrashShown(t *testing.T) {
	monitor := NewMonitor(nil)
	state := &SessionState{
		Scenario:   testScenario(),
		Phase:      PhaseDebugging,
		CrashShown: true,
	}

	update := monitor.Run(context.Background(), state)

	assert.Equal(t, Update{}, update)

	// Applying the no-op changes nothing.
	after := state.Apply(update)
	assert.Equal(t, state.Phase, after.Phase)
	assert.Len(t, after.Messages, len(state.Messages))
}

func TestMonitorNeverRevealsRootCause(t *testing.T) {
	monitor := NewMonitor(nil)
	for _, tpl := range Templates() {
		scenario := tpl.Clone()
		state := &SessionState{Scenario: &scenario, Phase: PhaseProductionCrash}

		update := monitor.Run(context.Background(), state)

		require.Len(t, update.Messages, 1)
		assert.NotContains(t, update.Messages[0].Content, scenario.FixConcept,
			"alert for %s must not leak the fix concept", scenario.ID)
	}
}
