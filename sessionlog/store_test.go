package sessionlog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/prodtrap/sim"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "transcript.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testSession(id, learnerID string) *sim.SessionState {
	scenario := sim.Templates()[0].Clone()
	return &sim.SessionState{
		SessionID: id,
		LearnerID: learnerID,
		Phase:     sim.PhaseDevelopment,
		Scenario:  &scenario,
	}
}

func TestCreateSessionIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	state := testSession("s1", "learner-1")

	require.NoError(t, store.CreateSession(ctx, state))
	require.NoError(t, store.CreateSession(ctx, state), "replaying the create must not error")

	ids, err := store.Sessions(ctx, "learner-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)
}

func TestAppendAndReadEvents(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateSession(ctx, testSession("s1", "learner-1")))

	batch := []sim.Event{
		sim.NewAssistantEvent("welcome"),
		sim.NewLearnerEvent("my code"),
		sim.NewAssistantEvent("review"),
	}
	require.NoError(t, store.AppendEvents(ctx, "s1", batch))

	got, err := store.Events(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, batch[0].ID, got[0].ID)
	assert.Equal(t, sim.RoleLearner, got[1].Role)
	assert.Equal(t, "review", got[2].Content)
}

func TestAppendEventsIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateSession(ctx, testSession("s1", "learner-1")))

	batch := []sim.Event{
		sim.NewAssistantEvent("welcome"),
		sim.NewLearnerEvent("my code"),
	}
	require.NoError(t, store.AppendEvents(ctx, "s1", batch))

	// The caller writes the full transcript each turn. A second write of the
	// same prefix plus one new event records only the new event once.
	grown := append(batch, sim.NewAssistantEvent("approved"))
	require.NoError(t, store.AppendEvents(ctx, "s1", grown))
	require.NoError(t, store.AppendEvents(ctx, "s1", grown))

	got, err := store.Events(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "approved", got[2].Content)
}

func TestAppendEventsEmptyBatch(t *testing.T) {
	store := openTestStore(t)
	assert.NoError(t, store.AppendEvents(context.Background(), "s1", nil))
}

func TestAppendEventsAssignsMissingIDs(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateSession(ctx, testSession("s1", "learner-1")))

	legacy := []sim.Event{{Role: sim.RoleAssistant, Content: "no id yet"}}
	require.NoError(t, store.AppendEvents(ctx, "s1", legacy))

	got, err := store.Events(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID)
}

func TestSessionsByLearner(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, testSession("s1", "learner-1")))
	require.NoError(t, store.CreateSession(ctx, testSession("s2", "learner-1")))
	require.NoError(t, store.CreateSession(ctx, testSession("s3", "learner-2")))

	ids, err := store.Sessions(ctx, "learner-1")
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	assert.NotContains(t, ids, "s3")

	ids, err = store.Sessions(ctx, "learner-99")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
