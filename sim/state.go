// Package sim implements the session orchestration engine for the
// production trap simulation: the state model, the actor nodes that
// transform it, per-learner scenario generation, and the workflow engine
// that sequences them across learner turns.
package sim

// Phase is the coarse pedagogical stage of a session.
type Phase string

const (
	// PhaseDevelopment is the initial stage: the learner writes code
	// against the bait requirement and iterates until the lead approves.
	PhaseDevelopment Phase = "development"

	// PhaseProductionCrash is a transient stage set by the lead on
	// approval. It only triggers the monitor within the same turn and is
	// never an externally observed resting phase.
	PhaseProductionCrash Phase = "production_crash"

	// PhaseDebugging is the stage where the learner iterates on a fix
	// until the validator accepts it. It may be revisited unboundedly.
	PhaseDebugging Phase = "debugging"

	// PhaseResolution is the terminal stage. The engine defines no
	// outgoing transition from it.
	PhaseResolution Phase = "resolution"
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// IsValid checks if the phase is one of the four defined values.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseDevelopment, PhaseProductionCrash, PhaseDebugging, PhaseResolution:
		return true
	}
	return false
}

// SessionState is the single source of truth for one learner's session.
// It is owned by the engine and mutated only by applying actor updates;
// nodes receive it read-only and return partial updates.
type SessionState struct {
	// SessionID uniquely identifies this session run.
	SessionID string `json:"session_id"`

	// LearnerID seeds scenario personalization.
	LearnerID string `json:"learner_id"`

	// Messages is the append-only session transcript. Insertion order is
	// meaningful; entries are never removed or reordered.
	Messages []Event `json:"messages"`

	// Phase drives engine routing.
	Phase Phase `json:"phase"`

	// Scenario is the personalized challenge. Set exactly once at session
	// creation and never mutated afterward.
	Scenario *Scenario `json:"scenario"`

	// Attempts counts completed validator evaluations. Monotone.
	Attempts int `json:"attempts"`

	// One-shot latches. Each transitions false to true exactly once and
	// never reverts; they keep node output idempotent under re-execution.
	WelcomeShown bool `json:"welcome_shown"`
	TaskShown    bool `json:"task_shown"`
	CrashShown   bool `json:"crash_shown"`

	// LastActor records which node produced the most recent update.
	// Diagnostic only; routing never reads it.
	LastActor string `json:"last_actor"`
}

// Update is a partial state change returned by an actor node. Zero-valued
// fields leave the corresponding state untouched, so nodes only declare
// what they changed.
type Update struct {
	// Messages are new transcript events, merged by ID.
	Messages []Event

	// Phase, when non-empty, replaces the session phase.
	Phase Phase

	// AttemptsDelta is added to the attempts counter. Never negative.
	AttemptsDelta int

	// Latches. true latches the flag; false means "leave as is".
	WelcomeShown bool
	TaskShown    bool
	CrashShown   bool

	// Actor names the node that produced this update.
	Actor string
}

// Apply merges an update into the state and returns the resulting state.
// The receiver is not modified; nodes and callers may hold references to
// prior states safely (replay and crash-recovery depend on this).
func (s *SessionState) Apply(u Update) *SessionState {
	next := *s
	next.Messages = MergeEvents(s.Messages, u.Messages)

	if u.Phase != "" && u.Phase.IsValid() {
		next.Phase = u.Phase
	}
	if u.AttemptsDelta > 0 {
		next.Attempts += u.AttemptsDelta
	}

	// Latches only move false -> true.
	next.WelcomeShown = s.WelcomeShown || u.WelcomeShown
	next.TaskShown = s.TaskShown || u.TaskShown
	next.CrashShown = s.CrashShown || u.CrashShown

	if u.Actor != "" {
		next.LastActor = u.Actor
	}

	return &next
}
