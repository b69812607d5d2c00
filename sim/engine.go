package sim

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Engine is the workflow engine: it routes each external turn to the right
// actor node, merges the node's partial update into the session state, and
// suspends when learner input is needed.
//
// Per external turn the engine performs at most two internal transitions
// (Lead then Monitor, or entry straight to Validator); every internal edge
// is pre-enumerated and acyclic within a turn.
type Engine struct {
	generator *Generator
	lead      *Lead
	monitor   *Monitor
	validator *Validator
	logger    *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineLogger sets the engine's logger, shared with its nodes.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates the workflow engine with all actor nodes wired to the
// given oracle.
func NewEngine(oracle Oracle, opts ...EngineOption) *Engine {
	e := &Engine{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	e.generator = NewGenerator(oracle, WithGeneratorLogger(e.logger))
	e.lead = NewLead(oracle, e.logger)
	e.monitor = NewMonitor(e.logger)
	e.validator = NewValidator(oracle, e.logger)
	return e
}

// NewSession builds the initial session state for a learner, invoking the
// scenario generator exactly once. The scenario is cached on the state and
// never regenerated.
func (e *Engine) NewSession(ctx context.Context, learnerID string) (*SessionState, error) {
	if learnerID == "" {
		return nil, fmt.Errorf("learner ID is required")
	}

	scenario := e.generator.Generate(ctx, learnerID)

	state := &SessionState{
		SessionID: uuid.NewString(),
		LearnerID: learnerID,
		Phase:     PhaseDevelopment,
		Scenario:  &scenario,
	}

	e.logger.Info("Session created",
		"session_id", state.SessionID,
		"learner_id", learnerID,
		"scenario", scenario.ID)

	return state, nil
}

// Advance runs one external turn: the submission (if any) is appended to
// the transcript, nodes run until a suspend point, and the suspended state
// is returned. An empty submission means "no learner input this turn"; the
// caller layer rejects genuinely malformed input before invoking Advance.
//
// Entry routing: a session in debugging enters directly at the validator
// (past approval, the lead is never re-engaged); everything else enters at
// the lead. The lead chains into the monitor within the same turn only on
// approval, so the learner sees the approval and the incident together.
func (e *Engine) Advance(ctx context.Context, s *SessionState, submission string) (*SessionState, error) {
	if s == nil {
		return nil, fmt.Errorf("session state is required")
	}
	if s.Scenario == nil {
		return nil, fmt.Errorf("session has no scenario")
	}

	// Terminal: resolution has no outgoing transition.
	if s.Phase == PhaseResolution {
		return s, nil
	}

	if submission != "" {
		s = s.Apply(Update{Messages: []Event{NewLearnerEvent(submission)}})
	}

	if s.Phase == PhaseDebugging {
		s = s.Apply(e.validator.Run(ctx, s))
		return s, nil
	}

	s = s.Apply(e.lead.Run(ctx, s))

	if s.Phase == PhaseProductionCrash {
		// Transient phase: the monitor fires on the same pass, and the
		// session suspends in debugging.
		s = s.Apply(e.monitor.Run(ctx, s))
	}

	return s, nil
}

// Done reports whether the session reached its terminal phase.
func Done(s *SessionState) bool {
	return s != nil && s.Phase == PhaseResolution
}
