package sim

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/c360studio/prodtrap/llm"
	"github.com/c360studio/prodtrap/model"
	"github.com/c360studio/prodtrap/sim/prompts"
)

// SolvedMessage is the canonical event content appended when a fix is
// accepted (or forgiven).
const SolvedMessage = "SOLVED"

// genericHint is emitted when the oracle's verdict cannot be decoded.
const genericHint = "The system is still unstable. Take another look at how your fix behaves under production load."

// Verdict is the machine-parseable shape the validator requests from the
// oracle. Analysis is for logging only and never surfaced to the learner.
type Verdict struct {
	Analysis string `json:"analysis"`
	Solved   bool   `json:"solved"`
	Hint     string `json:"hint"`
}

// Validator gates the debugging phase: it evaluates the learner's fix
// against the scenario checklist and either resolves the session or emits
// a single symptom-level hint.
//
// Failure policy is deliberately asymmetric: an unparseable verdict keeps
// the learner in debugging with a generic hint, while a transport failure
// fails open to resolution so an infrastructure outage never traps a
// learner. Both paths count as a completed attempt.
type Validator struct {
	oracle Oracle
	logger *slog.Logger
}

// NewValidator creates the validator node.
func NewValidator(oracle Oracle, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{oracle: oracle, logger: logger}
}

// Run produces the validator's partial update for the current state.
func (v *Validator) Run(ctx context.Context, s *SessionState) Update {
	last, _ := LatestEvent(s.Messages)

	reply, err := v.oracle.Evaluate(ctx, Prompt{
		Capability: model.CapabilityReviewing.String(),
		System: prompts.Validate(
			s.Scenario.Checklist,
			s.Scenario.SuccessCriteria,
			s.Scenario.FixConcept,
		),
		User:        last.Content,
		Temperature: temp(reviewTemperature),
	})
	if err != nil {
		// Transport failure: fail open so the learner is not blocked on an
		// infrastructure fault. Occasionally passes an unverified fix.
		v.logger.Warn("Validator evaluation failed, failing open", "error", err)
		return Update{
			Messages:      []Event{NewAssistantEvent(SolvedMessage)},
			Phase:         PhaseResolution,
			AttemptsDelta: 1,
			Actor:         "validator",
		}
	}

	verdict, ok := decodeVerdict(reply)
	if !ok {
		// Decode failure: retry with a generic hint rather than failing the turn.
		v.logger.Warn("Validator verdict unparseable", "reply_len", len(reply))
		return Update{
			Messages:      []Event{NewAssistantEvent(genericHint)},
			Phase:         PhaseDebugging,
			AttemptsDelta: 1,
			Actor:         "validator",
		}
	}

	v.logger.Debug("Validator verdict",
		"solved", verdict.Solved, "analysis", verdict.Analysis)

	if verdict.Solved {
		return Update{
			Messages:      []Event{NewAssistantEvent(SolvedMessage)},
			Phase:         PhaseResolution,
			AttemptsDelta: 1,
			Actor:         "validator",
		}
	}

	hint := verdict.Hint
	if hint == "" {
		hint = genericHint
	}
	return Update{
		Messages:      []Event{NewAssistantEvent(hint)},
		Phase:         PhaseDebugging,
		AttemptsDelta: 1,
		Actor:         "validator",
	}
}

// decodeVerdict attempts a strict decode of the verdict after locating the
// object-looking substring (replies often arrive wrapped in code fences).
func decodeVerdict(reply string) (Verdict, bool) {
	raw := llm.ExtractJSON(reply)
	if raw == "" {
		return Verdict{}, false
	}
	var verdict Verdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		return Verdict{}, false
	}
	return verdict, true
}
