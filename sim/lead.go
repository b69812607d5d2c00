package sim

import (
	"context"
	"log/slog"
	"strings"

	"github.com/c360studio/prodtrap/model"
	"github.com/c360studio/prodtrap/sim/prompts"
)

// Token protocol between the lead's rubric and the routing logic.
const (
	// ApprovalToken is the exact reply the rubric requests on approval.
	ApprovalToken = "DEPLOYING TO PRODUCTION"

	// GuardToken disqualifies an approval even when the approval token is
	// present.
	GuardToken = "WARN"
)

// reviewTemperature keeps lead and validator judgments consistent.
const reviewTemperature = 0.3

const welcomeMessage = "Welcome to the Production Trap Simulator!"

// Lead gates the development phase: it welcomes the learner, presents the
// bait task, and reviews submissions for functional completeness only. A
// pure, idempotent transformer: identical input state yields an equivalent
// update, and latched flags skip their branch entirely.
type Lead struct {
	oracle Oracle
	logger *slog.Logger
}

// NewLead creates the lead node.
func NewLead(oracle Oracle, logger *slog.Logger) *Lead {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lead{oracle: oracle, logger: logger}
}

// Run produces the lead's partial update for the current state.
func (l *Lead) Run(ctx context.Context, s *SessionState) Update {
	// One-time welcome. Nothing else happens this turn.
	if !s.WelcomeShown {
		return Update{
			Messages:     []Event{NewAssistantEvent(welcomeMessage)},
			WelcomeShown: true,
			Actor:        "lead",
		}
	}

	// First task presentation. No oracle consult: no submission exists yet.
	if !s.TaskShown {
		task := "Team lead task:\n" + s.Scenario.Requirement + "\n\nPlease submit your code."
		return Update{
			Messages:  []Event{NewAssistantEvent(task)},
			TaskShown: true,
			Phase:     PhaseDevelopment,
			Actor:     "lead",
		}
	}

	// Review: the learner's submission is the most recent transcript event.
	last, ok := LatestEvent(s.Messages)
	if !ok {
		// Task was latched, so the transcript cannot be empty; guard anyway.
		return Update{Phase: PhaseDevelopment, Actor: "lead"}
	}

	reply, err := l.oracle.Evaluate(ctx, Prompt{
		Capability:  model.CapabilityReviewing.String(),
		System:      prompts.LeadReview(),
		User:        prompts.LeadReviewInput(s.Scenario.Requirement, last.Content),
		Temperature: temp(reviewTemperature),
	})
	if err != nil {
		// Absorbed: the session never halts on an oracle outage. Stay in
		// development and ask for a resubmission.
		l.logger.Warn("Lead review failed", "error", err)
		return Update{
			Messages: []Event{NewAssistantEvent(
				"Review queue is backed up right now. Please resubmit your code.")},
			Phase: PhaseDevelopment,
			Actor: "lead",
		}
	}

	phase := PhaseDevelopment
	if IsApproval(reply) {
		phase = PhaseProductionCrash
	}

	return Update{
		Messages: []Event{NewAssistantEvent(reply)},
		Phase:    phase,
		Actor:    "lead",
	}
}

// IsApproval reports whether a lead reply approves the submission: it must
// contain the approval token and must NOT contain the guard token.
func IsApproval(reply string) bool {
	upper := strings.ToUpper(reply)
	return strings.Contains(upper, ApprovalToken) && !strings.Contains(upper, GuardToken)
}
