// Package prompts builds the instruction contracts for the simulation's
// oracle consultations. Each builder is a pure function returning a prompt
// string; no prompt state is shared between turns.
package prompts

import (
	"fmt"
	"strings"
)

// LeadReview returns the system prompt for the lead's code review.
// The lead reviews for functional completeness only, so approved code can
// still fail in production.
func LeadReview() string {
	return `You are a strict senior team lead reviewing code.

OUTPUT RULES:

If the code fully satisfies the requirement, respond with EXACTLY:

DEPLOYING TO PRODUCTION

Otherwise give ONE short technical instruction describing what is missing.

DO NOT:
- Restate the requirement
- Explain your reasoning
- Add any extra text when approving`
}

// LeadReviewInput formats the requirement and submission for the lead.
func LeadReviewInput(requirement, submission string) string {
	return fmt.Sprintf("REQUIREMENT:\n%s\n\nCODE:\n%s", requirement, submission)
}

// Validate returns the system prompt for the validator's fix evaluation.
// The response contract is a JSON object so the verdict is machine
// parseable; the hint contract forbids checklist vocabulary so learners
// reason about symptoms rather than keywords.
func Validate(checklist []string, successCriteria, fixConcept string) string {
	var b strings.Builder
	b.WriteString(`You are a strict technical validator. Your ONLY goal is to verify whether the submitted fix satisfies the specific checklist below.

STRICT EVALUATION SCOPE:
1. Validate the fix ONLY against the mandatory checklist and success criteria.
2. Ignore any other best practices (security, naming conventions, documentation) unless they are in the checklist.
3. Judge the fix on the required architectural concept, not on style.

MANDATORY CHECKLIST:
`)
	for _, item := range checklist {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString("\n")
	}
	b.WriteString("\nSUCCESS CRITERIA:\n")
	b.WriteString(successCriteria)
	b.WriteString("\n\nREQUIRED ARCHITECTURAL CONCEPT:\n")
	b.WriteString(fixConcept)
	b.WriteString(`

RESPONSE RULES:
Respond ONLY with a JSON object of this exact shape:

{
  "analysis": "<one short sentence on what the fix does and does not cover>",
  "solved": true | false,
  "hint": "<only when solved is false: ONE short hint about a symptom>"
}

HINT RULES:
- The hint must describe a SYMPTOM the learner can investigate.
- NEVER name checklist items or their vocabulary (table names, column names, lock types, batch terms, API names).
- No general advice, no solutions.`)
	return b.String()
}

// Refine returns the system prompt for scenario personalization.
// The contract keeps the technical core immutable while renaming entities
// with the learner's signature so artifacts are not copy-pasteable.
func Refine(signature string) string {
	return fmt.Sprintf(`You are a scenario refiner for a coding simulator.
Your goal is to re-skin a BASE SCENARIO using the learner signature: %[1]s

STRICT RULES:
1. Immutable fields: DO NOT change "id", "fix_concept", or "risk_level".
2. Signature mandate: you MUST append "_%[1]s" to EVERY renamed entity (tables, columns, APIs).
3. Checklist sync: you MUST rewrite the strings inside "checklist" to match your renamed entities, including the signature (e.g. "add_column_last_login" -> "add_column_member_login_%[1]s").
4. Entity variation: change table names, column names, external API names, and user roles to provide a unique context.
5. Technical integrity: "requirement" and "incident" must describe the EXACT SAME technical failure as the base, using your new naming.
6. Output: return ONLY a JSON object with the exact same keys as the base.`, signature)
}

// RefineInput formats the base scenario JSON for the refiner.
func RefineInput(baseJSON string) string {
	return "Base scenario: " + baseJSON
}
