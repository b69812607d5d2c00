package sim

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/c360studio/prodtrap/llm"
	"github.com/c360studio/prodtrap/model"
	"github.com/c360studio/prodtrap/sim/prompts"
)

// skinningTemperature is deliberately high: the rewrite is cosmetic and
// benefits from variety across learners.
const skinningTemperature = 0.8

// Generator produces the per-learner personalized scenario. Template
// selection and the signature are fully deterministic in the learner ID;
// only the oracle rewrite varies, and it is cosmetic by contract.
type Generator struct {
	oracle    Oracle
	templates []Scenario
	logger    *slog.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithGeneratorLogger sets the generator's logger.
func WithGeneratorLogger(logger *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithTemplates replaces the built-in template library. Used in tests.
func WithTemplates(templates []Scenario) GeneratorOption {
	return func(g *Generator) {
		g.templates = templates
	}
}

// NewGenerator creates a scenario generator backed by the given oracle.
func NewGenerator(oracle Oracle, opts ...GeneratorOption) *Generator {
	g := &Generator{
		oracle:    oracle,
		templates: Templates(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SelectTemplate deterministically chooses a template for a learner.
// The same learner ID always selects the same template; different learners
// may collide, which is acceptable for a small library.
func (g *Generator) SelectTemplate(learnerID string) Scenario {
	r := seededRand("template", learnerID)
	return g.templates[r.IntN(len(g.templates))].Clone()
}

// Generate builds the personalized scenario for a learner: deterministic
// template selection, signature derivation, then one bounded oracle rewrite.
// Personalization is cosmetic, not safety-critical, so any failure falls
// back to the unmodified template and the session proceeds unaffected.
func (g *Generator) Generate(ctx context.Context, learnerID string) Scenario {
	base := g.SelectTemplate(learnerID)
	signature := Signature(learnerID)

	baseJSON, err := json.Marshal(base)
	if err != nil {
		g.logger.Warn("Marshal base scenario failed, using template",
			"template", base.ID, "error", err)
		return base
	}

	reply, err := g.oracle.Evaluate(ctx, Prompt{
		Capability:  model.CapabilitySkinning.String(),
		System:      prompts.Refine(signature),
		User:        prompts.RefineInput(string(baseJSON)),
		Temperature: temp(skinningTemperature),
	})
	if err != nil {
		g.logger.Warn("Scenario personalization failed, using template",
			"learner_id", learnerID, "template", base.ID, "error", err)
		return base
	}

	skinned, ok := decodeSkinned(reply)
	if !ok || skinned.ID == "" {
		g.logger.Warn("Personalization output malformed, using template",
			"learner_id", learnerID, "template", base.ID)
		return base
	}

	// The immutable-fields rule holds even if the oracle violated its
	// instructions: force-overwrite from the template.
	skinned.ID = base.ID
	skinned.FixConcept = base.FixConcept
	skinned.RiskLevel = base.RiskLevel

	g.logger.Debug("Scenario personalized",
		"learner_id", learnerID, "template", base.ID, "signature", signature)
	return skinned
}

// decodeSkinned parses a personalization reply permissively: the JSON
// object is located and cleaned first, then strictly decoded.
func decodeSkinned(reply string) (Scenario, bool) {
	raw := llm.ExtractJSON(reply)
	if raw == "" {
		return Scenario{}, false
	}
	var s Scenario
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Scenario{}, false
	}
	return s, true
}
