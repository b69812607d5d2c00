package sim

import (
	"context"

	"github.com/c360studio/prodtrap/llm"
)

// Prompt is one oracle consultation: system instructions plus user content.
type Prompt struct {
	// Capability selects the model class for this consultation.
	Capability string

	// System carries the instruction contract.
	System string

	// User carries the content under judgment.
	User string

	// Temperature overrides the endpoint default when non-nil.
	Temperature *float64
}

// Oracle is the narrow contract to the external judgment service: given a
// rubric and content, it returns a text verdict. No structure is guaranteed
// beyond the reply being text; callers parse permissively. An error return
// means the call itself failed (transport), not that the reply was
// unparseable.
type Oracle interface {
	Evaluate(ctx context.Context, p Prompt) (string, error)
}

// LLMOracle adapts the llm client to the Oracle contract.
type LLMOracle struct {
	client llm.Completer
}

// NewLLMOracle creates an oracle backed by an LLM completer.
func NewLLMOracle(client llm.Completer) *LLMOracle {
	return &LLMOracle{client: client}
}

// Evaluate submits the prompt as a system+user chat completion and returns
// the raw reply text.
func (o *LLMOracle) Evaluate(ctx context.Context, p Prompt) (string, error) {
	resp, err := o.client.Complete(ctx, llm.Request{
		Capability: p.Capability,
		Messages: []llm.Message{
			{Role: "system", Content: p.System},
			{Role: "user", Content: p.User},
		},
		Temperature: p.Temperature,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// temp returns a pointer to a temperature value.
func temp(v float64) *float64 {
	return &v
}
