package agent

import "github.com/agentweave/agentweave/core"

// Provider supplies dynamic instruction text at runtime, derived from
// session state or any external source.
type Provider interface {
	Instruction(*core.RunContext) (string, error)
}

// Func adapts an ordinary function to the Provider interface.
type Func func(*core.RunContext) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(runCtx *core.RunContext) (string, error) { return f(runCtx) }

// Instruction is either a static instruction string or a dynamic provider,
// mirroring a string|provider union in a Go-idiomatic way.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(*core.RunContext) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic reports whether the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(runCtx *core.RunContext) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(runCtx)
	}
	return i.text, nil
}
