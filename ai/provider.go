// Package ai defines the ModelProvider capability the orchestrator consumes
// (spec §4.1): a single synchronous-from-the-caller's-view Generate call.
// Concrete adapters (httpprovider, bedrockprovider) live in subpackages so
// this package stays free of any transport dependency.
package ai

import "context"

// Options configures one Generate call.
type Options struct {
	Temperature       float32
	ResponseSchema    string // optional hint describing the expected JSON shape
	SystemInstruction string
	MaxTokens         int
}

// ModelProvider sends a prompt to a language model and returns its text
// response and the token count consumed. Implementations are free to be
// blocking I/O; the core only ever calls Generate inside a context carrying
// a deadline and behind a bounded semaphore (spec §5). No streaming:
// partial output is never exposed to the core.
type ModelProvider interface {
	Generate(ctx context.Context, prompt string, opts Options) (text string, tokens int, err error)
}

// ProviderInfo is optional diagnostic metadata a provider may expose beyond
// the minimal ModelProvider contract.
type ProviderInfo struct {
	Name   string
	Model  string
	Region string
}

// InfoProvider is implemented by adapters that can describe themselves. It
// is diagnostic metadata only; the orchestrator does not call it.
type InfoProvider interface {
	Info() ProviderInfo
}
