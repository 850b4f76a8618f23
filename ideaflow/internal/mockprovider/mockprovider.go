// Package mockprovider implements a deterministic ai.ModelProvider test
// double, grounded on the seeded scenarios in spec §8: no network, no
// randomness, scriptable per-call responses and one fixed latency applied
// to every call.
package mockprovider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/madspark-go/ideaflow/ai"
)

// Responder produces one Generate response for a given call index (the
// n-th call this provider has received, 0-based).
type Responder func(callIndex int, prompt string) (text string, err error)

// Provider is a scripted ai.ModelProvider. Responses default to Sequence
// if set, otherwise fall through to Default.
type Provider struct {
	mu       sync.Mutex
	calls    []string
	Sequence []Responder
	Default  Responder
	Delay    time.Duration
}

// New builds a provider that returns responses in order from sequence; any
// call beyond len(sequence) uses a generic fallback JSON array.
func New(sequence ...Responder) *Provider {
	return &Provider{Sequence: sequence}
}

func (p *Provider) Generate(ctx context.Context, prompt string, opts ai.Options) (string, int, error) {
	p.mu.Lock()
	idx := len(p.calls)
	p.calls = append(p.calls, prompt)
	p.mu.Unlock()

	if p.Delay > 0 {
		select {
		case <-time.After(p.Delay):
		case <-ctx.Done():
			return "", 0, ctx.Err()
		}
	}

	var r Responder
	if idx < len(p.Sequence) {
		r = p.Sequence[idx]
	} else {
		r = p.Default
	}
	if r == nil {
		return "[]", 0, nil
	}
	text, err := r(idx, prompt)
	return text, len(text) / 4, err
}

// Calls returns every prompt this provider has received, in order.
func (p *Provider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.calls))
	copy(out, p.calls)
	return out
}

// CallCount reports how many Generate calls have been made so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// Fixed returns a Responder that always returns the same text.
func Fixed(text string) Responder {
	return func(int, string) (string, error) { return text, nil }
}

// Failing returns a Responder that always fails.
func Failing(err error) Responder {
	return func(int, string) (string, error) { return "", err }
}

// NIdeasJSON builds a GenerateIdeas-shaped JSON array response with n
// distinct titled ideas.
func NIdeasJSON(n int, titlePrefix string) string {
	out := "["
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"idea_number":%d,"title":%q,"description":"a distinct approach","key_features":["a","b"]}`, i+1, fmt.Sprintf("%s %d", titlePrefix, i+1))
	}
	return out + "]"
}

// NScoresJSON builds an EvaluateBatch-shaped JSON array with n records, all
// sharing the same score/comment.
func NScoresJSON(n int, score float64, comment string) string {
	out := "["
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"score":%v,"comment":%q}`, score, comment)
	}
	return out + "]"
}

// NFormattedJSON builds an Advocate/Skeptic-shaped JSON array with n
// records sharing the same "formatted" text.
func NFormattedJSON(n int, text string) string {
	out := "["
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"formatted":%q}`, text)
	}
	return out + "]"
}

var _ ai.ModelProvider = (*Provider)(nil)
