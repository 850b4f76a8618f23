// Package cache implements the Cache capability from spec §4.5: keyed
// get/put with TTL for per-phase agent responses and full workflow
// results. Cache errors never fail the workflow — the methods return no
// error; an implementation that hits a backend error logs it and reports a
// miss (hit == false) instead.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// WorkflowKey canonicalizes (topic, context, optionsKey) into a stable hash.
// Transient fields (timeouts, verbosity) must already be excluded from
// optionsKey by the caller (spec §9 "Cache keying").
func WorkflowKey(topic, context, optionsKey string) string {
	return hashParts("workflow", topic, context, optionsKey)
}

// AgentKey canonicalizes (agent, promptKey) into a stable hash.
func AgentKey(agent, promptKey string) string {
	return hashParts("agent", agent, promptKey)
}

func hashParts(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Cache is the capability the orchestrator consumes for both workflow-level
// and agent-level caching.
type Cache interface {
	GetWorkflow(topic, context, optionsKey string) (result []byte, hit bool)
	PutWorkflow(topic, context, optionsKey string, result []byte, ttl time.Duration)
	GetAgent(agent, promptKey string) (text string, hit bool)
	PutAgent(agent, promptKey, text string, ttl time.Duration)
	Invalidate(pattern string)
	Clear()
}

// MarshalWorkflowResult is a small helper so orchestrator code and tests
// agree on how a cached workflow payload is encoded.
func MarshalWorkflowResult(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// UnmarshalWorkflowResult is the counterpart to MarshalWorkflowResult.
func UnmarshalWorkflowResult(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
