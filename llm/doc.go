// Package llm is the model invocation collaborator for the orchestration
// core. It defines a small provider-agnostic request/response contract and a
// gollm-backed client implementation.
//
// The orchestration loop only depends on the Client interface; everything
// else in this package (gollm adapter, retry wrapper, error taxonomy) is
// plumbing to satisfy that contract against hosted completion services.
package llm
