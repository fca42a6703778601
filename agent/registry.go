package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/1316151417/agentcore/llm"
)

// Handler executes a capability with the model-supplied raw JSON arguments.
// A returned error is recovered by the loop as a textual error result, with
// one exception: model invocation faults bubbling out of a spawn handler
// carry their cause for the parent loop to classify.
type Handler func(ctx context.Context, args json.RawMessage) (string, error)

// Capability is a named, schema-carrying operation the loop can invoke on
// the model's behalf.
type Capability struct {
	Name        string
	Description string
	Parameters  map[string]interface{} // JSON schema for the arguments

	// ParentOnly capabilities (spawning, skill loading) are structurally
	// withheld from every sub-agent subset, which is what prevents
	// unbounded recursive spawning.
	ParentOnly bool

	Run Handler
}

// Definition returns the serializable descriptor sent to the model.
func (c *Capability) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{Name: c.Name, Description: c.Description, Parameters: c.Parameters}
}

// CapabilitySet selects capabilities by name, or all of them.
type CapabilitySet struct {
	All   bool
	Names []string
}

// AllCapabilities selects every capability available in the target context.
func AllCapabilities() CapabilitySet { return CapabilitySet{All: true} }

// CapabilityNames selects an explicit set of capability names.
func CapabilityNames(names ...string) CapabilitySet { return CapabilitySet{Names: names} }

func (s CapabilitySet) contains(name string) bool {
	for _, n := range s.Names {
		if n == name {
			return true
		}
	}
	return false
}

// Registry declares the available capabilities. Registration order is
// preserved in every subset. The registry is populated during session setup
// and read-only afterwards, so it is shared between parent and sub-agent
// loops without locking.
type Registry struct {
	order []string
	caps  map[string]*Capability
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{caps: make(map[string]*Capability)}
}

// Register adds a capability. Re-registering a name replaces the handler but
// keeps the original position.
func (r *Registry) Register(c Capability) {
	if _, exists := r.caps[c.Name]; !exists {
		r.order = append(r.order, c.Name)
	}
	stored := c
	r.caps[c.Name] = &stored
}

// Get returns the capability registered under name, or nil.
func (r *Registry) Get(name string) *Capability {
	return r.caps[name]
}

// Names returns all capability names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Subset returns the capabilities selected by set, preserving registration
// order. Unknown names in an explicit set are silently skipped.
func (r *Registry) Subset(set CapabilitySet) []*Capability {
	var out []*Capability
	for _, name := range r.order {
		if set.All || set.contains(name) {
			out = append(out, r.caps[name])
		}
	}
	return out
}

// SubagentSubset is Subset with every ParentOnly capability removed,
// regardless of what the set asks for. Sub-agent loops resolve invocations
// against this slice only, so a spawn capability literally does not exist in
// their context.
func (r *Registry) SubagentSubset(set CapabilitySet) []*Capability {
	var out []*Capability
	for _, c := range r.Subset(set) {
		if c.ParentOnly {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Argument helpers shared by capability handlers.

// ParseArguments unmarshals raw invocation arguments into a map.
func ParseArguments(raw json.RawMessage) (map[string]interface{}, error) {
	var args map[string]interface{}
	if len(raw) == 0 {
		return map[string]interface{}{}, nil
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return args, nil
}

// StringArg extracts a string argument.
func StringArg(args map[string]interface{}, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// IntArg extracts an integer argument.
func IntArg(args map[string]interface{}, key string) (int, bool) {
	v, ok := args[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}
