// Package tools implements the agent's tool surface for the iterative
// loop: fetching more CRM data, searching the catalog, creating lists,
// and analyzing what has been accumulated so far.
package tools

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/user/creatordesk/internal/creatoriq"
	"github.com/user/creatordesk/internal/types"
	"github.com/user/creatordesk/pkg/llm"
)

// Tool defines the interface for an executable tool. Execute returns a
// string for the model; operational failures are encoded into that
// string rather than returned as errors, so the model can react to them.
type Tool interface {
	Name() string
	Description() string
	Parameters() json.RawMessage
	Execute(ctx context.Context, args json.RawMessage) (string, error)
}

// Registry holds registered tools and provides lookup.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool to the registry.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns registered tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// AsLLMTools converts registered tools to the LLM provider format.
func (r *Registry) AsLLMTools() []llm.Tool {
	out := make([]llm.Tool, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		out = append(out, llm.Tool{
			Type: "function",
			Function: llm.Function{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return out
}

// Workspace is the dataset accumulated over one agent run. Every tool
// that touches the CRM appends its results here, and the context
// builder reads it back each iteration.
type Workspace struct {
	mu      sync.Mutex
	results []types.EndpointResult
}

func NewWorkspace(initial []types.EndpointResult) *Workspace {
	w := &Workspace{}
	w.results = append(w.results, initial...)
	return w
}

func (w *Workspace) Add(results ...types.EndpointResult) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.results = append(w.results, results...)
}

func (w *Workspace) Results() []types.EndpointResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]types.EndpointResult(nil), w.results...)
}

// Entities extracts the entity view of everything accumulated so far.
func (w *Workspace) Entities() *types.PreviousState {
	return creatoriq.ExtractEntities(w.Results())
}

// toolPayload encodes a tool outcome for the model. Failures ride in
// the same shape so the loop never aborts on a bad tool call.
func toolPayload(v map[string]any) string {
	encoded, err := json.Marshal(v)
	if err != nil {
		return `{"success":false,"error":"result could not be encoded"}`
	}
	return string(encoded)
}

func toolFailure(message string) string {
	return toolPayload(map[string]any{"success": false, "error": message})
}

func intOf(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
