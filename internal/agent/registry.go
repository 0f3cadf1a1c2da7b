package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/anthropics/anthropic-sdk-go"
)

// Handler runs a tool. The returned text is read back to the caller by the
// model. A non-nil error becomes an is_error tool result.
type Handler func(ctx context.Context, input json.RawMessage) (string, error)

// Tool is a function the model may call during a turn.
type Tool struct {
	Name        string
	Description string
	Schema      map[string]interface{}
	Handler     Handler
}

// Registry holds the tools available to one session.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry returns a registry containing tools in registration order.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds or replaces a tool.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// Get looks up a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names lists registered tools sorted by name.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	sort.Strings(names)
	return names
}

// Call runs the named tool.
func (r *Registry) Call(ctx context.Context, name string, input json.RawMessage) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", name)
	}
	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}
	return t.Handler(ctx, input)
}

// ToAPITools converts the registry into Messages API tool definitions.
func (r *Registry) ToAPITools() []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		schema := anthropic.ToolInputSchemaParam{Properties: t.Schema["properties"]}
		if req, ok := t.Schema["required"].([]string); ok {
			schema.Required = req
		}
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: schema,
			},
		})
	}
	return out
}

func decode(input json.RawMessage, v any) error {
	if err := json.Unmarshal(input, v); err != nil {
		return fmt.Errorf("invalid tool input: %w", err)
	}
	return nil
}
