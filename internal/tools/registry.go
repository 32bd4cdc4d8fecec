package tools

import (
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	apperrors "github.com/gmsas95/agentcord/internal/errors"
	"github.com/gmsas95/agentcord/internal/llm"
)

type entry struct {
	tool   Tool
	schema *jsonschema.Schema
}

// Registry holds the global capability set. It is built once at process
// start and treated as immutable afterwards; registration order is the
// order capabilities are presented to the model.
type Registry struct {
	entries []entry
	names   map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// Register adds a tool, compiling its input schema. A schema that does not
// compile or a duplicate name is a programmer error surfaced at startup.
func (r *Registry) Register(t Tool) error {
	if _, dup := r.names[t.Name()]; dup {
		return apperrors.New("TOOL_004", "tool name already registered: "+t.Name())
	}

	schema, err := compileSchema(t.Schema())
	if err != nil {
		return apperrors.Wrap(err, "TOOL_003", "schema for "+t.Name()+" does not compile")
	}

	r.entries = append(r.entries, entry{tool: t, schema: schema})
	r.names[t.Name()] = struct{}{}
	return nil
}

// MustRegister panics on registration failure; used during startup wiring
// where a bad tool definition should kill the process.
func (r *Registry) MustRegister(t Tool) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.tool)
	}
	return out
}

// Resolve filters the registry through each tool's usability predicate.
// It returns nil when nothing is usable: the loop must then omit tool
// declarations entirely, since some backends treat an empty tool list
// differently from absent tools.
func (r *Registry) Resolve(tc *Context) *Toolset {
	var usable []entry
	for _, e := range r.entries {
		if e.tool.CanUse(tc) {
			usable = append(usable, e)
		}
	}
	if len(usable) == 0 {
		return nil
	}
	return &Toolset{entries: usable, Context: tc}
}

// Toolset is the context-filtered capability set for one run.
type Toolset struct {
	entries []entry
	Context *Context
}

// Len returns the number of usable tools.
func (ts *Toolset) Len() int {
	return len(ts.entries)
}

// Lookup finds a tool by exact name.
func (ts *Toolset) Lookup(name string) (Tool, bool) {
	for _, e := range ts.entries {
		if e.tool.Name() == name {
			return e.tool, true
		}
	}
	return nil, false
}

// Validate checks parsed arguments against the named tool's input schema.
func (ts *Toolset) Validate(name string, args map[string]any) error {
	for _, e := range ts.entries {
		if e.tool.Name() == name {
			if err := e.schema.Validate(any(args)); err != nil {
				return apperrors.Wrap(err, "TOOL_002", "arguments for "+name+" failed validation")
			}
			return nil
		}
	}
	return apperrors.New("TOOL_001", "tool not found: "+name)
}

// Declarations renders the toolset for the inference endpoint.
func (ts *Toolset) Declarations() []llm.Tool {
	out := make([]llm.Tool, 0, len(ts.entries))
	for _, e := range ts.entries {
		out = append(out, Declaration(e.tool))
	}
	return out
}

func compileSchema(doc map[string]any) (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("mem://tool.json", normalizeSchemaDoc(doc)); err != nil {
		return nil, err
	}
	return c.Compile("mem://tool.json")
}

// normalizeSchemaDoc rewrites Go-typed schema literals (ints, nested maps)
// into the generic shape the compiler expects from parsed JSON.
func normalizeSchemaDoc(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeSchemaDoc(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeSchemaDoc(val)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = val
		}
		return out
	case int:
		return float64(t)
	case int64:
		return float64(t)
	default:
		return v
	}
}
