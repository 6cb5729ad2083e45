// Package toolmatrix maps operation types to ranked candidate tools.
//
// The matrix is built once at startup and is safe for concurrent reads.
// Nothing in this package mutates a Matrix after New returns.
package toolmatrix

import (
	"fmt"
	"sort"

	"github.com/ShayCichocki/taskweave/pkg/models"
)

// Probe reports whether a tool is usable right now. Implementations must be
// side-effect free and fast; they run on the classification hot path.
type Probe interface {
	IsAvailable(tool *models.ToolDescriptor) bool
}

// ProbeFunc adapts a function to the Probe interface.
type ProbeFunc func(tool *models.ToolDescriptor) bool

// IsAvailable calls f.
func (f ProbeFunc) IsAvailable(tool *models.ToolDescriptor) bool { return f(tool) }

// StaticProbe marks a fixed set of tools as unavailable.
type StaticProbe struct {
	Disabled map[string]bool
}

// IsAvailable returns false for disabled tool names.
func (p StaticProbe) IsAvailable(tool *models.ToolDescriptor) bool {
	return !p.Disabled[tool.Name]
}

// Entry places a tool in an operation type's row.
type Entry struct {
	Tool string `yaml:"tool"`
	// Specificity ranks how closely the tool fits the operation; higher
	// values are preferred.
	Specificity int `yaml:"specificity"`
}

// Matrix is the tool selection matrix.
type Matrix struct {
	tools map[string]*models.ToolDescriptor
	names []string
	rows  map[models.OperationType][]Entry
	probe Probe
}

// Option configures a Matrix.
type Option func(*Matrix)

// WithProbe sets the capability probe. The default probe accepts every tool.
func WithProbe(p Probe) Option {
	return func(m *Matrix) {
		if p != nil {
			m.probe = p
		}
	}
}

// New builds a Matrix from descriptors and rows. It returns an error if a
// tool name repeats, a row names an unknown tool, or a row is keyed by an
// unknown operation type.
func New(tools []models.ToolDescriptor, rows map[models.OperationType][]Entry, opts ...Option) (*Matrix, error) {
	m := &Matrix{
		tools: make(map[string]*models.ToolDescriptor, len(tools)),
		rows:  make(map[models.OperationType][]Entry, len(rows)),
		probe: ProbeFunc(func(*models.ToolDescriptor) bool { return true }),
	}

	for i := range tools {
		t := tools[i]
		if t.Name == "" {
			return nil, fmt.Errorf("tool %d has no name", i)
		}
		if _, dup := m.tools[t.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", t.Name)
		}
		t.Capabilities = append([]models.Capability(nil), t.Capabilities...)
		m.tools[t.Name] = &t
		m.names = append(m.names, t.Name)
	}

	for op, entries := range rows {
		if !op.Valid() || op == models.OpAmbiguous {
			return nil, fmt.Errorf("unknown operation type %q", op)
		}
		for _, e := range entries {
			if _, ok := m.tools[e.Tool]; !ok {
				return nil, fmt.Errorf("operation %s references unknown tool %q", op, e.Tool)
			}
		}
		m.rows[op] = append([]Entry(nil), entries...)
	}

	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// SelectTools returns the available tools for an operation type, most
// specific first, then cheapest, then by name. It never fails: an empty
// result means no capability is available.
func (m *Matrix) SelectTools(op models.OperationType, params models.Params) []*models.ToolDescriptor {
	type ranked struct {
		tool        *models.ToolDescriptor
		specificity int
	}

	var candidates []ranked
	for _, e := range m.rows[op] {
		tool := m.tools[e.Tool]
		if !tool.IsAvailable(params) || !m.probe.IsAvailable(tool) {
			continue
		}
		candidates = append(candidates, ranked{tool: tool, specificity: e.Specificity})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.specificity != b.specificity {
			return a.specificity > b.specificity
		}
		if a.tool.Cost != b.tool.Cost {
			return a.tool.Cost < b.tool.Cost
		}
		return a.tool.Name < b.tool.Name
	})

	out := make([]*models.ToolDescriptor, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.tool)
	}
	return out
}

// SelectForCapability narrows SelectTools to tools providing c.
func (m *Matrix) SelectForCapability(op models.OperationType, c models.Capability, params models.Params) []*models.ToolDescriptor {
	var out []*models.ToolDescriptor
	for _, tool := range m.SelectTools(op, params) {
		if tool.Provides(c) {
			out = append(out, tool)
		}
	}
	return out
}

// Tool returns a descriptor by name.
func (m *Matrix) Tool(name string) (*models.ToolDescriptor, bool) {
	t, ok := m.tools[name]
	return t, ok
}

// Tools returns every descriptor in declaration order.
func (m *Matrix) Tools() []*models.ToolDescriptor {
	out := make([]*models.ToolDescriptor, 0, len(m.names))
	for _, name := range m.names {
		out = append(out, m.tools[name])
	}
	return out
}

// Row returns the declared entries for an operation type.
func (m *Matrix) Row(op models.OperationType) []Entry {
	return append([]Entry(nil), m.rows[op]...)
}
