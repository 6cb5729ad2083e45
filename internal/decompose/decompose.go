// Package decompose expands an Intent into a dependency graph of subtasks.
package decompose

import (
	"errors"

	"go.uber.org/zap"

	"github.com/ShayCichocki/taskweave/internal/graph"
	"github.com/ShayCichocki/taskweave/internal/toolmatrix"
	"github.com/ShayCichocki/taskweave/pkg/models"
)

// Decomposer builds dependency graphs from fixed per-operation templates.
// Edges come only from the steps' declared dependencies.
type Decomposer struct {
	matrix    *toolmatrix.Matrix
	templates map[string]Template
	logger    *zap.Logger
}

// Option configures a Decomposer.
type Option func(*Decomposer)

// WithTemplate adds a template or replaces the built-in one with the same
// operation type and variant.
func WithTemplate(t Template) Option {
	return func(d *Decomposer) {
		d.templates[t.Name()] = t
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Decomposer) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a Decomposer that resolves capabilities against matrix.
func New(matrix *toolmatrix.Matrix, opts ...Option) *Decomposer {
	d := &Decomposer{
		matrix:    matrix,
		templates: make(map[string]Template),
		logger:    zap.NewNop(),
	}
	for _, t := range DefaultTemplates() {
		d.templates[t.Name()] = t
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// TemplateFor returns the template chosen for intent.
func (d *Decomposer) TemplateFor(intent models.Intent) (Template, error) {
	name := string(intent.Operation) + "/" + Variant(intent)
	t, ok := d.templates[name]
	if !ok {
		return Template{}, &InvalidTemplateError{Template: name, Reason: "no template for operation"}
	}
	return t, nil
}

// Decompose builds the dependency graph for intent. It fails with a
// *CyclicDependencyError when the template's edges form a cycle and with an
// *UnresolvableCapabilityError when some step has no available tool. Both
// match ErrDecomposition. Nothing is returned on failure.
func (d *Decomposer) Decompose(intent models.Intent) (*graph.DependencyGraph, error) {
	t, err := d.TemplateFor(intent)
	if err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	subtasks := make([]*models.Subtask, 0, len(t.Steps))
	for _, s := range t.Steps {
		subtasks = append(subtasks, &models.Subtask{
			ID:         s.ID,
			Title:      s.Title,
			Role:       s.Role,
			Capability: s.Capability,
			DependsOn:  append([]models.Dependency(nil), s.DependsOn...),
			Status:     models.StatusPending,
		})
	}

	g := graph.New()
	if err := g.Build(subtasks); err != nil {
		var cycle *graph.CycleError
		if errors.As(err, &cycle) {
			return nil, &CyclicDependencyError{Template: t.Name(), Path: cycle.Path}
		}
		return nil, &InvalidTemplateError{Template: t.Name(), Reason: err.Error()}
	}

	for _, st := range subtasks {
		tools := d.matrix.SelectForCapability(intent.Operation, st.Capability, intent.Parameters)
		if len(tools) == 0 {
			return nil, &UnresolvableCapabilityError{
				Template:   t.Name(),
				SubtaskID:  st.ID,
				Operation:  intent.Operation,
				Capability: st.Capability,
			}
		}
		for _, tool := range tools {
			st.Tools = append(st.Tools, tool.Name)
		}
	}

	d.logger.Debug("decomposed intent",
		zap.String("template", t.Name()),
		zap.Int("subtasks", g.Size()),
	)
	return g, nil
}
