package decompose

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ShayCichocki/taskweave/internal/graph"
	"github.com/ShayCichocki/taskweave/pkg/models"
)

// ErrDecomposition matches every failure reported by Decompose.
var ErrDecomposition = errors.New("decomposition failed")

// CyclicDependencyError reports a template whose steps form a cycle.
type CyclicDependencyError struct {
	Template string
	Path     []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("template %s: cyclic dependency: %s", e.Template, strings.Join(e.Path, " -> "))
}

// Is matches ErrDecomposition.
func (e *CyclicDependencyError) Is(target error) bool { return target == ErrDecomposition }

// Unwrap exposes graph.ErrCycleDetected.
func (e *CyclicDependencyError) Unwrap() error { return graph.ErrCycleDetected }

// UnresolvableCapabilityError reports a subtask for which no available tool
// provides the required capability.
type UnresolvableCapabilityError struct {
	Template   string
	SubtaskID  string
	Operation  models.OperationType
	Capability models.Capability
}

func (e *UnresolvableCapabilityError) Error() string {
	return fmt.Sprintf("template %s: subtask %s: no available %s tool provides %s",
		e.Template, e.SubtaskID, e.Operation, e.Capability)
}

// Is matches ErrDecomposition.
func (e *UnresolvableCapabilityError) Is(target error) bool { return target == ErrDecomposition }

// InvalidTemplateError reports a structurally broken template.
type InvalidTemplateError struct {
	Template string
	Reason   string
}

func (e *InvalidTemplateError) Error() string {
	return fmt.Sprintf("template %s: %s", e.Template, e.Reason)
}

// Is matches ErrDecomposition.
func (e *InvalidTemplateError) Is(target error) bool { return target == ErrDecomposition }
