package cascade

import (
	"github.com/ShayCichocki/taskweave/internal/graph"
	"github.com/ShayCichocki/taskweave/pkg/models"
)

// Summary describes how a failure spread through a graph.
type Summary struct {
	// RootCause is the first terminal failure: recoverable or fatal, or
	// cancelled when nothing else failed. Transient records are retries.
	RootCause *models.ErrorRecord `json:"root_cause,omitempty"`
	// Path lists the subtasks skipped downstream of the root cause, in
	// record order.
	Path []string `json:"propagation_path,omitempty"`
}

// Summarize finds the root cause in records and the skipped subtasks that
// depend on it, directly or transitively. It returns nil when no subtask
// failed.
func Summarize(records []models.ErrorRecord, g *graph.DependencyGraph) *Summary {
	root := first(records, models.KindRecoverable, models.KindFatal)
	if root == nil {
		root = first(records, models.KindCancelled)
	}
	if root == nil {
		return nil
	}

	downstream := make(map[string]bool)
	queue := []string{root.SubtaskID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, dep := range g.GetDependents(id) {
			if !downstream[dep] {
				downstream[dep] = true
				queue = append(queue, dep)
			}
		}
	}

	s := &Summary{RootCause: root}
	seen := make(map[string]bool)
	for _, r := range records {
		if r.Kind == models.KindSkipped && downstream[r.SubtaskID] && !seen[r.SubtaskID] {
			seen[r.SubtaskID] = true
			s.Path = append(s.Path, r.SubtaskID)
		}
	}
	return s
}

func first(records []models.ErrorRecord, kinds ...models.ErrorKind) *models.ErrorRecord {
	for i := range records {
		for _, k := range kinds {
			if records[i].Kind == k {
				rec := records[i]
				return &rec
			}
		}
	}
	return nil
}
