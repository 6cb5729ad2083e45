package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/taskweave/pkg/models"
)

func st(id string, deps ...string) *models.Subtask {
	s := &models.Subtask{ID: id, Title: id, Status: models.StatusPending}
	for _, d := range deps {
		s.DependsOn = append(s.DependsOn, models.Dependency{ID: d})
	}
	return s
}

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.Equal(t, 0, g.Size())
}

func TestBuildWithDependencies(t *testing.T) {
	g := New()
	err := g.Build([]*models.Subtask{
		st("task-1"),
		st("task-2", "task-1"),
		st("task-3", "task-1", "task-2"),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, g.Size())
	assert.Len(t, g.GetDependencies("task-3"), 2)
	assert.ElementsMatch(t, []string{"task-2", "task-3"}, g.GetDependents("task-1"))
}

func TestBuildUnknownDependency(t *testing.T) {
	g := New()
	err := g.Build([]*models.Subtask{st("task-1", "missing")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown subtask missing")
	assert.Equal(t, 0, g.Size(), "failed build must not leave a partial graph")
}

func TestBuildDuplicateID(t *testing.T) {
	g := New()
	err := g.Build([]*models.Subtask{st("a"), st("a")})
	require.Error(t, err)
}

func TestCycleDetection(t *testing.T) {
	tests := []struct {
		name     string
		subtasks []*models.Subtask
	}{
		{"self loop", []*models.Subtask{st("a", "a")}},
		{"direct", []*models.Subtask{st("a", "b"), st("b", "a")}},
		{"indirect", []*models.Subtask{st("a", "c"), st("b", "a"), st("c", "b")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			err := g.Build(tt.subtasks)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCycleDetected))

			var ce *CycleError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, ce.Path[0], ce.Path[len(ce.Path)-1])
		})
	}
}

func TestTopologicalSort(t *testing.T) {
	g := New()
	require.NoError(t, g.Build([]*models.Subtask{
		st("summarize", "read"),
		st("read", "locate"),
		st("locate"),
	}))

	order, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"locate", "read", "summarize"}, order)
}

func TestLevelsDiamond(t *testing.T) {
	g := New()
	require.NoError(t, g.Build([]*models.Subtask{
		st("plan"),
		st("research", "plan"),
		st("implement", "plan"),
		st("review", "research", "implement"),
	}))

	levels := g.Levels()
	require.Len(t, levels, 3)
	assert.Equal(t, []string{"plan"}, levels[0])
	assert.Equal(t, []string{"implement", "research"}, levels[1])
	assert.Equal(t, []string{"review"}, levels[2])
	assert.Equal(t, 2, g.Depth("review"))
}

func TestLevelsRespectDependencies(t *testing.T) {
	g := New()
	require.NoError(t, g.Build([]*models.Subtask{
		st("a"),
		st("b", "a"),
		st("c"),
		st("d", "b", "c"),
		st("e", "a"),
		st("f", "d", "e"),
	}))

	levelOf := make(map[string]int)
	for i, level := range g.Levels() {
		for _, id := range level {
			levelOf[id] = i
		}
	}
	for _, s := range g.Subtasks() {
		for _, dep := range s.DependencyIDs() {
			assert.Less(t, levelOf[dep], levelOf[s.ID], "%s must come after %s", s.ID, dep)
		}
	}
}

func TestSinks(t *testing.T) {
	g := New()
	require.NoError(t, g.Build([]*models.Subtask{
		st("a"),
		st("b", "a"),
		st("c", "a"),
	}))
	assert.Equal(t, []string{"b", "c"}, g.Sinks())
}
