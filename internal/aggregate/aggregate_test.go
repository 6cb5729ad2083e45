package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/taskweave/internal/graph"
	"github.com/ShayCichocki/taskweave/pkg/models"
)

func chain(t *testing.T) *graph.DependencyGraph {
	t.Helper()
	g := graph.New()
	require.NoError(t, g.Build([]*models.Subtask{
		{ID: "locateFile", Title: "Locate file", Status: models.StatusSucceeded},
		{ID: "readFile", Title: "Read file", Status: models.StatusSucceeded,
			DependsOn: []models.Dependency{{ID: "locateFile"}}},
		{ID: "summarize", Title: "Summarize", Status: models.StatusSucceeded,
			DependsOn: []models.Dependency{{ID: "readFile"}}},
	}))
	return g
}

func TestAggregate_AllSucceeded(t *testing.T) {
	g := chain(t)
	results := []*models.Result{
		{SubtaskID: "locateFile", Payload: "app.py", Succeeded: true, Wave: 1},
		{SubtaskID: "readFile", Payload: "print('hi')", Succeeded: true, Wave: 2},
		{SubtaskID: "summarize", Payload: "prints hi", Succeeded: true, Wave: 3},
	}

	agg, err := Aggregate(results, nil, g)
	require.NoError(t, err)

	assert.True(t, agg.Succeeded)
	assert.False(t, agg.Partial)
	assert.Empty(t, agg.Errors)
	assert.Equal(t, "prints hi", agg.Payload.Primary)

	var ids []string
	for _, s := range agg.Payload.Sections {
		ids = append(ids, s.SubtaskID)
	}
	assert.Equal(t, []string{"summarize", "readFile", "locateFile"}, ids)
}

func TestAggregate_PartialKeepsEarlierResults(t *testing.T) {
	g := chain(t)
	g.GetSubtask("readFile").Status = models.StatusFailed
	g.GetSubtask("summarize").Status = models.StatusSkipped

	results := []*models.Result{
		{SubtaskID: "locateFile", Payload: "app.py", Succeeded: true, Wave: 1},
		{SubtaskID: "readFile", Succeeded: false, Wave: 2,
			Error: &models.ErrorRecord{SubtaskID: "readFile", Kind: models.KindRecoverable}},
	}
	records := []models.ErrorRecord{
		{SubtaskID: "locateFile", Kind: models.KindTransient, Attempt: 1},
		{SubtaskID: "readFile", Kind: models.KindRecoverable, Attempt: 1},
		{SubtaskID: "summarize", Kind: models.KindSkipped},
	}

	agg, err := Aggregate(results, records, g)
	require.NoError(t, err)

	assert.True(t, agg.Succeeded)
	assert.True(t, agg.Partial)
	assert.Equal(t, "app.py", agg.Payload.Primary)
	require.Len(t, agg.Errors, 2)
	assert.Equal(t, "readFile", agg.Errors[0].SubtaskID)
	assert.Equal(t, "summarize", agg.Errors[1].SubtaskID)

	sections := agg.Payload.Sections
	assert.Equal(t, models.StatusSkipped, sections[0].Status)
	assert.Equal(t, models.StatusFailed, sections[1].Status)
	assert.Equal(t, models.StatusSucceeded, sections[2].Status)
}

func TestAggregate_NothingSucceeded(t *testing.T) {
	g := chain(t)
	agg, err := Aggregate(nil, nil, g)
	require.NoError(t, err)
	assert.False(t, agg.Succeeded)
	assert.True(t, agg.Partial)
	assert.Nil(t, agg.Payload.Primary)
}

func TestAggregate_RejectsBadResults(t *testing.T) {
	g := chain(t)

	_, err := Aggregate([]*models.Result{{SubtaskID: "nope"}}, nil, g)
	assert.Error(t, err)

	_, err = Aggregate([]*models.Result{
		{SubtaskID: "readFile", Succeeded: true},
		{SubtaskID: "readFile", Succeeded: true},
	}, nil, g)
	assert.Error(t, err)

	_, err = Aggregate(nil, nil, nil)
	assert.Error(t, err)
}
