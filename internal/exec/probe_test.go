package exec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ShayCichocki/taskweave/internal/toolmatrix"
	"github.com/ShayCichocki/taskweave/pkg/models"
)

func fakeLookPath(found ...string) LookPathFunc {
	ok := make(map[string]bool)
	for _, f := range found {
		ok[f] = true
	}
	return func(file string) (string, error) {
		if ok[file] {
			return "/usr/bin/" + file, nil
		}
		return "", errors.New("executable file not found in $PATH")
	}
}

func TestPathProbe(t *testing.T) {
	lookups := 0
	look := fakeLookPath("bash", "rm")
	p := NewPathProbe(DefaultBinaries, func(file string) (string, error) {
		lookups++
		return look(file)
	})

	assert.Equal(t, len(DefaultBinaries), lookups)
	assert.True(t, p.IsAvailable(&models.ToolDescriptor{Name: "bash"}))
	assert.False(t, p.IsAvailable(&models.ToolDescriptor{Name: "git"}))
	assert.True(t, p.IsAvailable(&models.ToolDescriptor{Name: "read"}))
	assert.Equal(t, []string{"git"}, p.Missing())
	assert.Equal(t, len(DefaultBinaries), lookups, "IsAvailable must not look up again")

	bin, ok := p.Binary("git")
	assert.True(t, ok)
	assert.Equal(t, "git", bin)
}

func TestPathProbe_GatesMatrix(t *testing.T) {
	noEnv := func(string) (string, bool) { return "", false }
	m := toolmatrix.Default(noEnv, toolmatrix.WithProbe(NewPathProbe(DefaultBinaries, fakeLookPath("bash", "rm"))))

	tools := m.SelectForCapability(models.OpGit, models.CapGitInspect, nil)
	for _, tool := range tools {
		assert.NotEqual(t, "git", tool.Name)
	}
}
