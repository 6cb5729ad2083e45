package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		check func(t *testing.T, p map[string]any)
	}{
		{
			name: "file paths and extensions",
			text: "compare internal/config/config.go with README.md",
			check: func(t *testing.T, p map[string]any) {
				assert.Equal(t, []string{"internal/config/config.go", "README.md"}, p[ParamFilePaths])
				assert.Equal(t, []string{".go", ".md"}, p[ParamExtensions])
			},
		},
		{
			name: "directory path",
			text: "list everything in ./cmd/ please",
			check: func(t *testing.T, p map[string]any) {
				assert.Equal(t, []string{"./cmd/"}, p[ParamDirectoryPaths])
			},
		},
		{
			name: "quoted query",
			text: `search for "retry budget" in the code`,
			check: func(t *testing.T, p map[string]any) {
				assert.Equal(t, "retry budget", p[ParamQuery])
				assert.Equal(t, "search", p[ParamCommand])
			},
		},
		{
			name: "destructive flag",
			text: "git reset --hard origin/main",
			check: func(t *testing.T, p map[string]any) {
				assert.Equal(t, true, p[ParamDestructive])
			},
		},
		{
			name: "nothing extracted",
			text: "hello",
			check: func(t *testing.T, p map[string]any) {
				assert.Empty(t, p)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Extract(tt.text))
		})
	}
}
