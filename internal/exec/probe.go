// Package exec checks which executable-backed tools the host can run.
package exec

import (
	"os/exec"
	"sort"

	"github.com/ShayCichocki/taskweave/pkg/models"
)

// LookPathFunc resolves an executable name, like exec.LookPath.
type LookPathFunc func(file string) (string, error)

// DefaultBinaries maps built-in tools to the executable they shell out to.
var DefaultBinaries = map[string]string{
	"bash": "bash",
	"git":  "git",
	"rm":   "rm",
}

// PathProbe reports a tool unavailable when its executable is not on PATH.
// Lookups happen once in NewPathProbe, so IsAvailable never touches the
// filesystem. Tools without a mapped executable are always available.
type PathProbe struct {
	binaries map[string]string
	missing  map[string]bool
}

// NewPathProbe resolves every executable in binaries. A nil lookPath uses
// exec.LookPath.
func NewPathProbe(binaries map[string]string, lookPath LookPathFunc) *PathProbe {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	p := &PathProbe{
		binaries: make(map[string]string, len(binaries)),
		missing:  make(map[string]bool),
	}
	for tool, bin := range binaries {
		p.binaries[tool] = bin
		if _, err := lookPath(bin); err != nil {
			p.missing[tool] = true
		}
	}
	return p
}

// IsAvailable implements toolmatrix.Probe.
func (p *PathProbe) IsAvailable(tool *models.ToolDescriptor) bool {
	return !p.missing[tool.Name]
}

// Missing lists tools whose executable was not found, sorted.
func (p *PathProbe) Missing() []string {
	out := make([]string, 0, len(p.missing))
	for tool := range p.missing {
		out = append(out, tool)
	}
	sort.Strings(out)
	return out
}

// Binary returns the executable mapped to tool.
func (p *PathProbe) Binary(tool string) (string, bool) {
	bin, ok := p.binaries[tool]
	return bin, ok
}
