package models

// Capability is an abstract ability a Subtask requires and a tool provides.
type Capability string

const (
	CapFileLocate    Capability = "file.locate"
	CapFileRead      Capability = "file.read"
	CapFileWrite     Capability = "file.write"
	CapFileDelete    Capability = "file.delete"
	CapCodePlan      Capability = "code.plan"
	CapCodeGenerate  Capability = "code.generate"
	CapCodeValidate  Capability = "code.validate"
	CapCodeAnalyze   Capability = "code.analyze"
	CapGitInspect    Capability = "git.inspect"
	CapGitMutate     Capability = "git.mutate"
	CapSearchName    Capability = "search.name"
	CapSearchContent Capability = "search.content"
	CapSearchRank    Capability = "search.rank"
	CapShellExec     Capability = "shell.exec"
	CapTextSummarize Capability = "text.summarize"
	CapTaskPlan      Capability = "task.plan"
	CapWebSearch     Capability = "web.search"
)

// AvailabilityFunc decides whether a tool can serve a request with the
// given parameters. It must be side-effect free.
type AvailabilityFunc func(params Params) bool

// ToolDescriptor describes one tool. Descriptors are loaded at startup and
// only read afterwards.
type ToolDescriptor struct {
	// Name is the unique tool name.
	Name string `json:"name" yaml:"name"`
	// Category groups related tools, e.g. "file_operations".
	Category string `json:"category" yaml:"category"`
	// Capabilities are the abilities this tool satisfies.
	Capabilities []Capability `json:"capabilities" yaml:"capabilities"`
	// Cost is an ordinal; lower is cheaper.
	Cost int `json:"cost" yaml:"cost"`
	// Destructive marks tools that can delete or overwrite data.
	Destructive bool `json:"destructive,omitempty" yaml:"destructive"`
	// Available is the availability predicate. Nil means always available.
	Available AvailabilityFunc `json:"-" yaml:"-"`
}

// Provides reports whether the tool satisfies capability c.
func (t *ToolDescriptor) Provides(c Capability) bool {
	for _, have := range t.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// IsAvailable evaluates the availability predicate.
func (t *ToolDescriptor) IsAvailable(params Params) bool {
	if t.Available == nil {
		return true
	}
	return t.Available(params)
}
