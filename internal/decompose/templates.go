package decompose

import (
	"fmt"

	"github.com/ShayCichocki/taskweave/pkg/models"
)

// Step declares one subtask of a template. DependsOn lists the steps whose
// output this step consumes.
type Step struct {
	ID         string
	Title      string
	Role       models.AgentRole
	Capability models.Capability
	DependsOn  []models.Dependency
}

// Template is a fixed graph shape for one operation type and variant.
type Template struct {
	Op      models.OperationType
	Variant string
	Steps   []Step
}

// Name returns "<op>/<variant>".
func (t Template) Name() string {
	return string(t.Op) + "/" + t.Variant
}

// Validate checks the per-step fields. Edges are checked when the graph is
// built.
func (t Template) Validate() error {
	if len(t.Steps) == 0 {
		return &InvalidTemplateError{Template: t.Name(), Reason: "no steps"}
	}
	for _, s := range t.Steps {
		switch {
		case s.ID == "":
			return &InvalidTemplateError{Template: t.Name(), Reason: "step with empty id"}
		case s.Role == "":
			return &InvalidTemplateError{Template: t.Name(), Reason: fmt.Sprintf("step %s has no agent role", s.ID)}
		case s.Capability == "":
			return &InvalidTemplateError{Template: t.Name(), Reason: fmt.Sprintf("step %s has no capability", s.ID)}
		}
	}
	return nil
}

func dep(id string) models.Dependency { return models.Dependency{ID: id} }

func optional(id string) models.Dependency { return models.Dependency{ID: id, Optional: true} }

// DefaultTemplates returns the built-in templates.
func DefaultTemplates() []Template {
	return []Template{
		{Op: models.OpFile, Variant: VariantRead, Steps: []Step{
			{ID: "locateFile", Title: "Locate file", Role: models.RoleFileReader, Capability: models.CapFileLocate},
			{ID: "readFile", Title: "Read file", Role: models.RoleFileReader, Capability: models.CapFileRead,
				DependsOn: []models.Dependency{dep("locateFile")}},
			{ID: "summarize", Title: "Summarize contents", Role: models.RoleReportWriter, Capability: models.CapTextSummarize,
				DependsOn: []models.Dependency{dep("readFile")}},
		}},
		{Op: models.OpFile, Variant: VariantWrite, Steps: []Step{
			{ID: "plan", Title: "Plan change", Role: models.RolePlanner, Capability: models.CapTaskPlan},
			{ID: "writeFile", Title: "Write file", Role: models.RoleCodeWriter, Capability: models.CapFileWrite,
				DependsOn: []models.Dependency{dep("plan")}},
			{ID: "verify", Title: "Read back and verify", Role: models.RoleFileReader, Capability: models.CapFileRead,
				DependsOn: []models.Dependency{dep("writeFile")}},
		}},
		{Op: models.OpFile, Variant: VariantDelete, Steps: []Step{
			{ID: "locateFile", Title: "Locate targets", Role: models.RoleFileReader, Capability: models.CapFileLocate},
			{ID: "deleteFile", Title: "Delete targets", Role: models.RoleTerminalOperator, Capability: models.CapFileDelete,
				DependsOn: []models.Dependency{dep("locateFile")}},
		}},
		{Op: models.OpCode, Variant: VariantChange, Steps: []Step{
			{ID: "plan", Title: "Plan change", Role: models.RolePlanner, Capability: models.CapCodePlan},
			{ID: "generate", Title: "Generate code", Role: models.RoleCodeWriter, Capability: models.CapCodeGenerate,
				DependsOn: []models.Dependency{dep("plan")}},
			{ID: "validate", Title: "Validate code", Role: models.RoleReviewer, Capability: models.CapCodeValidate,
				DependsOn: []models.Dependency{dep("generate")}},
			{ID: "apply", Title: "Apply change", Role: models.RoleCodeWriter, Capability: models.CapFileWrite,
				DependsOn: []models.Dependency{dep("generate"), dep("validate")}},
		}},
		{Op: models.OpGit, Variant: VariantInspect, Steps: []Step{
			{ID: "inspectRepo", Title: "Inspect repository", Role: models.RoleGitOperator, Capability: models.CapGitInspect},
			{ID: "report", Title: "Report repository state", Role: models.RoleReportWriter, Capability: models.CapTextSummarize,
				DependsOn: []models.Dependency{dep("inspectRepo")}},
		}},
		{Op: models.OpGit, Variant: VariantMutate, Steps: []Step{
			{ID: "inspectRepo", Title: "Inspect repository", Role: models.RoleGitOperator, Capability: models.CapGitInspect},
			{ID: "runGit", Title: "Run git command", Role: models.RoleGitOperator, Capability: models.CapGitMutate,
				DependsOn: []models.Dependency{dep("inspectRepo")}},
			{ID: "report", Title: "Report result", Role: models.RoleReportWriter, Capability: models.CapTextSummarize,
				DependsOn: []models.Dependency{dep("runGit")}},
		}},
		{Op: models.OpSearch, Variant: VariantContent, Steps: []Step{
			{ID: "locateCandidates", Title: "Search file contents", Role: models.RoleSearcher, Capability: models.CapSearchContent},
			{ID: "rankFilter", Title: "Rank and filter matches", Role: models.RoleSearcher, Capability: models.CapSearchRank,
				DependsOn: []models.Dependency{dep("locateCandidates")}},
			{ID: "summarize", Title: "Summarize findings", Role: models.RoleReportWriter, Capability: models.CapTextSummarize,
				DependsOn: []models.Dependency{dep("rankFilter")}},
		}},
		{Op: models.OpSearch, Variant: VariantName, Steps: []Step{
			{ID: "locateCandidates", Title: "Match file names", Role: models.RoleSearcher, Capability: models.CapSearchName},
			{ID: "rankFilter", Title: "Rank and filter matches", Role: models.RoleSearcher, Capability: models.CapSearchRank,
				DependsOn: []models.Dependency{dep("locateCandidates")}},
			{ID: "summarize", Title: "Summarize findings", Role: models.RoleReportWriter, Capability: models.CapTextSummarize,
				DependsOn: []models.Dependency{dep("rankFilter")}},
		}},
		terminalTemplate(VariantRun, "Execute command"),
		terminalTemplate(VariantInstall, "Install packages"),
		terminalTemplate(VariantTest, "Run test suite"),
		{Op: models.OpOrchestration, Variant: VariantWorkflow, Steps: []Step{
			{ID: "plan", Title: "Plan workflow", Role: models.RolePlanner, Capability: models.CapTaskPlan},
			{ID: "research", Title: "Research context", Role: models.RoleSearcher, Capability: models.CapSearchContent,
				DependsOn: []models.Dependency{dep("plan")}},
			{ID: "implement", Title: "Implement steps", Role: models.RoleCodeWriter, Capability: models.CapCodeGenerate,
				DependsOn: []models.Dependency{dep("plan")}},
			{ID: "review", Title: "Review work", Role: models.RoleReviewer, Capability: models.CapCodeValidate,
				DependsOn: []models.Dependency{optional("research"), dep("implement")}},
			{ID: "report", Title: "Report outcome", Role: models.RoleReportWriter, Capability: models.CapTextSummarize,
				DependsOn: []models.Dependency{dep("review")}},
		}},
	}
}

func terminalTemplate(variant, execTitle string) Template {
	return Template{Op: models.OpTerminal, Variant: variant, Steps: []Step{
		{ID: "prepareCommand", Title: "Prepare command", Role: models.RoleTerminalOperator, Capability: models.CapTaskPlan},
		{ID: "executeCommand", Title: execTitle, Role: models.RoleTerminalOperator, Capability: models.CapShellExec,
			DependsOn: []models.Dependency{dep("prepareCommand")}},
		{ID: "report", Title: "Report output", Role: models.RoleReportWriter, Capability: models.CapTextSummarize,
			DependsOn: []models.Dependency{dep("executeCommand")}},
	}}
}
