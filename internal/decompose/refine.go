package decompose

import (
	"github.com/ShayCichocki/taskweave/internal/classify"
	"github.com/ShayCichocki/taskweave/pkg/models"
)

// Template variants.
const (
	VariantRead     = "read"
	VariantWrite    = "write"
	VariantDelete   = "delete"
	VariantChange   = "change"
	VariantInspect  = "inspect"
	VariantMutate   = "mutate"
	VariantContent  = "content"
	VariantName     = "name"
	VariantRun      = "run"
	VariantInstall  = "install"
	VariantTest     = "test"
	VariantWorkflow = "workflow"
)

var gitMutations = map[string]bool{
	"commit": true, "push": true, "pull": true, "merge": true, "rebase": true,
	"create": true, "delete": true,
}

// Variant picks the template variant for an intent from its extracted
// command verb and parameters.
func Variant(intent models.Intent) string {
	p := intent.Parameters
	cmd := p.String(classify.ParamCommand)

	switch intent.Operation {
	case models.OpFile:
		switch {
		case cmd == "delete" || p.Bool(classify.ParamDestructive):
			return VariantDelete
		case cmd == "create" || cmd == "write" || cmd == "edit":
			return VariantWrite
		default:
			return VariantRead
		}
	case models.OpCode:
		return VariantChange
	case models.OpGit:
		if gitMutations[cmd] {
			return VariantMutate
		}
		return VariantInspect
	case models.OpSearch:
		if p.String(classify.ParamQuery) == "" &&
			(len(p.Strings(classify.ParamFilePaths)) > 0 || len(p.Strings(classify.ParamExtensions)) > 0) {
			return VariantName
		}
		return VariantContent
	case models.OpTerminal:
		switch cmd {
		case "install":
			return VariantInstall
		case "test":
			return VariantTest
		default:
			return VariantRun
		}
	case models.OpOrchestration:
		return VariantWorkflow
	default:
		return ""
	}
}
