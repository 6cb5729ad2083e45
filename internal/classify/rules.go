// Package classify turns request text into a typed Intent.
package classify

import (
	"regexp"

	"github.com/ShayCichocki/taskweave/pkg/models"
)

// RuleKind groups rules by the signal they read.
type RuleKind string

const (
	// KindLexical rules match words in the request text.
	KindLexical RuleKind = "lexical"
	// KindStructural rules match the shape of the request (paths, quotes, slash commands).
	KindStructural RuleKind = "structural"
	// KindContext rules read recent-context signals.
	KindContext RuleKind = "context"
)

// MatchFunc decides whether a rule fires. lower is the lower-cased,
// trimmed text; params are the parameters extracted from it.
type MatchFunc func(lower string, params models.Params, ctx models.Context) bool

// Rule is one weighted classification rule. A rule's position in the table
// is its priority: earlier rules win ties.
type Rule struct {
	ID     string
	Op     models.OperationType
	Kind   RuleKind
	Weight float64
	Match  MatchFunc
}

// Keyword builds a lexical rule from a regular expression.
func Keyword(id string, op models.OperationType, weight float64, pattern string) Rule {
	re := regexp.MustCompile(pattern)
	return Rule{
		ID:     id,
		Op:     op,
		Kind:   KindLexical,
		Weight: weight,
		Match: func(lower string, _ models.Params, _ models.Context) bool {
			return re.MatchString(lower)
		},
	}
}

// Slash builds a structural rule for explicit slash commands.
func Slash(id string, op models.OperationType, names string) Rule {
	re := regexp.MustCompile(`^/(` + names + `)\b`)
	return Rule{
		ID:     id,
		Op:     op,
		Kind:   KindStructural,
		Weight: 1.0,
		Match: func(lower string, _ models.Params, _ models.Context) bool {
			return re.MatchString(lower)
		},
	}
}

// HasParam builds a structural rule that fires when an extracted parameter
// is present, either as a non-empty string or a non-empty list.
func HasParam(id string, op models.OperationType, weight float64, key string) Rule {
	return Rule{
		ID:     id,
		Op:     op,
		Kind:   KindStructural,
		Weight: weight,
		Match: func(_ string, params models.Params, _ models.Context) bool {
			return params.String(key) != "" || len(params.Strings(key)) > 0
		},
	}
}

// RecentOperation builds a context rule that fires when the caller's most
// recent operation was op.
func RecentOperation(op models.OperationType, weight float64) Rule {
	return Rule{
		ID:     "context.recent-" + string(op),
		Op:     op,
		Kind:   KindContext,
		Weight: weight,
		Match: func(_ string, _ models.Params, ctx models.Context) bool {
			last, ok := ctx.LastOperation()
			return ok && last == op
		},
	}
}

// ProjectType builds a context rule that fires whenever the caller supplied
// a project type hint.
func ProjectType(op models.OperationType, weight float64) Rule {
	return Rule{
		ID:     "context.project-type",
		Op:     op,
		Kind:   KindContext,
		Weight: weight,
		Match: func(_ string, _ models.Params, ctx models.Context) bool {
			return ctx.ProjectType != ""
		},
	}
}

// DefaultRules returns the built-in rule table in priority order.
func DefaultRules() []Rule {
	rules := []Rule{
		// Explicit commands always win outright.
		Slash("slash.file", models.OpFile, `file|read|write|edit`),
		Slash("slash.code", models.OpCode, `code|generate|refactor`),
		Slash("slash.git", models.OpGit, `git`),
		Slash("slash.search", models.OpSearch, `search|find|grep`),
		Slash("slash.terminal", models.OpTerminal, `run|exec|terminal|shell`),
		Slash("slash.orchestration", models.OpOrchestration, `plan|orchestrate`),

		Keyword("file.read-verb", models.OpFile, 0.45, `\b(read|show|display|view|open|cat)\b`),
		Keyword("file.write-verb", models.OpFile, 0.35, `\b(write|save|create|edit|update|modify|append)\b`),
		Keyword("file.delete-verb", models.OpFile, 0.30, `\b(delete|remove|rm|erase|wipe|destroy)\b`),
		Keyword("file.noun", models.OpFile, 0.25, `\b(files?|director(y|ies)|folders?|path)\b`),

		Keyword("code.construct", models.OpCode, 0.45, `\b(functions?|class(es)?|methods?|struct|interface|module|component|endpoint)\b`),
		Keyword("code.verb", models.OpCode, 0.35, `\b(implement|generate|refactor|fix|debug|optimi[sz]e)\b`),

		Keyword("git.command", models.OpGit, 0.60, `\b(git|commit|push|pull|branch|merge|rebase|stash|checkout|cherry-pick)\b`),
		Keyword("git.inspect", models.OpGit, 0.20, `\b(diff|log|status|blame|history)\b`),

		Keyword("search.verb", models.OpSearch, 0.50, `\b(search|find|grep|glob|locate|look\s+for|where\s+is)\b`),
		Keyword("search.scope", models.OpSearch, 0.25, `\b(occurrences?|usages?|references?|matches|across|everywhere)\b`),

		Keyword("terminal.verb", models.OpTerminal, 0.45, `\b(run|execute|launch|install|start)\b`),
		Keyword("terminal.tool", models.OpTerminal, 0.35, `\b(bash|shell|command|npm|pip|yarn|make|pytest|cargo)\b`),

		Keyword("orchestration.verb", models.OpOrchestration, 0.45, `\b(plan|coordinate|orchestrate|workflow|pipeline|multi-step)\b`),
		Keyword("orchestration.sequence", models.OpOrchestration, 0.30, `\b(and then|after that|followed by|finally)\b`),

		HasParam("structural.file-path", models.OpFile, 0.40, ParamFilePaths),
		HasParam("structural.dir-path", models.OpFile, 0.20, ParamDirectoryPaths),
		HasParam("structural.quoted-query", models.OpSearch, 0.20, ParamQuery),
	}

	for _, op := range models.OperationTypes {
		rules = append(rules, RecentOperation(op, 0.10))
	}
	rules = append(rules, ProjectType(models.OpCode, 0.10))
	return rules
}
