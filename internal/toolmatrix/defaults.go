package toolmatrix

import (
	"github.com/ShayCichocki/taskweave/pkg/models"
)

// LookupEnv matches os.LookupEnv.
type LookupEnv func(key string) (string, bool)

// Requirements are declarative preconditions for a tool.
type Requirements struct {
	// Credentials are environment variables that must be non-empty.
	Credentials []string `yaml:"credentials"`
	// Params are request parameters that must be boolean true.
	Params []string `yaml:"params"`
}

// Predicate turns requirements into an availability predicate. Credentials
// are resolved once, so the predicate never touches the environment.
func (r Requirements) Predicate(env LookupEnv) models.AvailabilityFunc {
	if len(r.Credentials) == 0 && len(r.Params) == 0 {
		return nil
	}

	credsOK := true
	for _, key := range r.Credentials {
		if env == nil {
			credsOK = false
			break
		}
		if v, ok := env(key); !ok || v == "" {
			credsOK = false
			break
		}
	}
	params := append([]string(nil), r.Params...)

	return func(p models.Params) bool {
		if !credsOK {
			return false
		}
		for _, key := range params {
			if !p.Bool(key) {
				return false
			}
		}
		return true
	}
}

// ParamConfirmed is the request parameter that unlocks destructive tools.
const ParamConfirmed = "confirmed"

// Default builds the built-in matrix. Credential-gated tools consult env.
func Default(env LookupEnv, opts ...Option) *Matrix {
	tools := []models.ToolDescriptor{
		{Name: "read", Category: "file_operations", Cost: 1,
			Capabilities: []models.Capability{models.CapFileRead}},
		{Name: "glob", Category: "file_operations", Cost: 1,
			Capabilities: []models.Capability{models.CapFileLocate, models.CapSearchName}},
		{Name: "grep", Category: "file_operations", Cost: 1,
			Capabilities: []models.Capability{models.CapSearchContent, models.CapFileLocate}},
		{Name: "write", Category: "file_operations", Cost: 2,
			Capabilities: []models.Capability{models.CapFileWrite}},
		{Name: "edit", Category: "file_operations", Cost: 2,
			Capabilities: []models.Capability{models.CapFileWrite, models.CapFileRead}},
		{Name: "rm", Category: "shell_operations", Cost: 3, Destructive: true,
			Capabilities: []models.Capability{models.CapFileDelete},
			Available:    Requirements{Params: []string{ParamConfirmed}}.Predicate(env)},
		{Name: "bash", Category: "shell_operations", Cost: 3,
			Capabilities: []models.Capability{models.CapShellExec, models.CapGitInspect, models.CapSearchContent}},
		{Name: "git", Category: "shell_operations", Cost: 2,
			Capabilities: []models.Capability{models.CapGitInspect, models.CapGitMutate}},
		{Name: "code_interpreter", Category: "code_analysis", Cost: 3,
			Capabilities: []models.Capability{models.CapCodeValidate, models.CapCodeAnalyze}},
		{Name: "language_model", Category: "language", Cost: 4,
			Capabilities: []models.Capability{
				models.CapTextSummarize, models.CapTaskPlan, models.CapCodePlan,
				models.CapCodeGenerate, models.CapSearchRank, models.CapCodeAnalyze,
			}},
		{Name: "web_search", Category: "web_research", Cost: 4,
			Capabilities: []models.Capability{models.CapWebSearch},
			Available:    Requirements{Credentials: []string{"SERPER_API_KEY"}}.Predicate(env)},
		{Name: "github_search", Category: "code_analysis", Cost: 5,
			Capabilities: []models.Capability{models.CapCodeAnalyze, models.CapSearchContent},
			Available:    Requirements{Credentials: []string{"GITHUB_TOKEN"}}.Predicate(env)},
	}

	rows := map[models.OperationType][]Entry{
		models.OpFile: {
			{Tool: "read", Specificity: 3}, {Tool: "glob", Specificity: 3},
			{Tool: "write", Specificity: 3}, {Tool: "rm", Specificity: 3},
			{Tool: "grep", Specificity: 2}, {Tool: "edit", Specificity: 2},
			{Tool: "language_model", Specificity: 1},
		},
		models.OpCode: {
			{Tool: "language_model", Specificity: 3}, {Tool: "code_interpreter", Specificity: 3},
			{Tool: "read", Specificity: 2}, {Tool: "write", Specificity: 2}, {Tool: "edit", Specificity: 2},
			{Tool: "glob", Specificity: 1}, {Tool: "github_search", Specificity: 1},
		},
		models.OpGit: {
			{Tool: "git", Specificity: 3},
			{Tool: "bash", Specificity: 1}, {Tool: "language_model", Specificity: 1},
		},
		models.OpSearch: {
			{Tool: "glob", Specificity: 3}, {Tool: "grep", Specificity: 3},
			{Tool: "github_search", Specificity: 2}, {Tool: "read", Specificity: 2},
			{Tool: "web_search", Specificity: 1}, {Tool: "bash", Specificity: 1},
			{Tool: "language_model", Specificity: 1},
		},
		models.OpTerminal: {
			{Tool: "bash", Specificity: 3},
			{Tool: "language_model", Specificity: 1},
		},
		models.OpOrchestration: {
			{Tool: "language_model", Specificity: 3},
			{Tool: "read", Specificity: 2}, {Tool: "glob", Specificity: 2}, {Tool: "grep", Specificity: 2},
			{Tool: "write", Specificity: 2}, {Tool: "code_interpreter", Specificity: 2},
			{Tool: "web_search", Specificity: 1},
		},
	}

	m, err := New(tools, rows, opts...)
	if err != nil {
		// The built-in table is static; an error here is a programming bug.
		panic("toolmatrix: invalid default table: " + err.Error())
	}
	return m
}
