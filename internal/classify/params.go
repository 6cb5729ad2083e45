package classify

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ShayCichocki/taskweave/pkg/models"
)

// Parameter keys produced by Extract.
const (
	ParamFilePaths      = "file_paths"
	ParamDirectoryPaths = "directory_paths"
	ParamExtensions     = "file_extensions"
	ParamQuery          = "query"
	ParamCommand        = "command"
	ParamSlashCommand   = "slash_command"
	ParamDestructive    = "destructive"
	ParamSummarize      = "summarize"
)

var (
	filePathRe    = regexp.MustCompile(`(?:[\w.\-]+[/\\])*[\w\-]+\.[A-Za-z][A-Za-z0-9]{0,7}\b`)
	dirPathRe     = regexp.MustCompile(`(?:^|\s)((?:\.{1,2}/|/)?(?:[\w.\-]+/)+)(?:\s|$)`)
	quotedRe      = regexp.MustCompile("\"([^\"]+)\"|`([^`]+)`")
	slashRe       = regexp.MustCompile(`^/(\w+)`)
	destructiveRe = regexp.MustCompile(`\b(delete|remove|rm|erase|wipe|destroy|drop|purge|truncate)\b|--force|reset --hard`)
	summarizeRe   = regexp.MustCompile(`\b(summari[sz]e|summary|explain|describe|overview)\b`)
	wordRe        = regexp.MustCompile(`[a-z][a-z\-]*`)
)

// commandVerbs are the verbs recognized as the request's command, mapped to
// their canonical form.
var commandVerbs = map[string]string{
	"create": "create", "make": "create", "new": "create", "add": "create",
	"read": "read", "show": "read", "display": "read", "view": "read", "open": "read", "cat": "read",
	"write": "write", "save": "write",
	"edit": "edit", "update": "edit", "modify": "edit", "change": "edit", "append": "edit",
	"delete": "delete", "remove": "delete", "rm": "delete", "erase": "delete", "wipe": "delete",
	"run": "run", "execute": "run", "launch": "run", "start": "run",
	"install": "install", "test": "test",
	"init": "init", "initialize": "init", "setup": "init", "bootstrap": "init",
	"fix": "fix", "debug": "fix", "repair": "fix", "resolve": "fix",
	"search": "search", "find": "search", "grep": "search", "locate": "search",
	"commit": "commit", "push": "push", "pull": "pull", "merge": "merge", "rebase": "rebase",
	"refactor": "refactor", "implement": "implement", "generate": "generate",
	"plan": "plan",
}

// Extract pulls parameters out of request text. It is a pure function.
func Extract(text string) models.Params {
	params := models.Params{}
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	if paths := uniqueMatches(filePathRe.FindAllString(trimmed, -1)); len(paths) > 0 {
		params[ParamFilePaths] = paths
		var exts []string
		for _, p := range paths {
			if i := strings.LastIndex(p, "."); i >= 0 {
				exts = append(exts, strings.ToLower(p[i:]))
			}
		}
		exts = uniqueMatches(exts)
		sort.Strings(exts)
		params[ParamExtensions] = exts
	}

	var dirs []string
	for _, m := range dirPathRe.FindAllStringSubmatch(trimmed, -1) {
		dirs = append(dirs, m[1])
	}
	if dirs = uniqueMatches(dirs); len(dirs) > 0 {
		params[ParamDirectoryPaths] = dirs
	}

	if m := quotedRe.FindStringSubmatch(trimmed); m != nil {
		if m[1] != "" {
			params[ParamQuery] = m[1]
		} else {
			params[ParamQuery] = m[2]
		}
	}

	if m := slashRe.FindStringSubmatch(lower); m != nil {
		params[ParamSlashCommand] = m[1]
	}

	for _, w := range wordRe.FindAllString(lower, -1) {
		if verb, ok := commandVerbs[w]; ok {
			params[ParamCommand] = verb
			break
		}
	}

	if destructiveRe.MatchString(lower) {
		params[ParamDestructive] = true
	}
	if summarizeRe.MatchString(lower) {
		params[ParamSummarize] = true
	}

	return params
}

func uniqueMatches(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
