package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/taskweave/internal/config"
	"github.com/ShayCichocki/taskweave/internal/toolmatrix"
	"github.com/ShayCichocki/taskweave/pkg/models"
)

var toolsConfirm bool

// toolCredentials are the credentials the built-in tool table checks.
var toolCredentials = []string{"SERPER_API_KEY", "GITHUB_TOKEN"}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tool table and tool availability",
	Long: `List every tool descriptor with its capabilities and whether it is
available right now. Destructive tools are only available with --confirm;
credential-gated tools need their credential in the environment or in
tools.credentials.`,
	Args: cobra.NoArgs,
	RunE: runTools,
}

func init() {
	toolsCmd.Flags().BoolVar(&toolsConfirm, "confirm", false, "Evaluate availability as if destructive tools were confirmed")
}

func runTools(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	m, probe, err := buildMatrix(cfg)
	if err != nil {
		return err
	}

	params := models.Params{}
	if toolsConfirm {
		params[toolmatrix.ParamConfirmed] = true
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-18s %-18s %-5s %-10s %s\n", "TOOL", "CATEGORY", "COST", "AVAILABLE", "CAPABILITIES")
	for _, t := range m.Tools() {
		avail := green("yes")
		if !t.IsAvailable(params) || !probe.IsAvailable(t) {
			avail = red("no ")
		}
		name := t.Name
		if t.Destructive {
			name += "!"
		}
		caps := make([]string, len(t.Capabilities))
		for i, c := range t.Capabilities {
			caps[i] = string(c)
		}
		fmt.Fprintf(w, "%-18s %-18s %-5d %-10s %s\n", name, t.Category, t.Cost, avail, strings.Join(caps, ", "))
	}

	if missing := probe.Missing(); len(missing) > 0 {
		fmt.Fprintf(w, "\n%s %s\n", yellow("Not on PATH:"), strings.Join(missing, ", "))
	}

	fmt.Fprintf(w, "\n%s\n", bold("Credentials:"))
	for _, name := range credentialNames(cfg) {
		v, _ := cfg.LookupCredential(name)
		fmt.Fprintf(w, "  %-18s %-12s %s\n", name, cfg.CredentialSourceOf(name), config.MaskSecret(v))
	}
	return nil
}

// credentialNames merges the built-in credential names with those named in
// tools.credentials.
func credentialNames(cfg *config.Config) []string {
	seen := make(map[string]bool)
	var names []string
	for _, n := range toolCredentials {
		seen[n] = true
		names = append(names, n)
	}
	var extra []string
	for k := range cfg.Tools.Credentials {
		n := strings.ToUpper(k)
		if !seen[n] {
			seen[n] = true
			extra = append(extra, n)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}
