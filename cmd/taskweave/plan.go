package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/taskweave/internal/router"
	"github.com/ShayCichocki/taskweave/pkg/models"
)

var (
	planJSON    bool
	planConfirm bool
	planParams  []string
)

var planCmd = &cobra.Command{
	Use:   "plan <request>",
	Short: "Show the subtask graph for a request without running it",
	Long: `Classify and decompose a request, then print the static wave plan:
the waves the scheduler releases when every subtask succeeds, with the
agent role, capability and chosen tool for each subtask.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&planJSON, "json", false, "Print the plan as JSON")
	planCmd.Flags().BoolVar(&planConfirm, "confirm", false, "Allow destructive tools")
	planCmd.Flags().StringArrayVarP(&planParams, "param", "p", nil, "Request parameter key=value (repeatable)")
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	params, err := requestParams(planParams, planConfirm)
	if err != nil {
		return err
	}
	req := models.NewRequest(strings.Join(args, " "), params)
	intent := a.classifier.ClassifyRequest(req)
	band := a.classifier.Band(intent.Confidence)

	w := cmd.OutOrStdout()
	if intent.Operation == models.OpAmbiguous {
		if planJSON {
			return writeJSON(w, classification{Intent: intent, Band: models.BandAmbiguous})
		}
		renderIntent(w, intent, models.BandAmbiguous)
		renderAlternatives(w, intent.Alternatives)
		return nil
	}

	g, err := a.decomposer.Decompose(intent)
	if err != nil {
		return err
	}
	preview := router.BuildPreview(intent, g)
	if planJSON {
		return writeJSON(w, preview)
	}
	renderIntent(w, intent, band)
	fmt.Fprintf(w, "\n%s", preview.String())
	return nil
}
