package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/taskweave/pkg/models"
)

var (
	classifyJSON        bool
	classifyRecent      []string
	classifyProjectType string
)

var classifyCmd = &cobra.Command{
	Use:   "classify <request>",
	Short: "Classify a request without executing it",
	Long: `Classify a request and print the operation type, confidence band,
matched rules, extracted parameters and ranked alternatives.

Examples:
  taskweave classify "read app.py and summarize it"
  taskweave classify --recent git "show me what changed"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "Print the intent as JSON")
	classifyCmd.Flags().StringSliceVar(&classifyRecent, "recent", nil, "Recent operation types, oldest first")
	classifyCmd.Flags().StringVar(&classifyProjectType, "project-type", "", "Project type hint, e.g. go or python")
}

type classification struct {
	Intent models.Intent `json:"intent"`
	Band   models.Band   `json:"band"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	rctx, err := requestContext(classifyRecent, classifyProjectType)
	if err != nil {
		return err
	}
	req := models.NewRequest(strings.Join(args, " "), nil).WithContext(rctx)
	intent := a.classifier.ClassifyRequest(req)
	band := a.classifier.Band(intent.Confidence)
	if intent.Operation == models.OpAmbiguous {
		band = models.BandAmbiguous
	}

	w := cmd.OutOrStdout()
	if classifyJSON {
		return writeJSON(w, classification{Intent: intent, Band: band})
	}
	renderIntent(w, intent, band)
	if band == models.BandAmbiguous || len(intent.Alternatives) > 1 {
		renderAlternatives(w, intent.Alternatives)
	}
	return nil
}
