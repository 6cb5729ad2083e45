package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/taskweave/internal/feedback"
)

var (
	feedbackJSON       bool
	feedbackMinSamples int
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Show per-rule outcome statistics",
	Long: `Show the success rate recorded for every classifier rule and the weight
factor the classifier applies at startup. Rules with fewer records than
classifier.feedback_min_samples keep their declared weight.`,
	Args: cobra.NoArgs,
	RunE: runFeedback,
}

func init() {
	feedbackCmd.Flags().BoolVar(&feedbackJSON, "json", false, "Print statistics as JSON")
	feedbackCmd.Flags().IntVar(&feedbackMinSamples, "min-samples", -1, "Override classifier.feedback_min_samples")
}

type ruleRow struct {
	feedback.RuleStats
	Rate   float64  `json:"success_rate"`
	Factor *float64 `json:"factor,omitempty"`
}

func runFeedback(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if !cfg.Feedback.Enabled {
		fmt.Fprintln(w, "feedback is disabled (feedback.enabled=false)")
		return nil
	}

	store, err := feedback.OpenSQLiteStore(cfg.Feedback.DBPath)
	if err != nil {
		return fmt.Errorf("open feedback store: %w", err)
	}
	defer store.Close()

	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return err
	}
	minSamples := cfg.Classifier.FeedbackMinSamples
	if feedbackMinSamples >= 0 {
		minSamples = feedbackMinSamples
	}
	bias := feedback.Biases(stats, minSamples)

	rows := make([]ruleRow, 0, len(stats))
	for id, s := range stats {
		row := ruleRow{RuleStats: s, Rate: s.SuccessRate()}
		if f, ok := bias[id]; ok {
			row.Factor = &f
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].RuleID < rows[j].RuleID })

	if feedbackJSON {
		return writeJSON(w, rows)
	}
	if len(rows) == 0 {
		fmt.Fprintf(w, "no outcomes recorded yet in %s\n", store.Path())
		return nil
	}
	fmt.Fprintf(w, "%-28s %8s %8s %8s %8s\n", "RULE", "SUCCESS", "TOTAL", "RATE", "FACTOR")
	for _, r := range rows {
		factor := faint("   -")
		if r.Factor != nil {
			factor = fmt.Sprintf("%8.2f", *r.Factor)
		}
		fmt.Fprintf(w, "%-28s %8d %8d %7.0f%% %s\n", r.RuleID, r.Successes, r.Total, r.Rate*100, factor)
	}
	return nil
}
