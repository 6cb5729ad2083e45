package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/ShayCichocki/taskweave/internal/agents"
	"github.com/ShayCichocki/taskweave/internal/router"
	"github.com/ShayCichocki/taskweave/internal/scheduler"
	"github.com/ShayCichocki/taskweave/pkg/models"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderIntent prints a classification.
func renderIntent(w io.Writer, intent models.Intent, band models.Band) {
	fmt.Fprintf(w, "%s %s (confidence %.2f, %s)\n", bold("Intent:"), intent.Operation, intent.Confidence, bandLabel(band))
	if len(intent.MatchedRules) > 0 {
		fmt.Fprintf(w, "  rules: %s\n", strings.Join(intent.MatchedRules, ", "))
	}
	if len(intent.Parameters) > 0 {
		keys := make([]string, 0, len(intent.Parameters))
		for k := range intent.Parameters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %v\n", k, intent.Parameters[k])
		}
	}
}

func bandLabel(b models.Band) string {
	switch b {
	case models.BandAuto:
		return green(string(b))
	case models.BandPreview:
		return yellow(string(b))
	default:
		return red(string(b))
	}
}

func renderAlternatives(w io.Writer, alts []models.Interpretation) {
	if len(alts) == 0 {
		fmt.Fprintln(w, "  no interpretation matched; try an explicit command such as /file or /search")
		return
	}
	fmt.Fprintln(w, "Did you mean:")
	for i, alt := range alts {
		fmt.Fprintf(w, "  %d. %s %s %s\n", i+1, alt.Operation, faint(fmt.Sprintf("%.2f", alt.Confidence)),
			faint("["+strings.Join(alt.Rules, ", ")+"]"))
	}
}

// renderOutcome prints a handled request for humans.
func renderOutcome(w io.Writer, out *router.Outcome) {
	fmt.Fprintf(w, "%s %s\n", bold("Request"), out.RequestID)
	renderIntent(w, out.Intent, out.Band)

	switch out.Kind {
	case router.KindAmbiguous:
		fmt.Fprintf(w, "\n%s request is ambiguous, nothing was executed\n", yellow("?"))
		renderAlternatives(w, out.Alternatives)
		return
	case router.KindRejected:
		fmt.Fprintf(w, "\n%s rejected: %s\n", red("✗"), out.Reason)
		return
	}

	if out.Preview != nil {
		fmt.Fprintf(w, "\n%s", out.Preview.String())
	}

	fmt.Fprintln(w)
	for i, wave := range out.Waves {
		fmt.Fprintf(w, "%s %s\n", bold(fmt.Sprintf("Wave %d:", i+1)), strings.Join(wave, ", "))
	}
	for _, st := range out.Subtasks {
		fmt.Fprintf(w, "  %s %-18s %s\n", statusSymbol(st.Status), st.ID, subtaskDetail(st))
	}

	if out.Result != nil {
		if s := summaryOf(out.Result.Payload.Primary); s != "" {
			fmt.Fprintf(w, "\n%s %s\n", bold("Result:"), s)
		}
		for _, rec := range out.Result.Errors {
			if rec.Kind == models.KindSkipped {
				continue
			}
			fmt.Fprintf(w, "  %s %s (%s, attempt %d): %s\n", red("!"), rec.SubtaskID, rec.Kind, rec.Attempt, rec.Message)
		}
	}
	if out.Cascade != nil && out.Cascade.RootCause != nil {
		rc := out.Cascade.RootCause
		fmt.Fprintf(w, "%s %s (%s)\n", bold("Root cause:"), rc.SubtaskID, rc.Kind)
		if len(out.Cascade.Path) > 0 {
			fmt.Fprintf(w, "%s %s\n", bold("Skipped because of it:"), strings.Join(out.Cascade.Path, ", "))
		}
	}

	fmt.Fprintf(w, "\n%s in %s\n", kindLabel(out.Kind), out.Duration.Round(time.Millisecond))
}

func statusSymbol(s models.SubtaskStatus) string {
	switch s {
	case models.StatusSucceeded:
		return green("✓")
	case models.StatusFailed:
		return red("✗")
	case models.StatusSkipped:
		return yellow("⊘")
	default:
		return faint("·")
	}
}

func subtaskDetail(st models.Subtask) string {
	parts := []string{string(st.Role)}
	if len(st.Tools) > 0 {
		parts = append(parts, st.Tools[0])
	}
	if st.Attempts > 1 {
		parts = append(parts, fmt.Sprintf("%d attempts", st.Attempts))
	}
	if st.BlockedReason != "" {
		parts = append(parts, st.BlockedReason)
	}
	return faint(strings.Join(parts, " · "))
}

func summaryOf(payload any) string {
	switch p := payload.(type) {
	case nil:
		return ""
	case agents.Output:
		return p.Summary
	case fmt.Stringer:
		return p.String()
	default:
		return fmt.Sprint(p)
	}
}

func kindLabel(k router.Kind) string {
	switch k {
	case router.KindSucceeded:
		return green("✓ succeeded")
	case router.KindPartial:
		return yellow("◐ partial")
	default:
		return red("✗ " + string(k))
	}
}

// renderEvent prints one progress event.
func renderEvent(w io.Writer, ev scheduler.Event) {
	switch ev.Type {
	case scheduler.EventWaveStarted:
		fmt.Fprintf(w, "%s wave %d: %s\n", faint("»"), ev.Wave, ev.Message)
	case scheduler.EventSubtaskRetrying:
		fmt.Fprintf(w, "%s %s retrying after attempt %d: %s\n", yellow("↻"), ev.SubtaskID, ev.Attempt, ev.Message)
	case scheduler.EventSubtaskSucceeded, scheduler.EventSubtaskFailed, scheduler.EventSubtaskSkipped:
		fmt.Fprintf(w, "  %s %s\n", statusSymbol(ev.Status), ev.SubtaskID)
	}
}
