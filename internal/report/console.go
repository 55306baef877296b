package report

import (
	"fmt"
	"io"

	"github.com/spigell/job-pilot/internal/jobs"
	"github.com/spigell/job-pilot/internal/pipeline"
)

// ConsoleSink renders a human-readable summary of the run.
type ConsoleSink struct {
	out io.Writer
}

func NewConsoleSink(out io.Writer) *ConsoleSink {
	return &ConsoleSink{out: out}
}

func (s *ConsoleSink) Write(report *pipeline.Report) error {
	w := s.out

	fmt.Fprintf(w, "Run %s finished: %s", report.RunID, report.State)
	if report.Degraded() {
		fmt.Fprint(w, " (degraded)")
	}
	fmt.Fprintln(w)

	for _, stage := range report.Stages {
		fmt.Fprintf(w, "  %-8s %s\n", stage.Stage, stage.Status)
		for _, warning := range stage.Warnings {
			fmt.Fprintf(w, "           warning: %s\n", warning)
		}
	}

	fmt.Fprintf(w, "Postings found: %d (%d pages), selected: %d\n",
		report.PostingsFound, report.PagesFetched, report.SelectedCount())

	if len(report.Outcomes) == 0 {
		fmt.Fprintln(w, "No applications were submitted.")
		return nil
	}

	titles := make(map[string]string, len(report.Decisions))
	for _, decision := range report.Decisions {
		titles[decision.Posting.ID] = decision.Posting.Title
	}

	counts := report.OutcomeCounts()
	fmt.Fprintf(w, "Applications: %d submitted, %d skipped, %d failed\n",
		counts[jobs.OutcomeSubmitted], counts[jobs.OutcomeSkipped], counts[jobs.OutcomeFailed])
	for _, outcome := range report.Outcomes {
		line := fmt.Sprintf("  [%s] %s", outcome.Status, outcome.JobID)
		if title := titles[outcome.JobID]; title != "" {
			line += " " + title
		}
		if outcome.Status == jobs.OutcomeFailed && outcome.FailureReason != "" {
			line += " (" + outcome.FailureReason + ")"
		}
		fmt.Fprintln(w, line)
	}

	return nil
}
