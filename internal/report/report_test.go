package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spigell/job-pilot/internal/jobs"
	"github.com/spigell/job-pilot/internal/pipeline"
)

func sampleReport() *pipeline.Report {
	return &pipeline.Report{
		RunID:      "run-7",
		StartedAt:  time.Now().Add(-time.Minute),
		FinishedAt: time.Now(),
		State:      pipeline.StateCompleted,
		Stages: []pipeline.StageResult{
			{Stage: "analyze", Status: pipeline.StatusOK},
			{Stage: "search", Status: pipeline.StatusOK},
			{Stage: "filter", Status: pipeline.StatusOK},
			{Stage: "apply", Status: pipeline.StatusPartial, Warnings: []string{"job b failed"}},
		},
		PostingsFound: 2,
		PagesFetched:  1,
		Decisions: []*jobs.Decision{
			{Posting: &jobs.Posting{ID: "a", Title: "Go Developer"}, Score: 0.9, Selected: true},
			{Posting: &jobs.Posting{ID: "b", Title: "Backend Engineer"}, Score: 0.8, Selected: true},
		},
		Outcomes: []*jobs.Outcome{
			{JobID: "a", Status: jobs.OutcomeSubmitted},
			{JobID: "b", Status: jobs.OutcomeFailed, FailureReason: "form rejected"},
		},
	}
}

func TestFileSinkWritesReportNamedAfterRun(t *testing.T) {
	dir := t.TempDir()

	sink := NewFileSink(filepath.Join(dir, "reports"), nil)
	if err := sink.Write(sampleReport()); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "reports", "report-run-7.json"))
	if err != nil {
		t.Fatal(err)
	}

	var decoded pipeline.Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("report file must be valid JSON: %v", err)
	}
	if decoded.RunID != "run-7" || decoded.PostingsFound != 2 {
		t.Fatalf("unexpected decoded report: %+v", decoded)
	}
}

func TestConsoleSinkRendersOutcomes(t *testing.T) {
	var buf bytes.Buffer

	if err := NewConsoleSink(&buf).Write(sampleReport()); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{
		"Run run-7 finished: completed (degraded)",
		"Postings found: 2 (1 pages), selected: 2",
		"Applications: 1 submitted, 0 skipped, 1 failed",
		"[submitted] a Go Developer",
		"[failed] b Backend Engineer (form rejected)",
		"warning: job b failed",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConsoleSinkWithoutOutcomes(t *testing.T) {
	var buf bytes.Buffer

	r := sampleReport()
	r.Outcomes = nil

	if err := NewConsoleSink(&buf).Write(r); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No applications were submitted.") {
		t.Fatalf("missing empty-outcomes line:\n%s", buf.String())
	}
}

func TestMultiSinkStopsOnError(t *testing.T) {
	var buf bytes.Buffer

	sink := MultiSink{
		NewConsoleSink(&buf),
		NewFileSink(filepath.Join(t.TempDir(), "reports"), nil),
	}
	if err := sink.Write(sampleReport()); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Fatal("console sink must have run")
	}
}
