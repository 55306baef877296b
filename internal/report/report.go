// Package report renders and persists workflow reports.
package report

import (
	"github.com/spigell/job-pilot/internal/pipeline"
)

// Sink consumes a finished workflow report.
type Sink interface {
	Write(report *pipeline.Report) error
}

// MultiSink fans one report out to several sinks. The first error stops the
// fan-out.
type MultiSink []Sink

func (m MultiSink) Write(report *pipeline.Report) error {
	for _, sink := range m {
		if err := sink.Write(report); err != nil {
			return err
		}
	}
	return nil
}
