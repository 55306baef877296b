package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/spigell/job-pilot/internal/pipeline"
)

// FileSink writes the full report as an indented JSON document named after
// the run id, so repeated runs never clobber each other.
type FileSink struct {
	dir    string
	logger *zap.Logger
}

func NewFileSink(dir string, logger *zap.Logger) *FileSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSink{dir: dir, logger: logger}
}

func (s *FileSink) Write(report *pipeline.Report) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("report-%s.json", report.RunID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	s.logger.Info("report written", zap.String("path", path))

	return nil
}
