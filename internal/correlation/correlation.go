package correlation

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FieldRunID is the structured log field key for the workflow run identifier.
const FieldRunID = "run_id"

// Context is the run-scoped identity attached to every external call made
// during a single workflow run. It is minted once per run and never changes
// afterwards; downstream collaborators treat the identifier as opaque.
type Context struct {
	runID     string
	startedAt time.Time
}

// New mints a fresh correlation context for a new workflow run.
func New() Context {
	return Context{
		runID:     uuid.NewString(),
		startedAt: time.Now(),
	}
}

// FromRunID restores a correlation context around an existing identifier.
// Useful in tests where a deterministic id is needed.
func FromRunID(id string) Context {
	return Context{runID: id, startedAt: time.Now()}
}

// RunID returns the opaque run identifier.
func (c Context) RunID() string { return c.runID }

// StartedAt returns the moment the run was started.
func (c Context) StartedAt() time.Time { return c.startedAt }

// Field returns the zap field carrying the run identifier.
func (c Context) Field() zap.Field {
	return zap.String(FieldRunID, c.runID)
}

// Logger attaches the run identifier to the provided logger. A nil logger is
// replaced with a no-op one to avoid panics in optional logging paths.
func (c Context) Logger(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger.With(c.Field())
}
