package git

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const progressInterval = 2 * time.Second

// ProgressLogger turns git sideband progress into debug log lines.
// Updates of the same phase are throttled to one per progressInterval.
type ProgressLogger struct {
	logger     zerolog.Logger
	operation  string
	mu         sync.Mutex
	lastUpdate time.Time
	lastPhase  string
}

// NewProgressLogger creates a progress writer for one operation
func NewProgressLogger(logger zerolog.Logger, operation string) *ProgressLogger {
	return &ProgressLogger{
		logger:    logger,
		operation: operation,
	}
}

// Write implements io.Writer
func (pl *ProgressLogger) Write(p []byte) (int, error) {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	// git rewrites progress in place with carriage returns
	lines := strings.FieldsFunc(string(p), func(r rune) bool { return r == '\r' || r == '\n' })
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		phase := progressPhase(line)
		now := time.Now()
		if phase != pl.lastPhase || now.Sub(pl.lastUpdate) >= progressInterval || strings.Contains(line, "done") {
			pl.logger.Debug().Str("operation", pl.operation).Msg(line)
			pl.lastUpdate = now
			pl.lastPhase = phase
		}
	}

	return len(p), nil
}

// progressPhase strips the counters from a progress line
func progressPhase(line string) string {
	line = strings.TrimPrefix(line, "remote: ")
	if i := strings.Index(line, ":"); i >= 0 {
		return line[:i]
	}
	return line
}
