package audit

import (
	"log/slog"
	"os"
	"sync"
)

// Recorder receives metric names that were rejected by the whitelist.
type Recorder interface {
	Record(metricName string)
}

const blockedLogHeader = "# This file is automatically generated - do not modify this file.\n" +
	"# Use this file to find metrics to be added to the whitelist file instead.\n"

// BlockedLog maintains a plain-text log of rejected metric names. The file is
// recreated on startup so it only lists metrics seen by the current process.
type BlockedLog struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// NewBlockedLog truncates (or creates) the log file at path and writes the
// header. Failure to create the file is logged, not returned: classification
// must keep working even when the blocked-metric log is broken.
func NewBlockedLog(logger *slog.Logger, path string) *BlockedLog {
	l := &BlockedLog{path: path, logger: logger}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.WriteFile(path, []byte(blockedLogHeader), 0o644); err != nil {
		logger.Warn("could not create blocked metrics log", "path", path, "error", err)
	}
	return l
}

// Record appends the metric name to the log. Concurrent calls are serialized
// so lines never interleave. Failures are logged and dropped.
func (l *BlockedLog) Record(metricName string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		l.logger.Warn("could not update blocked metrics log",
			"path", l.path, "metric", metricName, "error", err)
		return
	}
	defer f.Close()

	if _, err := f.WriteString(metricName + "\n"); err != nil {
		l.logger.Warn("could not update blocked metrics log",
			"path", l.path, "metric", metricName, "error", err)
	}
}
