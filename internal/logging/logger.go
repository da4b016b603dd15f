package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kingrea/selfassess/internal/config"
)

// Logger appends timestamped lines to .selfassess/logs/selfassess.log so
// storage failures stay visible even though the wizard keeps running.
type Logger struct {
	mu  sync.Mutex
	out io.WriteCloser
	now func() time.Time
}

// New creates (or reuses) the log file for the current project directory.
func New(projectDir string) (*Logger, error) {
	logDir := filepath.Join(projectDir, config.Dir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	path := filepath.Join(logDir, "selfassess.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	return &Logger{out: f, now: time.Now}, nil
}

// NewWriter logs to an arbitrary sink.
func NewWriter(w io.Writer) *Logger {
	return &Logger{out: nopCloser{w}, now: time.Now}
}

// Close releases the file handle.
func (l *Logger) Close() error {
	if l == nil || l.out == nil {
		return nil
	}
	return l.out.Close()
}

// Printf writes a single timestamped line to the log file.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.out == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	line := fmt.Sprintf(format, args...)
	line = strings.TrimRight(line, "\n")
	timestamp := l.now().Format(time.RFC3339)
	fmt.Fprintf(l.out, "[%s] %s\n", timestamp, line)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
