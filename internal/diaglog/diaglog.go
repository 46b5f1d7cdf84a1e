// Package diaglog captures human-readable diagnostic lines.
//
// Each line is echoed immediately and kept in memory so the whole run can be
// written to a file when the process finishes, whatever the outcome.
package diaglog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
)

// Logger is an append-only buffer of diagnostic lines.
type Logger struct {
	mu    sync.Mutex
	out   io.Writer
	lines []string
}

// New creates a Logger echoing every line to out. A nil out only buffers.
func New(out io.Writer) *Logger {
	return &Logger{out: out}
}

// Log appends message and echoes it. Echo failures are ignored.
func (l *Logger) Log(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lines = append(l.lines, message)
	if l.out != nil {
		_, _ = fmt.Fprintln(l.out, message)
	}
}

// Logf formats and appends a line.
func (l *Logger) Logf(format string, args ...any) {
	l.Log(fmt.Sprintf(format, args...))
}

// Lines returns a copy of the buffered lines in call order.
func (l *Logger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.lines...)
}

// Flush writes every buffered line, each followed by a newline, to path.
// An existing file is truncated. The file is closed on every path.
func (l *Logger) Flush(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close log file: %w", closeErr)
		}
	}()

	w := bufio.NewWriter(f)
	for _, line := range l.Lines() {
		if _, err := w.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("failed to write log file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write log file: %w", err)
	}
	return nil
}
