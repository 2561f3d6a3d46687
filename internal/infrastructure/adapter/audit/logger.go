// Package audit implements the append-only decision log: one redacted
// line per decision, written before the decision is returned, readable
// back in a bounded window for the permission audit scanner.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"command-gatekeeper/internal/domain/entity"
	"command-gatekeeper/internal/domain/port"
	"command-gatekeeper/internal/domain/safety"
)

// fieldSep separates log line fields. The command and reason fields are
// last and next-to-last so a separator inside the reason cannot shift
// earlier fields; parsing splits with a fixed field count.
const fieldSep = " | "

// lineFields is the fixed number of fields per log line.
const lineFields = 7

// maxLoggedCommand truncates pathological command text in the log.
const maxLoggedCommand = 500

// FileLogger appends one line per decision to a log file. Each write is
// a single O_APPEND write, so concurrent gatekeeper processes can share
// the file without cross-process locking.
type FileLogger struct {
	path string
}

// NewFileLogger creates the logger, ensuring the parent directory
// exists.
func NewFileLogger(path string) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return &FileLogger{path: path}, nil
}

var (
	_ port.DecisionLogger = (*FileLogger)(nil)
	_ port.AuditReader    = (*FileLogger)(nil)
)

// Log appends one redacted line for the decision. Redaction is
// unconditional: command text and reason pass through the redactor
// before touching disk.
func (l *FileLogger) Log(cmd entity.Command, d entity.Decision) error {
	command := safety.Redact(cmd.Text)
	if len(command) > maxLoggedCommand {
		command = command[:maxLoggedCommand] + "..."
	}
	command = escapeField(command)
	reason := escapeField(safety.Redact(d.Reason))

	line := strings.Join([]string{
		time.Now().UTC().Format(time.RFC3339),
		cmd.SessionPrefix(),
		string(d.Outcome),
		string(d.Method),
		d.Elapsed.String(),
		command,
		reason,
	}, fieldSep) + "\n"

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}

// ReadRecent parses up to n of the most recent entries, oldest first.
// Unparseable lines are skipped: the log may contain lines from older
// versions, and the scanner only needs a best-effort window.
func (l *FileLogger) ReadRecent(n int) ([]port.AuditEntry, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}

	entries := make([]port.AuditEntry, 0, len(lines))
	for _, line := range lines {
		if e, ok := parseLine(line); ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// escapeField keeps a field on one line and free of the field
// separator. Pipes become broken bars so a command like "cat x | wc"
// cannot shift field boundaries when the line is parsed back.
func escapeField(s string) string {
	s = strings.ReplaceAll(s, "\n", "\\n")
	return strings.ReplaceAll(s, "|", "¦")
}

// parseLine splits one log line back into an entry.
func parseLine(line string) (port.AuditEntry, bool) {
	parts := strings.SplitN(line, fieldSep, lineFields)
	if len(parts) != lineFields {
		return port.AuditEntry{}, false
	}
	ts, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return port.AuditEntry{}, false
	}
	elapsed, err := time.ParseDuration(parts[4])
	if err != nil {
		return port.AuditEntry{}, false
	}
	return port.AuditEntry{
		Time:    ts,
		Session: parts[1],
		Outcome: entity.Outcome(parts[2]),
		Method:  entity.Method(parts[3]),
		Elapsed: elapsed,
		Command: parts[5],
		Reason:  parts[6],
	}, true
}
