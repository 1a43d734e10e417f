package retry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"llmrouter/access"
)

// AttemptRecord is one "chargeable" attempt: created when the engine is
// about to dispatch a call, closed once the call returns or raises. A
// profile-retry redispatch does NOT add a record (spec.md §4.2): the
// failed record is dropped and the redispatch reuses its attempt number.
type AttemptRecord struct {
	Model         string        `json:"model"`
	Region        string        `json:"region"`
	AccessMethod  access.Method `json:"access_method"`
	AttemptNumber int           `json:"attempt_number"`
	Start         time.Time     `json:"start"`
	End           *time.Time    `json:"end,omitempty"`
	Success       bool          `json:"success"`
	Error         string        `json:"error,omitempty"`
}

// close marks the record complete.
func (r *AttemptRecord) close(success bool, err error) {
	now := time.Now().UTC()
	r.End = &now
	r.Success = success
	if err != nil {
		r.Error = err.Error()
	}
}

// AttemptLogger appends attempt records to a run-specific JSON-lines
// file. Adapted from engine/policy/audit.go's AuditLogger: same
// append-only, mutex-guarded, one-file-per-run shape, repointed at
// AttemptRecord instead of AuditEntry and with no redaction pass (attempt
// records carry no user-content fields to redact).
type AttemptLogger struct {
	mu    sync.Mutex
	file  *os.File
	path  string
	runID string
}

// NewAttemptLogger creates a logger appending to
// "<logDir>/attempts-<runID>.jsonl".
func NewAttemptLogger(runID, logDir string) (*AttemptLogger, error) {
	if err := os.MkdirAll(logDir, 0o700); err != nil {
		return nil, fmt.Errorf("create attempt log directory: %w", err)
	}

	path := filepath.Join(logDir, fmt.Sprintf("attempts-%s.jsonl", runID))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open attempt log: %w", err)
	}

	return &AttemptLogger{file: file, path: path, runID: runID}, nil
}

// Log appends one record to the file.
func (l *AttemptLogger) Log(record AttemptRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal attempt record: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return fmt.Errorf("attempt logger closed")
	}
	if _, err := l.file.Write(data); err != nil {
		return fmt.Errorf("write attempt record: %w", err)
	}
	return nil
}

// Close flushes and closes the log file.
func (l *AttemptLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync attempt log: %w", err)
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("close attempt log: %w", err)
	}
	l.file = nil
	return nil
}

// ReadAttemptLog reads all records written for a run.
func ReadAttemptLog(runID, logDir string) ([]AttemptRecord, error) {
	path := filepath.Join(logDir, fmt.Sprintf("attempts-%s.jsonl", runID))

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []AttemptRecord{}, nil
		}
		return nil, fmt.Errorf("read attempt log: %w", err)
	}

	var records []AttemptRecord
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var rec AttemptRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("parse attempt record line %d: %w", i+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
