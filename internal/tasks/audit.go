package tasks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/epheterson/mcp-applemusic/internal/shared"
)

// AuditEntry is one mutating operation recorded in the audit log. Undo holds
// a human-readable description of how to reverse the operation.
type AuditEntry struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Operation string            `json:"operation"`
	Playlist  string            `json:"playlist,omitempty"`
	Track     string            `json:"track,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
	Undo      string            `json:"undo,omitempty"`
}

// AuditLog appends mutating operations to a JSONL file, one entry per line.
// Safe for concurrent use.
type AuditLog struct {
	path   string
	mu     sync.Mutex
	logger *log.Logger
}

// NewAuditLog opens an audit log at path. An empty path defaults to
// audit.log under the cache directory.
func NewAuditLog(path string, logger *log.Logger) (*AuditLog, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if path == "" {
		dir, err := shared.CacheDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "audit.log")
	}
	return &AuditLog{path: path, logger: logger}, nil
}

// Path returns the file the log appends to.
func (a *AuditLog) Path() string {
	return a.path
}

// Record appends an entry, assigning an id and timestamp when unset.
func (a *AuditLog) Record(entry AuditEntry) error {
	if entry.Operation == "" {
		return fmt.Errorf("%w: audit entry has no operation", shared.ErrInvalidInput)
	}
	if entry.ID == "" {
		entry.ID = shared.GenerateID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

// ReadRecent returns the most recent n entries, oldest first. A non-positive
// n returns every entry. A missing log file is an empty log, not an error.
func (a *AuditLog) ReadRecent(n int) ([]AuditEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	data, err := os.ReadFile(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}

	var entries []AuditEntry
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var entry AuditEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			a.logger.Warn("skipping malformed audit entry", "err", err)
			continue
		}
		entries = append(entries, entry)
	}

	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}
