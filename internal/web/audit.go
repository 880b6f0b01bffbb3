package web

import (
	"net/http"
	"os"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/readstack/catalog/internal/catalog"
)

var auditJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// auditEntry records one staff action against the catalog.
type auditEntry struct {
	Time       time.Time `json:"time"`
	User       string    `json:"user"`
	Action     string    `json:"action"`
	Target     string    `json:"target"`
	Path       string    `json:"path"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
}

type auditSink interface {
	Write(entry auditEntry) error
}

// auditLog keeps a bounded in-memory trail and mirrors entries to a sink.
type auditLog struct {
	mu      sync.Mutex
	entries []auditEntry
	max     int
	sink    auditSink
}

func newAuditLog(max int, sink auditSink) *auditLog {
	if max <= 0 {
		max = 200
	}
	return &auditLog{max: max, sink: sink}
}

func (l *auditLog) add(entry auditEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
	if l.sink != nil {
		// Best-effort persistence; a failed write must not fail the request.
		_ = l.sink.Write(entry)
	}
}

func (l *auditLog) recent(limit int) []auditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if limit <= 0 || limit > len(l.entries) {
		limit = len(l.entries)
	}
	out := make([]auditEntry, limit)
	copy(out, l.entries[len(l.entries)-limit:])
	return out
}

// fileAuditSink appends entries as JSONL.
type fileAuditSink struct {
	mu   sync.Mutex
	file *os.File
}

func newFileAuditSink(path string) (*fileAuditSink, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, err
	}
	return &fileAuditSink{file: f}, nil
}

func (s *fileAuditSink) Write(entry auditEntry) error {
	if s == nil || s.file == nil {
		return nil
	}
	b, err := auditJSON.Marshal(entry)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.file.Write(append(b, '\n'))
	return err
}

// recordAction captures a staff mutation for the audit trail.
func (h *Handler) recordAction(r *http.Request, user *catalog.User, action, target string) {
	if h.audit == nil {
		return
	}
	username := ""
	if user != nil {
		username = user.Username
	}
	h.audit.add(auditEntry{
		Time:       time.Now().UTC(),
		User:       username,
		Action:     action,
		Target:     target,
		Path:       r.URL.Path,
		RemoteAddr: r.RemoteAddr,
	})
}
