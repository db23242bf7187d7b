package sendlog

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Type classifies a log entry for the dashboard.
type Type string

const (
	Info    Type = "info"
	Success Type = "success"
	Error   Type = "error"
	Warning Type = "warning"
)

// Entry is one append-only record of a dispatch step outcome.
type Entry struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
	Type      Type   `json:"type"`
	Details   string `json:"details,omitempty"`
}

// Log is the session-wide sending log. Entries are kept newest-first and
// the log grows unbounded for the lifetime of the process.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
	notify  func(Entry)
}

func New() *Log {
	l := &Log{now: time.Now}
	l.entries = []Entry{{
		ID:        "initial",
		Timestamp: l.now().Format("15:04:05"),
		Message:   "System initialized and ready to send messages",
		Type:      Info,
	}}
	return l
}

// SetNotifier registers a hook invoked for every appended entry, e.g. a
// websocket hub pushing entries to connected dashboards.
func (l *Log) SetNotifier(fn func(Entry)) {
	l.mu.Lock()
	l.notify = fn
	l.mu.Unlock()
}

// Add prepends a new entry so display order is newest-first. Entry ids are
// a millisecond timestamp plus a random suffix; entries appended by the
// same operation share the timestamp prefix.
func (l *Log) Add(message string, t Type, details string) Entry {
	l.mu.Lock()
	now := l.now()
	entry := Entry{
		ID:        fmt.Sprintf("%d-%s", now.UnixMilli(), randomSuffix()),
		Timestamp: now.Format("15:04:05"),
		Message:   message,
		Type:      t,
		Details:   details,
	}
	l.entries = append([]Entry{entry}, l.entries...)
	notify := l.notify
	l.mu.Unlock()

	if notify != nil {
		notify(entry)
	}
	return entry
}

// Entries returns a copy of the log, newest first.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) Clear() {
	l.mu.Lock()
	l.entries = []Entry{}
	l.mu.Unlock()
}

// SuccessfulSends counts distinct send operations that produced a success
// entry, grouping per-recipient entries by their id timestamp prefix.
// Entries whose message doesn't mention a sent message are ignored.
func (l *Log) SuccessfulSends() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ops := make(map[string]bool)
	for _, e := range l.entries {
		if e.Type != Success || !strings.Contains(e.Message, "Message sent") {
			continue
		}
		prefix, _, _ := strings.Cut(e.ID, "-")
		ops[prefix] = true
	}
	return len(ops)
}

func randomSuffix() string {
	return strconv.FormatInt(rand.Int63n(1<<47), 36)
}
