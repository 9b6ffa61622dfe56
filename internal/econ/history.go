package econ

import "sync"

// DefaultHistoryLimit bounds the transfer history display.
const DefaultHistoryLimit = 50

// TransferRecord is one applied transfer as shown in the live history. ID is
// a display key assigned by the owning log, not a server identity.
type TransferRecord struct {
	ID           int
	FromName     string
	ToName       string
	ResourceType string
	Quantity     int
	Time         string
}

// HistoryLog is a bounded, newest-first, append-only record of transfers.
// Ordering is strictly by arrival of the append; out-of-order or duplicate
// push deliveries land as-is. Each log owns its own id counter so independent
// instances never share state.
type HistoryLog struct {
	mu       sync.Mutex
	limit    int
	nextID   int
	entries  []TransferRecord
	onChange func()
}

func NewHistoryLog(limit int, onChange func()) *HistoryLog {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if onChange == nil {
		onChange = func() {}
	}
	return &HistoryLog{limit: limit, onChange: onChange}
}

// Append prepends a record, assigning the next display id and evicting the
// oldest entry once the limit is exceeded.
func (l *HistoryLog) Append(rec TransferRecord) TransferRecord {
	l.mu.Lock()
	l.nextID++
	rec.ID = l.nextID
	l.entries = append([]TransferRecord{rec}, l.entries...)
	if len(l.entries) > l.limit {
		l.entries = l.entries[:l.limit]
	}
	l.mu.Unlock()
	l.onChange()
	return rec
}

// Entries returns a copy of the log, newest first.
func (l *HistoryLog) Entries() []TransferRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]TransferRecord, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *HistoryLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
