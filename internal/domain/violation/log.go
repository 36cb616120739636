package violation

import (
	"sync"
	"time"
)

// DefaultMaxEntries is the default bound on retained records.
const DefaultMaxEntries = 1000

// Log is a bounded, insertion-ordered record of denied requests.
// Insertion beyond the bound evicts the oldest records (FIFO); overflow is
// silent and non-fatal, observable only through Query. Safe for concurrent
// use.
type Log struct {
	mu      sync.Mutex
	records []Record
	max     int
}

// NewLog creates a violation log bounded to max entries.
// A non-positive max falls back to DefaultMaxEntries.
func NewLog(max int) *Log {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return &Log{
		records: make([]Record, 0, max),
		max:     max,
	}
}

// Record appends a violation, dropping from the front when the bound is
// exceeded.
func (l *Log) Record(r Record) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.records) >= l.max {
		// Shift left, drop oldest.
		copy(l.records, l.records[1:])
		l.records[len(l.records)-1] = r
		return
	}
	l.records = append(l.records, r)
}

// Query returns up to limit of the most recent records, newest first,
// optionally filtered to those at or after since (zero time disables the
// filter). A non-positive limit returns nothing.
func (l *Log) Query(limit int, since time.Time) []Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 {
		return nil
	}

	var result []Record
	for i := len(l.records) - 1; i >= 0 && len(result) < limit; i-- {
		r := l.records[i]
		if !since.IsZero() && r.Timestamp.Before(since) {
			// Records are insertion-ordered; everything earlier is
			// older still.
			break
		}
		result = append(result, r)
	}
	return result
}

// EvictOlderThan removes records with timestamps before the cutoff.
// Returns the number of records evicted.
func (l *Log) EvictOlderThan(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Records are in insertion order; find the first one at or after the
	// cutoff and drop everything before it.
	keep := len(l.records)
	for i, r := range l.records {
		if !r.Timestamp.Before(cutoff) {
			keep = i
			break
		}
	}
	if keep == 0 {
		return 0
	}
	evicted := keep
	l.records = append(l.records[:0], l.records[keep:]...)
	return evicted
}

// Len returns the number of retained records.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Clear removes all records. Restricted to test and maintenance use.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = l.records[:0]
}
