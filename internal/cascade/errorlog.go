package cascade

import (
	"sync"

	"github.com/ShayCichocki/taskweave/pkg/models"
)

// ErrorLog is an append-only list of ErrorRecords. It is safe for
// concurrent use; readers get copies.
type ErrorLog struct {
	mu      sync.Mutex
	records []models.ErrorRecord
}

// NewErrorLog creates an empty log.
func NewErrorLog() *ErrorLog {
	return &ErrorLog{}
}

// Append adds a record.
func (l *ErrorLog) Append(rec models.ErrorRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
}

// Records returns every record in append order.
func (l *ErrorLog) Records() []models.ErrorRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.ErrorRecord(nil), l.records...)
}

// For returns the records of one subtask.
func (l *ErrorLog) For(subtaskID string) []models.ErrorRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.ErrorRecord
	for _, r := range l.records {
		if r.SubtaskID == subtaskID {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of records.
func (l *ErrorLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
