package bus

import (
	"context"
	"sync"

	"github.com/petal-labs/appcore/event"
)

// MemJournal is a thread-safe in-memory journal.
type MemJournal struct {
	mu      sync.RWMutex
	records []event.Record
}

// NewMemJournal creates a new in-memory journal.
func NewMemJournal() *MemJournal {
	return &MemJournal{}
}

func (j *MemJournal) Append(_ context.Context, rec event.Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, rec)
	return nil
}

func (j *MemJournal) List(_ context.Context, afterSeq uint64, limit int) ([]event.Record, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var result []event.Record
	for _, rec := range j.records {
		if afterSeq > 0 && rec.Seq <= afterSeq {
			continue
		}
		result = append(result, rec)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (j *MemJournal) LatestSeq(_ context.Context) (uint64, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var maxSeq uint64
	for _, rec := range j.records {
		if rec.Seq > maxSeq {
			maxSeq = rec.Seq
		}
	}
	return maxSeq, nil
}

// Compile-time interface check.
var _ Journal = (*MemJournal)(nil)
