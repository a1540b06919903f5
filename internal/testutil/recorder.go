package testutil

import (
	"sync"

	"github.com/roach88/rcore/internal/ir"
	"github.com/roach88/rcore/internal/netcomm"
)

// Record is one update seen by a MemoryRecorder.
type Record struct {
	Net       string
	Direction ir.Direction
	Update    netcomm.Update
}

// MemoryRecorder keeps every applied channel update in memory, in the order
// the nets applied them.
//
// Unlike store.Recorder, MemoryRecorder can be reset for test reuse, so the
// same scenario can run several times against one recorder.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type MemoryRecorder struct {
	mu      sync.Mutex
	records []Record
}

// NewMemoryRecorder creates an empty recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// RecordUpdate implements netcomm.Recorder. It never fails.
func (r *MemoryRecorder) RecordUpdate(net string, dir ir.Direction, u netcomm.Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, Record{Net: net, Direction: dir, Update: u})
	return nil
}

// Records returns a copy of everything recorded so far.
func (r *MemoryRecorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Record(nil), r.records...)
}

// Key returns the updates of one channel key, in order.
func (r *MemoryRecorder) Key(key string) []netcomm.Update {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []netcomm.Update
	for _, rec := range r.records {
		if rec.Update.Key == key {
			out = append(out, rec.Update)
		}
	}
	return out
}

// Len returns the number of records.
func (r *MemoryRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Reset discards every record.
func (r *MemoryRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
}
