package monitor

import "sync"

// Window is a bounded, ordered batch of metrics records awaiting analysis.
// Monitors append to it; one optimizer drains it.
type Window struct {
	mu       sync.Mutex
	capacity int
	records  []*Metrics
}

// NewWindow creates a window holding at most capacity records.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{
		capacity: capacity,
		records:  make([]*Metrics, 0, capacity),
	}
}

// Add appends m. It returns false when the window is full.
func (w *Window) Add(m *Metrics) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.records) >= w.capacity {
		return false
	}
	w.records = append(w.records, m)
	return true
}

// Capacity returns the fixed window size.
func (w *Window) Capacity() int {
	return w.capacity
}

// Len returns the number of records currently held.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.records)
}

// FinishedCount returns how many held records are finished.
func (w *Window) FinishedCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.finishedLocked()
}

func (w *Window) finishedLocked() int {
	n := 0
	for _, m := range w.records {
		if m.Finished() {
			n++
		}
	}
	return n
}

// Drain snapshots and clears the window if at least threshold records are
// finished. Otherwise it leaves the window untouched and returns false.
// The returned snapshots include unfinished records.
func (w *Window) Drain(threshold int) ([]Snapshot, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.finishedLocked() < threshold {
		return nil, false
	}

	snaps := make([]Snapshot, len(w.records))
	for i, m := range w.records {
		snaps[i] = m.Snapshot()
	}

	clear(w.records)
	w.records = w.records[:0]

	return snaps, true
}

// Reset drops every record.
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	clear(w.records)
	w.records = w.records[:0]
}

// WindowStats describes a window at one moment.
type WindowStats struct {
	Capacity int `json:"capacity"`
	Records  int `json:"records"`
	Finished int `json:"finished"`
}

// Stats returns the current fill of the window.
func (w *Window) Stats() WindowStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return WindowStats{
		Capacity: w.capacity,
		Records:  len(w.records),
		Finished: w.finishedLocked(),
	}
}
