package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DecisionRecord is one accepted optimizer decision.
type DecisionRecord struct {
	ID        uuid.UUID `json:"id"`
	Context   string    `json:"context"`
	Domain    string    `json:"domain"`
	Old       string    `json:"old"`
	New       string    `json:"new"`
	Timestamp time.Time `json:"timestamp"`
}

// NewDecisionRecord creates a record stamped with a fresh ID and the current time.
func NewDecisionRecord(contextID, domain, oldType, newType string) DecisionRecord {
	return DecisionRecord{
		ID:        uuid.New(),
		Context:   contextID,
		Domain:    domain,
		Old:       oldType,
		New:       newType,
		Timestamp: time.Now(),
	}
}

// Switched reports whether the decision changed the type.
func (r DecisionRecord) Switched() bool {
	return r.Old != r.New
}

// StdoutDestination selects standard output as the decision log.
const StdoutDestination = "-"

// DecisionLog appends decision records as JSON lines. Records are buffered
// in memory and written on every flush interval and on Stop.
type DecisionLog struct {
	dest          string
	flushInterval time.Duration
	logger        *slog.Logger

	// writeMu serializes flushes and owns out; mu guards the queue only,
	// so Record never waits on the writer.
	writeMu sync.Mutex
	out     io.Writer
	closer  io.Closer

	mu      sync.Mutex
	pending []DecisionRecord
	written int64

	cancel context.CancelFunc
	done   chan struct{}
}

// OpenDecisionLog opens dest for appending; StdoutDestination writes to
// standard output.
func OpenDecisionLog(dest string, flushInterval time.Duration, logger *slog.Logger) (*DecisionLog, error) {
	if flushInterval <= 0 {
		flushInterval = time.Second
	}

	l := &DecisionLog{
		dest:          dest,
		flushInterval: flushInterval,
		logger:        logger,
		done:          make(chan struct{}),
	}

	if dest == StdoutDestination {
		l.out = os.Stdout
		return l, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return nil, fmt.Errorf("failed to create decision log directory: %w", err)
	}
	file, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open decision log: %w", err)
	}
	l.out = file
	l.closer = file
	return l, nil
}

// NewDecisionLogWriter creates a decision log writing to w.
func NewDecisionLogWriter(w io.Writer, flushInterval time.Duration, logger *slog.Logger) *DecisionLog {
	if flushInterval <= 0 {
		flushInterval = time.Second
	}
	return &DecisionLog{
		dest:          "writer",
		flushInterval: flushInterval,
		logger:        logger,
		out:           w,
		done:          make(chan struct{}),
	}
}

// Record queues a record for the next flush.
func (l *DecisionLog) Record(rec DecisionRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = append(l.pending, rec)
}

// Pending returns the number of queued records.
func (l *DecisionLog) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Written returns the number of records written so far.
func (l *DecisionLog) Written() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.written
}

// Flush writes every queued record. Records queued while the write is in
// progress go to the next flush.
func (l *DecisionLog) Flush() error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.mu.Lock()
	batch := l.pending
	l.pending = nil
	l.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	buf := bufio.NewWriter(l.out)
	enc := json.NewEncoder(buf)
	for i, rec := range batch {
		if err := enc.Encode(rec); err != nil {
			l.requeue(batch[i:])
			return fmt.Errorf("failed to encode decision: %w", err)
		}
	}
	if err := buf.Flush(); err != nil {
		l.requeue(batch)
		return fmt.Errorf("failed to write decision log: %w", err)
	}

	l.mu.Lock()
	l.written += int64(len(batch))
	l.mu.Unlock()

	l.logger.Debug("flushed decisions", "dest", l.dest, "records", len(batch))
	return nil
}

// requeue puts unwritten records back ahead of anything queued since.
func (l *DecisionLog) requeue(batch []DecisionRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = append(batch, l.pending...)
}

// Start starts the periodic flush goroutine.
func (l *DecisionLog) Start(ctx context.Context) {
	ctx, l.cancel = context.WithCancel(ctx)

	go l.flushLoop(ctx)
}

// Stop stops the periodic flush, writes what is left and closes the file.
func (l *DecisionLog) Stop() error {
	if l.cancel != nil {
		l.cancel()
		<-l.done
		l.cancel = nil
	}

	err := l.Flush()

	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	if l.closer != nil {
		if cerr := l.closer.Close(); cerr != nil && err == nil {
			err = cerr
		}
		l.closer = nil
	}
	return err
}

func (l *DecisionLog) flushLoop(ctx context.Context) {
	defer close(l.done)

	ticker := time.NewTicker(l.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := l.Flush(); err != nil {
				l.logger.Error("failed to flush decision log", "error", err)
			}
		}
	}
}

// ReadDecisions decodes a JSON lines decision log.
func ReadDecisions(r io.Reader) ([]DecisionRecord, error) {
	var records []DecisionRecord
	dec := json.NewDecoder(r)
	for dec.More() {
		var rec DecisionRecord
		if err := dec.Decode(&rec); err != nil {
			return records, fmt.Errorf("failed to decode decision: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}
