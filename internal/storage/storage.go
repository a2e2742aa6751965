package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Data represents the persisted data structure.
type Data struct {
	Version   int                     `json:"version"`
	UpdatedAt time.Time               `json:"updated_at"`
	Contexts  map[string]*ContextData `json:"contexts"`
}

// ContextData represents the persisted state of one allocation context.
type ContextData struct {
	ID        string    `json:"id"`
	Domain    string    `json:"domain"`
	Type      string    `json:"type"`
	Decisions int64     `json:"decisions"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	currentVersion = 1
	dataFileName   = "collswitch_state.json"
)

// Storage persists the current type of every context so a restarted
// process can resume from the last decision.
type Storage struct {
	dataDir       string
	flushInterval time.Duration
	logger        *slog.Logger

	// saveMu serializes file writes; mu is never held across disk I/O.
	saveMu sync.Mutex

	mu     sync.RWMutex
	data   *Data
	dirty  bool
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a new Storage instance.
func New(dataDir string, flushInterval time.Duration, logger *slog.Logger) *Storage {
	if flushInterval <= 0 {
		flushInterval = 30 * time.Second
	}
	return &Storage{
		dataDir:       dataDir,
		flushInterval: flushInterval,
		logger:        logger,
		data:          newEmptyData(),
		done:          make(chan struct{}),
	}
}

func newEmptyData() *Data {
	return &Data{
		Version:   currentVersion,
		UpdatedAt: time.Now(),
		Contexts:  make(map[string]*ContextData),
	}
}

// Path returns the state file location.
func (s *Storage) Path() string {
	return filepath.Join(s.dataDir, dataFileName)
}

// Load loads data from disk. If file doesn't exist, returns empty data.
func (s *Storage) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	filePath := s.Path()

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("no existing state file, starting fresh", "path", filePath)
			s.data = newEmptyData()
			return nil
		}
		return err
	}
	defer file.Close()

	var data Data
	if err := json.NewDecoder(file).Decode(&data); err != nil {
		s.logger.Warn("failed to decode state file, starting fresh", "error", err)
		s.data = newEmptyData()
		return nil
	}

	// Validate version
	if data.Version > currentVersion {
		s.logger.Warn("state file version is newer than supported, starting fresh",
			"file_version", data.Version,
			"supported_version", currentVersion,
		)
		s.data = newEmptyData()
		return nil
	}

	// Ensure map is initialized
	if data.Contexts == nil {
		data.Contexts = make(map[string]*ContextData)
	}

	s.data = &data
	s.logger.Info("loaded state from disk",
		"path", filePath,
		"contexts", len(data.Contexts),
	)

	return nil
}

// Save saves data to disk. The state is encoded under the lock and written
// after it is released, so Record does not wait on the file system.
func (s *Storage) Save() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	s.data.UpdatedAt = time.Now()
	payload, err := json.MarshalIndent(s.data, "", "  ")
	gen := s.gen
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	err = WriteFileAtomic(s.Path(), func(w io.Writer) error {
		_, werr := w.Write(append(payload, '\n'))
		return werr
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	// A Record that landed during the write keeps the state dirty.
	if s.gen == gen {
		s.dirty = false
	}
	s.mu.Unlock()

	s.logger.Debug("saved state to disk", "path", s.Path())
	return nil
}

// Start starts the periodic flush goroutine.
func (s *Storage) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	go s.flushLoop(ctx)
}

// Stop stops the periodic flush and saves final state.
func (s *Storage) Stop() error {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}

	// Final save
	return s.Save()
}

func (s *Storage) flushLoop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.IsDirty() {
				if err := s.Save(); err != nil {
					s.logger.Error("failed to save state", "error", err)
				}
			}
		}
	}
}

// Record stores the new type of the context named in rec.
func (s *Storage) Record(rec DecisionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cd, ok := s.data.Contexts[rec.Context]
	if !ok {
		cd = &ContextData{ID: rec.Context}
		s.data.Contexts[rec.Context] = cd
	}
	cd.Domain = rec.Domain
	cd.Type = rec.New
	cd.Decisions++
	cd.UpdatedAt = rec.Timestamp
	s.dirty = true
	s.gen++
}

// GetContext returns the persisted state of a context.
func (s *Storage) GetContext(id string) *ContextData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cd, ok := s.data.Contexts[id]
	if !ok {
		return nil
	}
	copied := *cd
	return &copied
}

// GetAllContexts returns the persisted state of every context.
func (s *Storage) GetAllContexts() map[string]*ContextData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Return a copy
	result := make(map[string]*ContextData, len(s.data.Contexts))
	for k, v := range s.data.Contexts {
		copied := *v
		result[k] = &copied
	}
	return result
}

// IsDirty returns whether data has unsaved changes.
func (s *Storage) IsDirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// ContextCount returns the number of tracked contexts.
func (s *Storage) ContextCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.Contexts)
}
