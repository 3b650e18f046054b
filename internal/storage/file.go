package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/yourname/sleepcoach/internal"
)

// FileStorage keeps entries in memory and flushes them to a JSON file from a
// debounced background worker. It backs local development and tests; the
// postgres backend is the production one.
type FileStorage struct {
	entries      []*internal.SleepEntry
	mu           sync.RWMutex
	entriesFile  string
	saveChan     chan struct{}
	shutdownChan chan struct{}
	saveDelay    time.Duration
	logger       internal.Logger
}

func NewFileStorage(entriesFile string, logger internal.Logger) (*FileStorage, error) {
	s := &FileStorage{
		entriesFile:  entriesFile,
		saveChan:     make(chan struct{}, 1),
		shutdownChan: make(chan struct{}),
		saveDelay:    500 * time.Millisecond,
		logger:       logger,
	}

	if err := s.loadEntries(); err != nil {
		logger.Errorf("storage: failed to load sleep entries: %v", err)
		return nil, err
	}

	go s.saveWorker()

	return s, nil
}

func (s *FileStorage) loadEntries() error {
	file, err := os.Open(s.entriesFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	var entries []*internal.SleepEntry
	if err := json.NewDecoder(file).Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
	sort.Slice(s.entries, func(i, j int) bool {
		return s.entries[i].CreatedAt.After(s.entries[j].CreatedAt)
	})
	return nil
}

func atomicWriteFileJSON(filePath string, v interface{}) error {
	tempFile := filePath + ".tmp"
	file, err := os.Create(tempFile)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	return os.Rename(tempFile, filePath)
}

func (s *FileStorage) saveEntries() error {
	s.mu.RLock()
	entries := make([]*internal.SleepEntry, len(s.entries))
	copy(entries, s.entries)
	s.mu.RUnlock()

	return atomicWriteFileJSON(s.entriesFile, entries)
}

func (s *FileStorage) saveWorker() {
	timer := time.NewTimer(s.saveDelay)
	defer timer.Stop()

	for {
		select {
		case <-s.saveChan:
			timer.Reset(s.saveDelay)
		case <-timer.C:
			if err := s.saveEntries(); err != nil {
				s.logger.Errorf("storage: error saving sleep entries: %v", err)
			}
		case <-s.shutdownChan:
			return
		}
	}
}

// Close stops the save worker and flushes pending data synchronously.
func (s *FileStorage) Close() error {
	close(s.shutdownChan)
	return s.saveEntries()
}

func (s *FileStorage) SaveSleepEntry(ctx context.Context, entry *internal.SleepEntry) error {
	s.mu.Lock()
	// Newest first, append-only.
	s.entries = append([]*internal.SleepEntry{entry}, s.entries...)
	s.mu.Unlock()

	select {
	case s.saveChan <- struct{}{}:
	default:
	}
	return nil
}

func (s *FileStorage) ListSleepEntries(ctx context.Context) ([]internal.SleepEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]internal.SleepEntry, len(s.entries))
	for i, e := range s.entries {
		entries[i] = *e
	}
	return entries, nil
}

var _ SleepEntryRepository = (*FileStorage)(nil)
