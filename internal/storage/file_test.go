package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/yourname/sleepcoach/internal"
)

func newTestEntry(id string, createdAt time.Time) *internal.SleepEntry {
	return &internal.SleepEntry{
		ID:              id,
		Date:            "2025-06-01",
		Bedtime:         createdAt.Add(-8 * time.Hour),
		Waketime:        createdAt,
		DurationMinutes: 480,
		RemMinutes:      100,
		DeepMinutes:     70,
		CoreMinutes:     310,
		CreatedAt:       createdAt,
	}
}

func TestFileStorageSaveAndList(t *testing.T) {
	file := filepath.Join(t.TempDir(), "entries.json")
	s, err := NewFileStorage(file, internal.NopLogger{})
	assert.NoError(t, err)
	defer s.Close()

	now := time.Now()
	assert.NoError(t, s.SaveSleepEntry(context.Background(), newTestEntry("e1", now.Add(-time.Hour))))
	assert.NoError(t, s.SaveSleepEntry(context.Background(), newTestEntry("e2", now)))

	entries, err := s.ListSleepEntries(context.Background())
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
	// Newest first.
	assert.Equal(t, "e2", entries[0].ID)
	assert.Equal(t, "e1", entries[1].ID)
}

func TestFileStoragePersistsAcrossReload(t *testing.T) {
	file := filepath.Join(t.TempDir(), "entries.json")

	s, err := NewFileStorage(file, internal.NopLogger{})
	assert.NoError(t, err)
	assert.NoError(t, s.SaveSleepEntry(context.Background(), newTestEntry("e1", time.Now())))
	assert.NoError(t, s.Close()) // flushes synchronously

	reloaded, err := NewFileStorage(file, internal.NopLogger{})
	assert.NoError(t, err)
	defer reloaded.Close()

	entries, err := reloaded.ListSleepEntries(context.Background())
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "e1", entries[0].ID)
	assert.Equal(t, 480, entries[0].DurationMinutes)
}

func TestFileStorageStartsEmpty(t *testing.T) {
	file := filepath.Join(t.TempDir(), "missing.json")
	s, err := NewFileStorage(file, internal.NopLogger{})
	assert.NoError(t, err)
	defer s.Close()

	entries, err := s.ListSleepEntries(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, entries)
}
