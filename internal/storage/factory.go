package storage

import (
	"context"

	"github.com/yourname/sleepcoach/internal"
)

func NewFileRepository(entriesFile string, logger internal.Logger) (SleepEntryRepository, func() error, error) {
	storage, err := NewFileStorage(entriesFile, logger)
	if err != nil {
		return nil, nil, err
	}
	return storage, storage.Close, nil
}

func NewPostgresRepository(ctx context.Context, dsn string, logger internal.Logger) (SleepEntryRepository, func() error, error) {
	storage, err := NewPostgresStorage(ctx, dsn, logger)
	if err != nil {
		return nil, nil, err
	}
	return storage, func() error { storage.Close(); return nil }, nil
}
