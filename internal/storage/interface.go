package storage

import (
	"context"

	"github.com/yourname/sleepcoach/internal"
)

// SleepEntryRepository is the append-only store for sleep entries. There is
// deliberately no update or delete path.
type SleepEntryRepository interface {
	SaveSleepEntry(ctx context.Context, entry *internal.SleepEntry) error
	ListSleepEntries(ctx context.Context) ([]internal.SleepEntry, error)
}
