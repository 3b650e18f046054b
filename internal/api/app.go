package api

import (
	"github.com/yourname/sleepcoach/internal"
	"github.com/yourname/sleepcoach/internal/service"
	"github.com/yourname/sleepcoach/internal/storage"
)

type App interface {
	Logger() internal.Logger
	Submission() *service.Submission
	SleepRepo() storage.SleepEntryRepository
}
