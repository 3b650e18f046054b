package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/yourname/sleepcoach/internal"
	"github.com/yourname/sleepcoach/internal/ollama"
	"github.com/yourname/sleepcoach/internal/response"
	"github.com/yourname/sleepcoach/internal/storage"
)

var validate = validator.New()

// SleepEntryRequest is the inbound shape for POST /submit-sleep. Fields are
// validated for type and range only; sub-durations are not required to sum
// to the total.
type SleepEntryRequest struct {
	Date            string    `json:"date" validate:"required,datetime=2006-01-02"`
	Bedtime         time.Time `json:"bedtime" validate:"required"`
	Waketime        time.Time `json:"waketime" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"gte=0"`
	RemMinutes      int       `json:"rem_minutes" validate:"gte=0"`
	DeepMinutes     int       `json:"deep_minutes" validate:"gte=0"`
	CoreMinutes     int       `json:"core_minutes" validate:"gte=0"`
}

func ValidateSleepEntryRequest(body *SleepEntryRequest) error {
	return validate.Struct(body)
}

// IssueAnalyzer and TipCoach are the two model-backed stages of a
// submission. Gateway failures come back as the ollama error types.
type IssueAnalyzer interface {
	AnalyzeIssues(ctx context.Context, entry *internal.SleepEntry) ([]string, error)
}

type TipCoach interface {
	GenerateTips(ctx context.Context, entry *internal.SleepEntry, issues []string) ([]string, error)
}

// Submission runs the store → analyze → coach pipeline for one entry.
type Submission struct {
	repo     storage.SleepEntryRepository
	analyzer IssueAnalyzer
	coach    TipCoach
	logger   internal.Logger
}

func NewSubmission(repo storage.SleepEntryRepository, analyzer IssueAnalyzer, coach TipCoach, logger internal.Logger) *Submission {
	return &Submission{repo: repo, analyzer: analyzer, coach: coach, logger: logger}
}

// Submit stores the entry and, only if the store succeeded, runs analysis
// and coaching over it. On failure it returns the HTTP status the handler
// should answer with: 500 for persistence or a malformed backend body, 503
// when the backend is unreachable, and the backend's own code when it
// returned an HTTP error.
func (s *Submission) Submit(ctx context.Context, body *SleepEntryRequest) (*response.SubmissionResponse, int, error) {
	entry := &internal.SleepEntry{
		ID:              uuid.NewString(),
		Date:            body.Date,
		Bedtime:         body.Bedtime,
		Waketime:        body.Waketime,
		DurationMinutes: body.DurationMinutes,
		RemMinutes:      body.RemMinutes,
		DeepMinutes:     body.DeepMinutes,
		CoreMinutes:     body.CoreMinutes,
		CreatedAt:       time.Now(),
	}

	if err := s.repo.SaveSleepEntry(ctx, entry); err != nil {
		// Analysis never runs on unpersisted data.
		return nil, http.StatusInternalServerError, err
	}
	s.logger.Infof("stored sleep entry %s for %s", entry.ID, entry.Date)

	issues, err := s.analyzer.AnalyzeIssues(ctx, entry)
	if err != nil {
		return nil, statusForBackendError(err), err
	}

	tips, err := s.coach.GenerateTips(ctx, entry, issues)
	if err != nil {
		return nil, statusForBackendError(err), err
	}

	return &response.SubmissionResponse{
		Message:       "Sleep data received and analyzed",
		SubmittedData: entry,
		Analysis:      issues,
		Suggestions:   tips,
	}, http.StatusOK, nil
}

// statusForBackendError maps gateway failures to response codes: the backend's
// own status is forwarded, an unreachable backend is a 503, and a backend
// that answered with a non-JSON body is a 500.
func statusForBackendError(err error) int {
	var statusErr *ollama.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	var transportErr *ollama.TransportError
	if errors.As(err, &transportErr) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
