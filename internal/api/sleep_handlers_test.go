package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yourname/sleepcoach/internal"
	"github.com/yourname/sleepcoach/internal/ollama"
	"github.com/yourname/sleepcoach/internal/service"
	"github.com/yourname/sleepcoach/internal/storage"
)

type stubRepo struct {
	entries []internal.SleepEntry
	saveErr error
	listErr error
}

func (s *stubRepo) SaveSleepEntry(ctx context.Context, entry *internal.SleepEntry) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.entries = append([]internal.SleepEntry{*entry}, s.entries...)
	return nil
}

func (s *stubRepo) ListSleepEntries(ctx context.Context) ([]internal.SleepEntry, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.entries, nil
}

type stubAnalyzer struct {
	issues []string
	err    error
}

func (s *stubAnalyzer) AnalyzeIssues(ctx context.Context, entry *internal.SleepEntry) ([]string, error) {
	return s.issues, s.err
}

type stubCoach struct {
	tips []string
	err  error
}

func (s *stubCoach) GenerateTips(ctx context.Context, entry *internal.SleepEntry, issues []string) ([]string, error) {
	return s.tips, s.err
}

type testApp struct {
	logger     internal.Logger
	submission *service.Submission
	repo       storage.SleepEntryRepository
}

func (a *testApp) Logger() internal.Logger                 { return a.logger }
func (a *testApp) Submission() *service.Submission         { return a.submission }
func (a *testApp) SleepRepo() storage.SleepEntryRepository { return a.repo }

func setupRouter(t *testing.T, repo *stubRepo, analyzer *stubAnalyzer, coach *stubCoach) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := internal.NopLogger{}
	return NewRouter(&testApp{
		logger:     logger,
		submission: service.NewSubmission(repo, analyzer, coach, logger),
		repo:       repo,
	})
}

const validBody = `{
	"date": "2025-06-01",
	"bedtime": "2025-06-01T23:00:00Z",
	"waketime": "2025-06-02T04:00:00Z",
	"duration_minutes": 300,
	"rem_minutes": 70,
	"deep_minutes": 80,
	"core_minutes": 150
}`

func postSubmit(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/submit-sleep", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestPostSubmitSleep_Success(t *testing.T) {
	repo := &stubRepo{}
	r := setupRouter(t, repo,
		&stubAnalyzer{issues: []string{"Short total sleep", "Low REM sleep"}},
		&stubCoach{tips: []string{"t1", "t2", "t3"}})

	w := postSubmit(r, validBody)
	assert.Equal(t, 200, w.Code)

	var resp struct {
		Message       string              `json:"message"`
		SubmittedData internal.SleepEntry `json:"submittedData"`
		Analysis      []string            `json:"analysis"`
		Suggestions   []string            `json:"suggestions"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Sleep data received and analyzed", resp.Message)
	assert.Equal(t, "2025-06-01", resp.SubmittedData.Date)
	assert.Equal(t, []string{"Short total sleep", "Low REM sleep"}, resp.Analysis)
	assert.Equal(t, []string{"t1", "t2", "t3"}, resp.Suggestions)
	assert.Len(t, repo.entries, 1)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestPostSubmitSleep_InvalidJSON(t *testing.T) {
	r := setupRouter(t, &stubRepo{}, &stubAnalyzer{}, &stubCoach{})
	w := postSubmit(r, `{not json`)
	assert.Equal(t, 400, w.Code)
}

func TestPostSubmitSleep_ValidationFailure(t *testing.T) {
	r := setupRouter(t, &stubRepo{}, &stubAnalyzer{}, &stubCoach{})
	// Negative REM and a malformed date.
	body := strings.Replace(validBody, `"rem_minutes": 70`, `"rem_minutes": -5`, 1)
	w := postSubmit(r, body)
	assert.Equal(t, 400, w.Code)
}

func TestPostSubmitSleep_BackendStatusForwarded(t *testing.T) {
	repo := &stubRepo{}
	r := setupRouter(t, repo,
		&stubAnalyzer{err: &ollama.StatusError{StatusCode: 502, Body: "bad gateway"}},
		&stubCoach{})

	w := postSubmit(r, validBody)
	assert.Equal(t, 502, w.Code)
	// The entry was stored before the backend failed.
	assert.Len(t, repo.entries, 1)
}

func TestPostSubmitSleep_BackendUnreachable(t *testing.T) {
	r := setupRouter(t, &stubRepo{},
		&stubAnalyzer{err: &ollama.TransportError{}},
		&stubCoach{})

	w := postSubmit(r, validBody)
	assert.Equal(t, 503, w.Code)
}

func TestGetSleepData(t *testing.T) {
	repo := &stubRepo{}
	r := setupRouter(t, repo,
		&stubAnalyzer{issues: []string{}},
		&stubCoach{tips: []string{"t1"}})

	assert.Equal(t, 200, postSubmit(r, validBody).Code)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/sleep-data", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, 200, w.Code)

	var resp struct {
		Data []internal.SleepEntry `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, "2025-06-01", resp.Data[0].Date)
}

func TestGetHealth(t *testing.T) {
	r := setupRouter(t, &stubRepo{}, &stubAnalyzer{}, &stubCoach{})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/healthz", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, 200, w.Code)
}
