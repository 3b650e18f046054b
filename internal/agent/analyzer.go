package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourname/sleepcoach/internal"
	"github.com/yourname/sleepcoach/internal/ollama"
)

// Sleep-quality thresholds the analyzer prompt is written against, in
// minutes. A session below any of them gets the matching issue label.
const (
	MinTotalSleepMinutes = 420
	MinRemMinutes        = 90
	MinDeepMinutes       = 60
)

const analyzerPromptTemplate = `You are a sleep analysis assistant. Analyze the following sleep session and identify sleep quality issues.

Sleep data:
- Total sleep duration: %d minutes
- REM sleep: %d minutes
- Deep sleep: %d minutes
- Core sleep: %d minutes

Apply exactly these rules:
- If total sleep duration is less than %d minutes, report "Short total sleep".
- If REM sleep is less than %d minutes, report "Low REM sleep".
- If deep sleep is less than %d minutes, report "Low Deep sleep".

Respond ONLY with a JSON array of the applicable issue strings, for example ["Short total sleep"]. If no rule applies, respond with []. Do not include any other text.`

var analyzerFallbackKeys = []string{"issues", "analysis", "response", "results"}

// Analyzer asks the model backend which sleep-quality issues a session has.
type Analyzer struct {
	client ollama.Client
	model  string
	logger internal.Logger
}

func NewAnalyzer(client ollama.Client, model string, logger internal.Logger) *Analyzer {
	return &Analyzer{client: client, model: model, logger: logger}
}

func (a *Analyzer) buildPrompt(entry *internal.SleepEntry) string {
	return fmt.Sprintf(analyzerPromptTemplate,
		entry.DurationMinutes, entry.RemMinutes, entry.DeepMinutes, entry.CoreMinutes,
		MinTotalSleepMinutes, MinRemMinutes, MinDeepMinutes)
}

// AnalyzeIssues returns the issue labels the model identified, in the order
// it emitted them. An unparseable completion yields a sentinel-bearing list
// and no error; gateway failures are returned to the caller untouched.
func (a *Analyzer) AnalyzeIssues(ctx context.Context, entry *internal.SleepEntry) ([]string, error) {
	resp, err := a.client.Generate(ctx, a.model, a.buildPrompt(entry), true)
	if err != nil {
		return nil, err
	}

	issues, err := Normalize(resp.Text(), NormalizeOptions{
		FallbackKeys: analyzerFallbackKeys,
		AcceptKeys:   true,
	})
	if errors.Is(err, ErrNoRecognizableShape) {
		a.logger.Warnf("analyzer: %v, treating as no issues. Raw output: %s", err, resp.Text())
		return []string{}, nil
	}
	a.logger.Infof("analyzer: model %s identified %d issue(s)", a.model, len(issues))
	return issues, nil
}
