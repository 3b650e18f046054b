package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yourname/sleepcoach/internal"
	"github.com/yourname/sleepcoach/internal/ollama"
)

// TipCount is the number of coaching tips a submission response carries.
const TipCount = 3

// FallbackTip is returned alone when the model produced no usable tips.
const FallbackTip = "Try to maintain a consistent sleep schedule, going to bed and waking up at the same time every day."

const coachPromptTemplate = `You are a supportive sleep coach. A user logged the following sleep session:

- Total sleep duration: %d minutes
- REM sleep: %d minutes
- Deep sleep: %d minutes
- Core sleep: %d minutes

%s

Give the user exactly %d short, actionable coaching tips to improve their sleep.

Respond ONLY with a JSON array of exactly %d tip strings, for example ["tip one", "tip two", "tip three"]. Do not include any other text.`

var coachFallbackKeys = []string{"tips", "suggestions", "response", "results"}

// Coach asks the model backend for coaching tips conditioned on the
// analyzer's issue labels.
type Coach struct {
	client ollama.Client
	model  string
	logger internal.Logger
}

func NewCoach(client ollama.Client, model string, logger internal.Logger) *Coach {
	return &Coach{client: client, model: model, logger: logger}
}

func (c *Coach) buildPrompt(entry *internal.SleepEntry, issues []string) string {
	issueClause := "No specific issues were identified with this session."
	if len(issues) > 0 {
		issueClause = "The following issues were identified: " + strings.Join(issues, ", ") + "."
	}
	return fmt.Sprintf(coachPromptTemplate,
		entry.DurationMinutes, entry.RemMinutes, entry.DeepMinutes, entry.CoreMinutes,
		issueClause, TipCount, TipCount)
}

// GenerateTips returns at most TipCount tips. Surplus tips are truncated in
// order; a shortfall of one or two real tips is returned as-is rather than
// padded with filler. Zero tips falls back to FallbackTip. Gateway failures
// are returned to the caller untouched.
func (c *Coach) GenerateTips(ctx context.Context, entry *internal.SleepEntry, issues []string) ([]string, error) {
	resp, err := c.client.Generate(ctx, c.model, c.buildPrompt(entry, issues), true)
	if err != nil {
		return nil, err
	}

	tips, err := Normalize(resp.Text(), NormalizeOptions{
		FallbackKeys: coachFallbackKeys,
		AcceptKeys:   false,
	})
	if errors.Is(err, ErrNoRecognizableShape) {
		c.logger.Warnf("coach: %v. Raw output: %s", err, resp.Text())
		tips = nil
	}

	switch {
	case len(tips) == 0:
		c.logger.Warnf("coach: model %s produced no tips, using fallback", c.model)
		return []string{FallbackTip}, nil
	case len(tips) > TipCount:
		c.logger.Infof("coach: model %s produced %d tips, truncating to %d", c.model, len(tips), TipCount)
		return tips[:TipCount], nil
	default:
		return tips, nil
	}
}
