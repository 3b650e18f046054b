package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yourname/sleepcoach/internal"
)

// Client is the outbound gateway to the Ollama generate API. Implementations
// make exactly one attempt per call; retry policy belongs to callers, and no
// caller retries.
type Client interface {
	Generate(ctx context.Context, model, prompt string, jsonFormat bool) (GenerateResponse, error)
}

// GenerateResponse is the backend's JSON-decoded response body, passed
// through opaquely. The completion lives in the "response" field.
type GenerateResponse map[string]interface{}

// Text returns the completion string, or "" when the field is absent or not
// a string.
func (r GenerateResponse) Text() string {
	s, _ := r["response"].(string)
	return s
}

// TransportError covers network-level failures: unreachable host, DNS,
// timeout. The backend was never (or not fully) reached.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("ollama request failed: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ollama returned %d: %s", e.StatusCode, e.Body)
}

// DecodeError means the backend's top-level response body was not valid JSON.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("ollama response not JSON: %v", e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

type HTTPClient struct {
	apiURL     string
	httpClient *http.Client
	logger     internal.Logger
}

func NewHTTPClient(apiURL string, logger internal.Logger) *HTTPClient {
	return &HTTPClient{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

func (c *HTTPClient) Generate(ctx context.Context, model, prompt string, jsonFormat bool) (GenerateResponse, error) {
	reqBody := generateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
	}
	if jsonFormat {
		reqBody.Format = "json"
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal generate request: %w", err)
	}

	c.logger.Debugf("ollama: sending prompt to model %s (format=%s)", model, reqBody.Format)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Errorf("ollama: request to %s failed: %v", c.apiURL, err)
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Errorf("ollama: backend returned %d: %s", resp.StatusCode, string(body))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var decoded GenerateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		c.logger.Errorf("ollama: failed to decode response body: %v", err)
		return nil, &DecodeError{Err: err}
	}
	return decoded, nil
}

var _ Client = (*HTTPClient)(nil)
