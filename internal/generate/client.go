package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"docforge/internal/models"
)

const (
	openAIBaseURL    = "https://api.openai.com/v1"
	anthropicBaseURL = "https://api.anthropic.com/v1"
	defaultTimeout   = 120 * time.Second
)

// ProviderError is surfaced to callers with a retryability hint; the handler
// forwards both in the error details.
type ProviderError struct {
	Message   string
	Retryable bool
}

func (e *ProviderError) Error() string {
	return e.Message
}

// Client dispatches one generation request to an AI provider.
type Client interface {
	Generate(ctx context.Context, provider, model, apiKey, prompt string) (string, error)
}

// HTTPClient talks to the OpenAI chat-completions and Anthropic messages
// APIs over plain HTTP.
type HTTPClient struct {
	httpClient       *http.Client
	openAIBaseURL    string
	anthropicBaseURL string
}

func NewHTTPClient() *HTTPClient {
	return &HTTPClient{
		httpClient:       &http.Client{Timeout: defaultTimeout},
		openAIBaseURL:    openAIBaseURL,
		anthropicBaseURL: anthropicBaseURL,
	}
}

func (c *HTTPClient) Generate(ctx context.Context, provider, model, apiKey, prompt string) (string, error) {
	switch provider {
	case models.ProviderOpenAI:
		return c.generateOpenAI(ctx, model, apiKey, prompt)
	case models.ProviderAnthropic:
		return c.generateAnthropic(ctx, model, apiKey, prompt)
	default:
		return "", &ProviderError{Message: fmt.Sprintf("unsupported provider %q", provider)}
	}
}

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *HTTPClient) generateOpenAI(ctx context.Context, model, apiKey, prompt string) (string, error) {
	payload := openAIRequest{
		Model:    model,
		Messages: []openAIMessage{{Role: "user", Content: prompt}},
	}

	body, status, err := c.post(ctx, c.openAIBaseURL+"/chat/completions", payload, map[string]string{
		"Authorization": "Bearer " + apiKey,
	})
	if err != nil {
		return "", err
	}

	var parsed openAIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &ProviderError{Message: "invalid provider response", Retryable: false}
	}
	if status != http.StatusOK {
		msg := fmt.Sprintf("provider returned status %d", status)
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return "", &ProviderError{Message: msg, Retryable: retryableStatus(status)}
	}
	if len(parsed.Choices) == 0 {
		return "", &ProviderError{Message: "provider returned no choices"}
	}
	return parsed.Choices[0].Message.Content, nil
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *HTTPClient) generateAnthropic(ctx context.Context, model, apiKey, prompt string) (string, error) {
	payload := anthropicRequest{
		Model:     model,
		MaxTokens: 4096,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	}

	body, status, err := c.post(ctx, c.anthropicBaseURL+"/messages", payload, map[string]string{
		"x-api-key":         apiKey,
		"anthropic-version": "2023-06-01",
	})
	if err != nil {
		return "", err
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &ProviderError{Message: "invalid provider response", Retryable: false}
	}
	if status != http.StatusOK {
		msg := fmt.Sprintf("provider returned status %d", status)
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return "", &ProviderError{Message: msg, Retryable: retryableStatus(status)}
	}
	if len(parsed.Content) == 0 {
		return "", &ProviderError{Message: "provider returned no content"}
	}
	return parsed.Content[0].Text, nil
}

func (c *HTTPClient) post(ctx context.Context, url string, payload interface{}, headers map[string]string) ([]byte, int, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network failures are worth retrying from the caller's side.
		return nil, 0, &ProviderError{Message: err.Error(), Retryable: true}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, 0, &ProviderError{Message: err.Error(), Retryable: true}
	}
	return body, resp.StatusCode, nil
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}
