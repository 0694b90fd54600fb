package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"anti-ghosting/internal/config"

	"github.com/sirupsen/logrus"
)

var ErrEmptyResponse = errors.New("text generation returned no content")

// Generator turns a prompt and a system instruction into text.
type Generator interface {
	Generate(ctx context.Context, systemInstruction, prompt string) (string, error)
}

type httpClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	logger  logrus.FieldLogger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewClient talks to an OpenAI-compatible chat completions endpoint. It
// returns nil when no base URL is configured.
func NewClient(cfg config.TextGenConfig, logger logrus.FieldLogger) Generator {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *httpClient) Generate(ctx context.Context, systemInstruction, prompt string) (string, error) {
	if c == nil || c.client == nil {
		return "", errors.New("nil text generation client")
	}
	endpoint := c.baseURL + "/chat/completions"

	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		bodyStr := strings.TrimSpace(string(rb))
		c.logger.WithFields(logrus.Fields{
			"component": "textgen",
			"endpoint":  endpoint,
			"status":    resp.StatusCode,
		}).Warn("generation request failed")
		return "", fmt.Errorf("text generation failed: status=%d body=%s", resp.StatusCode, bodyStr)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

var _ Generator = (*httpClient)(nil)
