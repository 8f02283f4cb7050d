package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hpungsan/glance/internal/activity"
	"github.com/hpungsan/glance/internal/errors"
	"github.com/hpungsan/glance/internal/logging"
)

const maxResponseTokens = 1000

// Client talks to an OpenAI-compatible chat-completions endpoint for both
// per-shot vision descriptions and text-only summary synthesis.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient creates a client for the given endpoint root (e.g.
// "https://api.openai.com/v1").
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Describe asks the vision model what the user is doing in the screenshot.
// The open-app context and the continuity hint are folded into the prompt so
// the description can say whether the user continued or switched tasks.
func (c *Client) Describe(ctx context.Context, imagePath string, apps []activity.AppInfo, hint string) (string, error) {
	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("read screenshot: %w", err))
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType(imagePath), base64.StdEncoding.EncodeToString(imageData))

	prompt := describePrompt(apps, hint)
	messages := []map[string]any{
		{
			"role": "user",
			"content": []map[string]any{
				{"type": "text", "text": prompt},
				{
					"type": "image_url",
					"image_url": map[string]any{
						"url":    dataURL,
						"detail": "auto",
					},
				},
			},
		},
	}

	logging.Logger.Debugf("describing screenshot (%d bytes) with %s", len(imageData), c.model)
	return c.chatCompletion(ctx, messages)
}

// Synthesize sends a text-only prompt and returns the model's reply verbatim.
func (c *Client) Synthesize(ctx context.Context, prompt string) (string, error) {
	messages := []map[string]any{
		{"role": "user", "content": prompt},
	}
	return c.chatCompletion(ctx, messages)
}

// chatCompletion posts one request and extracts the first choice's content.
func (c *Client) chatCompletion(ctx context.Context, messages []map[string]any) (string, error) {
	requestBody := map[string]any{
		"model":      c.model,
		"messages":   messages,
		"max_tokens": maxResponseTokens,
	}
	requestJSON, err := json.Marshal(requestBody)
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(requestJSON))
	if err != nil {
		return "", errors.NewInternal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", errors.NewAIService(resp.StatusCode, string(body))
	}

	var apiResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", errors.NewAIService(resp.StatusCode, fmt.Sprintf("malformed response: %v", err))
	}
	if len(apiResp.Choices) == 0 {
		return "", errors.NewAIService(resp.StatusCode, "response contained no choices")
	}
	return apiResp.Choices[0].Message.Content, nil
}

// describePrompt builds the per-shot prompt from the app snapshot and the
// continuity hint.
func describePrompt(apps []activity.AppInfo, hint string) string {
	var b strings.Builder
	b.WriteString("Describe what the user is doing on this screen in 2-3 sentences. ")
	b.WriteString("Focus on the task, not the pixels.\n")

	if len(apps) > 0 {
		b.WriteString("\nOpen applications:\n")
		for _, a := range apps {
			b.WriteString("- ")
			b.WriteString(a.Name)
			if a.Title != "" {
				b.WriteString(" (")
				b.WriteString(a.Title)
				b.WriteString(")")
			}
			if a.IsFrontmost {
				b.WriteString(" [frontmost]")
			}
			b.WriteString("\n")
		}
	}

	if hint != "" {
		b.WriteString("\nContext: ")
		b.WriteString(hint)
		b.WriteString("\n")
	}
	return b.String()
}

// mimeType guesses the screenshot's MIME type from its extension.
func mimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "image/png"
	}
}
