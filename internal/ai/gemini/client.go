// Package gemini implements the model-call boundary on top of the
// Google GenAI chat API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/talentscout/intake-assistant/internal/ai"
	"github.com/talentscout/intake-assistant/internal/logger"
)

const (
	// Provider identifies this backend in log fields.
	Provider = "gemini"

	defaultModel = "gemini-2.5-flash"

	// A single attempt by default: the candidate's next turn is the
	// retry vector. max-retries opts into transient 5xx retries.
	defaultMaxRetries = 1

	retryBackoff = 2 * time.Second
)

var sleep = time.Sleep

// chatCreator abstracts genai chat creation for tests.
type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type apiChats struct {
	client *genai.Client
}

func (a *apiChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	chat, err := a.client.Chats.Create(ctx, model, config, history)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// Client talks to the Gemini API and satisfies ai.Completer. Transport
// failures surface as an error payload in the response, not as a Go
// error, so the caller's response validator handles them uniformly.
type Client struct {
	chats      chatCreator
	model      string
	maxRetries int
	maxLogLen  int
	logger     *zap.Logger
}

// New creates a Client backed by the Gemini API.
func New(ctx context.Context, apiKey, model string, maxRetries, maxLogLen int, log *zap.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &Client{
		chats:      &apiChats{client: client},
		model:      model,
		maxRetries: maxRetries,
		maxLogLen:  maxLogLen,
		logger:     logger.WithCommonFields(log, Provider, model),
	}, nil
}

// Model reports the configured model name.
func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

// Complete sends the prompt to Gemini and returns the textual response.
// Temporary API failures are retried; once retries are exhausted the
// failure is encoded into the returned payload via ai.ErrorPayload.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, opts ai.Options) (string, error) {
	if c == nil || c.chats == nil {
		return "", errors.New("gemini client is not initialized")
	}

	userPrompt = strings.TrimSpace(userPrompt)
	if userPrompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	config := &genai.GenerateContentConfig{}
	if systemPrompt = strings.TrimSpace(systemPrompt); systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		}
	}
	if opts.JSONMode {
		config.ResponseMIMEType = "application/json"
	}

	c.logger.Debug("sending completion request",
		zap.Bool("json_mode", opts.JSONMode),
		zap.String("prompt", logger.TruncateForLog(userPrompt, c.maxLogLen)),
	)

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		output, err := c.send(ctx, config, userPrompt)
		if err == nil {
			return output, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !isTemporary(err) {
			break
		}
		if attempt < c.maxRetries {
			c.logger.Warn("temporary api error, retrying",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			sleep(retryBackoff)
		}
	}

	c.logger.Error("completion failed", zap.Error(lastErr))
	return ai.ErrorPayload(lastErr), nil
}

func (c *Client) send(ctx context.Context, config *genai.GenerateContentConfig, prompt string) (string, error) {
	chat, err := c.chats.Create(ctx, c.model, config, nil)
	if err != nil {
		return "", fmt.Errorf("create chat: %w", err)
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: prompt})
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}

	output := collectText(resp)
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}
	return output, nil
}

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}
	return strings.TrimSpace(builder.String())
}

// isTemporary reports whether the API error is worth retrying. Server
// side 5xx errors qualify, client errors such as bad requests or
// exhausted quotas do not.
func isTemporary(err error) bool {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code >= 500 && apiErr.Code < 600
}
