package openaiagent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/rajavaid77/claims-review-pipeline/internal/core/domain"
	"github.com/rajavaid77/claims-review-pipeline/internal/infrastructure/resilience"
)

const systemInstruction = "You are a claims review agent. You verify insurance " +
	"claim form data against member, patient and policy records and report " +
	"whether the claim can be approved or needs adjudicator review, with your " +
	"reasoning."

// Client invokes the conversational verification agent. The session id is
// passed as the request user so the provider keeps one logical conversation
// per claim reference across redeliveries.
type Client struct {
	client *openai.Client
	model  string
	guard  *resilience.Guard
	logger *slog.Logger
}

func New(baseURL, apiKey, model string, guard *resilience.Guard, logger *slog.Logger) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		guard:  guard,
		logger: logger,
	}
}

// Invoke streams one agent turn and returns the accumulated completion text.
// Non-content deltas (tool call fragments) are logged and discarded; the
// caller only needs the final narrative.
func (c *Client) Invoke(ctx context.Context, sessionID, prompt string) (string, error) {
	var text string
	err := c.guard.Execute(ctx, "agent.invoke", func(ctx context.Context) error {
		completion, err := c.streamCompletion(ctx, sessionID, prompt)
		if err != nil {
			return err
		}
		text = completion
		return nil
	})
	if err != nil {
		return "", domain.WrapError(domain.ErrVerificationTransport, "invoke verification agent", err)
	}
	return text, nil
}

func (c *Client) streamCompletion(ctx context.Context, sessionID, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		User:  sessionID,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Stream: true,
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var b strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		for _, choice := range chunk.Choices {
			if len(choice.Delta.ToolCalls) > 0 {
				c.logger.Debug("agent tool call delta discarded",
					"session_id", sessionID,
					"tool_calls", len(choice.Delta.ToolCalls))
				continue
			}
			b.WriteString(choice.Delta.Content)
		}
	}
	return strings.TrimSpace(b.String()), nil
}
