package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/comigor/gptchat/internal/chat"
	"github.com/comigor/gptchat/internal/config"
	"github.com/comigor/gptchat/internal/logger"
)

// ErrEmptyResponse is returned when the service answers without any choice.
var ErrEmptyResponse = errors.New("completion returned no choices")

// Completer asks a chat completion endpoint for the next assistant message.
type Completer struct {
	client       Client
	model        string
	systemPrompt string
}

// NewCompleter creates a Completer. The system prompt, when set, is sent
// ahead of every request but never becomes part of the transcript.
func NewCompleter(client Client, cfg config.LLMConfig) *Completer {
	model := cfg.Model
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	return &Completer{client: client, model: model, systemPrompt: cfg.SystemPrompt}
}

// Complete sends history and returns the first choice as a message.
func (c *Completer) Complete(ctx context.Context, history []chat.Message) (chat.Message, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	if c.systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: c.systemPrompt,
		})
	}
	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role().String(),
			Content: m.Content(),
		})
	}

	logger.L.Debug("LLM request", "model", c.model, "messages", len(messages))
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return chat.Message{}, fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return chat.Message{}, ErrEmptyResponse
	}

	reply := resp.Choices[0].Message
	role, err := chat.ParseRole(reply.Role)
	if err != nil {
		return chat.Message{}, fmt.Errorf("completion reply: %w", err)
	}
	logger.L.Debug("LLM response received", "id", resp.ID, "finish_reason", resp.Choices[0].FinishReason, "total_tokens", resp.Usage.TotalTokens)
	return chat.NewMessage(role, reply.Content), nil
}
