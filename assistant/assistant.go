// Package assistant wires the memory subsystem to a Claude-backed chat
// assistant. Before each model call it pulls the user's memory context into
// the system prompt, and after each response it records the turn so future
// conversations can draw on it.
package assistant

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/rs/zerolog/log"

	"github.com/finchat/hybridmem/memory"
)

var logger = log.With().Str("component", "assistant").Logger()

// DefaultModel is the chat model used unless overridden.
const DefaultModel = "claude-sonnet-4-20250514"

// DefaultSystemPrompt frames the assistant's role.
const DefaultSystemPrompt = `You are a personal financial assistant. You help users understand stocks, build watchlists, and reason about risk.

You remember past conversations with each user. When memory context is provided below, use it to personalize your answers, but never claim to remember something that is not in it.

Be concise. Never present guesses as financial advice.`

// Assistant is a stateful chat collaborator with hybrid memory.
type Assistant struct {
	client       *anthropic.Client
	mem          *memory.HybridManager
	model        anthropic.Model
	maxTokens    int64
	systemPrompt string
}

// Option configures the assistant.
type Option func(*Assistant)

// WithModel overrides the chat model.
func WithModel(model string) Option {
	return func(a *Assistant) {
		a.model = anthropic.Model(model)
	}
}

// WithMaxTokens overrides the per-response token cap.
func WithMaxTokens(n int64) Option {
	return func(a *Assistant) {
		a.maxTokens = n
	}
}

// WithSystemPrompt overrides the base system prompt. Memory context is still
// appended to it.
func WithSystemPrompt(prompt string) Option {
	return func(a *Assistant) {
		a.systemPrompt = prompt
	}
}

// New creates an assistant over the given Anthropic client and memory
// manager.
func New(client *anthropic.Client, mem *memory.HybridManager, opts ...Option) *Assistant {
	a := &Assistant{
		client:       client,
		mem:          mem,
		model:        DefaultModel,
		maxTokens:    1024,
		systemPrompt: DefaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Reply contains the model response and what the memory system did with the
// turn.
type Reply struct {
	Text    string
	Receipt *memory.TurnReceipt
}

// Chat sends one user message and records the exchange.
func (a *Assistant) Chat(ctx context.Context, userID, message string) (*Reply, error) {
	return a.chat(ctx, userID, message, nil)
}

// ChatStream is Chat with incremental text delivery. onText receives each
// text delta as it arrives; the returned Reply holds the full response.
func (a *Assistant) ChatStream(ctx context.Context, userID, message string, onText func(string)) (*Reply, error) {
	if onText == nil {
		return nil, fmt.Errorf("assistant: onText callback is required")
	}
	return a.chat(ctx, userID, message, onText)
}

func (a *Assistant) chat(ctx context.Context, userID, message string, onText func(string)) (*Reply, error) {
	bundle, err := a.mem.ContextFor(ctx, userID)
	if err != nil {
		// ContextFor degrades internally; an error here means even the
		// degraded path failed. Answer without memory.
		logger.Warn().Err(err).Str("user_id", userID).Msg("answering without memory context")
		bundle = &memory.ContextBundle{}
	}

	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(message)),
		},
		System: []anthropic.TextBlockParam{
			{Text: a.buildSystemPrompt(bundle)},
		},
	}

	var resp *anthropic.Message
	if onText != nil {
		resp, err = a.createMessageStreaming(ctx, params, onText)
	} else {
		resp, err = a.client.Messages.New(ctx, params)
	}
	if err != nil {
		return nil, fmt.Errorf("assistant: chat: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	receipt, err := a.mem.RecordTurn(ctx, userID, message, text, nil)
	if err != nil {
		// Memory failures never cost the user their answer.
		logger.Warn().Err(err).Str("user_id", userID).Msg("turn not recorded")
	}
	return &Reply{Text: text, Receipt: receipt}, nil
}

// buildSystemPrompt appends the user's memory context to the base prompt.
func (a *Assistant) buildSystemPrompt(bundle *memory.ContextBundle) string {
	if bundle.Empty() {
		return a.systemPrompt
	}
	return a.systemPrompt + "\n\nMEMORY CONTEXT:\n" + bundle.Format()
}

// createMessageStreaming accumulates a streamed response while forwarding
// text deltas to the callback.
func (a *Assistant) createMessageStreaming(ctx context.Context, params anthropic.MessageNewParams, onText func(string)) (*anthropic.Message, error) {
	stream := a.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			logger.Debug().Err(err).Msg("accumulate event")
		}

		switch evt := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := evt.Delta.AsAny().(anthropic.TextDelta); ok {
				onText(delta.Text)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}
	return &message, nil
}
