// Package openai provides a model wrapper for the OpenAI Chat Completions API.
package openai

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentpilot/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Options configures the OpenAI model adapter.
type Options struct {
	Model       openai.ChatModel
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Model wraps the OpenAI chat completions API behind the generic
// model.Model interface.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       openai.ChatModelGPT4o,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := openai.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       openai.ChatModelGPT4o,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate implements model.Model. When req.Stream is set, partial chunks are
// emitted as deltas arrive from the API, followed by a terminal chunk carrying
// the finish reason.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Chunk, <-chan error) {
	out := make(chan model.Chunk, 8)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params := openai.ChatCompletionNewParams{
			Model:               m.opts.Model,
			Temperature:         openai.Float(m.opts.Temperature),
			MaxCompletionTokens: openai.Int(m.opts.MaxTokens),
			Messages:            m.messages(req),
		}

		if req.Stream {
			m.generateStream(ctx, params, out, errCh)
			return
		}

		resp, err := m.client.Chat.Completions.New(ctx, params)
		if err != nil {
			errCh <- fmt.Errorf("openai api error: %w", err)
			return
		}
		if len(resp.Choices) == 0 {
			errCh <- fmt.Errorf("openai api returned no choices")
			return
		}

		choice := resp.Choices[0]
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case out <- model.Chunk{Text: choice.Message.Content, FinishReason: string(choice.FinishReason)}:
		}
	}()

	return out, errCh
}

func (m *Model) generateStream(ctx context.Context, params openai.ChatCompletionNewParams, out chan<- model.Chunk, errCh chan<- error) {
	stream := m.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	var full string
	finishReason := "stop"

	for stream.Next() {
		ck := stream.Current()
		if len(ck.Choices) == 0 {
			continue
		}
		choice := ck.Choices[0]
		if choice.FinishReason != "" {
			finishReason = string(choice.FinishReason)
		}
		if choice.Delta.Content == "" {
			continue
		}
		full += choice.Delta.Content

		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
			return
		case out <- model.Chunk{Partial: true, Text: choice.Delta.Content}:
		}
	}

	if err := stream.Err(); err != nil {
		errCh <- fmt.Errorf("openai stream error: %w", err)
		return
	}

	select {
	case <-ctx.Done():
		errCh <- ctx.Err()
	case out <- model.Chunk{Text: full, FinishReason: finishReason}:
	}
}

func (m *Model) messages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	var msgs []openai.ChatCompletionMessageParamUnion
	if req.Instructions != "" {
		msgs = append(msgs, openai.SystemMessage(req.Instructions))
	}
	input := req.Input
	if req.Context != "" {
		input += "\n\nSession context:\n" + req.Context
	}
	msgs = append(msgs, openai.UserMessage(input))
	return msgs
}

// Info implements model.Model.
func (m *Model) Info() model.Info {
	return model.Info{Name: string(m.opts.Model), Provider: "openai"}
}
