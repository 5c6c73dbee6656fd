//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

// Package openai implements the model contract on top of the OpenAI
// chat-completions API. Any OpenAI-compatible endpoint works via the base
// URL option, so both candidate generators and the judge share this
// transport.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"

	openai "github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/tagmeagain/LLMEval/model"
)

// Model is an OpenAI-backed model instance.
type Model struct {
	client      openai.Client
	name        string
	temperature *float64
	maxTokens   *int
}

// Option configures a Model.
type Option func(*options)

type options struct {
	apiKey      string
	baseURL     string
	temperature *float64
	maxTokens   *int
	extra       []openaiopt.RequestOption
}

// WithAPIKey sets the API key. Defaults to the OPENAI_API_KEY environment
// variable.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithTemperature sets the default sampling temperature for requests that do
// not carry their own.
func WithTemperature(t float64) Option {
	return func(o *options) { o.temperature = &t }
}

// WithMaxTokens sets the default completion token cap for requests that do
// not carry their own.
func WithMaxTokens(n int) Option {
	return func(o *options) { o.maxTokens = &n }
}

// WithRequestOptions appends raw openai-go request options.
func WithRequestOptions(opts ...openaiopt.RequestOption) Option {
	return func(o *options) { o.extra = append(o.extra, opts...) }
}

// New creates an OpenAI-backed model with the given name.
func New(name string, opt ...Option) *Model {
	o := options{}
	for _, apply := range opt {
		apply(&o)
	}
	if o.apiKey == "" {
		o.apiKey = os.Getenv("OPENAI_API_KEY")
	}
	var clientOpts []openaiopt.RequestOption
	if o.apiKey != "" {
		clientOpts = append(clientOpts, openaiopt.WithAPIKey(o.apiKey))
	}
	if o.baseURL != "" {
		clientOpts = append(clientOpts, openaiopt.WithBaseURL(o.baseURL))
	}
	clientOpts = append(clientOpts, o.extra...)
	return &Model{
		client:      openai.NewClient(clientOpts...),
		name:        name,
		temperature: o.temperature,
		maxTokens:   o.maxTokens,
	}
}

// Info implements the model.Model interface.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.name}
}

// GenerateContent implements the model.Model interface.
// Timeouts, rate limits and server errors are surfaced as transient so the
// caller's retry policy can distinguish them from terminal failures.
func (m *Model) GenerateContent(ctx context.Context, req *model.Request) (*model.Response, error) {
	if req == nil {
		return nil, errors.New("request is nil")
	}
	if len(req.Messages) == 0 {
		return nil, errors.New("request has no messages")
	}
	completion, err := m.client.Chat.Completions.New(ctx, m.buildChatRequest(req))
	if err != nil {
		return nil, classifyError(err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("response has no choices")
	}
	return &model.Response{
		Content: completion.Choices[0].Message.Content,
		Model:   completion.Model,
	}, nil
}

// buildChatRequest converts our request format to the OpenAI wire format.
func (m *Model) buildChatRequest(req *model.Request) openai.ChatCompletionNewParams {
	chatRequest := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(m.name),
		Messages: convertMessages(req.Messages),
	}
	temperature := req.Temperature
	if temperature == nil {
		temperature = m.temperature
	}
	if temperature != nil {
		chatRequest.Temperature = openai.Float(*temperature)
	}
	maxTokens := req.MaxTokens
	if maxTokens == nil {
		maxTokens = m.maxTokens
	}
	if maxTokens != nil {
		chatRequest.MaxCompletionTokens = openai.Int(int64(*maxTokens))
	}
	return chatRequest
}

// convertMessages converts our Message format to OpenAI's format.
func convertMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			result[i] = openai.SystemMessage(msg.Content)
		case model.RoleAssistant:
			result[i] = openai.AssistantMessage(msg.Content)
		default:
			result[i] = openai.UserMessage(msg.Content)
		}
	}
	return result
}

// classifyError wraps retryable API failures as transient.
func classifyError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusRequestTimeout, http.StatusTooManyRequests,
			http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return model.NewTransientError(err)
		}
		return fmt.Errorf("openai api error: %w", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.NewTransientError(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return model.NewTransientError(err)
	}
	return err
}
