//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

// Package model defines the contract for the opaque remote language model
// capabilities: the generator that produces candidate responses and the
// judge that scores conversations. The harness knows them only through this
// request/response surface.
package model

import (
	"context"

	"github.com/tagmeagain/LLMEval/conversation"
)

// Role is the author of a chat message at the transport layer.
type Role string

const (
	// RoleSystem marks the system instruction.
	RoleSystem Role = "system"
	// RoleUser marks a user message.
	RoleUser Role = "user"
	// RoleAssistant marks an assistant message.
	RoleAssistant Role = "assistant"
)

// Message is a single chat message sent to a model.
type Message struct {
	// Role is the author of the message.
	Role Role `json:"role"`
	// Content is the message text.
	Content string `json:"content"`
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// MessagesFromTurns converts conversation turns to transport messages,
// optionally prefixed with a system instruction.
func MessagesFromTurns(instruction string, turns []conversation.Turn) []Message {
	messages := make([]Message, 0, len(turns)+1)
	if instruction != "" {
		messages = append(messages, NewSystemMessage(instruction))
	}
	for _, turn := range turns {
		if turn.Role == conversation.RoleAssistant {
			messages = append(messages, NewAssistantMessage(turn.Content))
		} else {
			messages = append(messages, NewUserMessage(turn.Content))
		}
	}
	return messages
}

// Request is a single content generation request.
type Request struct {
	// Messages is the ordered chat history.
	Messages []Message `json:"messages"`
	// Temperature overrides the sampling temperature when non-nil.
	Temperature *float64 `json:"temperature,omitempty"`
	// MaxTokens caps the response length when non-nil.
	MaxTokens *int `json:"maxTokens,omitempty"`
}

// Response is the model's reply to a Request.
type Response struct {
	// Content is the generated assistant text.
	Content string `json:"content"`
	// Model names the concrete model that produced the content.
	Model string `json:"model,omitempty"`
}

// Info describes a model instance.
type Info struct {
	// Name is the model identifier (e.g. "gpt-4").
	Name string
}

// Model is an opaque remote text model.
type Model interface {
	// Info returns the model description.
	Info() Info
	// GenerateContent produces one assistant reply for the request.
	GenerateContent(ctx context.Context, req *Request) (*Response, error)
}
