//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

// Package inference resolves the final assistant turn of each candidate
// record, either from prerecorded input or by calling the candidate's
// generator model.
package inference

import (
	"context"
	"errors"
	"fmt"

	"github.com/tagmeagain/LLMEval/conversation"
	"github.com/tagmeagain/LLMEval/internal/retry"
	"github.com/tagmeagain/LLMEval/model"
)

// Source fills the final assistant turn of a candidate's record.
type Source interface {
	// Name returns the source identifier.
	Name() string
	// Fill returns a record whose final turn is the candidate's assistant
	// response.
	Fill(ctx context.Context, record *conversation.Record, candidate conversation.Candidate) (*conversation.Record, error)
}

// stored reads the response already embedded in the record.
type stored struct{}

// NewStored returns the prerecorded response source.
func NewStored() Source {
	return stored{}
}

// Name returns the source identifier.
func (stored) Name() string { return "stored" }

// Fill returns the record as-is. A missing final assistant turn is an
// internal invariant violation: the mode resolver guarantees presence before
// a stored source is selected.
func (stored) Fill(_ context.Context, record *conversation.Record,
	candidate conversation.Candidate) (*conversation.Record, error) {
	if record == nil {
		return nil, errors.New("record is nil")
	}
	if !record.HasFinalAssistant() {
		return nil, fmt.Errorf("internal: candidate %s record has no stored response", candidate)
	}
	return record, nil
}

// generated calls each candidate's generator model to produce the response.
type generated struct {
	models      map[conversation.Candidate]model.Model
	instruction string
	policy      retry.Policy
}

// GeneratedOption configures the generated response source.
type GeneratedOption func(*generated)

// WithInstruction sets the system instruction passed to the generators.
func WithInstruction(instruction string) GeneratedOption {
	return func(g *generated) { g.instruction = instruction }
}

// WithRetryPolicy overrides the transient-error retry policy for generation
// calls.
func WithRetryPolicy(policy retry.Policy) GeneratedOption {
	return func(g *generated) { g.policy = policy }
}

// NewGenerated returns a response source that generates responses with the
// per-candidate models.
func NewGenerated(modelA, modelB model.Model, opt ...GeneratedOption) (Source, error) {
	if modelA == nil || modelB == nil {
		return nil, errors.New("both candidate models are required")
	}
	g := &generated{
		models: map[conversation.Candidate]model.Model{
			conversation.CandidateA: modelA,
			conversation.CandidateB: modelB,
		},
		policy: retry.DefaultPolicy(),
	}
	for _, o := range opt {
		o(g)
	}
	return g, nil
}

// Name returns the source identifier.
func (g *generated) Name() string { return "generated" }

// Fill generates the candidate's response from the record's prior turns and
// user query. Transient generator failures are retried per the policy;
// exhausting the budget surfaces the error so the caller can mark a
// candidate failure.
func (g *generated) Fill(ctx context.Context, record *conversation.Record,
	candidate conversation.Candidate) (*conversation.Record, error) {
	if record == nil {
		return nil, errors.New("record is nil")
	}
	if record.HasFinalAssistant() {
		return record, nil
	}
	content, err := g.generate(ctx, candidate, record.Turns())
	if err != nil {
		return nil, err
	}
	filled, err := record.WithAssistant(content)
	if err != nil {
		return nil, fmt.Errorf("append generated response: %w", err)
	}
	return filled, nil
}

func (g *generated) generate(ctx context.Context, candidate conversation.Candidate,
	turns []conversation.Turn) (string, error) {
	generator, ok := g.models[candidate]
	if !ok {
		return "", fmt.Errorf("no generator model for candidate %s", candidate)
	}
	req := &model.Request{Messages: model.MessagesFromTurns(g.instruction, turns)}
	var resp *model.Response
	err := retry.Do(ctx, g.policy, func(ctx context.Context) error {
		var callErr error
		resp, callErr = generator.GenerateContent(ctx, req)
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("generate candidate %s response: %w", candidate, err)
	}
	if resp.Content == "" {
		return "", fmt.Errorf("generator for candidate %s returned empty content", candidate)
	}
	return resp.Content, nil
}
