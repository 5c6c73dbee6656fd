//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

// Package service defines the evaluation orchestration contract.
package service

import (
	"context"

	"github.com/tagmeagain/LLMEval/conversation"
	"github.com/tagmeagain/LLMEval/evalresult"
	"github.com/tagmeagain/LLMEval/metric"
)

// Case is one evaluable dataset row: a pair of candidate conversation
// records plus its provenance.
type Case struct {
	// CaseID uniquely identifies the case within the batch.
	CaseID string `json:"caseId"`
	// RowIndex is the zero-based position of the source row in the dataset.
	RowIndex int `json:"rowIndex"`
	// Scenario carries the row's scenario annotation, if any.
	Scenario string `json:"scenario,omitempty"`
	// Pair holds the two candidate records.
	Pair *conversation.Pair `json:"-"`
}

// EvaluateRequest asks the service to score a batch of cases against the
// active metrics.
type EvaluateRequest struct {
	// Cases are evaluated in bounded parallelism; results come back in
	// Cases order regardless of execution interleaving.
	Cases []*Case
	// Metrics are the active metric definitions, thresholds resolved.
	Metrics []*metric.Definition
}

// Service evaluates batches of candidate conversation pairs.
type Service interface {
	// Evaluate scores every case and returns one result per case, in input
	// order. Per-case failures are recorded in the corresponding result,
	// not returned as the error.
	Evaluate(ctx context.Context, request *EvaluateRequest) ([]*evalresult.CaseResult, error)
	// Close releases resources owned by the service.
	Close() error
}
