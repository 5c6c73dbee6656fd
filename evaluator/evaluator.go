//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

// Package evaluator defines the contract for scoring one conversation record
// against one metric definition.
package evaluator

import (
	"context"

	"github.com/tagmeagain/LLMEval/conversation"
	"github.com/tagmeagain/LLMEval/metric"
	"github.com/tagmeagain/LLMEval/status"
)

// Result is the outcome of evaluating one record against one metric.
type Result struct {
	// MetricName identifies the metric.
	MetricName string `json:"metricName"`
	// Score is the judge score in [0,1].
	Score float64 `json:"score"`
	// Status is passed iff Score >= Threshold.
	Status status.EvalStatus `json:"status"`
	// Threshold that was applied.
	Threshold float64 `json:"threshold"`
	// Rationale is the judge's reasoning.
	Rationale string `json:"rationale,omitempty"`
	// JudgeModel names the judge that produced the score.
	JudgeModel string `json:"judgeModel,omitempty"`
}

// Evaluator scores conversation records against metric definitions by
// delegating to an external judge capability.
type Evaluator interface {
	// Name returns the evaluator identifier.
	Name() string
	// Description describes the evaluator.
	Description() string
	// Evaluate scores the record against the definition.
	Evaluate(ctx context.Context, record *conversation.Record, def *metric.Definition) (*Result, error)
}
