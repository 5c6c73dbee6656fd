//
// Copyright (C) 2026 LLMEval Authors. All rights reserved.
//
// LLMEval is licensed under the Apache License Version 2.0.
//
//

// Package status provides the status of an evaluation.
package status

// EvalStatus represents the outcome of a metric or candidate evaluation.
type EvalStatus int

const (
	// EvalStatusUnknown represents an unknown evaluation status.
	EvalStatusUnknown EvalStatus = iota
	// EvalStatusPassed represents a passed evaluation status.
	EvalStatusPassed
	// EvalStatusFailed represents a failed evaluation status.
	EvalStatusFailed
	// EvalStatusNotEvaluated represents a metric that produced no usable score.
	EvalStatusNotEvaluated
)

// String returns the string representation of the evaluation status.
func (s EvalStatus) String() string {
	switch s {
	case EvalStatusPassed:
		return "passed"
	case EvalStatusFailed:
		return "failed"
	case EvalStatusNotEvaluated:
		return "not_evaluated"
	default:
		return "unknown"
	}
}

// CaseState tracks the lifecycle of a single test case through the pipeline.
type CaseState int

const (
	// CaseStateUnknown represents an unknown case state.
	CaseStateUnknown CaseState = iota
	// CaseStateBuilt means the conversation builder succeeded for both candidates.
	CaseStateBuilt
	// CaseStateResponsesFilled means the response source resolved the final
	// assistant turn for both candidates.
	CaseStateResponsesFilled
	// CaseStateEvaluating means all candidate-metric judge calls are dispatched.
	CaseStateEvaluating
	// CaseStateAggregated means every dispatched call settled and the case
	// comparison was produced.
	CaseStateAggregated
	// CaseStatePartialFailure means the case aggregated with at least one
	// metric failure.
	CaseStatePartialFailure
	// CaseStateFailed means the case could not be completed: a required
	// candidate was rejected at build time, response generation exhausted its
	// retries, or the global timeout expired first.
	CaseStateFailed
)

// String returns the string representation of the case state.
func (s CaseState) String() string {
	switch s {
	case CaseStateBuilt:
		return "built"
	case CaseStateResponsesFilled:
		return "responses_filled"
	case CaseStateEvaluating:
		return "evaluating"
	case CaseStateAggregated:
		return "aggregated"
	case CaseStatePartialFailure:
		return "partial_failure"
	case CaseStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
